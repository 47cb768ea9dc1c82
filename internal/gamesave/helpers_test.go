package gamesave

import (
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
)

func elementID(t *testing.T, name string) int {
	t.Helper()
	id, ok := elements.Default().ByName(name)
	if !ok {
		t.Fatalf("element %s not in default table", name)
	}
	return id
}

func mustNew(t *testing.T, w, h int) *GameSave {
	t.Helper()
	gs, err := New(core.V(w, h))
	if err != nil {
		t.Fatalf("New(%d, %d) failed: %v", w, h, err)
	}
	return gs
}

func mustAdd(t *testing.T, gs *GameSave, p Particle) Ref {
	t.Helper()
	ref, err := gs.AddParticle(p)
	if err != nil {
		t.Fatalf("AddParticle(%+v) failed: %v", p, err)
	}
	return ref
}

func encode(t *testing.T, gs *GameSave) []byte {
	t.Helper()
	data, _, err := gs.Serialise(EncodeOptions{Table: elements.Default()})
	if err != nil {
		t.Fatalf("Serialise failed: %v", err)
	}
	return data
}

func roundTrip(t *testing.T, gs *GameSave) *GameSave {
	t.Helper()
	out, err := Decode(encode(t, gs), elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode of freshly encoded save failed: %v", err)
	}
	return out
}

func expectResult(t *testing.T, err error, want ParseResult) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := ParseResultOf(err); got != want {
		t.Fatalf("error %q has result %s, expected %s", err, got, want)
	}
}

// rawHeader describes a hand-built tagged header.
type rawHeader struct {
	version  Version
	cellSize uint8
	flags    uint8
	size     core.Vec2
	// bodyLen overrides the declared length when non-zero.
	bodyLen uint32
}

func header(w, h int) rawHeader {
	return rawHeader{version: CurrentVersion, cellSize: CellSize, size: core.V(w, h)}
}

type rawBlock struct {
	tag     string
	payload []byte
}

// buildTagged assembles a tagged save from raw blocks.
func buildTagged(t *testing.T, h rawHeader, blocks ...rawBlock) []byte {
	t.Helper()
	var body writer
	for _, b := range blocks {
		body.raw([]byte(b.tag))
		body.u32(uint32(len(b.payload)))
		body.raw(b.payload)
	}
	packed, err := compress(body.bytes(), zstd.SpeedFastest)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	declared := uint32(len(body.bytes()))
	if h.bodyLen != 0 {
		declared = h.bodyLen
	}

	var w writer
	w.raw(taggedMagic)
	w.u8(uint8(h.version.Major))
	w.u8(uint8(h.version.Minor))
	w.u8(h.cellSize)
	w.u8(h.flags)
	w.u16(uint16(h.size.X))
	w.u16(uint16(h.size.Y))
	w.u32(declared)
	w.raw(packed)
	return w.bytes()
}

func wallBlock(w, h int) rawBlock {
	return rawBlock{tag: tagWalls, payload: make([]byte, w*h)}
}

func paletteBlock(items ...PaletteItem) rawBlock {
	return rawBlock{tag: tagPalette, payload: encodePalette(items)}
}

// record encodes one particle. fields are written as 32-bit values in
// descriptor bit order.
func record(desc uint16, typ uint16, x, y float32, fields ...uint32) []byte {
	var w writer
	w.u16(desc)
	w.u16(typ)
	w.f32(x)
	w.f32(y)
	for _, f := range fields {
		w.u32(f)
	}
	return w.bytes()
}

func particleBlock(records ...[]byte) rawBlock {
	var w writer
	w.u32(uint32(len(records)))
	for _, r := range records {
		w.raw(r)
	}
	return rawBlock{tag: tagParticles, payload: w.bytes()}
}

func ref32(r int32) uint32 {
	return uint32(r)
}
