package gamesave

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
)

func TestRoundTripSingleParticle(t *testing.T) {
	gs := mustNew(t, 10, 10)
	p := NewParticle(elementID(t, "DUST"), 5, 5)
	p.VX, p.VY = 1.5, -0.25
	mustAdd(t, gs, p)

	out := roundTrip(t, gs)
	if len(out.Particles) != 1 {
		t.Fatalf("decoded %d particles, expected 1", len(out.Particles))
	}
	got := out.Particles[0]
	if got.X != 5 || got.Y != 5 {
		t.Errorf("position = (%g, %g), expected (5, 5)", got.X, got.Y)
	}
	if got.VX != 1.5 || got.VY != -0.25 {
		t.Errorf("velocity = (%g, %g), expected (1.5, -0.25)", got.VX, got.VY)
	}
	if out.BlockSize != core.V(10, 10) {
		t.Errorf("BlockSize = %s, expected 10x10", out.BlockSize)
	}
	if out.FromNewerVersion {
		t.Error("FromNewerVersion should be false")
	}
}

func fullSave(t *testing.T) *GameSave {
	t.Helper()
	gs := mustNew(t, 3, 2)
	gs.HasPressure = true
	gs.HasAmbientHeat = true
	gs.HasBlockAirMaps = true
	gs.HasGravityMaps = true
	gs.HasRNGState = true
	gs.EnsureDeterminism = true
	gs.RNGState = [2]uint64{0xdeadbeef, 42}
	gs.FrameCount = 1234
	gs.GravityMode = GravityCustom
	gs.CustomGravityX = 0.5
	gs.EdgeMode = EdgeLoop
	gs.WaterEEnabled = true
	gs.Paused = true
	gs.Authors = map[string]any{"username": "alice", "title": "bridge"}

	gs.BlockMap.Set(0, 0, WallWall)
	gs.BlockMap.Set(2, 1, WallFan)
	gs.FanVelX.Set(2, 1, 1.25)
	gs.FanVelY.Set(2, 1, -2)
	gs.Pressure.Set(1, 0, 3.5)
	gs.VelocityX.Set(1, 1, -1)
	gs.VelocityY.Set(0, 1, 2)
	gs.AmbientHeat.Set(2, 0, 300)
	gs.BlockAir.Set(1, 1, 7)
	gs.BlockAirH.Set(0, 0, 9)
	gs.GravMass.Set(0, 1, 4)
	gs.GravMask.Set(1, 0, 0xffffffff)
	gs.GravForceX.Set(2, 1, 0.125)
	gs.GravForceY.Set(2, 1, -0.125)

	mustAdd(t, gs, NewParticle(elementID(t, "WIRE"), 1, 1))

	clone := NewParticle(elementID(t, "CLNE"), 2, 1)
	clone.Ctype = elementID(t, "WATR")
	clone.Bonds = [2]Ref{0, 1}
	mustAdd(t, gs, clone)

	rich := NewParticle(elementID(t, "STKM"), 10.5, 6.25)
	rich.Life = 100
	rich.VX, rich.VY = -0.5, 0.75
	rich.Temp = 310
	rich.Tmp, rich.Tmp2, rich.Tmp3, rich.Tmp4 = 1, -2, 3, 4
	rich.Dcolour = 0xff00ff00
	rich.Flags = 5
	rich.Ctype = 77
	mustAdd(t, gs, rich)
	gs.Particles[0].Bonds[0] = 1

	gs.Stkm = StkmData{
		RocketBoots1:    true,
		Fan2:            true,
		RocketBootsFigh: []Ref{2},
		FanFigh:         []Ref{0, 2},
	}
	if err := gs.AddSign(Sign{Text: "hello", X: 3, Y: 4, Ju: JustifyMiddle}); err != nil {
		t.Fatal(err)
	}
	if err := gs.AddSign(Sign{Text: "°C", X: 11, Y: 7, Ju: JustifyNone}); err != nil {
		t.Fatal(err)
	}
	return gs
}

func TestRoundTripFullState(t *testing.T) {
	gs := fullSave(t)
	out := roundTrip(t, gs)

	if !reflect.DeepEqual(out.Particles, gs.Particles) {
		t.Errorf("particles differ:\n got %+v\nwant %+v", out.Particles, gs.Particles)
	}
	if !reflect.DeepEqual(out.SimOptions, gs.SimOptions) {
		t.Errorf("sim options differ:\n got %+v\nwant %+v", out.SimOptions, gs.SimOptions)
	}
	if !reflect.DeepEqual(out.Signs, gs.Signs) {
		t.Errorf("signs = %+v, expected %+v", out.Signs, gs.Signs)
	}
	if !reflect.DeepEqual(out.Stkm, gs.Stkm) {
		t.Errorf("stkm = %+v, expected %+v", out.Stkm, gs.Stkm)
	}
	if !reflect.DeepEqual(out.Authors, gs.Authors) {
		t.Errorf("authors = %v, expected %v", out.Authors, gs.Authors)
	}
	if out.PmapBits != CurrentPmapBits {
		t.Errorf("PmapBits = %d, expected %d", out.PmapBits, CurrentPmapBits)
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"block map", out.BlockMap.Equal(gs.BlockMap)},
		{"fan x", out.FanVelX.Equal(gs.FanVelX)},
		{"fan y", out.FanVelY.Equal(gs.FanVelY)},
		{"pressure", out.Pressure.Equal(gs.Pressure)},
		{"velocity x", out.VelocityX.Equal(gs.VelocityX)},
		{"velocity y", out.VelocityY.Equal(gs.VelocityY)},
		{"ambient heat", out.AmbientHeat.Equal(gs.AmbientHeat)},
		{"block air", out.BlockAir.Equal(gs.BlockAir)},
		{"block air h", out.BlockAirH.Equal(gs.BlockAirH)},
		{"grav mass", out.GravMass.Equal(gs.GravMass)},
		{"grav mask", out.GravMask.Equal(gs.GravMask)},
		{"grav force x", out.GravForceX.Equal(gs.GravForceX)},
		{"grav force y", out.GravForceY.Equal(gs.GravForceY)},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s differs after round trip", c.name)
		}
	}
}

func TestSerialiseIsDeterministicAndStable(t *testing.T) {
	gs := fullSave(t)
	first := encode(t, gs)
	second := encode(t, gs)
	if !bytes.Equal(first, second) {
		t.Fatal("two encodes of the same save differ")
	}

	again := encode(t, roundTrip(t, gs))
	if !bytes.Equal(first, again) {
		t.Error("re-encoding a decoded save changed the bytes")
	}
}

func TestSerialiseDoesNotMutate(t *testing.T) {
	gs := fullSave(t)
	before := gs.Clone()
	encode(t, gs)
	if !reflect.DeepEqual(gs, before) {
		t.Error("Serialise modified the save")
	}
}

func TestSerialiseEscalatesVersion(t *testing.T) {
	gs := mustNew(t, 2, 2)
	gs.HasGravityMaps = true

	data, fromNewer, err := gs.Serialise(EncodeOptions{Table: elements.Default(), Target: Version{1, 0}})
	if err != nil {
		t.Fatalf("Serialise failed: %v", err)
	}
	if !fromNewer {
		t.Error("fromNewer should be set when gravity maps need 1.3")
	}
	if data[4] != 1 || data[5] != 3 {
		t.Errorf("header version = %d.%d, expected 1.3", data[4], data[5])
	}

	out, err := Decode(data, elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.Version != (Version{1, 3}) {
		t.Errorf("decoded version = %s, expected 1.3", out.Version)
	}

	plain := mustNew(t, 2, 2)
	_, fromNewer, err = plain.Serialise(EncodeOptions{Table: elements.Default(), Target: Version{1, 0}})
	if err != nil || fromNewer {
		t.Errorf("plain save at 1.0: fromNewer=%v err=%v, expected false, nil", fromNewer, err)
	}
}

func TestSerialiseErrors(t *testing.T) {
	table := elements.Default()

	unknown := mustNew(t, 2, 2)
	mustAdd(t, unknown, NewParticle(9999, 1, 1))
	if _, _, err := unknown.Serialise(EncodeOptions{Table: table}); err == nil {
		t.Error("expected error for element with no name")
	}

	ok := mustNew(t, 2, 2)
	if _, _, err := ok.Serialise(EncodeOptions{Table: table, Target: Version{2, 0}}); err == nil {
		t.Error("expected error for target newer than this writer")
	}
	if _, _, err := ok.Serialise(EncodeOptions{}); err == nil {
		t.Error("expected error without element table")
	}

	broken := mustNew(t, 2, 2)
	broken.Particles = append(broken.Particles, NewParticle(elementID(t, "DUST"), 100, 100))
	_, _, err := broken.Serialise(EncodeOptions{Table: table})
	if _, isBuild := err.(*BuildError); !isBuild {
		t.Errorf("expected *BuildError for out-of-canvas particle, got %v", err)
	}
}

func TestDecodeNewerVersion(t *testing.T) {
	h := header(2, 2)
	h.version = Version{Major: CurrentVersion.Major + 2, Minor: 0}
	h.flags = 0x80

	dust := elementID(t, "DUST")
	var ext writer
	ext.u16(descLife | descExtension)
	ext.u16(1)
	ext.f32(3)
	ext.f32(4)
	ext.u32(55)
	ext.u8(3)
	ext.raw([]byte{9, 9, 9})

	data := buildTagged(t, h,
		paletteBlock(PaletteItem{Name: "DUST", ID: 1}),
		wallBlock(2, 2),
		rawBlock{tag: "ZZZZ", payload: []byte("future data")},
		particleBlock(ext.bytes(), record(0, 1, 5, 6)),
	)

	gs, err := Decode(data, elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !gs.FromNewerVersion {
		t.Error("FromNewerVersion should be set")
	}
	if len(gs.Particles) != 2 {
		t.Fatalf("decoded %d particles, expected 2", len(gs.Particles))
	}
	if p := gs.Particles[0]; p.Type != dust || p.Life != 55 || p.X != 3 || p.Y != 4 {
		t.Errorf("first particle = %+v", p)
	}
	if p := gs.Particles[1]; p.X != 5 || p.Y != 6 {
		t.Errorf("second particle = %+v, expected at (5, 6)", p)
	}
}

func TestDecodeCorruptBody(t *testing.T) {
	valid := encode(t, fullSave(t))

	truncated := valid[:len(valid)-10]
	_, err := Decode(truncated, elements.Default(), DecodeOptions{})
	expectResult(t, err, ParseCorrupt)

	garbage := append(append([]byte(nil), valid[:taggedHeaderLen]...), bytes.Repeat([]byte{0xAB}, 64)...)
	_, err = Decode(garbage, elements.Default(), DecodeOptions{})
	expectResult(t, err, ParseCorrupt)

	headerOnly := valid[:taggedHeaderLen-3]
	_, err = Decode(headerOnly, elements.Default(), DecodeOptions{})
	expectResult(t, err, ParseCorrupt)
}

func TestDecodeMissingElement(t *testing.T) {
	data := buildTagged(t, header(2, 2),
		paletteBlock(PaletteItem{Name: "DUST", ID: 1}, PaletteItem{Name: "UNOBTAINIUM", ID: 2}),
		wallBlock(2, 2),
		particleBlock(
			record(0, 2, 1, 1),
			record(0, 1, 2, 2),
			record(0, 2, 3, 3),
		),
	)

	gs, err := Decode(data, elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := gs.MissingElements.Identifiers["UNOBTAINIUM"]; got != 2 {
		t.Errorf("missing count = %d, expected 2", got)
	}
	sentinel := gs.Particles[0].Type
	if !elements.IsMissing(sentinel) {
		t.Fatalf("type %d is not a sentinel", sentinel)
	}
	if gs.Particles[2].Type != sentinel {
		t.Error("particles of the same missing element should share a sentinel")
	}
	if name, _ := gs.MissingElements.Name(sentinel); name != "UNOBTAINIUM" {
		t.Errorf("sentinel name = %q", name)
	}

	again := roundTrip(t, gs)
	if names := again.MissingElements.Names(); len(names) != 1 || names[0] != "UNOBTAINIUM" {
		t.Errorf("re-encoded missing names = %v", names)
	}
	if len(again.Particles) != 3 {
		t.Errorf("re-encoded particles = %d, expected 3", len(again.Particles))
	}
}

func TestMissingTypeCtypeKeepsElement(t *testing.T) {
	data := buildTagged(t, header(2, 2),
		paletteBlock(
			PaletteItem{Name: "DUST", ID: 1},
			PaletteItem{Name: "UNOBTAINIUM", ID: 2},
			PaletteItem{Name: "WATR", ID: 3},
		),
		wallBlock(2, 2),
		particleBlock(
			record(descCtype, 2, 1, 1, 3),
			record(descCtype, 2, 2, 2, 40),
			record(0, 1, 3, 3),
		),
	)
	gs, err := Decode(data, elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gs.Particles[0].Ctype != 3 || gs.Particles[1].Ctype != 40 {
		t.Fatalf("ctypes = %d, %d; expected 3 and 40 kept as read", gs.Particles[0].Ctype, gs.Particles[1].Ctype)
	}

	again := roundTrip(t, gs)
	names := make(map[int]string, len(again.Palette))
	for _, item := range again.Palette {
		names[item.ID] = item.Name
	}
	if name := names[again.Particles[0].Ctype]; name != "WATR" {
		t.Errorf("re-encoded ctype %d names %q, expected WATR", again.Particles[0].Ctype, name)
	}
	if again.Particles[1].Ctype != 40 {
		t.Errorf("ctype outside the palette = %d, expected 40", again.Particles[1].Ctype)
	}
	if third := roundTrip(t, again); third.Particles[0].Ctype != again.Particles[0].Ctype {
		t.Errorf("second round trip ctype = %d, expected %d", third.Particles[0].Ctype, again.Particles[0].Ctype)
	}
}

func TestDecodeRemapsReferences(t *testing.T) {
	stkm := writer{}
	stkm.u8(1)
	stkm.u16(2)
	stkm.u32(1)
	stkm.u32(3)
	stkm.u16(1)
	stkm.u32(50)

	data := buildTagged(t, header(2, 2),
		paletteBlock(PaletteItem{Name: "WIRE", ID: 1}),
		wallBlock(2, 2),
		particleBlock(
			record(descBond0|descBond1, 1, 0, 0, ref32(3), ref32(99)),
			record(0, 0, 1, 1),
			record(descBond0, 1, 20, 20, ref32(0)),
			record(descBond0, 1, 2, 2, ref32(2)),
		),
		rawBlock{tag: tagStkm, payload: stkm.bytes()},
	)

	gs, err := Decode(data, elements.Default(), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(gs.Particles) != 2 {
		t.Fatalf("decoded %d particles, expected 2", len(gs.Particles))
	}
	if b := gs.Particles[0].Bonds; b != [2]Ref{1, NoRef} {
		t.Errorf("first bonds = %v, expected [1 -1]", b)
	}
	if b := gs.Particles[1].Bonds; b != [2]Ref{NoRef, NoRef} {
		t.Errorf("second bonds = %v, expected none", b)
	}
	if !reflect.DeepEqual(gs.Stkm.RocketBootsFigh, []Ref{1}) {
		t.Errorf("RocketBootsFigh = %v, expected [1]", gs.Stkm.RocketBootsFigh)
	}
	if len(gs.Stkm.FanFigh) != 0 {
		t.Errorf("FanFigh = %v, expected empty", gs.Stkm.FanFigh)
	}
}

func TestDecodeRejects(t *testing.T) {
	wall := wallBlock(2, 2)
	dust := paletteBlock(PaletteItem{Name: "DUST", ID: 1})

	old := header(2, 2)
	old.version = Version{0, 9}
	badCell := header(2, 2)
	badCell.cellSize = 3
	huge := header(2, 2)
	huge.bodyLen = 1 << 31
	pressure := header(2, 2)
	pressure.flags = flagPressure
	unknownFlag := header(2, 2)
	unknownFlag.flags = 0x40

	tests := []struct {
		name string
		data []byte
		want ParseResult
	}{
		{"empty", nil, ParseCorrupt},
		{"bad magic", []byte("XYZW0000000000000000"), ParseCorrupt},
		{"old version", buildTagged(t, old, wall), ParseWrongVersion},
		{"cell size", buildTagged(t, badCell, wall), ParseInvalidDimensions},
		{"zero width", buildTagged(t, header(0, 2), wall), ParseInvalidDimensions},
		{"too wide", buildTagged(t, header(200, 2), wall), ParseInvalidDimensions},
		{"declared length", buildTagged(t, huge, wall), ParseCorrupt},
		{"length mismatch", func() []byte {
			h := header(2, 2)
			h.bodyLen = 100
			return buildTagged(t, h, wall)
		}(), ParseCorrupt},
		{"missing walls", buildTagged(t, header(2, 2), dust), ParseCorrupt},
		{"short walls", buildTagged(t, header(2, 2), rawBlock{tag: tagWalls, payload: []byte{0}}), ParseCorrupt},
		{"unknown wall", buildTagged(t, header(2, 2), rawBlock{tag: tagWalls, payload: []byte{0, 0, 0, 200}}), ParseCorrupt},
		{"flag without block", buildTagged(t, pressure, wall), ParseCorrupt},
		{"block without flag", buildTagged(t, header(2, 2), wall, rawBlock{tag: tagAmbientHeat, payload: make([]byte, 16)}), ParseCorrupt},
		{"unknown flag", buildTagged(t, unknownFlag, wall), ParseCorrupt},
		{"repeated block", buildTagged(t, header(2, 2), wall, wall), ParseCorrupt},
		{"duplicate palette id", buildTagged(t, header(2, 2),
			paletteBlock(PaletteItem{Name: "DUST", ID: 1}, PaletteItem{Name: "WATR", ID: 1}), wall), ParseCorrupt},
		{"duplicate palette name", buildTagged(t, header(2, 2),
			paletteBlock(PaletteItem{Name: "DUST", ID: 1}, PaletteItem{Name: "DUST", ID: 2}), wall), ParseCorrupt},
		{"palette id zero", buildTagged(t, header(2, 2), paletteBlock(PaletteItem{Name: "DUST", ID: 0}), wall), ParseCorrupt},
		{"unknown descriptor bit", buildTagged(t, header(2, 2), dust, wall, particleBlock(record(1<<13, 1, 0, 0))), ParseCorrupt},
		{"type not in palette", buildTagged(t, header(2, 2), dust, wall, particleBlock(record(0, 7, 0, 0))), ParseCorrupt},
		{"truncated particle", buildTagged(t, header(2, 2), dust, wall, particleBlock(record(descLife, 1, 0, 0))), ParseCorrupt},
		{"too many particles", func() []byte {
			recs := make([][]byte, 65)
			for i := range recs {
				recs[i] = record(0, 1, 0, 0)
			}
			return buildTagged(t, header(2, 2), dust, wall, particleBlock(recs...))
		}(), ParseCorrupt},
		{"block overruns body", buildTagged(t, header(2, 2), wall, rawBlock{tag: "PAR", payload: nil}), ParseCorrupt},
		{"too many signs", func() []byte {
			var w writer
			w.u16(MaxSigns + 1)
			return buildTagged(t, header(2, 2), wall, rawBlock{tag: tagSigns, payload: w.bytes()})
		}(), ParseCorrupt},
		{"bad authors", buildTagged(t, header(2, 2), wall, rawBlock{tag: tagAuthors, payload: []byte("{nope")}), ParseCorrupt},
		{"legacy version", []byte{'P', 'S', 'v', 9, 1, 1}, ParseWrongVersion},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs, err := Decode(tc.data, elements.Default(), DecodeOptions{})
			if gs != nil {
				t.Error("a failed decode must not return a save")
			}
			expectResult(t, err, tc.want)
		})
	}
}

func TestDecodeLimits(t *testing.T) {
	data := encode(t, mustNew(t, 40, 30))

	_, err := Decode(data, elements.Default(), DecodeOptions{Limits: Limits{MaxBlockSize: core.V(20, 20)}})
	expectResult(t, err, ParseInvalidDimensions)

	if _, err := Decode(data, elements.Default(), DecodeOptions{}); err != nil {
		t.Errorf("default limits should accept 40x30: %v", err)
	}
}

func TestDecodeSkipAuthors(t *testing.T) {
	data := encode(t, fullSave(t))
	gs, err := Decode(data, elements.Default(), DecodeOptions{SkipAuthors: true})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gs.Authors != nil {
		t.Errorf("Authors = %v, expected nil", gs.Authors)
	}
}

func TestDecodeWithoutTable(t *testing.T) {
	_, err := Decode(encode(t, mustNew(t, 1, 1)), nil, DecodeOptions{})
	expectResult(t, err, ParseInternalError)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		data []byte
		want Format
	}{
		{[]byte("OPS1...."), FormatTagged},
		{[]byte("PSv\x01"), FormatLegacy},
		{[]byte("PS"), FormatUnknown},
		{nil, FormatUnknown},
	}
	for _, tc := range tests {
		if got := DetectFormat(tc.data); got != tc.want {
			t.Errorf("DetectFormat(%q) = %s, expected %s", tc.data, got, tc.want)
		}
	}
}
