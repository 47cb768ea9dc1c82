package gamesave

import (
	"fmt"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
)

// PSv layout:
//
//	"PSv" version:u8 bw:u8 bh:u8
//	walls     bw*bh bytes
//	type map  (bw*4)*(bh*4) entries, 1 byte (v1) or 2 bytes LE holding 9 bits (v2)
//	per occupied pixel, in scan order:
//	    vx:i8 vy:i8 (sixteenths)  life:u8 (v1, quarters) or u16 (v2)  temp:u16 (kelvin)
//
// There is no palette; type numbers are the element numbers of the time.
const legacyHeaderLen = 6

type legacyLayout struct {
	pmapBits  int
	typeBytes int
	lifeBytes int
}

func legacyLayoutFor(version uint8) (legacyLayout, bool) {
	switch version {
	case 1:
		return legacyLayout{pmapBits: 8, typeBytes: 1, lifeBytes: 1}, true
	case 2:
		return legacyLayout{pmapBits: 9, typeBytes: 2, lifeBytes: 2}, true
	default:
		return legacyLayout{}, false
	}
}

func decodeLegacy(data []byte, table *elements.Table, opts DecodeOptions) (*GameSave, error) {
	if len(data) < legacyHeaderLen {
		return nil, parseErrorf(ParseCorrupt, "legacy header truncated")
	}
	version := data[3]
	layout, ok := legacyLayoutFor(version)
	if !ok {
		return nil, parseErrorf(ParseWrongVersion, "legacy version %d not supported", version)
	}
	size := core.V(int(data[4]), int(data[5]))
	if !opts.Limits.allows(size) {
		return nil, parseErrorf(ParseInvalidDimensions, "legacy save is %s blocks, limit %s", size, opts.Limits.MaxBlockSize)
	}

	cells := size.Area()
	px := size.Scale(CellSize)
	pixels := px.Area()
	mapsEnd := legacyHeaderLen + cells + pixels*layout.typeBytes
	if len(data) < mapsEnd {
		return nil, parseErrorf(ParseCorrupt, "legacy maps truncated: have %d bytes, need %d", len(data), mapsEnd)
	}

	r := newReader(data, "legacy")
	r.skip(legacyHeaderLen)

	gs := &GameSave{
		Version:    Version{Major: 0, Minor: int(version)},
		PmapBits:   layout.pmapBits,
		SimOptions: DefaultSimOptions(),
	}
	gs.allocate(size)

	walls := gs.BlockMap.Data()
	copy(walls, r.take(cells))
	for i, w := range walls {
		if w >= WallCount {
			return nil, parseErrorf(ParseCorrupt, "legacy wall %d at cell %d unknown", w, i)
		}
	}

	types := make([]int, pixels)
	occupied := 0
	maxType := 1 << layout.pmapBits
	for i := range types {
		var t int
		if layout.typeBytes == 1 {
			t = int(r.u8())
		} else {
			t = int(r.u16())
		}
		if t >= maxType {
			return nil, parseErrorf(ParseCorrupt, "legacy type %d at pixel %d exceeds %d bits", t, i, layout.pmapBits)
		}
		types[i] = t
		if t != 0 {
			occupied++
		}
	}

	recordLen := 2 + layout.lifeBytes + 2
	if want := mapsEnd + occupied*recordLen; len(data) != want {
		return nil, parseErrorf(ParseCorrupt, "legacy save is %d bytes, expected %d for %d particles", len(data), want, occupied)
	}

	gs.Particles = make([]Particle, 0, occupied)
	for i, legacyType := range types {
		if legacyType == 0 {
			continue
		}
		p := NewParticle(legacyRuntimeType(legacyType, table, &gs.MissingElements), float32(i%px.X), float32(i/px.X))
		p.VX = float32(r.i8()) / 16
		p.VY = float32(r.i8()) / 16
		if layout.lifeBytes == 1 {
			p.Life = int(r.u8()) * 4
		} else {
			p.Life = int(r.u16())
		}
		p.Temp = float32(r.u16())
		gs.Particles = append(gs.Particles, p)
	}
	if r.err != nil {
		return nil, r.err
	}

	gs.MissingElements.recount(gs.Particles)
	if n := gs.MissingElements.Len(); n > 0 {
		opts.Logger.Debug("legacy save references unknown elements", "count", n, "names", gs.MissingElements.Names())
	}
	return gs, nil
}

func legacyRuntimeType(legacy int, table *elements.Table, missing *MissingElements) int {
	if id, ok := table.ByLegacyID(legacy); ok && id != elements.None {
		return id
	}
	return missing.sentinelFor(elements.MissingBase, fmt.Sprintf("LEGACY_%d", legacy))
}
