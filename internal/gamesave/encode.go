package gamesave

import (
	"encoding/json"

	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/plane"
)

// EncodeOptions controls Serialise.
type EncodeOptions struct {
	// Table names the runtime element IDs. Required.
	Table *elements.Table
	// Target is the version to label the save with. Zero means
	// CurrentVersion. Content that needs a newer version raises the label.
	Target Version
	// Level is the zstd level. Zero means zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// RequiredVersion returns the oldest version that can carry everything in
// the save.
func (gs *GameSave) RequiredVersion() Version {
	v := MinTaggedVersion
	if gs.HasBlockAirMaps {
		v = v.Max(versionBlockAirMaps)
	}
	if gs.HasGravityMaps {
		v = v.Max(versionGravityMaps)
	}
	if gs.HasRNGState || gs.EnsureDeterminism {
		v = v.Max(versionRNGState)
	}
	for _, p := range gs.Particles {
		if p.Tmp3 != 0 || p.Tmp4 != 0 {
			v = v.Max(versionTmp34)
			break
		}
	}
	return v
}

// Serialise encodes the save in the tagged format. fromNewer reports that the
// content needed a newer version than opts.Target, so the written header
// carries the newer version. The save itself is not modified.
func (gs *GameSave) Serialise(opts EncodeOptions) (data []byte, fromNewer bool, err error) {
	if opts.Table == nil {
		return nil, false, buildErrorf("no element table")
	}
	target := opts.Target
	if target == (Version{}) {
		target = CurrentVersion
	}
	if target.Less(MinTaggedVersion) || CurrentVersion.Less(target) {
		return nil, false, buildErrorf("cannot write version %s (supported %s to %s)", target, MinTaggedVersion, CurrentVersion)
	}
	level := opts.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	if err := gs.Validate(); err != nil {
		return nil, false, &BuildError{Message: "save is inconsistent", Err: err}
	}

	required := gs.RequiredVersion()
	version := target.Max(required)
	fromNewer = target.Less(required)

	palette, toSave, err := BuildPalette(gs.Particles, opts.Table, gs.MissingElements, gs.Palette)
	if err != nil {
		return nil, false, err
	}

	body, err := gs.encodeBody(opts.Table, palette, toSave)
	if err != nil {
		return nil, false, err
	}
	if uint64(len(body)) > maxBodyLen(gs.BlockSize) {
		return nil, false, buildErrorf("body of %d bytes exceeds what a decoder accepts", len(body))
	}
	packed, err := compress(body, level)
	if err != nil {
		return nil, false, &BuildError{Message: "compress body", Err: err}
	}

	var w writer
	w.raw(taggedMagic)
	w.u8(uint8(version.Major))
	w.u8(uint8(version.Minor))
	w.u8(CellSize)
	w.u8(gs.headerFlags())
	w.u16(uint16(gs.BlockSize.X))
	w.u16(uint16(gs.BlockSize.Y))
	w.u32(uint32(len(body)))
	w.raw(packed)
	return w.bytes(), fromNewer, nil
}

func (gs *GameSave) headerFlags() uint8 {
	var f uint8
	if gs.HasPressure {
		f |= flagPressure
	}
	if gs.HasAmbientHeat {
		f |= flagAmbientHeat
	}
	if gs.HasBlockAirMaps {
		f |= flagBlockAir
	}
	if gs.HasGravityMaps {
		f |= flagGravity
	}
	if gs.HasRNGState {
		f |= flagRNGState
	}
	if gs.EnsureDeterminism {
		f |= flagDeterminism
	}
	return f
}

func (gs *GameSave) encodeBody(table *elements.Table, palette []PaletteItem, toSave map[int]int) ([]byte, error) {
	var body writer
	block := func(tag string, payload []byte) {
		body.raw([]byte(tag))
		body.u32(uint32(len(payload)))
		body.raw(payload)
	}

	block(tagPalette, encodePalette(palette))
	block(tagWalls, gs.BlockMap.Data())
	if anyNonZero(gs.FanVelX) || anyNonZero(gs.FanVelY) {
		block(tagFans, floats(gs.FanVelX, gs.FanVelY))
	}
	if gs.HasPressure {
		block(tagPressure, floats(gs.Pressure))
		block(tagVelocity, floats(gs.VelocityX, gs.VelocityY))
	}
	if gs.HasAmbientHeat {
		block(tagAmbientHeat, floats(gs.AmbientHeat))
	}
	if gs.HasBlockAirMaps {
		payload := append(append([]byte(nil), gs.BlockAir.Data()...), gs.BlockAirH.Data()...)
		block(tagBlockAir, payload)
	}
	if gs.HasGravityMaps {
		var w writer
		w.raw(floats(gs.GravMass))
		for _, m := range gs.GravMask.Data() {
			w.u32(m)
		}
		w.raw(floats(gs.GravForceX, gs.GravForceY))
		block(tagGravity, w.bytes())
	}

	parts, err := gs.encodeParticles(table, toSave)
	if err != nil {
		return nil, err
	}
	block(tagParticles, parts)

	if len(gs.Signs) > 0 {
		block(tagSigns, gs.encodeSigns())
	}
	if gs.Stkm.HasData() {
		block(tagStkm, gs.encodeStkm())
	}
	block(tagSimOptions, gs.encodeSimOptions())
	if gs.HasRNGState {
		var w writer
		w.u64(gs.RNGState[0])
		w.u64(gs.RNGState[1])
		block(tagRNGState, w.bytes())
	}
	if len(gs.Authors) > 0 {
		payload, err := json.Marshal(gs.Authors)
		if err != nil {
			return nil, &BuildError{Message: "encode authors", Err: err}
		}
		block(tagAuthors, payload)
	}
	return body.bytes(), nil
}

func encodePalette(items []PaletteItem) []byte {
	var w writer
	w.u16(uint16(len(items)))
	for _, item := range items {
		w.u16(uint16(item.ID))
		name := item.Name
		if len(name) > 0xFF {
			name = name[:0xFF]
		}
		w.u8(uint8(len(name)))
		w.raw([]byte(name))
	}
	return w.bytes()
}

func floats(planes ...plane.Plane[float32]) []byte {
	var w writer
	for _, p := range planes {
		for _, v := range p.Data() {
			w.f32(v)
		}
	}
	return w.bytes()
}

func anyNonZero(p plane.Plane[float32]) bool {
	for _, v := range p.Data() {
		if v != 0 {
			return true
		}
	}
	return false
}

func (gs *GameSave) encodeParticles(table *elements.Table, toSave map[int]int) ([]byte, error) {
	var w writer
	w.u32(uint32(len(gs.Particles)))
	for i, p := range gs.Particles {
		saveType, ok := toSave[p.Type]
		if !ok {
			return nil, buildErrorf("particle %d type %d missing from palette", i, p.Type)
		}
		ctype := p.Ctype
		if ctype != 0 && ctypeIsElement(table, p.Type) {
			if ctype, ok = toSave[p.Ctype]; !ok {
				return nil, buildErrorf("particle %d ctype %d missing from palette", i, p.Ctype)
			}
		} else if id, carried := carriedCtype(p, table, gs.MissingElements, gs.Palette); carried {
			if ctype, ok = toSave[id]; !ok {
				return nil, buildErrorf("particle %d ctype %d missing from palette", i, p.Ctype)
			}
		}

		var desc uint16
		set := func(bit uint16, cond bool) {
			if cond {
				desc |= bit
			}
		}
		set(descLife, p.Life != 0)
		set(descCtype, ctype != 0)
		set(descVelocity, p.VX != 0 || p.VY != 0)
		set(descTemp, p.Temp != 0)
		set(descTmp, p.Tmp != 0)
		set(descTmp2, p.Tmp2 != 0)
		set(descTmp3, p.Tmp3 != 0)
		set(descTmp4, p.Tmp4 != 0)
		set(descDcolour, p.Dcolour != 0)
		set(descFlags, p.Flags != 0)
		set(descBond0, p.Bonds[0] != NoRef)
		set(descBond1, p.Bonds[1] != NoRef)

		w.u16(desc)
		w.u16(uint16(saveType))
		w.f32(p.X)
		w.f32(p.Y)
		if desc&descLife != 0 {
			w.i32(int32(p.Life))
		}
		if desc&descCtype != 0 {
			w.i32(int32(ctype))
		}
		if desc&descVelocity != 0 {
			w.f32(p.VX)
			w.f32(p.VY)
		}
		if desc&descTemp != 0 {
			w.f32(p.Temp)
		}
		if desc&descTmp != 0 {
			w.i32(int32(p.Tmp))
		}
		if desc&descTmp2 != 0 {
			w.i32(int32(p.Tmp2))
		}
		if desc&descTmp3 != 0 {
			w.i32(int32(p.Tmp3))
		}
		if desc&descTmp4 != 0 {
			w.i32(int32(p.Tmp4))
		}
		if desc&descDcolour != 0 {
			w.u32(p.Dcolour)
		}
		if desc&descFlags != 0 {
			w.u32(p.Flags)
		}
		if desc&descBond0 != 0 {
			w.i32(int32(p.Bonds[0]))
		}
		if desc&descBond1 != 0 {
			w.i32(int32(p.Bonds[1]))
		}
	}
	return w.bytes(), nil
}

func (gs *GameSave) encodeSigns() []byte {
	var w writer
	w.u16(uint16(len(gs.Signs)))
	for _, s := range gs.Signs {
		w.u32(uint32(s.X))
		w.u32(uint32(s.Y))
		w.u8(uint8(s.Ju))
		w.u16(uint16(len(s.Text)))
		w.raw([]byte(s.Text))
	}
	return w.bytes()
}

func (gs *GameSave) encodeStkm() []byte {
	var w writer
	w.u8(boolBits(gs.Stkm.RocketBoots1, gs.Stkm.RocketBoots2, gs.Stkm.Fan1, gs.Stkm.Fan2))
	for _, list := range [][]Ref{gs.Stkm.RocketBootsFigh, gs.Stkm.FanFigh} {
		w.u16(uint16(len(list)))
		for _, r := range list {
			w.u32(uint32(r))
		}
	}
	return w.bytes()
}

func (gs *GameSave) encodeSimOptions() []byte {
	o := gs.SimOptions
	var w writer
	w.u8(boolBits(o.WaterEEnabled, o.LegacyEnable, o.GravityEnable, o.AHeatEnable, o.Paused))
	w.u8(uint8(o.GravityMode))
	w.f32(o.CustomGravityX)
	w.f32(o.CustomGravityY)
	w.u8(uint8(o.AirMode))
	w.f32(o.AmbientAirTemp)
	w.f32(o.VorticityCoeff)
	w.u8(uint8(o.EdgeMode))
	w.u64(o.FrameCount)
	w.u8(uint8(gs.PmapBits))
	return w.bytes()
}
