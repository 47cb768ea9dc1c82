// Package gamesave decodes, edits and encodes saved simulation states.
//
// A GameSave is a self-contained snapshot: a block grid of walls and field
// values, a list of particles in pixel coordinates, signs, stick-figure data
// and simulation options. Two on-disk formats are read (the legacy "PSv"
// layout and the tagged "OPS1" layout); only the tagged layout is written.
//
// Element identity on disk is carried by a per-save palette so saves survive
// changes to the runtime element table. Elements the table does not know are
// kept under sentinel IDs and written back with their original names.
package gamesave

import (
	"fmt"

	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/plane"
)

// MaxBlockDim is the largest block dimension the tagged header can carry.
const MaxBlockDim = 0xFFFF

// ClipboardFormatName identifies serialised saves on a system clipboard.
const ClipboardFormatName = "application/vnd.powdertoy.save"

// Limits bounds what Decode will allocate.
type Limits struct {
	MaxBlockSize core.Vec2
}

// DefaultLimits matches the runtime canvas: 153x96 blocks.
func DefaultLimits() Limits {
	return Limits{MaxBlockSize: core.V(153, 96)}
}

func (l Limits) allows(size core.Vec2) bool {
	return size.X > 0 && size.Y > 0 && size.X <= l.MaxBlockSize.X && size.Y <= l.MaxBlockSize.Y
}

func (l Limits) orDefault() Limits {
	if l.MaxBlockSize.X <= 0 || l.MaxBlockSize.Y <= 0 {
		return DefaultLimits()
	}
	return l
}

// checkSize rejects a canvas size the save's limits would refuse to decode.
func (gs *GameSave) checkSize(size core.Vec2) error {
	if size.X <= 0 || size.Y <= 0 || size.X > MaxBlockDim || size.Y > MaxBlockDim {
		return buildErrorf("invalid block size %s", size)
	}
	if limits := gs.Limits.orDefault(); !limits.allows(size) {
		return buildErrorf("canvas %s exceeds the %s block limit", size, limits.MaxBlockSize)
	}
	return nil
}

// Gravity modes.
const (
	GravityVertical = iota
	GravityOff
	GravityRadial
	GravityCustom
)

// Edge modes.
const (
	EdgeVoid = iota
	EdgeSolid
	EdgeLoop
)

// SimOptions are the simulation settings stored alongside the state.
type SimOptions struct {
	WaterEEnabled     bool
	LegacyEnable      bool
	GravityEnable     bool
	AHeatEnable       bool
	Paused            bool
	GravityMode       int
	CustomGravityX    float32
	CustomGravityY    float32
	AirMode           int
	AmbientAirTemp    float32
	VorticityCoeff    float32
	EdgeMode          int
	EnsureDeterminism bool
	HasRNGState       bool
	RNGState          [2]uint64
	FrameCount        uint64
	HasAmbientHeat    bool
	HasPressure       bool
	HasBlockAirMaps   bool
	HasGravityMaps    bool
}

// DefaultSimOptions returns the options of a fresh simulation.
func DefaultSimOptions() SimOptions {
	return SimOptions{
		AmbientAirTemp: DefaultTemp,
		VorticityCoeff: 0.1,
	}
}

// GameSave is a decoded or freshly built save.
type GameSave struct {
	BlockSize core.Vec2

	// Version is the version the save was read with, or CurrentVersion.
	Version Version
	// FromNewerVersion is set when the save came from a newer writer and some
	// of its content may have been skipped.
	FromNewerVersion bool
	// PmapBits is the particle-map bit width of the writer.
	PmapBits int
	// Limits bounds the canvas Expand, Transform and SetSize may produce, so
	// the result stays decodable. New sets DefaultLimits, widened to the
	// requested size; Decode copies its options. Zero means DefaultLimits.
	Limits Limits

	SimOptions

	Particles []Particle

	BlockMap    plane.Plane[uint8]
	FanVelX     plane.Plane[float32]
	FanVelY     plane.Plane[float32]
	Pressure    plane.Plane[float32]
	VelocityX   plane.Plane[float32]
	VelocityY   plane.Plane[float32]
	AmbientHeat plane.Plane[float32]
	BlockAir    plane.Plane[uint8]
	BlockAirH   plane.Plane[uint8]
	GravMass    plane.Plane[float32]
	GravMask    plane.Plane[uint32]
	GravForceX  plane.Plane[float32]
	GravForceY  plane.Plane[float32]

	Signs []Sign
	Stkm  StkmData

	// Palette is the name/ID table the save was read with. It is rebuilt on
	// every encode.
	Palette         []PaletteItem
	MissingElements MissingElements

	// Authors is free-form attribution metadata.
	Authors map[string]any
}

// CurrentPmapBits is the particle-map width written by this package.
const CurrentPmapBits = 9

// New returns an empty save of the given block size.
func New(size core.Vec2) (*GameSave, error) {
	if size.X <= 0 || size.Y <= 0 || size.X > MaxBlockDim || size.Y > MaxBlockDim {
		return nil, buildErrorf("invalid block size %s", size)
	}
	gs := &GameSave{
		Version:    CurrentVersion,
		PmapBits:   CurrentPmapBits,
		Limits:     DefaultLimits(),
		SimOptions: DefaultSimOptions(),
	}
	limit := gs.Limits.MaxBlockSize
	gs.Limits.MaxBlockSize = core.V(core.Max(limit.X, size.X), core.Max(limit.Y, size.Y))
	gs.allocate(size)
	return gs, nil
}

// allocate replaces every plane with a zeroed one of the given size.
func (gs *GameSave) allocate(size core.Vec2) {
	gs.BlockSize = size
	gs.BlockMap = plane.New[uint8](size)
	gs.FanVelX = plane.New[float32](size)
	gs.FanVelY = plane.New[float32](size)
	gs.Pressure = plane.New[float32](size)
	gs.VelocityX = plane.New[float32](size)
	gs.VelocityY = plane.New[float32](size)
	gs.AmbientHeat = plane.New[float32](size)
	gs.BlockAir = plane.New[uint8](size)
	gs.BlockAirH = plane.New[uint8](size)
	gs.GravMass = plane.New[float32](size)
	gs.GravMask = plane.New[uint32](size)
	gs.GravForceX = plane.New[float32](size)
	gs.GravForceY = plane.New[float32](size)
}

// PixelSize returns the canvas size in particle pixels.
func (gs *GameSave) PixelSize() core.Vec2 {
	return gs.BlockSize.Scale(CellSize)
}

// SetSize resizes the save and clears every plane. Particles and signs that
// fall outside the new canvas are removed.
func (gs *GameSave) SetSize(size core.Vec2) error {
	if err := gs.checkSize(size); err != nil {
		return err
	}
	gs.allocate(size)
	bounds := core.NewRect(0, 0, size.X*CellSize, size.Y*CellSize)
	gs.Particles, gs.Stkm = compactParticles(gs.Particles, gs.Stkm, func(p *Particle) bool {
		return bounds.ContainsF(p.X, p.Y)
	})
	gs.Signs = keepSigns(gs.Signs, bounds)
	gs.MissingElements.recount(gs.Particles)
	return nil
}

// AddParticle appends p and returns its index. The particle must lie inside
// the canvas and its bonds must point at existing particles or itself.
func (gs *GameSave) AddParticle(p Particle) (Ref, error) {
	if p.Type == elements.None {
		return NoRef, buildErrorf("particle has no type")
	}
	px := gs.PixelSize()
	if !core.NewRect(0, 0, px.X, px.Y).ContainsF(p.X, p.Y) {
		return NoRef, buildErrorf("particle at (%g, %g) outside %s canvas", p.X, p.Y, px)
	}
	idx := Ref(len(gs.Particles))
	for _, b := range p.Bonds {
		if b != NoRef && (b < 0 || b > idx) {
			return NoRef, buildErrorf("bond %d out of range", b)
		}
	}
	gs.Particles = append(gs.Particles, p)
	gs.MissingElements.countParticle(p)
	return idx, nil
}

// AddSign appends a sign.
func (gs *GameSave) AddSign(s Sign) error {
	if len(gs.Signs) >= MaxSigns {
		return buildErrorf("too many signs (max %d)", MaxSigns)
	}
	if !s.validText() {
		return buildErrorf("sign text must be valid UTF-8 of at most %d characters", MaxSignText)
	}
	if s.Ju > JustifyNone {
		return buildErrorf("unknown sign justification %d", s.Ju)
	}
	px := gs.PixelSize()
	if !core.NewRect(0, 0, px.X, px.Y).Contains(s.X, s.Y) {
		return buildErrorf("sign at (%d, %d) outside %s canvas", s.X, s.Y, px)
	}
	gs.Signs = append(gs.Signs, s)
	return nil
}

// Clone returns a deep copy.
func (gs *GameSave) Clone() *GameSave {
	out := *gs
	out.Particles = append([]Particle(nil), gs.Particles...)
	out.BlockMap = gs.BlockMap.Clone()
	out.FanVelX = gs.FanVelX.Clone()
	out.FanVelY = gs.FanVelY.Clone()
	out.Pressure = gs.Pressure.Clone()
	out.VelocityX = gs.VelocityX.Clone()
	out.VelocityY = gs.VelocityY.Clone()
	out.AmbientHeat = gs.AmbientHeat.Clone()
	out.BlockAir = gs.BlockAir.Clone()
	out.BlockAirH = gs.BlockAirH.Clone()
	out.GravMass = gs.GravMass.Clone()
	out.GravMask = gs.GravMask.Clone()
	out.GravForceX = gs.GravForceX.Clone()
	out.GravForceY = gs.GravForceY.Clone()
	out.Signs = append([]Sign(nil), gs.Signs...)
	out.Stkm = gs.Stkm.clone()
	out.Palette = append([]PaletteItem(nil), gs.Palette...)
	out.MissingElements = gs.MissingElements.clone()
	if gs.Authors != nil {
		out.Authors = cloneAuthors(gs.Authors)
	}
	return &out
}

func cloneAuthors(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = cloneAuthors(vv)
		case []any:
			list := make([]any, len(vv))
			for i, item := range vv {
				if sub, ok := item.(map[string]any); ok {
					list[i] = cloneAuthors(sub)
				} else {
					list[i] = item
				}
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}

// Validate checks the structural invariants every operation relies on.
func (gs *GameSave) Validate() error {
	size := gs.BlockSize
	if size.X <= 0 || size.Y <= 0 || size.X > MaxBlockDim || size.Y > MaxBlockDim {
		return fmt.Errorf("block size %s out of range", size)
	}
	sizes := map[string]core.Vec2{
		"block map":    gs.BlockMap.Size(),
		"fan vel x":    gs.FanVelX.Size(),
		"fan vel y":    gs.FanVelY.Size(),
		"pressure":     gs.Pressure.Size(),
		"velocity x":   gs.VelocityX.Size(),
		"velocity y":   gs.VelocityY.Size(),
		"ambient heat": gs.AmbientHeat.Size(),
		"block air":    gs.BlockAir.Size(),
		"block air h":  gs.BlockAirH.Size(),
		"grav mass":    gs.GravMass.Size(),
		"grav mask":    gs.GravMask.Size(),
		"grav force x": gs.GravForceX.Size(),
		"grav force y": gs.GravForceY.Size(),
	}
	for name, s := range sizes {
		if s != size {
			return fmt.Errorf("%s is %s, expected %s", name, s, size)
		}
	}
	for i, w := range gs.BlockMap.Data() {
		if w >= WallCount {
			return fmt.Errorf("unknown wall %d at cell %d", w, i)
		}
	}

	px := gs.PixelSize()
	bounds := core.NewRect(0, 0, px.X, px.Y)
	n := Ref(len(gs.Particles))
	for i, p := range gs.Particles {
		if p.Type == elements.None {
			return fmt.Errorf("particle %d has no type", i)
		}
		if !bounds.ContainsF(p.X, p.Y) {
			return fmt.Errorf("particle %d at (%g, %g) outside canvas", i, p.X, p.Y)
		}
		for _, b := range p.Bonds {
			if b != NoRef && (b < 0 || b >= n) {
				return fmt.Errorf("particle %d has dangling bond %d", i, b)
			}
		}
	}
	for _, list := range [][]Ref{gs.Stkm.RocketBootsFigh, gs.Stkm.FanFigh} {
		for _, r := range list {
			if r < 0 || r >= n {
				return fmt.Errorf("stick figure reference %d out of range", r)
			}
		}
	}

	if gs.GravityMode < GravityVertical || gs.GravityMode > GravityCustom {
		return fmt.Errorf("unknown gravity mode %d", gs.GravityMode)
	}
	if gs.EdgeMode < EdgeVoid || gs.EdgeMode > EdgeLoop {
		return fmt.Errorf("unknown edge mode %d", gs.EdgeMode)
	}

	if len(gs.Signs) > MaxSigns {
		return fmt.Errorf("%d signs, max %d", len(gs.Signs), MaxSigns)
	}
	for i, s := range gs.Signs {
		if !s.validText() {
			return fmt.Errorf("sign %d has invalid text", i)
		}
		if !bounds.Contains(s.X, s.Y) {
			return fmt.Errorf("sign %d at (%d, %d) outside canvas", i, s.X, s.Y)
		}
	}
	return nil
}

// PressureInTmp3 reports whether particles of type typ keep their pressure
// in Tmp3. Missing elements never do.
func PressureInTmp3(table *elements.Table, typ int) bool {
	if table == nil || elements.IsMissing(typ) {
		return false
	}
	return table.PressureInTmp3(typ)
}

// ElementCounts returns how many particles of each type the save holds.
func (gs *GameSave) ElementCounts() map[int]int {
	counts := make(map[int]int)
	for _, p := range gs.Particles {
		counts[p.Type]++
	}
	return counts
}

// compactParticles keeps the particles for which keep returns true and
// rewrites every reference to the new indices. References to removed
// particles become NoRef; stick-figure entries pointing at them are dropped.
func compactParticles(parts []Particle, stkm StkmData, keep func(p *Particle) bool) ([]Particle, StkmData) {
	remap := make([]Ref, len(parts))
	out := parts[:0:0]
	for i := range parts {
		if keep(&parts[i]) {
			remap[i] = Ref(len(out))
			out = append(out, parts[i])
		} else {
			remap[i] = NoRef
		}
	}

	lookup := func(r Ref) Ref {
		if r < 0 || int(r) >= len(remap) {
			return NoRef
		}
		return remap[r]
	}
	for i := range out {
		for j, b := range out[i].Bonds {
			if b != NoRef {
				out[i].Bonds[j] = lookup(b)
			}
		}
	}

	remapList := func(list []Ref) []Ref {
		var res []Ref
		for _, r := range list {
			if nr := lookup(r); nr != NoRef {
				res = append(res, nr)
			}
		}
		return res
	}
	stkm.RocketBootsFigh = remapList(stkm.RocketBootsFigh)
	stkm.FanFigh = remapList(stkm.FanFigh)
	return out, stkm
}

func keepSigns(signs []Sign, bounds core.Rect) []Sign {
	var out []Sign
	for _, s := range signs {
		if bounds.Contains(s.X, s.Y) {
			out = append(out, s)
		}
	}
	return out
}
