package gamesave

import (
	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/plane"
)

// Transform applies m (a rotation, flip or product of them) and then
// translates by nudge pixels. The canvas is resized to the transformed
// bounds; content is anchored so the transformed canvas starts at the origin
// before the nudge. Vectors (velocities, fan and gravity force) are rotated
// with m. Particles and signs that end up outside the canvas are removed and
// references to them cleared. Blocks move by nudge/CellSize rounded down.
// A rotation whose canvas the save's Limits would not decode is refused.
//
// On error the save is unchanged.
func (gs *GameSave) Transform(m core.Mat2, nudge core.Vec2) error {
	if !m.IsSignedPermutation() {
		return buildErrorf("transform %s is not a rotation or flip", m)
	}
	if err := gs.Validate(); err != nil {
		return &BuildError{Message: "cannot transform inconsistent save", Err: err}
	}

	oldBlocks := gs.BlockSize
	newBlocks := m.Abs().Apply(oldBlocks)
	if err := gs.checkSize(newBlocks); err != nil {
		return err
	}
	oldPixels := oldBlocks.Scale(CellSize)
	newPixels := newBlocks.Scale(CellSize)

	pixelShift := anchorOffset(m, oldPixels).Add(nudge)
	blockShift := anchorOffset(m, oldBlocks).Add(nudge.FloorDiv(CellSize))

	next := *gs
	next.BlockSize = newBlocks

	mapBlock := func(x, y int) (core.Vec2, bool) {
		p := m.Apply(core.V(x, y)).Add(blockShift)
		return p, p.X >= 0 && p.Y >= 0 && p.X < newBlocks.X && p.Y < newBlocks.Y
	}
	next.BlockMap = transformScalar(gs.BlockMap, newBlocks, mapBlock)
	next.AmbientHeat = transformScalar(gs.AmbientHeat, newBlocks, mapBlock)
	next.Pressure = transformScalar(gs.Pressure, newBlocks, mapBlock)
	next.BlockAir = transformScalar(gs.BlockAir, newBlocks, mapBlock)
	next.BlockAirH = transformScalar(gs.BlockAirH, newBlocks, mapBlock)
	next.GravMass = transformScalar(gs.GravMass, newBlocks, mapBlock)
	next.GravMask = transformScalar(gs.GravMask, newBlocks, mapBlock)
	next.FanVelX, next.FanVelY = transformVector(m, gs.FanVelX, gs.FanVelY, newBlocks, mapBlock)
	next.VelocityX, next.VelocityY = transformVector(m, gs.VelocityX, gs.VelocityY, newBlocks, mapBlock)
	next.GravForceX, next.GravForceY = transformVector(m, gs.GravForceX, gs.GravForceY, newBlocks, mapBlock)

	bounds := core.NewRect(0, 0, newPixels.X, newPixels.Y)
	moved := make([]Particle, len(gs.Particles))
	for i, p := range gs.Particles {
		x, y := m.ApplyF(p.X, p.Y)
		p.X = x + float32(pixelShift.X)
		p.Y = y + float32(pixelShift.Y)
		p.VX, p.VY = m.ApplyF(p.VX, p.VY)
		moved[i] = p
	}
	next.Particles, next.Stkm = compactParticles(moved, gs.Stkm.clone(), func(p *Particle) bool {
		return bounds.ContainsF(p.X, p.Y)
	})

	next.MissingElements = gs.MissingElements.clone()
	next.MissingElements.recount(next.Particles)

	next.Signs = nil
	for _, s := range gs.Signs {
		pos := m.Apply(core.V(s.X, s.Y)).Add(pixelShift)
		if bounds.Contains(pos.X, pos.Y) {
			s.X, s.Y = pos.X, pos.Y
			next.Signs = append(next.Signs, s)
		}
	}

	if err := next.Validate(); err != nil {
		return &BuildError{Message: "transform produced an inconsistent save", Err: err}
	}
	*gs = next
	return nil
}

// anchorOffset returns the translation that moves the image of
// [0, size-1] under m back to start at the origin.
func anchorOffset(m core.Mat2, size core.Vec2) core.Vec2 {
	last := size.Sub(core.V(1, 1))
	corners := []core.Vec2{
		m.Apply(core.V(0, 0)),
		m.Apply(core.V(last.X, 0)),
		m.Apply(core.V(0, last.Y)),
		m.Apply(last),
	}
	minX, minY := corners[0].X, corners[0].Y
	for _, c := range corners[1:] {
		minX = core.Min(minX, c.X)
		minY = core.Min(minY, c.Y)
	}
	return core.V(-minX, -minY)
}

func transformScalar[T plane.Cell](src plane.Plane[T], size core.Vec2, mapBlock func(x, y int) (core.Vec2, bool)) plane.Plane[T] {
	dst := plane.New[T](size)
	src.Each(func(x, y int, v T) {
		if p, ok := mapBlock(x, y); ok {
			dst.Set(p.X, p.Y, v)
		}
	})
	return dst
}

func transformVector(m core.Mat2, srcX, srcY plane.Plane[float32], size core.Vec2, mapBlock func(x, y int) (core.Vec2, bool)) (plane.Plane[float32], plane.Plane[float32]) {
	dstX := plane.New[float32](size)
	dstY := plane.New[float32](size)
	srcX.Each(func(x, y int, vx float32) {
		p, ok := mapBlock(x, y)
		if !ok {
			return
		}
		nx, ny := m.ApplyF(vx, srcY.At(x, y))
		dstX.Set(p.X, p.Y, nx)
		dstY.Set(p.X, p.Y, ny)
	})
	return dstX, dstY
}
