package gamesave

import "github.com/vovakirdan/powdersave/internal/core"

// Expand grows the canvas to size blocks. Existing content keeps its
// coordinates; new cells are empty. Shrinking is refused, as is a size the
// save's Limits would not decode. An unchanged size is a no-op.
//
// On error the save is unchanged.
func (gs *GameSave) Expand(size core.Vec2) error {
	if size.X < gs.BlockSize.X || size.Y < gs.BlockSize.Y {
		return buildErrorf("cannot shrink %s canvas to %s", gs.BlockSize, size)
	}
	if err := gs.checkSize(size); err != nil {
		return err
	}
	if err := gs.Validate(); err != nil {
		return &BuildError{Message: "cannot expand inconsistent save", Err: err}
	}
	if size == gs.BlockSize {
		return nil
	}

	next := *gs
	next.BlockSize = size
	next.BlockMap = gs.BlockMap.Resized(size)
	next.FanVelX = gs.FanVelX.Resized(size)
	next.FanVelY = gs.FanVelY.Resized(size)
	next.Pressure = gs.Pressure.Resized(size)
	next.VelocityX = gs.VelocityX.Resized(size)
	next.VelocityY = gs.VelocityY.Resized(size)
	next.AmbientHeat = gs.AmbientHeat.Resized(size)
	next.BlockAir = gs.BlockAir.Resized(size)
	next.BlockAirH = gs.BlockAirH.Resized(size)
	next.GravMass = gs.GravMass.Resized(size)
	next.GravMask = gs.GravMask.Resized(size)
	next.GravForceX = gs.GravForceX.Resized(size)
	next.GravForceY = gs.GravForceY.Resized(size)

	if err := next.Validate(); err != nil {
		return &BuildError{Message: "expand produced an inconsistent save", Err: err}
	}
	*gs = next
	return nil
}
