package gamesave

import (
	"reflect"
	"testing"

	"github.com/vovakirdan/powdersave/internal/core"
)

func TestTransformRotate90(t *testing.T) {
	gs := mustNew(t, 2, 1)
	dust := elementID(t, "DUST")
	first := NewParticle(dust, 0, 0)
	first.VX = 1
	mustAdd(t, gs, first)
	mustAdd(t, gs, NewParticle(dust, 7, 0))
	gs.BlockMap.Set(1, 0, WallFan)
	gs.FanVelX.Set(1, 0, 2)
	if err := gs.AddSign(Sign{Text: "s", X: 4, Y: 1}); err != nil {
		t.Fatal(err)
	}

	if err := gs.Transform(core.Rotate90, core.V(0, 0)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if gs.BlockSize != core.V(1, 2) {
		t.Fatalf("BlockSize = %s, expected 1x2", gs.BlockSize)
	}
	if p := gs.Particles[0]; p.X != 3 || p.Y != 0 || p.VX != 0 || p.VY != 1 {
		t.Errorf("first particle = (%g, %g) v=(%g, %g), expected (3, 0) v=(0, 1)", p.X, p.Y, p.VX, p.VY)
	}
	if p := gs.Particles[1]; p.X != 3 || p.Y != 7 {
		t.Errorf("second particle = (%g, %g), expected (3, 7)", p.X, p.Y)
	}
	if gs.BlockMap.At(0, 1) != WallFan {
		t.Errorf("fan wall should move to (0, 1)")
	}
	if gs.FanVelX.At(0, 1) != 0 || gs.FanVelY.At(0, 1) != 2 {
		t.Errorf("fan velocity = (%g, %g), expected (0, 2)", gs.FanVelX.At(0, 1), gs.FanVelY.At(0, 1))
	}
	if s := gs.Signs[0]; s.X != 2 || s.Y != 4 {
		t.Errorf("sign at (%d, %d), expected (2, 4)", s.X, s.Y)
	}
}

func TestTransformFourRotationsIsIdentity(t *testing.T) {
	gs := fullSave(t)
	original := gs.Clone()

	for i := 0; i < 4; i++ {
		if err := gs.Transform(core.Rotate90, core.V(0, 0)); err != nil {
			t.Fatalf("rotation %d failed: %v", i+1, err)
		}
	}

	if gs.BlockSize != original.BlockSize {
		t.Fatalf("BlockSize = %s, expected %s", gs.BlockSize, original.BlockSize)
	}
	if !reflect.DeepEqual(gs.Particles, original.Particles) {
		t.Errorf("particles differ:\n got %+v\nwant %+v", gs.Particles, original.Particles)
	}
	if !reflect.DeepEqual(gs.Signs, original.Signs) {
		t.Errorf("signs = %+v, expected %+v", gs.Signs, original.Signs)
	}
	if !reflect.DeepEqual(gs.Stkm, original.Stkm) {
		t.Errorf("stkm = %+v, expected %+v", gs.Stkm, original.Stkm)
	}
	if !gs.BlockMap.Equal(original.BlockMap) || !gs.Pressure.Equal(original.Pressure) {
		t.Error("scalar planes differ")
	}
	if !gs.FanVelX.Equal(original.FanVelX) || !gs.FanVelY.Equal(original.FanVelY) {
		t.Error("fan planes differ")
	}
	if !gs.GravForceX.Equal(original.GravForceX) || !gs.GravForceY.Equal(original.GravForceY) {
		t.Error("gravity force planes differ")
	}
}

func TestTransformFlipH(t *testing.T) {
	gs := mustNew(t, 2, 2)
	p := NewParticle(elementID(t, "DUST"), 0, 1)
	p.VX, p.VY = 1, 1
	mustAdd(t, gs, p)
	gs.BlockMap.Set(0, 1, WallWall)

	if err := gs.Transform(core.FlipH, core.V(0, 0)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	got := gs.Particles[0]
	if got.X != 7 || got.Y != 1 || got.VX != -1 || got.VY != 1 {
		t.Errorf("particle = (%g, %g) v=(%g, %g), expected (7, 1) v=(-1, 1)", got.X, got.Y, got.VX, got.VY)
	}
	if gs.BlockMap.At(1, 1) != WallWall || gs.BlockMap.At(0, 1) != WallNone {
		t.Error("wall should move from (0, 1) to (1, 1)")
	}
}

func TestTransformNudgeBoundary(t *testing.T) {
	gs := mustNew(t, 2, 2)
	dust := elementID(t, "DUST")
	inside := mustAdd(t, gs, NewParticle(dust, 6, 0))
	edge := mustAdd(t, gs, NewParticle(dust, 7, 0))
	frac := mustAdd(t, gs, NewParticle(dust, 6.25, 3))
	gs.Particles[inside].Bonds[0] = edge
	gs.Particles[frac].Bonds[0] = inside
	gs.Stkm.FanFigh = []Ref{edge, frac}
	gs.BlockMap.Set(0, 0, WallWall)
	gs.BlockMap.Set(1, 0, WallFan)

	if err := gs.Transform(core.Identity, core.V(1, 0)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(gs.Particles) != 2 {
		t.Fatalf("%d particles remain, expected 2", len(gs.Particles))
	}
	if p := gs.Particles[0]; p.X != 7 || p.Bonds[0] != NoRef {
		t.Errorf("first particle x=%g bond=%d, expected x=7 and no bond", p.X, p.Bonds[0])
	}
	if p := gs.Particles[1]; p.X != 7.25 || p.Bonds[0] != 0 {
		t.Errorf("second particle x=%g bond=%d, expected x=7.25 bond 0", p.X, p.Bonds[0])
	}
	if !reflect.DeepEqual(gs.Stkm.FanFigh, []Ref{1}) {
		t.Errorf("FanFigh = %v, expected [1]", gs.Stkm.FanFigh)
	}
	// A one-pixel nudge stays inside the same block.
	if gs.BlockMap.At(0, 0) != WallWall || gs.BlockMap.At(1, 0) != WallFan {
		t.Error("walls should not move for a sub-block nudge")
	}
}

func TestTransformNudgeMovesBlocks(t *testing.T) {
	gs := mustNew(t, 2, 2)
	gs.BlockMap.Set(0, 0, WallWall)
	gs.BlockMap.Set(1, 0, WallFan)

	if err := gs.Transform(core.Identity, core.V(-1, CellSize)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	// floor(-1/4) = -1 column, +1 row
	if gs.BlockMap.At(0, 1) != WallFan {
		t.Errorf("fan wall should land at (0, 1), got %d", gs.BlockMap.At(0, 1))
	}
	if gs.BlockMap.At(0, 0) != WallNone || gs.BlockMap.At(1, 1) != WallNone {
		t.Error("wall at (0, 0) should fall off the canvas")
	}
}

func TestTransformDropsSignsOffCanvas(t *testing.T) {
	gs := mustNew(t, 2, 2)
	if err := gs.AddSign(Sign{Text: "a", X: 7, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if err := gs.AddSign(Sign{Text: "b", X: 0, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if err := gs.Transform(core.Identity, core.V(1, 0)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(gs.Signs) != 1 || gs.Signs[0].Text != "b" || gs.Signs[0].X != 1 {
		t.Errorf("signs = %+v, expected only b at x=1", gs.Signs)
	}
}

func TestTransformFailureLeavesSaveUnchanged(t *testing.T) {
	gs := fullSave(t)
	before := gs.Clone()

	if err := gs.Transform(core.Mat2{XX: 2, YY: 1}, core.V(0, 0)); err == nil {
		t.Error("expected error for a scaling matrix")
	}
	if !reflect.DeepEqual(gs, before) {
		t.Error("failed transform modified the save")
	}

	gs.Particles[0].Bonds[1] = 99
	before = gs.Clone()
	if err := gs.Transform(core.Rotate90, core.V(0, 0)); err == nil {
		t.Error("expected error for a save with a dangling bond")
	}
	if !reflect.DeepEqual(gs, before) {
		t.Error("failed transform modified the save")
	}
}

func TestTransformRespectsLimits(t *testing.T) {
	gs := mustNew(t, 153, 96)
	mustAdd(t, gs, NewParticle(elementID(t, "DUST"), 5, 5))
	before := gs.Clone()

	if err := gs.Transform(core.Rotate90, core.V(0, 0)); err == nil {
		t.Error("expected error rotating a full-width canvas past the limits")
	}
	if !reflect.DeepEqual(gs, before) {
		t.Error("failed transform modified the save")
	}

	if err := gs.Transform(core.Rotate180, core.V(0, 0)); err != nil {
		t.Fatalf("Rotate180 failed: %v", err)
	}
	if gs.BlockSize != core.V(153, 96) {
		t.Errorf("BlockSize = %s, expected 153x96", gs.BlockSize)
	}
}
