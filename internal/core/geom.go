// Package core provides the small geometry types shared by the save codec,
// the transform engine and the preview layer. It has no external dependencies
// so the codec stays pure and testable.
package core

import (
	"fmt"
	"math"
)

// Vec2 is an integer 2D vector. X increases to the right, Y increases
// downward (screen coordinates).
type Vec2 struct {
	X, Y int
}

// V is a convenience constructor for Vec2.
func V(x, y int) Vec2 {
	return Vec2{X: x, Y: y}
}

// String returns a string representation of the vector.
func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Add returns the sum of two vectors.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies both components by k.
func (v Vec2) Scale(k int) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Area returns X*Y.
func (v Vec2) Area() int {
	return v.X * v.Y
}

// FloorDiv divides both components by d, rounding toward negative infinity.
func (v Vec2) FloorDiv(d int) Vec2 {
	return Vec2{X: FloorDiv(v.X, d), Y: FloorDiv(v.Y, d)}
}

// Mat2 is an integer 2x2 matrix applied to column vectors:
//
//	| XX XY | |x|
//	| YX YY | |y|
type Mat2 struct {
	XX, XY int
	YX, YY int
}

// Predefined transforms. Rotations are clockwise on screen.
var (
	Identity  = Mat2{XX: 1, XY: 0, YX: 0, YY: 1}
	Rotate90  = Mat2{XX: 0, XY: -1, YX: 1, YY: 0}
	Rotate180 = Mat2{XX: -1, XY: 0, YX: 0, YY: -1}
	Rotate270 = Mat2{XX: 0, XY: 1, YX: -1, YY: 0}
	FlipH     = Mat2{XX: -1, XY: 0, YX: 0, YY: 1}
	FlipV     = Mat2{XX: 1, XY: 0, YX: 0, YY: -1}
)

// Apply returns m*v.
func (m Mat2) Apply(v Vec2) Vec2 {
	return Vec2{
		X: m.XX*v.X + m.XY*v.Y,
		Y: m.YX*v.X + m.YY*v.Y,
	}
}

// ApplyF returns m*(x, y) for float32 components.
func (m Mat2) ApplyF(x, y float32) (float32, float32) {
	return float32(m.XX)*x + float32(m.XY)*y, float32(m.YX)*x + float32(m.YY)*y
}

// Mul returns the composition m*o (o is applied first).
func (m Mat2) Mul(o Mat2) Mat2 {
	return Mat2{
		XX: m.XX*o.XX + m.XY*o.YX,
		XY: m.XX*o.XY + m.XY*o.YY,
		YX: m.YX*o.XX + m.YY*o.YX,
		YY: m.YX*o.XY + m.YY*o.YY,
	}
}

// Abs returns the matrix with every entry replaced by its absolute value.
// Applied to a size it yields the size of the transformed rectangle.
func (m Mat2) Abs() Mat2 {
	return Mat2{XX: Abs(m.XX), XY: Abs(m.XY), YX: Abs(m.YX), YY: Abs(m.YY)}
}

// Det returns the determinant.
func (m Mat2) Det() int {
	return m.XX*m.YY - m.XY*m.YX
}

// IsSignedPermutation reports whether m maps the integer grid onto itself
// without scaling: identity, quarter rotations, flips and their products.
func (m Mat2) IsSignedPermutation() bool {
	unit := func(a, b int) bool {
		return (Abs(a) == 1 && b == 0) || (a == 0 && Abs(b) == 1)
	}
	return unit(m.XX, m.XY) && unit(m.YX, m.YY) && Abs(m.Det()) == 1
}

// String returns a compact representation of the matrix.
func (m Mat2) String() string {
	return fmt.Sprintf("[%d %d; %d %d]", m.XX, m.XY, m.YX, m.YY)
}

// Rect represents an axis-aligned rectangle.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge (exclusive).
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge (exclusive).
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ContainsF reports whether the pixel nearest to (x, y) is inside r. A
// coordinate belongs to pixel floor(v+0.5); NaN and infinities are outside.
func (r Rect) ContainsF(x, y float32) bool {
	px, okX := nearestPixel(x)
	py, okY := nearestPixel(y)
	return okX && okY && r.Contains(px, py)
}

func nearestPixel(v float32) (int, bool) {
	f := math.Floor(float64(v) + 0.5)
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Min returns the smaller of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FloorDiv divides a by b rounding toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
