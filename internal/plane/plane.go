// Package plane provides a 2D view over flat row-major storage, used for the
// per-block scalar fields of a save (pressure, velocity, heat, walls, gravity).
package plane

import (
	"github.com/vovakirdan/powdersave/internal/core"
)

// Cell is the set of element types a Plane can hold.
type Cell interface {
	~uint8 | ~uint32 | ~float32
}

// Plane stores W*H values in row-major order: index = y*W + x.
type Plane[T Cell] struct {
	size core.Vec2
	data []T
}

// New allocates a zeroed plane. Negative dimensions are treated as zero.
func New[T Cell](size core.Vec2) Plane[T] {
	size = core.V(core.Max(size.X, 0), core.Max(size.Y, 0))
	return Plane[T]{size: size, data: make([]T, size.Area())}
}

// FromSlice wraps existing storage. It returns false when len(data) does not
// match the size.
func FromSlice[T Cell](size core.Vec2, data []T) (Plane[T], bool) {
	if size.X < 0 || size.Y < 0 || len(data) != size.Area() {
		return Plane[T]{}, false
	}
	return Plane[T]{size: size, data: data}, true
}

// Size returns the dimensions of the plane.
func (p Plane[T]) Size() core.Vec2 {
	return p.size
}

// Len returns the number of cells.
func (p Plane[T]) Len() int {
	return len(p.data)
}

// Data exposes the backing slice so codecs can read/write it in bulk.
func (p Plane[T]) Data() []T {
	return p.data
}

// InBounds reports whether (x, y) addresses a cell.
func (p Plane[T]) InBounds(x, y int) bool {
	return x >= 0 && x < p.size.X && y >= 0 && y < p.size.Y
}

// Index converts a coordinate to a flat index.
func (p Plane[T]) Index(x, y int) int {
	return y*p.size.X + x
}

// At returns the value at (x, y), or zero when out of bounds.
func (p Plane[T]) At(x, y int) T {
	if !p.InBounds(x, y) {
		var zero T
		return zero
	}
	return p.data[p.Index(x, y)]
}

// Set writes the value at (x, y). Out-of-bounds writes are ignored.
func (p Plane[T]) Set(x, y int, v T) {
	if p.InBounds(x, y) {
		p.data[p.Index(x, y)] = v
	}
}

// Clone returns a deep copy.
func (p Plane[T]) Clone() Plane[T] {
	data := make([]T, len(p.data))
	copy(data, p.data)
	return Plane[T]{size: p.size, data: data}
}

// Resized returns a new plane of the given size with the overlapping region
// copied from p at the origin. Cells outside p are zero.
func (p Plane[T]) Resized(size core.Vec2) Plane[T] {
	out := New[T](size)
	copyW := core.Min(p.size.X, out.size.X)
	copyH := core.Min(p.size.Y, out.size.Y)
	for y := 0; y < copyH; y++ {
		src := p.data[y*p.size.X : y*p.size.X+copyW]
		copy(out.data[y*out.size.X:], src)
	}
	return out
}

// Equal reports whether two planes have the same size and contents.
func (p Plane[T]) Equal(o Plane[T]) bool {
	if p.size != o.size {
		return false
	}
	for i, v := range p.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}

// Each calls fn for every cell in row-major order.
func (p Plane[T]) Each(fn func(x, y int, v T)) {
	for y := 0; y < p.size.Y; y++ {
		row := p.data[y*p.size.X : (y+1)*p.size.X]
		for x, v := range row {
			fn(x, y, v)
		}
	}
}
