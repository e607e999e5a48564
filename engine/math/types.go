package math

// Rect is an axis-aligned box with its origin at the top-left corner and Y
// growing downward.
type Rect struct {
	X, Y, Width, Height float32
}

func NewRect(x, y, width, height float32) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) Right() float32 {
	return r.X + r.Width
}

func (r Rect) Bottom() float32 {
	return r.Y + r.Height
}

// Overlaps reports whether r and other overlap. Boxes sharing only an edge do
// not overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}
