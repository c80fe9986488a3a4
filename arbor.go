package arbor

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	ColorTransparent = Color{0, 0, 0, 0}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorWhite       = Color{1, 1, 1, 1}
)

// RGBA8 returns the color as 8-bit channels, clamped.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return unit8(c.R), unit8(c.G), unit8(c.B), unit8(c.A)
}

// Lerp linearly interpolates between c and to by factor f.
func (c Color) Lerp(to Color, f float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*f,
		G: c.G + (to.G-c.G)*f,
		B: c.B + (to.B-c.B)*f,
		A: c.A + (to.A-c.A)*f,
	}
}

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// Point is a position in device independent pixels. The origin is the
// top-left of the window, Y increases downward.
type Point struct {
	X, Y float64
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

// Sub returns p - o.
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// Distance returns the euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromSize returns a rectangle at the origin with size s.
func RectFromSize(s Size) Rect { return Rect{Width: s.Width, Height: s.Height} }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{r.X, r.Y} }

// Size returns the rectangle size.
func (r Rect) Size() Size { return Size{r.Width, r.Height} }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the center point.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// ContainsRect reports whether o is fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Intersection returns the overlapping area of r and o, or an empty rect.
func (r Rect) Intersection(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	if x1 < x0 || y1 < y0 {
		return Rect{}
	}
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.MaxX(), o.MaxX())
	y1 := math.Max(r.MaxY(), o.MaxY())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Translate returns r moved by offset.
func (r Rect) Translate(offset Point) Rect {
	r.X += offset.X
	r.Y += offset.Y
	return r
}

// SideOffsets is a set of top, right, bottom and left lengths, used for
// margins, paddings and border widths.
type SideOffsets struct {
	Top, Right, Bottom, Left float64
}

// UniformSides returns offsets with the same length on every side.
func UniformSides(v float64) SideOffsets { return SideOffsets{v, v, v, v} }

// Horizontal returns Left + Right.
func (s SideOffsets) Horizontal() float64 { return s.Left + s.Right }

// Vertical returns Top + Bottom.
func (s SideOffsets) Vertical() float64 { return s.Top + s.Bottom }

// CornerRadius holds an elliptical radius for each corner of a rectangle.
type CornerRadius struct {
	TopLeft, TopRight, BottomRight, BottomLeft Size
}

// UniformRadius returns circular corners of radius r.
func UniformRadius(r float64) CornerRadius {
	s := Size{r, r}
	return CornerRadius{s, s, s, s}
}

// IsZero reports whether all corners are square.
func (c CornerRadius) IsZero() bool {
	return c.TopLeft.IsEmpty() && c.TopRight.IsEmpty() &&
		c.BottomRight.IsEmpty() && c.BottomLeft.IsEmpty()
}
