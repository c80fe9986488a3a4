package arbor

import "math"

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// Identity is the identity transform.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// Translation returns a transform that moves points by (x, y).
func Translation(x, y float64) Affine { return Affine{1, 0, 0, 1, x, y} }

// Scaling returns a transform that scales points by (sx, sy).
func Scaling(sx, sy float64) Affine { return Affine{sx, 0, 0, sy, 0, 0} }

// Rotation returns a transform that rotates points by r radians around the origin.
func Rotation(r float64) Affine {
	sin, cos := math.Sincos(r)
	return Affine{cos, sin, -sin, cos, 0, 0}
}

// Then returns the transform that applies m first and then next.
func (m Affine) Then(next Affine) Affine { return next.Multiply(m) }

// Multiply returns m * c (c is applied first).
func (m Affine) Multiply(c Affine) Affine {
	return Affine{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Invert returns the inverse of m. The second result is false if the matrix
// is singular (determinant near zero); the first is then the identity.
func (m Affine) Invert() (Affine, bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return Identity, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool { return m == Identity }

// TransformPoint applies m to p.
func (m Affine) TransformPoint(p Point) Point {
	return Point{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// TransformRect returns the axis-aligned bounding box of r after applying m.
func (m Affine) TransformRect(r Rect) Rect {
	p0 := m.TransformPoint(Point{r.X, r.Y})
	p1 := m.TransformPoint(Point{r.MaxX(), r.Y})
	p2 := m.TransformPoint(Point{r.X, r.MaxY()})
	p3 := m.TransformPoint(Point{r.MaxX(), r.MaxY()})
	minX := math.Min(math.Min(p0.X, p1.X), math.Min(p2.X, p3.X))
	minY := math.Min(math.Min(p0.Y, p1.Y), math.Min(p2.Y, p3.Y))
	maxX := math.Max(math.Max(p0.X, p1.X), math.Max(p2.X, p3.X))
	maxY := math.Max(math.Max(p0.Y, p1.Y), math.Max(p2.Y, p3.Y))
	return Rect{minX, minY, maxX - minX, maxY - minY}
}
