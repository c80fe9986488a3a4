package arbor

import (
	"math"
	"slices"
)

// --- Hit shapes ---

// HitShape is a region in a widget's local space.
type HitShape interface {
	Contains(p Point) bool
	Bounds() Rect
}

// HitRect is an axis-aligned rectangular hit area.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside the rectangle.
func (r HitRect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Bounds returns the rectangle.
func (r HitRect) Bounds() Rect { return Rect(r) }

// HitCircle is a circular hit area.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether p lies inside or on the circle.
func (c HitCircle) Contains(p Point) bool {
	dx := p.X - c.CenterX
	dy := p.Y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Bounds returns the circle's bounding box.
func (c HitCircle) Bounds() Rect {
	return Rect{c.CenterX - c.Radius, c.CenterY - c.Radius, 2 * c.Radius, 2 * c.Radius}
}

// HitEllipse is an elliptical hit area.
type HitEllipse struct {
	Center Point
	Radii  Size
}

// Contains reports whether p lies inside or on the ellipse.
func (e HitEllipse) Contains(p Point) bool {
	return insideEllipse(p, e.Center, e.Radii)
}

// Bounds returns the ellipse's bounding box.
func (e HitEllipse) Bounds() Rect {
	return Rect{e.Center.X - e.Radii.Width, e.Center.Y - e.Radii.Height, 2 * e.Radii.Width, 2 * e.Radii.Height}
}

func insideEllipse(p, c Point, r Size) bool {
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	dx := (p.X - c.X) / r.Width
	dy := (p.Y - c.Y) / r.Height
	return dx*dx+dy*dy <= 1
}

// HitRoundedRect is a rectangle with elliptical corners.
type HitRoundedRect struct {
	Rect   Rect
	Radius CornerRadius
}

// Contains reports whether p lies inside the rectangle and not in the area
// cut off by a corner.
func (r HitRoundedRect) Contains(p Point) bool {
	rc := r.Rect
	if !rc.Contains(p) {
		return false
	}
	tl, tr, br, bl := r.Radius.TopLeft, r.Radius.TopRight, r.Radius.BottomRight, r.Radius.BottomLeft
	switch {
	case p.X < rc.X+tl.Width && p.Y < rc.Y+tl.Height:
		return insideEllipse(p, Point{rc.X + tl.Width, rc.Y + tl.Height}, tl)
	case p.X > rc.MaxX()-tr.Width && p.Y < rc.Y+tr.Height:
		return insideEllipse(p, Point{rc.MaxX() - tr.Width, rc.Y + tr.Height}, tr)
	case p.X > rc.MaxX()-br.Width && p.Y > rc.MaxY()-br.Height:
		return insideEllipse(p, Point{rc.MaxX() - br.Width, rc.MaxY() - br.Height}, br)
	case p.X < rc.X+bl.Width && p.Y > rc.MaxY()-bl.Height:
		return insideEllipse(p, Point{rc.X + bl.Width, rc.MaxY() - bl.Height}, bl)
	}
	return true
}

// Bounds returns the rectangle.
func (r HitRoundedRect) Bounds() Rect { return r.Rect }

// HitPolygon is a convex polygon hit area. Points must define a convex
// polygon in either winding order.
type HitPolygon struct {
	Points []Point
}

// Contains reports whether p lies inside the polygon using a cross-product
// sign test.
func (poly HitPolygon) Contains(p Point) bool {
	n := len(poly.Points)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := poly.Points[i]
		b := poly.Points[(i+1)%n]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// Bounds returns the polygon's bounding box.
func (poly HitPolygon) Bounds() Rect {
	if len(poly.Points) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly.Points {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// --- Primitive stream ---

type hitKind uint8

const (
	hitShape hitKind = iota
	hitClip
	hitPopClip
	hitTransform
	hitPopTransform
	hitChild
)

type hitItem struct {
	kind    hitKind
	shape   HitShape
	clipOut bool
	// inverse maps the outer space to the space inside a transform block.
	inverse    Affine
	invertible bool
	child      WidgetID
	// end is the index of the matching pop item.
	end int
}

// HitZKind is where a hit landed relative to a widget's children.
type HitZKind uint8

const (
	NoHit HitZKind = iota
	// HitBack is a hit on a primitive pushed before any child.
	HitBack
	// HitOver is a hit on a primitive pushed after Child, below later children.
	HitOver
	// HitFront is a hit on a primitive pushed after the last child.
	HitFront
)

// RelativeHitZ is the result of hit-testing one widget's primitives.
type RelativeHitZ struct {
	Kind  HitZKind
	Child WidgetID
}

// HitTestItems is a widget's recorded hit-test primitive stream, in the
// widget's inner space.
type HitTestItems struct {
	items  []hitItem
	bounds Rect
}

// IsEmpty reports whether no primitive was pushed.
func (h *HitTestItems) IsEmpty() bool { return h == nil || len(h.items) == 0 }

// Bounds returns the union of all shapes in local space.
func (h *HitTestItems) Bounds() Rect { return h.bounds }

// HitTest evaluates the stream at p, in local space. A failed clip or a
// non-invertible transform skips its whole block.
func (h *HitTestItems) HitTest(p Point) RelativeHitZ {
	if h.IsEmpty() {
		return RelativeHitZ{}
	}
	lastChildIdx := -1
	for i := len(h.items) - 1; i >= 0; i-- {
		if h.items[i].kind == hitChild {
			lastChildIdx = i
			break
		}
	}

	var (
		res       RelativeHitZ
		lastChild WidgetID
		seenChild bool
		points    = []Point{p}
	)
	for i := 0; i < len(h.items); i++ {
		it := &h.items[i]
		cur := points[len(points)-1]
		switch it.kind {
		case hitShape:
			if !it.shape.Contains(cur) {
				continue
			}
			switch {
			case !seenChild:
				res = RelativeHitZ{Kind: HitBack}
			case i > lastChildIdx:
				res = RelativeHitZ{Kind: HitFront}
			default:
				res = RelativeHitZ{Kind: HitOver, Child: lastChild}
			}
		case hitClip:
			if it.shape.Contains(cur) == it.clipOut {
				i = it.end
			}
		case hitTransform:
			if !it.invertible {
				i = it.end
				continue
			}
			points = append(points, it.inverse.TransformPoint(cur))
		case hitPopTransform:
			points = points[:len(points)-1]
		case hitChild:
			lastChild = it.child
			seenChild = true
		}
	}
	return res
}

// HitTestBuilder records a widget's hit-test primitives during render.
type HitTestBuilder struct {
	items   []hitItem
	forward []Affine
	bounds  Rect
	hasAny  bool
}

func (b *HitTestBuilder) reset() {
	b.items = b.items[:0]
	b.forward = append(b.forward[:0], Identity)
	b.bounds = Rect{}
	b.hasAny = false
}

// PushShape adds a hit region.
func (b *HitTestBuilder) PushShape(s HitShape) {
	b.items = append(b.items, hitItem{kind: hitShape, shape: s})
	r := b.forward[len(b.forward)-1].TransformRect(s.Bounds())
	if b.hasAny {
		b.bounds = b.bounds.Union(r)
	} else {
		b.bounds, b.hasAny = r, true
	}
}

// PushRect adds a rectangular hit region.
func (b *HitTestBuilder) PushRect(r Rect) { b.PushShape(HitRect(r)) }

// PushRoundedRect adds a rounded rectangle hit region.
func (b *HitTestBuilder) PushRoundedRect(r Rect, radius CornerRadius) {
	if radius.IsZero() {
		b.PushRect(r)
		return
	}
	b.PushShape(HitRoundedRect{Rect: r, Radius: radius})
}

// PushEllipse adds an elliptical hit region.
func (b *HitTestBuilder) PushEllipse(center Point, radii Size) {
	b.PushShape(HitEllipse{Center: center, Radii: radii})
}

// PushBorder adds the area between the outer rounded rect and the inset
// inner rect.
func (b *HitTestBuilder) PushBorder(r Rect, widths SideOffsets, radius CornerRadius) {
	inner := Rect{
		X:      r.X + widths.Left,
		Y:      r.Y + widths.Top,
		Width:  r.Width - widths.Horizontal(),
		Height: r.Height - widths.Vertical(),
	}
	b.PushClip(HitRect(inner), true, func() {
		b.PushRoundedRect(r, radius)
	})
}

// PushClip runs inner with hits restricted to s, or to outside s if clipOut.
func (b *HitTestBuilder) PushClip(s HitShape, clipOut bool, inner func()) {
	start := len(b.items)
	b.items = append(b.items, hitItem{kind: hitClip, shape: s, clipOut: clipOut})
	inner()
	b.items[start].end = len(b.items)
	b.items = append(b.items, hitItem{kind: hitPopClip})
}

// PushTransform runs inner with primitives transformed by m. If m cannot be
// inverted the block never hits.
func (b *HitTestBuilder) PushTransform(m Affine, inner func()) {
	inv, ok := m.Invert()
	start := len(b.items)
	b.items = append(b.items, hitItem{kind: hitTransform, inverse: inv, invertible: ok})
	b.forward = append(b.forward, b.forward[len(b.forward)-1].Multiply(m))
	inner()
	b.forward = b.forward[:len(b.forward)-1]
	b.items[start].end = len(b.items)
	b.items = append(b.items, hitItem{kind: hitPopTransform})
}

// PushChild records that the child widget id is rendered at this point.
func (b *HitTestBuilder) PushChild(id WidgetID) {
	b.items = append(b.items, hitItem{kind: hitChild, child: id})
}

// Build returns the recorded stream.
func (b *HitTestBuilder) Build() *HitTestItems {
	return &HitTestItems{items: slices.Clone(b.items), bounds: b.bounds}
}

// --- Window hit-test ---

// HitInfo is one widget hit at a point.
type HitInfo struct {
	WidgetID WidgetID
	Z        RelativeHitZ
	// Local is the point in the widget's inner space.
	Local Point
	depth int
	key   float64
}

// HitTestInfo is the result of a window hit-test, topmost hit first.
type HitTestInfo struct {
	Window WindowID
	Point  Point
	Hits   []HitInfo
}

// Target returns the topmost hit.
func (h HitTestInfo) Target() (HitInfo, bool) {
	if len(h.Hits) == 0 {
		return HitInfo{}, false
	}
	return h.Hits[0], true
}

// Contains reports whether id was hit.
func (h HitTestInfo) Contains(id WidgetID) bool {
	for _, hit := range h.Hits {
		if hit.WidgetID == id {
			return true
		}
	}
	return false
}
