package arbor

import "math"

// Constraints bounds the size a node can take in layout.
type Constraints struct {
	Min, Max Size
}

// Tight returns constraints that only allow s.
func Tight(s Size) Constraints { return Constraints{Min: s, Max: s} }

// Loose returns constraints from zero up to max.
func Loose(max Size) Constraints { return Constraints{Max: max} }

// Unbounded returns constraints without a maximum.
func Unbounded() Constraints {
	return Constraints{Max: Size{math.Inf(1), math.Inf(1)}}
}

// Clamp returns s limited to the constraints.
func (c Constraints) Clamp(s Size) Size {
	return Size{
		Width:  math.Max(c.Min.Width, math.Min(c.Max.Width, s.Width)),
		Height: math.Max(c.Min.Height, math.Min(c.Max.Height, s.Height)),
	}
}

// Deflate shrinks the constraints by the offsets, for the content of a
// margin or border.
func (c Constraints) Deflate(s SideOffsets) Constraints {
	h, v := s.Horizontal(), s.Vertical()
	return Constraints{
		Min: Size{math.Max(0, c.Min.Width-h), math.Max(0, c.Min.Height-v)},
		Max: Size{math.Max(0, c.Max.Width-h), math.Max(0, c.Max.Height-v)},
	}
}

// Loosen drops the minimum.
func (c Constraints) Loosen() Constraints { return Constraints{Max: c.Max} }

// WithUnboundedHeight returns c without a maximum height.
func (c Constraints) WithUnboundedHeight() Constraints {
	c.Max.Height = math.Inf(1)
	return c
}

// IsBoundedWidth reports whether the maximum width is finite.
func (c Constraints) IsBoundedWidth() bool { return !math.IsInf(c.Max.Width, 1) }

// InlineConstraints is passed to a child laid out inside an inline flow.
type InlineConstraints struct {
	// FirstOffset is where the first row of the child starts on the current
	// flow row.
	FirstOffset float64
	// RowHeight is the height of the current flow row so far.
	RowHeight float64
}

// InlineLayout is produced by a node that takes part in an inline flow. Rows
// are relative to the widget's outer origin.
type InlineLayout struct {
	FirstRow Rect
	LastRow  Rect
}

// LayoutMetrics is the layout context passed down the tree.
type LayoutMetrics struct {
	Constraints Constraints
	// Inline is set when the parent lays the node out in an inline flow.
	Inline      *InlineConstraints
	ScaleFactor float64
	Viewport    Size
}

type metricsStack struct {
	stack []LayoutMetrics
}

func (m *metricsStack) Metrics() LayoutMetrics { return m.stack[len(m.stack)-1] }

func (m *metricsStack) with(lm LayoutMetrics, fn func() Size) Size {
	m.stack = append(m.stack, lm)
	s := fn()
	m.stack = m.stack[:len(m.stack)-1]
	return s
}

// WidgetMeasure is the context of the measure pass. Measure computes the
// size a node would take without changing bounds.
type WidgetMeasure struct {
	metricsStack
}

func newWidgetMeasure(lm LayoutMetrics) *WidgetMeasure {
	return &WidgetMeasure{metricsStack{stack: []LayoutMetrics{lm}}}
}

// Constraints returns the current constraints.
func (wm *WidgetMeasure) Constraints() Constraints { return wm.Metrics().Constraints }

// Inline returns the inline constraints, nil outside an inline flow.
func (wm *WidgetMeasure) Inline() *InlineConstraints { return wm.Metrics().Inline }

// WithConstraints runs fn with c and no inline flow.
func (wm *WidgetMeasure) WithConstraints(c Constraints, fn func() Size) Size {
	lm := wm.Metrics()
	lm.Constraints, lm.Inline = c, nil
	return wm.with(lm, fn)
}

// WithInline runs fn with c inside an inline flow.
func (wm *WidgetMeasure) WithInline(c Constraints, in InlineConstraints, fn func() Size) Size {
	lm := wm.Metrics()
	lm.Constraints, lm.Inline = c, &in
	return wm.with(lm, fn)
}

// WidgetLayout is the context of the layout pass.
type WidgetLayout struct {
	metricsStack
	inline *InlineLayout
}

func newWidgetLayout(lm LayoutMetrics) *WidgetLayout {
	return &WidgetLayout{metricsStack: metricsStack{stack: []LayoutMetrics{lm}}}
}

// Constraints returns the current constraints.
func (wl *WidgetLayout) Constraints() Constraints { return wl.Metrics().Constraints }

// Inline returns the inline constraints, nil outside an inline flow.
func (wl *WidgetLayout) Inline() *InlineConstraints { return wl.Metrics().Inline }

// WithConstraints runs fn with c and no inline flow.
func (wl *WidgetLayout) WithConstraints(c Constraints, fn func() Size) Size {
	lm := wl.Metrics()
	lm.Constraints, lm.Inline = c, nil
	return wl.with(lm, fn)
}

// WithInline runs fn with c inside an inline flow.
func (wl *WidgetLayout) WithInline(c Constraints, in InlineConstraints, fn func() Size) Size {
	lm := wl.Metrics()
	lm.Constraints, lm.Inline = c, &in
	return wl.with(lm, fn)
}

// SetInline records the inline rows produced by the current widget.
func (wl *WidgetLayout) SetInline(il InlineLayout) { wl.inline = &il }

// Measure returns a measure context with the current metrics, for nodes that
// need to measure children before placing them.
func (wl *WidgetLayout) Measure() *WidgetMeasure {
	return newWidgetMeasure(wl.Metrics())
}
