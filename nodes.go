package arbor

import "math"

// --- Lifecycle ---

// OnInit calls fn after child is initialized.
func OnInit(child UiNode, fn func(ctx *Context)) UiNode {
	return &lifecycleNode{ChildNode: ChildNode{child}, init: fn}
}

// OnDeinit calls fn before child is deinitialized.
func OnDeinit(child UiNode, fn func(ctx *Context)) UiNode {
	return &lifecycleNode{ChildNode: ChildNode{child}, deinit: fn}
}

type lifecycleNode struct {
	ChildNode
	init, deinit func(*Context)
}

func (n *lifecycleNode) Init(ctx *Context) {
	n.Child.Init(ctx)
	if n.init != nil {
		n.init(ctx)
	}
}

func (n *lifecycleNode) Deinit(ctx *Context) {
	if n.deinit != nil {
		n.deinit(ctx)
	}
	n.Child.Deinit(ctx)
}

// --- Events ---

// OnEvent calls fn for every update of e that reaches the widget, after the
// child handled it. It subscribes the widget to e so SearchAll deliveries
// find it. fn is not called once propagation stopped.
func OnEvent[A EventArgs](child UiNode, e *Event[A], fn func(ctx *Context, args A)) UiNode {
	return &eventNode[A]{ChildNode: ChildNode{child}, event: e, fn: fn}
}

// OnPreviewEvent is OnEvent with fn called before the child, so ancestors see
// the event first.
func OnPreviewEvent[A EventArgs](child UiNode, e *Event[A], fn func(ctx *Context, args A)) UiNode {
	return &eventNode[A]{ChildNode: ChildNode{child}, event: e, fn: fn, preview: true}
}

type eventNode[A EventArgs] struct {
	ChildNode
	event   *Event[A]
	fn      func(*Context, A)
	preview bool
}

func (n *eventNode[A]) Init(ctx *Context) {
	ctx.SubEvent(n.event)
	n.Child.Init(ctx)
}

func (n *eventNode[A]) Event(ctx *Context, u *EventUpdate) {
	if n.preview {
		n.handle(ctx, u)
		n.Child.Event(ctx, u)
		return
	}
	n.Child.Event(ctx, u)
	n.handle(ctx, u)
}

func (n *eventNode[A]) handle(ctx *Context, u *EventUpdate) {
	args, ok := n.event.Get(u)
	if !ok || u.Propagation().IsStopped() {
		return
	}
	n.fn(ctx, args)
}

// --- Context variables ---

// WithContextVar binds cv to v for the child subtree, in every pass.
func WithContextVar[T any](child UiNode, cv *ContextVar[T], v Var[T]) UiNode {
	return &contextVarNode[T]{ChildNode: ChildNode{child}, cv: cv, v: v}
}

type contextVarNode[T any] struct {
	ChildNode
	cv *ContextVar[T]
	v  Var[T]
}

func (n *contextVarNode[T]) Init(ctx *Context) {
	n.cv.With(n.v, func() { n.Child.Init(ctx) })
}

func (n *contextVarNode[T]) Deinit(ctx *Context) {
	n.cv.With(n.v, func() { n.Child.Deinit(ctx) })
}

func (n *contextVarNode[T]) Info(ctx *Context, info *InfoBuilder) {
	n.cv.With(n.v, func() { n.Child.Info(ctx, info) })
}

func (n *contextVarNode[T]) Event(ctx *Context, u *EventUpdate) {
	n.cv.With(n.v, func() { n.Child.Event(ctx, u) })
}

func (n *contextVarNode[T]) Update(ctx *Context, u *WidgetUpdates) {
	n.cv.With(n.v, func() { n.Child.Update(ctx, u) })
}

func (n *contextVarNode[T]) Measure(ctx *Context, wm *WidgetMeasure) (s Size) {
	n.cv.With(n.v, func() { s = n.Child.Measure(ctx, wm) })
	return s
}

func (n *contextVarNode[T]) Layout(ctx *Context, wl *WidgetLayout) (s Size) {
	n.cv.With(n.v, func() { s = n.Child.Layout(ctx, wl) })
	return s
}

func (n *contextVarNode[T]) Render(ctx *Context, f *FrameBuilder) {
	n.cv.With(n.v, func() { n.Child.Render(ctx, f) })
}

func (n *contextVarNode[T]) RenderUpdate(ctx *Context, u *FrameUpdate) {
	n.cv.With(n.v, func() { n.Child.RenderUpdate(ctx, u) })
}

// --- Info ---

// Interactive restricts the interactivity of the widget to v. Descendants
// inherit the restriction.
func Interactive(child UiNode, v Var[Interactivity]) UiNode {
	return &interactiveNode{ChildNode: ChildNode{child}, v: v}
}

type interactiveNode struct {
	ChildNode
	v Var[Interactivity]
}

func (n *interactiveNode) Init(ctx *Context) {
	ctx.SubVarInfo(n.v)
	n.Child.Init(ctx)
}

func (n *interactiveNode) Info(ctx *Context, info *InfoBuilder) {
	info.SetInteractivity(n.v.Get())
	n.Child.Info(ctx, info)
}

// FocusableNode writes focus metadata for the widget and tracks whether the
// widget has keyboard focus.
type FocusableNode struct {
	ChildNode
	info    Var[FocusInfo]
	focused *RwVar[bool]
}

// Focusable makes the widget a focus target.
func Focusable(child UiNode) *FocusableNode {
	return FocusableWith(child, Const(FocusInfo{Focusable: true}))
}

// FocusScope makes the widget a focus scope with the given navigation.
func FocusScope(child UiNode, tab TabNav, dir DirectionalNav) *FocusableNode {
	return FocusableWith(child, Const(FocusInfo{Scope: true, TabNav: tab, DirectionalNav: dir}))
}

// FocusableWith writes info as the widget's focus metadata.
func FocusableWith(child UiNode, info Var[FocusInfo]) *FocusableNode {
	return &FocusableNode{ChildNode: ChildNode{child}, info: info}
}

// IsFocused reports whether the widget is the focused widget. It is nil until
// the node is initialized.
func (n *FocusableNode) IsFocused() Var[bool] {
	if n.focused == nil {
		return nil
	}
	return n.focused
}

func (n *FocusableNode) Init(ctx *Context) {
	if n.focused == nil {
		n.focused = NewVar(ctx.App(), false)
	}
	ctx.SubVarInfo(n.info)
	ctx.SubEvent(FocusChangedEvent)
	n.Child.Init(ctx)
}

func (n *FocusableNode) Deinit(ctx *Context) {
	n.Child.Deinit(ctx)
	_ = SetNe[bool](n.focused, false)
}

func (n *FocusableNode) Info(ctx *Context, info *InfoBuilder) {
	SetState(info.Meta(), FocusMetaID, n.info.Get())
	n.Child.Info(ctx, info)
}

func (n *FocusableNode) Event(ctx *Context, u *EventUpdate) {
	n.Child.Event(ctx, u)
	if args, ok := FocusChangedEvent.Get(u); ok {
		id := ctx.WidgetID()
		switch {
		case args.IsFocus(id):
			_ = SetNe[bool](n.focused, true)
		case args.IsBlur(id):
			_ = SetNe[bool](n.focused, false)
		}
	}
}

// --- Layout ---

// SizeNode forces the widget to a size, within the parent's constraints.
func SizeNode(child UiNode, size Var[Size]) UiNode {
	return &sizeNode{ChildNode: ChildNode{child}, size: size}
}

type sizeNode struct {
	ChildNode
	size Var[Size]
}

func (n *sizeNode) Init(ctx *Context) {
	ctx.SubVarLayout(n.size)
	n.Child.Init(ctx)
}

func (n *sizeNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	return wm.Constraints().Clamp(n.size.Get())
}

func (n *sizeNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	s := wl.Constraints().Clamp(n.size.Get())
	wl.WithConstraints(Tight(s), func() Size { return n.Child.Layout(ctx, wl) })
	return s
}

// Margin adds space around the child. The margin is outside the widget's
// inner bounds.
func Margin(child UiNode, margin Var[SideOffsets]) UiNode {
	return &marginNode{ChildNode: ChildNode{child}, margin: margin}
}

type marginNode struct {
	ChildNode
	margin Var[SideOffsets]
}

func (n *marginNode) Init(ctx *Context) {
	ctx.SubVarLayout(n.margin)
	n.Child.Init(ctx)
}

func (n *marginNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	m := n.margin.Get()
	c := wm.Constraints()
	s := wm.WithConstraints(c.Deflate(m), func() Size { return n.Child.Measure(ctx, wm) })
	return c.Clamp(Size{s.Width + m.Horizontal(), s.Height + m.Vertical()})
}

func (n *marginNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	m := n.margin.Get()
	c := wl.Constraints()
	s := wl.WithConstraints(c.Deflate(m), func() Size { return n.Child.Layout(ctx, wl) })
	ctx.Bounds().setInner(Point{m.Left, m.Top}, s)
	return c.Clamp(Size{s.Width + m.Horizontal(), s.Height + m.Vertical()})
}

func (n *marginNode) Render(ctx *Context, f *FrameBuilder) {
	m := n.margin.Get()
	f.PushTransform(Translation(m.Left, m.Top), func() { n.Child.Render(ctx, f) })
}

func (n *marginNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	m := n.margin.Get()
	u.PushTransform(Translation(m.Left, m.Top), func() { n.Child.RenderUpdate(ctx, u) })
}

// StackDirection is the main axis of a Stack.
type StackDirection uint8

const (
	StackVertical   StackDirection = iota // top to bottom
	StackHorizontal                       // left to right
)

// StackNode places its children one after the other along an axis.
type StackNode struct {
	Children  *UiNodeList
	Direction StackDirection
	Spacing   float64

	offsets []Point
}

// Stack returns a vertical stack of children.
func Stack(spacing float64, children ...UiNode) *StackNode {
	return &StackNode{Children: NewUiNodeList(children...), Spacing: spacing}
}

// HStack returns a horizontal stack of children.
func HStack(spacing float64, children ...UiNode) *StackNode {
	return &StackNode{Children: NewUiNodeList(children...), Direction: StackHorizontal, Spacing: spacing}
}

func (n *StackNode) Init(ctx *Context) { n.Children.Init(ctx) }
func (n *StackNode) Deinit(ctx *Context) { n.Children.Deinit(ctx) }
func (n *StackNode) Info(ctx *Context, info *InfoBuilder) { n.Children.Info(ctx, info) }
func (n *StackNode) Event(ctx *Context, u *EventUpdate) { n.Children.Event(ctx, u) }
func (n *StackNode) Update(ctx *Context, u *WidgetUpdates) { n.Children.Update(ctx, u) }

func (n *StackNode) childConstraints(c Constraints) Constraints {
	if n.Direction == StackHorizontal {
		return Constraints{Max: Size{math.Inf(1), c.Max.Height}}
	}
	return Constraints{Max: Size{c.Max.Width, math.Inf(1)}}
}

// place returns the position of every child and the stack content size.
func (n *StackNode) place(sizes []Size) ([]Point, Size) {
	offsets := n.offsets[:0]
	var pos float64
	var total Size
	for i, s := range sizes {
		if i > 0 {
			pos += n.Spacing
		}
		if n.Direction == StackHorizontal {
			offsets = append(offsets, Point{pos, 0})
			pos += s.Width
			total.Height = math.Max(total.Height, s.Height)
		} else {
			offsets = append(offsets, Point{0, pos})
			pos += s.Height
			total.Width = math.Max(total.Width, s.Width)
		}
	}
	if n.Direction == StackHorizontal {
		total.Width = pos
	} else {
		total.Height = pos
	}
	return offsets, total
}

func (n *StackNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	c := wm.Constraints()
	cc := n.childConstraints(c)
	sizes := make([]Size, n.Children.Len())
	for i := range sizes {
		sizes[i] = wm.WithConstraints(cc, func() Size { return n.Children.At(i).Measure(ctx, wm) })
	}
	_, total := n.place(sizes)
	return c.Clamp(total)
}

func (n *StackNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	c := wl.Constraints()
	cc := n.childConstraints(c)
	sizes := make([]Size, n.Children.Len())
	for i := range sizes {
		sizes[i] = wl.WithConstraints(cc, func() Size { return n.Children.At(i).Layout(ctx, wl) })
	}
	var total Size
	n.offsets, total = n.place(sizes)
	return c.Clamp(total)
}

func (n *StackNode) Render(ctx *Context, f *FrameBuilder) {
	for i := 0; i < n.Children.Len() && i < len(n.offsets); i++ {
		o := n.offsets[i]
		f.PushTransform(Translation(o.X, o.Y), func() { n.Children.At(i).Render(ctx, f) })
	}
}

func (n *StackNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	for i := 0; i < n.Children.Len() && i < len(n.offsets); i++ {
		o := n.offsets[i]
		u.PushTransform(Translation(o.X, o.Y), func() { n.Children.At(i).RenderUpdate(ctx, u) })
	}
}

// WrapNode lays its children out in rows, like words in a paragraph.
// Children that take part in the inline flow, like TextNode, continue on the
// row where the previous child ended; other children wrap to a new row when
// they do not fit. A WrapNode inside another flow continues the outer row.
type WrapNode struct {
	Children *UiNodeList
	Spacing  Size

	offsets []Point
}

// Wrap returns an inline flow of children.
func Wrap(spacing Size, children ...UiNode) *WrapNode {
	return &WrapNode{Children: NewUiNodeList(children...), Spacing: spacing}
}

func (n *WrapNode) Init(ctx *Context) { n.Children.Init(ctx) }
func (n *WrapNode) Deinit(ctx *Context) { n.Children.Deinit(ctx) }
func (n *WrapNode) Info(ctx *Context, info *InfoBuilder) { n.Children.Info(ctx, info) }
func (n *WrapNode) Event(ctx *Context, u *EventUpdate) { n.Children.Event(ctx, u) }
func (n *WrapNode) Update(ctx *Context, u *WidgetUpdates) { n.Children.Update(ctx, u) }

// flow tracks the current row of a wrap layout.
type flow struct {
	maxWidth float64
	spacing  Size
	x, y     float64
	rowH     float64
	width    float64
	firstRow Rect
	rows     int
}

func newFlow(maxWidth float64, spacing Size, in *InlineConstraints) *flow {
	fl := &flow{maxWidth: maxWidth, spacing: spacing}
	if in != nil {
		fl.x, fl.rowH = in.FirstOffset, in.RowHeight
	}
	return fl
}

func (fl *flow) endRow() {
	if fl.rows == 0 {
		fl.firstRow = Rect{Y: fl.y, Height: fl.rowH, Width: fl.x}
	}
	fl.rows++
	fl.width = math.Max(fl.width, fl.x)
	fl.y += fl.rowH + fl.spacing.Height
	fl.x, fl.rowH = 0, 0
}

// block places a child that does not take part in the flow.
func (fl *flow) block(s Size) Point {
	if fl.x > 0 && fl.x+s.Width > fl.maxWidth {
		fl.x -= fl.spacing.Width
		fl.endRow()
	}
	p := Point{fl.x, fl.y}
	fl.x += s.Width + fl.spacing.Width
	fl.rowH = math.Max(fl.rowH, s.Height)
	return p
}

// inline places a child that produced rows. The child's outer origin is at
// the start of the current row.
func (fl *flow) inline(s Size, il *InlineLayout) Point {
	p := Point{0, fl.y}
	if il.LastRow.Y > il.FirstRow.Y {
		fl.rowH = math.Max(fl.rowH, il.FirstRow.Height)
		fl.x = math.Max(fl.x, il.FirstRow.MaxX())
		fl.endRow()
		fl.y = p.Y + il.LastRow.Y
		fl.rowH = il.LastRow.Height
	} else {
		fl.rowH = math.Max(fl.rowH, il.LastRow.Height)
	}
	fl.x = il.LastRow.MaxX() + fl.spacing.Width
	fl.width = math.Max(fl.width, s.Width)
	return p
}

// finish closes the last row and returns the flow size and its first and last
// rows.
func (fl *flow) finish() (Size, InlineLayout) {
	if fl.x > 0 {
		fl.x -= fl.spacing.Width
	}
	last := Rect{Y: fl.y, Height: fl.rowH, Width: fl.x}
	width := math.Max(fl.width, fl.x)
	first := fl.firstRow
	if fl.rows == 0 {
		first = last
	}
	return Size{width, fl.y + fl.rowH}, InlineLayout{FirstRow: first, LastRow: last}
}

func (n *WrapNode) childConstraints(c Constraints) Constraints {
	return Constraints{Max: Size{c.Max.Width, math.Inf(1)}}
}

func (n *WrapNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	c := wm.Constraints()
	fl := newFlow(c.Max.Width, n.Spacing, wm.Inline())
	cc := n.childConstraints(c)
	for i := 0; i < n.Children.Len(); i++ {
		s := wm.WithConstraints(cc, func() Size { return n.Children.At(i).Measure(ctx, wm) })
		fl.block(s)
	}
	s, _ := fl.finish()
	return c.Clamp(s)
}

func (n *WrapNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	c := wl.Constraints()
	fl := newFlow(c.Max.Width, n.Spacing, wl.Inline())
	cc := n.childConstraints(c)
	n.offsets = n.offsets[:0]
	for i := 0; i < n.Children.Len(); i++ {
		child := n.Children.At(i)
		in := InlineConstraints{FirstOffset: fl.x, RowHeight: fl.rowH}
		wl.inline = nil
		s := wl.WithInline(cc, in, func() Size { return child.Layout(ctx, wl) })
		il := wl.inline
		if w, ok := child.(*Widget); ok {
			il = w.Bounds().Inline()
		}
		wl.inline = nil
		if il != nil {
			n.offsets = append(n.offsets, fl.inline(s, il))
			continue
		}
		n.offsets = append(n.offsets, fl.block(s))
	}
	s, il := fl.finish()
	if wl.Inline() != nil {
		wl.SetInline(il)
	}
	return c.Clamp(s)
}

func (n *WrapNode) Render(ctx *Context, f *FrameBuilder) {
	for i := 0; i < n.Children.Len() && i < len(n.offsets); i++ {
		o := n.offsets[i]
		f.PushTransform(Translation(o.X, o.Y), func() { n.Children.At(i).Render(ctx, f) })
	}
}

func (n *WrapNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	for i := 0; i < n.Children.Len() && i < len(n.offsets); i++ {
		o := n.offsets[i]
		u.PushTransform(Translation(o.X, o.Y), func() { n.Children.At(i).RenderUpdate(ctx, u) })
	}
}

// --- Render ---

// FillColor paints the area of the child with color. Color changes are sent
// as frame updates.
func FillColor(child UiNode, color Var[Color]) UiNode {
	return &fillNode{ChildNode: ChildNode{child}, color: color, key: NewFrameValueKey()}
}

type fillNode struct {
	ChildNode
	color Var[Color]
	key   FrameValueKey
	size  Size
}

func (n *fillNode) Init(ctx *Context) {
	ctx.SubVarRenderUpdate(n.color)
	n.Child.Init(ctx)
}

func (n *fillNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	n.size = n.Child.Layout(ctx, wl)
	return n.size
}

func (n *fillNode) Render(ctx *Context, f *FrameBuilder) {
	f.PushColorBinding(n.key, RectFromSize(n.size), n.color.Get())
	n.Child.Render(ctx, f)
}

func (n *fillNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	u.UpdateColor(n.key, n.color.Get())
	n.Child.RenderUpdate(ctx, u)
}

// BorderStyle is the look of a Border.
type BorderStyle struct {
	Widths SideOffsets
	Color  Color
	Radius CornerRadius
}

// Border draws a border around the child. The child is laid out inside the
// border widths.
func Border(child UiNode, style Var[BorderStyle]) UiNode {
	return &borderNode{ChildNode: ChildNode{child}, style: style}
}

type borderNode struct {
	ChildNode
	style Var[BorderStyle]
	size  Size
}

func (n *borderNode) Init(ctx *Context) {
	ctx.SubVarLayout(n.style)
	n.Child.Init(ctx)
}

func (n *borderNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	w := n.style.Get().Widths
	c := wm.Constraints()
	s := wm.WithConstraints(c.Deflate(w), func() Size { return n.Child.Measure(ctx, wm) })
	return c.Clamp(Size{s.Width + w.Horizontal(), s.Height + w.Vertical()})
}

func (n *borderNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	w := n.style.Get().Widths
	c := wl.Constraints()
	s := wl.WithConstraints(c.Deflate(w), func() Size { return n.Child.Layout(ctx, wl) })
	n.size = c.Clamp(Size{s.Width + w.Horizontal(), s.Height + w.Vertical()})
	return n.size
}

func (n *borderNode) Render(ctx *Context, f *FrameBuilder) {
	st := n.style.Get()
	f.PushTransform(Translation(st.Widths.Left, st.Widths.Top), func() { n.Child.Render(ctx, f) })
	r := RectFromSize(n.size)
	f.PushBorder(r, st.Widths, st.Color, st.Radius)
	f.HitBorder(r, st.Widths, st.Radius)
}

func (n *borderNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	w := n.style.Get().Widths
	u.PushTransform(Translation(w.Left, w.Top), func() { n.Child.RenderUpdate(ctx, u) })
}

// ClipToBounds clips the rendering and hit-testing of the child to the area
// it was laid out in. A widget laid out inline is clipped to its rows.
func ClipToBounds(child UiNode, radius CornerRadius) UiNode {
	return &clipNode{ChildNode: ChildNode{child}, radius: radius}
}

type clipNode struct {
	ChildNode
	radius CornerRadius
	size   Size
}

func (n *clipNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	n.size = n.Child.Layout(ctx, wl)
	return n.size
}

func (n *clipNode) Render(ctx *Context, f *FrameBuilder) {
	f.PushClip(RectFromSize(n.size), n.radius, false, func() {
		il := ctx.Bounds().Inline()
		if il == nil || il.LastRow.Y <= il.FirstRow.Y {
			n.Child.Render(ctx, f)
			return
		}
		before := Rect{Width: il.FirstRow.X, Height: il.FirstRow.Height}
		after := Rect{X: il.LastRow.MaxX(), Y: il.LastRow.Y, Width: n.size.Width - il.LastRow.MaxX(), Height: il.LastRow.Height}
		f.PushClip(before, CornerRadius{}, true, func() {
			f.PushClip(after, CornerRadius{}, true, func() { n.Child.Render(ctx, f) })
		})
	})
}

func (n *clipNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	u.PushClip(RectFromSize(n.size), func() { n.Child.RenderUpdate(ctx, u) })
}

// HitTestShape replaces the widget's bounds hit area with the shape built by
// fn from the laid out size.
func HitTestShape(child UiNode, fn func(size Size) HitShape) UiNode {
	return &hitShapeNode{ChildNode: ChildNode{child}, shape: fn}
}

type hitShapeNode struct {
	ChildNode
	shape func(Size) HitShape
	size  Size
}

func (n *hitShapeNode) Init(ctx *Context) {
	ctx.SetHitTestMode(HitTestCustom)
	n.Child.Init(ctx)
}

func (n *hitShapeNode) Deinit(ctx *Context) {
	n.Child.Deinit(ctx)
	ctx.SetHitTestMode(HitTestBounds)
}

func (n *hitShapeNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	n.size = n.Child.Layout(ctx, wl)
	return n.size
}

func (n *hitShapeNode) Render(ctx *Context, f *FrameBuilder) {
	f.HitShape(n.shape(n.size))
	n.Child.Render(ctx, f)
}

// RenderTransform renders the child transformed by v, around the child
// origin. Changes of v are sent as frame updates and hit-tests follow them.
func RenderTransform(child UiNode, v Var[Affine]) UiNode {
	return &transformNode{ChildNode: ChildNode{child}, v: v, key: NewFrameValueKey()}
}

type transformNode struct {
	ChildNode
	v   Var[Affine]
	key FrameValueKey
}

func (n *transformNode) Init(ctx *Context) {
	ctx.SubVarRenderUpdate(n.v)
	n.Child.Init(ctx)
}

func (n *transformNode) Render(ctx *Context, f *FrameBuilder) {
	f.PushTransformBinding(n.key, n.v.Get(), func() { n.Child.Render(ctx, f) })
}

func (n *transformNode) RenderUpdate(ctx *Context, u *FrameUpdate) {
	u.UpdateTransform(n.key, n.v.Get(), func() { n.Child.RenderUpdate(ctx, u) })
}
