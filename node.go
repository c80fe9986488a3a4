package arbor

// UiNode is a part of a widget. Widgets are chains of nodes: a Widget node
// wraps property nodes that each add a behavior and delegate to their child.
// The scheduler calls the methods in tree order, on the UI goroutine.
type UiNode interface {
	Init(ctx *Context)
	Deinit(ctx *Context)
	Info(ctx *Context, info *InfoBuilder)
	Event(ctx *Context, u *EventUpdate)
	Update(ctx *Context, u *WidgetUpdates)
	Measure(ctx *Context, wm *WidgetMeasure) Size
	Layout(ctx *Context, wl *WidgetLayout) Size
	Render(ctx *Context, f *FrameBuilder)
	RenderUpdate(ctx *Context, u *FrameUpdate)
}

// WidgetUpdates is passed to Update. Nodes compare their variables against
// UpdateID with IsNew.
type WidgetUpdates struct {
	ID    UpdateID
	Apply ApplyID
}

// --- Requests ---

type requestFlags uint8

const (
	reqUpdate requestFlags = 1 << iota
	reqInfo
	reqLayout
	reqRender
	reqRenderUpdate
)

// HitTestMode selects which hit-test primitives a widget records.
type HitTestMode uint8

const (
	// HitTestBounds hits the whole inner bounds.
	HitTestBounds HitTestMode = iota
	// HitTestCustom hits only the shapes pushed by the widget's nodes.
	HitTestCustom
	// HitTestDisabled makes the widget transparent to hit-tests. Its
	// descendants are still hittable.
	HitTestDisabled
)

// widgetCtx is the per-widget state the Context exposes.
type widgetCtx struct {
	id      WidgetID
	parent  *widgetCtx
	window  *Window
	bounds  *WidgetBoundsInfo
	state   StateMap
	hitMode HitTestMode

	flags      requestFlags
	descUpdate bool
	descLayout bool

	vars   VarHandles
	events EventHandles

	measureCons, layoutCons Constraints
	measureSize, layoutSize Size
	hasMeasure, hasLayout   bool
	deinited                bool
}

func (w *widgetCtx) request(f requestFlags) {
	if w.deinited {
		return
	}
	w.flags |= f
	for p := w.parent; p != nil; p = p.parent {
		if f&reqUpdate != 0 {
			p.descUpdate = true
		}
		if f&reqLayout != 0 {
			p.descLayout = true
		}
	}
	if w.window != nil {
		w.window.request(f)
	}
}

func (w *widgetCtx) path() WidgetPath {
	n := 0
	for p := w; p != nil; p = p.parent {
		n++
	}
	ids := make([]WidgetID, n)
	for p := w; p != nil; p = p.parent {
		n--
		ids[n] = p.id
	}
	var win WindowID
	if w.window != nil {
		win = w.window.id
	}
	return WidgetPath{window: win, ids: ids}
}

// --- Context ---

// Context is passed to every node method. It identifies the app, the
// window and the widget the node belongs to.
type Context struct {
	app    *App
	window *Window
	widget *widgetCtx
}

// App returns the app.
func (c *Context) App() *App { return c.app }

// Window returns the window being processed.
func (c *Context) Window() *Window { return c.window }

func (c *Context) mustWidget() *widgetCtx {
	if c.widget == nil {
		panic("arbor: no widget in context")
	}
	return c.widget
}

// WidgetID returns the ID of the current widget.
func (c *Context) WidgetID() WidgetID { return c.mustWidget().id }

// Path returns the path of the current widget.
func (c *Context) Path() WidgetPath { return c.mustWidget().path() }

// Bounds returns the bounds of the current widget.
func (c *Context) Bounds() *WidgetBoundsInfo { return c.mustWidget().bounds }

// State returns the state map of the current widget, shared by its nodes.
func (c *Context) State() *StateMap { return &c.mustWidget().state }

// Info returns the current widget in the latest info tree.
func (c *Context) Info() (WidgetInfo, bool) {
	if c.window == nil || c.widget == nil {
		return WidgetInfo{}, false
	}
	return c.window.tree.Get(c.widget.id)
}

// SetHitTestMode selects the hit-test primitives of the current widget.
func (c *Context) SetHitTestMode(m HitTestMode) {
	w := c.mustWidget()
	if w.hitMode != m {
		w.hitMode = m
		w.request(reqRender)
	}
}

// RequestUpdate schedules Update for the current widget.
func (c *Context) RequestUpdate() { c.mustWidget().request(reqUpdate) }

// RequestInfo schedules an info tree rebuild.
func (c *Context) RequestInfo() { c.mustWidget().request(reqInfo) }

// RequestLayout schedules a layout of the current widget and its ancestors.
func (c *Context) RequestLayout() { c.mustWidget().request(reqLayout) }

// RequestRender schedules a full render of the window.
func (c *Context) RequestRender() { c.mustWidget().request(reqRender) }

// RequestRenderUpdate schedules a frame update of the window.
func (c *Context) RequestRenderUpdate() { c.mustWidget().request(reqRenderUpdate) }

func (c *Context) subVar(v AnyVar, f requestFlags) {
	w := c.mustWidget()
	h := v.HookAny(func() bool {
		if w.deinited {
			return false
		}
		w.request(f)
		return true
	})
	w.vars = append(w.vars, h)
}

// SubVar requests Update for the current widget whenever v changes, until the
// widget is deinited.
func (c *Context) SubVar(v AnyVar) { c.subVar(v, reqUpdate) }

// SubVarInfo requests an info rebuild whenever v changes.
func (c *Context) SubVarInfo(v AnyVar) { c.subVar(v, reqInfo) }

// SubVarLayout requests layout and render whenever v changes.
func (c *Context) SubVarLayout(v AnyVar) { c.subVar(v, reqLayout|reqRender) }

// SubVarRender requests a full render whenever v changes.
func (c *Context) SubVarRender(v AnyVar) { c.subVar(v, reqRender) }

// SubVarRenderUpdate requests a frame update whenever v changes.
func (c *Context) SubVarRenderUpdate(v AnyVar) { c.subVar(v, reqRenderUpdate) }

// EventSubscriber is implemented by every *Event.
type EventSubscriber interface {
	Subscribe(app *App, id WidgetID) EventHandle
}

// SubEvent subscribes the current widget to e until it is deinited.
func (c *Context) SubEvent(e EventSubscriber) {
	w := c.mustWidget()
	w.events = append(w.events, e.Subscribe(c.app, w.id))
}

// HoldVar keeps h until the current widget is deinited.
func (c *Context) HoldVar(h VarHandle) {
	w := c.mustWidget()
	w.vars = append(w.vars, h)
}

// HoldEvent keeps h until the current widget is deinited.
func (c *Context) HoldEvent(h EventHandle) {
	w := c.mustWidget()
	w.events = append(w.events, h)
}

func (c *Context) withWidget(w *widgetCtx, fn func()) {
	prev := c.widget
	c.widget = w
	fn()
	c.widget = prev
}

// --- NodeBase ---

// NodeBase implements every UiNode method as a no-op. Leaf nodes embed it.
// Measure and Layout return the minimum size allowed.
type NodeBase struct{}

func (NodeBase) Init(*Context) {}

func (NodeBase) Deinit(*Context) {}

func (NodeBase) Info(*Context, *InfoBuilder) {}

func (NodeBase) Event(*Context, *EventUpdate) {}

func (NodeBase) Update(*Context, *WidgetUpdates) {}

func (NodeBase) Render(*Context, *FrameBuilder) {}

func (NodeBase) RenderUpdate(*Context, *FrameUpdate) {}

func (NodeBase) Measure(_ *Context, wm *WidgetMeasure) Size {
	return wm.Constraints().Min
}

func (NodeBase) Layout(_ *Context, wl *WidgetLayout) Size {
	return wl.Constraints().Min
}

// --- ChildNode ---

// ChildNode delegates every method to Child. Property nodes embed it and
// override the methods they extend.
type ChildNode struct {
	Child UiNode
}

func (n *ChildNode) Init(ctx *Context) { n.Child.Init(ctx) }

func (n *ChildNode) Deinit(ctx *Context) { n.Child.Deinit(ctx) }

func (n *ChildNode) Info(ctx *Context, info *InfoBuilder) { n.Child.Info(ctx, info) }

func (n *ChildNode) Event(ctx *Context, u *EventUpdate) { n.Child.Event(ctx, u) }

func (n *ChildNode) Update(ctx *Context, u *WidgetUpdates) { n.Child.Update(ctx, u) }

func (n *ChildNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	return n.Child.Measure(ctx, wm)
}

func (n *ChildNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	return n.Child.Layout(ctx, wl)
}

func (n *ChildNode) Render(ctx *Context, f *FrameBuilder) { n.Child.Render(ctx, f) }

func (n *ChildNode) RenderUpdate(ctx *Context, u *FrameUpdate) { n.Child.RenderUpdate(ctx, u) }

// --- UiNodeList ---

type listOp struct {
	insert bool
	index  int
	node   UiNode
}

// UiNodeList is an ordered list of child nodes. Children inserted or removed
// while the list is inited are initialized or deinitialized during the
// owner's next Update.
type UiNodeList struct {
	nodes   []UiNode
	pending []listOp
	owner   *widgetCtx
	inited  bool
}

// NewUiNodeList returns a list of nodes.
func NewUiNodeList(nodes ...UiNode) *UiNodeList {
	return &UiNodeList{nodes: nodes}
}

// Len returns the number of children.
func (l *UiNodeList) Len() int { return len(l.nodes) }

// At returns the child at i.
func (l *UiNodeList) At(i int) UiNode { return l.nodes[i] }

// Push appends n.
func (l *UiNodeList) Push(n UiNode) { l.Insert(-1, n) }

// Insert adds n at index i, or at the end if i is negative or out of range.
func (l *UiNodeList) Insert(i int, n UiNode) {
	if !l.inited {
		if i < 0 || i >= len(l.nodes) {
			l.nodes = append(l.nodes, n)
		} else {
			l.nodes = append(l.nodes[:i], append([]UiNode{n}, l.nodes[i:]...)...)
		}
		return
	}
	l.pending = append(l.pending, listOp{insert: true, index: i, node: n})
	l.owner.request(reqUpdate)
}

// Remove removes the child at index i.
func (l *UiNodeList) Remove(i int) {
	if !l.inited {
		l.nodes = append(l.nodes[:i], l.nodes[i+1:]...)
		return
	}
	l.pending = append(l.pending, listOp{index: i})
	l.owner.request(reqUpdate)
}

// Init initializes every child in order.
func (l *UiNodeList) Init(ctx *Context) {
	l.owner = ctx.widget
	for _, n := range l.nodes {
		n.Init(ctx)
	}
	l.inited = true
}

// Deinit deinitializes every child in reverse order.
func (l *UiNodeList) Deinit(ctx *Context) {
	for i := len(l.nodes) - 1; i >= 0; i-- {
		l.nodes[i].Deinit(ctx)
	}
	l.inited = false
}

// Info collects the info of every child.
func (l *UiNodeList) Info(ctx *Context, info *InfoBuilder) {
	for _, n := range l.nodes {
		n.Info(ctx, info)
	}
}

// Event delivers u to every child until propagation stops.
func (l *UiNodeList) Event(ctx *Context, u *EventUpdate) {
	for _, n := range l.nodes {
		n.Event(ctx, u)
	}
}

// Update applies pending inserts and removes, then updates every child.
func (l *UiNodeList) Update(ctx *Context, u *WidgetUpdates) {
	if len(l.pending) > 0 {
		ops := l.pending
		l.pending = nil
		for _, op := range ops {
			if op.insert {
				op.node.Init(ctx)
				if op.index < 0 || op.index >= len(l.nodes) {
					l.nodes = append(l.nodes, op.node)
				} else {
					l.nodes = append(l.nodes[:op.index], append([]UiNode{op.node}, l.nodes[op.index:]...)...)
				}
				continue
			}
			if op.index < 0 || op.index >= len(l.nodes) {
				continue
			}
			l.nodes[op.index].Deinit(ctx)
			l.nodes = append(l.nodes[:op.index], l.nodes[op.index+1:]...)
		}
		ctx.RequestInfo()
		ctx.RequestLayout()
		ctx.RequestRender()
	}
	for _, n := range l.nodes {
		n.Update(ctx, u)
	}
}

// Render renders every child in order.
func (l *UiNodeList) Render(ctx *Context, f *FrameBuilder) {
	for _, n := range l.nodes {
		n.Render(ctx, f)
	}
}

// RenderUpdate updates every child in order.
func (l *UiNodeList) RenderUpdate(ctx *Context, u *FrameUpdate) {
	for _, n := range l.nodes {
		n.RenderUpdate(ctx, u)
	}
}

// --- Widget ---

// Widget is the outermost node of a widget. It gives the node chain an
// identity, holds its bounds and subscriptions and guards its lifecycle:
// Init runs once until Deinit, and Deinit only after Init.
type Widget struct {
	ctx    *widgetCtx
	child  UiNode
	inited bool
}

// NewWidget wraps child in a widget with id. A zero id gets a new ID.
func NewWidget(id WidgetID, child UiNode) *Widget {
	if id == 0 {
		id = NewWidgetID()
	}
	return &Widget{
		ctx:   &widgetCtx{id: id, bounds: newWidgetBoundsInfo()},
		child: child,
	}
}

// ID returns the widget ID.
func (w *Widget) ID() WidgetID { return w.ctx.id }

// Bounds returns the widget bounds.
func (w *Widget) Bounds() *WidgetBoundsInfo { return w.ctx.bounds }

// IsInited reports whether Init ran and Deinit did not.
func (w *Widget) IsInited() bool { return w.inited }

// Init initializes the node chain.
func (w *Widget) Init(ctx *Context) {
	if w.inited {
		if ctx.app.debug {
			debugCheckLifecycle(w, "Init")
		}
		return
	}
	w.ctx.parent = ctx.widget
	w.ctx.window = ctx.window
	w.ctx.deinited = false
	w.ctx.hasMeasure, w.ctx.hasLayout = false, false
	ctx.withWidget(w.ctx, func() { w.child.Init(ctx) })
	w.inited = true
	w.ctx.request(reqInfo | reqLayout | reqRender)
}

// Deinit deinitializes the node chain, then releases every subscription.
func (w *Widget) Deinit(ctx *Context) {
	if !w.inited {
		return
	}
	ctx.withWidget(w.ctx, func() { w.child.Deinit(ctx) })
	w.inited = false
	w.ctx.vars.Unsubscribe()
	w.ctx.events.Unsubscribe()
	w.ctx.vars, w.ctx.events = nil, nil
	w.ctx.flags, w.ctx.descUpdate, w.ctx.descLayout = 0, false, false
	w.ctx.bounds.rendered = false
	w.ctx.deinited = true
	if p := w.ctx.parent; p != nil {
		p.request(reqInfo | reqLayout | reqRender)
	}
}

// Info adds the widget to the info tree.
func (w *Widget) Info(ctx *Context, info *InfoBuilder) {
	if !w.inited {
		return
	}
	w.ctx.flags &^= reqInfo
	info.PushWidget(w.ctx.id, w.ctx.bounds, func() {
		ctx.withWidget(w.ctx, func() { w.child.Info(ctx, info) })
	})
}

// Event delivers u if the widget or one of its descendants is a target.
func (w *Widget) Event(ctx *Context, u *EventUpdate) {
	if !w.inited || !u.delivery.EnterWidget(w.ctx.id) {
		return
	}
	ctx.withWidget(w.ctx, func() { w.child.Event(ctx, u) })
}

// Update runs the node chain if the widget or a descendant requested it.
func (w *Widget) Update(ctx *Context, u *WidgetUpdates) {
	if !w.inited || (w.ctx.flags&reqUpdate == 0 && !w.ctx.descUpdate) {
		return
	}
	w.ctx.flags &^= reqUpdate
	w.ctx.descUpdate = false
	ctx.withWidget(w.ctx, func() { w.child.Update(ctx, u) })
}

func (w *Widget) layoutClean() bool {
	return w.ctx.flags&reqLayout == 0 && !w.ctx.descLayout
}

// Measure returns the size the widget would take, reusing the last result
// when nothing changed.
func (w *Widget) Measure(ctx *Context, wm *WidgetMeasure) Size {
	if !w.inited {
		return Size{}
	}
	c := wm.Constraints()
	if w.layoutClean() && wm.Inline() == nil && w.ctx.hasMeasure && w.ctx.measureCons == c {
		return w.ctx.measureSize
	}
	var s Size
	ctx.withWidget(w.ctx, func() { s = w.child.Measure(ctx, wm) })
	if wm.Inline() == nil {
		w.ctx.measureCons, w.ctx.measureSize, w.ctx.hasMeasure = c, s, true
	}
	return s
}

// Layout sizes the widget and records its bounds.
func (w *Widget) Layout(ctx *Context, wl *WidgetLayout) Size {
	if !w.inited {
		return Size{}
	}
	c := wl.Constraints()
	if w.layoutClean() && wl.Inline() == nil && w.ctx.hasLayout && w.ctx.layoutCons == c {
		return w.ctx.layoutSize
	}
	b := w.ctx.bounds
	prevOuter, prevInner, prevOffset := b.outerSize, b.innerSize, b.innerOffset
	b.innerSet = false
	prevInline := wl.inline
	wl.inline = nil

	var s Size
	ctx.withWidget(w.ctx, func() { s = w.child.Layout(ctx, wl) })

	b.inline = wl.inline
	wl.inline = prevInline
	if !b.innerSet {
		b.innerOffset, b.innerSize = Point{}, s
	}
	b.outerSize = s
	if prevOuter != s || prevInner != b.innerSize || prevOffset != b.innerOffset {
		b.changed = true
	}

	w.ctx.flags &^= reqLayout
	w.ctx.descLayout = false
	w.ctx.layoutCons, w.ctx.layoutSize, w.ctx.hasLayout = c, s, wl.Inline() == nil
	w.ctx.hasMeasure = false
	return s
}

// Render renders the node chain and records transforms and hit-test data.
func (w *Widget) Render(ctx *Context, f *FrameBuilder) {
	if !w.inited {
		return
	}
	w.ctx.flags &^= reqRender | reqRenderUpdate
	f.PushWidget(w.ctx.id, w.ctx.bounds, func() {
		if w.ctx.hitMode == HitTestBounds {
			f.hitTop().b.PushRect(RectFromSize(w.ctx.bounds.innerSize))
		}
		ctx.withWidget(w.ctx, func() { w.child.Render(ctx, f) })
	})
}

// RenderUpdate updates bound frame values of the node chain.
func (w *Widget) RenderUpdate(ctx *Context, u *FrameUpdate) {
	if !w.inited {
		return
	}
	w.ctx.flags &^= reqRenderUpdate
	u.UpdateWidget(w.ctx.bounds, func() {
		ctx.withWidget(w.ctx, func() { w.child.RenderUpdate(ctx, u) })
	})
}
