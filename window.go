package arbor

import (
	"fmt"
	"slices"
)

// WindowConfig describes a window to open.
type WindowConfig struct {
	Title       string
	Size        Size
	ScaleFactor float64
	// Root is the content. A node that is not a *Widget is wrapped in one.
	Root UiNode
}

// Window is an open window and its widget tree.
type Window struct {
	app   *App
	id    WindowID
	title string
	root  *Widget
	tree  *WidgetInfoTree

	size    *RwVar[Size]
	scale   *RwVar[float64]
	focused *RwVar[bool]

	flags   requestFlags
	inited  bool
	closing bool
	closed  bool

	frameID    FrameID
	lastFrame  *Frame
	lastUpdate *FrameUpdate
}

// OpenWindow creates a window. Its root is initialized in the next UPDATE
// phase and rendered in the same cycle.
func (a *App) OpenWindow(cfg WindowConfig) *Window {
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = 1
	}
	root, ok := cfg.Root.(*Widget)
	if !ok {
		if cfg.Root == nil {
			cfg.Root = NodeBase{}
		}
		root = NewWidget(0, cfg.Root)
	}
	w := &Window{
		app:     a,
		id:      NewWindowID(),
		title:   cfg.Title,
		root:    root,
		size:    NewVar(a, cfg.Size),
		scale:   NewVar(a, cfg.ScaleFactor),
		focused: NewVar(a, false),
	}
	w.tree = emptyInfoTree(w.id)
	a.windows = append(a.windows, w)
	a.log.Debug("window opened", "window", w.id, "title", cfg.Title)

	if a.view != nil {
		if err := a.view.OpenWindow(w.id, cfg); err != nil {
			a.log.Warn("view open window failed", "window", w.id, "err", err)
		}
	}
	a.wakeUp()
	return w
}

// Window returns the open window with id.
func (a *App) Window(id WindowID) (*Window, error) {
	for _, w := range a.windows {
		if w.id == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("window %s: %w", id, ErrWindowNotFound)
}

// Windows returns the open windows in opening order.
func (a *App) Windows() []*Window { return slices.Clone(a.windows) }

func (a *App) windowByID(id WindowID) *Window {
	for _, w := range a.windows {
		if w.id == id {
			return w
		}
	}
	return nil
}

// widgetInfo finds id in the info trees of every window.
func (a *App) widgetInfo(id WidgetID) (WidgetInfo, bool) {
	for _, w := range a.windows {
		if info, ok := w.tree.Get(id); ok {
			return info, true
		}
	}
	return WidgetInfo{}, false
}

// ID returns the window ID.
func (w *Window) ID() WindowID { return w.id }

// Title returns the title the window was opened with.
func (w *Window) Title() string { return w.title }

// Root returns the root widget.
func (w *Window) Root() *Widget { return w.root }

// Tree returns the latest info tree.
func (w *Window) Tree() *WidgetInfoTree { return w.tree }

// Size is the window content size, updated by the view process.
func (w *Window) Size() Var[Size] { return w.size }

// ScaleFactor is the DPI scale of the window.
func (w *Window) ScaleFactor() Var[float64] { return w.scale }

// IsFocused reports whether the window has OS focus.
func (w *Window) IsFocused() Var[bool] { return ReadOnly[bool](w.focused) }

// LastFrame returns the last full frame built, nil before the first render.
func (w *Window) LastFrame() *Frame { return w.lastFrame }

// LastFrameUpdate returns the last frame update built.
func (w *Window) LastFrameUpdate() *FrameUpdate { return w.lastUpdate }

// IsClosed reports whether the window was closed.
func (w *Window) IsClosed() bool { return w.closed }

// Close asks to close the window. Handlers of WindowCloseRequestedEvent can
// cancel it.
func (w *Window) Close() {
	WindowCloseRequestedEvent.Notify(w.app, &WindowCloseRequestedArgs{
		ArgsBase:   NewArgsBase(w.app.clock.Now()),
		Cancelable: NewCancelable(),
		Window:     w.id,
	})
}

// HitTest tests a window point against the last rendered frame.
func (w *Window) HitTest(p Point) HitTestInfo { return w.tree.HitTest(p) }

func (w *Window) request(f requestFlags) {
	w.flags |= f
	w.app.wakeUp()
}

func (w *Window) context() *Context {
	return &Context{app: w.app, window: w}
}

func (w *Window) init() {
	w.inited = true
	w.root.Init(w.context())
	w.request(reqInfo | reqLayout | reqRender)
	w.subLayout(w.size)
	w.subLayout(w.scale)
}

// subLayout requests layout and render whenever v changes.
func (w *Window) subLayout(v AnyVar) {
	v.HookAny(func() bool {
		if w.closed {
			return false
		}
		w.request(reqLayout | reqRender)
		return true
	})
}

func (w *Window) rebuildInfo() {
	w.flags &^= reqInfo
	prev := w.tree
	b := newInfoBuilder(w.id, max(prev.Len(), 8))
	w.root.Info(w.context(), b)
	w.tree = b.finalize()
	if w.app.debug {
		w.app.debugCheckTree(w.tree)
	}
	WidgetInfoChangedEvent.Notify(w.app, &WidgetInfoChangedArgs{
		ArgsBase: NewArgsBase(w.app.clock.Now()),
		Window:   w.id,
		Prev:     prev,
		Tree:     w.tree,
	})
}

func (w *Window) layout() {
	w.flags &^= reqLayout
	size := w.size.Get()
	wl := newWidgetLayout(LayoutMetrics{
		Constraints: Tight(size),
		ScaleFactor: w.scale.Get(),
		Viewport:    size,
	})
	w.root.Layout(w.context(), wl)
	w.flags |= reqRender
}

func (w *Window) render() {
	w.flags &^= reqRender | reqRenderUpdate
	w.frameID++
	fb := newFrameBuilder(w.id, w.frameID)
	w.root.Render(w.context(), fb)
	w.tree.markUnrendered(w.frameID)
	frame := fb.finalize(w.size.Get(), w.scale.Get())
	w.lastFrame = frame
	w.tree.rebuildSpatial(false)
	w.app.sendFrame(frame)
}

func (w *Window) renderUpdate() {
	w.flags &^= reqRenderUpdate
	if w.lastFrame == nil {
		return
	}
	u := newFrameUpdate(w.id, w.frameID)
	w.root.RenderUpdate(w.context(), u)
	w.tree.rebuildSpatial(false)
	if u.IsEmpty() {
		return
	}
	w.lastUpdate = u
	if v := w.app.view; v != nil {
		if err := v.RenderUpdate(u); err != nil {
			w.app.log.Warn("view render update failed", "window", w.id, "err", err)
		}
	}
}

// sendFrame adds the resources the frame references before sending it and
// deletes the ones no frame references after.
func (a *App) sendFrame(f *Frame) {
	add, missing := a.resources.beforeFrame(f.Resources)
	for _, k := range missing {
		a.log.Warn("frame references unknown resource", "window", f.Window, "resource", k)
	}
	if a.view == nil {
		a.resources.afterFrame(f.Window, f.Resources)
		return
	}
	for _, r := range add {
		if err := a.view.AddResource(r); err != nil {
			a.log.Warn("view add resource failed", "resource", r.Key, "err", err)
		}
	}
	if err := a.view.Render(f); err != nil {
		a.log.Warn("view render failed", "window", f.Window, "frame", f.ID, "err", err)
	}
	for _, k := range a.resources.afterFrame(f.Window, f.Resources) {
		if err := a.view.DeleteResource(k); err != nil {
			a.log.Warn("view delete resource failed", "resource", k, "err", err)
		}
	}
}

// AddResource registers a resource. The view receives it before the first
// frame that references it.
func (a *App) AddResource(r Resource) { a.resources.register(r) }

// RemoveResource unregisters a resource. The view keeps it until no frame
// references it.
func (a *App) RemoveResource(k ResourceKey) { a.resources.unregister(k) }

func (a *App) closeWindow(w *Window) {
	if w.closed {
		return
	}
	if w.inited {
		w.root.Deinit(w.context())
	}
	w.inited, w.closing, w.closed = false, false, true
	w.flags = 0
	a.windows = slices.DeleteFunc(a.windows, func(x *Window) bool { return x == w })
	if a.focusedWindow == w.id {
		a.focusedWindow = 0
	}
	if a.view != nil {
		for _, k := range a.resources.afterFrame(w.id, nil) {
			if err := a.view.DeleteResource(k); err != nil {
				a.log.Warn("view delete resource failed", "resource", k, "err", err)
			}
		}
		if err := a.view.CloseWindow(w.id); err != nil {
			a.log.Warn("view close window failed", "window", w.id, "err", err)
		}
	} else {
		a.resources.afterFrame(w.id, nil)
	}
	a.log.Debug("window closed", "window", w.id)
	WindowClosedEvent.Notify(a, &WindowClosedArgs{ArgsBase: NewArgsBase(a.clock.Now()), Window: w.id})
}

// --- Window events ---

// WindowCloseRequestedArgs is raised by Window.Close and by the view process
// when the user asks to close a window.
type WindowCloseRequestedArgs struct {
	ArgsBase
	Cancelable
	Window WindowID
}

// DeliveryList targets the window root.
func (a *WindowCloseRequestedArgs) DeliveryList(l *DeliveryList) { l.InsertWindowRoot(a.Window) }

// WindowClosedArgs is raised after a window closed.
type WindowClosedArgs struct {
	ArgsBase
	Window WindowID
}

// DeliveryList targets no widget; the window is gone.
func (a *WindowClosedArgs) DeliveryList(*DeliveryList) {}

// WidgetInfoChangedArgs is raised after the info tree of a window is rebuilt.
type WidgetInfoChangedArgs struct {
	ArgsBase
	Window WindowID
	Prev   *WidgetInfoTree
	Tree   *WidgetInfoTree
}

// DeliveryList targets subscribed widgets.
func (a *WidgetInfoChangedArgs) DeliveryList(l *DeliveryList) { l.SearchAll() }

var (
	WindowCloseRequestedEvent = NewEvent[*WindowCloseRequestedArgs]("window-close-requested")
	WindowClosedEvent         = NewEvent[*WindowClosedArgs]("window-closed")
	WidgetInfoChangedEvent    = NewEvent[*WidgetInfoChangedArgs]("widget-info-changed")
)

func (a *App) registerWindowHandlers() {
	WindowCloseRequestedEvent.On(a, func(args *WindowCloseRequestedArgs) {
		if args.CancelRequested() {
			a.log.Debug("window close canceled", "window", args.Window)
			return
		}
		if w := a.windowByID(args.Window); w != nil {
			w.closing = true
			a.wakeUp()
		}
	})
}
