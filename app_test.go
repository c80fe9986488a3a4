package arbor

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- Helpers ---

// box returns a widget with a fixed size.
func box(id WidgetID, w, h float64) *Widget {
	return NewWidget(id, SizeNode(NodeBase{}, Const(Size{w, h})))
}

// focusBox returns a focusable widget with a fixed size.
func focusBox(id WidgetID, w, h float64) *Widget {
	return NewWidget(id, Focusable(SizeNode(NodeBase{}, Const(Size{w, h}))))
}

// openWindow opens a 200x200 window with root, gives it OS focus and runs
// until it is rendered.
func openWindow(t *testing.T, app *App, root UiNode) *Window {
	t.Helper()
	win := app.OpenWindow(WindowConfig{Title: "test", Size: Size{200, 200}, Root: root})
	app.InjectWindowFocus(win.ID())
	app.UpdateUntilIdle(10)
	if win.LastFrame() == nil {
		t.Fatal("window was not rendered")
	}
	return win
}

// record collects every args of e delivered in app.
func record[A EventArgs](app *App, e *Event[A]) *[]A {
	got := new([]A)
	e.On(app, func(args A) { *got = append(*got, args) })
	return got
}

// --- Update cycle ---

func TestBindingInsideCycleReachesWidgets(t *testing.T) {
	app, _ := newTestApp(t)
	n := NewVar(app, 0)
	m := NewVar(app, 0)
	Bind[int, int](n, m, func(x int) int { return x + 1 })

	var seen []int
	openWindow(t, app, Stack(0, box(0, 10, 10), NewWidget(0, &updateRecorder{v: m, seen: &seen})))

	_ = n.Set(10)
	st := app.Update()

	if st.Loops == 0 {
		t.Error("no update pass ran")
	}
	if diff := cmp.Diff([]int{11}, seen); diff != "" {
		t.Errorf("widget saw (-want +got):\n%s", diff)
	}
}

// updateRecorder records the value of v in every Update where it is new.
type updateRecorder struct {
	NodeBase
	v    Var[int]
	seen *[]int
}

func (p *updateRecorder) Init(ctx *Context) { ctx.SubVar(p.v) }

func (p *updateRecorder) Update(ctx *Context, u *WidgetUpdates) {
	if p.v.IsNew() {
		*p.seen = append(*p.seen, p.v.Get())
	}
}

func TestInitDeinitOrder(t *testing.T) {
	app, _ := newTestApp(t)
	var log []string
	node := func(name string, child UiNode) UiNode {
		return OnDeinit(OnInit(child, func(*Context) { log = append(log, "init "+name) }),
			func(*Context) { log = append(log, "deinit "+name) })
	}
	root := NewWidget(0, node("parent", Stack(0,
		NewWidget(0, node("a", NodeBase{})),
		NewWidget(0, node("b", NodeBase{})),
	)))
	win := openWindow(t, app, root)

	win.Close()
	app.UpdateUntilIdle(10)

	want := []string{"init a", "init b", "init parent", "deinit parent", "deinit b", "deinit a"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("lifecycle (-want +got):\n%s", diff)
	}
	if !win.IsClosed() {
		t.Error("window not closed")
	}
	if _, err := app.Window(win.ID()); err == nil {
		t.Error("closed window still listed")
	}
}

func TestCloseRequestCanBeCanceled(t *testing.T) {
	app, _ := newTestApp(t)
	win := openWindow(t, app, box(0, 10, 10))
	h := WindowCloseRequestedEvent.OnPreview(app, func(args *WindowCloseRequestedArgs) { args.Cancel() })

	win.Close()
	app.UpdateUntilIdle(10)
	if win.IsClosed() {
		t.Fatal("canceled close closed the window")
	}

	h.Unsubscribe()
	win.Close()
	app.UpdateUntilIdle(10)
	if !win.IsClosed() {
		t.Error("window still open")
	}
}

func TestUpdateUntilIdleSettles(t *testing.T) {
	app, _ := newTestApp(t)
	openWindow(t, app, box(0, 10, 10))
	if app.HasPendingUpdates() {
		t.Error("pending updates after the window settled")
	}
	if n := app.UpdateUntilIdle(10); n != 0 {
		t.Errorf("UpdateUntilIdle ran %d cycles, want 0", n)
	}
}

func TestResizeRelayouts(t *testing.T) {
	app, _ := newTestApp(t)
	root := NewWidget(0, NodeBase{})
	win := openWindow(t, app, root)

	app.InjectResize(win.ID(), Size{300, 120})
	app.UpdateUntilIdle(10)

	if got := root.Bounds().OuterSize(); got != (Size{300, 120}) {
		t.Errorf("root size = %v, want 300x120", got)
	}
	if got := win.LastFrame().Size; got != (Size{300, 120}) {
		t.Errorf("frame size = %v, want 300x120", got)
	}
}

// --- Resources ---

func lastIndex(s []string, v string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}

type imageNode struct {
	NodeBase
	key  ResourceKey
	show Var[bool]
}

func (n *imageNode) Init(ctx *Context) { ctx.SubVarRender(n.show) }

func (n *imageNode) Render(ctx *Context, f *FrameBuilder) {
	if n.show.Get() {
		f.PushImage(Rect{Width: 10, Height: 10}, n.key, RenderingAuto)
	}
}

func TestResourcesFollowFrames(t *testing.T) {
	view := NewHeadlessView()
	app, _ := newTestApp(t, WithView(view))
	key := NewResourceKey(ResourceImage)
	app.AddResource(Resource{Key: key, Data: "pixels"})
	show := NewVar(app, true)

	win := openWindow(t, app, NewWidget(0, &imageNode{key: key, show: show}))
	if !view.HasResource(key) {
		t.Fatal("resource not added before the first frame")
	}

	_ = show.Set(false)
	app.UpdateUntilIdle(10)
	if view.HasResource(key) {
		t.Error("resource kept after no frame references it")
	}

	render := "render " + win.ID().String()
	log := view.Log()
	add, del := slices.Index(log, "add "+key.String()), slices.Index(log, "delete "+key.String())
	first, last := slices.Index(log, render), lastIndex(log, render)
	if add < 0 || add > first {
		t.Errorf("log %v: resource not added before the first frame", log)
	}
	if del < last || first == last {
		t.Errorf("log %v: resource not deleted after the last frame", log)
	}
}

func TestShutdownClosesWindows(t *testing.T) {
	view := NewHeadlessView()
	app, _ := newTestApp(t, WithView(view))
	win := openWindow(t, app, box(0, 10, 10))

	app.Shutdown()
	if !win.IsClosed() {
		t.Error("window open after Shutdown")
	}
	if app.Context().Err() == nil {
		t.Error("context not canceled")
	}
	if !slices.Contains(view.Log(), "close "+win.ID().String()) {
		t.Errorf("view log %v has no close", view.Log())
	}
}
