package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func outerOf(t *testing.T, win *Window, id WidgetID) Rect {
	t.Helper()
	info, ok := win.Tree().Get(id)
	if !ok {
		t.Fatalf("%v not in tree", id)
	}
	return info.Bounds().OuterBounds()
}

// --- Stack ---

func TestStackOffsets(t *testing.T) {
	tests := []struct {
		name  string
		stack func(...UiNode) *StackNode
		want  []Rect
	}{
		{"vertical", func(c ...UiNode) *StackNode { return Stack(5, c...) },
			[]Rect{{0, 0, 100, 20}, {0, 25, 60, 30}, {0, 60, 80, 10}}},
		{"horizontal", func(c ...UiNode) *StackNode { return HStack(5, c...) },
			[]Rect{{0, 0, 100, 20}, {105, 0, 60, 30}, {170, 0, 80, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			ids := []WidgetID{NewWidgetID(), NewWidgetID(), NewWidgetID()}
			win := openWindow(t, app, tt.stack(box(ids[0], 100, 20), box(ids[1], 60, 30), box(ids[2], 80, 10)))

			var got []Rect
			for _, id := range ids {
				got = append(got, outerOf(t, win, id))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("bounds (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStackIsClampedByWindow(t *testing.T) {
	app, _ := newTestApp(t)
	id := NewWidgetID()
	win := openWindow(t, app, Stack(0, box(id, 500, 20)))
	if got := outerOf(t, win, id); got.Width != 200 {
		t.Errorf("width = %v, want clamped to 200", got.Width)
	}
}

// --- Margin ---

func TestMarginInnerBounds(t *testing.T) {
	app, _ := newTestApp(t)
	id := NewWidgetID()
	margin := Const(SideOffsets{Top: 5, Left: 10, Bottom: 2, Right: 3})
	win := openWindow(t, app, Stack(0,
		NewWidget(id, Margin(SizeNode(NodeBase{}, Const(Size{50, 20})), margin)),
		box(0, 10, 10),
	))

	info, _ := win.Tree().Get(id)
	if got, want := info.Bounds().OuterBounds(), (Rect{0, 0, 63, 27}); got != want {
		t.Errorf("outer = %v, want %v", got, want)
	}
	if got, want := info.InnerBounds(), (Rect{10, 5, 50, 20}); got != want {
		t.Errorf("inner = %v, want %v", got, want)
	}
}

func TestMarginChangeRelayouts(t *testing.T) {
	app, _ := newTestApp(t)
	id, below := NewWidgetID(), NewWidgetID()
	margin := NewVar(app, UniformSides(0))
	win := openWindow(t, app, Stack(0,
		NewWidget(id, Margin(SizeNode(NodeBase{}, Const(Size{50, 20})), margin)),
		box(below, 10, 10),
	))

	_ = margin.Set(UniformSides(4))
	app.UpdateUntilIdle(10)

	if got := outerOf(t, win, below); got.Y != 28 {
		t.Errorf("sibling at y=%v, want 28", got.Y)
	}
}

// --- Wrap ---

func TestWrapBreaksRows(t *testing.T) {
	app, _ := newTestApp(t)
	ids := []WidgetID{NewWidgetID(), NewWidgetID(), NewWidgetID()}
	win := openWindow(t, app, Stack(0, Wrap(Size{5, 2}, box(ids[0], 80, 10), box(ids[1], 80, 10), box(ids[2], 80, 10))))

	want := []Point{{0, 0}, {85, 0}, {0, 12}}
	for i, id := range ids {
		r := outerOf(t, win, id)
		if got := (Point{r.X, r.Y}); got != want[i] {
			t.Errorf("child %d at %v, want %v", i, got, want[i])
		}
	}
}

// --- Lists ---

func TestNodeListInsertRemove(t *testing.T) {
	app, _ := newTestApp(t)
	a, b, c := NewWidgetID(), NewWidgetID(), NewWidgetID()
	list := Stack(0, box(a, 100, 20), box(c, 100, 20))
	win := openWindow(t, app, list)

	bw := box(b, 100, 20)
	list.Children.Insert(1, bw)
	if list.Children.Len() != 2 {
		t.Fatal("insert applied before the owner updated")
	}
	app.UpdateUntilIdle(10)

	if !bw.IsInited() {
		t.Fatal("inserted widget not inited")
	}
	if got := outerOf(t, win, c); got.Y != 40 {
		t.Errorf("c at y=%v after insert, want 40", got.Y)
	}

	list.Children.Remove(0)
	app.UpdateUntilIdle(10)
	if win.Tree().Contains(a) {
		t.Error("removed widget still in tree")
	}
	if got := outerOf(t, win, b); got.Y != 0 {
		t.Errorf("b at y=%v after remove, want 0", got.Y)
	}
}

func TestRemovedWidgetIsDeinited(t *testing.T) {
	app, _ := newTestApp(t)
	var log []string
	child := NewWidget(0, OnDeinit(SizeNode(NodeBase{}, Const(Size{10, 10})), func(*Context) {
		log = append(log, "deinit")
	}))
	list := Stack(0, child)
	openWindow(t, app, list)

	list.Children.Remove(0)
	app.UpdateUntilIdle(10)

	if child.IsInited() || len(log) != 1 {
		t.Errorf("inited %v, deinit calls %v", child.IsInited(), log)
	}
}

// --- Info ---

func TestInfoTreeNavigation(t *testing.T) {
	app, _ := newTestApp(t)
	root, mid, leaf, side := NewWidgetID(), NewWidgetID(), NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, NewWidget(root, Stack(0,
		NewWidget(mid, Stack(0, box(leaf, 10, 10))),
		box(side, 10, 10),
	)))
	tree := win.Tree()

	r, ok := tree.Root()
	if !ok || r.ID() != root {
		t.Fatalf("root = %v", r.ID())
	}
	var children []WidgetID
	for c := range r.Children() {
		children = append(children, c.ID())
	}
	if diff := cmp.Diff([]WidgetID{mid, side}, children); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}

	l, _ := tree.Get(leaf)
	var ancestors []WidgetID
	for a := range l.Ancestors() {
		ancestors = append(ancestors, a.ID())
	}
	if diff := cmp.Diff([]WidgetID{mid, root}, ancestors); diff != "" {
		t.Errorf("ancestors (-want +got):\n%s", diff)
	}
	if l.Depth() != 2 || !l.IsDescendantOf(r) {
		t.Errorf("leaf depth %d", l.Depth())
	}
	if diff := cmp.Diff([]WidgetID{root, mid, leaf}, l.Path().IDs()); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
}

func TestInteractivityInherited(t *testing.T) {
	app, _ := newTestApp(t)
	parent, child := NewWidgetID(), NewWidgetID()
	level := NewVar(app, Disabled)
	win := openWindow(t, app, NewWidget(parent, Interactive(Stack(0, box(child, 10, 10)), level)))

	c, _ := win.Tree().Get(child)
	if c.Interactivity() != Disabled || c.LocalInteractivity() != Enabled {
		t.Errorf("child interactivity %v local %v", c.Interactivity(), c.LocalInteractivity())
	}
	if got := c.InteractionPath().Levels(); !cmp.Equal(got, []Interactivity{Disabled, Disabled}) {
		t.Errorf("levels = %v", got)
	}

	_ = level.Set(Enabled)
	app.UpdateUntilIdle(10)
	c, _ = win.Tree().Get(child)
	if c.Interactivity() != Enabled {
		t.Errorf("child interactivity %v after enabling", c.Interactivity())
	}
}
