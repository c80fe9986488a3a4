package arbor

import "testing"

// --- Shapes ---

func TestHitShapesContain(t *testing.T) {
	rounded := HitRoundedRect{Rect: Rect{0, 0, 100, 100}, Radius: UniformRadius(10)}
	tests := []struct {
		name  string
		shape HitShape
		p     Point
		want  bool
	}{
		{"rect inside", HitRect{0, 0, 10, 10}, Point{5, 5}, true},
		{"rect edge", HitRect{0, 0, 10, 10}, Point{10, 10}, true},
		{"rect outside", HitRect{0, 0, 10, 10}, Point{11, 5}, false},
		{"circle inside", HitCircle{10, 10, 5}, Point{13, 13}, true},
		{"circle outside", HitCircle{10, 10, 5}, Point{14, 14}, false},
		{"ellipse wide", HitEllipse{Center: Point{0, 0}, Radii: Size{20, 5}}, Point{18, 0}, true},
		{"ellipse tall miss", HitEllipse{Center: Point{0, 0}, Radii: Size{20, 5}}, Point{0, 6}, false},
		{"ellipse zero radius", HitEllipse{Center: Point{0, 0}, Radii: Size{0, 5}}, Point{0, 0}, false},
		{"rounded corner cut", rounded, Point{1, 1}, false},
		{"rounded inside", rounded, Point{20, 20}, true},
		{"rounded corner arc", rounded, Point{3, 3}, true},
		{"rounded bottom right cut", rounded, Point{99, 99}, false},
		{"rounded edge middle", rounded, Point{0, 50}, true},
		{"triangle inside", HitPolygon{Points: []Point{{0, 0}, {10, 0}, {0, 10}}}, Point{2, 2}, true},
		{"triangle outside", HitPolygon{Points: []Point{{0, 0}, {10, 0}, {0, 10}}}, Point{8, 8}, false},
		{"degenerate polygon", HitPolygon{Points: []Point{{0, 0}, {10, 0}}}, Point{5, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestHitPolygonBounds(t *testing.T) {
	poly := HitPolygon{Points: []Point{{-5, 2}, {10, -3}, {4, 8}}}
	if got, want := poly.Bounds(), (Rect{-5, -3, 15, 11}); got != want {
		t.Errorf("Bounds = %v, want %v", got, want)
	}
}

// --- Primitive stream ---

func newHitBuilder() *HitTestBuilder {
	b := &HitTestBuilder{}
	b.reset()
	return b
}

func TestHitTestItemsZOrder(t *testing.T) {
	child := NewWidgetID()
	b := newHitBuilder()
	b.PushRect(Rect{0, 0, 100, 100})
	b.PushChild(child)
	b.PushRect(Rect{0, 0, 20, 20})
	items := b.Build()

	if got := items.HitTest(Point{10, 10}); got.Kind != HitFront {
		t.Errorf("hit after the last child = %v, want HitFront", got.Kind)
	}
	if got := items.HitTest(Point{50, 50}); got.Kind != HitBack {
		t.Errorf("hit before the child = %v, want HitBack", got.Kind)
	}
	if got := items.HitTest(Point{200, 200}); got.Kind != NoHit {
		t.Errorf("miss = %v, want NoHit", got.Kind)
	}

	b = newHitBuilder()
	b.PushRect(Rect{0, 0, 100, 100})
	b.PushChild(child)
	b.PushRect(Rect{0, 0, 20, 20})
	b.PushChild(NewWidgetID())
	over := b.Build().HitTest(Point{10, 10})
	if over.Kind != HitOver || over.Child != child {
		t.Errorf("hit between children = %+v, want HitOver %v", over, child)
	}
	back := b.Build().HitTest(Point{50, 50})
	if back.Kind != HitBack {
		t.Errorf("hit before children = %v, want HitBack", back.Kind)
	}
}

func TestHitTestItemsBorderClipsOutInner(t *testing.T) {
	b := newHitBuilder()
	b.PushBorder(Rect{0, 0, 100, 100}, UniformSides(5), CornerRadius{})
	items := b.Build()

	if items.HitTest(Point{2, 50}).Kind == NoHit {
		t.Error("border edge not hit")
	}
	if items.HitTest(Point{50, 50}).Kind != NoHit {
		t.Error("border interior hit")
	}
}

func TestHitTestItemsTransform(t *testing.T) {
	b := newHitBuilder()
	b.PushTransform(Translation(50, 0), func() {
		b.PushRect(Rect{0, 0, 10, 10})
	})
	b.PushTransform(Scaling(0, 0), func() {
		b.PushRect(Rect{-1000, -1000, 2000, 2000})
	})
	items := b.Build()

	if items.HitTest(Point{55, 5}).Kind == NoHit {
		t.Error("translated rect not hit")
	}
	if items.HitTest(Point{5, 5}).Kind != NoHit {
		t.Error("non-invertible block was hit")
	}
	if r := items.Bounds(); !r.Contains(Point{60, 10}) {
		t.Errorf("bounds %v does not cover the translated rect", r)
	}
}

// --- Window hit-test ---

func TestWindowHitTestRoundedCorner(t *testing.T) {
	app, _ := newTestApp(t)
	id := NewWidgetID()
	shape := HitTestShape(SizeNode(NodeBase{}, Const(Size{100, 100})), func(s Size) HitShape {
		return HitRoundedRect{Rect: RectFromSize(s), Radius: UniformRadius(10)}
	})
	win := openWindow(t, app, Stack(0, NewWidget(id, shape)))

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{1, 1}, false},
		{Point{20, 20}, true},
		{Point{99, 1}, false},
		{Point{50, 99}, true},
	}
	for _, tt := range tests {
		if got := win.Tree().HitTest(tt.p).Contains(id); got != tt.want {
			t.Errorf("hit at %v = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestWindowHitTestTopmostFirst(t *testing.T) {
	app, _ := newTestApp(t)
	outer, inner := NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, NewWidget(outer, Stack(0, box(inner, 50, 50))))

	hits := win.Tree().HitTest(Point{10, 10})
	top, ok := hits.Target()
	if !ok || top.WidgetID != inner {
		t.Fatalf("topmost hit = %v, want %v", top.WidgetID, inner)
	}
	if !hits.Contains(outer) {
		t.Error("ancestor not in hits")
	}
	if top.Local != (Point{10, 10}) {
		t.Errorf("local point = %v", top.Local)
	}

	if win.Tree().HitTest(Point{10, 80}).Contains(inner) {
		t.Error("hit below the inner box")
	}
}
