package arbor

import (
	"testing"
)

var colorRed = Color{1, 0, 0, 1}

func itemsOf(f *Frame, kind ItemKind) []DisplayItem {
	var out []DisplayItem
	for _, it := range f.Display.Items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

// --- Display list ---

func TestDisplayListWalkResolvesSpace(t *testing.T) {
	key := NewFrameValueKey()
	colorKey := NewFrameValueKey()
	d := DisplayList{Items: []DisplayItem{
		{Kind: ItemPushTransform, Transform: Translation(10, 0), TransformKey: key},
		{Kind: ItemPushClip, Rect: Rect{0, 0, 5, 5}},
		{Kind: ItemRect, Rect: Rect{0, 0, 20, 20}, Color: ColorWhite, ColorKey: colorKey},
		{Kind: ItemPopClip},
		{Kind: ItemPopTransform},
		{Kind: ItemRect, Rect: Rect{0, 0, 1, 1}},
	}}

	var got []DrawItem
	d.Walk(nil, func(it DrawItem) { got = append(got, it) })
	if len(got) != 2 {
		t.Fatalf("walked %d items, want 2", len(got))
	}
	if b := got[0].Bounds(); b != (Rect{10, 0, 5, 5}) {
		t.Errorf("clipped bounds = %v", b)
	}
	if got[1].HasClip || got[1].Transform != Identity {
		t.Error("clip or transform leaked past its pop")
	}

	var vals FrameValues
	u := newFrameUpdate(1, 1)
	u.UpdateTransform(key, Translation(30, 0), func() {})
	u.UpdateColor(colorKey, colorRed)
	vals.Apply(u)
	got = got[:0]
	d.Walk(&vals, func(it DrawItem) { got = append(got, it) })
	if b := got[0].Bounds(); b != (Rect{30, 0, 5, 5}) {
		t.Errorf("updated bounds = %v", b)
	}
	if got[0].Color != colorRed {
		t.Errorf("updated color = %v", got[0].Color)
	}

	vals.Reset()
	if vals.Colors != nil {
		t.Error("Reset kept values")
	}
	if n := d.Count(ItemRect); n != 2 {
		t.Errorf("Count(Rect) = %d", n)
	}
}

// --- Frame updates ---

func TestFillColorSendsFrameUpdate(t *testing.T) {
	app, _ := newTestApp(t)
	color := NewVar(app, colorRed)
	win := openWindow(t, app, Stack(0, NewWidget(0, FillColor(SizeNode(NodeBase{}, Const(Size{40, 40})), color))))
	frame := win.LastFrame()

	rects := itemsOf(frame, ItemRect)
	if len(rects) != 1 || rects[0].ColorKey == 0 || rects[0].Color != colorRed {
		t.Fatalf("fill items = %+v", rects)
	}

	_ = color.Set(ColorBlack)
	app.UpdateUntilIdle(10)

	if win.LastFrame() != frame {
		t.Error("color change rebuilt the frame")
	}
	u := win.LastFrameUpdate()
	if u == nil || len(u.Colors) != 1 {
		t.Fatalf("frame update = %+v", u)
	}
	if c := u.Colors[0]; c.Key != rects[0].ColorKey || c.Value != ColorBlack {
		t.Errorf("color update = %+v", c)
	}
}

func TestRenderTransformMovesHitTest(t *testing.T) {
	app, _ := newTestApp(t)
	id := NewWidgetID()
	tr := NewVar(app, Identity)
	win := openWindow(t, app, Stack(0, RenderTransform(box(id, 50, 50), tr)))

	if !win.HitTest(Point{10, 10}).Contains(id) {
		t.Fatal("widget not hit before the transform")
	}

	_ = tr.Set(Translation(100, 0))
	app.UpdateUntilIdle(10)

	if u := win.LastFrameUpdate(); u == nil || len(u.Transforms) != 1 {
		t.Fatalf("frame update = %+v", u)
	}
	if win.HitTest(Point{10, 10}).Contains(id) {
		t.Error("hit at the old position")
	}
	if !win.HitTest(Point{110, 10}).Contains(id) {
		t.Error("no hit at the new position")
	}
	info, _ := win.Tree().Get(id)
	if got := info.Bounds().OuterBounds(); got != (Rect{100, 0, 50, 50}) {
		t.Errorf("outer bounds = %v", got)
	}
}

// --- Clips and borders ---

func TestClipToBoundsClipsDescendants(t *testing.T) {
	app, _ := newTestApp(t)
	inner := NewWidgetID()
	clipped := ClipToBounds(SizeNode(Stack(0, box(inner, 100, 100)), Const(Size{50, 50})), CornerRadius{})
	win := openWindow(t, app, Stack(0, NewWidget(0, clipped)))

	if !win.HitTest(Point{10, 10}).Contains(inner) {
		t.Error("no hit inside the clip")
	}
	if win.HitTest(Point{10, 80}).Contains(inner) {
		t.Error("hit outside the clip")
	}
	info, _ := win.Tree().Get(inner)
	if clip, ok := info.Bounds().Clip(); !ok || clip != (Rect{0, 0, 50, 50}) {
		t.Errorf("clip = %v, %v", clip, ok)
	}

	var hasClip bool
	for _, it := range win.LastFrame().Display.Items {
		if it.Kind == ItemPushClip && it.Rect == (Rect{0, 0, 50, 50}) {
			hasClip = true
		}
	}
	if !hasClip {
		t.Error("frame has no clip item")
	}
}

func TestBorderWrapsChild(t *testing.T) {
	app, _ := newTestApp(t)
	id, child := NewWidgetID(), NewWidgetID()
	style := Const(BorderStyle{Widths: UniformSides(2), Color: ColorWhite})
	win := openWindow(t, app, Stack(0, NewWidget(id, Border(box(child, 40, 20), style))))

	borders := itemsOf(win.LastFrame(), ItemBorder)
	if len(borders) != 1 || borders[0].Rect != (Rect{0, 0, 44, 24}) {
		t.Fatalf("border items = %+v", borders)
	}
	if got := outerOf(t, win, child); got != (Rect{2, 2, 40, 20}) {
		t.Errorf("child bounds = %v", got)
	}
}

func TestHitTestMarksFollowWidgets(t *testing.T) {
	app, _ := newTestApp(t)
	a, b := NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, Stack(0, box(a, 10, 10), box(b, 10, 10)))

	var marked []WidgetID
	for _, it := range itemsOf(win.LastFrame(), ItemHitTestMark) {
		marked = append(marked, it.Widget)
	}
	if len(marked) != 3 || marked[1] != a || marked[2] != b {
		t.Errorf("marks = %v, want root, a, b", marked)
	}
}
