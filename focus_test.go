package arbor

import (
	"slices"
	"testing"
)

func focusedID(app *App) WidgetID { return app.Focus().Focused().Get().WidgetID() }

// press injects key and runs until idle.
func press(app *App, win *Window, key NamedKey, mods ...Key) {
	app.InjectShortcut(win.ID(), KeyNamed(key), mods...)
	app.UpdateUntilIdle(10)
}

func TestTabOrderCycles(t *testing.T) {
	app, _ := newTestApp(t)
	ids := []WidgetID{NewWidgetID(), NewWidgetID(), NewWidgetID()}
	win := openWindow(t, app, Stack(0,
		focusBox(ids[0], 100, 20), focusBox(ids[1], 100, 20), focusBox(ids[2], 100, 20)))

	var got []WidgetID
	for i := 0; i < 4; i++ {
		press(app, win, NamedTab)
		got = append(got, focusedID(app))
	}
	want := []WidgetID{ids[0], ids[1], ids[2], ids[0]}
	if !slices.Equal(got, want) {
		t.Errorf("tab order = %v, want %v", got, want)
	}
	if !app.Focus().IsHighlighting().Get() {
		t.Error("keyboard focus not highlighted")
	}

	press(app, win, NamedTab, KeyNamed(NamedShift))
	if id := focusedID(app); id != ids[2] {
		t.Errorf("Shift+Tab from first = %v, want last %v", id, ids[2])
	}
}

func TestTabIndexOrder(t *testing.T) {
	app, _ := newTestApp(t)
	item := func(id WidgetID, idx TabIndex) *Widget {
		return NewWidget(id, FocusableWith(SizeNode(NodeBase{}, Const(Size{100, 20})),
			Const(FocusInfo{Focusable: true, TabIndex: idx})))
	}
	a, b, c, d := NewWidgetID(), NewWidgetID(), NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, Stack(0,
		item(a, 3), item(b, 1), item(c, TabIndexSkip), item(d, TabIndexAuto)))

	var got []WidgetID
	for i := 0; i < 4; i++ {
		press(app, win, NamedTab)
		got = append(got, focusedID(app))
	}
	want := []WidgetID{b, a, d, b}
	if !slices.Equal(got, want) {
		t.Errorf("tab order = %v, want %v", got, want)
	}

	app.Focus().FocusWidget(c, false)
	app.UpdateUntilIdle(10)
	if focusedID(app) != c {
		t.Fatal("skipped widget cannot be focused directly")
	}
	press(app, win, NamedTab)
	if id := focusedID(app); id != d {
		t.Errorf("Tab from skipped widget = %v, want next in tree order %v", id, d)
	}
}

func TestDirectionalNavigation(t *testing.T) {
	app, _ := newTestApp(t)
	tl, tr, bl, br := NewWidgetID(), NewWidgetID(), NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, Stack(0,
		HStack(0, focusBox(tl, 50, 50), focusBox(tr, 50, 50)),
		HStack(0, focusBox(bl, 50, 50), focusBox(br, 50, 50)),
	))
	app.Focus().FocusWidget(tl, false)
	app.UpdateUntilIdle(10)

	steps := []struct {
		key  NamedKey
		want WidgetID
	}{
		{NamedArrowRight, tr},
		{NamedArrowDown, br},
		{NamedArrowLeft, bl},
		{NamedArrowUp, tl},
		{NamedArrowLeft, tr}, // the window root cycles
	}
	for _, s := range steps {
		press(app, win, s.key)
		if id := focusedID(app); id != s.want {
			t.Fatalf("%v: focused %v, want %v", s.key, id, s.want)
		}
	}
}

func TestPointerPressFocuses(t *testing.T) {
	app, _ := newTestApp(t)
	parent, inner, other := NewWidgetID(), NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, Stack(0,
		NewWidget(parent, Focusable(Stack(0, box(inner, 100, 50)))),
		focusBox(other, 100, 50),
	))

	app.InjectClick(win.ID(), Point{10, 60})
	app.UpdateUntilIdle(10)
	if id := focusedID(app); id != other {
		t.Fatalf("focused %v, want %v", id, other)
	}
	if app.Focus().IsHighlighting().Get() {
		t.Error("pointer focus highlighted")
	}

	app.InjectClick(win.ID(), Point{10, 10})
	app.UpdateUntilIdle(10)
	if id := focusedID(app); id != parent {
		t.Errorf("press on a plain child focused %v, want its focusable parent %v", id, parent)
	}
}

func TestFocusableTracksFocus(t *testing.T) {
	app, _ := newTestApp(t)
	a, b := NewWidgetID(), NewWidgetID()
	fa := Focusable(SizeNode(NodeBase{}, Const(Size{100, 20})))
	openWindow(t, app, Stack(0, NewWidget(a, fa), focusBox(b, 100, 20)))
	changes := record(app, FocusChangedEvent)

	app.Focus().FocusWidget(a, true)
	app.UpdateUntilIdle(10)
	if !fa.IsFocused().Get() {
		t.Fatal("IsFocused = false after focus")
	}
	app.Focus().FocusWidget(b, true)
	app.UpdateUntilIdle(10)
	if fa.IsFocused().Get() {
		t.Error("IsFocused = true after focus moved")
	}

	if len(*changes) != 2 {
		t.Fatalf("got %d focus changes", len(*changes))
	}
	last := (*changes)[1]
	if !last.IsBlur(a) || !last.IsFocus(b) || last.IsWidgetMove() {
		t.Errorf("second change: blur a %v, focus b %v", last.IsBlur(a), last.IsFocus(b))
	}
}

func TestFocusRecoversWhenWidgetRemoved(t *testing.T) {
	app, _ := newTestApp(t)
	scope := NewWidgetID()
	ids := []WidgetID{NewWidgetID(), NewWidgetID(), NewWidgetID()}
	list := Stack(0, focusBox(ids[0], 100, 20), focusBox(ids[1], 100, 20), focusBox(ids[2], 100, 20))
	openWindow(t, app, Stack(0, NewWidget(scope, FocusScope(list, TabNavCycle, DirectionalNone))))
	changes := record(app, FocusChangedEvent)

	app.Focus().FocusWidget(ids[1], false)
	app.UpdateUntilIdle(10)
	if got := app.Focus().ReturnFocused(scope).Get().WidgetID(); got != ids[1] {
		t.Fatalf("return focus = %v, want %v", got, ids[1])
	}

	list.Children.Remove(1)
	app.UpdateUntilIdle(10)

	if id := focusedID(app); id != ids[0] {
		t.Errorf("focus recovered to %v, want %v", id, ids[0])
	}
	last := (*changes)[len(*changes)-1]
	if last.Cause != FocusCauseRecovery {
		t.Errorf("cause = %v, want recovery", last.Cause)
	}
	if !last.IsFocusEnter(ids[0]) || last.IsFocusLeave(scope) {
		t.Error("recovery left the scope")
	}
}

func TestScopeReturnsToLastFocused(t *testing.T) {
	app, _ := newTestApp(t)
	scope, a, b, outside := NewWidgetID(), NewWidgetID(), NewWidgetID(), NewWidgetID()
	openWindow(t, app, Stack(0,
		NewWidget(scope, FocusScope(Stack(0, focusBox(a, 100, 20), focusBox(b, 100, 20)), TabNavContinue, DirectionalContinue)),
		focusBox(outside, 100, 20),
	))

	for _, id := range []WidgetID{b, outside, scope} {
		app.Focus().FocusWidget(id, false)
		app.UpdateUntilIdle(10)
	}
	if id := focusedID(app); id != b {
		t.Errorf("focusing the scope focused %v, want last focused %v", id, b)
	}
}

func TestAltScopeToggles(t *testing.T) {
	app, _ := newTestApp(t)
	menu, m1, m2, content := NewWidgetID(), NewWidgetID(), NewWidgetID(), NewWidgetID()
	menuInfo := Const(FocusInfo{Scope: true, AltScope: true, TabNav: TabNavCycle})
	win := openWindow(t, app, Stack(0,
		NewWidget(menu, FocusableWith(HStack(0, focusBox(m1, 40, 20), focusBox(m2, 40, 20)), menuInfo)),
		focusBox(content, 100, 50),
	))
	app.Focus().FocusWidget(content, false)
	app.UpdateUntilIdle(10)

	press(app, win, NamedAlt)
	if id := focusedID(app); id != m1 {
		t.Fatalf("Alt focused %v, want first menu item %v", id, m1)
	}
	press(app, win, NamedTab)
	if id := focusedID(app); id != m2 {
		t.Fatalf("Tab in menu focused %v, want %v", id, m2)
	}
	press(app, win, NamedEscape)
	if id := focusedID(app); id != content {
		t.Errorf("Escape focused %v, want return to %v", id, content)
	}

	press(app, win, NamedAlt)
	press(app, win, NamedAlt)
	if id := focusedID(app); id != content {
		t.Errorf("second Alt focused %v, want %v", id, content)
	}
}

func TestAltWithOtherKeyDoesNotToggle(t *testing.T) {
	app, _ := newTestApp(t)
	menu, content := NewWidgetID(), NewWidgetID()
	menuInfo := Const(FocusInfo{Scope: true, AltScope: true})
	win := openWindow(t, app, Stack(0,
		NewWidget(menu, FocusableWith(focusBox(0, 40, 20), menuInfo)),
		focusBox(content, 100, 50),
	))
	app.Focus().FocusWidget(content, false)
	app.UpdateUntilIdle(10)

	app.InjectShortcut(win.ID(), KeyChar("f"), KeyNamed(NamedAlt))
	app.UpdateUntilIdle(10)
	if id := focusedID(app); id != content {
		t.Errorf("Alt+F moved focus to %v", id)
	}
}

func TestFocusRequestBeforeWidgetExists(t *testing.T) {
	app, _ := newTestApp(t)
	list := Stack(0, focusBox(0, 100, 20))
	openWindow(t, app, list)
	late := NewWidgetID()

	app.Focus().FocusWidget(late, true)
	app.UpdateUntilIdle(10)
	if !app.Focus().Focused().Get().IsZero() {
		t.Fatal("focus moved to a missing widget")
	}

	list.Children.Push(focusBox(late, 100, 20))
	app.UpdateUntilIdle(10)
	if id := focusedID(app); id != late {
		t.Errorf("focused %v after the widget was added, want %v", id, late)
	}
}

func TestFocusUnfocusedWindowRequestsAttention(t *testing.T) {
	view := NewHeadlessView()
	app, _ := newTestApp(t, WithView(view))
	a := NewWidgetID()
	win := openWindow(t, app, Stack(0, focusBox(a, 50, 50)))
	app.InjectWindowFocus(0)
	app.UpdateUntilIdle(10)

	app.Focus().Focus(FocusRequest{Target: FocusTargetDirect, Widget: a, Attention: AttentionInfo})
	app.UpdateUntilIdle(10)

	if id := focusedID(app); id != a {
		t.Errorf("focused %v, want %v", id, a)
	}
	want := "attention " + win.ID().String() + " info"
	if !slices.Contains(view.Log(), want) {
		t.Errorf("view log %v has no %q", view.Log(), want)
	}
}
