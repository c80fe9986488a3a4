package arbor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	saveCommand = NewCommand("test-save", Shortcut{Modifiers: ModCtrl, Key: KeyChar("S")})
	undoCommand = NewCommand("test-undo", Shortcut{Modifiers: ModCtrl, Key: KeyChar("Z")})
)

// clickBox returns a focusable widget that records the clicks it receives.
func clickBox(id WidgetID, got *[]*ClickArgs) *Widget {
	node := OnEvent(Focusable(SizeNode(NodeBase{}, Const(Size{50, 20}))), ClickEvent, func(_ *Context, a *ClickArgs) {
		*got = append(*got, a)
	})
	return NewWidget(id, node)
}

func TestClickFromPointers(t *testing.T) {
	tests := []struct {
		name   string
		inject func(app *App, win WindowID)
		source ClickSource
	}{
		{"mouse", func(app *App, win WindowID) { app.InjectClick(win, Point{10, 10}) }, ClickFromMouse},
		{"touch", func(app *App, win WindowID) { app.InjectTap(win, 1, Point{10, 10}) }, ClickFromTouch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			id := NewWidgetID()
			var got []*ClickArgs
			win := openWindow(t, app, Stack(0, clickBox(id, &got)))

			tt.inject(app, win.ID())
			app.UpdateUntilIdle(10)

			if len(got) != 1 {
				t.Fatalf("clicks = %d, want 1", len(got))
			}
			c := got[0]
			if c.Source != tt.source || !c.IsPrimary() || !c.IsSingle() || c.IsContext() {
				t.Errorf("click %v primary %v single %v", c.Source, c.IsPrimary(), c.IsSingle())
			}
			if c.Target.WidgetID() != id || c.Position != (Point{10, 10}) {
				t.Errorf("click target %v at %v", c.Target.WidgetID(), c.Position)
			}
		})
	}
}

func TestShortcutClicksFocusedWidget(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		primary bool
		context bool
	}{
		{"enter", KeyNamed(NamedEnter), true, false},
		{"space", KeyNamed(NamedSpace), true, false},
		{"context menu", KeyNamed(NamedContextMenu), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			id := NewWidgetID()
			var got []*ClickArgs
			win := openWindow(t, app, Stack(0, box(0, 10, 10), clickBox(id, &got)))
			app.Focus().FocusWidget(id, true)
			app.UpdateUntilIdle(10)

			app.InjectKey(win.ID(), tt.key)
			app.UpdateUntilIdle(10)

			if len(got) != 1 {
				t.Fatalf("clicks = %d, want 1", len(got))
			}
			c := got[0]
			if c.Source != ClickFromShortcut || c.Shortcut.Key != tt.key || c.ClickCount != 1 {
				t.Errorf("click source %v shortcut %v count %d", c.Source, c.Shortcut, c.ClickCount)
			}
			if c.IsPrimary() != tt.primary || c.IsContext() != tt.context {
				t.Errorf("primary %v context %v", c.IsPrimary(), c.IsContext())
			}
		})
	}
}

func TestHandledShortcutDoesNotClick(t *testing.T) {
	app, _ := newTestApp(t)
	id := NewWidgetID()
	var got []*ClickArgs
	node := OnEvent(clickBox(id, &got), ShortcutEvent, func(_ *Context, a *ShortcutArgs) {
		a.Propagation().Stop()
	})
	win := openWindow(t, app, Stack(0, NewWidget(0, node)))
	app.Focus().FocusWidget(id, true)
	app.UpdateUntilIdle(10)

	app.InjectKey(win.ID(), KeyNamed(NamedEnter))
	app.UpdateUntilIdle(10)

	if focusedID(app) != id {
		t.Fatalf("focused %v, want %v", focusedID(app), id)
	}
	if len(got) != 0 {
		t.Errorf("clicks = %d after a widget handled the shortcut", len(got))
	}
}

func TestShortcutEvents(t *testing.T) {
	ctrl, shift := KeyNamed(NamedControl), KeyNamed(NamedShift)
	tests := []struct {
		name   string
		inject func(app *App, win WindowID)
		want   []string
	}{
		{"key with modifier", func(app *App, win WindowID) {
			app.InjectShortcut(win, KeyChar("s"), ctrl)
		}, []string{"Ctrl+S"}},
		{"modifier alone", func(app *App, win WindowID) {
			app.InjectKey(win, ctrl)
		}, []string{"Ctrl"}},
		{"two modifiers", func(app *App, win WindowID) {
			app.InjectShortcut(win, shift, ctrl)
		}, nil},
		{"plain key", func(app *App, win WindowID) {
			app.InjectKey(win, KeyChar("q"))
		}, []string{"Q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			win := openWindow(t, app, box(0, 50, 50))
			got := record(app, ShortcutEvent)

			tt.inject(app, win.ID())
			app.UpdateUntilIdle(10)

			var names []string
			for _, a := range *got {
				names = append(names, a.Shortcut.String())
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("shortcuts (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModifierShortcutClearedOnWindowBlur(t *testing.T) {
	app, _ := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	got := record(app, ShortcutEvent)

	app.InjectKeyState(win.ID(), KeyNamed(NamedControl), Pressed)
	app.UpdateUntilIdle(10)
	app.InjectWindowFocus(0)
	app.UpdateUntilIdle(10)
	app.InjectWindowFocus(win.ID())
	app.InjectKeyState(win.ID(), KeyNamed(NamedControl), Released)
	app.UpdateUntilIdle(10)

	if len(*got) != 0 {
		t.Errorf("shortcut %v after the window lost focus", (*got)[0].Shortcut)
	}
}

// --- Commands ---

func TestCommandEnabledNeedsHandler(t *testing.T) {
	app, _ := newTestApp(t)
	if saveCommand.IsEnabled(app) || saveCommand.Notify(app, nil) {
		t.Fatal("command without handlers is enabled")
	}

	var params []any
	h := saveCommand.On(app, func(a *CommandArgs) { params = append(params, a.Param) })
	if !saveCommand.IsEnabled(app) {
		t.Fatal("command with a handler is not enabled")
	}
	_ = saveCommand.Enabled(app).Set(false)
	app.Update()
	if saveCommand.Notify(app, 1) {
		t.Error("disabled command ran")
	}
	_ = saveCommand.Enabled(app).Set(true)
	app.Update()
	saveCommand.Notify(app, 2)
	app.Update()

	h.Unsubscribe()
	if saveCommand.HasHandlers(app) {
		t.Error("HasHandlers after unsubscribe")
	}
	if diff := cmp.Diff([]any{2}, params); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
	if saveCommand.Name() != "test-save" {
		t.Errorf("Name = %q", saveCommand.Name())
	}
}

func TestShortcutRunsCommand(t *testing.T) {
	app, _ := newTestApp(t)
	var ran []string
	save := NewWidgetID()
	node := OnEvent(SizeNode(NodeBase{}, Const(Size{50, 50})), saveCommand.Event(), func(*Context, *CommandArgs) {
		ran = append(ran, "save")
	})
	win := openWindow(t, app, Stack(0, NewWidget(save, node)))
	undoCommand.On(app, func(*CommandArgs) { ran = append(ran, "undo") })
	shortcuts := record(app, ShortcutEvent)

	ctrl := KeyNamed(NamedControl)
	app.InjectShortcut(win.ID(), KeyChar("s"), ctrl)
	app.InjectShortcut(win.ID(), KeyChar("z"), ctrl)
	app.UpdateUntilIdle(10)

	if diff := cmp.Diff([]string{"save", "undo"}, ran); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
	if len(*shortcuts) != 0 {
		t.Errorf("%d shortcuts reached post handlers after running a command", len(*shortcuts))
	}

	_ = undoCommand.Shortcuts(app).Set(nil)
	app.Update()
	app.InjectShortcut(win.ID(), KeyChar("z"), ctrl)
	app.UpdateUntilIdle(10)
	if len(ran) != 2 || len(*shortcuts) != 1 {
		t.Errorf("ran %v, shortcuts %d after clearing the undo shortcut", ran, len(*shortcuts))
	}
}
