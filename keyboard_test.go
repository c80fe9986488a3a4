package arbor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// charInputs returns the recorded events of character keys.
func charInputs(all []*KeyInputArgs) []*KeyInputArgs {
	var out []*KeyInputArgs
	for _, a := range all {
		if a.Key.Char != "" {
			out = append(out, a)
		}
	}
	return out
}

func TestShiftedKeyInput(t *testing.T) {
	app, _ := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	got := record(app, KeyInputEvent)

	app.InjectKeyState(win.ID(), KeyNamed(NamedShift), Pressed)
	app.NotifyRaw(&RawKeyInputArgs{
		ArgsBase: NewArgsBase(app.Clock().Now()),
		Window:   win.ID(),
		Code:     CodeA,
		State:    Pressed,
		Key:      KeyChar("A"),
		Text:     "A",
	})
	app.UpdateUntilIdle(10)

	chars := charInputs(*got)
	if len(chars) != 1 {
		t.Fatalf("got %d character inputs, want 1", len(chars))
	}
	a := chars[0]
	if a.Key != KeyChar("a") {
		t.Errorf("Key = %v, want a", a.Key)
	}
	if a.KeyModified != KeyChar("A") {
		t.Errorf("KeyModified = %v, want A", a.KeyModified)
	}
	if !a.Modifiers.Has(ModShift) {
		t.Errorf("Modifiers = %v, want Shift", a.Modifiers)
	}
	if a.RepeatCount != 0 {
		t.Errorf("RepeatCount = %d, want 0", a.RepeatCount)
	}
	if a.InsertStr() != "A" {
		t.Errorf("InsertStr = %q, want A", a.InsertStr())
	}
	if a.Target.WidgetID() != win.Root().ID() {
		t.Errorf("target = %v, want the window root", a.Target.WidgetPath)
	}
	if got := app.Keyboard().Modifiers().Get(); got != ModShift {
		t.Errorf("held modifiers = %v, want Shift", got)
	}
}

func TestKeyRepeatCount(t *testing.T) {
	app, clock := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	got := record(app, KeyInputEvent)
	x := KeyChar("x")

	press := func(after time.Duration) {
		clock.Advance(after)
		app.InjectKeyState(win.ID(), x, Pressed)
		app.UpdateUntilIdle(10)
	}
	press(0)
	press(500 * time.Millisecond)
	press(1199 * time.Millisecond)
	press(1200 * time.Millisecond)
	app.InjectKeyState(win.ID(), x, Released)
	app.UpdateUntilIdle(10)
	press(10 * time.Millisecond)

	var counts []int
	for _, a := range *got {
		if a.State == Pressed {
			counts = append(counts, a.RepeatCount)
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2, 0, 0}, counts); diff != "" {
		t.Errorf("repeat counts (-want +got):\n%s", diff)
	}
}

func TestAnyReleaseResetsRepeat(t *testing.T) {
	app, clock := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	got := record(app, KeyInputEvent)
	x, y := KeyChar("x"), KeyChar("y")

	app.InjectKeyState(win.ID(), x, Pressed)
	app.UpdateUntilIdle(10)
	clock.Advance(500 * time.Millisecond)
	app.InjectKeyState(win.ID(), x, Pressed)
	app.InjectKeyState(win.ID(), y, Released)
	app.UpdateUntilIdle(10)
	clock.Advance(10 * time.Millisecond)
	app.InjectKeyState(win.ID(), x, Pressed)
	app.UpdateUntilIdle(10)

	var counts []int
	for _, a := range *got {
		if a.State == Pressed {
			counts = append(counts, a.RepeatCount)
		}
	}
	if diff := cmp.Diff([]int{0, 1, 0}, counts); diff != "" {
		t.Errorf("repeat counts (-want +got):\n%s", diff)
	}
}

func TestShortcutInput(t *testing.T) {
	app, _ := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	got := record(app, KeyInputEvent)

	app.InjectShortcut(win.ID(), KeyChar("s"), KeyNamed(NamedControl))
	app.UpdateUntilIdle(10)

	chars := charInputs(*got)
	if len(chars) != 2 {
		t.Fatalf("got %d character inputs, want press and release", len(chars))
	}
	want := Shortcut{Modifiers: ModCtrl, Key: KeyChar("S")}
	if s := chars[0].ShortcutKey(); s != want {
		t.Errorf("ShortcutKey = %v, want %v", s, want)
	}
	if s := chars[0].ShortcutKey().String(); s != "Ctrl+S" {
		t.Errorf("shortcut string = %q", s)
	}
	if chars[0].InsertStr() != "" {
		t.Errorf("InsertStr = %q for a shortcut", chars[0].InsertStr())
	}
	if m := app.Keyboard().Modifiers().Get(); m != 0 {
		t.Errorf("modifiers = %v after release", m)
	}
}

func TestWindowBlurClearsKeys(t *testing.T) {
	app, _ := newTestApp(t)
	win := openWindow(t, app, box(0, 50, 50))
	changes := record(app, ModifiersChangedEvent)

	app.InjectKeyState(win.ID(), KeyNamed(NamedAlt), Pressed)
	app.InjectKeyState(win.ID(), KeyChar("q"), Pressed)
	app.UpdateUntilIdle(10)
	if n := len(app.Keyboard().Codes().Get()); n != 2 {
		t.Fatalf("held codes = %d, want 2", n)
	}

	app.InjectWindowFocus(0)
	app.UpdateUntilIdle(10)
	if n := len(app.Keyboard().Keys().Get()); n != 0 {
		t.Errorf("held keys = %d after blur", n)
	}
	if len(*changes) != 2 || (*changes)[1].Modifiers != 0 {
		t.Errorf("modifier changes = %d, want press then clear", len(*changes))
	}
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		in   string
		key  Key
		mods []Key
		ok   bool
	}{
		{"Tab", KeyNamed(NamedTab), nil, true},
		{"Shift+Tab", KeyNamed(NamedTab), []Key{KeyNamed(NamedShift)}, true},
		{"ctrl+alt+x", KeyChar("x"), []Key{KeyNamed(NamedControl), KeyNamed(NamedAlt)}, true},
		{"Ctrl++", KeyChar("+"), []Key{KeyNamed(NamedControl)}, true},
		{"F5", KeyNamed(NamedF5), nil, true},
		{"a+b", Key{}, nil, false},
		{"Nope", Key{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, mods, ok := ParseShortcut(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if key != tt.key {
				t.Errorf("key = %v, want %v", key, tt.key)
			}
			if diff := cmp.Diff(tt.mods, mods); diff != "" {
				t.Errorf("mods (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyCodeOf(t *testing.T) {
	tests := []struct {
		key  Key
		want KeyCode
	}{
		{KeyChar("a"), CodeA},
		{KeyChar("Z"), CodeZ},
		{KeyChar("7"), CodeDigit7},
		{KeyNamed(NamedTab), CodeTab},
		{KeyNamed(NamedF12), CodeF12},
		{KeyChar("é"), CodeUnidentified},
	}
	for _, tt := range tests {
		if got := KeyCodeOf(tt.key); got != tt.want {
			t.Errorf("KeyCodeOf(%v) = %d, want %d", tt.key, got, tt.want)
		}
	}
}
