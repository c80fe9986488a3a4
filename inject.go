package arbor

import "strings"

// InjectedDevice is the device ID of injected input.
const InjectedDevice DeviceID = 0

// Injected input is queued like view input and handled by the next Update.
// Timestamps come from the app clock, so with a ManualClock the timing of a
// sequence is controlled by advancing the clock between calls.

// InjectKeyState reports a key press or release in win.
func (a *App) InjectKeyState(win WindowID, key Key, state InputState) {
	text := ""
	if state == Pressed {
		text = key.Char
	}
	a.NotifyRaw(&RawKeyInputArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Window:   win,
		Device:   InjectedDevice,
		Code:     KeyCodeOf(key),
		State:    state,
		Key:      key,
		Text:     text,
	})
}

// InjectKey reports a press followed by a release of key.
func (a *App) InjectKey(win WindowID, key Key) {
	a.InjectKeyState(win, key, Pressed)
	a.InjectKeyState(win, key, Released)
}

// InjectShortcut presses the modifiers in order, then key, then releases
// everything in reverse order.
func (a *App) InjectShortcut(win WindowID, key Key, mods ...Key) {
	for _, m := range mods {
		a.InjectKeyState(win, m, Pressed)
	}
	a.InjectKey(win, key)
	for i := len(mods) - 1; i >= 0; i-- {
		a.InjectKeyState(win, mods[i], Released)
	}
}

// InjectMouseMove reports the cursor at p in win.
func (a *App) InjectMouseMove(win WindowID, p Point) {
	a.NotifyRaw(&RawCursorMovedArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Window:   win,
		Device:   InjectedDevice,
		Position: p,
	})
}

// InjectMouseButton reports a button press or release at the last cursor
// position.
func (a *App) InjectMouseButton(win WindowID, b MouseButton, state InputState) {
	a.NotifyRaw(&RawMouseInputArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Window:   win,
		Device:   InjectedDevice,
		Button:   b,
		State:    state,
	})
}

// InjectClick moves the cursor to p and clicks the left button.
func (a *App) InjectClick(win WindowID, p Point) {
	a.InjectMouseMove(win, p)
	a.InjectMouseButton(win, MouseButtonLeft, Pressed)
	a.InjectMouseButton(win, MouseButtonLeft, Released)
}

// InjectDrag presses the left button at from, moves in steps to to and
// releases. steps below 1 moves directly.
func (a *App) InjectDrag(win WindowID, from, to Point, steps int) {
	if steps < 1 {
		steps = 1
	}
	a.InjectMouseMove(win, from)
	a.InjectMouseButton(win, MouseButtonLeft, Pressed)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		a.InjectMouseMove(win, Point{from.X + (to.X-from.X)*t, from.Y + (to.Y-from.Y)*t})
	}
	a.InjectMouseButton(win, MouseButtonLeft, Released)
}

// InjectTouch reports one contact update.
func (a *App) InjectTouch(win WindowID, id TouchID, phase TouchPhase, p Point) {
	a.NotifyRaw(&RawTouchArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Window:   win,
		Device:   InjectedDevice,
		Touches:  []TouchUpdate{{ID: id, Phase: phase, Position: p}},
	})
}

// InjectTap reports a contact starting and ending at p.
func (a *App) InjectTap(win WindowID, id TouchID, p Point) {
	a.InjectTouch(win, id, TouchStart, p)
	a.InjectTouch(win, id, TouchEnd, p)
}

// InjectWindowFocus reports OS focus moving to win. Zero means no window of
// the app.
func (a *App) InjectWindowFocus(win WindowID) {
	a.NotifyRaw(&RawWindowFocusArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Prev:     a.focusedWindow,
		New:      win,
	})
}

// InjectResize reports a new window size.
func (a *App) InjectResize(win WindowID, s Size) {
	a.NotifyRaw(&RawWindowChangedArgs{
		ArgsBase: NewArgsBase(a.clock.Now()),
		Window:   win,
		Size:     s,
	})
}

// --- Keys ---

var namedKeyCodes = map[NamedKey]KeyCode{
	NamedShift:       CodeShiftLeft,
	NamedControl:     CodeControlLeft,
	NamedAlt:         CodeAltLeft,
	NamedMeta:        CodeMetaLeft,
	NamedEnter:       CodeEnter,
	NamedTab:         CodeTab,
	NamedSpace:       CodeSpace,
	NamedBackspace:   CodeBackspace,
	NamedDelete:      CodeDelete,
	NamedEscape:      CodeEscape,
	NamedArrowUp:     CodeArrowUp,
	NamedArrowDown:   CodeArrowDown,
	NamedArrowLeft:   CodeArrowLeft,
	NamedArrowRight:  CodeArrowRight,
	NamedHome:        CodeHome,
	NamedEnd:         CodeEnd,
	NamedPageUp:      CodePageUp,
	NamedPageDown:    CodePageDown,
	NamedInsert:      CodeInsert,
	NamedContextMenu: CodeContextMenu,
}

// KeyCodeOf returns the physical key of k on a US layout. Views that only
// report semantic keys use it to fill RawKeyInputArgs.Code.
func KeyCodeOf(k Key) KeyCode {
	if k.Named != NamedNone {
		if c, ok := namedKeyCodes[k.Named]; ok {
			return c
		}
		if k.Named >= NamedF1 && k.Named <= NamedF12 {
			return CodeF1 + KeyCode(k.Named-NamedF1)
		}
		return CodeUnidentified
	}
	if len(k.Char) != 1 {
		return CodeUnidentified
	}
	switch c := k.Char[0]; {
	case c >= 'a' && c <= 'z':
		return CodeA + KeyCode(c-'a')
	case c >= 'A' && c <= 'Z':
		return CodeA + KeyCode(c-'A')
	case c >= '0' && c <= '9':
		return CodeDigit0 + KeyCode(c-'0')
	case c == ' ':
		return CodeSpace
	}
	return CodeUnidentified
}

// ParseKey parses a key name like "Tab", "ArrowLeft" or "a". Names are
// matched case-insensitively; any other single character is a character key.
func ParseKey(s string) (Key, bool) {
	for i, name := range namedKeyNames {
		if i > 0 && strings.EqualFold(name, s) {
			return KeyNamed(NamedKey(i)), true
		}
	}
	if strings.EqualFold(s, "Ctrl") {
		return KeyNamed(NamedControl), true
	}
	if len([]rune(s)) == 1 {
		return KeyChar(s), true
	}
	return Key{}, false
}

// ParseShortcut parses "Shift+Tab" style key combinations into the key and
// its modifiers.
func ParseShortcut(s string) (key Key, mods []Key, ok bool) {
	parts := strings.Split(s, "+")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		// "Ctrl++"
		parts = append(parts[:len(parts)-2], "+")
	}
	for i, p := range parts {
		k, ok := ParseKey(p)
		if !ok {
			return Key{}, nil, false
		}
		if i == len(parts)-1 {
			return k, mods, true
		}
		if !k.IsModifier() {
			return Key{}, nil, false
		}
		mods = append(mods, k)
	}
	return Key{}, nil, false
}
