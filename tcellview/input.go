package tcellview

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/arbor"
)

var namedKeys = map[tcell.Key]arbor.NamedKey{
	tcell.KeyEnter:      arbor.NamedEnter,
	tcell.KeyTab:        arbor.NamedTab,
	tcell.KeyBacktab:    arbor.NamedTab,
	tcell.KeyBackspace:  arbor.NamedBackspace,
	tcell.KeyBackspace2: arbor.NamedBackspace,
	tcell.KeyDelete:     arbor.NamedDelete,
	tcell.KeyEscape:     arbor.NamedEscape,
	tcell.KeyUp:         arbor.NamedArrowUp,
	tcell.KeyDown:       arbor.NamedArrowDown,
	tcell.KeyLeft:       arbor.NamedArrowLeft,
	tcell.KeyRight:      arbor.NamedArrowRight,
	tcell.KeyHome:       arbor.NamedHome,
	tcell.KeyEnd:        arbor.NamedEnd,
	tcell.KeyPgUp:       arbor.NamedPageUp,
	tcell.KeyPgDn:       arbor.NamedPageDown,
	tcell.KeyInsert:     arbor.NamedInsert,
	tcell.KeyF1:         arbor.NamedF1,
	tcell.KeyF2:         arbor.NamedF2,
	tcell.KeyF3:         arbor.NamedF3,
	tcell.KeyF4:         arbor.NamedF4,
	tcell.KeyF5:         arbor.NamedF5,
	tcell.KeyF6:         arbor.NamedF6,
	tcell.KeyF7:         arbor.NamedF7,
	tcell.KeyF8:         arbor.NamedF8,
	tcell.KeyF9:         arbor.NamedF9,
	tcell.KeyF10:        arbor.NamedF10,
	tcell.KeyF11:        arbor.NamedF11,
	tcell.KeyF12:        arbor.NamedF12,
}

var modifierKeys = []struct {
	mask tcell.ModMask
	key  arbor.NamedKey
}{
	{tcell.ModShift, arbor.NamedShift},
	{tcell.ModCtrl, arbor.NamedControl},
	{tcell.ModAlt, arbor.NamedAlt},
	{tcell.ModMeta, arbor.NamedMeta},
}

var mouseButtons = []struct {
	mask   tcell.ButtonMask
	button arbor.MouseButton
}{
	{tcell.Button1, arbor.MouseButtonLeft},
	{tcell.Button2, arbor.MouseButtonMiddle},
	{tcell.Button3, arbor.MouseButtonRight},
}

const wheelMask = tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight

// handle translates a terminal event and reports it to the app.
func (v *View) handle(ev tcell.Event) {
	v.mu.Lock()
	app, win := v.app, v.active()
	var raw []arbor.RawEvent
	if app != nil && win != 0 {
		raw = v.translate(app, win, ev)
	}
	v.mu.Unlock()
	for _, r := range raw {
		app.NotifyRaw(r)
	}
}

// translate returns the raw events of ev in win. Call with mu held.
func (v *View) translate(app *arbor.App, win arbor.WindowID, ev tcell.Event) []arbor.RawEvent {
	base := arbor.NewArgsBase(app.Clock().Now())
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return translateKey(base, win, ev)

	case *tcell.EventMouse:
		return v.translateMouse(base, win, ev)

	case *tcell.EventResize:
		w, h := ev.Size()
		return []arbor.RawEvent{&arbor.RawWindowChangedArgs{
			ArgsBase: base,
			Window:   win,
			Size:     arbor.Size{Width: float64(w) * v.cell.Width, Height: float64(h) * v.cell.Height},
		}}

	case *tcell.EventFocus:
		if ev.Focused == v.focused {
			return nil
		}
		v.focused = ev.Focused
		args := &arbor.RawWindowFocusArgs{ArgsBase: base, New: win}
		if !ev.Focused {
			args.Prev, args.New = win, 0
		}
		return []arbor.RawEvent{args}
	}
	return nil
}

// keyOf returns the arbor key of ev, with the modifiers tcell folded into
// the key code added to mods.
func keyOf(ev *tcell.EventKey) (arbor.Key, tcell.ModMask) {
	mods := ev.Modifiers()
	k := ev.Key()
	if n, ok := namedKeys[k]; ok {
		if k == tcell.KeyBacktab {
			mods |= tcell.ModShift
		}
		return arbor.KeyNamed(n), mods
	}
	if k == tcell.KeyRune {
		r := ev.Rune()
		if r == ' ' {
			return arbor.KeyNamed(arbor.NamedSpace), mods
		}
		return arbor.KeyChar(string(r)), mods
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return arbor.KeyChar(string(rune('a' + k - tcell.KeyCtrlA))), mods | tcell.ModCtrl
	}
	return arbor.Key{}, mods
}

// translateKey reports a press and release of the key, wrapped in presses
// and releases of its modifiers.
func translateKey(base arbor.ArgsBase, win arbor.WindowID, ev *tcell.EventKey) []arbor.RawEvent {
	key, mods := keyOf(ev)
	if key.IsZero() {
		return nil
	}
	keyArgs := func(k arbor.Key, state arbor.InputState, text string) *arbor.RawKeyInputArgs {
		return &arbor.RawKeyInputArgs{
			ArgsBase: arbor.NewArgsBase(base.Timestamp),
			Window:   win,
			Device:   Device,
			Code:     arbor.KeyCodeOf(k),
			State:    state,
			Key:      k,
			Text:     text,
		}
	}

	var held []arbor.Key
	var out []arbor.RawEvent
	for _, m := range modifierKeys {
		if mods&m.mask != 0 {
			k := arbor.KeyNamed(m.key)
			held = append(held, k)
			out = append(out, keyArgs(k, arbor.Pressed, ""))
		}
	}

	text := key.Char
	if key.Named == arbor.NamedSpace {
		text = " "
	}
	if mods&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) != 0 {
		text = ""
	}
	press := keyArgs(key, arbor.Pressed, text)
	if key.Char != "" {
		// Terminals report the shifted character; the unmodified key is its
		// lower case form.
		if r := []rune(key.Char); len(r) == 1 && unicode.IsUpper(r[0]) {
			press.KeyModified = key
			press.Key = arbor.KeyChar(string(unicode.ToLower(r[0])))
		}
	}
	release := keyArgs(press.Key, arbor.Released, "")
	release.KeyModified = press.KeyModified
	out = append(out, press, release)

	for i := len(held) - 1; i >= 0; i-- {
		out = append(out, keyArgs(held[i], arbor.Released, ""))
	}
	return out
}

// translateMouse reports the cursor move, then wheel steps, then button
// changes against the previous event. Call with mu held.
func (v *View) translateMouse(base arbor.ArgsBase, win arbor.WindowID, ev *tcell.EventMouse) []arbor.RawEvent {
	x, y := ev.Position()
	p := arbor.Point{
		X: (float64(x) + 0.5) * v.cell.Width,
		Y: (float64(y) + 0.5) * v.cell.Height,
	}
	var out []arbor.RawEvent
	newArgs := func() arbor.ArgsBase { return arbor.NewArgsBase(base.Timestamp) }

	if p != v.cursor {
		v.cursor = p
		out = append(out, &arbor.RawCursorMovedArgs{ArgsBase: newArgs(), Window: win, Device: Device, Position: p})
	}

	btn := ev.Buttons()
	if btn&wheelMask != 0 {
		var d arbor.Point
		switch {
		case btn&tcell.WheelUp != 0:
			d.Y = -v.cell.Height
		case btn&tcell.WheelDown != 0:
			d.Y = v.cell.Height
		case btn&tcell.WheelLeft != 0:
			d.X = -v.cell.Width
		case btn&tcell.WheelRight != 0:
			d.X = v.cell.Width
		}
		out = append(out, &arbor.RawMouseWheelArgs{ArgsBase: newArgs(), Window: win, Device: Device, Delta: d})
	}

	btn &^= wheelMask
	for _, b := range mouseButtons {
		was, is := v.buttons&b.mask != 0, btn&b.mask != 0
		if was == is {
			continue
		}
		state := arbor.Released
		if is {
			state = arbor.Pressed
		}
		out = append(out, &arbor.RawMouseInputArgs{ArgsBase: newArgs(), Window: win, Device: Device, Button: b.button, State: state})
	}
	v.buttons = btn
	return out
}
