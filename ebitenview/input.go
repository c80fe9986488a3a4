package ebitenview

import (
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/arbor"
)

// Device IDs of polled input.
const (
	KeyboardDevice arbor.DeviceID = 1
	MouseDevice    arbor.DeviceID = 2
	TouchDevice    arbor.DeviceID = 3
)

// wheelLine is the pixel distance of one wheel step.
const wheelLine = 20.0

// inputState is the input polled in one tick.
type inputState struct {
	focused bool
	keys    []ebiten.Key // pressed, sorted
	chars   []rune       // typed this tick
	cursor  arbor.Point
	buttons [3]bool // left, right, middle
	wheel   arbor.Point
	touches map[ebiten.TouchID]arbor.Point
}

var pollButtons = [3]struct {
	eb ebiten.MouseButton
	ar arbor.MouseButton
}{
	{ebiten.MouseButtonLeft, arbor.MouseButtonLeft},
	{ebiten.MouseButtonRight, arbor.MouseButtonRight},
	{ebiten.MouseButtonMiddle, arbor.MouseButtonMiddle},
}

// pollInput reads the current ebiten input state.
func pollInput(touchBuf []ebiten.TouchID) inputState {
	var s inputState
	s.focused = ebiten.IsFocused()
	s.keys = inpututil.AppendPressedKeys(nil)
	slices.Sort(s.keys)
	s.chars = ebiten.AppendInputChars(nil)

	mx, my := ebiten.CursorPosition()
	s.cursor = arbor.Point{X: float64(mx), Y: float64(my)}
	for i, b := range pollButtons {
		s.buttons[i] = ebiten.IsMouseButtonPressed(b.eb)
	}
	wx, wy := ebiten.Wheel()
	s.wheel = arbor.Point{X: -wx * wheelLine, Y: -wy * wheelLine}

	ids := ebiten.AppendTouchIDs(touchBuf[:0])
	if len(ids) > 0 {
		s.touches = make(map[ebiten.TouchID]arbor.Point, len(ids))
		for _, id := range ids {
			tx, ty := ebiten.TouchPosition(id)
			s.touches[id] = arbor.Point{X: float64(tx), Y: float64(ty)}
		}
	}
	return s
}

// diffInput returns the raw events that take the app from prev to cur in
// win. Releases are reported before presses.
func diffInput(prev, cur *inputState, win arbor.WindowID, now time.Time) []arbor.RawEvent {
	var out []arbor.RawEvent
	base := func() arbor.ArgsBase { return arbor.NewArgsBase(now) }

	if prev.focused != cur.focused {
		f := &arbor.RawWindowFocusArgs{ArgsBase: base(), New: win}
		if !cur.focused {
			f.Prev, f.New = win, 0
		}
		out = append(out, f)
	}

	// keys
	for _, k := range prev.keys {
		if _, found := slices.BinarySearch(cur.keys, k); found {
			continue
		}
		if key, code, loc, ok := mapKey(k); ok {
			out = append(out, &arbor.RawKeyInputArgs{
				ArgsBase: base(), Window: win, Device: KeyboardDevice,
				Code: code, Location: loc, State: arbor.Released, Key: key,
			})
		}
	}
	chars := cur.chars
	for _, k := range cur.keys {
		if _, found := slices.BinarySearch(prev.keys, k); found {
			continue
		}
		key, code, loc, ok := mapKey(k)
		if !ok {
			continue
		}
		args := &arbor.RawKeyInputArgs{
			ArgsBase: base(), Window: win, Device: KeyboardDevice,
			Code: code, Location: loc, State: arbor.Pressed, Key: key,
		}
		if !key.IsModifier() && len(chars) > 0 && producesText(key) {
			args.Text = string(chars[0])
			if key.Char != "" {
				args.KeyModified = arbor.KeyChar(args.Text)
			}
			chars = chars[1:]
		}
		out = append(out, args)
	}
	// Characters without a key, e.g. from an input method.
	for _, c := range chars {
		k := arbor.KeyChar(string(c))
		out = append(out,
			&arbor.RawKeyInputArgs{ArgsBase: base(), Window: win, Device: KeyboardDevice, State: arbor.Pressed, Key: k, Text: k.Char},
			&arbor.RawKeyInputArgs{ArgsBase: base(), Window: win, Device: KeyboardDevice, State: arbor.Released, Key: k},
		)
	}

	// mouse
	if cur.cursor != prev.cursor {
		out = append(out, &arbor.RawCursorMovedArgs{ArgsBase: base(), Window: win, Device: MouseDevice, Position: cur.cursor})
	}
	for i, b := range pollButtons {
		if prev.buttons[i] == cur.buttons[i] {
			continue
		}
		state := arbor.Released
		if cur.buttons[i] {
			state = arbor.Pressed
		}
		out = append(out, &arbor.RawMouseInputArgs{ArgsBase: base(), Window: win, Device: MouseDevice, Button: b.ar, State: state})
	}
	if cur.wheel != (arbor.Point{}) {
		out = append(out, &arbor.RawMouseWheelArgs{ArgsBase: base(), Window: win, Device: MouseDevice, Delta: cur.wheel})
	}

	// touch
	var touches []arbor.TouchUpdate
	for id, p := range prev.touches {
		if _, ok := cur.touches[id]; !ok {
			touches = append(touches, arbor.TouchUpdate{ID: arbor.TouchID(id), Phase: arbor.TouchEnd, Position: p})
		}
	}
	for id, p := range cur.touches {
		old, ok := prev.touches[id]
		switch {
		case !ok:
			touches = append(touches, arbor.TouchUpdate{ID: arbor.TouchID(id), Phase: arbor.TouchStart, Position: p})
		case old != p:
			touches = append(touches, arbor.TouchUpdate{ID: arbor.TouchID(id), Phase: arbor.TouchMove, Position: p})
		}
	}
	if len(touches) > 0 {
		slices.SortFunc(touches, func(a, b arbor.TouchUpdate) int {
			if a.Phase != b.Phase {
				return int(a.Phase) - int(b.Phase)
			}
			return int(a.ID) - int(b.ID)
		})
		out = append(out, &arbor.RawTouchArgs{ArgsBase: base(), Window: win, Device: TouchDevice, Touches: touches})
	}
	return out
}

func producesText(k arbor.Key) bool {
	return k.Char != "" || k.Named == arbor.NamedSpace
}

// --- Keys ---

var letterKeys = [...]ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
	ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
	ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
	ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
	ebiten.KeyY, ebiten.KeyZ,
}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

var functionKeys = [...]ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
	ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
}

type keyMapping struct {
	key arbor.Key
	loc arbor.KeyLocation
}

var keyMap = buildKeyMap()

func buildKeyMap() map[ebiten.Key]keyMapping {
	m := map[ebiten.Key]keyMapping{
		ebiten.KeyShiftLeft:    {arbor.KeyNamed(arbor.NamedShift), arbor.LocationLeft},
		ebiten.KeyShiftRight:   {arbor.KeyNamed(arbor.NamedShift), arbor.LocationRight},
		ebiten.KeyControlLeft:  {arbor.KeyNamed(arbor.NamedControl), arbor.LocationLeft},
		ebiten.KeyControlRight: {arbor.KeyNamed(arbor.NamedControl), arbor.LocationRight},
		ebiten.KeyAltLeft:      {arbor.KeyNamed(arbor.NamedAlt), arbor.LocationLeft},
		ebiten.KeyAltRight:     {arbor.KeyNamed(arbor.NamedAlt), arbor.LocationRight},
		ebiten.KeyMetaLeft:     {arbor.KeyNamed(arbor.NamedMeta), arbor.LocationLeft},
		ebiten.KeyMetaRight:    {arbor.KeyNamed(arbor.NamedMeta), arbor.LocationRight},
		ebiten.KeyEnter:        {key: arbor.KeyNamed(arbor.NamedEnter)},
		ebiten.KeyNumpadEnter:  {arbor.KeyNamed(arbor.NamedEnter), arbor.LocationNumpad},
		ebiten.KeyTab:          {key: arbor.KeyNamed(arbor.NamedTab)},
		ebiten.KeySpace:        {key: arbor.KeyNamed(arbor.NamedSpace)},
		ebiten.KeyBackspace:    {key: arbor.KeyNamed(arbor.NamedBackspace)},
		ebiten.KeyDelete:       {key: arbor.KeyNamed(arbor.NamedDelete)},
		ebiten.KeyEscape:       {key: arbor.KeyNamed(arbor.NamedEscape)},
		ebiten.KeyArrowUp:      {key: arbor.KeyNamed(arbor.NamedArrowUp)},
		ebiten.KeyArrowDown:    {key: arbor.KeyNamed(arbor.NamedArrowDown)},
		ebiten.KeyArrowLeft:    {key: arbor.KeyNamed(arbor.NamedArrowLeft)},
		ebiten.KeyArrowRight:   {key: arbor.KeyNamed(arbor.NamedArrowRight)},
		ebiten.KeyHome:         {key: arbor.KeyNamed(arbor.NamedHome)},
		ebiten.KeyEnd:          {key: arbor.KeyNamed(arbor.NamedEnd)},
		ebiten.KeyPageUp:       {key: arbor.KeyNamed(arbor.NamedPageUp)},
		ebiten.KeyPageDown:     {key: arbor.KeyNamed(arbor.NamedPageDown)},
		ebiten.KeyInsert:       {key: arbor.KeyNamed(arbor.NamedInsert)},
		ebiten.KeyContextMenu:  {key: arbor.KeyNamed(arbor.NamedContextMenu)},
	}
	for i, k := range letterKeys {
		m[k] = keyMapping{key: arbor.KeyChar(string(rune('a' + i)))}
	}
	for i, k := range digitKeys {
		m[k] = keyMapping{key: arbor.KeyChar(string(rune('0' + i)))}
	}
	for i, k := range functionKeys {
		m[k] = keyMapping{key: arbor.KeyNamed(arbor.NamedF1 + arbor.NamedKey(i))}
	}
	return m
}

// mapKey returns the arbor key of an ebiten key. Keys without a mapping,
// including the side-less virtual modifiers, report false.
func mapKey(k ebiten.Key) (arbor.Key, arbor.KeyCode, arbor.KeyLocation, bool) {
	m, ok := keyMap[k]
	if !ok {
		return arbor.Key{}, 0, 0, false
	}
	code := arbor.KeyCodeOf(m.key)
	if m.loc == arbor.LocationRight {
		switch m.key.Named {
		case arbor.NamedShift:
			code = arbor.CodeShiftRight
		case arbor.NamedControl:
			code = arbor.CodeControlRight
		case arbor.NamedAlt:
			code = arbor.CodeAltRight
		case arbor.NamedMeta:
			code = arbor.CodeMetaRight
		}
	}
	return m.key, code, m.loc, true
}
