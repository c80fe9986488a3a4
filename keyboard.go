package arbor

import (
	"slices"
	"strings"
	"time"
	"unicode"
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Has reports whether every modifier in m2 is held.
func (m KeyModifiers) Has(m2 KeyModifiers) bool { return m&m2 == m2 }

func (m KeyModifiers) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// KeyCode is the physical key, independent of the keyboard layout.
type KeyCode uint16

const (
	CodeUnidentified KeyCode = iota
	CodeA
	CodeB
	CodeC
	CodeD
	CodeE
	CodeF
	CodeG
	CodeH
	CodeI
	CodeJ
	CodeK
	CodeL
	CodeM
	CodeN
	CodeO
	CodeP
	CodeQ
	CodeR
	CodeS
	CodeT
	CodeU
	CodeV
	CodeW
	CodeX
	CodeY
	CodeZ
	CodeDigit0
	CodeDigit1
	CodeDigit2
	CodeDigit3
	CodeDigit4
	CodeDigit5
	CodeDigit6
	CodeDigit7
	CodeDigit8
	CodeDigit9
	CodeEnter
	CodeEscape
	CodeBackspace
	CodeTab
	CodeSpace
	CodeShiftLeft
	CodeShiftRight
	CodeControlLeft
	CodeControlRight
	CodeAltLeft
	CodeAltRight
	CodeMetaLeft
	CodeMetaRight
	CodeArrowUp
	CodeArrowDown
	CodeArrowLeft
	CodeArrowRight
	CodeHome
	CodeEnd
	CodePageUp
	CodePageDown
	CodeInsert
	CodeDelete
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
	CodeContextMenu
)

// KeyLocation tells apart keys that appear more than once on a keyboard.
type KeyLocation uint8

const (
	LocationStandard KeyLocation = iota // the only key of its kind
	LocationLeft                        // left Shift, Ctrl, Alt or Meta
	LocationRight                       // right Shift, Ctrl, Alt or Meta
	LocationNumpad                      // numeric keypad
)

// NamedKey is a key that does not produce a character.
type NamedKey uint8

const (
	NamedNone NamedKey = iota
	NamedShift
	NamedControl
	NamedAlt
	NamedMeta
	NamedEnter
	NamedTab
	NamedSpace
	NamedBackspace
	NamedDelete
	NamedEscape
	NamedArrowUp
	NamedArrowDown
	NamedArrowLeft
	NamedArrowRight
	NamedHome
	NamedEnd
	NamedPageUp
	NamedPageDown
	NamedInsert
	NamedF1
	NamedF2
	NamedF3
	NamedF4
	NamedF5
	NamedF6
	NamedF7
	NamedF8
	NamedF9
	NamedF10
	NamedF11
	NamedF12
	NamedContextMenu
)

var namedKeyNames = [...]string{
	"", "Shift", "Control", "Alt", "Meta", "Enter", "Tab", "Space", "Backspace",
	"Delete", "Escape", "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight",
	"Home", "End", "PageUp", "PageDown", "Insert",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
	"ContextMenu",
}

func (k NamedKey) String() string {
	if int(k) < len(namedKeyNames) {
		return namedKeyNames[k]
	}
	return "Unidentified"
}

// Key is the semantic key: either a named key or the character it produces.
type Key struct {
	Named NamedKey
	Char  string
}

// KeyChar returns the character key s.
func KeyChar(s string) Key { return Key{Char: s} }

// KeyNamed returns the named key k.
func KeyNamed(k NamedKey) Key { return Key{Named: k} }

// IsZero reports whether k is unset.
func (k Key) IsZero() bool { return k.Named == NamedNone && k.Char == "" }

func (k Key) String() string {
	if k.Char != "" {
		return k.Char
	}
	return k.Named.String()
}

// modifier returns the modifier the key holds, zero for other keys.
func (k Key) modifier() KeyModifiers {
	switch k.Named {
	case NamedShift:
		return ModShift
	case NamedControl:
		return ModCtrl
	case NamedAlt:
		return ModAlt
	case NamedMeta:
		return ModMeta
	}
	return 0
}

// IsModifier reports whether k is Shift, Control, Alt or Meta.
func (k Key) IsModifier() bool { return k.modifier() != 0 }

// --- Events ---

// KeyInputArgs is a key press or release, targeted at the focused widget.
type KeyInputArgs struct {
	ArgsBase
	Window   WindowID
	Device   DeviceID
	Code     KeyCode
	Location KeyLocation
	State    InputState
	// Key is the key without modifiers.
	Key Key
	// KeyModified is the key with modifiers applied.
	KeyModified Key
	Text        string
	Modifiers   KeyModifiers
	// RepeatCount is 0 for the first press and counts presses of the same key
	// that follow within twice the repeat start delay.
	RepeatCount int
	Target      InteractionPath
}

// DeliveryList targets the unblocked part of the target path.
func (a *KeyInputArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.UnblockedPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

// IsRepeat reports whether the press is a repeat.
func (a *KeyInputArgs) IsRepeat() bool { return a.RepeatCount > 0 }

func (a *KeyInputArgs) isPlainPress(k NamedKey) bool {
	return a.State == Pressed && a.Key.Named == k && a.Modifiers&(ModCtrl|ModAlt|ModMeta) == 0
}

// IsBackspace reports a Backspace press without Ctrl, Alt or Meta.
func (a *KeyInputArgs) IsBackspace() bool { return a.isPlainPress(NamedBackspace) }

// IsDelete reports a Delete press without Ctrl, Alt or Meta.
func (a *KeyInputArgs) IsDelete() bool { return a.isPlainPress(NamedDelete) }

// IsTab reports a Tab press without Ctrl, Alt or Meta.
func (a *KeyInputArgs) IsTab() bool { return a.isPlainPress(NamedTab) }

// IsLineBreak reports an Enter press without Ctrl, Alt or Meta.
func (a *KeyInputArgs) IsLineBreak() bool { return a.isPlainPress(NamedEnter) }

// InsertStr returns the text a text input should insert for the event. It is
// empty for releases, shortcuts and control characters.
func (a *KeyInputArgs) InsertStr() string {
	if a.State != Pressed || a.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0 {
		return ""
	}
	text := a.Text
	if text == "" {
		text = a.KeyModified.Char
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// Shortcut is a key combination.
type Shortcut struct {
	Modifiers KeyModifiers
	Key       Key
}

func (s Shortcut) String() string {
	switch {
	case s.Modifiers == 0:
		return s.Key.String()
	case s.Key.IsZero():
		return s.Modifiers.String()
	}
	return s.Modifiers.String() + "+" + s.Key.String()
}

// ShortcutKey returns the combination pressed. Modifier keys on their own
// return a Shortcut without Key.
func (a *KeyInputArgs) ShortcutKey() Shortcut {
	k := a.Key
	if k.IsModifier() {
		k = Key{}
	}
	if k.Char != "" {
		k.Char = strings.ToUpper(k.Char)
	}
	return Shortcut{Modifiers: a.Modifiers, Key: k}
}

// ModifiersChangedArgs is raised when the held modifiers change.
type ModifiersChangedArgs struct {
	ArgsBase
	Prev      KeyModifiers
	Modifiers KeyModifiers
}

// DeliveryList targets every subscribed widget.
func (a *ModifiersChangedArgs) DeliveryList(l *DeliveryList) { l.SearchAll() }

var (
	KeyInputEvent         = NewEvent[*KeyInputArgs]("key-input")
	ModifiersChangedEvent = NewEvent[*ModifiersChangedArgs]("modifiers-changed")
)

// --- Manager ---

type lastKeyDown struct {
	device DeviceID
	code   KeyCode
	ts     time.Time
	count  int
}

// CaretConfig is the caret blink timing.
type CaretConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// KeyboardManager turns raw key input into KeyInputEvent and tracks the held
// keys and modifiers.
type KeyboardManager struct {
	app *App

	mods  KeyModifiers
	codes []KeyCode
	keys  []Key
	last  *lastKeyDown

	modsVar  *RwVar[KeyModifiers]
	codesVar *RwVar[[]KeyCode]
	keysVar  *RwVar[[]Key]
	repeat   *RwVar[KeyRepeatConfig]

	caret     *RwVar[float64]
	caretAnim *AnimationHandle
}

func newKeyboardManager(a *App) *KeyboardManager {
	k := &KeyboardManager{
		app:      a,
		modsVar:  NewVar(a, KeyModifiers(0)),
		codesVar: NewVar[[]KeyCode](a, nil),
		keysVar:  NewVar[[]Key](a, nil),
		repeat:   NewVar(a, a.cfg.KeyRepeat),
	}
	RawKeyInputEvent.On(a, k.onKeyInput)
	RawModifiersChangedEvent.On(a, func(args *RawModifiersChangedArgs) {
		k.setModifiers(args.Modifiers, args.Timestamp)
	})
	RawWindowFocusEvent.On(a, func(args *RawWindowFocusArgs) {
		if args.New == 0 {
			k.clear()
		}
	})
	return k
}

// Modifiers is the held modifiers.
func (k *KeyboardManager) Modifiers() Var[KeyModifiers] { return ReadOnly[KeyModifiers](k.modsVar) }

// Codes is the held physical keys, in press order.
func (k *KeyboardManager) Codes() Var[[]KeyCode] { return ReadOnly[[]KeyCode](k.codesVar) }

// Keys is the held semantic keys, in press order.
func (k *KeyboardManager) Keys() Var[[]Key] { return ReadOnly[[]Key](k.keysVar) }

// RepeatConfig is the key repeat timing, updated by the view process.
func (k *KeyboardManager) RepeatConfig() Var[KeyRepeatConfig] { return k.repeat }

// CaretAnimationConfig is the caret blink timing taken from AnimationsConfig.
func (k *KeyboardManager) CaretAnimationConfig() Var[CaretConfig] {
	return Map(Var[AnimationsConfig](k.app.animConfig), func(c AnimationsConfig) CaretConfig {
		return CaretConfig{Interval: c.CaretBlinkInterval.Std(), Timeout: c.CaretBlinkTimeout.Std()}
	})
}

func (k *KeyboardManager) onKeyInput(args *RawKeyInputArgs) {
	switch args.State {
	case Pressed:
		delay := k.repeat.Get().StartDelay.Std()
		count := 0
		if l := k.last; l != nil && l.device == args.Device && l.code == args.Code &&
			args.Timestamp.Sub(l.ts) < 2*delay {
			count = l.count + 1
		}
		k.last = &lastKeyDown{device: args.Device, code: args.Code, ts: args.Timestamp, count: count}
		if !slices.Contains(k.codes, args.Code) {
			k.codes = append(k.codes, args.Code)
		}
		if !args.Key.IsZero() && !slices.Contains(k.keys, args.Key) {
			k.keys = append(k.keys, args.Key)
		}
		if m := args.Key.modifier(); m != 0 {
			k.setModifiers(k.mods|m, args.Timestamp)
		}
		k.restartCaret()
	case Released:
		k.last = nil
		k.codes = slices.DeleteFunc(k.codes, func(c KeyCode) bool { return c == args.Code })
		k.keys = slices.DeleteFunc(k.keys, func(x Key) bool { return x == args.Key })
		if m := args.Key.modifier(); m != 0 && !k.holds(m) {
			k.setModifiers(k.mods&^m, args.Timestamp)
		}
	}
	_ = k.codesVar.Set(slices.Clone(k.codes))
	_ = k.keysVar.Set(slices.Clone(k.keys))

	key, modified := args.Key, args.KeyModified
	if modified.IsZero() {
		modified = key
	}
	if key.Char != "" && k.mods.Has(ModShift) {
		key.Char = strings.ToLower(key.Char)
	}

	repeat := 0
	if args.State == Pressed && k.last != nil {
		repeat = k.last.count
	}
	KeyInputEvent.Notify(k.app, &KeyInputArgs{
		ArgsBase:    NewArgsBase(args.Timestamp),
		Window:      args.Window,
		Device:      args.Device,
		Code:        args.Code,
		Location:    args.Location,
		State:       args.State,
		Key:         key,
		KeyModified: modified,
		Text:        args.Text,
		Modifiers:   k.mods,
		RepeatCount: repeat,
		Target:      k.app.focus.inputTarget(args.Window),
	})
}

// holds reports whether another held key still provides m.
func (k *KeyboardManager) holds(m KeyModifiers) bool {
	for _, key := range k.keys {
		if key.modifier() == m {
			return true
		}
	}
	return false
}

func (k *KeyboardManager) setModifiers(m KeyModifiers, ts time.Time) {
	if m == k.mods {
		return
	}
	prev := k.mods
	k.mods = m
	_ = k.modsVar.Set(m)
	ModifiersChangedEvent.Notify(k.app, &ModifiersChangedArgs{
		ArgsBase:  NewArgsBase(ts),
		Prev:      prev,
		Modifiers: m,
	})
}

// clear forgets every held key, after focus loss or a view respawn.
func (k *KeyboardManager) clear() {
	k.codes, k.keys, k.last = nil, nil, nil
	_ = k.codesVar.Set(nil)
	_ = k.keysVar.Set(nil)
	k.setModifiers(0, k.app.clock.Now())
}

// --- Caret ---

// CaretBlink is the opacity of text carets, 1 or 0. It blinks with the caret
// config interval, restarts on every key press and stays at 1 after the
// timeout.
func (k *KeyboardManager) CaretBlink() Var[float64] {
	if k.caret == nil {
		k.caret = NewVar(k.app, 1.0)
		k.restartCaret()
	}
	return ReadOnly[float64](k.caret)
}

func (k *KeyboardManager) restartCaret() {
	if k.caret == nil {
		return
	}
	if k.caretAnim != nil {
		k.caretAnim.Stop()
	}
	caret := k.caret
	k.caretAnim = k.app.Animate(func(a *Animation) {
		cfg := k.app.animConfig.Get()
		interval := cfg.CaretBlinkInterval.Std()
		el := a.ElapsedDuration()
		if !cfg.Enabled || interval <= 0 || el >= cfg.CaretBlinkTimeout.Std() {
			_ = SetNe[float64](caret, 1)
			a.Stop()
			return
		}
		v := 1.0
		if (el/interval)%2 == 1 {
			v = 0
		}
		_ = SetNe[float64](caret, v)
		a.Sleep(interval - el%interval)
	})
}
