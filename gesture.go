package arbor

import "slices"

// ClickSource is the input that produced a ClickEvent.
type ClickSource uint8

const (
	ClickFromMouse    ClickSource = iota // a MouseClickEvent
	ClickFromTouch                       // a TouchTapEvent
	ClickFromShortcut                    // a click shortcut on the focused widget
)

func (s ClickSource) String() string {
	switch s {
	case ClickFromMouse:
		return "mouse"
	case ClickFromTouch:
		return "touch"
	case ClickFromShortcut:
		return "shortcut"
	}
	return "unknown"
}

// ShortcutClick is the kind of click a shortcut stands for.
type ShortcutClick uint8

const (
	ShortcutClickPrimary ShortcutClick = iota
	ShortcutClickContext
)

// ClickArgs is an aggregate click: a mouse click, a touch tap or a click
// shortcut pressed while a widget is focused.
type ClickArgs struct {
	ArgsBase
	Window WindowID
	Device DeviceID
	Source ClickSource

	// Button, Position and Hits are set for mouse clicks. Touch taps set
	// Position, Hits and Touch.
	Button   MouseButton
	Touch    TouchID
	Position Point
	Hits     HitTestInfo

	// Shortcut, Kind and Repeat are set for shortcut clicks.
	Shortcut Shortcut
	Kind     ShortcutClick
	Repeat   bool

	// ClickCount is the multi-click or multi-tap count, always 1 for
	// shortcuts.
	ClickCount int
	Modifiers  KeyModifiers
	Target     InteractionPath
}

// DeliveryList targets the enabled part of the target path.
func (a *ClickArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.EnabledPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

// IsPrimary reports a click that triggers the default action: a left button
// click, a tap or a primary click shortcut.
func (a *ClickArgs) IsPrimary() bool {
	switch a.Source {
	case ClickFromMouse:
		return a.Button == MouseButtonLeft
	case ClickFromTouch:
		return true
	}
	return a.Kind == ShortcutClickPrimary
}

// IsContext reports a single right button click or a context click shortcut
// that is not a repeat.
func (a *ClickArgs) IsContext() bool {
	if a.ClickCount != 1 {
		return false
	}
	switch a.Source {
	case ClickFromMouse:
		return a.Button == MouseButtonRight
	case ClickFromShortcut:
		return a.Kind == ShortcutClickContext && !a.Repeat
	}
	return false
}

// IsMouseButton reports a mouse click of b.
func (a *ClickArgs) IsMouseButton(b MouseButton) bool {
	return a.Source == ClickFromMouse && a.Button == b
}

func (a *ClickArgs) IsSingle() bool { return a.ClickCount == 1 }
func (a *ClickArgs) IsDouble() bool { return a.ClickCount == 2 }
func (a *ClickArgs) IsTriple() bool { return a.ClickCount == 3 }

// ShortcutArgs is raised every time a full shortcut is completed: a key
// pressed with the held modifiers, or a modifier pressed and released alone.
type ShortcutArgs struct {
	ArgsBase
	Window   WindowID
	Device   DeviceID
	Shortcut Shortcut
	// Repeat is set when the key is held down.
	Repeat bool
	Target InteractionPath
}

// DeliveryList targets the unblocked part of the focused path.
func (a *ShortcutArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.UnblockedPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

var (
	ClickEvent    = NewEvent[*ClickArgs]("click")
	ShortcutEvent = NewEvent[*ShortcutArgs]("shortcut")
)

// --- Manager ---

// GestureManager raises the aggregate ClickEvent and ShortcutEvent. A
// ShortcutEvent that no widget stopped becomes a click on the focused widget
// when it is a click shortcut, or else runs the first enabled Command bound
// to it.
type GestureManager struct {
	app *App

	clickFocused   *RwVar[[]Shortcut]
	contextFocused *RwVar[[]Shortcut]

	// pressedMod is the modifier pressed alone, waiting for its release.
	pressedMod KeyModifiers
}

func newGestureManager(a *App) *GestureManager {
	g := &GestureManager{
		app: a,
		clickFocused: NewVar(a, []Shortcut{
			{Key: KeyNamed(NamedEnter)},
			{Key: KeyNamed(NamedSpace)},
		}),
		contextFocused: NewVar(a, []Shortcut{{Key: KeyNamed(NamedContextMenu)}}),
	}
	RawWindowFocusEvent.OnPreview(a, func(args *RawWindowFocusArgs) {
		if args.New == 0 {
			g.pressedMod = 0
		}
	})
	MouseClickEvent.On(a, g.onMouseClick)
	TouchTapEvent.On(a, g.onTap)
	KeyInputEvent.On(a, g.onKey)
	ShortcutEvent.On(a, g.onShortcut)
	return g
}

// Gestures returns the gesture manager.
func (a *App) Gestures() *GestureManager { return a.gestures }

// ClickFocused lists the shortcuts that primary-click the focused widget.
// The default is Enter and Space.
func (g *GestureManager) ClickFocused() *RwVar[[]Shortcut] { return g.clickFocused }

// ContextClickFocused lists the shortcuts that context-click the focused
// widget. The default is the context menu key.
func (g *GestureManager) ContextClickFocused() *RwVar[[]Shortcut] { return g.contextFocused }

func (g *GestureManager) onMouseClick(args *MouseClickArgs) {
	ClickEvent.Notify(g.app, &ClickArgs{
		ArgsBase:   NewArgsBase(args.Timestamp),
		Window:     args.Window,
		Device:     args.Device,
		Source:     ClickFromMouse,
		Button:     args.Button,
		Position:   args.Position,
		Hits:       args.Hits,
		ClickCount: args.ClickCount,
		Modifiers:  args.Modifiers,
		Target:     args.Target,
	})
}

func (g *GestureManager) onTap(args *TouchTapArgs) {
	ClickEvent.Notify(g.app, &ClickArgs{
		ArgsBase:   NewArgsBase(args.Timestamp),
		Window:     args.Window,
		Device:     args.Device,
		Source:     ClickFromTouch,
		Touch:      args.Touch,
		Position:   args.Position,
		Hits:       args.Hits,
		ClickCount: args.TapCount,
		Modifiers:  args.Modifiers,
		Target:     args.Target,
	})
}

func (g *GestureManager) onKey(args *KeyInputArgs) {
	if args.Key.IsZero() {
		g.pressedMod = 0
		return
	}
	m := args.Key.modifier()
	switch args.State {
	case Pressed:
		switch {
		case m == 0:
			g.pressedMod = 0
			g.notifyShortcut(args, args.ShortcutKey(), args.IsRepeat())
		case !args.IsRepeat():
			g.pressedMod = m
		}
	case Released:
		pressed := g.pressedMod
		g.pressedMod = 0
		if m != 0 && m == pressed && args.Modifiers == 0 {
			g.notifyShortcut(args, Shortcut{Modifiers: m}, false)
		}
	}
}

func (g *GestureManager) notifyShortcut(args *KeyInputArgs, s Shortcut, repeat bool) {
	ShortcutEvent.Notify(g.app, &ShortcutArgs{
		ArgsBase: NewArgsBase(args.Timestamp),
		Window:   args.Window,
		Device:   args.Device,
		Shortcut: s,
		Repeat:   repeat,
		Target:   args.Target,
	})
}

func (g *GestureManager) onShortcut(args *ShortcutArgs) {
	kind := ShortcutClickPrimary
	switch {
	case slices.Contains(g.clickFocused.Get(), args.Shortcut):
	case slices.Contains(g.contextFocused.Get(), args.Shortcut):
		kind = ShortcutClickContext
	default:
		if cmd := findCommand(g.app, args.Shortcut); cmd != nil {
			cmd.Notify(g.app, nil)
			args.Propagation().Stop()
		}
		return
	}
	ClickEvent.Notify(g.app, &ClickArgs{
		ArgsBase:   NewArgsBase(args.Timestamp),
		Window:     args.Window,
		Device:     args.Device,
		Source:     ClickFromShortcut,
		Shortcut:   args.Shortcut,
		Kind:       kind,
		Repeat:     args.Repeat,
		ClickCount: 1,
		Modifiers:  args.Shortcut.Modifiers,
		Target:     args.Target,
	})
}

func (g *GestureManager) clear() { g.pressedMod = 0 }
