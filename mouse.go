package arbor

import (
	"math"
	"slices"
	"time"
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft    MouseButton = iota // primary (left) mouse button
	MouseButtonRight                      // secondary (right) mouse button
	MouseButtonMiddle                     // middle mouse button (scroll wheel click)
	MouseButtonBack                       // back side button
	MouseButtonForward                    // forward side button
)

func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonRight:
		return "right"
	case MouseButtonMiddle:
		return "middle"
	case MouseButtonBack:
		return "back"
	}
	return "forward"
}

// MousePosition is a cursor position in a window. Window is zero when the
// cursor is outside every window.
type MousePosition struct {
	Window   WindowID
	Position Point
}

// --- Events ---

// MouseMoveArgs is a cursor move over a window.
type MouseMoveArgs struct {
	ArgsBase
	Window    WindowID
	Device    DeviceID
	Modifiers KeyModifiers
	Position  Point
	// Coalesced are the positions merged into this move, oldest first.
	Coalesced []Point
	Hits      HitTestInfo
	Target    InteractionPath
	Capture   *CaptureInfo
}

// DeliveryList targets the unblocked part of the target path.
func (a *MouseMoveArgs) DeliveryList(l *DeliveryList) { insertUnblocked(l, a.Target) }

// MouseInputArgs is a button press or release.
type MouseInputArgs struct {
	ArgsBase
	Window    WindowID
	Device    DeviceID
	Button    MouseButton
	Position  Point
	Modifiers KeyModifiers
	State     InputState
	// ClickCount is the multi-click count of the press, 0 for releases.
	ClickCount int
	Hits       HitTestInfo
	Target     InteractionPath
	Capture    *CaptureInfo
}

// DeliveryList targets the unblocked part of the target path.
func (a *MouseInputArgs) DeliveryList(l *DeliveryList) { insertUnblocked(l, a.Target) }

// IsPrimary reports whether the left button changed.
func (a *MouseInputArgs) IsPrimary() bool { return a.Button == MouseButtonLeft }

// MouseClickArgs is a click. Single clicks are raised on release, at the
// widget that contains both the press and the release; multi-clicks are
// raised on the press that completes them.
type MouseClickArgs struct {
	ArgsBase
	Window     WindowID
	Device     DeviceID
	Button     MouseButton
	Position   Point
	Modifiers  KeyModifiers
	ClickCount int
	Hits       HitTestInfo
	Target     InteractionPath
}

// DeliveryList targets the enabled part of the target path.
func (a *MouseClickArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.EnabledPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

// IsSingle reports a single click.
func (a *MouseClickArgs) IsSingle() bool { return a.ClickCount == 1 }

// IsDouble reports a double click.
func (a *MouseClickArgs) IsDouble() bool { return a.ClickCount == 2 }

// IsTriple reports a triple click.
func (a *MouseClickArgs) IsTriple() bool { return a.ClickCount == 3 }

// MouseHoveredArgs is raised when the widget under the cursor changes. It is
// delivered to both the previous and the new hovered path.
type MouseHoveredArgs struct {
	ArgsBase
	Window   WindowID
	Device   DeviceID
	Position Point
	Hits     HitTestInfo
	Prev     InteractionPath
	Target   InteractionPath
	Capture  *CaptureInfo
}

// DeliveryList targets the previous and the new path.
func (a *MouseHoveredArgs) DeliveryList(l *DeliveryList) {
	l.InsertPath(a.Prev.WidgetPath)
	l.InsertPath(a.Target.WidgetPath)
}

// IsMouseEnter reports whether the cursor entered id.
func (a *MouseHoveredArgs) IsMouseEnter(id WidgetID) bool {
	return a.Target.Contains(id) && !a.Prev.Contains(id)
}

// IsMouseLeave reports whether the cursor left id.
func (a *MouseHoveredArgs) IsMouseLeave(id WidgetID) bool {
	return a.Prev.Contains(id) && !a.Target.Contains(id)
}

// MouseWheelArgs is a scroll over a window.
type MouseWheelArgs struct {
	ArgsBase
	Window    WindowID
	Device    DeviceID
	Position  Point
	Modifiers KeyModifiers
	Delta     Point
	Hits      HitTestInfo
	Target    InteractionPath
}

// DeliveryList targets the enabled part of the target path.
func (a *MouseWheelArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.EnabledPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

var (
	MouseMoveEvent    = NewEvent[*MouseMoveArgs]("mouse-move")
	MouseInputEvent   = NewEvent[*MouseInputArgs]("mouse-input")
	MouseDownEvent    = NewEvent[*MouseInputArgs]("mouse-down")
	MouseUpEvent      = NewEvent[*MouseInputArgs]("mouse-up")
	MouseClickEvent   = NewEvent[*MouseClickArgs]("mouse-click")
	MouseHoveredEvent = NewEvent[*MouseHoveredArgs]("mouse-hovered")
	MouseWheelEvent   = NewEvent[*MouseWheelArgs]("mouse-wheel")
)

func insertUnblocked(l *DeliveryList, p InteractionPath) {
	if u, ok := p.UnblockedPrefix(); ok {
		l.InsertPath(u.WidgetPath)
	}
}

// --- Manager ---

type clickState struct {
	button   MouseButton
	count    int
	last     time.Time
	pos      Point
	target   InteractionPath
	pressed  InteractionPath
	hasPress bool
}

// MouseManager turns raw mouse input into hit-tested mouse events.
type MouseManager struct {
	app *App

	pos     MousePosition
	buttons []MouseButton
	hovered InteractionPath
	device  DeviceID
	click   clickState

	posVar     *RwVar[MousePosition]
	buttonsVar *RwVar[[]MouseButton]
	multiClick *RwVar[MultiClickConfig]
}

func newMouseManager(a *App) *MouseManager {
	m := &MouseManager{
		app:        a,
		posVar:     NewVar(a, MousePosition{}),
		buttonsVar: NewVar[[]MouseButton](a, nil),
		multiClick: NewVar(a, a.cfg.MultiClick),
	}
	RawCursorMovedEvent.On(a, m.onCursorMoved)
	RawCursorLeftEvent.On(a, m.onCursorLeft)
	RawMouseInputEvent.On(a, m.onMouseInput)
	RawMouseWheelEvent.On(a, m.onMouseWheel)
	WidgetInfoChangedEvent.On(a, m.onInfoChanged)
	return m
}

// Position is the cursor position.
func (m *MouseManager) Position() Var[MousePosition] { return ReadOnly[MousePosition](m.posVar) }

// Buttons is the pressed buttons, in press order.
func (m *MouseManager) Buttons() Var[[]MouseButton] { return ReadOnly[[]MouseButton](m.buttonsVar) }

// MultiClickConfig is the multi-click timing, updated by the view process.
func (m *MouseManager) MultiClickConfig() Var[MultiClickConfig] { return m.multiClick }

// Hovered returns the path under the cursor.
func (m *MouseManager) Hovered() (InteractionPath, bool) {
	return m.hovered, !m.hovered.IsZero()
}

// hitPointer tests p in win and returns the hits and the event target, after
// pointer capture. Points outside any widget target the window root.
func (a *App) hitPointer(win WindowID, p Point) (HitTestInfo, InteractionPath) {
	w := a.windowByID(win)
	if w == nil {
		return HitTestInfo{Window: win, Point: p}, InteractionPath{}
	}
	hits := w.tree.HitTest(p)
	var target InteractionPath
	if h, ok := hits.Target(); ok {
		if info, ok := w.tree.Get(h.WidgetID); ok {
			target = info.InteractionPath()
		}
	} else if root, ok := w.tree.Root(); ok {
		target = root.InteractionPath()
	}
	return hits, a.capture.redirect(target)
}

func (m *MouseManager) capture() *CaptureInfo { return m.app.capture.currentPtr() }

func (m *MouseManager) onCursorMoved(args *RawCursorMovedArgs) {
	m.device = args.Device
	pos := MousePosition{Window: args.Window, Position: args.Position}
	if pos != m.pos {
		m.pos = pos
		_ = m.posVar.Set(pos)
	}
	hits, target := m.app.hitPointer(args.Window, args.Position)
	m.setHovered(args.Timestamp, args.Window, args.Device, args.Position, hits, target)
	MouseMoveEvent.Notify(m.app, &MouseMoveArgs{
		ArgsBase:  NewArgsBase(args.Timestamp),
		Window:    args.Window,
		Device:    args.Device,
		Modifiers: m.app.keyboard.mods,
		Position:  args.Position,
		Coalesced: args.Coalesced,
		Hits:      hits,
		Target:    target,
		Capture:   m.capture(),
	})
}

func (m *MouseManager) onCursorLeft(args *RawCursorLeftArgs) {
	if m.pos.Window != args.Window {
		return
	}
	m.pos = MousePosition{}
	_ = m.posVar.Set(m.pos)
	m.setHovered(args.Timestamp, args.Window, args.Device, Point{}, HitTestInfo{Window: args.Window}, InteractionPath{})
}

func (m *MouseManager) setHovered(ts time.Time, win WindowID, dev DeviceID, p Point, hits HitTestInfo, target InteractionPath) {
	if target.Equal(m.hovered) {
		return
	}
	prev := m.hovered
	m.hovered = target
	MouseHoveredEvent.Notify(m.app, &MouseHoveredArgs{
		ArgsBase: NewArgsBase(ts),
		Window:   win,
		Device:   dev,
		Position: p,
		Hits:     hits,
		Prev:     prev,
		Target:   target,
		Capture:  m.capture(),
	})
}

func (m *MouseManager) onMouseInput(args *RawMouseInputArgs) {
	pos := m.pos.Position
	if m.pos.Window != args.Window {
		pos = Point{}
	}
	hits, target := m.app.hitPointer(args.Window, pos)
	mods := m.app.keyboard.mods

	count := 0
	switch args.State {
	case Pressed:
		if !slices.Contains(m.buttons, args.Button) {
			m.buttons = append(m.buttons, args.Button)
		}
		m.app.capture.press()
		count = m.countClick(args, pos, target)
	case Released:
		m.buttons = slices.DeleteFunc(m.buttons, func(b MouseButton) bool { return b == args.Button })
	}
	_ = m.buttonsVar.Set(slices.Clone(m.buttons))

	input := &MouseInputArgs{
		ArgsBase:   NewArgsBase(args.Timestamp),
		Window:     args.Window,
		Device:     args.Device,
		Button:     args.Button,
		Position:   pos,
		Modifiers:  mods,
		State:      args.State,
		ClickCount: count,
		Hits:       hits,
		Target:     target,
		Capture:    m.capture(),
	}
	MouseInputEvent.Notify(m.app, input)
	// Down and up share the propagation of the input event.
	updown := *input
	updown.ArgsBase = SharedArgsBase(args.Timestamp, input.Propagation())
	if args.State == Pressed {
		MouseDownEvent.Notify(m.app, &updown)
	} else {
		MouseUpEvent.Notify(m.app, &updown)
	}

	switch {
	case args.State == Pressed && count >= 2:
		m.notifyClick(args, pos, mods, count, hits, target)
	case args.State == Released && m.click.hasPress && m.click.button == args.Button:
		m.click.hasPress = false
		if m.click.count == 1 {
			if shared, ok := m.click.pressed.SharedAncestor(target); ok {
				m.notifyClick(args, pos, mods, 1, hits, shared)
			}
		}
	}

	if args.State == Released {
		m.app.capture.release()
	}
}

// countClick updates the multi-click state for a press and returns its
// count.
func (m *MouseManager) countClick(args *RawMouseInputArgs, pos Point, target InteractionPath) int {
	cfg := m.multiClick.Get()
	c := &m.click
	if c.count > 0 && c.button == args.Button &&
		args.Timestamp.Sub(c.last) <= cfg.Time.Std() &&
		math.Abs(pos.X-c.pos.X) <= cfg.Area.Width &&
		math.Abs(pos.Y-c.pos.Y) <= cfg.Area.Height &&
		c.target.Equal(target) {
		c.count++
	} else {
		c.count = 1
	}
	c.button = args.Button
	c.last = args.Timestamp
	c.pos = pos
	c.target = target
	c.pressed = target
	c.hasPress = true
	return c.count
}

func (m *MouseManager) notifyClick(args *RawMouseInputArgs, pos Point, mods KeyModifiers, count int, hits HitTestInfo, target InteractionPath) {
	MouseClickEvent.Notify(m.app, &MouseClickArgs{
		ArgsBase:   NewArgsBase(args.Timestamp),
		Window:     args.Window,
		Device:     args.Device,
		Button:     args.Button,
		Position:   pos,
		Modifiers:  mods,
		ClickCount: count,
		Hits:       hits,
		Target:     target,
	})
}

func (m *MouseManager) onMouseWheel(args *RawMouseWheelArgs) {
	pos := m.pos.Position
	hits, target := m.app.hitPointer(args.Window, pos)
	MouseWheelEvent.Notify(m.app, &MouseWheelArgs{
		ArgsBase:  NewArgsBase(args.Timestamp),
		Window:    args.Window,
		Device:    args.Device,
		Position:  pos,
		Modifiers: m.app.keyboard.mods,
		Delta:     args.Delta,
		Hits:      hits,
		Target:    target,
	})
}

// onInfoChanged re-tests the cursor against the new tree so hover follows
// widgets that moved under a still cursor.
func (m *MouseManager) onInfoChanged(args *WidgetInfoChangedArgs) {
	if m.pos.Window != args.Window || m.hovered.IsZero() {
		return
	}
	hits, target := m.app.hitPointer(args.Window, m.pos.Position)
	m.setHovered(args.Timestamp, args.Window, m.device, m.pos.Position, hits, target)
}

// clear forgets pressed buttons and hover, after a view respawn.
func (m *MouseManager) clear() {
	m.buttons = nil
	_ = m.buttonsVar.Set(nil)
	m.hovered = InteractionPath{}
	m.click = clickState{}
}
