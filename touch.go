package arbor

import (
	"math"
	"time"
)

// --- Events ---

// TouchMoveArgs is a contact moving over a window.
type TouchMoveArgs struct {
	ArgsBase
	Window   WindowID
	Device   DeviceID
	Touch    TouchID
	Position Point
	Force    float64
	// Coalesced are the moves merged into this one, oldest first.
	Coalesced []TouchUpdate
	Hits      HitTestInfo
	Target    InteractionPath
	Capture   *CaptureInfo
	Modifiers KeyModifiers
}

// DeliveryList targets the hit path and the capture widget.
func (a *TouchMoveArgs) DeliveryList(l *DeliveryList) { insertPointer(l, a.Target, a.Capture) }

// TouchInputArgs is a contact starting, ending or being canceled.
type TouchInputArgs struct {
	ArgsBase
	Window    WindowID
	Device    DeviceID
	Touch     TouchID
	Position  Point
	Force     float64
	Phase     TouchPhase
	Hits      HitTestInfo
	Target    InteractionPath
	Capture   *CaptureInfo
	Modifiers KeyModifiers
}

// DeliveryList targets the hit path and the capture widget.
func (a *TouchInputArgs) DeliveryList(l *DeliveryList) { insertPointer(l, a.Target, a.Capture) }

// IsTouchStart reports a new contact.
func (a *TouchInputArgs) IsTouchStart() bool { return a.Phase == TouchStart }

// IsTouchEnd reports a lifted contact.
func (a *TouchInputArgs) IsTouchEnd() bool { return a.Phase == TouchEnd }

// IsTouchCancel reports a contact canceled by the system.
func (a *TouchInputArgs) IsTouchCancel() bool { return a.Phase == TouchCancel }

// TouchTapArgs is a contact that ended close to where it started, soon after
// it started.
type TouchTapArgs struct {
	ArgsBase
	Window   WindowID
	Device   DeviceID
	Touch    TouchID
	Position Point
	// TapCount is 1 for a single tap, 2 for a double tap and so on.
	TapCount  int
	Hits      HitTestInfo
	Target    InteractionPath
	Capture   *CaptureInfo
	Modifiers KeyModifiers
}

// DeliveryList targets the enabled part of the hit path.
func (a *TouchTapArgs) DeliveryList(l *DeliveryList) {
	if p, ok := a.Target.EnabledPrefix(); ok {
		l.InsertPath(p.WidgetPath)
	}
}

var (
	TouchMoveEvent  = NewEvent[*TouchMoveArgs]("touch-move")
	TouchInputEvent = NewEvent[*TouchInputArgs]("touch-input")
	TouchTapEvent   = NewEvent[*TouchTapArgs]("touch-tap")
)

func insertPointer(l *DeliveryList, target InteractionPath, c *CaptureInfo) {
	insertUnblocked(l, target)
	if c != nil {
		l.InsertPath(c.Target.WidgetPath)
	}
}

// --- Manager ---

type contactKey struct {
	window WindowID
	device DeviceID
	touch  TouchID
}

// tapCandidate is a contact that can still become a tap.
type tapCandidate struct {
	start time.Time
	pos   Point
	prop  *Propagation
}

type lastTap struct {
	key   contactKey
	ts    time.Time
	pos   Point
	count int
}

// TouchManager turns raw touch input into hit-tested touch events and
// recognizes taps.
type TouchManager struct {
	app *App

	candidates map[contactKey]*tapCandidate
	last       *lastTap
	config     *RwVar[TouchConfig]
}

func newTouchManager(a *App) *TouchManager {
	t := &TouchManager{
		app:        a,
		candidates: make(map[contactKey]*tapCandidate),
		config:     NewVar(a, a.cfg.Touch),
	}
	RawTouchEvent.On(a, t.onTouch)
	return t
}

// Config is the tap recognition settings, updated by the view process.
func (t *TouchManager) Config() Var[TouchConfig] { return t.config }

// Contacts returns the number of contacts that can still tap.
func (t *TouchManager) Contacts() int { return len(t.candidates) }

// onTouch splits a raw touch event into moves and phase changes. Consecutive
// moves are coalesced into one TouchMoveEvent.
func (t *TouchManager) onTouch(args *RawTouchArgs) {
	var moves []TouchUpdate
	for _, u := range args.Touches {
		if u.Phase == TouchMove {
			moves = append(moves, u)
			continue
		}
		t.onMove(args, moves)
		moves = nil
		t.onInput(args, u)
	}
	t.onMove(args, moves)
}

func (t *TouchManager) onMove(args *RawTouchArgs, moves []TouchUpdate) {
	if len(moves) == 0 {
		return
	}
	u := moves[len(moves)-1]
	key := contactKey{args.Window, args.Device, u.ID}
	if c, ok := t.candidates[key]; ok && !t.retain(c, args.Timestamp, u.Position) {
		delete(t.candidates, key)
	}
	hits, target := t.app.hitPointer(args.Window, u.Position)
	TouchMoveEvent.Notify(t.app, &TouchMoveArgs{
		ArgsBase:  NewArgsBase(args.Timestamp),
		Window:    args.Window,
		Device:    args.Device,
		Touch:     u.ID,
		Position:  u.Position,
		Force:     u.Force,
		Coalesced: moves[:len(moves)-1],
		Hits:      hits,
		Target:    target,
		Capture:   t.app.capture.currentPtr(),
		Modifiers: t.app.keyboard.mods,
	})
}

func (t *TouchManager) onInput(args *RawTouchArgs, u TouchUpdate) {
	key := contactKey{args.Window, args.Device, u.ID}
	if u.Phase == TouchStart {
		t.app.capture.press()
	}
	hits, target := t.app.hitPointer(args.Window, u.Position)
	input := &TouchInputArgs{
		ArgsBase:  NewArgsBase(args.Timestamp),
		Window:    args.Window,
		Device:    args.Device,
		Touch:     u.ID,
		Position:  u.Position,
		Force:     u.Force,
		Phase:     u.Phase,
		Hits:      hits,
		Target:    target,
		Capture:   t.app.capture.currentPtr(),
		Modifiers: t.app.keyboard.mods,
	}

	switch u.Phase {
	case TouchStart:
		t.candidates[key] = &tapCandidate{start: args.Timestamp, pos: u.Position, prop: input.Propagation()}
	case TouchEnd:
		if c, ok := t.candidates[key]; ok {
			delete(t.candidates, key)
			if t.retain(c, args.Timestamp, u.Position) {
				t.notifyTap(args, u, key, hits, target, input)
			}
		}
	case TouchCancel:
		delete(t.candidates, key)
	}
	TouchInputEvent.Notify(t.app, input)

	if u.Phase == TouchEnd || u.Phase == TouchCancel {
		t.app.capture.release()
	}
}

// retain reports whether c can still become a tap at time ts and position p.
func (t *TouchManager) retain(c *tapCandidate, ts time.Time, p Point) bool {
	if c.prop.IsStopped() {
		return false
	}
	cfg := t.config.Get()
	if ts.Sub(c.start) > cfg.MaxTapTime.Std() {
		return false
	}
	return math.Abs(p.X-c.pos.X) <= cfg.TapArea.Width && math.Abs(p.Y-c.pos.Y) <= cfg.TapArea.Height
}

func (t *TouchManager) notifyTap(args *RawTouchArgs, u TouchUpdate, key contactKey, hits HitTestInfo, target InteractionPath, input *TouchInputArgs) {
	cfg := t.config.Get()
	count := 1
	if l := t.last; l != nil && l.key.window == key.window && l.key.device == key.device &&
		args.Timestamp.Sub(l.ts) <= cfg.DoubleTapTime.Std() &&
		math.Abs(u.Position.X-l.pos.X) <= cfg.TapArea.Width &&
		math.Abs(u.Position.Y-l.pos.Y) <= cfg.TapArea.Height {
		count = l.count + 1
	}
	t.last = &lastTap{key: key, ts: args.Timestamp, pos: u.Position, count: count}
	TouchTapEvent.Notify(t.app, &TouchTapArgs{
		ArgsBase:  SharedArgsBase(args.Timestamp, input.Propagation()),
		Window:    args.Window,
		Device:    args.Device,
		Touch:     u.ID,
		Position:  u.Position,
		TapCount:  count,
		Hits:      hits,
		Target:    target,
		Capture:   input.Capture,
		Modifiers: input.Modifiers,
	})
}

// clear forgets every contact, after a view respawn.
func (t *TouchManager) clear() {
	clear(t.candidates)
	t.last = nil
}
