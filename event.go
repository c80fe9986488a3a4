package arbor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// --- Args ---

// EventArgs is implemented by every event argument type. Argument types embed
// ArgsBase and are passed by pointer.
type EventArgs interface {
	Base() *ArgsBase
	// DeliveryList adds the targets of the event to list.
	DeliveryList(list *DeliveryList)
}

// Propagation is the stop flag shared by an argument value, its copies and
// any arguments derived from the same input.
type Propagation struct {
	stopped atomic.Bool
}

// Stop stops propagation. There is no resume.
func (p *Propagation) Stop() { p.stopped.Store(true) }

// IsStopped reports whether Stop was called.
func (p *Propagation) IsStopped() bool { return p.stopped.Load() }

// ArgsBase holds the fields common to all event arguments.
type ArgsBase struct {
	Timestamp time.Time
	prop      *Propagation
}

// NewArgsBase returns a base with a fresh propagation handle.
func NewArgsBase(ts time.Time) ArgsBase {
	return ArgsBase{Timestamp: ts, prop: &Propagation{}}
}

// SharedArgsBase returns a base that shares p, for arguments derived from
// another event.
func SharedArgsBase(ts time.Time, p *Propagation) ArgsBase {
	return ArgsBase{Timestamp: ts, prop: p}
}

// Base returns b.
func (b *ArgsBase) Base() *ArgsBase { return b }

// Propagation returns the shared propagation handle.
func (b *ArgsBase) Propagation() *Propagation {
	if b.prop == nil {
		b.prop = &Propagation{}
	}
	return b.prop
}

// Cancelable is embedded by arguments of events that request an action the
// handlers can veto. Cancel is independent of propagation.
type Cancelable struct {
	flag *atomic.Bool
}

// NewCancelable returns a fresh cancel flag.
func NewCancelable() Cancelable { return Cancelable{flag: new(atomic.Bool)} }

// Cancel requests the action be canceled.
func (c Cancelable) Cancel() {
	if c.flag != nil {
		c.flag.Store(true)
	}
}

// CancelRequested reports whether any handler called Cancel.
func (c Cancelable) CancelRequested() bool { return c.flag != nil && c.flag.Load() }

// --- Delivery ---

// DeliveryList is the set of widget paths an event must visit.
type DeliveryList struct {
	searchAll   bool
	windows     map[WindowID]struct{}
	widgets     map[WidgetID]struct{}
	targets     map[WidgetID]struct{}
	unresolved  []WidgetID
	roots       []WindowID
	subscribers map[WidgetID]int
}

func newDeliveryList(subscribers map[WidgetID]int) *DeliveryList {
	return &DeliveryList{
		windows:     make(map[WindowID]struct{}),
		widgets:     make(map[WidgetID]struct{}),
		targets:     make(map[WidgetID]struct{}),
		subscribers: subscribers,
	}
}

// InsertPath adds the target of p and all its ancestors.
func (l *DeliveryList) InsertPath(p WidgetPath) {
	if p.IsZero() {
		return
	}
	l.windows[p.Window()] = struct{}{}
	for _, id := range p.ids {
		l.widgets[id] = struct{}{}
	}
	l.targets[p.WidgetID()] = struct{}{}
}

// InsertWidget adds a widget by id. The path is resolved against the info
// trees before delivery.
func (l *DeliveryList) InsertWidget(id WidgetID) {
	l.unresolved = append(l.unresolved, id)
}

// InsertWindowRoot adds the root widget of win. It is resolved against the
// info tree before delivery.
func (l *DeliveryList) InsertWindowRoot(win WindowID) {
	l.roots = append(l.roots, win)
}

// SearchAll delivers to every widget subscribed to the event.
func (l *DeliveryList) SearchAll() { l.searchAll = true }

// IsSearchAll reports whether SearchAll was requested.
func (l *DeliveryList) IsSearchAll() bool { return l.searchAll }

// EnterWindow reports whether delivery must walk win.
func (l *DeliveryList) EnterWindow(win WindowID) bool {
	_, ok := l.windows[win]
	return ok
}

// EnterWidget reports whether id or one of its descendants is in the list.
func (l *DeliveryList) EnterWidget(id WidgetID) bool {
	_, ok := l.widgets[id]
	return ok
}

// IsTarget reports whether id was inserted as a target, not only as an ancestor.
func (l *DeliveryList) IsTarget(id WidgetID) bool {
	_, ok := l.targets[id]
	return ok
}

// Windows returns the windows to walk.
func (l *DeliveryList) Windows() []WindowID {
	out := make([]WindowID, 0, len(l.windows))
	for w := range l.windows {
		out = append(out, w)
	}
	return out
}

type pathResolver interface {
	findPath(id WidgetID) (WidgetPath, bool)
	rootPath(win WindowID) (WidgetPath, bool)
}

// resolve turns inserted ids, window roots and subscriptions into paths
// using the current info trees.
func (l *DeliveryList) resolve(r pathResolver) {
	for _, win := range l.roots {
		if p, ok := r.rootPath(win); ok {
			l.InsertPath(p)
		}
	}
	l.roots = nil
	ids := l.unresolved
	l.unresolved = nil
	if l.searchAll {
		for id := range l.subscribers {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if p, ok := r.findPath(id); ok {
			l.InsertPath(p)
		}
	}
}

// --- Events ---

type eventKey struct {
	id   uint64
	name string
}

var (
	eventMu    sync.Mutex
	eventNames = map[string]uint64{}
	eventIDs   atomic.Uint64
)

// Event is a statically declared event with argument type A.
type Event[A EventArgs] struct {
	key eventKey
}

// NewEvent declares an event. It panics with ErrAlreadyRegistered if name was
// already declared.
func NewEvent[A EventArgs](name string) *Event[A] {
	e, err := TryNewEvent[A](name)
	if err != nil {
		panic(err)
	}
	return e
}

// TryNewEvent declares an event, returning ErrAlreadyRegistered if name is
// taken.
func TryNewEvent[A EventArgs](name string) (*Event[A], error) {
	eventMu.Lock()
	defer eventMu.Unlock()
	if _, ok := eventNames[name]; ok {
		return nil, fmt.Errorf("event %q: %w", name, ErrAlreadyRegistered)
	}
	id := eventIDs.Add(1)
	eventNames[name] = id
	return &Event[A]{key: eventKey{id: id, name: name}}, nil
}

// Name returns the declared name.
func (e *Event[A]) Name() string { return e.key.name }

// Notify queues args for delivery in the next EVENT phase.
func (e *Event[A]) Notify(app *App, args A) {
	app.notify(e.key, args)
}

// On registers an app-level handler that runs after the widget handlers.
func (e *Event[A]) On(app *App, fn func(A)) EventHandle {
	return app.events.entry(e.key).addPost(func(a EventArgs) { fn(a.(A)) })
}

// OnPreview registers an app-level handler that runs before the widget
// handlers.
func (e *Event[A]) OnPreview(app *App, fn func(A)) EventHandle {
	return app.events.entry(e.key).addPreview(func(a EventArgs) { fn(a.(A)) })
}

// Subscribe marks widget id as interested in the event. Events whose
// delivery list is SearchAll reach every subscribed widget.
func (e *Event[A]) Subscribe(app *App, id WidgetID) EventHandle {
	return app.events.entry(e.key).subscribe(id)
}

// HasSubscribers reports whether any handler or widget is registered.
func (e *Event[A]) HasSubscribers(app *App) bool {
	en, ok := app.events.entries[e.key.id]
	return ok && en.live()
}

// Get returns the arguments if u is an update of e.
func (e *Event[A]) Get(u *EventUpdate) (A, bool) {
	if u == nil || u.key.id != e.key.id {
		var zero A
		return zero, false
	}
	return u.args.(A), true
}

// Is reports whether u is an update of e.
func (e *Event[A]) Is(u *EventUpdate) bool { return u != nil && u.key.id == e.key.id }

// EventUpdate is one queued event instance being delivered.
type EventUpdate struct {
	key      eventKey
	args     EventArgs
	delivery *DeliveryList
}

// EventName returns the event name.
func (u *EventUpdate) EventName() string { return u.key.name }

// Args returns the type-erased arguments.
func (u *EventUpdate) Args() EventArgs { return u.args }

// Delivery returns the resolved delivery list.
func (u *EventUpdate) Delivery() *DeliveryList { return u.delivery }

// Propagation returns the argument's propagation handle.
func (u *EventUpdate) Propagation() *Propagation { return u.args.Base().Propagation() }

// --- Handlers ---

// EventHandle unregisters a handler or subscription.
type EventHandle struct {
	release func()
}

// Unsubscribe removes the handler. Safe on a zero handle.
func (h EventHandle) Unsubscribe() {
	if h.release != nil {
		h.release()
	}
}

// EventHandles is a set of handles released together.
type EventHandles []EventHandle

// Unsubscribe releases every handle.
func (hs EventHandles) Unsubscribe() {
	for _, h := range hs {
		h.Unsubscribe()
	}
}

type eventHandler struct {
	e  *hookEntry
	fn func(EventArgs)
}

type eventEntry struct {
	preview     []eventHandler
	post        []eventHandler
	subscribers map[WidgetID]int
}

type eventRegistry struct {
	entries map[uint64]*eventEntry
}

func (r *eventRegistry) entry(k eventKey) *eventEntry {
	if r.entries == nil {
		r.entries = make(map[uint64]*eventEntry)
	}
	en, ok := r.entries[k.id]
	if !ok {
		en = &eventEntry{subscribers: make(map[WidgetID]int)}
		r.entries[k.id] = en
	}
	return en
}

// live reports whether a subscriber or a handler not yet unsubscribed remains.
func (en *eventEntry) live() bool {
	if len(en.subscribers) > 0 {
		return true
	}
	for _, list := range [][]eventHandler{en.preview, en.post} {
		for _, h := range list {
			if !h.e.dead {
				return true
			}
		}
	}
	return false
}

func (en *eventEntry) addPreview(fn func(EventArgs)) EventHandle {
	e := &hookEntry{}
	en.preview = append(en.preview, eventHandler{e: e, fn: fn})
	return EventHandle{release: func() { e.dead = true }}
}

func (en *eventEntry) addPost(fn func(EventArgs)) EventHandle {
	e := &hookEntry{}
	en.post = append(en.post, eventHandler{e: e, fn: fn})
	return EventHandle{release: func() { e.dead = true }}
}

func (en *eventEntry) subscribe(id WidgetID) EventHandle {
	en.subscribers[id]++
	released := false
	return EventHandle{release: func() {
		if released {
			return
		}
		released = true
		if en.subscribers[id]--; en.subscribers[id] <= 0 {
			delete(en.subscribers, id)
		}
	}}
}

// runHandlers calls live handlers in registration order until propagation
// stops, then drops dead ones. Handlers added while running are kept but not
// called for this event.
func runHandlers(list *[]eventHandler, args EventArgs) {
	prop := args.Base().Propagation()
	n := len(*list)
	for i := 0; i < n; i++ {
		if prop.IsStopped() {
			break
		}
		if h := (*list)[i]; !h.e.dead {
			h.fn(args)
		}
	}
	hs := *list
	live := hs[:0]
	for _, h := range hs {
		if !h.e.dead {
			live = append(live, h)
		}
	}
	for i := len(live); i < len(hs); i++ {
		hs[i] = eventHandler{}
	}
	*list = live
}

// --- Sink ---

// EventRecord describes one delivered event. It is passed to the EventSink
// after all handlers ran.
type EventRecord struct {
	Name      string
	UpdateID  UpdateID
	Timestamp time.Time
	Targets   []WidgetID
	Stopped   bool
	Args      EventArgs
}

// EventSink receives a record of every delivered event, for example to
// forward them into an ECS world.
type EventSink interface {
	EmitEvent(rec EventRecord)
}
