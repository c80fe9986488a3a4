package arbor

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// App owns the windows, variables, events and input managers of a UI. All of
// its methods except Post, NotifyRaw and the VarSender/Task helpers must be
// called on the UI goroutine, the one calling Update or Run.
type App struct {
	log   *slog.Logger
	clock Clock
	cfg   Config
	view  ViewProcess
	sink  EventSink
	debug bool

	updateID UpdateID
	applyID  ApplyID
	vars     struct {
		pending    []func()
		importance Importance
		anim       *animationState
		applied    int
	}
	events     eventRegistry
	eventQueue []*EventUpdate
	anims      animations
	timers     timers

	frameDuration *RwVar[time.Duration]
	animConfig    *RwVar[AnimationsConfig]

	// mu guards posted.
	mu     sync.Mutex
	posted []func()
	wake   chan struct{}

	windows       []*Window
	focusedWindow WindowID
	resources     *resourceTracker

	keyboard *KeyboardManager
	mouse    *MouseManager
	touch    *TouchManager
	capture  *PointerCapture
	focus    *FocusManager
	gestures *GestureManager
	commands map[*Command]*commandState

	ctx    context.Context
	cancel context.CancelFunc
	stats  debugStats
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. The default logs to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithClock sets the time source. Views must stamp raw events with the same
// clock.
func WithClock(c Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithView connects a view process.
func WithView(v ViewProcess) Option {
	return func(a *App) { a.view = v }
}

// WithEventSink sets the sink that receives a record of every delivered event.
func WithEventSink(s EventSink) Option {
	return func(a *App) { a.sink = s }
}

// NewApp returns an app with the given options applied.
func NewApp(opts ...Option) *App {
	a := &App{
		clock:     systemClock{},
		cfg:       DefaultConfig(),
		wake:      make(chan struct{}, 1),
		resources: newResourceTracker(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.debug = a.cfg.Debug
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.frameDuration = NewVar(a, a.cfg.FrameDuration.Std())
	a.animConfig = NewVar(a, a.cfg.Animations)
	a.anims.nextFrame = a.clock.Now()

	a.capture = newPointerCapture(a)
	a.keyboard = newKeyboardManager(a)
	a.mouse = newMouseManager(a)
	a.touch = newTouchManager(a)
	a.focus = newFocusManager(a)
	a.gestures = newGestureManager(a)
	a.registerWindowHandlers()
	a.registerViewHandlers()
	return a
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Clock returns the time source.
func (a *App) Clock() Clock { return a.clock }

// Config returns the config the app was created with.
func (a *App) Config() Config { return a.cfg }

// UpdateID returns the current update cycle.
func (a *App) UpdateID() UpdateID { return a.updateID }

// ApplyID returns the last UPDATE pass.
func (a *App) ApplyID() ApplyID { return a.applyID }

// FrameDuration is the minimum interval between animation frames.
func (a *App) FrameDuration() Var[time.Duration] { return a.frameDuration }

// AnimationsConfig is the animation settings, updated by the view process.
func (a *App) AnimationsConfig() Var[AnimationsConfig] { return a.animConfig }

// Keyboard returns the keyboard manager.
func (a *App) Keyboard() *KeyboardManager { return a.keyboard }

// Mouse returns the mouse manager.
func (a *App) Mouse() *MouseManager { return a.mouse }

// Touch returns the touch manager.
func (a *App) Touch() *TouchManager { return a.touch }

// PointerCapture returns the pointer capture manager.
func (a *App) PointerCapture() *PointerCapture { return a.capture }

// Focus returns the focus manager.
func (a *App) Focus() *FocusManager { return a.focus }

// SetDebugMode enables per-cycle timing logs and tree sanity checks.
func (a *App) SetDebugMode(enabled bool) { a.debug = enabled }

// SetEventSink replaces the event sink. Nil disables it.
func (a *App) SetEventSink(s EventSink) { a.sink = s }

// Context is canceled by Shutdown. Tasks run under it.
func (a *App) Context() context.Context { return a.ctx }

// --- Variables ---

func (a *App) nextImportance() Importance {
	a.vars.importance++
	return a.vars.importance
}

// writeImportance returns the importance of a write made now: the running
// animation's or a fresh one.
func (a *App) writeImportance() (Importance, *animationState) {
	if s := a.vars.anim; s != nil {
		return s.importance, s
	}
	return a.nextImportance(), nil
}

func (a *App) scheduleModify(fn func()) {
	a.vars.pending = append(a.vars.pending, fn)
}

// --- Cross-goroutine queue ---

// Post queues fn to run on the UI goroutine in the RECEIVE phase of the next
// cycle. Safe for concurrent use.
func (a *App) Post(fn func()) {
	a.mu.Lock()
	a.posted = append(a.posted, fn)
	a.mu.Unlock()
	a.wakeUp()
}

// NotifyRaw queues a raw event from the view process. Safe for concurrent use.
func (a *App) NotifyRaw(args RawEvent) {
	a.Post(func() { args.notifyRaw(a) })
}

func (a *App) wakeUp() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) hasPosted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.posted) > 0
}

// --- Events ---

func (a *App) notify(k eventKey, args EventArgs) {
	a.eventQueue = append(a.eventQueue, &EventUpdate{key: k, args: args})
	a.wakeUp()
}

// findPath resolves a widget id against the current info trees.
func (a *App) findPath(id WidgetID) (WidgetPath, bool) {
	for _, w := range a.windows {
		if info, ok := w.tree.Get(id); ok {
			return info.Path(), true
		}
	}
	return WidgetPath{}, false
}

func (a *App) rootPath(win WindowID) (WidgetPath, bool) {
	if w := a.windowByID(win); w != nil {
		if root, ok := w.tree.Root(); ok {
			return root.Path(), true
		}
	}
	return WidgetPath{}, false
}

// deliver runs the preview handlers, the widget handlers of every target
// window and then the post handlers of u.
func (a *App) deliver(u *EventUpdate) {
	en := a.events.entry(u.key)
	u.delivery = newDeliveryList(en.subscribers)
	u.args.DeliveryList(u.delivery)
	u.delivery.resolve(a)

	runHandlers(&en.preview, u.args)
	prop := u.Propagation()
	for _, w := range a.windows {
		if prop.IsStopped() {
			break
		}
		if !w.inited || !u.delivery.EnterWindow(w.id) {
			continue
		}
		w.root.Event(w.context(), u)
	}
	runHandlers(&en.post, u.args)
	a.stats.events++

	if a.sink != nil {
		targets := make([]WidgetID, 0, len(u.delivery.targets))
		for id := range u.delivery.targets {
			targets = append(targets, id)
		}
		slices.Sort(targets)
		a.sink.EmitEvent(EventRecord{
			Name:      u.key.name,
			UpdateID:  a.updateID,
			Timestamp: u.args.Base().Timestamp,
			Targets:   targets,
			Stopped:   prop.IsStopped(),
			Args:      u.args,
		})
	}
}

// --- Cycle ---

// UpdateStatus summarizes one call to Update.
type UpdateStatus struct {
	// Loops is the number of EVENT/UPDATE passes.
	Loops int
	// Events is the number of events delivered.
	Events int
	// Rendered is the number of frames sent.
	Rendered int
	// Capped is set when the pass limit was reached with work left.
	Capped bool
}

// Update runs one cycle: RECEIVE, then EVENT and UPDATE passes until nothing
// is pending, then INFO, LAYOUT, RENDER and TICK.
func (a *App) Update() UpdateStatus {
	start := time.Now()
	a.stats.reset()
	var st UpdateStatus

	a.updateID++
	a.receive()

	for {
		did := false
		if len(a.eventQueue) > 0 {
			st.Events += a.eventPhase()
			did = true
		}
		if a.hasUpdateWork() {
			a.updatePhase()
			did = true
		}
		if !did {
			break
		}
		st.Loops++
		if st.Loops >= a.cfg.MaxUpdateLoops {
			if len(a.eventQueue) > 0 || a.hasUpdateWork() {
				st.Capped = true
				a.log.Warn("update loop limit reached", "loops", st.Loops,
					"events", len(a.eventQueue), "modifiers", len(a.vars.pending))
			}
			break
		}
	}

	a.infoPhase()
	a.layoutPhase()
	st.Rendered = a.renderPhase()
	a.tickPhase()

	if a.debug {
		a.stats.total = time.Since(start)
		a.stats.loops = st.Loops
		a.debugLog()
	}
	return st
}

// receive drains the cross-goroutine queue.
func (a *App) receive() {
	a.mu.Lock()
	posted := a.posted
	a.posted = nil
	a.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}

// eventPhase delivers the queued events. Events raised by handlers are
// delivered in the next pass.
func (a *App) eventPhase() int {
	queue := a.eventQueue
	a.eventQueue = nil
	for _, u := range queue {
		a.deliver(u)
	}
	return len(queue)
}

func (a *App) hasUpdateWork() bool {
	if len(a.vars.pending) > 0 || a.focus.hasPending() {
		return true
	}
	for _, w := range a.windows {
		if !w.inited || w.closing || w.flags&reqUpdate != 0 {
			return true
		}
	}
	return false
}

// updatePhase applies the variable modifiers and runs Update on the widgets
// that requested it.
func (a *App) updatePhase() {
	a.applyID++
	a.focus.applyPending()
	a.applyModifiers()

	for _, w := range slices.Clone(a.windows) {
		switch {
		case w.closing:
			a.closeWindow(w)
		case !w.inited:
			w.init()
		}
	}
	a.applyModifiers()

	for _, w := range a.windows {
		if w.flags&reqUpdate == 0 {
			continue
		}
		w.flags &^= reqUpdate
		w.root.Update(w.context(), &WidgetUpdates{ID: a.updateID, Apply: a.applyID})
	}
}

// applyModifiers runs pending modifiers until none are left. Modifiers
// scheduled by hooks run in the same cycle.
func (a *App) applyModifiers() {
	for len(a.vars.pending) > 0 {
		batch := a.vars.pending
		a.vars.pending = nil
		for _, fn := range batch {
			fn()
		}
		a.stats.modifiers += len(batch)
	}
}

func (a *App) infoPhase() {
	t := time.Now()
	for _, w := range a.windows {
		if w.inited && w.flags&reqInfo != 0 {
			w.rebuildInfo()
		}
	}
	a.stats.info += time.Since(t)
}

func (a *App) layoutPhase() {
	t := time.Now()
	for _, w := range a.windows {
		if w.inited && w.flags&reqLayout != 0 {
			w.layout()
		}
	}
	a.stats.layout += time.Since(t)
}

func (a *App) renderPhase() int {
	t := time.Now()
	n := 0
	for _, w := range a.windows {
		if !w.inited {
			continue
		}
		switch {
		case w.flags&reqRender != 0:
			w.render()
			n++
		case w.flags&reqRenderUpdate != 0:
			w.renderUpdate()
		}
	}
	a.stats.render += time.Since(t)
	return n
}

func (a *App) tickPhase() {
	now := a.clock.Now()
	a.tickAnimations(now)
	a.timers.tick(now)
}

// HasPendingUpdates reports whether calling Update now would do any work.
func (a *App) HasPendingUpdates() bool {
	if len(a.eventQueue) > 0 || a.hasPosted() || a.hasUpdateWork() {
		return true
	}
	for _, w := range a.windows {
		if w.flags != 0 {
			return true
		}
	}
	if d, ok := a.NextDeadline(); ok && !a.clock.Now().Before(d) {
		return true
	}
	return false
}

// NextDeadline returns when the next animation frame or timer is due.
func (a *App) NextDeadline() (time.Time, bool) {
	d, ok := a.animationDeadline()
	if t, tok := a.timers.deadline(); tok && (!ok || t.Before(d)) {
		d, ok = t, true
	}
	return d, ok
}

// UpdateUntilIdle calls Update until nothing is pending, at most max times.
// It returns the number of cycles run.
func (a *App) UpdateUntilIdle(max int) int {
	n := 0
	for n < max && a.HasPendingUpdates() {
		a.Update()
		n++
	}
	return n
}

// Run drives the app until ctx is canceled or Shutdown is called. It sleeps
// until a raw event is posted or the next deadline.
func (a *App) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.ctx.Err(); err != nil {
			return nil
		}
		a.Update()
		if a.HasPendingUpdates() {
			continue
		}
		var (
			timer   *time.Timer
			timeout <-chan time.Time
		)
		if d, ok := a.NextDeadline(); ok {
			timer = time.NewTimer(d.Sub(a.clock.Now()))
			timeout = timer.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.ctx.Done():
			return nil
		case <-a.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Shutdown closes every window without asking and cancels the app context.
func (a *App) Shutdown() {
	for _, w := range slices.Clone(a.windows) {
		a.closeWindow(w)
	}
	a.cancel()
}
