package arbor

import (
	"slices"
	"sync"
)

// ViewProcess renders frames and produces raw input. Implementations run
// their own goroutines and report input with App.NotifyRaw; the App calls
// these methods from the UI goroutine.
type ViewProcess interface {
	OpenWindow(id WindowID, cfg WindowConfig) error
	CloseWindow(id WindowID) error
	FocusWindow(id WindowID) error
	RequestAttention(id WindowID, level AttentionLevel) error
	AddResource(r Resource) error
	DeleteResource(k ResourceKey) error
	Render(f *Frame) error
	RenderUpdate(u *FrameUpdate) error
}

// RawEvent is implemented by the raw event arguments a view process reports.
type RawEvent interface {
	EventArgs
	notifyRaw(a *App)
}

// rawArgs is embedded by raw argument types. Raw events reach app handlers
// only.
type rawArgs struct{}

// DeliveryList targets no widget.
func (rawArgs) DeliveryList(*DeliveryList) {}

// --- Raw input ---

// InputState is the state of a key or button.
type InputState uint8

const (
	Pressed InputState = iota
	Released
)

func (s InputState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// RawKeyInputArgs is a key press or release.
type RawKeyInputArgs struct {
	ArgsBase
	rawArgs
	Window   WindowID
	Device   DeviceID
	Code     KeyCode
	Location KeyLocation
	State    InputState
	// Key is the key without modifiers applied.
	Key Key
	// KeyModified is the key with modifiers applied. Zero means Key.
	KeyModified Key
	// Text is the text the key produces, if any.
	Text string
}

func (a *RawKeyInputArgs) notifyRaw(app *App) { RawKeyInputEvent.Notify(app, a) }

// RawModifiersChangedArgs reports the modifier state tracked by the OS.
type RawModifiersChangedArgs struct {
	ArgsBase
	rawArgs
	Window    WindowID
	Modifiers KeyModifiers
}

func (a *RawModifiersChangedArgs) notifyRaw(app *App) { RawModifiersChangedEvent.Notify(app, a) }

// RawCursorMovedArgs is a cursor move in window coordinates.
type RawCursorMovedArgs struct {
	ArgsBase
	rawArgs
	Window   WindowID
	Device   DeviceID
	Position Point
	// Coalesced are the positions merged into this event, oldest first.
	Coalesced []Point
}

func (a *RawCursorMovedArgs) notifyRaw(app *App) { RawCursorMovedEvent.Notify(app, a) }

// RawCursorLeftArgs reports the cursor left a window.
type RawCursorLeftArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
	Device DeviceID
}

func (a *RawCursorLeftArgs) notifyRaw(app *App) { RawCursorLeftEvent.Notify(app, a) }

// RawMouseInputArgs is a mouse button press or release.
type RawMouseInputArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
	Device DeviceID
	Button MouseButton
	State  InputState
}

func (a *RawMouseInputArgs) notifyRaw(app *App) { RawMouseInputEvent.Notify(app, a) }

// RawMouseWheelArgs is a scroll.
type RawMouseWheelArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
	Device DeviceID
	// Delta is in pixels; lines are converted by the view.
	Delta Point
}

func (a *RawMouseWheelArgs) notifyRaw(app *App) { RawMouseWheelEvent.Notify(app, a) }

// TouchPhase is the phase of one touch contact.
type TouchPhase uint8

const (
	TouchStart TouchPhase = iota
	TouchMove
	TouchEnd
	TouchCancel
)

func (p TouchPhase) String() string {
	switch p {
	case TouchStart:
		return "start"
	case TouchMove:
		return "move"
	case TouchEnd:
		return "end"
	}
	return "cancel"
}

// TouchUpdate is one contact in a raw touch event.
type TouchUpdate struct {
	ID       TouchID
	Phase    TouchPhase
	Position Point
	// Force is in [0, 1], 0 if unknown.
	Force float64
}

// RawTouchArgs reports one or more contacts of a touch device.
type RawTouchArgs struct {
	ArgsBase
	rawArgs
	Window  WindowID
	Device  DeviceID
	Touches []TouchUpdate
}

func (a *RawTouchArgs) notifyRaw(app *App) { RawTouchEvent.Notify(app, a) }

// --- Raw window and system ---

// RawWindowFocusArgs reports OS focus moving between windows. Zero IDs mean
// no window of the app.
type RawWindowFocusArgs struct {
	ArgsBase
	rawArgs
	Prev, New WindowID
}

func (a *RawWindowFocusArgs) notifyRaw(app *App) { RawWindowFocusEvent.Notify(app, a) }

// RawWindowChangedArgs reports a window resize.
type RawWindowChangedArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
	Size   Size
}

func (a *RawWindowChangedArgs) notifyRaw(app *App) { RawWindowChangedEvent.Notify(app, a) }

// RawScaleFactorChangedArgs reports a window moving to a monitor with a
// different DPI.
type RawScaleFactorChangedArgs struct {
	ArgsBase
	rawArgs
	Window      WindowID
	ScaleFactor float64
}

func (a *RawScaleFactorChangedArgs) notifyRaw(app *App) { RawScaleFactorChangedEvent.Notify(app, a) }

// RawWindowCloseRequestedArgs reports the user asked to close a window.
type RawWindowCloseRequestedArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
}

func (a *RawWindowCloseRequestedArgs) notifyRaw(app *App) {
	RawWindowCloseRequestedEvent.Notify(app, a)
}

// RawDroppedFileArgs reports a file dropped on a window.
type RawDroppedFileArgs struct {
	ArgsBase
	rawArgs
	Window WindowID
	Path   string
}

func (a *RawDroppedFileArgs) notifyRaw(app *App) { RawDroppedFileEvent.Notify(app, a) }

// RawConfigChangedArgs reports system settings. Nil fields did not change.
type RawConfigChangedArgs struct {
	ArgsBase
	rawArgs
	MultiClick *MultiClickConfig
	KeyRepeat  *KeyRepeatConfig
	Touch      *TouchConfig
	Animations *AnimationsConfig
}

func (a *RawConfigChangedArgs) notifyRaw(app *App) { RawConfigChangedEvent.Notify(app, a) }

// ViewProcessInitedArgs reports the view process is ready, with the system
// settings it read.
type ViewProcessInitedArgs struct {
	ArgsBase
	rawArgs
	Config RawConfigChangedArgs
}

func (a *ViewProcessInitedArgs) notifyRaw(app *App) { ViewProcessInitedEvent.Notify(app, a) }

// ViewProcessRespawnedArgs reports the view process restarted and lost every
// window and resource.
type ViewProcessRespawnedArgs struct {
	ArgsBase
	rawArgs
	Generation uint64
}

func (a *ViewProcessRespawnedArgs) notifyRaw(app *App) { ViewProcessRespawnedEvent.Notify(app, a) }

var (
	RawKeyInputEvent             = NewEvent[*RawKeyInputArgs]("raw-key-input")
	RawModifiersChangedEvent     = NewEvent[*RawModifiersChangedArgs]("raw-modifiers-changed")
	RawCursorMovedEvent          = NewEvent[*RawCursorMovedArgs]("raw-cursor-moved")
	RawCursorLeftEvent           = NewEvent[*RawCursorLeftArgs]("raw-cursor-left")
	RawMouseInputEvent           = NewEvent[*RawMouseInputArgs]("raw-mouse-input")
	RawMouseWheelEvent           = NewEvent[*RawMouseWheelArgs]("raw-mouse-wheel")
	RawTouchEvent                = NewEvent[*RawTouchArgs]("raw-touch")
	RawWindowFocusEvent          = NewEvent[*RawWindowFocusArgs]("raw-window-focus")
	RawWindowChangedEvent        = NewEvent[*RawWindowChangedArgs]("raw-window-changed")
	RawScaleFactorChangedEvent   = NewEvent[*RawScaleFactorChangedArgs]("raw-scale-factor-changed")
	RawWindowCloseRequestedEvent = NewEvent[*RawWindowCloseRequestedArgs]("raw-window-close-requested")
	RawDroppedFileEvent          = NewEvent[*RawDroppedFileArgs]("raw-dropped-file")
	RawConfigChangedEvent        = NewEvent[*RawConfigChangedArgs]("raw-config-changed")
	ViewProcessInitedEvent       = NewEvent[*ViewProcessInitedArgs]("view-process-inited")
	ViewProcessRespawnedEvent    = NewEvent[*ViewProcessRespawnedArgs]("view-process-respawned")
)

func (a *App) registerViewHandlers() {
	RawWindowChangedEvent.On(a, func(args *RawWindowChangedArgs) {
		if w := a.windowByID(args.Window); w != nil {
			_ = SetNe[Size](w.size, args.Size)
		}
	})
	RawScaleFactorChangedEvent.On(a, func(args *RawScaleFactorChangedArgs) {
		if w := a.windowByID(args.Window); w != nil {
			_ = SetNe[float64](w.scale, args.ScaleFactor)
		}
	})
	RawWindowFocusEvent.On(a, func(args *RawWindowFocusArgs) {
		a.focusedWindow = args.New
		for _, w := range a.windows {
			_ = SetNe[bool](w.focused, w.id == args.New)
		}
	})
	RawWindowCloseRequestedEvent.On(a, func(args *RawWindowCloseRequestedArgs) {
		if w := a.windowByID(args.Window); w != nil {
			w.Close()
		}
	})
	RawConfigChangedEvent.On(a, a.applyRawConfig)
	ViewProcessInitedEvent.On(a, func(args *ViewProcessInitedArgs) {
		a.applyRawConfig(&args.Config)
	})
	ViewProcessRespawnedEvent.On(a, func(args *ViewProcessRespawnedArgs) {
		a.log.Warn("view process respawned", "generation", args.Generation)
		a.resources.reset()
		a.keyboard.clear()
		a.mouse.clear()
		a.touch.clear()
		a.gestures.clear()
		a.capture.reset()
		for _, w := range a.windows {
			if a.view != nil {
				cfg := WindowConfig{Title: w.title, Size: w.size.Get(), ScaleFactor: w.scale.Get()}
				if err := a.view.OpenWindow(w.id, cfg); err != nil {
					a.log.Warn("view open window failed", "window", w.id, "err", err)
				}
			}
			w.request(reqRender)
		}
	})
}

func (a *App) applyRawConfig(args *RawConfigChangedArgs) {
	if args.MultiClick != nil {
		_ = a.mouse.multiClick.Set(*args.MultiClick)
	}
	if args.KeyRepeat != nil {
		_ = a.keyboard.repeat.Set(*args.KeyRepeat)
	}
	if args.Touch != nil {
		_ = a.touch.config.Set(*args.Touch)
	}
	if args.Animations != nil {
		_ = a.animConfig.Set(*args.Animations)
	}
}

// --- Headless ---

// HeadlessView is a ViewProcess that keeps everything it receives in memory.
// It renders nothing.
type HeadlessView struct {
	mu        sync.Mutex
	windows   map[WindowID]WindowConfig
	resources map[ResourceKey]Resource
	frames    []*Frame
	updates   []*FrameUpdate
	log       []string
}

// NewHeadlessView returns an empty headless view.
func NewHeadlessView() *HeadlessView {
	return &HeadlessView{
		windows:   make(map[WindowID]WindowConfig),
		resources: make(map[ResourceKey]Resource),
	}
}

func (v *HeadlessView) record(op string) { v.log = append(v.log, op) }

func (v *HeadlessView) OpenWindow(id WindowID, cfg WindowConfig) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.windows[id] = cfg
	v.record("open " + id.String())
	return nil
}

func (v *HeadlessView) CloseWindow(id WindowID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(v.windows, id)
	v.record("close " + id.String())
	return nil
}

func (v *HeadlessView) FocusWindow(id WindowID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.windows[id]; !ok {
		return ErrWindowNotFound
	}
	v.record("focus " + id.String())
	return nil
}

func (v *HeadlessView) RequestAttention(id WindowID, level AttentionLevel) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.windows[id]; !ok {
		return ErrWindowNotFound
	}
	v.record("attention " + id.String() + " " + level.String())
	return nil
}

func (v *HeadlessView) AddResource(r Resource) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resources[r.Key] = r
	v.record("add " + r.Key.String())
	return nil
}

func (v *HeadlessView) DeleteResource(k ResourceKey) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.resources, k)
	v.record("delete " + k.String())
	return nil
}

func (v *HeadlessView) Render(f *Frame) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames = append(v.frames, f)
	v.record("render " + f.Window.String())
	return nil
}

func (v *HeadlessView) RenderUpdate(u *FrameUpdate) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updates = append(v.updates, u)
	v.record("update " + u.Window.String())
	return nil
}

// Frames returns every frame received.
func (v *HeadlessView) Frames() []*Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.frames)
}

// Updates returns every frame update received.
func (v *HeadlessView) Updates() []*FrameUpdate {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.updates)
}

// HasResource reports whether the view holds k.
func (v *HeadlessView) HasResource(k ResourceKey) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.resources[k]
	return ok
}

// Log returns the operations received, in order.
func (v *HeadlessView) Log() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.log)
}
