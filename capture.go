package arbor

// CaptureMode selects which widgets receive pointer events while captured.
type CaptureMode uint8

const (
	CaptureNone    CaptureMode = iota // events go to the widget under the pointer
	CaptureWidget                     // every event goes to the capturing widget
	CaptureSubtree                    // events go to the hit widget inside the subtree, else to the capturing widget
)

func (m CaptureMode) String() string {
	switch m {
	case CaptureWidget:
		return "widget"
	case CaptureSubtree:
		return "subtree"
	}
	return "none"
}

// CaptureInfo is an active pointer capture.
type CaptureInfo struct {
	Target InteractionPath
	Mode   CaptureMode
}

// Allows reports whether an event aimed at path can reach it while the
// capture is active.
func (c CaptureInfo) Allows(path WidgetPath) bool {
	switch c.Mode {
	case CaptureWidget:
		return path.WidgetID() == c.Target.WidgetID()
	case CaptureSubtree:
		return path.Contains(c.Target.WidgetID())
	}
	return true
}

// PointerCaptureChangedArgs is raised when the capture starts, moves or ends.
type PointerCaptureChangedArgs struct {
	ArgsBase
	Prev *CaptureInfo
	New  *CaptureInfo
}

// DeliveryList targets the previous and the new capture widget.
func (a *PointerCaptureChangedArgs) DeliveryList(l *DeliveryList) {
	if a.Prev != nil {
		l.InsertPath(a.Prev.Target.WidgetPath)
	}
	if a.New != nil {
		l.InsertPath(a.New.Target.WidgetPath)
	}
}

// IsGot reports whether id gained the capture.
func (a *PointerCaptureChangedArgs) IsGot(id WidgetID) bool {
	return a.New != nil && a.New.Target.WidgetID() == id &&
		(a.Prev == nil || a.Prev.Target.WidgetID() != id)
}

// IsLost reports whether id lost the capture.
func (a *PointerCaptureChangedArgs) IsLost(id WidgetID) bool {
	return a.Prev != nil && a.Prev.Target.WidgetID() == id &&
		(a.New == nil || a.New.Target.WidgetID() != id)
}

var PointerCaptureChangedEvent = NewEvent[*PointerCaptureChangedArgs]("pointer-capture-changed")

// PointerCapture routes mouse and touch events to one widget while a button
// or contact is down. Widgets start a capture with CaptureWidget or
// CaptureSubtree, usually from a press handler; it ends on the last release.
type PointerCapture struct {
	app     *App
	current *CaptureInfo
	// pressed counts buttons and contacts down.
	pressed int
}

func newPointerCapture(a *App) *PointerCapture {
	c := &PointerCapture{app: a}
	WidgetInfoChangedEvent.On(a, func(args *WidgetInfoChangedArgs) {
		if cur := c.current; cur != nil && cur.Target.Window() == args.Window &&
			!args.Tree.Contains(cur.Target.WidgetID()) {
			c.set(nil)
		}
	})
	RawWindowFocusEvent.On(a, func(args *RawWindowFocusArgs) {
		if cur := c.current; cur != nil && cur.Target.Window() != args.New {
			c.reset()
		}
	})
	return c
}

// reset forgets every press and ends the capture.
func (c *PointerCapture) reset() {
	c.pressed = 0
	c.set(nil)
}

// Current returns the active capture.
func (c *PointerCapture) Current() (CaptureInfo, bool) {
	if c.current == nil {
		return CaptureInfo{}, false
	}
	return *c.current, true
}

func (c *PointerCapture) currentPtr() *CaptureInfo {
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// CaptureWidget captures every pointer event for id until all buttons and
// contacts are released. It does nothing while nothing is pressed.
func (c *PointerCapture) CaptureWidget(id WidgetID) { c.capture(id, CaptureWidget) }

// CaptureSubtree captures pointer events for the subtree of id.
func (c *PointerCapture) CaptureSubtree(id WidgetID) { c.capture(id, CaptureSubtree) }

// Release ends the capture early.
func (c *PointerCapture) Release() { c.set(nil) }

func (c *PointerCapture) capture(id WidgetID, mode CaptureMode) {
	if c.pressed == 0 {
		return
	}
	for _, w := range c.app.windows {
		if info, ok := w.tree.Get(id); ok {
			c.set(&CaptureInfo{Target: info.InteractionPath(), Mode: mode})
			return
		}
	}
}

func (c *PointerCapture) set(n *CaptureInfo) {
	prev := c.current
	if prev == nil && n == nil {
		return
	}
	if prev != nil && n != nil && prev.Mode == n.Mode && prev.Target.Equal(n.Target) {
		return
	}
	c.current = n
	PointerCaptureChangedEvent.Notify(c.app, &PointerCaptureChangedArgs{
		ArgsBase: NewArgsBase(c.app.clock.Now()),
		Prev:     prev,
		New:      n,
	})
}

// press records a button or contact going down. Widgets can capture while
// anything is pressed.
func (c *PointerCapture) press() { c.pressed++ }

// release records a button or contact going up. The last release ends the
// capture.
func (c *PointerCapture) release() {
	if c.pressed > 0 {
		c.pressed--
	}
	if c.pressed == 0 {
		c.set(nil)
	}
}

// redirect returns the path an event aimed at target must go to.
func (c *PointerCapture) redirect(target InteractionPath) InteractionPath {
	cur := c.current
	if cur == nil || cur.Allows(target.WidgetPath) {
		return target
	}
	return cur.Target
}
