package arbor

import (
	"cmp"
	"maps"
	"math"
	"slices"
)

// TabIndex orders widgets for tab navigation inside a focus scope. Widgets
// with the same index keep their tree order.
type TabIndex uint32

const (
	TabIndexAuto TabIndex = math.MaxUint32 / 2 // default, tree order
	TabIndexSkip TabIndex = math.MaxUint32     // skipped by tab navigation
)

// IsSkip reports whether the widget is skipped by tab navigation.
func (i TabIndex) IsSkip() bool { return i == TabIndexSkip }

// IsAuto reports whether the index is the default.
func (i TabIndex) IsAuto() bool { return i == TabIndexAuto }

// TabNav is how Tab moves inside a focus scope.
type TabNav uint8

const (
	TabNavContinue  TabNav = iota // through the scope, then out after the last item
	TabNavNone                    // Tab does not move inside the scope
	TabNavContained               // stops at the last item
	TabNavCycle                   // wraps around to the first item
	TabNavOnce                    // enters the scope once, then moves out
)

// DirectionalNav is how the arrow keys move inside a focus scope.
type DirectionalNav uint8

const (
	DirectionalContinue  DirectionalNav = iota // through the scope, then out of its edges
	DirectionalNone                            // arrows do not move inside the scope
	DirectionalContained                       // stops at the edges
	DirectionalCycle                           // wraps around to the opposite edge
)

// ScopeOnFocus picks the widget that receives focus when a scope is focused.
type ScopeOnFocus uint8

const (
	ScopeFocusLastFocused     ScopeOnFocus = iota // the last focused descendant, else the first
	ScopeFocusFirstDescendant                     // always the first descendant
	ScopeFocusWidget                              // the scope widget itself
)

// FocusInfo is the focus metadata of a widget, stored under FocusMetaID.
type FocusInfo struct {
	Focusable bool
	TabIndex  TabIndex
	// Scope groups the focusable descendants for navigation.
	Scope          bool
	AltScope       bool
	TabNav         TabNav
	DirectionalNav DirectionalNav
	OnFocus        ScopeOnFocus
}

// FocusMetaID is the widget metadata key of FocusInfo.
var FocusMetaID = NewStateID[FocusInfo]("focus")

// AttentionLevel asks the view to flash a window that is not focused.
type AttentionLevel uint8

const (
	AttentionNone     AttentionLevel = iota // no indicator
	AttentionInfo                           // informational, e.g. a blinking taskbar entry
	AttentionCritical                       // needs the user, e.g. a blinking taskbar entry until focused
)

func (l AttentionLevel) String() string {
	switch l {
	case AttentionInfo:
		return "info"
	case AttentionCritical:
		return "critical"
	}
	return "none"
}

// FocusTarget is where a FocusRequest moves the focus.
type FocusTarget uint8

const (
	FocusTargetDirect         FocusTarget = iota // the request Widget
	FocusTargetDirectOrParent                    // the Widget or its closest focusable ancestor
	FocusTargetNext                              // next in tab order
	FocusTargetPrev                              // previous in tab order
	FocusTargetUp                                // closest above
	FocusTargetDown                              // closest below
	FocusTargetLeft                              // closest to the left
	FocusTargetRight                             // closest to the right
	FocusTargetExit                              // closest focusable ancestor, or back out of the alt scope
	FocusTargetEnter                             // first focusable descendant
	FocusTargetAlt                               // into or out of the alt scope
)

// FocusRequest asks the FocusManager to move the focus. Requests are applied
// in the next UPDATE phase; a later request replaces a pending one.
type FocusRequest struct {
	Target FocusTarget
	Widget WidgetID
	// Highlight shows the focus visual, set for keyboard navigation.
	Highlight bool
	// ForceWindowFocus asks the view to focus the target window.
	ForceWindowFocus bool
	// Attention flashes the target window when it is not focused and
	// ForceWindowFocus is not set.
	Attention AttentionLevel

	window  WindowID
	cause   FocusChangeCause
	retried bool
}

// --- Events ---

// FocusChangeCause is why the focus moved.
type FocusChangeCause uint8

const (
	FocusCauseRequest  FocusChangeCause = iota // a FocusRequest, including key and pointer navigation
	FocusCauseRecovery                         // the focused widget left the tree or stopped being focusable
	FocusCauseWindow                           // window focus moved
)

// FocusChangedArgs is raised when the focused widget or the highlight state
// changes.
type FocusChangedArgs struct {
	ArgsBase
	Prev, New                WidgetPath
	PrevHighlight, Highlight bool
	Cause                    FocusChangeCause
}

// DeliveryList targets the previous and the new focused path.
func (a *FocusChangedArgs) DeliveryList(l *DeliveryList) {
	l.InsertPath(a.Prev)
	l.InsertPath(a.New)
}

// IsFocus reports whether id received focus.
func (a *FocusChangedArgs) IsFocus(id WidgetID) bool {
	return a.New.WidgetID() == id && (a.Prev.IsZero() || a.Prev.WidgetID() != id)
}

// IsBlur reports whether id lost focus.
func (a *FocusChangedArgs) IsBlur(id WidgetID) bool {
	return a.Prev.WidgetID() == id && (a.New.IsZero() || a.New.WidgetID() != id)
}

// IsFocusEnter reports whether the focus moved into the subtree of id.
func (a *FocusChangedArgs) IsFocusEnter(id WidgetID) bool {
	return a.New.Contains(id) && !a.Prev.Contains(id)
}

// IsFocusLeave reports whether the focus moved out of the subtree of id.
func (a *FocusChangedArgs) IsFocusLeave(id WidgetID) bool {
	return a.Prev.Contains(id) && !a.New.Contains(id)
}

// IsWidgetMove reports whether the same widget stayed focused under a new
// path.
func (a *FocusChangedArgs) IsWidgetMove() bool {
	return !a.New.IsZero() && a.Prev.WidgetID() == a.New.WidgetID() && !a.Prev.Equal(a.New)
}

// IsHighlightChanged reports whether the highlight state changed.
func (a *FocusChangedArgs) IsHighlightChanged() bool { return a.PrevHighlight != a.Highlight }

// ReturnFocusChangedArgs is raised when the widget a scope returns focus to
// changes. IsAlt is set for the return path of an alt scope.
type ReturnFocusChangedArgs struct {
	ArgsBase
	Scope     WidgetPath
	Prev, New WidgetPath
	Highlight bool
	IsAlt     bool
}

// DeliveryList targets the scope and the previous and new return paths.
func (a *ReturnFocusChangedArgs) DeliveryList(l *DeliveryList) {
	l.InsertPath(a.Scope)
	l.InsertPath(a.Prev)
	l.InsertPath(a.New)
}

var (
	FocusChangedEvent       = NewEvent[*FocusChangedArgs]("focus-changed")
	ReturnFocusChangedEvent = NewEvent[*ReturnFocusChangedArgs]("return-focus-changed")
)

// --- Manager ---

type altState struct {
	scope WidgetPath
	ret   WidgetPath
}

// FocusManager tracks the keyboard focus of the app and moves it on request,
// on key navigation and on pointer presses.
type FocusManager struct {
	app *App

	focused   WidgetPath
	highlight bool
	returns   map[WidgetID]WidgetPath
	alt       altState

	pending *FocusRequest
	// parked is a direct request whose widget was not in any tree yet. It is
	// retried once after the next info rebuild.
	parked  *FocusRequest
	recover bool
	altKey  bool

	focusedVar   *RwVar[WidgetPath]
	highlightVar *RwVar[bool]
	returnVars   map[WidgetID]*RwVar[WidgetPath]
}

func newFocusManager(a *App) *FocusManager {
	f := &FocusManager{
		app:          a,
		returns:      make(map[WidgetID]WidgetPath),
		focusedVar:   NewVar(a, WidgetPath{}),
		highlightVar: NewVar(a, false),
		returnVars:   make(map[WidgetID]*RwVar[WidgetPath]),
	}
	KeyInputEvent.On(a, f.onKey)
	MouseInputEvent.On(a, func(args *MouseInputArgs) {
		if args.State == Pressed && !args.Propagation().IsStopped() {
			f.focusPointer(args.Target)
		}
	})
	TouchInputEvent.On(a, func(args *TouchInputArgs) {
		if args.IsTouchStart() && !args.Propagation().IsStopped() {
			f.focusPointer(args.Target)
		}
	})
	WidgetInfoChangedEvent.On(a, f.onInfoChanged)
	WindowClosedEvent.On(a, func(args *WindowClosedArgs) {
		f.recover = true
		a.wakeUp()
	})
	RawWindowFocusEvent.On(a, f.onWindowFocus)
	return f
}

// Focused is the focused widget path, zero when nothing is focused.
func (f *FocusManager) Focused() Var[WidgetPath] { return ReadOnly[WidgetPath](f.focusedVar) }

// IsHighlighting is set while the focus was last moved by the keyboard.
func (f *FocusManager) IsHighlighting() Var[bool] { return ReadOnly[bool](f.highlightVar) }

// ReturnFocused is the widget focus returns to when scope is focused again.
func (f *FocusManager) ReturnFocused(scope WidgetID) Var[WidgetPath] {
	v, ok := f.returnVars[scope]
	if !ok {
		v = NewVar(f.app, f.returns[scope])
		f.returnVars[scope] = v
	}
	return ReadOnly[WidgetPath](v)
}

// Focus queues req.
func (f *FocusManager) Focus(req FocusRequest) {
	f.pending = &req
	f.app.wakeUp()
}

// FocusWidget focuses id. Focusing a scope focuses the widget its
// ScopeOnFocus picks.
func (f *FocusManager) FocusWidget(id WidgetID, highlight bool) {
	f.Focus(FocusRequest{Target: FocusTargetDirect, Widget: id, Highlight: highlight})
}

// FocusWidgetOrParent focuses id or its closest focusable ancestor.
func (f *FocusManager) FocusWidgetOrParent(id WidgetID, highlight bool) {
	f.Focus(FocusRequest{Target: FocusTargetDirectOrParent, Widget: id, Highlight: highlight})
}

func (f *FocusManager) move(t FocusTarget) {
	f.Focus(FocusRequest{Target: t, Highlight: f.highlight})
}

// FocusNext moves to the next widget in tab order.
func (f *FocusManager) FocusNext() { f.move(FocusTargetNext) }

// FocusPrev moves to the previous widget in tab order.
func (f *FocusManager) FocusPrev() { f.move(FocusTargetPrev) }

// FocusUp moves to the closest widget above.
func (f *FocusManager) FocusUp() { f.move(FocusTargetUp) }

// FocusDown moves to the closest widget below.
func (f *FocusManager) FocusDown() { f.move(FocusTargetDown) }

// FocusLeft moves to the closest widget to the left.
func (f *FocusManager) FocusLeft() { f.move(FocusTargetLeft) }

// FocusRight moves to the closest widget to the right.
func (f *FocusManager) FocusRight() { f.move(FocusTargetRight) }

// FocusExit moves to the closest focusable ancestor, or out of the alt scope.
func (f *FocusManager) FocusExit() { f.move(FocusTargetExit) }

// FocusEnter moves to the first focusable descendant.
func (f *FocusManager) FocusEnter() { f.move(FocusTargetEnter) }

// FocusAlt toggles the alt scope, usually a menu.
func (f *FocusManager) FocusAlt() { f.move(FocusTargetAlt) }

func (f *FocusManager) hasPending() bool { return f.pending != nil || f.recover }

// applyPending runs in the UPDATE phase, before variable modifiers.
func (f *FocusManager) applyPending() {
	if f.recover {
		f.recover = false
		f.recoverFocus()
	}
	if req := f.pending; req != nil {
		f.pending = nil
		f.fulfill(*req)
	}
}

// inputTarget returns the path keyboard input for win goes to: the focused
// widget when it is in win, else the window root.
func (f *FocusManager) inputTarget(win WindowID) InteractionPath {
	w := f.app.windowByID(win)
	if w == nil {
		return InteractionPath{}
	}
	if !f.focused.IsZero() && f.focused.Window() == win {
		if info, ok := w.tree.Get(f.focused.WidgetID()); ok {
			return info.InteractionPath()
		}
	}
	if root, ok := w.tree.Root(); ok {
		return root.InteractionPath()
	}
	return InteractionPath{}
}

// --- Requests ---

func (f *FocusManager) fulfill(req FocusRequest) {
	var (
		target WidgetInfo
		found  bool
	)
	switch req.Target {
	case FocusTargetDirect, FocusTargetDirectOrParent:
		w, ok := f.app.widgetInfo(req.Widget)
		if !ok {
			if !req.retried {
				req.retried = true
				f.parked = &req
			} else {
				f.app.log.Debug("focus target not found", "widget", req.Widget)
			}
			return
		}
		target, found = f.direct(w, req.Target == FocusTargetDirectOrParent)
	default:
		cur, ok := f.current()
		if !ok {
			root, ok := f.rootFor(req.window)
			switch {
			case !ok || req.Target == FocusTargetExit:
			case req.Target == FocusTargetAlt:
				if f.toggleAlt(root) {
					return
				}
			default:
				target, found = f.enterScope(root, req.Target == FocusTargetPrev)
			}
			break
		}
		target, found = f.navigate(cur, req.Target)
		if req.Target == FocusTargetAlt && found {
			return
		}
	}
	if !found {
		f.moveTo(f.focused, req.Highlight, req.cause)
		return
	}
	f.requestWindow(target.tree.window, req)
	f.moveTo(target.Path(), req.Highlight, req.cause)
}

func (f *FocusManager) navigate(cur WidgetInfo, t FocusTarget) (WidgetInfo, bool) {
	switch t {
	case FocusTargetNext:
		return f.nextTab(cur, false)
	case FocusTargetPrev:
		return f.nextTab(cur, true)
	case FocusTargetUp:
		return f.nextDirectional(cur, dirUp)
	case FocusTargetDown:
		return f.nextDirectional(cur, dirDown)
	case FocusTargetLeft:
		return f.nextDirectional(cur, dirLeft)
	case FocusTargetRight:
		return f.nextDirectional(cur, dirRight)
	case FocusTargetExit:
		return f.exit(cur)
	case FocusTargetEnter:
		for d := range cur.Descendants() {
			if canFocus(d) {
				return f.resolve(d)
			}
		}
	case FocusTargetAlt:
		return WidgetInfo{}, f.toggleAlt(cur)
	}
	return WidgetInfo{}, false
}

// current returns the focused widget in its tree.
func (f *FocusManager) current() (WidgetInfo, bool) {
	if f.focused.IsZero() {
		return WidgetInfo{}, false
	}
	w := f.app.windowByID(f.focused.Window())
	if w == nil {
		return WidgetInfo{}, false
	}
	return w.tree.Get(f.focused.WidgetID())
}

// rootFor returns the root of win, the focused window or the first window.
func (f *FocusManager) rootFor(win WindowID) (WidgetInfo, bool) {
	if win == 0 {
		win = f.app.focusedWindow
	}
	w := f.app.windowByID(win)
	if w == nil {
		if len(f.app.windows) == 0 {
			return WidgetInfo{}, false
		}
		w = f.app.windows[0]
	}
	return w.tree.Root()
}

func (f *FocusManager) direct(w WidgetInfo, orParent bool) (WidgetInfo, bool) {
	if canFocus(w) {
		return f.resolve(w)
	}
	if orParent {
		for a := range w.Ancestors() {
			if canFocus(a) {
				return f.resolve(a)
			}
		}
	}
	return WidgetInfo{}, false
}

// resolve maps a focus candidate to the widget that receives focus.
func (f *FocusManager) resolve(w WidgetInfo) (WidgetInfo, bool) {
	if focusInfoOf(w).Scope {
		return f.enterScope(w, false)
	}
	return w, true
}

// enterScope picks the widget that receives focus when scope is focused.
func (f *FocusManager) enterScope(scope WidgetInfo, last bool) (WidgetInfo, bool) {
	fi := focusInfoOf(scope)
	switch fi.OnFocus {
	case ScopeFocusWidget:
		if canFocus(scope) {
			return scope, true
		}
	case ScopeFocusLastFocused:
		if p, ok := f.returns[scope.ID()]; ok {
			if w, ok := scope.tree.Get(p.WidgetID()); ok && w.IsDescendantOf(scope) && canFocus(w) {
				return w, true
			}
		}
	}
	items := tabOrder(scopeItems(scope))
	items = slices.DeleteFunc(items, func(w WidgetInfo) bool { return focusInfoOf(w).TabIndex.IsSkip() })
	if len(items) == 0 {
		if canFocus(scope) {
			return scope, true
		}
		return WidgetInfo{}, false
	}
	pick := items[0]
	if last {
		pick = items[len(items)-1]
	}
	if focusInfoOf(pick).Scope {
		return f.enterScope(pick, last)
	}
	return pick, true
}

func (f *FocusManager) exit(cur WidgetInfo) (WidgetInfo, bool) {
	if !f.alt.scope.IsZero() && f.focused.Contains(f.alt.scope.WidgetID()) {
		if w, ok := f.app.widgetInfo(f.alt.ret.WidgetID()); ok && canFocus(w) {
			return w, true
		}
	}
	for a := range cur.Ancestors() {
		if canFocus(a) {
			return a, true
		}
	}
	return WidgetInfo{}, false
}

// requestWindow asks the view to focus or flash the window of a new focus
// target.
func (f *FocusManager) requestWindow(win WindowID, req FocusRequest) {
	v := f.app.view
	if v == nil || win == f.app.focusedWindow {
		return
	}
	var err error
	switch {
	case req.ForceWindowFocus:
		err = v.FocusWindow(win)
	case req.Attention != AttentionNone:
		err = v.RequestAttention(win, req.Attention)
	}
	if err != nil {
		f.app.log.Warn("view window focus failed", "window", win, "err", err)
	}
}

func (f *FocusManager) moveTo(p WidgetPath, highlight bool, cause FocusChangeCause) {
	if p.IsZero() {
		highlight = false
	}
	prev, prevHL := f.focused, f.highlight
	if prev.Equal(p) && prevHL == highlight {
		return
	}
	f.focused, f.highlight = p, highlight
	_ = f.focusedVar.Set(p)
	_ = SetNe[bool](f.highlightVar, highlight)
	FocusChangedEvent.Notify(f.app, &FocusChangedArgs{
		ArgsBase:      NewArgsBase(f.app.clock.Now()),
		Prev:          prev,
		New:           p,
		PrevHighlight: prevHL,
		Highlight:     highlight,
		Cause:         cause,
	})
	if cur, ok := f.current(); ok {
		for a := range cur.Ancestors() {
			if focusInfoOf(a).Scope {
				f.setReturn(a.Path(), p)
			}
		}
	}
	if !f.alt.scope.IsZero() && !p.Contains(f.alt.scope.WidgetID()) {
		f.setAlt(altState{})
	}
}

func (f *FocusManager) setReturn(scope, p WidgetPath) {
	id := scope.WidgetID()
	prev := f.returns[id]
	if prev.Equal(p) {
		return
	}
	if p.IsZero() {
		delete(f.returns, id)
	} else {
		f.returns[id] = p
	}
	if v, ok := f.returnVars[id]; ok {
		_ = v.Set(p)
	}
	ReturnFocusChangedEvent.Notify(f.app, &ReturnFocusChangedArgs{
		ArgsBase:  NewArgsBase(f.app.clock.Now()),
		Scope:     scope,
		Prev:      prev,
		New:       p,
		Highlight: f.highlight,
	})
}

func (f *FocusManager) setAlt(s altState) {
	prev := f.alt
	f.alt = s
	scope := s.scope
	if scope.IsZero() {
		scope = prev.scope
	}
	ReturnFocusChangedEvent.Notify(f.app, &ReturnFocusChangedArgs{
		ArgsBase:  NewArgsBase(f.app.clock.Now()),
		Scope:     scope,
		Prev:      prev.ret,
		New:       s.ret,
		Highlight: f.highlight,
		IsAlt:     true,
	})
}

// toggleAlt enters the closest alt scope or returns from it. It reports
// whether the focus moved.
func (f *FocusManager) toggleAlt(cur WidgetInfo) bool {
	if !f.alt.scope.IsZero() && f.focused.Contains(f.alt.scope.WidgetID()) {
		ret, ok := f.exit(cur)
		if !ok {
			return false
		}
		f.moveTo(ret.Path(), true, FocusCauseRequest)
		return true
	}
	scopes := []WidgetInfo{cur}
	for a := range cur.Ancestors() {
		scopes = append(scopes, a)
	}
	for _, s := range scopes {
		if !focusInfoOf(s).Scope {
			continue
		}
		for d := range s.Descendants() {
			if !focusInfoOf(d).AltScope || !canFocus(d) || cur.IsDescendantOf(d) || d.idx == cur.idx {
				continue
			}
			target, ok := f.enterScope(d, false)
			if !ok {
				continue
			}
			f.setAlt(altState{scope: d.Path(), ret: f.focused})
			f.moveTo(target.Path(), true, FocusCauseRequest)
			return true
		}
	}
	return false
}

// --- Navigation ---

// nextTab returns the widget Tab (or Shift+Tab when prev is set) moves to
// from w.
func (f *FocusManager) nextTab(w WidgetInfo, prev bool) (WidgetInfo, bool) {
	scope, ok := focusScopeOf(w)
	if !ok {
		return WidgetInfo{}, false
	}
	fi := focusInfoOf(scope)
	switch fi.TabNav {
	case TabNavNone:
		return WidgetInfo{}, false
	case TabNavOnce:
		return f.nextTab(scope, prev)
	}
	items := tabOrder(scopeItems(scope))
	if next, ok := stepTab(items, w, prev); ok {
		return f.resolveTab(next, prev)
	}
	switch fi.TabNav {
	case TabNavContinue:
		return f.nextTab(scope, prev)
	case TabNavCycle:
		items = slices.DeleteFunc(items, func(x WidgetInfo) bool { return focusInfoOf(x).TabIndex.IsSkip() })
		if len(items) == 0 {
			break
		}
		wrap := items[0]
		if prev {
			wrap = items[len(items)-1]
		}
		if wrap.idx != w.idx {
			return f.resolveTab(wrap, prev)
		}
	}
	return WidgetInfo{}, false
}

func (f *FocusManager) resolveTab(w WidgetInfo, prev bool) (WidgetInfo, bool) {
	if focusInfoOf(w).Scope {
		return f.enterScope(w, prev)
	}
	return w, true
}

// stepTab returns the item after (or before) w in the sorted items. A widget
// with TabIndexSkip steps in tree order.
func stepTab(items []WidgetInfo, w WidgetInfo, prev bool) (WidgetInfo, bool) {
	i := slices.IndexFunc(items, func(x WidgetInfo) bool { return x.idx == w.idx })
	if i < 0 || focusInfoOf(w).TabIndex.IsSkip() {
		byTree := slices.Clone(items)
		slices.SortFunc(byTree, func(a, b WidgetInfo) int { return cmp.Compare(a.idx, b.idx) })
		if prev {
			slices.Reverse(byTree)
		}
		for _, x := range byTree {
			if focusInfoOf(x).TabIndex.IsSkip() {
				continue
			}
			if (!prev && x.idx > w.idx) || (prev && x.idx < w.idx) {
				return x, true
			}
		}
		return WidgetInfo{}, false
	}
	j := i + 1
	if prev {
		j = i - 1
	}
	if j < 0 || j >= len(items) || focusInfoOf(items[j]).TabIndex.IsSkip() {
		return WidgetInfo{}, false
	}
	return items[j], true
}

type navDirection uint8

const (
	dirUp navDirection = iota
	dirDown
	dirLeft
	dirRight
)

// nextDirectional returns the widget an arrow key moves to from w.
func (f *FocusManager) nextDirectional(w WidgetInfo, d navDirection) (WidgetInfo, bool) {
	scope, ok := focusScopeOf(w)
	if !ok {
		return WidgetInfo{}, false
	}
	fi := focusInfoOf(scope)
	if fi.DirectionalNav == DirectionalNone {
		return WidgetInfo{}, false
	}
	from := w.InnerBounds().Center()
	if t, ok := nearestInDirection(scope, from, w, d); ok {
		return f.resolveTab(t, false)
	}
	switch fi.DirectionalNav {
	case DirectionalContinue:
		return f.nextDirectional(scope, d)
	case DirectionalCycle:
		sb := scope.InnerBounds()
		switch d {
		case dirUp:
			from.Y = sb.MaxY()
		case dirDown:
			from.Y = sb.Y
		case dirLeft:
			from.X = sb.MaxX()
		case dirRight:
			from.X = sb.X
		}
		if t, ok := nearestInDirection(scope, from, w, d); ok {
			return f.resolveTab(t, false)
		}
	}
	return WidgetInfo{}, false
}

// nearestInDirection returns the item of scope closest to from whose center
// lies in the 90 degree cone facing d. Candidates come from the spatial index
// of the tree, so only rendered widgets are considered.
func nearestInDirection(scope WidgetInfo, from Point, skip WidgetInfo, d navDirection) (WidgetInfo, bool) {
	items := make(map[int]struct{})
	for _, w := range scopeItems(scope) {
		items[w.idx] = struct{}{}
	}
	include := func(r Rect) bool {
		switch d {
		case dirUp:
			return r.Y < from.Y
		case dirDown:
			return r.MaxY() > from.Y
		case dirLeft:
			return r.X < from.X
		}
		return r.MaxX() > from.X
	}
	var (
		best     WidgetInfo
		bestDist = math.Inf(1)
		found    bool
	)
	for i := range scope.tree.spatial.QueryDedup(include) {
		if _, ok := items[i]; !ok || i == skip.idx {
			continue
		}
		c := WidgetInfo{scope.tree, i}.InnerBounds().Center()
		var fwd, lat float64
		switch d {
		case dirUp:
			fwd, lat = from.Y-c.Y, c.X-from.X
		case dirDown:
			fwd, lat = c.Y-from.Y, c.X-from.X
		case dirLeft:
			fwd, lat = from.X-c.X, c.Y-from.Y
		case dirRight:
			fwd, lat = c.X-from.X, c.Y-from.Y
		}
		if fwd <= 0 || math.Abs(lat) > fwd {
			continue
		}
		dist := fwd*fwd + lat*lat
		if dist < bestDist || (dist == bestDist && i < best.idx) {
			best, bestDist, found = WidgetInfo{scope.tree, i}, dist, true
		}
	}
	return best, found
}

// --- Tree queries ---

// focusInfoOf returns the focus metadata of w. Window roots are always
// scopes, cycling by default.
func focusInfoOf(w WidgetInfo) FocusInfo {
	fi, ok := GetState(w.Meta(), FocusMetaID)
	if !ok {
		fi.TabIndex = TabIndexAuto
	}
	if _, hasParent := w.Parent(); !hasParent {
		if !ok {
			fi.TabNav, fi.DirectionalNav = TabNavCycle, DirectionalCycle
		}
		fi.Scope = true
	}
	return fi
}

// canFocus reports whether w can hold the focus. Scopes other than the root
// can be focused; they pass the focus on to a descendant.
func canFocus(w WidgetInfo) bool {
	if !w.Interactivity().IsEnabled() {
		return false
	}
	fi := focusInfoOf(w)
	if fi.Focusable {
		return true
	}
	_, hasParent := w.Parent()
	return fi.Scope && hasParent
}

func focusScopeOf(w WidgetInfo) (WidgetInfo, bool) {
	for a := range w.Ancestors() {
		if focusInfoOf(a).Scope {
			return a, true
		}
	}
	return WidgetInfo{}, false
}

// scopeItems returns the focusable widgets that belong to scope, in tree
// order. Nested scopes are items; their content is not.
func scopeItems(scope WidgetInfo) []WidgetInfo {
	var out []WidgetInfo
	end := scope.node().end
	for i := scope.idx + 1; i < end; {
		w := WidgetInfo{scope.tree, i}
		if canFocus(w) {
			out = append(out, w)
		}
		if focusInfoOf(w).Scope {
			i = w.node().end
			continue
		}
		i++
	}
	return out
}

func tabOrder(items []WidgetInfo) []WidgetInfo {
	slices.SortStableFunc(items, func(a, b WidgetInfo) int {
		return cmp.Compare(focusInfoOf(a).TabIndex, focusInfoOf(b).TabIndex)
	})
	return items
}

// --- Input ---

var navKeys = map[NamedKey]FocusTarget{
	NamedArrowUp:    FocusTargetUp,
	NamedArrowDown:  FocusTargetDown,
	NamedArrowLeft:  FocusTargetLeft,
	NamedArrowRight: FocusTargetRight,
	NamedEscape:     FocusTargetExit,
}

func (f *FocusManager) onKey(args *KeyInputArgs) {
	if args.Key.Named == NamedAlt {
		switch {
		case args.State == Pressed && args.RepeatCount == 0:
			f.altKey = true
		case args.State == Released && f.altKey:
			f.altKey = false
			f.Focus(FocusRequest{Target: FocusTargetAlt, Highlight: true, window: args.Window})
		}
		return
	}
	if args.State != Pressed {
		return
	}
	f.altKey = false
	if args.Propagation().IsStopped() {
		return
	}
	req := FocusRequest{Highlight: true, window: args.Window}
	switch args.Key.Named {
	case NamedTab:
		if args.Modifiers&^ModShift != 0 {
			return
		}
		req.Target = FocusTargetNext
		if args.Modifiers.Has(ModShift) {
			req.Target = FocusTargetPrev
		}
	default:
		t, ok := navKeys[args.Key.Named]
		if !ok || args.Modifiers != 0 {
			return
		}
		req.Target = t
	}
	f.Focus(req)
}

func (f *FocusManager) focusPointer(target InteractionPath) {
	if target.IsZero() {
		return
	}
	f.Focus(FocusRequest{Target: FocusTargetDirectOrParent, Widget: target.WidgetID()})
}

// --- Recovery ---

func (f *FocusManager) onInfoChanged(args *WidgetInfoChangedArgs) {
	if f.parked != nil {
		if f.pending == nil {
			f.pending = f.parked
		}
		f.parked = nil
	}
	if !f.focused.IsZero() && f.focused.Window() == args.Window {
		f.recover = true
	}
	f.pruneReturns(args.Window, args.Tree)
	if f.hasPending() {
		f.app.wakeUp()
	}
}

// recoverFocus moves the focus to the closest focusable widget when the
// focused one left the tree or stopped being focusable.
func (f *FocusManager) recoverFocus() {
	if f.focused.IsZero() {
		return
	}
	w := f.app.windowByID(f.focused.Window())
	if w == nil {
		f.moveTo(WidgetPath{}, false, FocusCauseRecovery)
		return
	}
	if info, ok := w.tree.Get(f.focused.WidgetID()); ok && canFocus(info) {
		if p := info.Path(); !p.Equal(f.focused) {
			f.moveTo(p, f.highlight, FocusCauseRecovery)
		}
		return
	}
	ids := f.focused.IDs()
	for i := len(ids) - 2; i >= 0; i-- {
		info, ok := w.tree.Get(ids[i])
		if !ok {
			continue
		}
		for c := info; ; {
			if canFocus(c) {
				if t, ok := f.resolve(c); ok {
					f.moveTo(t.Path(), f.highlight, FocusCauseRecovery)
					return
				}
			}
			p, ok := c.Parent()
			if !ok {
				break
			}
			c = p
		}
		break
	}
	f.moveTo(WidgetPath{}, false, FocusCauseRecovery)
}

// pruneReturns forgets return paths of win that are no longer in tree.
func (f *FocusManager) pruneReturns(win WindowID, tree *WidgetInfoTree) {
	for _, id := range slices.Sorted(maps.Keys(f.returns)) {
		p := f.returns[id]
		if p.Window() != win {
			continue
		}
		scope, ok := tree.Get(id)
		if !ok {
			f.setReturn(NewWidgetPath(win, id), WidgetPath{})
			continue
		}
		if w, ok := tree.Get(p.WidgetID()); !ok || !w.IsDescendantOf(scope) {
			f.setReturn(scope.Path(), WidgetPath{})
		}
	}
}

// onWindowFocus restores the last focus of a window when it gains focus.
func (f *FocusManager) onWindowFocus(args *RawWindowFocusArgs) {
	if args.New == 0 || (!f.focused.IsZero() && f.focused.Window() == args.New) {
		return
	}
	w := f.app.windowByID(args.New)
	if w == nil {
		return
	}
	root, ok := w.tree.Root()
	if !ok {
		return
	}
	p, ok := f.returns[root.ID()]
	if !ok {
		return
	}
	f.Focus(FocusRequest{Target: FocusTargetDirect, Widget: p.WidgetID(), Highlight: f.highlight, cause: FocusCauseWindow})
}
