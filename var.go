package arbor

import (
	"sync/atomic"
	"weak"
)

// Importance ranks the writers of a variable. Direct writes always take a
// fresh, higher importance; an animation keeps the importance it was started
// with, so its writes stop being applied after any newer write.
type Importance uint64

// VarCaps describes what a variable can do.
type VarCaps uint8

const (
	CapNew        VarCaps = 1 << iota // value can change
	CapModify                         // writes are accepted
	CapContextual                     // value depends on the context variable stack
)

// VarVersion identifies one value of a variable. Two versions are equal only
// if they come from the same source with the same change count.
type VarVersion struct {
	Source uint64
	Count  uint64
}

var varIDCounter atomic.Uint64

func newVarID() uint64 { return varIDCounter.Add(1) }

// AnyVar is the type-erased part of Var.
type AnyVar interface {
	// IsNew reports whether the value changed in the current update cycle.
	IsNew() bool
	// LastUpdate returns the update cycle of the last change.
	LastUpdate() UpdateID
	Version() VarVersion
	Caps() VarCaps
	Importance() Importance
	IsAnimating() bool
	// HookAny registers fn to be called after every change. fn returns false
	// to unsubscribe.
	HookAny(fn func() bool) VarHandle
}

// Var is an observable value cell.
type Var[T any] interface {
	AnyVar
	Get() T
	// Hook registers fn to be called with the new value after every change.
	// fn returns false to unsubscribe.
	Hook(fn func(T) bool) VarHandle
	// Modify schedules fn to run during the next UPDATE phase. The value only
	// changes if fn marks the VarModify as touched.
	Modify(fn func(*VarModify[T])) error
	// Set schedules a replacement of the value.
	Set(v T) error
}

// VarModify is the mutable view of a value passed to Modify callbacks.
type VarModify[T any] struct {
	value   T
	touched bool
}

// Get returns the current value.
func (m *VarModify[T]) Get() T { return m.value }

// Set replaces the value.
func (m *VarModify[T]) Set(v T) {
	m.value = v
	m.touched = true
}

// ToMut returns a pointer to the value and marks it touched.
func (m *VarModify[T]) ToMut() *T {
	m.touched = true
	return &m.value
}

// Update marks the value touched without changing it, so hooks and
// subscribers see a new version.
func (m *VarModify[T]) Update() { m.touched = true }

// IsTouched reports whether the callback changed the value.
func (m *VarModify[T]) IsTouched() bool { return m.touched }

// --- Hooks ---

type hookEntry struct {
	dead bool
}

// VarHandle unsubscribes a hook or binding.
type VarHandle struct {
	e *hookEntry
}

// Unsubscribe removes the hook. Safe to call on a zero handle.
func (h VarHandle) Unsubscribe() {
	if h.e != nil {
		h.e.dead = true
	}
}

// IsDummy reports whether the handle refers to no hook, as returned by
// variables that never change.
func (h VarHandle) IsDummy() bool { return h.e == nil }

// VarHandles is a set of handles released together.
type VarHandles []VarHandle

// Unsubscribe releases every handle.
func (hs VarHandles) Unsubscribe() {
	for _, h := range hs {
		h.Unsubscribe()
	}
}

type hook[T any] struct {
	e  *hookEntry
	fn func(T) bool
}

type hookList[T any] struct {
	hooks []hook[T]
}

func (l *hookList[T]) add(fn func(T) bool) VarHandle {
	e := &hookEntry{}
	l.hooks = append(l.hooks, hook[T]{e: e, fn: fn})
	return VarHandle{e: e}
}

// notify calls every live hook with v. Hooks added during notification are
// not called for this value.
func (l *hookList[T]) notify(v T) {
	n := len(l.hooks)
	for i := 0; i < n; i++ {
		h := l.hooks[i]
		if h.e.dead {
			continue
		}
		if !h.fn(v) {
			h.e.dead = true
		}
	}
	live := l.hooks[:0]
	for _, h := range l.hooks {
		if !h.e.dead {
			live = append(live, h)
		}
	}
	for i := len(live); i < len(l.hooks); i++ {
		l.hooks[i] = hook[T]{}
	}
	l.hooks = live
}

func (l *hookList[T]) len() int { return len(l.hooks) }

// --- RwVar ---

// RwVar is a shared read-write variable owned by an App.
type RwVar[T any] struct {
	app        *App
	id         uint64
	value      T
	lastUpdate UpdateID
	count      uint64
	importance Importance
	anim       *animationState
	hooks      hookList[T]
}

// NewVar returns a new read-write variable with initial value v.
func NewVar[T any](app *App, v T) *RwVar[T] {
	if app == nil {
		panic("arbor: NewVar requires an App")
	}
	return &RwVar[T]{app: app, id: newVarID(), value: v}
}

// Get returns the current value.
func (v *RwVar[T]) Get() T { return v.value }

// IsNew reports whether the value changed in the current update cycle.
func (v *RwVar[T]) IsNew() bool {
	return v.count > 0 && v.lastUpdate == v.app.updateID
}

// LastUpdate returns the update cycle of the last change.
func (v *RwVar[T]) LastUpdate() UpdateID { return v.lastUpdate }

// Version returns the current value version.
func (v *RwVar[T]) Version() VarVersion { return VarVersion{v.id, v.count} }

// Caps returns CapNew | CapModify.
func (v *RwVar[T]) Caps() VarCaps { return CapNew | CapModify }

// Importance returns the importance of the last accepted write.
func (v *RwVar[T]) Importance() Importance { return v.importance }

// IsAnimating reports whether the last accepted write came from a running
// animation.
func (v *RwVar[T]) IsAnimating() bool { return v.anim != nil && !v.anim.stopped }

// Hook registers fn to run after every change.
func (v *RwVar[T]) Hook(fn func(T) bool) VarHandle { return v.hooks.add(fn) }

// HookAny registers fn to run after every change.
func (v *RwVar[T]) HookAny(fn func() bool) VarHandle {
	return v.hooks.add(func(T) bool { return fn() })
}

// Modify schedules fn for the next UPDATE phase.
func (v *RwVar[T]) Modify(fn func(*VarModify[T])) error {
	imp, anim := v.app.writeImportance()
	v.app.scheduleModify(func() { v.apply(fn, imp, anim) })
	return nil
}

// Set schedules a replacement of the value.
func (v *RwVar[T]) Set(x T) error {
	return v.Modify(func(m *VarModify[T]) { m.Set(x) })
}

func (v *RwVar[T]) apply(fn func(*VarModify[T]), imp Importance, anim *animationState) {
	if anim != nil && imp < v.importance {
		return
	}
	m := VarModify[T]{value: v.value}
	fn(&m)
	if !m.touched {
		return
	}
	v.value = m.value
	v.lastUpdate = v.app.updateID
	v.count++
	v.importance = imp
	v.anim = anim
	v.app.vars.applied++

	// Writes made by hooks inherit the animation of this write.
	prev := v.app.vars.anim
	v.app.vars.anim = anim
	v.hooks.notify(v.value)
	v.app.vars.anim = prev
}

// SetNe schedules v := x only if the current value differs at apply time.
func SetNe[T comparable](v Var[T], x T) error {
	return v.Modify(func(m *VarModify[T]) {
		if m.Get() != x {
			m.Set(x)
		}
	})
}

// --- Const ---

type constVar[T any] struct {
	id uint64
	v  T
}

// Const returns a variable that never changes.
func Const[T any](v T) Var[T] { return &constVar[T]{id: newVarID(), v: v} }

func (c *constVar[T]) Get() T { return c.v }
func (c *constVar[T]) IsNew() bool { return false }
func (c *constVar[T]) LastUpdate() UpdateID { return 0 }
func (c *constVar[T]) Version() VarVersion { return VarVersion{Source: c.id} }
func (c *constVar[T]) Caps() VarCaps { return 0 }
func (c *constVar[T]) Importance() Importance { return 0 }
func (c *constVar[T]) IsAnimating() bool { return false }
func (c *constVar[T]) Hook(func(T) bool) VarHandle { return VarHandle{} }
func (c *constVar[T]) HookAny(func() bool) VarHandle { return VarHandle{} }
func (c *constVar[T]) Modify(func(*VarModify[T])) error { return ErrVarReadOnly }
func (c *constVar[T]) Set(T) error { return ErrVarReadOnly }

// --- ReadOnly ---

type readOnlyVar[T any] struct {
	Var[T]
}

// ReadOnly returns a view of v that rejects writes with ErrVarReadOnly.
func ReadOnly[T any](v Var[T]) Var[T] {
	if r, ok := v.(readOnlyVar[T]); ok {
		return r
	}
	return readOnlyVar[T]{v}
}

func (r readOnlyVar[T]) Caps() VarCaps { return r.Var.Caps() &^ CapModify }
func (r readOnlyVar[T]) Modify(func(*VarModify[T])) error { return ErrVarReadOnly }
func (r readOnlyVar[T]) Set(T) error { return ErrVarReadOnly }

// --- Sender ---

// VarSender sets a variable from any goroutine. Values are applied in the
// RECEIVE phase of the next cycle.
type VarSender[T any] struct {
	app *App
	v   Var[T]
}

// NewVarSender returns a goroutine-safe setter for v.
func NewVarSender[T any](app *App, v Var[T]) VarSender[T] {
	return VarSender[T]{app: app, v: v}
}

// Send queues x. It does not block on the UI goroutine.
func (s VarSender[T]) Send(x T) {
	s.app.Post(func() { _ = s.v.Set(x) })
}

// --- Weak targets ---

// weakSetter returns a function that sets dst while dst is alive. A binding
// to a *RwVar does not keep the target alive; the hook drops itself once the
// target is collected.
func weakSetter[T any](dst Var[T]) func(T) bool {
	if rw, ok := dst.(*RwVar[T]); ok {
		wp := weak.Make(rw)
		return func(x T) bool {
			t := wp.Value()
			if t == nil {
				return false
			}
			_ = t.Set(x)
			return true
		}
	}
	return func(x T) bool {
		return dst.Set(x) == nil
	}
}
