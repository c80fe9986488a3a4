package arbor

import (
	lru "github.com/hashicorp/golang-lru"
)

// contextualCacheSize is the number of source versions a mapping over a
// contextual variable remembers.
const contextualCacheSize = 16

// --- Map ---

type mapVar[A, B any] struct {
	id  uint64
	src Var[A]
	f   func(A) B
	// g is nil for read-only mappings.
	g func(B) (A, bool)
	// filter replaces f for filtered mappings; fallback seeds the value
	// until filter first accepts.
	filter   func(A) (B, bool)
	fallback func() B

	value      B
	has        bool
	srcVersion VarVersion
	count      uint64
	cache      *lru.Cache
}

// Map returns a read-only variable whose value is f(src). f runs lazily on
// read, at most once per source version.
//
// When src is contextual the mapping keeps one value per active binding, so
// reads from different contexts never see each other's results.
func Map[A, B any](src Var[A], f func(A) B) Var[B] {
	return newMapVar(src, f, nil, nil, nil)
}

// MapBidi returns a variable whose value is f(src). Writes to it are
// forwarded to src as g(value).
func MapBidi[A, B any](src Var[A], f func(A) B, g func(B) A) Var[B] {
	return newMapVar(src, f, func(b B) (A, bool) { return g(b), true }, nil, nil)
}

// FilterMapBidi is like MapBidi but either direction may reject a value.
// A rejected forward value keeps the previous result (fallback before the
// first accepted value). A rejected write is dropped silently.
func FilterMapBidi[A, B any](src Var[A], f func(A) (B, bool), g func(B) (A, bool), fallback func() B) Var[B] {
	return newMapVar(src, nil, g, f, fallback)
}

func newMapVar[A, B any](src Var[A], f func(A) B, g func(B) (A, bool), filter func(A) (B, bool), fallback func() B) *mapVar[A, B] {
	m := &mapVar[A, B]{id: newVarID(), src: src, f: f, g: g, filter: filter, fallback: fallback}
	if src.Caps()&CapContextual != 0 {
		// lru.New only fails for a non-positive size.
		m.cache, _ = lru.New(contextualCacheSize)
	}
	return m
}

type mapEntry[B any] struct {
	value B
	count uint64
}

func (m *mapVar[A, B]) sync() {
	v := m.src.Version()
	if m.has && v == m.srcVersion {
		return
	}
	if m.cache != nil {
		if e, ok := m.cache.Get(v); ok {
			entry := e.(mapEntry[B])
			m.value, m.count = entry.value, entry.count
			m.srcVersion, m.has = v, true
			return
		}
	}
	if m.filter != nil {
		b, ok := m.filter(m.src.Get())
		switch {
		case ok:
			m.value = b
		case !m.has && m.fallback != nil:
			m.value = m.fallback()
		}
	} else {
		m.value = m.f(m.src.Get())
	}
	m.count++
	m.srcVersion, m.has = v, true
	if m.cache != nil {
		m.cache.Add(v, mapEntry[B]{m.value, m.count})
	}
}

func (m *mapVar[A, B]) Get() B {
	m.sync()
	return m.value
}

func (m *mapVar[A, B]) IsNew() bool { return m.src.IsNew() }

func (m *mapVar[A, B]) LastUpdate() UpdateID { return m.src.LastUpdate() }

func (m *mapVar[A, B]) Importance() Importance { return m.src.Importance() }

func (m *mapVar[A, B]) IsAnimating() bool { return m.src.IsAnimating() }

func (m *mapVar[A, B]) Version() VarVersion {
	m.sync()
	return VarVersion{m.id, m.count}
}

func (m *mapVar[A, B]) Caps() VarCaps {
	c := m.src.Caps()
	if m.g == nil {
		c &^= CapModify
	}
	return c
}

func (m *mapVar[A, B]) Hook(fn func(B) bool) VarHandle {
	return m.src.HookAny(func() bool { return fn(m.Get()) })
}

func (m *mapVar[A, B]) HookAny(fn func() bool) VarHandle {
	return m.src.HookAny(fn)
}

func (m *mapVar[A, B]) Modify(fn func(*VarModify[B])) error {
	if m.g == nil {
		return ErrVarReadOnly
	}
	return m.src.Modify(func(sm *VarModify[A]) {
		var cur B
		if m.filter != nil {
			b, ok := m.filter(sm.Get())
			if !ok {
				b = m.Get()
			}
			cur = b
		} else {
			cur = m.f(sm.Get())
		}
		bm := VarModify[B]{value: cur}
		fn(&bm)
		if !bm.touched {
			return
		}
		if a, ok := m.g(bm.value); ok {
			sm.Set(a)
		}
	})
}

func (m *mapVar[A, B]) Set(v B) error {
	return m.Modify(func(bm *VarModify[B]) { bm.Set(v) })
}

// --- Bindings ---

// Bind sets dst to f(value) every time src changes. A binding to a *RwVar
// does not keep dst alive.
func Bind[A, B any](src Var[A], dst Var[B], f func(A) B) VarHandle {
	set := weakSetter(dst)
	return src.Hook(func(a A) bool { return set(f(a)) })
}

// BindMap is Bind with the identity mapping.
func BindMap[T any](src Var[T], dst Var[T]) VarHandle {
	return Bind(src, dst, func(v T) T { return v })
}

// SetBind sets dst to f(src) now and then binds it.
func SetBind[A, B any](src Var[A], dst Var[B], f func(A) B) VarHandle {
	_ = dst.Set(f(src.Get()))
	return Bind(src, dst, f)
}

// BindBidi keeps a and b in sync in both directions. A change that arrives
// from the other side in the same update cycle is not echoed back.
func BindBidi[A, B any](a Var[A], b Var[B], f func(A) B, g func(B) A) VarHandles {
	setB := weakSetter(b)
	setA := weakSetter(a)
	ha := a.Hook(func(v A) bool {
		if b.IsNew() {
			return true
		}
		return setB(f(v))
	})
	hb := b.Hook(func(v B) bool {
		if a.IsNew() {
			return true
		}
		return setA(g(v))
	})
	return VarHandles{ha, hb}
}

// --- Merge ---

type mergeVar[T any] struct {
	id     uint64
	inputs []AnyVar
	f      func() T

	value    T
	has      bool
	versions []VarVersion
	count    uint64
}

// Merge returns a read-only variable computed by f from any number of input
// variables. f reads the inputs itself; it is re-run when any input version
// changes.
func Merge[T any](f func() T, inputs ...AnyVar) Var[T] {
	return &mergeVar[T]{id: newVarID(), inputs: inputs, f: f, versions: make([]VarVersion, len(inputs))}
}

// Merge2 merges two typed inputs.
func Merge2[A, B, T any](a Var[A], b Var[B], f func(A, B) T) Var[T] {
	return Merge(func() T { return f(a.Get(), b.Get()) }, a, b)
}

func (m *mergeVar[T]) sync() {
	changed := !m.has
	for i, in := range m.inputs {
		v := in.Version()
		if v != m.versions[i] {
			m.versions[i] = v
			changed = true
		}
	}
	if !changed {
		return
	}
	m.value = m.f()
	m.has = true
	m.count++
}

func (m *mergeVar[T]) Get() T {
	m.sync()
	return m.value
}

func (m *mergeVar[T]) Version() VarVersion {
	m.sync()
	return VarVersion{m.id, m.count}
}

func (m *mergeVar[T]) IsNew() bool {
	for _, in := range m.inputs {
		if in.IsNew() {
			return true
		}
	}
	return false
}

func (m *mergeVar[T]) LastUpdate() UpdateID {
	var last UpdateID
	for _, in := range m.inputs {
		if u := in.LastUpdate(); u > last {
			last = u
		}
	}
	return last
}

func (m *mergeVar[T]) Caps() VarCaps {
	var c VarCaps
	for _, in := range m.inputs {
		c |= in.Caps()
	}
	return c &^ CapModify
}

func (m *mergeVar[T]) Importance() Importance {
	var imp Importance
	for _, in := range m.inputs {
		if i := in.Importance(); i > imp {
			imp = i
		}
	}
	return imp
}

func (m *mergeVar[T]) IsAnimating() bool {
	for _, in := range m.inputs {
		if in.IsAnimating() {
			return true
		}
	}
	return false
}

func (m *mergeVar[T]) Hook(fn func(T) bool) VarHandle {
	return m.HookAny(func() bool { return fn(m.Get()) })
}

// HookAny subscribes to every input; the returned handle releases all of them.
func (m *mergeVar[T]) HookAny(fn func() bool) VarHandle {
	e := &hookEntry{}
	for _, in := range m.inputs {
		in.HookAny(func() bool {
			if e.dead {
				return false
			}
			if !fn() {
				e.dead = true
				return false
			}
			return true
		})
	}
	return VarHandle{e: e}
}

func (m *mergeVar[T]) Modify(func(*VarModify[T])) error { return ErrVarReadOnly }

func (m *mergeVar[T]) Set(T) error { return ErrVarReadOnly }
