package arbor

// ContextVar is a statically declared variable whose value depends on where
// it is read. Subtrees bind it to another variable with WithContextVar; reads
// outside any binding see the default.
//
// Bindings live in a stack owned by the variable. The stack is only touched
// from the UI goroutine while the scheduler walks a subtree.
type ContextVar[T any] struct {
	id    uint64
	name  string
	def   Var[T]
	stack []Var[T]
	// shadow holds the stack index of every binding being evaluated. A read
	// nested inside the evaluation of binding i resolves to binding i-1, so a
	// binding that reads the same context variable sees the outer value.
	shadow []int
}

// NewContextVar declares a context variable with a constant default.
func NewContextVar[T any](name string, def T) *ContextVar[T] {
	return &ContextVar[T]{id: newVarID(), name: name, def: Const(def)}
}

// NewContextVarFrom declares a context variable whose default is another variable.
func NewContextVarFrom[T any](name string, def Var[T]) *ContextVar[T] {
	return &ContextVar[T]{id: newVarID(), name: name, def: def}
}

// Name returns the declared name.
func (c *ContextVar[T]) Name() string { return c.name }

// Push binds the variable to v until the matching Pop.
func (c *ContextVar[T]) Push(v Var[T]) { c.stack = append(c.stack, v) }

// Pop removes the innermost binding.
func (c *ContextVar[T]) Pop() {
	if len(c.stack) == 0 {
		panic("arbor: ContextVar.Pop without Push")
	}
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]
}

// With runs fn with the variable bound to v.
func (c *ContextVar[T]) With(v Var[T], fn func()) {
	c.Push(v)
	defer c.Pop()
	fn()
}

// Depth returns the number of active bindings.
func (c *ContextVar[T]) Depth() int { return len(c.stack) }

func (c *ContextVar[T]) resolve() (Var[T], int) {
	i := len(c.stack) - 1
	if n := len(c.shadow); n > 0 && c.shadow[n-1]-1 < i {
		i = c.shadow[n-1] - 1
	}
	if i < 0 {
		return c.def, -1
	}
	return c.stack[i], i
}

// Active returns the variable the context variable currently resolves to.
func (c *ContextVar[T]) Active() Var[T] {
	v, _ := c.resolve()
	return v
}

func (c *ContextVar[T]) enter() (Var[T], func()) {
	v, i := c.resolve()
	c.shadow = append(c.shadow, i)
	return v, func() { c.shadow = c.shadow[:len(c.shadow)-1] }
}

// Get returns the value of the active binding.
func (c *ContextVar[T]) Get() T {
	v, leave := c.enter()
	defer leave()
	return v.Get()
}

func (c *ContextVar[T]) IsNew() bool {
	v, leave := c.enter()
	defer leave()
	return v.IsNew()
}

func (c *ContextVar[T]) LastUpdate() UpdateID {
	v, leave := c.enter()
	defer leave()
	return v.LastUpdate()
}

// Version returns the version of the active binding. Versions of different
// bindings never compare equal.
func (c *ContextVar[T]) Version() VarVersion {
	v, leave := c.enter()
	defer leave()
	return v.Version()
}

func (c *ContextVar[T]) Caps() VarCaps {
	v, leave := c.enter()
	defer leave()
	return v.Caps() | CapContextual
}

func (c *ContextVar[T]) Importance() Importance {
	v, leave := c.enter()
	defer leave()
	return v.Importance()
}

func (c *ContextVar[T]) IsAnimating() bool {
	v, leave := c.enter()
	defer leave()
	return v.IsAnimating()
}

// Hook subscribes to the variable active at the time of the call.
func (c *ContextVar[T]) Hook(fn func(T) bool) VarHandle {
	return c.Active().Hook(fn)
}

// HookAny subscribes to the variable active at the time of the call.
func (c *ContextVar[T]) HookAny(fn func() bool) VarHandle {
	return c.Active().HookAny(fn)
}

// Modify writes to the active binding.
func (c *ContextVar[T]) Modify(fn func(*VarModify[T])) error {
	return c.Active().Modify(fn)
}

// Set writes to the active binding.
func (c *ContextVar[T]) Set(v T) error {
	return c.Active().Set(v)
}

// --- When ---

// WhenBuilder assembles a conditional variable.
type WhenBuilder[T any] struct {
	def    Var[T]
	conds  []Var[bool]
	values []Var[T]
}

// When starts a conditional variable that resolves to def when no condition
// holds.
func When[T any](def Var[T]) *WhenBuilder[T] {
	return &WhenBuilder[T]{def: def}
}

// Case adds a condition. Earlier cases win.
func (b *WhenBuilder[T]) Case(cond Var[bool], value Var[T]) *WhenBuilder[T] {
	b.conds = append(b.conds, cond)
	b.values = append(b.values, value)
	return b
}

// Build returns the conditional variable. Writes go to the active value.
func (b *WhenBuilder[T]) Build() Var[T] {
	return &whenVar[T]{
		id:     newVarID(),
		def:    b.def,
		conds:  append([]Var[bool](nil), b.conds...),
		values: append([]Var[T](nil), b.values...),
	}
}

type whenVar[T any] struct {
	id     uint64
	def    Var[T]
	conds  []Var[bool]
	values []Var[T]

	lastIndex   int
	lastVersion VarVersion
	has         bool
	count       uint64
}

func (w *whenVar[T]) active() (Var[T], int) {
	for i, c := range w.conds {
		if c.Get() {
			return w.values[i], i
		}
	}
	return w.def, -1
}

func (w *whenVar[T]) Get() T {
	v, _ := w.active()
	return v.Get()
}

func (w *whenVar[T]) Version() VarVersion {
	v, i := w.active()
	ver := v.Version()
	if !w.has || i != w.lastIndex || ver != w.lastVersion {
		w.lastIndex, w.lastVersion, w.has = i, ver, true
		w.count++
	}
	return VarVersion{w.id, w.count}
}

func (w *whenVar[T]) IsNew() bool {
	for _, c := range w.conds {
		if c.IsNew() {
			return true
		}
	}
	v, _ := w.active()
	return v.IsNew()
}

func (w *whenVar[T]) LastUpdate() UpdateID {
	v, _ := w.active()
	last := v.LastUpdate()
	for _, c := range w.conds {
		if u := c.LastUpdate(); u > last {
			last = u
		}
	}
	return last
}

func (w *whenVar[T]) Caps() VarCaps {
	c := w.def.Caps()
	for i := range w.conds {
		c |= w.conds[i].Caps() | w.values[i].Caps()
	}
	return c
}

func (w *whenVar[T]) Importance() Importance {
	v, _ := w.active()
	return v.Importance()
}

func (w *whenVar[T]) IsAnimating() bool {
	v, _ := w.active()
	return v.IsAnimating()
}

func (w *whenVar[T]) Hook(fn func(T) bool) VarHandle {
	return w.HookAny(func() bool { return fn(w.Get()) })
}

// HookAny subscribes to every condition and value.
func (w *whenVar[T]) HookAny(fn func() bool) VarHandle {
	inputs := make([]AnyVar, 0, 1+2*len(w.conds))
	inputs = append(inputs, w.def)
	for i := range w.conds {
		inputs = append(inputs, w.conds[i], w.values[i])
	}
	e := &hookEntry{}
	for _, in := range inputs {
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

func (w *whenVar[T]) Modify(fn func(*VarModify[T])) error {
	v, _ := w.active()
	return v.Modify(fn)
}

func (w *whenVar[T]) Set(x T) error {
	v, _ := w.active()
	return v.Set(x)
}
