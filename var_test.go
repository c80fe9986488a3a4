package arbor

import (
	"errors"
	"testing"
	"time"
)

func newTestApp(t *testing.T, opts ...Option) (*App, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Unix(1000, 0))
	app := NewApp(append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(app.Shutdown)
	return app, clock
}

// --- RwVar ---

func TestVarSetAppliesInNextUpdate(t *testing.T) {
	app, _ := newTestApp(t)
	v := NewVar(app, 1)

	if err := v.Set(2); err != nil {
		t.Fatal(err)
	}
	if got := v.Get(); got != 1 {
		t.Errorf("before update Get() = %d, want 1", got)
	}
	app.Update()
	if got := v.Get(); got != 2 {
		t.Errorf("after update Get() = %d, want 2", got)
	}
	if !v.IsNew() {
		t.Error("IsNew() = false after change")
	}
	app.Update()
	if v.IsNew() {
		t.Error("IsNew() = true one cycle later")
	}
}

func TestIsNewClearsOnIdleCycles(t *testing.T) {
	app, clock := newTestApp(t)
	v := NewVar(app, 0)
	_ = v.Set(1)
	app.Update()
	changed := app.UpdateID()
	if !v.IsNew() || v.LastUpdate() != changed {
		t.Fatalf("IsNew %v LastUpdate %d, want true %d", v.IsNew(), v.LastUpdate(), changed)
	}

	for range 3 {
		app.Update()
	}
	if got := app.UpdateID(); got != changed+3 {
		t.Errorf("UpdateID = %d after 3 idle cycles, want %d", got, changed+3)
	}

	var seen []bool
	h := pingEvent.On(app, func(*pingArgs) { seen = append(seen, v.IsNew()) })
	defer h.Unsubscribe()
	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Search: true})
	app.Update()
	if len(seen) != 1 || seen[0] {
		t.Errorf("handler saw IsNew %v, want [false]", seen)
	}
}

func TestApplyIDCountsPasses(t *testing.T) {
	app, _ := newTestApp(t)
	a := NewVar(app, 0)
	b := NewVar(app, 0)
	a.Hook(func(x int) bool { _ = b.Set(x); return true })

	before := app.ApplyID()
	_ = a.Set(1)
	app.Update()
	if app.ApplyID() == before {
		t.Error("ApplyID did not advance")
	}
	if a.LastUpdate() != b.LastUpdate() {
		t.Errorf("chained write landed in cycle %d, source in %d", b.LastUpdate(), a.LastUpdate())
	}

	idle := app.ApplyID()
	app.Update()
	if app.ApplyID() != idle {
		t.Error("idle cycle ran an UPDATE pass")
	}
}

func TestBindOneWaySameCycle(t *testing.T) {
	app, _ := newTestApp(t)
	n := NewVar(app, 0)
	m := NewVar(app, 0)
	Bind[int, int](n, m, func(x int) int { return x + 1 })

	_ = n.Set(10)
	app.Update()

	if n.Get() != 10 || m.Get() != 11 {
		t.Errorf("n, m = %d, %d; want 10, 11", n.Get(), m.Get())
	}
	if !n.IsNew() || !m.IsNew() {
		t.Errorf("IsNew n, m = %v, %v; want true, true", n.IsNew(), m.IsNew())
	}
	if n.LastUpdate() != m.LastUpdate() {
		t.Errorf("LastUpdate n, m = %d, %d; want equal", n.LastUpdate(), m.LastUpdate())
	}
}

func TestModifyUntouchedKeepsVersion(t *testing.T) {
	app, _ := newTestApp(t)
	v := NewVar(app, "a")
	before := v.Version()
	calls := 0
	v.Hook(func(string) bool { calls++; return true })

	_ = v.Modify(func(m *VarModify[string]) { _ = m.Get() })
	_ = SetNe[string](v, "a")
	app.Update()

	if v.Version() != before {
		t.Errorf("Version = %v, want %v", v.Version(), before)
	}
	if calls != 0 {
		t.Errorf("hook calls = %d, want 0", calls)
	}
}

func TestModifyUpdateNotifiesWithoutChange(t *testing.T) {
	app, _ := newTestApp(t)
	v := NewVar(app, 5)
	calls := 0
	v.Hook(func(int) bool { calls++; return true })

	_ = v.Modify(func(m *VarModify[int]) { m.Update() })
	app.Update()

	if calls != 1 || v.Get() != 5 {
		t.Errorf("calls, value = %d, %d; want 1, 5", calls, v.Get())
	}
}

func TestHookUnsubscribe(t *testing.T) {
	app, _ := newTestApp(t)
	v := NewVar(app, 0)
	var seen []int
	h := v.Hook(func(x int) bool { seen = append(seen, x); return true })
	once := 0
	v.Hook(func(int) bool { once++; return false })

	_ = v.Set(1)
	app.Update()
	h.Unsubscribe()
	_ = v.Set(2)
	app.Update()

	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("seen = %v, want [1]", seen)
	}
	if once != 1 {
		t.Errorf("self-removing hook ran %d times, want 1", once)
	}
}

func TestReadOnlyVars(t *testing.T) {
	app, _ := newTestApp(t)
	tests := []struct {
		name string
		v    Var[int]
	}{
		{"const", Const(1)},
		{"read-only", ReadOnly[int](NewVar(app, 1))},
		{"map", Map(Var[int](NewVar(app, 1)), func(x int) int { return x })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.v.Set(2); !errors.Is(err, ErrVarReadOnly) {
				t.Errorf("Set = %v, want ErrVarReadOnly", err)
			}
			if tt.v.Caps()&CapModify != 0 {
				t.Errorf("Caps = %b, has CapModify", tt.v.Caps())
			}
		})
	}
	if !Const(1).Hook(func(int) bool { return true }).IsDummy() {
		t.Error("Const hook handle is not a dummy")
	}
}

func TestVarSenderAppliesOnReceive(t *testing.T) {
	app, _ := newTestApp(t)
	v := NewVar(app, 0)
	s := NewVarSender[int](app, v)

	done := make(chan struct{})
	go func() {
		s.Send(7)
		close(done)
	}()
	<-done
	app.Update()
	if v.Get() != 7 {
		t.Errorf("Get() = %d, want 7", v.Get())
	}
}

// --- Mapping ---

func TestMapIsLazyPerVersion(t *testing.T) {
	app, _ := newTestApp(t)
	src := NewVar(app, 2)
	calls := 0
	m := Map(Var[int](src), func(x int) int { calls++; return x * x })

	if calls != 0 {
		t.Fatalf("f ran %d times before first read", calls)
	}
	_ = m.Get()
	_ = m.Get()
	if m.Get() != 4 || calls != 1 {
		t.Errorf("Get, calls = %d, %d; want 4, 1", m.Get(), calls)
	}
	_ = src.Set(3)
	app.Update()
	if m.Get() != 9 || calls != 2 {
		t.Errorf("after change Get, calls = %d, %d; want 9, 2", m.Get(), calls)
	}
	if !m.IsNew() {
		t.Error("mapped IsNew() = false after source change")
	}
}

func TestMapBidiWritesSource(t *testing.T) {
	app, _ := newTestApp(t)
	celsius := NewVar(app, 100.0)
	fahrenheit := MapBidi(Var[float64](celsius),
		func(c float64) float64 { return c*9/5 + 32 },
		func(f float64) float64 { return (f - 32) * 5 / 9 },
	)
	if fahrenheit.Get() != 212 {
		t.Fatalf("F = %v, want 212", fahrenheit.Get())
	}
	_ = fahrenheit.Set(32)
	app.Update()
	if celsius.Get() != 0 {
		t.Errorf("C = %v, want 0", celsius.Get())
	}
}

func TestFilterMapBidi(t *testing.T) {
	app, _ := newTestApp(t)
	text := NewVar(app, "x")
	num := FilterMapBidi(Var[string](text),
		func(s string) (int, bool) {
			if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
				return int(s[0] - '0'), true
			}
			return 0, false
		},
		func(n int) (string, bool) { return string(rune('0' + n)), n >= 0 && n <= 9 },
		func() int { return -1 },
	)
	if got := num.Get(); got != -1 {
		t.Errorf("fallback = %d, want -1", got)
	}
	_ = text.Set("5")
	app.Update()
	if got := num.Get(); got != 5 {
		t.Errorf("after 5 = %d, want 5", got)
	}
	_ = text.Set("nope")
	app.Update()
	if got := num.Get(); got != 5 {
		t.Errorf("after rejected = %d, want 5 kept", got)
	}
	_ = num.Set(42)
	app.Update()
	if text.Get() != "nope" {
		t.Errorf("rejected write changed source to %q", text.Get())
	}
}

func TestBindBidiDoesNotEcho(t *testing.T) {
	app, _ := newTestApp(t)
	a := NewVar(app, 1)
	b := NewVar(app, 10)
	BindBidi(Var[int](a), Var[int](b),
		func(x int) int { return x * 10 },
		func(x int) int { return x / 10 },
	)
	_ = a.Set(2)
	app.Update()
	if b.Get() != 20 {
		t.Errorf("b = %d, want 20", b.Get())
	}
	_ = b.Set(50)
	app.Update()
	if a.Get() != 5 {
		t.Errorf("a = %d, want 5", a.Get())
	}
	if app.HasPendingUpdates() {
		t.Error("bindings keep echoing")
	}
}

func TestMerge2(t *testing.T) {
	app, _ := newTestApp(t)
	first := NewVar(app, "Ada")
	last := NewVar(app, "Lovelace")
	full := Merge2(Var[string](first), Var[string](last), func(a, b string) string { return a + " " + b })

	if full.Get() != "Ada Lovelace" {
		t.Fatalf("full = %q", full.Get())
	}
	v := full.Version()
	_ = last.Set("Byron")
	app.Update()
	if full.Get() != "Ada Byron" {
		t.Errorf("full = %q, want %q", full.Get(), "Ada Byron")
	}
	if full.Version() == v {
		t.Error("version did not change")
	}
	if !full.IsNew() {
		t.Error("IsNew() = false after input change")
	}
}

func TestWhen(t *testing.T) {
	app, _ := newTestApp(t)
	hovered := NewVar(app, false)
	pressed := NewVar(app, false)
	color := When(Const("normal")).
		Case(pressed, Const("pressed")).
		Case(hovered, Const("hovered")).
		Build()

	steps := []struct {
		hovered, pressed bool
		want             string
	}{
		{false, false, "normal"},
		{true, false, "hovered"},
		{true, true, "pressed"},
		{false, true, "pressed"},
	}
	for _, s := range steps {
		_ = hovered.Set(s.hovered)
		_ = pressed.Set(s.pressed)
		app.Update()
		if got := color.Get(); got != s.want {
			t.Errorf("hovered=%v pressed=%v: %q, want %q", s.hovered, s.pressed, got, s.want)
		}
	}
}

// --- Context variables ---

func TestContextVarMappingPerContext(t *testing.T) {
	k := NewContextVar("k", 0)
	calls := 0
	m := Map[int, int](k, func(x int) int { calls++; return x * 100 })

	var inS, inSibling, inSAgain int
	k.With(Const(1), func() { inS = m.Get() })
	k.With(Const(2), func() { inSibling = m.Get() })
	x := Const(1)
	k.With(x, func() { _ = m.Get() })
	k.With(x, func() { inSAgain = m.Get() })

	if inS != 100 || inSibling != 200 || inSAgain != 100 {
		t.Errorf("reads = %d, %d, %d; want 100, 200, 100", inS, inSibling, inSAgain)
	}
	if got := m.Get(); got != 0 {
		t.Errorf("outside any binding = %d, want 0", got)
	}
	if calls != 4 {
		t.Errorf("f calls = %d, want 4", calls)
	}
}

func TestContextVarNestedReadSeesOuter(t *testing.T) {
	k := NewContextVar("k", "default")
	inner := Map[string, string](k, func(s string) string { return s + "+inner" })

	var got string
	k.With(Const("outer"), func() {
		k.With(inner, func() { got = k.Get() })
	})
	if got != "outer+inner" {
		t.Errorf("Get = %q, want %q", got, "outer+inner")
	}
	if k.Depth() != 0 {
		t.Errorf("Depth = %d after With, want 0", k.Depth())
	}
}

func TestContextVarPopWithoutPushPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Pop did not panic")
		}
	}()
	NewContextVar("k", 0).Pop()
}
