package arbor

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Affine) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestRotation90(t *testing.T) {
	// cos(90)=0, sin(90)=1
	assertMatrix(t, "rot90", Rotation(math.Pi/2), Affine{0, 1, -1, 0, 0, 0})
}

func TestMultiplyIdentity(t *testing.T) {
	m := Affine{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", Identity.Multiply(m), m)
	assertMatrix(t, "m*id", m.Multiply(Identity), m)
}

func TestMultiplyTranslations(t *testing.T) {
	got := Translation(10, 20).Multiply(Translation(5, 3))
	assertMatrix(t, "translations", got, Translation(15, 23))
}

func TestThenOrder(t *testing.T) {
	// scale first, then translate: (1,1) -> (2,2) -> (12,2)
	m := Scaling(2, 2).Then(Translation(10, 0))
	p := m.TransformPoint(Point{1, 1})
	assertNear(t, "x", p.X, 12)
	assertNear(t, "y", p.Y, 2)
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Affine
	}{
		{"scale translate", Affine{2, 0, 0, 3, 10, 20}},
		{"scale rotate", Scaling(2, 1).Then(Rotation(math.Pi / 3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Invert()
			if !ok {
				t.Fatal("expected invertible")
			}
			assertMatrix(t, "m*inv=id", tt.m.Multiply(inv), Identity)
		})
	}
}

func TestInvertSingular(t *testing.T) {
	tests := []Affine{
		{0, 0, 0, 1, 0, 0},
		{0, 0, 0, 0, 5, 5},
	}
	for _, m := range tests {
		inv, ok := m.Invert()
		if ok {
			t.Errorf("Invert(%v) ok = true, want false", m)
		}
		assertMatrix(t, "singular", inv, Identity)
	}
}

func TestTransformRoundtrip(t *testing.T) {
	m := Scaling(2, 3).Then(Rotation(0.5)).Then(Translation(40, -7))
	inv, _ := m.Invert()
	p := Point{13, 21}
	back := inv.TransformPoint(m.TransformPoint(p))
	assertNear(t, "x", back.X, p.X)
	assertNear(t, "y", back.Y, p.Y)
}

func TestTransformRect(t *testing.T) {
	r := Rotation(math.Pi / 2).TransformRect(Rect{0, 0, 10, 20})
	assertNear(t, "x", r.X, -20)
	assertNear(t, "y", r.Y, 0)
	assertNear(t, "w", r.Width, 20)
	assertNear(t, "h", r.Height, 10)
}

func TestRectOps(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, 5, 10, 10}
	if got := a.Intersection(b); got != (Rect{5, 5, 5, 5}) {
		t.Errorf("Intersection = %v", got)
	}
	if got := a.Union(b); got != (Rect{0, 0, 15, 15}) {
		t.Errorf("Union = %v", got)
	}
	if got := a.Intersection(Rect{20, 20, 1, 1}); !got.IsEmpty() {
		t.Errorf("disjoint Intersection = %v, want empty", got)
	}
	if !a.Contains(Point{10, 10}) {
		t.Error("edge point should be contained")
	}
}
