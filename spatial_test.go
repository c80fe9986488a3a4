package arbor

import (
	"slices"
	"testing"
)

func collect(seq func(func(int) bool)) []int {
	var out []int
	for it := range seq {
		out = append(out, it)
	}
	slices.Sort(out)
	return out
}

func TestQuadTreeQueryPoint(t *testing.T) {
	q := NewQuadTree()
	q.Insert(0, Rect{10, 10, 20, 20})
	q.Insert(1, Rect{3000, 3000, 20, 20})
	q.Insert(2, Rect{2040, 0, 20, 20}) // spans two grid cells
	q.Insert(3, Rect{-50, -50, 10, 10})
	q.Insert(4, Rect{0, 0, 4000, 4000})

	if q.Len() != 5 {
		t.Errorf("Len = %d, want 5", q.Len())
	}
	if got, want := q.Bounds(), (Rect{-50, -50, 4050, 4050}); got != want {
		t.Errorf("Bounds = %v, want %v", got, want)
	}

	tests := []struct {
		name    string
		p       Point
		want    []int
		notWant []int
	}{
		{"near origin", Point{15, 15}, []int{0, 4}, []int{1, 3}},
		{"far cell", Point{3010, 3010}, []int{1, 4}, []int{0, 2}},
		{"cell seam", Point{2045, 5}, []int{2, 4}, []int{1}},
		{"negative", Point{-45, -45}, []int{3}, []int{0, 1, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(q.QueryPoint(tt.p))
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("QueryPoint(%v) = %v, missing %d", tt.p, got, w)
				}
			}
			for _, n := range tt.notWant {
				if slices.Contains(got, n) {
					t.Errorf("QueryPoint(%v) = %v, has %d", tt.p, got, n)
				}
			}
			if len(slices.Compact(slices.Clone(got))) != len(got) {
				t.Errorf("QueryPoint(%v) = %v has duplicates", tt.p, got)
			}
		})
	}
}

func TestQuadTreeQueryDedup(t *testing.T) {
	q := NewQuadTree()
	q.Insert(7, Rect{2000, 2000, 100, 100}) // four grid cells
	all := func(Rect) bool { return true }

	if n := len(collect(q.Query(all))); n < 2 {
		t.Errorf("Query yielded %d times, want one per cell", n)
	}
	if got := collect(q.QueryDedup(all)); !slices.Equal(got, []int{7}) {
		t.Errorf("QueryDedup = %v, want [7]", got)
	}
}

func TestQuadTreeIgnoresNegativeSize(t *testing.T) {
	q := NewQuadTree()
	q.Insert(0, Rect{0, 0, -1, 10})
	if q.Len() != 0 {
		t.Errorf("Len = %d after inserting negative bounds", q.Len())
	}
	if got := collect(q.QueryPoint(Point{0, 0})); len(got) != 0 {
		t.Errorf("QueryPoint = %v on empty tree", got)
	}
}

func TestQuadTreeQueryStopsEarly(t *testing.T) {
	q := NewQuadTree()
	for i := 0; i < 10; i++ {
		q.Insert(i, Rect{float64(i) * 300, 0, 10, 10})
	}
	n := 0
	for range q.QueryDedup(func(Rect) bool { return true }) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d items after break", n)
	}
}
