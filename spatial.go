package arbor

import (
	"iter"
	"math"
)

// The spatial index is a grid of 2048px squares, each an actual quad-tree
// subdivided down to 128px quads. An item is stored in every quad it overlaps
// at the deepest level whose quads are not smaller than the item.

const (
	minQuad  = 128.0
	rootQuad = 2048.0
)

// qLevel orders quad sizes; items are only inserted in quads of their level
// or larger.
type qLevel uint8

func levelFromSize(s Size) qLevel { return levelFromLength(math.Min(s.Width, s.Height)) }

func levelFromLength(l float64) qLevel {
	switch {
	case l <= minQuad:
		return 250
	case l <= 256:
		return 251
	case l <= 512:
		return 253
	case l <= 1024:
		return 254
	default:
		return 255
	}
}

type quadSquare struct {
	x, y, length float64
}

func (q quadSquare) rect() Rect { return Rect{q.x, q.y, q.length, q.length} }

func (q quadSquare) split() ([4]quadSquare, bool) {
	l := q.length / 2
	if l < minQuad {
		return [4]quadSquare{}, false
	}
	return [4]quadSquare{
		{q.x, q.y, l},
		{q.x + l, q.y, l},
		{q.x, q.y + l, l},
		{q.x + l, q.y + l, l},
	}, true
}

type quadNode struct {
	// children is the index of the first of four children, 0 for a leaf.
	children int
	items    []int
}

type quadRoot struct {
	origin Point
	nodes  []quadNode
}

func newQuadRoot(origin Point) *quadRoot {
	return &quadRoot{origin: origin, nodes: []quadNode{{}}}
}

func (r *quadRoot) bounds() quadSquare { return quadSquare{r.origin.X, r.origin.Y, rootQuad} }

func (r *quadRoot) insert(item int, b Rect, lvl qLevel) {
	r.insertAt(0, r.bounds(), item, b, lvl)
}

func (r *quadRoot) insertAt(node int, sq quadSquare, item int, b Rect, lvl qLevel) {
	if qs, ok := sq.split(); ok && levelFromLength(qs[0].length) >= lvl {
		if r.nodes[node].children == 0 {
			r.nodes[node].children = len(r.nodes)
			r.nodes = append(r.nodes, quadNode{}, quadNode{}, quadNode{}, quadNode{})
		}
		first := r.nodes[node].children
		for i, q := range qs {
			if q.rect().Intersects(b) {
				r.insertAt(first+i, q, item, b, lvl)
			}
		}
		return
	}
	r.nodes[node].items = append(r.nodes[node].items, item)
}

func (r *quadRoot) query(node int, sq quadSquare, include func(Rect) bool, yield func(int) bool) bool {
	if !include(sq.rect()) {
		return true
	}
	n := &r.nodes[node]
	for _, it := range n.items {
		if !yield(it) {
			return false
		}
	}
	if n.children == 0 {
		return true
	}
	qs, _ := sq.split()
	for i, q := range qs {
		if !r.query(n.children+i, q, include, yield) {
			return false
		}
	}
	return true
}

// QuadTree indexes item bounds for point and area queries.
type QuadTree struct {
	grid   []*quadRoot
	bounds Rect
	count  int
}

// NewQuadTree returns an empty index.
func NewQuadTree() *QuadTree { return &QuadTree{} }

// Bounds returns the union of all inserted bounds.
func (t *QuadTree) Bounds() Rect { return t.bounds }

// Len returns the number of inserted items.
func (t *QuadTree) Len() int { return t.count }

// Insert adds item with bounds b. Empty bounds are ignored.
func (t *QuadTree) Insert(item int, b Rect) {
	if b.Width < 0 || b.Height < 0 {
		return
	}
	lvl := levelFromSize(b.Size())
	if t.count == 0 {
		t.bounds = b
	} else {
		t.bounds = t.bounds.Union(b)
	}
	t.count++

	for _, r := range t.grid {
		if r.bounds().rect().ContainsRect(b) {
			r.insert(item, b, lvl)
			return
		}
	}

	minX := math.Floor(b.X / rootQuad)
	minY := math.Floor(b.Y / rootQuad)
	maxX := math.Floor(b.MaxX() / rootQuad)
	maxY := math.Floor(b.MaxY() / rootQuad)
	for cx := minX; cx <= maxX; cx++ {
	nextCell:
		for cy := minY; cy <= maxY; cy++ {
			origin := Point{cx * rootQuad, cy * rootQuad}
			for _, r := range t.grid {
				if r.origin == origin {
					r.insert(item, b, lvl)
					continue nextCell
				}
			}
			r := newQuadRoot(origin)
			r.insert(item, b, lvl)
			t.grid = append(t.grid, r)
		}
	}
}

// Query yields the items stored in every quad for which include returns true.
// An item that spans several quads can be yielded more than once.
func (t *QuadTree) Query(include func(Rect) bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, r := range t.grid {
			if !r.query(0, r.bounds(), include, yield) {
				return
			}
		}
	}
}

// QueryDedup is Query with each item yielded at most once.
func (t *QuadTree) QueryDedup(include func(Rect) bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		seen := make(map[int]struct{})
		for it := range t.Query(include) {
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
			if !yield(it) {
				return
			}
		}
	}
}

// QueryPoint yields, once each, the items whose quads contain p.
func (t *QuadTree) QueryPoint(p Point) iter.Seq[int] {
	return t.QueryDedup(func(r Rect) bool { return r.Contains(p) })
}
