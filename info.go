package arbor

import (
	"cmp"
	"iter"
	"slices"
	"sync/atomic"
)

// --- Bounds ---

// WidgetBoundsInfo holds the layout and render results of a widget. The
// Widget node writes it; the info tree reads it. Sizes are set during
// LAYOUT, transforms and hit-test data during RENDER.
type WidgetBoundsInfo struct {
	outerSize   Size
	innerOffset Point
	innerSize   Size
	innerSet    bool
	inline      *InlineLayout

	outerTransform Affine
	innerTransform Affine
	clip           Rect
	hasClip        bool
	rendered       bool
	renderedFrame  FrameID
	zStart, zEnd   int
	hit            *HitTestItems

	// changed is set when the render pass moved or resized the widget.
	changed bool
}

func newWidgetBoundsInfo() *WidgetBoundsInfo {
	return &WidgetBoundsInfo{outerTransform: Identity, innerTransform: Identity}
}

// OuterSize returns the size of the widget including margins.
func (b *WidgetBoundsInfo) OuterSize() Size { return b.outerSize }

// InnerSize returns the size of the widget's content area.
func (b *WidgetBoundsInfo) InnerSize() Size { return b.innerSize }

// InnerOffset returns the offset of the content area inside the outer bounds.
func (b *WidgetBoundsInfo) InnerOffset() Point { return b.innerOffset }

// OuterTransform maps the outer space to window space.
func (b *WidgetBoundsInfo) OuterTransform() Affine { return b.outerTransform }

// InnerTransform maps the inner space to window space.
func (b *WidgetBoundsInfo) InnerTransform() Affine { return b.innerTransform }

// OuterBounds returns the window-space bounding box of the outer area.
func (b *WidgetBoundsInfo) OuterBounds() Rect {
	return b.outerTransform.TransformRect(RectFromSize(b.outerSize))
}

// InnerBounds returns the window-space bounding box of the content area.
func (b *WidgetBoundsInfo) InnerBounds() Rect {
	return b.innerTransform.TransformRect(RectFromSize(b.innerSize))
}

// Clip returns the window-space clip inherited from ancestors, if any.
func (b *WidgetBoundsInfo) Clip() (Rect, bool) { return b.clip, b.hasClip }

// IsRendered reports whether the widget was part of the last frame.
func (b *WidgetBoundsInfo) IsRendered() bool { return b.rendered }

// Inline returns the rows of the widget in its parent's inline flow, nil if
// the widget was not laid out inline.
func (b *WidgetBoundsInfo) Inline() *InlineLayout { return b.inline }

// ZRange returns the render order span of the widget and its descendants.
func (b *WidgetBoundsInfo) ZRange() (start, end int) { return b.zStart, b.zEnd }

// HitTestItems returns the widget's hit-test primitives, in inner space.
func (b *WidgetBoundsInfo) HitTestItems() *HitTestItems { return b.hit }

// setInner records the content area. Nested calls within one widget add up
// their offsets; the innermost call sets the size.
func (b *WidgetBoundsInfo) setInner(offset Point, size Size) {
	if b.innerSet {
		b.innerOffset = b.innerOffset.Add(offset)
		return
	}
	b.innerOffset = offset
	b.innerSize = size
	b.innerSet = true
}

// hitBounds is the window-space area indexed for hit-tests.
func (b *WidgetBoundsInfo) hitBounds() Rect {
	r := RectFromSize(b.innerSize)
	if !b.hit.IsEmpty() {
		r = r.Union(b.hit.Bounds())
	}
	return b.innerTransform.TransformRect(r)
}

// --- Tree ---

type infoNode struct {
	id     WidgetID
	parent int
	// end is one past the index of the last descendant.
	end           int
	depth         int
	interactivity Interactivity
	bounds        *WidgetBoundsInfo
	meta          StateMap
}

var infoGeneration atomic.Uint64

// WidgetInfoTree is an immutable snapshot of a window's widgets, stored in
// pre-order. It is replaced on every INFO rebuild.
type WidgetInfoTree struct {
	window     WindowID
	generation uint64
	nodes      []infoNode
	index      map[WidgetID]int
	spatial    *QuadTree
}

func emptyInfoTree(win WindowID) *WidgetInfoTree {
	return &WidgetInfoTree{window: win, index: map[WidgetID]int{}, spatial: NewQuadTree()}
}

// Window returns the window the tree describes.
func (t *WidgetInfoTree) Window() WindowID { return t.window }

// Generation returns a value that differs for every built tree.
func (t *WidgetInfoTree) Generation() uint64 { return t.generation }

// Len returns the number of widgets.
func (t *WidgetInfoTree) Len() int { return len(t.nodes) }

// Root returns the window root widget.
func (t *WidgetInfoTree) Root() (WidgetInfo, bool) {
	if len(t.nodes) == 0 {
		return WidgetInfo{}, false
	}
	return WidgetInfo{t, 0}, true
}

// Get returns the widget with id.
func (t *WidgetInfoTree) Get(id WidgetID) (WidgetInfo, bool) {
	i, ok := t.index[id]
	if !ok {
		return WidgetInfo{}, false
	}
	return WidgetInfo{t, i}, true
}

// Contains reports whether id is in the tree.
func (t *WidgetInfoTree) Contains(id WidgetID) bool {
	_, ok := t.index[id]
	return ok
}

// All yields every widget in pre-order.
func (t *WidgetInfoTree) All() iter.Seq[WidgetInfo] {
	return func(yield func(WidgetInfo) bool) {
		for i := range t.nodes {
			if !yield(WidgetInfo{t, i}) {
				return
			}
		}
	}
}

// Spatial returns the spatial index over inner bounds.
func (t *WidgetInfoTree) Spatial() *QuadTree { return t.spatial }

// rebuildSpatial reindexes every rendered widget. It returns false if no
// bounds changed since the last index.
func (t *WidgetInfoTree) rebuildSpatial(force bool) bool {
	changed := force
	for i := range t.nodes {
		if b := t.nodes[i].bounds; b.changed {
			b.changed = false
			changed = true
		}
	}
	if !changed {
		return false
	}
	q := NewQuadTree()
	for i := range t.nodes {
		if b := t.nodes[i].bounds; b.rendered {
			q.Insert(i, b.hitBounds())
		}
	}
	t.spatial = q
	return true
}

// HitTest returns every widget hit at the window point p, topmost first. A
// widget is only hit inside the clips of its ancestors.
func (t *WidgetInfoTree) HitTest(p Point) HitTestInfo {
	info := HitTestInfo{Window: t.window, Point: p}
	for i := range t.spatial.QueryPoint(p) {
		n := &t.nodes[i]
		b := n.bounds
		if !b.rendered || b.hit.IsEmpty() {
			continue
		}
		if b.hasClip && !b.clip.Contains(p) {
			continue
		}
		inv, ok := b.innerTransform.Invert()
		if !ok {
			continue
		}
		local := inv.TransformPoint(p)
		z := b.hit.HitTest(local)
		if z.Kind == NoHit {
			continue
		}
		info.Hits = append(info.Hits, HitInfo{
			WidgetID: n.id,
			Z:        z,
			Local:    local,
			depth:    n.depth,
			key:      t.hitKey(b, z),
		})
	}
	slices.SortFunc(info.Hits, func(a, b HitInfo) int {
		if c := cmp.Compare(b.key, a.key); c != 0 {
			return c
		}
		if c := cmp.Compare(b.depth, a.depth); c != 0 {
			return c
		}
		return cmp.Compare(a.WidgetID, b.WidgetID)
	})
	return info
}

// hitKey orders hits by render order: back primitives sit under the first
// child, over primitives just above the named child's subtree, front
// primitives above every child.
func (t *WidgetInfoTree) hitKey(b *WidgetBoundsInfo, z RelativeHitZ) float64 {
	switch z.Kind {
	case HitOver:
		if i, ok := t.index[z.Child]; ok {
			return float64(t.nodes[i].bounds.zEnd) + 0.5
		}
		return float64(b.zStart) + 0.5
	case HitFront:
		return float64(b.zEnd)
	}
	return float64(b.zStart)
}

// markUnrendered clears the rendered flag of widgets the frame id skipped.
func (t *WidgetInfoTree) markUnrendered(id FrameID) {
	for i := range t.nodes {
		if b := t.nodes[i].bounds; b.rendered && b.renderedFrame != id {
			b.rendered = false
			b.changed = true
		}
	}
}

// --- WidgetInfo ---

// WidgetInfo is a reference to one widget in a WidgetInfoTree.
type WidgetInfo struct {
	tree *WidgetInfoTree
	idx  int
}

func (w WidgetInfo) node() *infoNode { return &w.tree.nodes[w.idx] }

// Tree returns the tree w belongs to.
func (w WidgetInfo) Tree() *WidgetInfoTree { return w.tree }

// ID returns the widget ID.
func (w WidgetInfo) ID() WidgetID { return w.node().id }

// Depth returns 0 for the root.
func (w WidgetInfo) Depth() int { return w.node().depth }

// Bounds returns the shared bounds info.
func (w WidgetInfo) Bounds() *WidgetBoundsInfo { return w.node().bounds }

// InnerBounds returns the window-space content area.
func (w WidgetInfo) InnerBounds() Rect { return w.node().bounds.InnerBounds() }

// Meta returns the metadata written by the widget's info callbacks. The map
// must not be modified.
func (w WidgetInfo) Meta() *StateMap { return &w.node().meta }

// LocalInteractivity returns the interactivity declared by the widget itself.
func (w WidgetInfo) LocalInteractivity() Interactivity { return w.node().interactivity }

// Interactivity returns the effective interactivity, the most restrictive of
// the widget and its ancestors.
func (w WidgetInfo) Interactivity() Interactivity {
	i := Enabled
	for n := w.idx; n >= 0; n = w.tree.nodes[n].parent {
		i = maxInteractivity(i, w.tree.nodes[n].interactivity)
	}
	return i
}

// Parent returns the parent widget.
func (w WidgetInfo) Parent() (WidgetInfo, bool) {
	p := w.node().parent
	if p < 0 {
		return WidgetInfo{}, false
	}
	return WidgetInfo{w.tree, p}, true
}

// Children yields the direct children in order.
func (w WidgetInfo) Children() iter.Seq[WidgetInfo] {
	return func(yield func(WidgetInfo) bool) {
		end := w.node().end
		for i := w.idx + 1; i < end; i = w.tree.nodes[i].end {
			if !yield(WidgetInfo{w.tree, i}) {
				return
			}
		}
	}
}

// Descendants yields every descendant in pre-order.
func (w WidgetInfo) Descendants() iter.Seq[WidgetInfo] {
	return func(yield func(WidgetInfo) bool) {
		end := w.node().end
		for i := w.idx + 1; i < end; i++ {
			if !yield(WidgetInfo{w.tree, i}) {
				return
			}
		}
	}
}

// Ancestors yields the parent, the grandparent and so on up to the root.
func (w WidgetInfo) Ancestors() iter.Seq[WidgetInfo] {
	return func(yield func(WidgetInfo) bool) {
		for p := w.node().parent; p >= 0; p = w.tree.nodes[p].parent {
			if !yield(WidgetInfo{w.tree, p}) {
				return
			}
		}
	}
}

// IsDescendantOf reports whether w is inside the subtree of ancestor.
func (w WidgetInfo) IsDescendantOf(ancestor WidgetInfo) bool {
	return w.tree == ancestor.tree && w.idx > ancestor.idx && w.idx < ancestor.node().end
}

// Path returns the path from the root to w.
func (w WidgetInfo) Path() WidgetPath {
	ids := make([]WidgetID, w.node().depth+1)
	for n := w.idx; n >= 0; n = w.tree.nodes[n].parent {
		ids[w.tree.nodes[n].depth] = w.tree.nodes[n].id
	}
	return WidgetPath{window: w.tree.window, ids: ids}
}

// InteractionPath returns the path with effective interactivity per level.
func (w WidgetInfo) InteractionPath() InteractionPath {
	levels := make([]Interactivity, w.node().depth+1)
	for n := w.idx; n >= 0; n = w.tree.nodes[n].parent {
		levels[w.tree.nodes[n].depth] = w.tree.nodes[n].interactivity
	}
	return NewInteractionPath(w.Path(), levels)
}

// --- Builder ---

// InfoBuilder collects widget info during the INFO phase.
type InfoBuilder struct {
	window WindowID
	nodes  []infoNode
	stack  []int
	index  map[WidgetID]int
}

func newInfoBuilder(win WindowID, capacity int) *InfoBuilder {
	return &InfoBuilder{
		window: win,
		nodes:  make([]infoNode, 0, capacity),
		index:  make(map[WidgetID]int, capacity),
	}
}

// PushWidget adds a widget and runs inner to collect its descendants.
func (b *InfoBuilder) PushWidget(id WidgetID, bounds *WidgetBoundsInfo, inner func()) {
	parent, depth := -1, 0
	if n := len(b.stack); n > 0 {
		parent = b.stack[n-1]
		depth = b.nodes[parent].depth + 1
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, infoNode{id: id, parent: parent, depth: depth, bounds: bounds})
	b.index[id] = idx
	b.stack = append(b.stack, idx)
	inner()
	b.stack = b.stack[:len(b.stack)-1]
	b.nodes[idx].end = len(b.nodes)
}

func (b *InfoBuilder) current() *infoNode {
	if len(b.stack) == 0 {
		panic("arbor: InfoBuilder used outside of a widget")
	}
	return &b.nodes[b.stack[len(b.stack)-1]]
}

// WidgetID returns the widget being built.
func (b *InfoBuilder) WidgetID() WidgetID { return b.current().id }

// Window returns the window being built.
func (b *InfoBuilder) Window() WindowID { return b.window }

// Meta returns the metadata of the widget being built.
func (b *InfoBuilder) Meta() *StateMap { return &b.current().meta }

// SetInteractivity restricts the interactivity of the widget being built.
// Several calls combine to the most restrictive value.
func (b *InfoBuilder) SetInteractivity(i Interactivity) {
	n := b.current()
	n.interactivity = maxInteractivity(n.interactivity, i)
}

func (b *InfoBuilder) finalize() *WidgetInfoTree {
	t := &WidgetInfoTree{
		window:     b.window,
		generation: infoGeneration.Add(1),
		nodes:      b.nodes,
		index:      b.index,
	}
	t.rebuildSpatial(true)
	return t
}

// --- Snapshot ---

// WidgetSnapshot is the comparable state of one widget.
type WidgetSnapshot struct {
	ID            WidgetID
	Parent        WidgetID
	Depth         int
	Interactivity Interactivity
	Outer         Rect
	Inner         Rect
	MetaLen       int
}

// InfoSnapshot is a comparable copy of a tree.
type InfoSnapshot struct {
	Window  WindowID
	Widgets []WidgetSnapshot
}

// Snapshot returns a copy of the tree structure and bounds.
func (t *WidgetInfoTree) Snapshot() InfoSnapshot {
	s := InfoSnapshot{Window: t.window, Widgets: make([]WidgetSnapshot, len(t.nodes))}
	for i := range t.nodes {
		n := &t.nodes[i]
		var parent WidgetID
		if n.parent >= 0 {
			parent = t.nodes[n.parent].id
		}
		s.Widgets[i] = WidgetSnapshot{
			ID:            n.id,
			Parent:        parent,
			Depth:         n.depth,
			Interactivity: n.interactivity,
			Outer:         n.bounds.OuterBounds(),
			Inner:         n.bounds.InnerBounds(),
			MetaLen:       n.meta.Len(),
		}
	}
	return s
}
