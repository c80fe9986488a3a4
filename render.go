package arbor

import (
	"sync/atomic"
)

// ItemKind identifies the kind of display item.
type ItemKind uint8

const (
	ItemPushClip      ItemKind = iota // start of a clipped block
	ItemPopClip                       // end of a clipped block
	ItemPushTransform                 // start of a transformed block
	ItemPopTransform                  // end of a transformed block
	ItemRect                          // solid color fill
	ItemText                          // a run of text
	ItemImage                         // an image resource
	ItemBorder                        // a border along the edges of Rect
	ItemGradient                      // linear gradient fill
	ItemHitTestMark                   // the start of a widget's content
)

var itemKindNames = [...]string{
	"PushClip", "PopClip", "PushTransform", "PopTransform", "Rect",
	"Text", "Image", "Border", "Gradient", "HitTestMark",
}

func (k ItemKind) String() string {
	if int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return "ItemKind(?)"
}

// FrameValueKey identifies a value that can be changed by a FrameUpdate
// without rebuilding the display list. The zero key is "not bound".
type FrameValueKey uint64

var frameValueKeys atomic.Uint64

// NewFrameValueKey returns a new unique key.
func NewFrameValueKey() FrameValueKey { return FrameValueKey(frameValueKeys.Add(1)) }

// ImageRendering is the sampling hint for image items.
type ImageRendering uint8

const (
	RenderingAuto ImageRendering = iota
	RenderingPixelated
)

// DisplayItem is a single draw instruction emitted during the render pass.
// Fields not used by the Kind are left zero. Coordinates are in the space
// established by the enclosing transforms.
type DisplayItem struct {
	Kind ItemKind
	Rect Rect

	Color    Color
	ColorKey FrameValueKey
	// EndColor is the second color stop of a gradient.
	EndColor Color

	Radius  CornerRadius
	ClipOut bool
	Widths  SideOffsets

	Transform    Affine
	TransformKey FrameValueKey

	Text      string
	Font      ResourceKey
	Image     ResourceKey
	Rendering ImageRendering

	Widget WidgetID
}

// DisplayList is the ordered list of items of one frame.
type DisplayList struct {
	Items []DisplayItem
}

// Len returns the number of items.
func (d *DisplayList) Len() int { return len(d.Items) }

// Count returns the number of items of kind k.
func (d *DisplayList) Count(k ItemKind) int {
	n := 0
	for i := range d.Items {
		if d.Items[i].Kind == k {
			n++
		}
	}
	return n
}

// FrameID counts the frames of a window.
type FrameID uint64

// Frame is a full display list for one window, sent to the view process.
type Frame struct {
	Window      WindowID
	ID          FrameID
	Size        Size
	ScaleFactor float64
	Clear       Color
	Display     DisplayList
	// Resources lists every resource key the display list references.
	Resources []ResourceKey
}

// --- FrameBuilder ---

type clipState struct {
	rect Rect
	ok   bool
}

// hitFrame is the hit-test state of the widget being rendered.
type hitFrame struct {
	b HitTestBuilder
	// spaces is the window transform of each nested hit-test block.
	spaces []Affine
}

// FrameBuilder builds the display list of a window and records the bounds
// and hit-test data of every widget rendered.
type FrameBuilder struct {
	window     WindowID
	frameID    FrameID
	items      []DisplayItem
	transforms []Affine
	clips      []clipState
	z          int
	hits       []*hitFrame
	hitPool    []*hitFrame
	resources  map[ResourceKey]struct{}
	clear      Color
}

func newFrameBuilder(win WindowID, id FrameID) *FrameBuilder {
	return &FrameBuilder{
		window:     win,
		frameID:    id,
		transforms: []Affine{Identity},
		clips:      []clipState{{}},
		resources:  make(map[ResourceKey]struct{}),
	}
}

// Window returns the window being rendered.
func (f *FrameBuilder) Window() WindowID { return f.window }

// FrameID returns the frame being built.
func (f *FrameBuilder) FrameID() FrameID { return f.frameID }

// Transform returns the current local to window transform.
func (f *FrameBuilder) Transform() Affine { return f.transforms[len(f.transforms)-1] }

// SetClearColor sets the frame background.
func (f *FrameBuilder) SetClearColor(c Color) { f.clear = c }

func (f *FrameBuilder) push(item DisplayItem) { f.items = append(f.items, item) }

// PushTransform renders fn in a space transformed by m.
func (f *FrameBuilder) PushTransform(m Affine, fn func()) {
	f.PushTransformBinding(0, m, fn)
}

// PushTransformBinding is PushTransform with a key that a FrameUpdate can use
// to replace m.
func (f *FrameBuilder) PushTransformBinding(key FrameValueKey, m Affine, fn func()) {
	if m.IsIdentity() && key == 0 {
		fn()
		return
	}
	f.push(DisplayItem{Kind: ItemPushTransform, Transform: m, TransformKey: key})
	f.transforms = append(f.transforms, f.Transform().Multiply(m))
	fn()
	f.transforms = f.transforms[:len(f.transforms)-1]
	f.push(DisplayItem{Kind: ItemPopTransform})
}

// PushClip renders fn clipped to r, or to outside r with clipOut. The clip
// also applies to hit-tests of the current widget and its descendants.
func (f *FrameBuilder) PushClip(r Rect, radius CornerRadius, clipOut bool, fn func()) {
	f.push(DisplayItem{Kind: ItemPushClip, Rect: r, Radius: radius, ClipOut: clipOut})
	if !clipOut {
		wr := f.Transform().TransformRect(r)
		top := f.clips[len(f.clips)-1]
		if top.ok {
			wr = top.rect.Intersection(wr)
		}
		f.clips = append(f.clips, clipState{rect: wr, ok: true})
	}

	var shape HitShape = HitRect(r)
	if !radius.IsZero() {
		shape = HitRoundedRect{Rect: r, Radius: radius}
	}
	ran := false
	if h := f.hitTop(); h != nil {
		f.inHitSpace(h, func(b *HitTestBuilder) {
			h.spaces = append(h.spaces, f.Transform())
			b.PushClip(shape, clipOut, fn)
			h.spaces = h.spaces[:len(h.spaces)-1]
			ran = true
		})
	}
	if !ran {
		fn()
	}

	if !clipOut {
		f.clips = f.clips[:len(f.clips)-1]
	}
	f.push(DisplayItem{Kind: ItemPopClip})
}

// PushRect fills r with c.
func (f *FrameBuilder) PushRect(r Rect, c Color) {
	f.push(DisplayItem{Kind: ItemRect, Rect: r, Color: c})
}

// PushColorBinding fills r with c under a key that a FrameUpdate can use to
// replace the color.
func (f *FrameBuilder) PushColorBinding(key FrameValueKey, r Rect, c Color) {
	f.push(DisplayItem{Kind: ItemRect, Rect: r, Color: c, ColorKey: key})
}

// PushBorder draws a border of widths along the edges of r.
func (f *FrameBuilder) PushBorder(r Rect, widths SideOffsets, c Color, radius CornerRadius) {
	f.push(DisplayItem{Kind: ItemBorder, Rect: r, Widths: widths, Color: c, Radius: radius})
}

// PushGradient fills r with a horizontal gradient from start to end.
func (f *FrameBuilder) PushGradient(r Rect, start, end Color) {
	f.push(DisplayItem{Kind: ItemGradient, Rect: r, Color: start, EndColor: end})
}

// PushText draws text in r. font may be the zero key for the view's default.
func (f *FrameBuilder) PushText(r Rect, text string, font ResourceKey, c Color) {
	if font != (ResourceKey{}) {
		f.resources[font] = struct{}{}
	}
	f.push(DisplayItem{Kind: ItemText, Rect: r, Text: text, Font: font, Color: c})
}

// PushImage draws the image resource img stretched to r.
func (f *FrameBuilder) PushImage(r Rect, img ResourceKey, rendering ImageRendering) {
	f.resources[img] = struct{}{}
	f.push(DisplayItem{Kind: ItemImage, Rect: r, Image: img, Rendering: rendering})
}

// --- Hit-test recording ---

func (f *FrameBuilder) hitTop() *hitFrame {
	if len(f.hits) == 0 {
		return nil
	}
	return f.hits[len(f.hits)-1]
}

// inHitSpace runs fn with the current widget's hit builder, wrapping the
// pushes in a transform block when the current space is not the one of the
// enclosing hit-test block.
func (f *FrameBuilder) inHitSpace(h *hitFrame, fn func(b *HitTestBuilder)) {
	space := h.spaces[len(h.spaces)-1]
	cur := f.Transform()
	if space == cur {
		fn(&h.b)
		return
	}
	inv, ok := space.Invert()
	if !ok {
		return
	}
	rel := inv.Multiply(cur)
	h.b.PushTransform(rel, func() {
		h.spaces = append(h.spaces, cur)
		fn(&h.b)
		h.spaces = h.spaces[:len(h.spaces)-1]
	})
}

// HitShape makes s, in the current space, part of the widget's hit area.
func (f *FrameBuilder) HitShape(s HitShape) {
	if h := f.hitTop(); h != nil {
		f.inHitSpace(h, func(b *HitTestBuilder) { b.PushShape(s) })
	}
}

// HitRect makes r part of the widget's hit area.
func (f *FrameBuilder) HitRect(r Rect) { f.HitShape(HitRect(r)) }

// HitRoundedRect makes a rounded rectangle part of the widget's hit area.
func (f *FrameBuilder) HitRoundedRect(r Rect, radius CornerRadius) {
	if h := f.hitTop(); h != nil {
		f.inHitSpace(h, func(b *HitTestBuilder) { b.PushRoundedRect(r, radius) })
	}
}

// HitBorder makes a border area part of the widget's hit area.
func (f *FrameBuilder) HitBorder(r Rect, widths SideOffsets, radius CornerRadius) {
	if h := f.hitTop(); h != nil {
		f.inHitSpace(h, func(b *HitTestBuilder) { b.PushBorder(r, widths, radius) })
	}
}

// PushWidget renders a widget. The Widget node calls it; fn renders the
// widget's content in its outer space.
func (f *FrameBuilder) PushWidget(id WidgetID, b *WidgetBoundsInfo, fn func()) {
	if parent := f.hitTop(); parent != nil {
		parent.b.PushChild(id)
	}

	outer := f.Transform()
	inner := outer.Multiply(Translation(b.innerOffset.X, b.innerOffset.Y))
	clip := f.clips[len(f.clips)-1]
	if !b.rendered || outer != b.outerTransform || inner != b.innerTransform ||
		clip.ok != b.hasClip || clip.rect != b.clip {
		b.changed = true
	}
	b.outerTransform, b.innerTransform = outer, inner
	b.clip, b.hasClip = clip.rect, clip.ok
	b.rendered = true
	b.renderedFrame = f.frameID

	h := f.acquireHit(inner)
	f.hits = append(f.hits, h)
	b.zStart = f.z
	f.z++
	f.push(DisplayItem{Kind: ItemHitTestMark, Widget: id, Rect: b.InnerBounds()})

	fn()

	b.zEnd = f.z
	f.z++
	f.hits = f.hits[:len(f.hits)-1]
	if len(h.b.items) == 0 {
		b.hit = nil
	} else {
		b.hit = h.b.Build()
	}
	f.hitPool = append(f.hitPool, h)
}

func (f *FrameBuilder) acquireHit(space Affine) *hitFrame {
	var h *hitFrame
	if n := len(f.hitPool); n > 0 {
		h = f.hitPool[n-1]
		f.hitPool = f.hitPool[:n-1]
	} else {
		h = &hitFrame{}
	}
	h.b.reset()
	h.spaces = append(h.spaces[:0], space)
	return h
}

func (f *FrameBuilder) finalize(size Size, scale float64) *Frame {
	keys := make([]ResourceKey, 0, len(f.resources))
	for k := range f.resources {
		keys = append(keys, k)
	}
	sortResourceKeys(keys)
	return &Frame{
		Window:      f.window,
		ID:          f.frameID,
		Size:        size,
		ScaleFactor: scale,
		Clear:       f.clear,
		Display:     DisplayList{Items: f.items},
		Resources:   keys,
	}
}

// --- FrameUpdate ---

// FrameValue is a new value for a bound frame value.
type FrameValue[T any] struct {
	Key   FrameValueKey
	Value T
}

// FrameUpdate patches bound values of the last frame without rebuilding its
// display list. The render-update pass also refreshes widget transforms so
// hit-tests follow the updated values.
type FrameUpdate struct {
	Window     WindowID
	ID         FrameID
	Transforms []FrameValue[Affine]
	Colors     []FrameValue[Color]
	Floats     []FrameValue[float64]
	Clear      *Color

	transforms []Affine
	clips      []clipState
}

func newFrameUpdate(win WindowID, id FrameID) *FrameUpdate {
	return &FrameUpdate{
		Window:     win,
		ID:         id,
		transforms: []Affine{Identity},
		clips:      []clipState{{}},
	}
}

// IsEmpty reports whether the update changes nothing.
func (u *FrameUpdate) IsEmpty() bool {
	return len(u.Transforms) == 0 && len(u.Colors) == 0 && len(u.Floats) == 0 && u.Clear == nil
}

// Transform returns the current local to window transform.
func (u *FrameUpdate) Transform() Affine { return u.transforms[len(u.transforms)-1] }

// PushTransform walks fn in a space transformed by m.
func (u *FrameUpdate) PushTransform(m Affine, fn func()) {
	u.transforms = append(u.transforms, u.Transform().Multiply(m))
	fn()
	u.transforms = u.transforms[:len(u.transforms)-1]
}

// UpdateTransform replaces the bound transform key with m and walks fn in the
// new space.
func (u *FrameUpdate) UpdateTransform(key FrameValueKey, m Affine, fn func()) {
	if key != 0 {
		u.Transforms = append(u.Transforms, FrameValue[Affine]{key, m})
	}
	u.PushTransform(m, fn)
}

// PushClip walks fn inside a clip, for descendant bounds.
func (u *FrameUpdate) PushClip(r Rect, fn func()) {
	wr := u.Transform().TransformRect(r)
	if top := u.clips[len(u.clips)-1]; top.ok {
		wr = top.rect.Intersection(wr)
	}
	u.clips = append(u.clips, clipState{rect: wr, ok: true})
	fn()
	u.clips = u.clips[:len(u.clips)-1]
}

// UpdateColor replaces the bound color key with c.
func (u *FrameUpdate) UpdateColor(key FrameValueKey, c Color) {
	u.Colors = append(u.Colors, FrameValue[Color]{key, c})
}

// UpdateFloat replaces the bound float key with v.
func (u *FrameUpdate) UpdateFloat(key FrameValueKey, v float64) {
	u.Floats = append(u.Floats, FrameValue[float64]{key, v})
}

// SetClearColor replaces the frame background.
func (u *FrameUpdate) SetClearColor(c Color) { u.Clear = &c }

// UpdateWidget refreshes the transforms of a widget. The Widget node calls it.
func (u *FrameUpdate) UpdateWidget(b *WidgetBoundsInfo, fn func()) {
	if !b.rendered {
		return
	}
	outer := u.Transform()
	inner := outer.Multiply(Translation(b.innerOffset.X, b.innerOffset.Y))
	clip := u.clips[len(u.clips)-1]
	if outer != b.outerTransform || inner != b.innerTransform || clip.rect != b.clip || clip.ok != b.hasClip {
		b.changed = true
	}
	b.outerTransform, b.innerTransform = outer, inner
	b.clip, b.hasClip = clip.rect, clip.ok
	fn()
}

// --- Drawing ---

// FrameValues holds the current bound values of a frame, for views that
// apply frame updates to the last display list.
type FrameValues struct {
	Transforms map[FrameValueKey]Affine
	Colors     map[FrameValueKey]Color
	Floats     map[FrameValueKey]float64
}

// Reset forgets every value, for a new frame.
func (v *FrameValues) Reset() {
	v.Transforms, v.Colors, v.Floats = nil, nil, nil
}

// Apply records the values of u.
func (v *FrameValues) Apply(u *FrameUpdate) {
	if v.Transforms == nil {
		v.Transforms = make(map[FrameValueKey]Affine)
		v.Colors = make(map[FrameValueKey]Color)
		v.Floats = make(map[FrameValueKey]float64)
	}
	for _, t := range u.Transforms {
		v.Transforms[t.Key] = t.Value
	}
	for _, c := range u.Colors {
		v.Colors[c.Key] = c.Value
	}
	for _, f := range u.Floats {
		v.Floats[f.Key] = f.Value
	}
}

// DrawItem is a drawing item of a display list resolved to window space.
type DrawItem struct {
	DisplayItem
	// Transform maps the item's Rect to window space.
	Transform Affine
	// Clip is the window-space clip, valid when HasClip is set. Clip-out
	// regions are not included.
	Clip    Rect
	HasClip bool
}

// Bounds returns the window-space bounding box of the item, clipped.
func (d DrawItem) Bounds() Rect {
	r := d.Transform.TransformRect(d.Rect)
	if d.HasClip {
		r = r.Intersection(d.Clip)
	}
	return r
}

// Walk calls fn with every drawing item in order, with bound values replaced
// by the ones in vals. vals may be nil.
func (d *DisplayList) Walk(vals *FrameValues, fn func(DrawItem)) {
	transforms := []Affine{Identity}
	clips := []clipState{{}}
	for _, it := range d.Items {
		top := transforms[len(transforms)-1]
		clip := clips[len(clips)-1]
		switch it.Kind {
		case ItemPushTransform:
			m := it.Transform
			if vals != nil && it.TransformKey != 0 {
				if v, ok := vals.Transforms[it.TransformKey]; ok {
					m = v
				}
			}
			transforms = append(transforms, top.Multiply(m))
		case ItemPopTransform:
			if len(transforms) > 1 {
				transforms = transforms[:len(transforms)-1]
			}
		case ItemPushClip:
			if !it.ClipOut {
				r := top.TransformRect(it.Rect)
				if clip.ok {
					r = clip.rect.Intersection(r)
				}
				clip = clipState{rect: r, ok: true}
			}
			clips = append(clips, clip)
		case ItemPopClip:
			if len(clips) > 1 {
				clips = clips[:len(clips)-1]
			}
		case ItemHitTestMark:
		default:
			if vals != nil && it.ColorKey != 0 {
				if c, ok := vals.Colors[it.ColorKey]; ok {
					it.Color = c
				}
			}
			fn(DrawItem{DisplayItem: it, Transform: top, Clip: clip.rect, HasClip: clip.ok})
		}
	}
}
