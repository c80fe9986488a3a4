package arbor

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// ResourceKind is the kind of an opaque renderer resource.
type ResourceKind uint8

const (
	ResourceImage ResourceKind = iota + 1
	ResourceFont
	ResourceFontInstance
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceImage:
		return "image"
	case ResourceFont:
		return "font"
	case ResourceFontInstance:
		return "font-instance"
	}
	return "resource"
}

// ResourceKey is an opaque key of a resource the view process holds.
type ResourceKey struct {
	Kind ResourceKind
	ID   uint64
}

func (k ResourceKey) String() string { return fmt.Sprintf("%s#%d", k.Kind, k.ID) }

var resourceIDs atomic.Uint64

// NewResourceKey returns a new unique key of kind k.
func NewResourceKey(k ResourceKind) ResourceKey {
	return ResourceKey{Kind: k, ID: resourceIDs.Add(1)}
}

// Resource is the data the view process needs to create a resource.
type Resource struct {
	Key  ResourceKey
	Data any
}

func sortResourceKeys(keys []ResourceKey) {
	slices.SortFunc(keys, func(a, b ResourceKey) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// resourceTracker makes sure the view adds a resource before the first frame
// that references it and deletes it only after no frame references it.
type resourceTracker struct {
	registered map[ResourceKey]Resource
	// added are the keys the view currently holds.
	added map[ResourceKey]struct{}
	// refs are the keys referenced by the last frame of each window.
	refs map[WindowID][]ResourceKey
}

func newResourceTracker() *resourceTracker {
	return &resourceTracker{
		registered: make(map[ResourceKey]Resource),
		added:      make(map[ResourceKey]struct{}),
		refs:       make(map[WindowID][]ResourceKey),
	}
}

func (t *resourceTracker) register(r Resource) { t.registered[r.Key] = r }

func (t *resourceTracker) unregister(k ResourceKey) { delete(t.registered, k) }

// beforeFrame returns the resources to add before sending a frame of win
// that references keys. Unknown keys are returned in missing.
func (t *resourceTracker) beforeFrame(keys []ResourceKey) (add []Resource, missing []ResourceKey) {
	for _, k := range keys {
		if _, ok := t.added[k]; ok {
			continue
		}
		r, ok := t.registered[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		t.added[k] = struct{}{}
		add = append(add, r)
	}
	return add, missing
}

// afterFrame records the keys of the new frame of win and returns the keys no
// longer referenced by any window.
func (t *resourceTracker) afterFrame(win WindowID, keys []ResourceKey) []ResourceKey {
	old := t.refs[win]
	if keys == nil {
		delete(t.refs, win)
	} else {
		t.refs[win] = keys
	}
	var del []ResourceKey
	for _, k := range old {
		if slices.Contains(keys, k) || t.referenced(k) {
			continue
		}
		if _, ok := t.added[k]; ok {
			delete(t.added, k)
			del = append(del, k)
		}
	}
	return del
}

func (t *resourceTracker) referenced(k ResourceKey) bool {
	for _, keys := range t.refs {
		if slices.Contains(keys, k) {
			return true
		}
	}
	return false
}

// reset forgets what the view holds, after a view process respawn.
func (t *resourceTracker) reset() {
	clear(t.added)
	clear(t.refs)
}
