package arbor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// WidgetID identifies a widget. IDs are unique for the process lifetime.
type WidgetID uint64

// WindowID identifies a window.
type WindowID uint64

// DeviceID identifies an input device as reported by the view process.
type DeviceID uint64

// TouchID identifies one contact point of a touch device.
type TouchID uint64

// UpdateID counts update cycles. It advances once per call to App.Update.
type UpdateID uint64

// ApplyID counts the UPDATE passes of all cycles. A cycle runs one or more
// passes while events and modifiers keep queueing work.
type ApplyID uint64

var (
	idCounter atomic.Uint64
	namedMu   sync.Mutex
	namedIDs  = map[string]WidgetID{}
	idNames   = map[WidgetID]string{}
	windowCtr atomic.Uint64
)

// NewWidgetID returns a new unique widget ID.
func NewWidgetID() WidgetID {
	return WidgetID(idCounter.Add(1))
}

// NamedWidgetID returns the ID associated with name, creating it on first use.
// The same name always maps to the same ID.
func NamedWidgetID(name string) WidgetID {
	namedMu.Lock()
	defer namedMu.Unlock()
	if id, ok := namedIDs[name]; ok {
		return id
	}
	id := NewWidgetID()
	namedIDs[name] = id
	idNames[id] = name
	return id
}

// String returns the name given to NamedWidgetID or "wgt#N".
func (id WidgetID) String() string {
	namedMu.Lock()
	name, ok := idNames[id]
	namedMu.Unlock()
	if ok {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("wgt#%d", uint64(id))
}

// NewWindowID returns a new unique window ID.
func NewWindowID() WindowID {
	return WindowID(windowCtr.Add(1))
}

func (id WindowID) String() string { return fmt.Sprintf("win#%d", uint64(id)) }
