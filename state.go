package arbor

import "sync/atomic"

var stateIDCounter atomic.Uint64

// StateID is a typed key into a StateMap.
type StateID[T any] struct {
	id   uint64
	name string
}

// NewStateID returns a new unique key. The name is only used for debugging.
func NewStateID[T any](name string) StateID[T] {
	return StateID[T]{id: stateIDCounter.Add(1), name: name}
}

// Name returns the debug name of the key.
func (s StateID[T]) Name() string { return s.name }

// StateMap stores values of heterogeneous types under typed keys. It backs
// widget metadata in the info tree and per-widget state.
type StateMap struct {
	m map[uint64]any
}

// SetState stores v under id.
func SetState[T any](m *StateMap, id StateID[T], v T) {
	if m.m == nil {
		m.m = make(map[uint64]any)
	}
	m.m[id.id] = v
}

// GetState returns the value stored under id.
func GetState[T any](m *StateMap, id StateID[T]) (T, bool) {
	v, ok := m.m[id.id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// HasState reports whether a value is stored under id.
func HasState[T any](m *StateMap, id StateID[T]) bool {
	_, ok := m.m[id.id]
	return ok
}

// RemoveState deletes the value stored under id.
func RemoveState[T any](m *StateMap, id StateID[T]) {
	delete(m.m, id.id)
}

// Len returns the number of stored values.
func (m *StateMap) Len() int { return len(m.m) }

func (m *StateMap) clone() StateMap {
	if len(m.m) == 0 {
		return StateMap{}
	}
	c := make(map[uint64]any, len(m.m))
	for k, v := range m.m {
		c[k] = v
	}
	return StateMap{m: c}
}
