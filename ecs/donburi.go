// Package ecs provides ECS adapters for arbor.
package ecs

import (
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EventRecordType is the Donburi event type for arbor event records.
// Subscribe to this in your ECS systems to receive every forwarded event.
var EventRecordType = events.NewEventType[arbor.EventRecord]()

// DonburiSink is an arbor.EventSink backed by a Donburi world. Records are
// queued in the world and consumed with events.Subscribe and ProcessEvents.
type DonburiSink struct {
	world  donburi.World
	filter map[string]struct{}
	typed  map[string]func(arbor.EventArgs)
}

// NewDonburiSink creates a sink publishing to world. With names, only the
// events with those names are forwarded.
func NewDonburiSink(world donburi.World, names ...string) *DonburiSink {
	s := &DonburiSink{world: world, typed: make(map[string]func(arbor.EventArgs))}
	if len(names) > 0 {
		s.filter = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.filter[n] = struct{}{}
		}
	}
	return s
}

// Forward also publishes the arguments of e to et, typed.
func Forward[A arbor.EventArgs](s *DonburiSink, e *arbor.Event[A], et *events.EventType[A]) {
	s.typed[e.Name()] = func(args arbor.EventArgs) {
		if a, ok := args.(A); ok {
			et.Publish(s.world, a)
		}
	}
}

// EmitEvent implements arbor.EventSink.
func (s *DonburiSink) EmitEvent(rec arbor.EventRecord) {
	if s.filter != nil {
		if _, ok := s.filter[rec.Name]; !ok {
			return
		}
	}
	EventRecordType.Publish(s.world, rec)
	if fn := s.typed[rec.Name]; fn != nil {
		fn(rec.Args)
	}
}
