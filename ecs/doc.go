// Package ecs provides ECS adapters for arbor's event system.
//
// The primary adapter is [NewDonburiSink], which forwards every event arbor
// delivers into a [Donburi] world as an [arbor.EventRecord]. Subscribe to
// [EventRecordType] in your ECS systems to receive them, or register typed
// event types with [Forward].
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	ecs.Forward(sink, arbor.MouseClickEvent, ClickType)
//	app.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
