package fuse

import "reflect"

// EventBuilder assembles an event of type E and hands the emission off to
// the command queue. Construct it with NewEvent.
type EventBuilder[E any] struct {
	eventId    EventId
	commands   *Commands
	targets    []EntityId
	components []ComponentId
	data       *E
}

// NewEvent starts building an emission carrying the given payload.
func NewEvent[E any](c *Commands, data E) *EventBuilder[E] {
	return &EventBuilder[E]{
		commands: c,
		data:     &data,
	}
}

// Entity adds a target entity to the emission.
func (b *EventBuilder[E]) Entity(target EntityId) *EventBuilder[E] {
	b.targets = append(b.targets, target)
	return b
}

// Component adds a target component kind to the emission.
func (b *EventBuilder[E]) Component(componentId ComponentId) *EventBuilder[E] {
	b.components = append(b.components, componentId)
	return b
}

// EventId overrides the event id inferred from E, used for dynamically
// composed event kinds. The caller must ensure that the type registered
// under id has the same memory layout as E, observers of id receive the
// payload reinterpreted as their own event type without any check.
func (b *EventBuilder[E]) EventId(id EventId) *EventBuilder[E] {
	b.eventId = id
	return b
}

// Emit moves the accumulated payload and targets into a deferred dispatch
// command. The builder is spent afterwards, emitting twice panics.
func (b *EventBuilder[E]) Emit() {
	if b.data == nil {
		panic("event was already emitted")
	}

	eventId := b.eventId
	if eventId == anyEvent {
		eventId = mustEventId(b.commands.world, reflect.TypeFor[E]())
	}

	payload := b.data
	targets := b.targets
	components := b.components

	b.data = nil
	b.targets = nil
	b.components = nil

	b.commands.Queue(func(world *World) {
		world.triggerObservers(eventId, payload, targets, components)
	})
}
