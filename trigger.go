package fuse

import "reflect"

// Trigger describes why an observer fired: the observer entity, the
// source entity or component that caused the match and the id of the
// emitted event.
type Trigger struct {
	Observer  EntityId
	Source    EntityId
	Component ComponentId
	Event     EventId

	// EventCount is the value of the global event counter of the
	// emission this trigger belongs to. Runners use it to deduplicate,
	// an emission may match the same observer through several targets.
	// A live read of the counter would not do, the emission may still
	// be dispatching while nested emissions advance the counter.
	EventCount uint32
}

// On is the typed view over an emitted event, passed as the first
// parameter of an observer callback. Event points into the payload of the
// emission, mutations are visible to observers that fire later.
type On[E any] struct {
	Event   *E
	Trigger Trigger
}

// NoEvent is the payload type of observers that listen to multiple or
// dynamically supplied event kinds. Such observers have no typed payload
// access.
type NoEvent struct{}

var noEventType = reflect.TypeFor[NoEvent]()

func (On[E]) isOn(isOn) {}

func (On[E]) eventType() reflect.Type {
	return reflect.TypeFor[E]()
}

// make creates a new value of this type viewing the given payload
func (On[E]) make(payload AnyPtr, trigger Trigger) isOn {
	return On[E]{
		Event:   eventPtrOf[E](payload),
		Trigger: trigger,
	}
}

type isOn interface {
	isOn(isOn)
	eventType() reflect.Type
	make(payload AnyPtr, trigger Trigger) isOn
}

var _ isOn = On[bool]{}

// eventPtrOf views the raw payload pointer as a pointer to E. If the
// payloads static type is not E the emission carried an overridden event
// id, in that case the caller of EventBuilder.EventId has asserted that
// both types share the same memory layout and we reinterpret the pointer.
func eventPtrOf[E any](payload AnyPtr) *E {
	if payload == nil || reflect.TypeFor[E]() == noEventType {
		return nil
	}

	if typed, ok := payload.(*E); ok {
		return typed
	}

	return (*E)(reflect.ValueOf(payload).UnsafePointer())
}
