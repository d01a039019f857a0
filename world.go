package fuse

import (
	"fmt"
	"reflect"

	"github.com/calder-games/fuse/wick"
)

// World holds the entity store, the observer index and the global event
// counter. An empty World is created using NewWorld.
type World struct {
	store     *wick.Store
	observers observerIndex

	// commands deferred by lifecycle hooks, drained after every
	// applied command
	flushes []Command

	// incremented once per emission batch, used by the observer
	// runner to deduplicate triggers within one emission
	lastEventId uint32

	observerStateType *wick.ComponentType
}

// NewWorld creates a new empty world.
func NewWorld() *World {
	registry := wick.NewRegistry()

	w := &World{
		store: wick.NewStore(registry),
	}

	// the observer record is a regular record on the observer entity.
	// attaching and detaching it keeps the observer index in sync. both
	// notifications are deferred, the attach or detach may itself happen
	// from within a running dispatch.
	w.observerStateType = registry.Register(reflect.TypeFor[observerState]())

	w.observerStateType.OnAdd = func(entityId EntityId, component any) {
		descriptor := component.(*observerState).descriptor
		w.queue(func(w *World) {
			w.observers.register(entityId, descriptor)
		})
	}

	w.observerStateType.OnRemove = func(entityId EntityId, component any) {
		descriptor := component.(*observerState).descriptor
		w.queue(func(w *World) {
			w.observers.unregister(entityId, descriptor)
		})
	}

	return w
}

// RunSystem runs a system within the world. Commands queued by the system
// are applied once it returns.
func (w *World) RunSystem(system AnySystem) {
	prepared := prepareSystem(w, system)
	prepared.run(systemContext{})
	w.flushQueued()
}

// Spawn spawns a new entity with the given components attached.
func (w *World) Spawn(components ...any) EntityId {
	entityId := w.store.Reserve()
	w.spawnReserved(entityId, components)
	return entityId
}

// spawnReserved materializes a previously reserved entity. The entity may
// already exist if something attached a record to it ahead of the deferred
// spawn command.
func (w *World) spawnReserved(entityId EntityId, components []any) {
	if !w.store.Contains(entityId) {
		w.store.Spawn(entityId)
	}

	for _, component := range components {
		w.insertComponent(entityId, component)
	}
}

func (w *World) insertComponent(entityId EntityId, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() != reflect.Pointer {
		ptr := reflect.New(value.Type())
		ptr.Elem().Set(value)
		value = ptr
	}

	w.store.Insert(entityId, value.Interface())
}

// Despawn despawns the given entity with all of its records.
func (w *World) Despawn(entityId EntityId) bool {
	return w.store.Despawn(entityId)
}

// Contains reports whether the entity currently exists.
func (w *World) Contains(entityId EntityId) bool {
	return w.store.Contains(entityId)
}

// EventCount returns the value of the global event counter. It increases
// by one for every emission batch that is dispatched.
func (w *World) EventCount() uint32 {
	return w.lastEventId
}

// Trigger immediately dispatches an event of a dynamic type to all
// matching observers. The events type must be registered.
func (w *World) Trigger(event any, targets ...EntityId) {
	ty := reflect.TypeOf(event)
	eventId := mustEventId(w, ty)

	payload := reflect.New(ty)
	payload.Elem().Set(reflect.ValueOf(event))

	w.triggerObservers(eventId, payload.Interface(), targets, nil)
}

func (w *World) queue(command Command) {
	w.flushes = append(w.flushes, command)
}

func (w *World) flushQueued() {
	for len(w.flushes) > 0 {
		command := w.flushes[0]
		w.flushes = w.flushes[1:]

		command(w)
	}
}

// mustEventId resolves the registered id of an event type. Using an event
// type before registering it is a hard precondition violation.
func mustEventId(w *World, ty reflect.Type) EventId {
	componentType, ok := w.store.Registry().Get(ty)
	if !ok {
		panic(fmt.Sprintf("event type %s has not been registered", ty))
	}

	return componentType.Id
}

// RegisterEvent registers E as an event kind and returns its id.
// Registration is idempotent.
func RegisterEvent[E any](w *World) EventId {
	return w.store.Registry().Register(reflect.TypeFor[E]()).Id
}

// RegisterComponent registers C as a component kind and returns its id.
// Registration is idempotent.
func RegisterComponent[C any](w *World) ComponentId {
	return w.store.Registry().Register(reflect.TypeFor[C]()).Id
}

// ComponentOf returns a pointer to the component of type C attached to the
// given entity.
func ComponentOf[C any](w *World, entityId EntityId) (*C, bool) {
	componentType, ok := w.store.Registry().Get(reflect.TypeFor[C]())
	if !ok {
		return nil, false
	}

	value, ok := w.store.Get(entityId, componentType.Id)
	if !ok {
		return nil, false
	}

	return value.(*C), true
}
