package fuse

import (
	"fmt"
	"reflect"

	"github.com/calder-games/fuse/internal/refl"
)

// observerBuilder is the state shared by the typed and the untyped
// builder front.
type observerBuilder struct {
	entity     EntityId
	commands   *Commands
	descriptor observerDescriptor
}

// AnyObserverBuilder is implemented by both ObserverBuilder and
// UntypedObserverBuilder.
type AnyObserverBuilder interface {
	builderState() *observerBuilder
}

// ObserverBuilder incrementally assembles an observer for events of type
// E. Adding further event kinds via OnEvent or OnEventIds narrows the
// builder to an UntypedObserverBuilder, the callback can then no longer
// assume a single payload type.
type ObserverBuilder[E any] struct {
	b *observerBuilder
}

// UntypedObserverBuilder assembles an observer listening to multiple or
// dynamically supplied event kinds. Its callback takes On[NoEvent] and
// has no typed payload access.
type UntypedObserverBuilder struct {
	b *observerBuilder
}

// Observe starts building an observer for events of type E on a freshly
// spawned entity. E must already be registered, use NoEvent to start
// without an event restriction.
func Observe[E any](c *Commands) *ObserverBuilder[E] {
	return ObserveEntity[E](c, c.Spawn().Id())
}

// ObserveEntity is like Observe but attaches the observer to an existing
// entity.
func ObserveEntity[E any](c *Commands, entity EntityId) *ObserverBuilder[E] {
	b := &observerBuilder{
		entity:   entity,
		commands: c,
	}

	if eventType := reflect.TypeFor[E](); eventType != noEventType {
		b.descriptor.events = append(b.descriptor.events, mustEventId(c.world, eventType))
	}

	return &ObserverBuilder[E]{b: b}
}

// AddObserver spawns an observer for events of type E with the given
// callback and returns the observer entity.
func AddObserver[E any](c *Commands, callback AnySystem) EntityId {
	return Observe[E](c).Run(callback)
}

// OnEvent adds F to the event kinds listened to by the observer and
// narrows the builder to its untyped form.
func OnEvent[F any, B AnyObserverBuilder](builder B) *UntypedObserverBuilder {
	b := builder.builderState()
	b.descriptor.events = append(b.descriptor.events, mustEventId(b.commands.world, reflect.TypeFor[F]()))
	return &UntypedObserverBuilder{b: b}
}

// WatchComponents adds the component kinds of the bundle struct B to the
// observers component criteria. All members of B must be registered.
func WatchComponents[Bundle any, B AnyObserverBuilder](builder B) B {
	b := builder.builderState()
	b.descriptor.components = append(b.descriptor.components, bundleComponentIds(b.commands.world, reflect.TypeFor[Bundle]())...)
	return builder
}

func (b *ObserverBuilder[E]) builderState() *observerBuilder {
	return b.b
}

// OnEventIds adds dynamically supplied event kinds and narrows the
// builder to its untyped form.
func (b *ObserverBuilder[E]) OnEventIds(ids ...EventId) *UntypedObserverBuilder {
	b.b.descriptor.events = append(b.b.descriptor.events, ids...)
	return &UntypedObserverBuilder{b: b.b}
}

// ComponentIds adds component kinds to the observers component criteria.
func (b *ObserverBuilder[E]) ComponentIds(ids ...ComponentId) *ObserverBuilder[E] {
	b.b.descriptor.components = append(b.b.descriptor.components, ids...)
	return b
}

// Source scopes the observer to emissions targeting the given entity.
func (b *ObserverBuilder[E]) Source(entity EntityId) *ObserverBuilder[E] {
	b.b.descriptor.sources = append(b.b.descriptor.sources, entity)
	return b
}

// Run finalizes the observer with a typed callback, its first parameter
// must be of type On[E]. The observer record is constructed through the
// command queue, the observer entity id is returned right away.
func (b *ObserverBuilder[E]) Run(callback AnySystem) EntityId {
	mustObserveOnType(callback, reflect.TypeFor[On[E]]())
	return b.b.run(callback)
}

// Runner finalizes the observer with a caller supplied type-erased
// runner. No callback needs to be initialized against the store, so the
// record is attached right away.
func (b *ObserverBuilder[E]) Runner(runner ObserverRunner) EntityId {
	return b.b.rawRunner(runner)
}

func (b *UntypedObserverBuilder) builderState() *observerBuilder {
	return b.b
}

// OnEventIds adds dynamically supplied event kinds.
func (b *UntypedObserverBuilder) OnEventIds(ids ...EventId) *UntypedObserverBuilder {
	b.b.descriptor.events = append(b.b.descriptor.events, ids...)
	return b
}

// ComponentIds adds component kinds to the observers component criteria.
func (b *UntypedObserverBuilder) ComponentIds(ids ...ComponentId) *UntypedObserverBuilder {
	b.b.descriptor.components = append(b.b.descriptor.components, ids...)
	return b
}

// Source scopes the observer to emissions targeting the given entity.
func (b *UntypedObserverBuilder) Source(entity EntityId) *UntypedObserverBuilder {
	b.b.descriptor.sources = append(b.b.descriptor.sources, entity)
	return b
}

// Run finalizes the observer with an untyped callback, its first
// parameter must be of type On[NoEvent].
func (b *UntypedObserverBuilder) Run(callback AnySystem) EntityId {
	mustObserveOnType(callback, reflect.TypeFor[On[NoEvent]]())
	return b.b.run(callback)
}

// Runner finalizes the observer with a caller supplied type-erased
// runner.
func (b *UntypedObserverBuilder) Runner(runner ObserverRunner) EntityId {
	return b.b.rawRunner(runner)
}

func (b *observerBuilder) run(callback AnySystem) EntityId {
	world := b.commands.world

	// the component kinds declared by the callbacks parameters join the
	// match criteria
	descriptor := b.descriptor.clone()
	descriptor.components = append(descriptor.components, componentIdsOf(world, callback)...)

	entity := b.entity

	b.commands.Queue(func(world *World) {
		state := newObserverState(world, descriptor, callback)
		world.spawnReserved(entity, nil)
		world.store.Insert(entity, state)
	})

	return entity
}

func (b *observerBuilder) rawRunner(runner ObserverRunner) EntityId {
	world := b.commands.world

	state := &observerState{
		descriptor: b.descriptor.clone(),
		runner:     runner,
	}

	world.spawnReserved(b.entity, nil)
	world.store.Insert(b.entity, state)

	return b.entity
}

// bundleComponentIds resolves the component kinds of a bundle struct.
// Every field of the bundle must be a registered component type.
func bundleComponentIds(w *World, bundleType reflect.Type) []ComponentId {
	if bundleType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("bundle must be a struct type, got %s", bundleType))
	}

	var ids []ComponentId

	for field := range refl.IterFields(bundleType) {
		componentType, ok := w.store.Registry().Get(field.Type)
		if !ok {
			panic(fmt.Sprintf("cannot observe component before it is registered: %s", field.Type))
		}

		ids = append(ids, componentType.Id)
	}

	return ids
}
