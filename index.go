package fuse

import "github.com/calder-games/fuse/internal/set"

// anyEvent is the index bucket of observers with an empty event set.
// Registered event ids start at one, so the zero id is free.
const anyEvent = EventId(0)

// observerIndex finds the observers matching an emission by event id,
// target component and target entity without scanning all observers.
// An observer listening to multiple event kinds is indexed once per kind.
type observerIndex struct {
	byEvent map[EventId]*eventObservers
}

type eventObservers struct {
	// observers with neither component nor source criteria
	unscoped set.Set[EntityId]

	// observers scoped to a source entity only
	bySource map[EntityId]*set.Set[EntityId]

	// observers with component criteria
	byComponent map[ComponentId]*componentObservers
}

type componentObservers struct {
	// component-scoped observers without source criteria
	unscoped set.Set[EntityId]

	// observers requiring both the component and a source entity
	bySource map[EntityId]*set.Set[EntityId]
}

func (i *observerIndex) register(observerId EntityId, descriptor observerDescriptor) {
	events := descriptor.events
	if len(events) == 0 {
		events = []EventId{anyEvent}
	}

	for _, eventId := range events {
		i.bucketOf(eventId).register(observerId, descriptor)
	}
}

func (i *observerIndex) unregister(observerId EntityId, descriptor observerDescriptor) {
	events := descriptor.events
	if len(events) == 0 {
		events = []EventId{anyEvent}
	}

	for _, eventId := range events {
		bucket, ok := i.byEvent[eventId]
		if !ok {
			continue
		}

		bucket.unregister(observerId, descriptor)
	}
}

func (i *observerIndex) bucketOf(eventId EventId) *eventObservers {
	if i.byEvent == nil {
		i.byEvent = map[EventId]*eventObservers{}
	}

	bucket, ok := i.byEvent[eventId]
	if !ok {
		bucket = &eventObservers{}
		i.byEvent[eventId] = bucket
	}

	return bucket
}

func (b *eventObservers) register(observerId EntityId, descriptor observerDescriptor) {
	switch {
	case len(descriptor.components) == 0 && len(descriptor.sources) == 0:
		b.unscoped.Insert(observerId)

	case len(descriptor.components) == 0:
		for _, source := range descriptor.sources {
			insertInto(&b.bySource, source, observerId)
		}

	default:
		for _, componentId := range descriptor.components {
			if b.byComponent == nil {
				b.byComponent = map[ComponentId]*componentObservers{}
			}

			scoped, ok := b.byComponent[componentId]
			if !ok {
				scoped = &componentObservers{}
				b.byComponent[componentId] = scoped
			}

			if len(descriptor.sources) == 0 {
				scoped.unscoped.Insert(observerId)
				continue
			}

			for _, source := range descriptor.sources {
				insertInto(&scoped.bySource, source, observerId)
			}
		}
	}
}

func (b *eventObservers) unregister(observerId EntityId, descriptor observerDescriptor) {
	b.unscoped.Remove(observerId)

	for _, source := range descriptor.sources {
		removeFrom(b.bySource, source, observerId)
	}

	for _, componentId := range descriptor.components {
		scoped, ok := b.byComponent[componentId]
		if !ok {
			continue
		}

		scoped.unscoped.Remove(observerId)

		for _, source := range descriptor.sources {
			removeFrom(scoped.bySource, source, observerId)
		}

		if scoped.unscoped.Len() == 0 && len(scoped.bySource) == 0 {
			delete(b.byComponent, componentId)
		}
	}
}

func insertInto(buckets *map[EntityId]*set.Set[EntityId], source EntityId, observerId EntityId) {
	if *buckets == nil {
		*buckets = map[EntityId]*set.Set[EntityId]{}
	}

	bucket, ok := (*buckets)[source]
	if !ok {
		bucket = &set.Set[EntityId]{}
		(*buckets)[source] = bucket
	}

	bucket.Insert(observerId)
}

func removeFrom(buckets map[EntityId]*set.Set[EntityId], source EntityId, observerId EntityId) {
	bucket, ok := buckets[source]
	if !ok {
		return
	}

	bucket.Remove(observerId)

	if bucket.Len() == 0 {
		delete(buckets, source)
	}
}
