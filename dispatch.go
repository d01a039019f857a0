package fuse

import (
	"github.com/calder-games/fuse/internal/set"
	"github.com/calder-games/fuse/internal/typedpool"
)

var observerSlices = typedpool.New[[]EntityId]()

// triggerObservers dispatches one emission to every matching observer.
// The global event counter advances once per emission, runners use it to
// make sure each observer fires at most once even when it matches through
// multiple targets.
func (w *World) triggerObservers(eventId EventId, payload AnyPtr, entities []EntityId, components []ComponentId) {
	w.lastEventId += 1

	emission := emission{
		eventId:    eventId,
		eventCount: w.lastEventId,
		payload:    payload,
	}

	if bucket, ok := w.observers.byEvent[eventId]; ok {
		w.dispatchBucket(bucket, emission, entities, components)
	}

	// observers with an empty event set match every event
	if bucket, ok := w.observers.byEvent[anyEvent]; ok && eventId != anyEvent {
		w.dispatchBucket(bucket, emission, entities, components)
	}
}

type emission struct {
	eventId    EventId
	eventCount uint32
	payload    AnyPtr
}

func (w *World) dispatchBucket(bucket *eventObservers, emission emission, entities []EntityId, components []ComponentId) {
	if len(entities) == 0 {
		w.invokeObservers(&bucket.unscoped, emission, NoEntityId, 0)
	}

	for _, source := range entities {
		w.invokeObservers(&bucket.unscoped, emission, source, 0)

		if scoped, ok := bucket.bySource[source]; ok {
			w.invokeObservers(scoped, emission, source, 0)
		}
	}

	for _, componentId := range components {
		scoped, ok := bucket.byComponent[componentId]
		if !ok {
			continue
		}

		if len(entities) == 0 {
			w.invokeObservers(&scoped.unscoped, emission, NoEntityId, componentId)
		}

		for _, source := range entities {
			w.invokeObservers(&scoped.unscoped, emission, source, componentId)

			if sourceScoped, ok := scoped.bySource[source]; ok {
				w.invokeObservers(sourceScoped, emission, source, componentId)
			}
		}
	}
}

// invokeObservers runs the runner of every observer in the set. The set is
// snapshotted first, a callback may register or unregister observers and
// mutate the index while we are dispatching.
func (w *World) invokeObservers(observers *set.Set[EntityId], emission emission, source EntityId, componentId ComponentId) {
	if observers.Len() == 0 {
		return
	}

	observerIds := observerSlices.Get()
	defer observerSlices.Put(observerIds)

	*observerIds = (*observerIds)[:0]
	for observerId := range observers.Values() {
		*observerIds = append(*observerIds, observerId)
	}

	for _, observerId := range *observerIds {
		// consult the live record, the observer may have been removed
		// by an earlier callback of this very emission
		value, ok := w.store.Get(observerId, w.observerStateType.Id)
		if !ok {
			continue
		}

		trigger := Trigger{
			Observer:   observerId,
			Source:     source,
			Component:  componentId,
			Event:      emission.eventId,
			EventCount: emission.eventCount,
		}

		value.(*observerState).runner(w, trigger, emission.payload)
	}
}
