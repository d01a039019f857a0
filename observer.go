package fuse

import (
	"fmt"
	"slices"
)

// ObserverRunner is the type-erased function that is run when an observer
// is triggered. Observers built with a typed callback use the default
// runner, Runner lets callers override it.
type ObserverRunner func(world *World, trigger Trigger, payload AnyPtr)

// observerDescriptor holds the match criteria of an observer. An empty
// set matches anything, an observer with all three sets empty matches
// every emission unconditionally.
type observerDescriptor struct {
	events     []EventId
	components []ComponentId
	sources    []EntityId
}

func (d observerDescriptor) clone() observerDescriptor {
	return observerDescriptor{
		events:     slices.Clone(d.events),
		components: slices.Clone(d.components),
		sources:    slices.Clone(d.sources),
	}
}

// observerState is the record attached to an observer entity. It is
// immutable once attached, except for the system slot the dispatch path
// temporarily takes the callback out of and the dedup counter.
type observerState struct {
	descriptor observerDescriptor
	runner     ObserverRunner

	// the boxed callback the default runner bridges to. nil when the
	// observer was built with a raw runner, or while the callback is
	// executing.
	system *preparedSystem

	// value of the global event counter this observer last ran for
	lastEventId uint32
}

func newObserverState(world *World, descriptor observerDescriptor, callback AnySystem) *observerState {
	return &observerState{
		descriptor: descriptor,
		runner:     runObserverCallback,
		system:     newObserverSystem(world, callback),
	}
}

// runObserverCallback is the default observer runner. It bridges from the
// type-erased call site to the observers typed callback.
//
// The record is mutably borrowed for the dedup check and for taking the
// callback out of its slot, but never across the callback invocation: the
// callback may read, mutate or remove the very record that holds it.
func runObserverCallback(world *World, trigger Trigger, payload AnyPtr) {
	if trigger.Source == PlaceholderEntityId {
		return
	}

	stateId := world.observerStateType.Id

	value, release, ok := world.store.BorrowMut(trigger.Observer, stateId)
	if !ok {
		return
	}

	state := value.(*observerState)

	// the observer already ran for this emission, e.g. because it
	// matched more than one of the emissions targets. the check must be
	// monotonic, nested emissions advance the counter while the outer
	// emission is still dispatching its remaining targets.
	if state.lastEventId >= trigger.EventCount {
		release()
		return
	}

	system := state.system
	if system == nil {
		release()

		// a nested emission matched the observer whose callback is
		// currently executing. lastEventId stays untouched, the outer
		// emission still has to deduplicate against its own count.
		fmt.Printf("[warn] observer %s has no callback to run, skipping trigger\n", trigger.Observer)
		return
	}

	// mark the emission handled and take the callback out of the
	// record, dropping the borrow before running it
	state.lastEventId = trigger.EventCount
	state.system = nil
	release()

	// the run call invokes the callback and then applies the commands
	// the callback queued, in order
	system.run(systemContext{trigger: trigger, payload: payload})

	// put the callback back, unless it removed its own observer
	if value, release, ok := world.store.BorrowMut(trigger.Observer, stateId); ok {
		value.(*observerState).system = system
		release()
	}
}
