package fuse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type healthBundle struct {
	Health Health
	Shield Shield
}

func TestRunReturnsHostBeforeAttachment(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)

	var observerId EntityId
	w.RunSystem(func(commands *Commands) {
		observerId = Observe[Damage](commands).Run(func(on On[Damage]) {})

		// the record is constructed through the command queue
		require.NotZero(t, observerId)
		require.False(t, w.Contains(observerId))
	})

	require.True(t, w.Contains(observerId))
}

func TestNarrowingToUntypedBuilder(t *testing.T) {
	w := NewWorld()

	damageId := RegisterEvent[Damage](w)
	explodeId := RegisterEvent[Explode](w)

	var events []EventId
	w.RunSystem(func(commands *Commands) {
		builder := Observe[Damage](commands)

		OnEvent[Explode](builder).Run(func(on On[NoEvent]) {
			require.Nil(t, on.Event)
			events = append(events, on.Trigger.Event)
		})
	})

	w.RunSystem(func(commands *Commands) {
		NewEvent(commands, Damage{Amount: 1}).Emit()
		NewEvent(commands, Explode{Value: "Boom"}).Emit()
	})

	require.Equal(t, []EventId{damageId, explodeId}, events)
}

func TestOnEventIds(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)
	explodeId := RegisterEvent[Explode](w)

	var count int
	w.RunSystem(func(commands *Commands) {
		Observe[Damage](commands).OnEventIds(explodeId).Run(func(on On[NoEvent]) {
			count += 1
		})
	})

	w.RunSystem(func(commands *Commands) {
		NewEvent(commands, Explode{Value: "Boom"}).Emit()
	})

	require.Equal(t, 1, count)
}

func TestWatchComponentsBundle(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)
	RegisterComponent[Health](w)
	shieldId := RegisterComponent[Shield](w)

	var count int
	w.RunSystem(func(commands *Commands) {
		builder := Observe[Damage](commands)

		WatchComponents[healthBundle](builder).Run(func(on On[Damage]) {
			count += 1
		})
	})

	w.RunSystem(func(commands *Commands) {
		NewEvent(commands, Damage{Amount: 1}).Component(shieldId).Emit()
	})

	require.Equal(t, 1, count)

	// without a matching target component the observer stays silent
	w.RunSystem(func(commands *Commands) {
		NewEvent(commands, Damage{Amount: 1}).Emit()
	})

	require.Equal(t, 1, count)
}

func TestWatchComponentsRequiresRegistration(t *testing.T) {
	type unregistered struct{}
	type badBundle struct {
		Value unregistered
	}

	w := NewWorld()
	RegisterEvent[Damage](w)

	require.Panics(t, func() {
		w.RunSystem(func(commands *Commands) {
			WatchComponents[badBundle](Observe[Damage](commands))
		})
	})
}

func TestObserveRequiresRegisteredEvent(t *testing.T) {
	type unregistered struct{}

	w := NewWorld()

	require.Panics(t, func() {
		w.RunSystem(func(commands *Commands) {
			Observe[unregistered](commands)
		})
	})
}

func TestExclusiveCallbackIsRejected(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)

	require.Panics(t, func() {
		w.RunSystem(func(commands *Commands) {
			Observe[Damage](commands).Run(func(on On[Damage], world *World) {})
		})
	})
}

func TestCallbackMustTakeMatchingOnParam(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)
	RegisterEvent[Explode](w)

	require.Panics(t, func() {
		w.RunSystem(func(commands *Commands) {
			Observe[Damage](commands).Run(func(on On[Explode]) {})
		})
	})
}

func TestRawRunner(t *testing.T) {
	w := NewWorld()

	RegisterEvent[Damage](w)

	var a, b EntityId
	w.RunSystem(func(commands *Commands) {
		a = commands.Spawn().Id()
		b = commands.Spawn().Id()
	})

	var sources []EntityId
	w.RunSystem(func(commands *Commands) {
		Observe[Damage](commands).Runner(func(world *World, trigger Trigger, payload AnyPtr) {
			require.Equal(t, 5, payload.(*Damage).Amount)
			sources = append(sources, trigger.Source)
		})
	})

	// a raw runner is invoked once per matching target, deduplication is
	// the default runners business
	w.RunSystem(func(commands *Commands) {
		NewEvent(commands, Damage{Amount: 5}).Entity(a).Entity(b).Emit()
	})

	require.Equal(t, []EntityId{a, b}, sources)
}
