package fuse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSystemParams(t *testing.T) {
	w := NewWorld()

	var ran bool
	w.RunSystem(func(world *World, commands *Commands) {
		require.Same(t, w, world)
		require.NotNil(t, commands)
		ran = true
	})

	require.True(t, ran)
}

func TestRunSystemRejectsTriggerParams(t *testing.T) {
	w := NewWorld()

	require.Panics(t, func() {
		w.RunSystem(func(on On[Damage]) {})
	})
}

func TestRunSystemRejectsUnknownParams(t *testing.T) {
	w := NewWorld()

	require.Panics(t, func() {
		w.RunSystem(func(value int) {})
	})
}

func TestCommandsApplyAfterSystem(t *testing.T) {
	w := NewWorld()

	RegisterComponent[Health](w)

	var entityId EntityId
	w.RunSystem(func(commands *Commands) {
		entityId = commands.Spawn(Health{Current: 3}).Id()
		require.False(t, w.Contains(entityId))
	})

	require.True(t, w.Contains(entityId))

	health, ok := ComponentOf[Health](w, entityId)
	require.True(t, ok)
	require.Equal(t, 3, health.Current)
}

func TestInsertAndRemoveComponents(t *testing.T) {
	w := NewWorld()

	healthId := RegisterComponent[Health](w)

	var entityId EntityId
	w.RunSystem(func(commands *Commands) {
		entityId = commands.Spawn().Id()
	})

	w.RunSystem(func(commands *Commands) {
		commands.Entity(entityId).Insert(Health{Current: 5})
	})

	health, ok := ComponentOf[Health](w, entityId)
	require.True(t, ok)
	require.Equal(t, 5, health.Current)

	w.RunSystem(func(commands *Commands) {
		commands.Entity(entityId).Remove(healthId)
	})

	_, ok = ComponentOf[Health](w, entityId)
	require.False(t, ok)
}
