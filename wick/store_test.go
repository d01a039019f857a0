package wick

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type health struct {
	current int
}

type label struct {
	value string
}

func newTestStore() *Store {
	registry := NewRegistry()
	registry.Register(reflect.TypeFor[health]())
	registry.Register(reflect.TypeFor[label]())

	return NewStore(registry)
}

func TestSpawnAndDespawn(t *testing.T) {
	store := newTestStore()

	entityId := store.Spawn(NoEntityId)
	require.True(t, store.Contains(entityId))

	require.True(t, store.Despawn(entityId))
	require.False(t, store.Contains(entityId))
	require.False(t, store.Despawn(entityId))
}

func TestReserveThenSpawn(t *testing.T) {
	store := newTestStore()

	entityId := store.Reserve()
	require.False(t, store.Contains(entityId))

	require.Equal(t, entityId, store.Spawn(entityId))
	require.True(t, store.Contains(entityId))

	require.Panics(t, func() {
		store.Spawn(entityId)
	})
}

func TestInsertGetRemove(t *testing.T) {
	store := newTestStore()

	entityId := store.Spawn(NoEntityId)

	componentType := store.Insert(entityId, &health{current: 10})

	value, ok := store.Get(entityId, componentType.Id)
	require.True(t, ok)
	require.Equal(t, 10, value.(*health).current)

	removed, ok := store.Remove(entityId, componentType.Id)
	require.True(t, ok)
	require.Equal(t, 10, removed.(*health).current)

	_, ok = store.Get(entityId, componentType.Id)
	require.False(t, ok)
}

func TestInsertRequiresRegistration(t *testing.T) {
	type unregistered struct{}

	store := newTestStore()
	entityId := store.Spawn(NoEntityId)

	require.Panics(t, func() {
		store.Insert(entityId, &unregistered{})
	})
}

func TestLifecycleHooks(t *testing.T) {
	registry := NewRegistry()
	componentType := registry.Register(reflect.TypeFor[health]())

	var calls []string
	componentType.OnAdd = func(entityId EntityId, component any) {
		require.Equal(t, 10, component.(*health).current)
		calls = append(calls, "add")
	}
	componentType.OnRemove = func(entityId EntityId, component any) {
		calls = append(calls, "remove")
	}

	store := NewStore(registry)
	entityId := store.Spawn(NoEntityId)

	store.Insert(entityId, &health{current: 10})
	require.Equal(t, []string{"add"}, calls)

	// replacing the value does not count as a second attach
	store.Insert(entityId, &health{current: 10})
	require.Equal(t, []string{"add"}, calls)

	store.Remove(entityId, componentType.Id)
	require.Equal(t, []string{"add", "remove"}, calls)

	store.Insert(entityId, &health{current: 10})
	store.Despawn(entityId)
	require.Equal(t, []string{"add", "remove", "add", "remove"}, calls)
}

func TestBorrowMut(t *testing.T) {
	store := newTestStore()

	entityId := store.Spawn(NoEntityId)
	componentType := store.Insert(entityId, &health{current: 10})

	value, release, ok := store.BorrowMut(entityId, componentType.Id)
	require.True(t, ok)

	value.(*health).current = 20

	// a second overlapping mutable borrow is forbidden
	require.Panics(t, func() {
		store.BorrowMut(entityId, componentType.Id)
	})

	release()

	value, release, ok = store.BorrowMut(entityId, componentType.Id)
	require.True(t, ok)
	require.Equal(t, 20, value.(*health).current)
	release()
}

func TestRemoveWhileBorrowedPanics(t *testing.T) {
	store := newTestStore()

	entityId := store.Spawn(NoEntityId)
	componentType := store.Insert(entityId, &health{current: 10})

	_, release, ok := store.BorrowMut(entityId, componentType.Id)
	require.True(t, ok)
	defer release()

	require.Panics(t, func() {
		store.Remove(entityId, componentType.Id)
	})
}

func TestRegistryIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	first := registry.Register(reflect.TypeFor[health]())
	second := registry.Register(reflect.TypeFor[health]())
	require.Same(t, first, second)

	other := registry.Register(reflect.TypeFor[label]())
	require.NotEqual(t, first.Id, other.Id)

	byId, ok := registry.ById(first.Id)
	require.True(t, ok)
	require.Same(t, first, byId)

	_, ok = registry.Get(reflect.TypeFor[int]())
	require.False(t, ok)
}
