// Package wick implements the entity store backing the observer core:
// entity allocation, attach and detach of typed records, lifecycle hooks
// and a mutable borrow accessor that enforces a single mutable borrow
// per record at a time.
package wick

import (
	"fmt"
	"reflect"

	"github.com/calder-games/fuse/internal/assert"
)

type entityRecord struct {
	components map[ComponentId]any
	borrowed   map[ComponentId]bool
}

// Store holds entities and their attached records. A Store is not safe for
// concurrent use, there is a single logical mutator at a time.
type Store struct {
	registry *Registry
	entities map[EntityId]*entityRecord
	idSeq    EntityId
}

func NewStore(registry *Registry) *Store {
	return &Store{
		registry: registry,
		entities: map[EntityId]*entityRecord{},
	}
}

func (s *Store) Registry() *Registry {
	return s.registry
}

// Reserve allocates a fresh entity id without materializing the entity.
func (s *Store) Reserve() EntityId {
	s.idSeq += 1
	return s.idSeq
}

// Spawn materializes an entity. Pass NoEntityId to allocate a fresh id.
func (s *Store) Spawn(entityId EntityId) EntityId {
	if entityId == NoEntityId {
		entityId = s.Reserve()
	}

	if _, exists := s.entities[entityId]; exists {
		panic(fmt.Sprintf("entity %s already exists", entityId))
	}

	s.entities[entityId] = &entityRecord{
		components: map[ComponentId]any{},
	}

	return entityId
}

func (s *Store) Contains(entityId EntityId) bool {
	_, ok := s.entities[entityId]
	return ok
}

// Despawn removes an entity and all of its records. The OnRemove hook of
// each record runs while the record is still attached.
func (s *Store) Despawn(entityId EntityId) bool {
	entity, ok := s.entities[entityId]
	if !ok {
		return false
	}

	for componentId, component := range entity.components {
		componentType, ok := s.registry.ById(componentId)
		if ok && componentType.OnRemove != nil {
			componentType.OnRemove(entityId, component)
		}
	}

	delete(s.entities, entityId)
	return true
}

// Insert attaches the record pointed to by ptr to the entity. The records
// type must be registered. Inserting over an existing record replaces the
// value, the OnAdd hook only runs for the initial attach.
func (s *Store) Insert(entityId EntityId, ptr any) *ComponentType {
	assert.IsPointerType(reflect.TypeOf(ptr))

	entity, ok := s.entities[entityId]
	if !ok {
		panic(fmt.Sprintf("entity %s does not exist", entityId))
	}

	ty := reflect.TypeOf(ptr).Elem()

	componentType, ok := s.registry.Get(ty)
	if !ok {
		panic(fmt.Sprintf("component type %s has not been registered", ty))
	}

	_, replaced := entity.components[componentType.Id]
	entity.components[componentType.Id] = ptr

	if !replaced && componentType.OnAdd != nil {
		componentType.OnAdd(entityId, ptr)
	}

	return componentType
}

// Remove detaches a record from the entity. The OnRemove hook runs while
// the record is still attached.
func (s *Store) Remove(entityId EntityId, componentId ComponentId) (any, bool) {
	entity, ok := s.entities[entityId]
	if !ok {
		return nil, false
	}

	component, ok := entity.components[componentId]
	if !ok {
		return nil, false
	}

	if entity.borrowed[componentId] {
		panic(fmt.Sprintf("component %s of entity %s is mutably borrowed", componentId, entityId))
	}

	componentType, ok := s.registry.ById(componentId)
	if ok && componentType.OnRemove != nil {
		componentType.OnRemove(entityId, component)
	}

	delete(entity.components, componentId)
	return component, true
}

// Get returns a shared view of a record.
func (s *Store) Get(entityId EntityId, componentId ComponentId) (any, bool) {
	entity, ok := s.entities[entityId]
	if !ok {
		return nil, false
	}

	component, ok := entity.components[componentId]
	return component, ok
}

// BorrowMut returns a record for mutation. The record stays borrowed until
// the returned release function is called, taking a second mutable borrow
// of the same record in the meantime panics.
func (s *Store) BorrowMut(entityId EntityId, componentId ComponentId) (any, func(), bool) {
	entity, ok := s.entities[entityId]
	if !ok {
		return nil, nil, false
	}

	component, ok := entity.components[componentId]
	if !ok {
		return nil, nil, false
	}

	if entity.borrowed[componentId] {
		panic(fmt.Sprintf("component %s of entity %s is already mutably borrowed", componentId, entityId))
	}

	if entity.borrowed == nil {
		entity.borrowed = map[ComponentId]bool{}
	}

	entity.borrowed[componentId] = true

	release := func() {
		entity.borrowed[componentId] = false
	}

	return component, release, true
}
