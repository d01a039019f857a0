package wick

import (
	"log/slog"
	"reflect"
	"strconv"

	"github.com/calder-games/fuse/internal/assert"
)

type ComponentId uint32

func (c ComponentId) String() string {
	return strconv.Itoa(int(c))
}

// Hook is called when a record is attached to or detached from an entity.
// For the detach case the hook runs while the record is still readable.
type Hook func(entityId EntityId, component any)

// ComponentType describes a registered record kind. Event payload kinds are
// registered here as well, they share the ComponentId space.
type ComponentType struct {
	Id   ComponentId
	Type reflect.Type
	Name string

	OnAdd    Hook
	OnRemove Hook
}

func (c *ComponentType) String() string {
	return c.Name
}

func (c *ComponentType) New() any {
	return reflect.New(c.Type).Interface()
}

// Registry assigns stable identifiers to record and event types.
// Types must be registered before they are used anywhere else,
// a lookup of an unregistered type is a precondition violation
// that the caller is expected to escalate.
type Registry struct {
	byType map[reflect.Type]*ComponentType
	byId   map[ComponentId]*ComponentType
	idSeq  ComponentId
}

func NewRegistry() *Registry {
	return &Registry{
		byType: map[reflect.Type]*ComponentType{},
		byId:   map[ComponentId]*ComponentType{},
	}
}

// Register assigns an id to the given type. Registering the same type twice
// returns the existing registration.
func (r *Registry) Register(ty reflect.Type) *ComponentType {
	assert.IsNonPointerType(ty)

	if existing, ok := r.byType[ty]; ok {
		return existing
	}

	r.idSeq += 1

	componentType := &ComponentType{
		Id:   r.idSeq,
		Type: ty,
		Name: ty.String(),
	}

	r.byType[ty] = componentType
	r.byId[componentType.Id] = componentType

	slog.Debug(
		"New component type registered",
		slog.String("name", componentType.Name),
		slog.Int("id", int(componentType.Id)),
	)

	return componentType
}

func (r *Registry) Get(ty reflect.Type) (*ComponentType, bool) {
	componentType, ok := r.byType[ty]
	return componentType, ok
}

func (r *Registry) ById(id ComponentId) (*ComponentType, bool) {
	componentType, ok := r.byId[id]
	return componentType, ok
}
