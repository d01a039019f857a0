package fuse

import (
	"fmt"
	"reflect"

	"github.com/calder-games/fuse/internal/assert"
	"github.com/calder-games/fuse/internal/refl"
	"github.com/calder-games/fuse/internal/typedpool"
	"github.com/calder-games/fuse/wick"
)

// AnySystem is a plain function. Parameters are injected based on their
// type when the system runs.
type AnySystem = any

// systemContext carries the per-invocation inputs of a system. For
// observer callbacks it holds the trigger and the raw event payload.
type systemContext struct {
	trigger Trigger
	payload AnyPtr
}

type systemParamState interface {
	// getValue returns the value that should be passed to the system.
	getValue(sc systemContext) reflect.Value

	// cleanupValue is called once the system has executed. It is used
	// to e.g. apply a Commands value against the world.
	cleanupValue()

	// valueType returns the exact type that getValue will return.
	valueType() reflect.Type
}

type preparedSystem struct {
	fn     reflect.Value
	params []systemParamState
}

var valueSlices = typedpool.New[[]reflect.Value]()

func (s *preparedSystem) run(sc systemContext) {
	paramValues := valueSlices.Get()
	defer valueSlices.Put(paramValues)

	*paramValues = (*paramValues)[:0]

	for _, param := range s.params {
		*paramValues = append(*paramValues, param.getValue(sc))
	}

	s.fn.Call(*paramValues)

	for _, param := range s.params {
		param.cleanupValue()
	}

	// clear any pointers that are still in the param slice
	clear(*paramValues)
}

// prepareSystem prepares a system for World.RunSystem. Trigger access is
// only available to observer callbacks.
func prepareSystem(w *World, system AnySystem) *preparedSystem {
	fn := reflect.ValueOf(system)
	assert.IsFuncType(fn.Type())

	prepared := &preparedSystem{fn: fn}

	systemType := fn.Type()
	for idx := range systemType.NumIn() {
		inType := systemType.In(idx)

		switch {
		case inType == reflect.TypeFor[*World]():
			prepared.params = append(prepared.params, valueParamState(reflect.ValueOf(w)))

		case inType == reflect.TypeFor[*Commands]():
			prepared.params = append(prepared.params, newCommandsParamState(w))

		case isOnType(inType):
			panic(fmt.Sprintf("%s is only available to observer callbacks", inType))

		default:
			panic(fmt.Sprintf("can not handle system param of type %s", inType))
		}
	}

	verifyParamTypes(prepared)
	return prepared
}

// newObserverSystem prepares an observer callback. The first parameter
// must be of type On[E]. Callbacks that require full world access are
// exclusive and can not be triggered from within a store mutation.
func newObserverSystem(w *World, callback AnySystem) *preparedSystem {
	fn := reflect.ValueOf(callback)

	onType := observedOnTypeOf(callback)

	prepared := &preparedSystem{fn: fn}
	prepared.params = append(prepared.params, newOnParamState(onType))

	systemType := fn.Type()
	for idx := 1; idx < systemType.NumIn(); idx++ {
		inType := systemType.In(idx)

		switch {
		case inType == reflect.TypeFor[*Commands]():
			prepared.params = append(prepared.params, newCommandsParamState(w))

		case inType == reflect.TypeFor[*World]():
			panic(fmt.Sprintf(
				"cannot use an exclusive system as an observer callback: %s requires full world access",
				systemType,
			))

		case isComponentPtrType(w, inType):
			componentType, _ := w.store.Registry().Get(inType.Elem())
			prepared.params = append(prepared.params, &componentParamState{
				world:         w,
				componentType: componentType,
			})

		default:
			panic(fmt.Sprintf("can not handle observer callback param of type %s", inType))
		}
	}

	verifyParamTypes(prepared)
	return prepared
}

func verifyParamTypes(prepared *preparedSystem) {
	systemType := prepared.fn.Type()

	for idx, param := range prepared.params {
		inType := systemType.In(idx)
		if !param.valueType().AssignableTo(inType) {
			panic(fmt.Sprintf(
				"argument %d of %s is not assignable to param value of type %s",
				idx, systemType, inType,
			))
		}
	}
}

// observedOnTypeOf returns the reflect type of the callbacks first
// parameter, which must be an On[E] value.
func observedOnTypeOf(callback AnySystem) reflect.Type {
	fnType := reflect.TypeOf(callback)
	assert.IsFuncType(fnType)

	if fnType.NumIn() < 1 {
		panic("observer callbacks first parameter must be of type On[E]")
	}

	onType := fnType.In(0)
	if !isOnType(onType) {
		panic(fmt.Sprintf("observer callbacks first parameter must be of type On[E], got %s", onType))
	}

	return onType
}

// mustObserveOnType verifies that the callbacks first parameter is the
// expected On type and rejects exclusive callbacks. Both are registration
// time errors, they fire before any dispatch occurs.
func mustObserveOnType(callback AnySystem, onType reflect.Type) {
	actual := observedOnTypeOf(callback)
	if actual != onType {
		panic(fmt.Sprintf("observer callbacks first parameter must be of type %s, got %s", onType, actual))
	}

	rejectExclusive(reflect.TypeOf(callback))
}

func rejectExclusive(fnType reflect.Type) {
	for idx := 1; idx < fnType.NumIn(); idx++ {
		if fnType.In(idx) == reflect.TypeFor[*World]() {
			panic(fmt.Sprintf(
				"cannot use an exclusive system as an observer callback: %s requires full world access",
				fnType,
			))
		}
	}
}

// observedEventTypeOf returns the event type E observed by the callbacks
// On[E] parameter.
func observedEventTypeOf(callback AnySystem) reflect.Type {
	onType := observedOnTypeOf(callback)
	onValue := reflect.New(onType).Elem().Interface().(isOn)
	return onValue.eventType()
}

func isOnType(ty reflect.Type) bool {
	return ty.Kind() == reflect.Struct && refl.ImplementsInterfaceDirectly[isOn](ty)
}

// componentIdsOf resolves the component kinds declared by the callbacks
// pointer parameters. Unregistered component types are a hard
// precondition violation.
func componentIdsOf(w *World, callback AnySystem) []ComponentId {
	fnType := reflect.TypeOf(callback)
	assert.IsFuncType(fnType)

	var ids []ComponentId

	for idx := 1; idx < fnType.NumIn(); idx++ {
		inType := fnType.In(idx)
		if inType.Kind() != reflect.Pointer || inType == reflect.TypeFor[*Commands]() || inType == reflect.TypeFor[*World]() {
			continue
		}

		componentType, ok := w.store.Registry().Get(inType.Elem())
		if !ok {
			panic(fmt.Sprintf("cannot observe component before it is registered: %s", inType.Elem()))
		}

		ids = append(ids, componentType.Id)
	}

	return ids
}

func isComponentPtrType(w *World, ty reflect.Type) bool {
	if ty.Kind() != reflect.Pointer {
		return false
	}

	_, ok := w.store.Registry().Get(ty.Elem())
	return ok
}

// valueParamState is a simple implementation of systemParamState that
// just returns a constant value.
type valueParamState reflect.Value

func (s valueParamState) getValue(systemContext) reflect.Value {
	return reflect.Value(s)
}

func (s valueParamState) valueType() reflect.Type {
	return reflect.Value(s).Type()
}

func (valueParamState) cleanupValue() {
	// do nothing
}

type commandsParamState Commands

func newCommandsParamState(w *World) *commandsParamState {
	return (*commandsParamState)(&Commands{world: w})
}

func (c *commandsParamState) getValue(systemContext) reflect.Value {
	return reflect.ValueOf((*Commands)(c))
}

func (c *commandsParamState) cleanupValue() {
	(*Commands)(c).applyToWorld()
}

func (*commandsParamState) valueType() reflect.Type {
	return reflect.TypeFor[*Commands]()
}

type onParamState struct {
	onType    reflect.Type
	makeValue func(payload AnyPtr, trigger Trigger) isOn
}

func newOnParamState(onType reflect.Type) *onParamState {
	onValue := reflect.New(onType).Elem().Interface().(isOn)

	return &onParamState{
		onType:    onType,
		makeValue: onValue.make,
	}
}

func (o *onParamState) getValue(sc systemContext) reflect.Value {
	return reflect.ValueOf(o.makeValue(sc.payload, sc.trigger))
}

func (o *onParamState) cleanupValue() {}

func (o *onParamState) valueType() reflect.Type {
	return o.onType
}

// componentParamState injects a pointer to a component of the triggers
// source entity, or nil if the source does not have the component.
type componentParamState struct {
	world         *World
	componentType *wick.ComponentType
}

func (c *componentParamState) getValue(sc systemContext) reflect.Value {
	source := sc.trigger.Source

	if source != NoEntityId && source != PlaceholderEntityId {
		if value, ok := c.world.store.Get(source, c.componentType.Id); ok {
			return reflect.ValueOf(value)
		}
	}

	return reflect.Zero(reflect.PointerTo(c.componentType.Type))
}

func (c *componentParamState) cleanupValue() {}

func (c *componentParamState) valueType() reflect.Type {
	return reflect.PointerTo(c.componentType.Type)
}
