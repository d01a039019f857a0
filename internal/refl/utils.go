package refl

import (
	"iter"
	"reflect"
)

func IterFields(ty reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for idx := range ty.NumField() {
			if !yield(ty.Field(idx)) {
				return
			}
		}
	}
}

func ImplementsInterfaceDirectly[If any](ty reflect.Type) bool {
	iface := reflect.TypeFor[If]()

	if !ty.Implements(iface) {
		return false
	}

	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	if ty.Kind() != reflect.Struct {
		return true
	}

	for field := range IterFields(ty) {
		if !field.Anonymous {
			continue
		}

		if field.Type.Implements(iface) {
			return false
		}

		if reflect.PointerTo(field.Type).Implements(iface) {
			return false
		}
	}

	return true
}
