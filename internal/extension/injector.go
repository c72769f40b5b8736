package extension

import (
	"log/slog"
	"reflect"
)

// inject fills every InjectionPoint an instance declares from the
// configured ExtensionFactory, mirroring spec.md §4.E: a single failed
// point is logged and skipped rather than aborting the surrounding
// create() call (InjectionWarning, never fatal).
//
// capability is skipped entirely for ExtensionFactoryCapability, breaking
// the cycle described in spec.md §4.E and §9.
func inject(capability string, instance any) any {
	if capability == ExtensionFactoryCapability {
		return instance
	}
	injectable, ok := instance.(Injectable)
	if !ok {
		return instance
	}

	factory := currentExtensionFactory()
	for _, point := range injectable.InjectionPoints() {
		if point.Exemplar == nil {
			continue
		}
		target := reflect.ValueOf(point.Exemplar)
		if target.Kind() != reflect.Ptr || target.IsNil() {
			slog.Warn("injection point is not a settable pointer, skipping",
				"capability", capability, "property", point.PropertyName)
			continue
		}

		valueType := target.Elem().Type()
		value, ok := factory.GetExtension(valueType, point.PropertyName)
		if !ok || value == nil {
			continue
		}

		rv := reflect.ValueOf(value)
		if !rv.Type().AssignableTo(valueType) {
			slog.Warn("injected value type mismatch, skipping",
				"capability", capability, "property", point.PropertyName,
				"want", valueType, "got", rv.Type())
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("injection panicked, skipping",
						"capability", capability, "property", point.PropertyName, "panic", r)
				}
			}()
			target.Elem().Set(rv)
		}()
	}
	return instance
}
