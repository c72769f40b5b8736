package extension

import (
	"reflect"
	"sync"
)

// ExtensionFactoryCapability is the well-known capability string for the
// ExtensionFactory extension point itself. Loader construction for this
// exact capability skips injection entirely, breaking the cycle spec.md
// §4.E and §9 describe: the injector needs a factory, and the factory is
// itself an extension point.
const ExtensionFactoryCapability = "reglet.extension.ExtensionFactory"

// ExtensionFactory supplies values for an extension's injection points by
// (value type, property name), the Go-native equivalent of spec.md's
// per-setter (parameter-type, derived-property-name) lookup.
type ExtensionFactory interface {
	GetExtension(valueType reflect.Type, propertyName string) (any, bool)
}

// byNameExtensionFactory is the default ExtensionFactory: it treats the
// injection point's property name as an extension name within whatever
// capability registered for that Go type, mirroring Dubbo's
// SpiExtensionFactory. It only finds capabilities for which LoaderFor has
// already been called at least once (that call registers their untyped
// getter); Register does not call LoaderFor, so an injection point whose
// capability has not been loaded yet is left unset.
type byNameExtensionFactory struct{}

func (byNameExtensionFactory) GetExtension(valueType reflect.Type, propertyName string) (any, bool) {
	get, ok := untypedGetterFor(valueType)
	if !ok {
		return nil, false
	}
	v, err := get(propertyName)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

var (
	untypedGettersMu sync.Mutex
	untypedGetters   = map[reflect.Type]func(name string) (any, error){}
)

func registerUntypedGetter(t reflect.Type, get func(name string) (any, error)) {
	untypedGettersMu.Lock()
	defer untypedGettersMu.Unlock()
	untypedGetters[t] = get
}

func untypedGetterFor(t reflect.Type) (func(name string) (any, error), bool) {
	untypedGettersMu.Lock()
	defer untypedGettersMu.Unlock()
	get, ok := untypedGetters[t]
	return get, ok
}

var (
	objectFactoryOnce sync.Once
	objectFactory     ExtensionFactory
)

// currentExtensionFactory lazily assembles the default ExtensionFactory.
// Capabilities may install their own with SetExtensionFactory before the
// first injection happens; otherwise the by-name default is used.
func currentExtensionFactory() ExtensionFactory {
	objectFactoryOnce.Do(func() {
		if objectFactory == nil {
			objectFactory = byNameExtensionFactory{}
		}
	})
	return objectFactory
}

// SetExtensionFactory installs a custom ExtensionFactory used by every
// loader's Injector (other than the loader for ExtensionFactoryCapability
// itself, which never injects). Call before resolving any extension that
// depends on injection; intended for tests and for hosts that want a
// richer factory than name-based lookup.
func SetExtensionFactory(f ExtensionFactory) {
	objectFactoryOnce.Do(func() {})
	objectFactory = f
}
