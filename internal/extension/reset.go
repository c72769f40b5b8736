//go:build reglet_test

package extension

import (
	"reflect"

	"golang.org/x/sync/singleflight"
)

// Reset clears every process-wide loader, singleton, and registration.
// Build-tagged out of production binaries (build with -tags reglet_test
// to access it), mirroring spec.md §9's "provide an explicit teardown
// hook for tests; production code never invokes teardown."
func Reset() {
	loadersMu.Lock()
	loaders = map[string]*loaderCore{}
	loadersMu.Unlock()

	registriesMu.Lock()
	registries = map[string]*capabilityRegistry{}
	registriesMu.Unlock()

	untypedGettersMu.Lock()
	untypedGetters = map[reflect.Type]func(string) (any, error){}
	untypedGettersMu.Unlock()

	adaptiveTemplatesMu.Lock()
	adaptiveTemplates = map[string]func(core *loaderCore) (any, error){}
	adaptiveGroups = map[string]*singleflight.Group{}
	adaptiveTemplatesMu.Unlock()

	resetSingletons()
}
