// Package filter demonstrates the activation selector (spec.md §4.G /
// §8 scenarios 4 and 5): three auto-activated extensions spread across
// two groups, one gated on a URL parameter.
package filter

import "github.com/reglet-dev/reglet/internal/extension"

// Capability is the registration string for this extension point.
const Capability = "reglet.example.Filter"

// Filter is the capability interface.
type Filter interface {
	Name() string
}

// Loader returns the shared loader for Capability.
func Loader() *extension.Loader[Filter] {
	return extension.LoaderFor[Filter](Capability)
}

type named string

func (n named) Name() string { return string(n) }

func init() {
	extension.Register[Filter](Capability, "filter.A", func() Filter { return named("a") },
		extension.Descriptor{Activate: &extension.ActivateMeta{Group: []string{"provider"}, Value: []string{"cache"}}})
	extension.Register[Filter](Capability, "filter.B", func() Filter { return named("b") },
		extension.Descriptor{Activate: &extension.ActivateMeta{Group: []string{"provider"}, Order: 1}})
	extension.Register[Filter](Capability, "filter.C", func() Filter { return named("c") },
		extension.Descriptor{Activate: &extension.ActivateMeta{Group: []string{"consumer"}}})
}
