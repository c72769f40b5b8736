package extension

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// LoaderProtocolVersion is the version new registrations are checked
// against when they declare Descriptor.MinProtocolVersion. Bumped when the
// loader's registration contract changes in a way old factories could not
// satisfy.
const LoaderProtocolVersion = "1.0.0"

// registryEntry is one registered factory for one capability, the
// Go-native stand-in for a loaded class in spec.md §3.
type registryEntry struct {
	key        string
	kind       Kind
	factory    any // func() T or func(T) T
	descriptor Descriptor
}

// capabilityRegistry holds every registration made for one capability
// string, keyed by registration key (spec.md's fully-qualified class name).
type capabilityRegistry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
}

var (
	registriesMu sync.Mutex
	registries   = map[string]*capabilityRegistry{}
)

func registryFor(capability string) *capabilityRegistry {
	registriesMu.Lock()
	defer registriesMu.Unlock()
	r, ok := registries[capability]
	if !ok {
		r = &capabilityRegistry{entries: map[string]registryEntry{}}
		registries[capability] = r
	}
	return r
}

// Register records a factory under registration key for the named
// capability. T must be the capability interface; factory must be either
// func() T (plain) or func(T) T (wrapper), and the kind is inferred from
// its arity. Hand-written adaptive implementations are registered with
// RegisterHandwrittenAdaptive instead.
//
// Register is meant to be called from package-level init() functions in
// extension packages, exactly as database/sql drivers call sql.Register
// from init(). It panics on a conflicting duplicate registration, because
// that failure can only originate from a programming error discovered at
// process start, matching spec.md §3's "hard error" for re-registering a
// different class under the same name.
func Register[T any](capability, key string, factory any, descriptor Descriptor) {
	if key == "" {
		panic(fmt.Sprintf("extension: empty registration key for capability %s", capability))
	}
	if strings.ContainsAny(descriptor.DefaultName, ", ") {
		panic(fmt.Sprintf("extension: registration %s/%s declares a multi-token default name %q; the SPI default must be a single name",
			capability, key, descriptor.DefaultName))
	}
	if descriptor.MinProtocolVersion != "" {
		if err := checkProtocolVersion(descriptor.MinProtocolVersion); err != nil {
			panic(fmt.Sprintf("extension: registration %s/%s: %v", capability, key, err))
		}
	}

	kind := factoryKind(factory)
	r := registryFor(capability)
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		panic(fmt.Sprintf("extension: duplicate registration %s/%s (existing kind %s, new kind %s)",
			capability, key, existing.kind, kind))
	}

	if descriptor.DefaultName != "" {
		for k, e := range r.entries {
			if e.descriptor.DefaultName != "" && e.descriptor.DefaultName != descriptor.DefaultName {
				panic(fmt.Sprintf("extension: capability %s already has default name %q (from %s), cannot also declare %q (from %s)",
					capability, e.descriptor.DefaultName, k, descriptor.DefaultName, key))
			}
		}
	}

	r.entries[key] = registryEntry{key: key, kind: kind, factory: factory, descriptor: descriptor}
}

// RegisterHandwrittenAdaptive records a capability's own hand-written
// adaptive class, spec.md §3's "adaptive class: carries the Adaptive
// marker at class level." Loader.Adaptive prefers this over runtime
// synthesis (§4.H's "either a hand-written adaptive ... or the product
// of H").
func RegisterHandwrittenAdaptive[T any](capability, key string, factory func() T, descriptor Descriptor) {
	r := registryFor(capability)
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		panic(fmt.Sprintf("extension: duplicate registration %s/%s (existing kind %s, new kind adaptive)",
			capability, key, existing.kind))
	}
	for k, e := range r.entries {
		if e.kind == Adaptive {
			panic(fmt.Sprintf("extension: capability %s already has an adaptive registration at %s, cannot also register %s", capability, k, key))
		}
	}
	r.entries[key] = registryEntry{key: key, kind: Adaptive, factory: any(func() any { return any(factory()) }), descriptor: descriptor}
}

func checkProtocolVersion(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid protocol version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(LoaderProtocolVersion)
	if err != nil {
		return fmt.Errorf("invalid loader protocol version %q: %w", LoaderProtocolVersion, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("requires loader protocol %s, have %s", constraint, LoaderProtocolVersion)
	}
	return nil
}

func (r *capabilityRegistry) snapshot() map[string]registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]registryEntry, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
