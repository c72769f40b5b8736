package extension

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// loaderCore is the non-generic bulk of per-capability loader state from
// spec.md §3. It carries no T because Go generics erase the interface
// identity at the process-wide map level; Loader[T] is a thin typed
// wrapper constructed on demand around a shared *loaderCore.
type loaderCore struct {
	capability string

	mu            sync.Mutex
	classesLoaded bool
	classesErr    error

	classes  map[string]registryEntry // plain-named, keyed by manifest name
	names    map[string]string        // registration key -> name (reverse index)
	wrappers []registryEntry          // ordered by discovery
	activate map[string]ActivateMeta  // name -> metadata, plain classes only
	order    map[string]int           // name -> discovery index, for tie-breaks

	adaptiveEntry *registryEntry // hand-written adaptive, if discovered
	defaultName   string
	loadErrors    map[string]error // name -> load/registration error

	instancesMu sync.Mutex
	instances   map[string]*instanceHolder

	adaptiveMu       sync.Mutex
	adaptiveBuilt    bool
	adaptiveInstance any
	adaptiveErr      error
}

type instanceHolder struct {
	once  sync.Once
	value any
	err   error
}

var (
	loadersMu sync.Mutex
	loaders   = map[string]*loaderCore{}
)

func coreFor(capability string) *loaderCore {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	c, ok := loaders[capability]
	if !ok {
		c = &loaderCore{capability: capability, instances: map[string]*instanceHolder{}}
		loaders[capability] = c
	}
	return c
}

// Loader is the per-capability entry point, spec.md §6's `Loader<T>`.
type Loader[T any] struct {
	core *loaderCore
}

// LoaderFor returns (creating if necessary) the loader for capability.
// Concurrent callers for the same capability string always observe the
// same *loaderCore, satisfying spec.md §8's "loader(T) invoked concurrently
// yields a single Loader<T>".
func LoaderFor[T any](capability string) *Loader[T] {
	if capability == "" {
		panic("extension: empty capability")
	}
	core := coreFor(capability)
	registerUntypedGetter(reflect.TypeOf((*T)(nil)).Elem(), func(name string) (any, error) {
		return core.get(name)
	})
	return &Loader[T]{core: core}
}

// ensureClasses performs the one-time classification described in
// spec.md §4.C under c.mu: manifests are read and merged, then each
// resolved key is classified by registry Kind into
// {adaptive, wrapper, plain (+ optionally auto-activated)}. Every call
// takes the lock; there is no lock-free fast path once classification
// is done.
func (c *loaderCore) ensureClasses() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classesLoaded {
		return c.classesErr
	}

	table, err := readManifests(c.capability)
	if err != nil {
		c.classesErr = err
		c.classesLoaded = true
		return err
	}

	reg := registryFor(c.capability).snapshot()
	if len(reg) == 0 {
		c.classesErr = &InvalidCapabilityError{Capability: c.capability, Reason: "no extension ever registered for this capability (missing SPI declaration)"}
		c.classesLoaded = true
		return c.classesErr
	}

	c.classes = map[string]registryEntry{}
	c.names = map[string]string{}
	c.activate = map[string]ActivateMeta{}
	c.order = map[string]int{}
	c.loadErrors = map[string]error{}

	for idx, name := range table.order {
		c.order[name] = idx
		key := table.keys[name]
		entry, ok := reg[key]
		if !ok {
			c.loadErrors[name] = &RegistrationError{
				Capability: c.capability, Key: key, Reason: "no factory registered for this key",
			}
			continue
		}

		switch entry.kind {
		case Adaptive:
			if c.adaptiveEntry != nil && c.adaptiveEntry.key != entry.key {
				c.classesErr = &DuplicateAdaptiveError{Capability: c.capability, First: c.adaptiveEntry.key, Second: entry.key}
				c.classesLoaded = true
				return c.classesErr
			}
			e := entry
			c.adaptiveEntry = &e
		case Wrapper:
			c.wrappers = append(c.wrappers, entry)
		default: // Plain
			if _, ok := c.names[entry.key]; !ok {
				c.names[entry.key] = name // first-of-split(name), per spec.md §4.C
			}
			c.classes[name] = entry
			if entry.descriptor.Activate != nil {
				c.activate[name] = *entry.descriptor.Activate
			}
			if entry.descriptor.DefaultName != "" {
				c.defaultName = entry.descriptor.DefaultName
			}
		}
	}

	c.classesLoaded = true
	return nil
}

// get implements spec.md §4.D's get(name): the "true" sentinel resolves
// to the default, empty names are rejected, and each name's instance is
// built at most once under a dedicated per-name holder.
func (c *loaderCore) get(name string) (any, error) {
	if name == "" {
		return nil, &InvalidNameError{Capability: c.capability}
	}
	if name == "true" {
		return c.getDefault()
	}
	if err := c.ensureClasses(); err != nil {
		return nil, err
	}

	holder := c.holderFor(name)
	holder.once.Do(func() {
		holder.value, holder.err = c.create(name)
	})
	return holder.value, holder.err
}

func (c *loaderCore) holderFor(name string) *instanceHolder {
	c.instancesMu.Lock()
	defer c.instancesMu.Unlock()
	h, ok := c.instances[name]
	if !ok {
		h = &instanceHolder{}
		c.instances[name] = h
	}
	return h
}

// getDefault implements spec.md §4.D's get-default(): no configured
// default is not an error, it simply yields a nil instance.
func (c *loaderCore) getDefault() (any, error) {
	if err := c.ensureClasses(); err != nil {
		return nil, err
	}
	if c.defaultName == "" {
		return nil, nil
	}
	return c.get(c.defaultName)
}

// create implements spec.md §4.D's create(name): resolve the class,
// share the process-wide singleton, inject it, then apply every
// discovered wrapper in order, re-injecting each layer (§4.F).
func (c *loaderCore) create(name string) (any, error) {
	entry, ok := c.classes[name]
	if !ok {
		return nil, &UnknownExtensionError{Capability: c.capability, Name: name, Cause: c.loadErrors[name]}
	}

	inner, err := sharedInstance(c.capability, entry.key, func() (any, error) {
		return callZeroArgFactory(entry.factory)
	})
	if err != nil {
		return nil, err
	}
	inner = inject(c.capability, inner)

	instance := inner
	for _, w := range c.wrappers {
		instance = applyWrapper(w, instance)
		instance = inject(c.capability, instance)
	}
	return instance, nil
}

// Get returns the singleton instance named name, per spec.md §4.D.
func (l *Loader[T]) Get(name string) (T, error) {
	var zero T
	v, err := l.core.get(name)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("extension %q for capability %s does not implement the expected type", name, l.core.capability)
	}
	return t, nil
}

// DefaultInstance returns the SPI default, or the zero value if none is
// configured (not an error), per spec.md §4.D.
func (l *Loader[T]) DefaultInstance() (T, error) {
	var zero T
	v, err := l.core.getDefault()
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("default extension for capability %s does not implement the expected type", l.core.capability)
	}
	return t, nil
}

// Adaptive returns the capability's adaptive dispatcher: a hand-written
// one if one was discovered during classification, otherwise a
// synthesized one (spec.md §4.H). The result is cached; a synthesis
// failure poisons the slot so every subsequent call returns the same
// error, per spec.md §4.H's state machine.
func (l *Loader[T]) Adaptive() (T, error) {
	var zero T
	v, err := l.core.adaptive()
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("adaptive instance for capability %s does not implement the expected type", l.core.capability)
	}
	return t, nil
}

func (c *loaderCore) adaptive() (any, error) {
	if err := c.ensureClasses(); err != nil {
		return nil, err
	}

	c.adaptiveMu.Lock()
	if c.adaptiveBuilt {
		defer c.adaptiveMu.Unlock()
		return c.adaptiveInstance, c.adaptiveErr
	}
	c.adaptiveMu.Unlock()

	group := adaptiveGroupFor(c.capability)
	result, err, _ := group.Do(c.capability, func() (any, error) {
		c.adaptiveMu.Lock()
		defer c.adaptiveMu.Unlock()
		if c.adaptiveBuilt {
			return c.adaptiveInstance, c.adaptiveErr
		}

		instance, err := c.buildAdaptive()
		c.adaptiveBuilt = true
		c.adaptiveInstance = instance
		c.adaptiveErr = err
		return instance, err
	})
	return result, err
}

func (c *loaderCore) buildAdaptive() (any, error) {
	if c.adaptiveEntry != nil {
		instance, err := callZeroArgFactory(c.adaptiveEntry.factory)
		if err != nil {
			return nil, &AdaptiveSynthesisError{Capability: c.capability, Reason: "hand-written adaptive construction failed", Cause: err}
		}
		return inject(c.capability, instance), nil
	}

	template, ok := adaptiveTemplateFor(c.capability)
	if !ok {
		return nil, &AdaptiveSynthesisError{Capability: c.capability, Reason: "no adaptive method and no registered adaptive template"}
	}
	instance, err := template(c)
	if err != nil {
		return nil, err
	}
	return inject(c.capability, instance), nil
}

// SupportedNames returns every registered name in sorted order, per
// spec.md §6.
func (l *Loader[T]) SupportedNames() ([]string, error) {
	if err := l.core.ensureClasses(); err != nil {
		return nil, err
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	names := make([]string, 0, len(l.core.classes))
	for n := range l.core.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Errors exposes the per-name load/registration failures remembered
// during classification, for diagnostic reporting without triggering
// UnknownExtensionError.
func (l *Loader[T]) Errors() (map[string]error, error) {
	if err := l.core.ensureClasses(); err != nil {
		return nil, err
	}
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	out := make(map[string]error, len(l.core.loadErrors))
	for k, v := range l.core.loadErrors {
		out[k] = v
	}
	return out, nil
}

// callZeroArgFactory invokes a func() T factory stored as `any` without
// knowing T at this call site — ensureClasses runs once per capability,
// before any particular Loader[T] necessarily exists, so the factory can
// only be invoked generically, via reflection, the Go-native analogue of
// spec.md §4.D's "construct via zero-argument constructor."
func callZeroArgFactory(factory any) (any, error) {
	out := reflect.ValueOf(factory).Call(nil)
	return out[0].Interface(), nil
}

// applyWrapper invokes a func(T) T wrapper factory, again generically via
// reflection since the wrapper's parameter type is the capability
// interface T, unknown at this call site.
func applyWrapper(entry registryEntry, inner any) any {
	out := reflect.ValueOf(entry.factory).Call([]reflect.Value{reflect.ValueOf(inner)})
	return out[0].Interface()
}
