//go:build reglet_test

package extension

// Register installs name -> factory directly into a loader's classification
// cache, bypassing the registry and manifest lookup entirely. Build-tagged
// out of production binaries: production code only ever registers through
// init()-time calls against the package-wide registry (registry.go), never
// against a live Loader, mirroring spec.md §6's "register/replace... may be
// withheld from production builds."
func (l *Loader[T]) Register(name string, factory func() T) error {
	if name == "" {
		return &InvalidNameError{Capability: l.core.capability}
	}
	if err := l.core.ensureClasses(); err != nil {
		return err
	}

	c := l.core
	c.mu.Lock()
	c.classes[name] = registryEntry{
		key:     "test:" + name,
		kind:    Plain,
		factory: factory,
	}
	c.mu.Unlock()

	c.instancesMu.Lock()
	delete(c.instances, name)
	c.instancesMu.Unlock()
	singletons.Delete(singletonKey(c.capability, "test:"+name))
	return nil
}

// Replace swaps the factory behind an already-classified name and evicts
// its cached singleton, so the next Get constructs a fresh instance from
// the new factory. Unlike Register, name must already resolve to a class.
func (l *Loader[T]) Replace(name string, factory func() T) error {
	c := l.core
	if err := c.ensureClasses(); err != nil {
		return err
	}

	c.mu.Lock()
	entry, ok := c.classes[name]
	if ok {
		entry.factory = factory
		c.classes[name] = entry
	}
	c.mu.Unlock()

	if !ok {
		return &UnknownExtensionError{Capability: c.capability, Name: name}
	}

	c.instancesMu.Lock()
	delete(c.instances, name)
	c.instancesMu.Unlock()
	singletons.Delete(singletonKey(c.capability, entry.key))
	return nil
}
