// Package extension implements the SPI-style extension-point loader:
// manifest-driven discovery, instance caching, dependency injection,
// wrapper composition, activation selection, and adaptive dispatch
// synthesis for capability interfaces.
package extension

import "fmt"

// InvalidCapabilityError indicates a capability was asked for with no
// registrations at all. A capability whose registrations declare no
// default name is valid; its default instance is simply nil.
type InvalidCapabilityError struct {
	Capability string
	Reason     string
}

func (e *InvalidCapabilityError) Error() string {
	return fmt.Sprintf("invalid capability %q: %s", e.Capability, e.Reason)
}

// ManifestError indicates a manifest resource was unreadable or two
// entries conflict. A malformed line is logged and skipped instead, so
// per-line errors do not stop sibling entries from loading;
// this type is returned only for failures that abort the whole directory
// read (unreadable resource) or are fatal across the merged table
// (duplicate name pointing at a different key).
type ManifestError struct {
	Capability string
	Source     string
	Reason     string
	Cause      error
}

func (e *ManifestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("manifest error for %s (%s): %s: %v", e.Capability, e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("manifest error for %s (%s): %s", e.Capability, e.Source, e.Reason)
}

func (e *ManifestError) Unwrap() error { return e.Cause }

// RegistrationError indicates a manifest's registration key could not be
// resolved to a registered factory. Recorded in a loader's errors map; surfaced on lookup as UnknownExtensionError.
type RegistrationError struct {
	Capability string
	Key        string
	Reason     string
	Cause      error
}

func (e *RegistrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registration error for %s/%s: %s: %v", e.Capability, e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("registration error for %s/%s: %s", e.Capability, e.Key, e.Reason)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// UnknownExtensionError indicates get(name) was called with a name that is
// not registered for the capability. Cause, when present, is the original
// load failure remembered for that name.
type UnknownExtensionError struct {
	Capability string
	Name       string
	Cause      error
}

func (e *UnknownExtensionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no extension named %q for capability %s: %v", e.Name, e.Capability, e.Cause)
	}
	return fmt.Sprintf("no extension named %q for capability %s", e.Name, e.Capability)
}

func (e *UnknownExtensionError) Unwrap() error { return e.Cause }

// InvalidNameError indicates get(name) was called with an empty name.
type InvalidNameError struct {
	Capability string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid extension name (empty) for capability %s", e.Capability)
}

// IllegalArgumentError indicates a required argument to a generated
// adaptive method was missing — spec.md §4.H.2's "a nil URL argument
// must make the generated method raise IllegalArgument," rather than
// silently treating the absence of a bag as "no parameters."
type IllegalArgumentError struct {
	Capability string
	Method     string
	Reason     string
}

func (e *IllegalArgumentError) Error() string {
	return fmt.Sprintf("illegal argument calling %s.%s: %s", e.Capability, e.Method, e.Reason)
}

// DuplicateAdaptiveError indicates two registrations for the same
// capability both declared Kind == Adaptive.
type DuplicateAdaptiveError struct {
	Capability string
	First      string
	Second     string
}

func (e *DuplicateAdaptiveError) Error() string {
	return fmt.Sprintf("capability %s has two adaptive registrations: %q and %q", e.Capability, e.First, e.Second)
}

// AdaptiveSynthesisError indicates adaptive dispatcher generation failed:
// no adaptive method descriptors, no URL source, or the generated
// expression failed to compile. Sticky: once a loader's adaptive slot is
// poisoned with this error, every later call returns the same error.
type AdaptiveSynthesisError struct {
	Capability string
	Reason     string
	Cause      error
}

func (e *AdaptiveSynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("adaptive synthesis failed for %s: %s: %v", e.Capability, e.Reason, e.Cause)
	}
	return fmt.Sprintf("adaptive synthesis failed for %s: %s", e.Capability, e.Reason)
}

func (e *AdaptiveSynthesisError) Unwrap() error { return e.Cause }
