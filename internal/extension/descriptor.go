package extension

import "reflect"

// Kind classifies a registered factory the way spec.md's class-level
// markers classify a loaded class: a registration falls into exactly one
// of these three kinds. The fourth class of §3's partition,
// auto-activated, is not a Kind: it is a Plain registration whose
// Descriptor carries Activate metadata.
type Kind int

const (
	// Plain is a zero-argument-constructed, name-addressable extension.
	Plain Kind = iota
	// Wrapper decorates another instance of the same capability.
	Wrapper
	// Adaptive is a hand-written dispatcher; at most one per capability.
	Adaptive
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Wrapper:
		return "wrapper"
	case Adaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// ActivateMeta mirrors the @Activate annotation's fields from spec.md §3.
type ActivateMeta struct {
	Group  []string
	Value  []string
	Before []string
	After  []string
	Order  int
}

// AdaptiveMethodDescriptor supplies, for one method of an adaptive
// capability, the information spec.md §4.H would otherwise recover by
// introspecting the method signature and its Adaptive annotation.
type AdaptiveMethodDescriptor struct {
	// Method is the capability interface method name this describes.
	Method string
	// Keys are the URL parameter keys to try, outermost first; chained
	// right-to-left into fallback defaults per §4.H.3. Empty means derive
	// one key from the capability's name (handled by the synthesizer).
	Keys []string
	// URLArgIndex is the zero-based index of the method argument that is
	// (or exposes, via Getter) the URL-like bag. -1 means "no adaptive
	// dispatch for this method" (the generated body throws Unsupported).
	URLArgIndex int
	// Getter, when non-empty, is a zero-argument method name on the
	// argument at URLArgIndex that returns the URL-like bag (used when the
	// URL is nested inside a richer argument, e.g. an Invocation).
	Getter string
	// InvocationArgIndex, when >= 0, marks an argument carrying a method
	// name to use with MethodParameter instead of Parameter.
	InvocationArgIndex int
}

// InjectionPoint names one field an extension wants wired by the
// configured ExtensionFactory. Exemplar must be a pointer to the field;
// PropertyName is the lookup key, and the field's pointed-to type is the
// lookup's type key — the Go-native stand-in for reflecting over a
// single-argument "setX" method, per SPEC_FULL.md's Injector section.
type InjectionPoint struct {
	PropertyName string
	Exemplar     any
}

// Injectable is implemented by extensions that want dependency injection.
// Extensions that don't implement it are simply never injected, the
// Go-native equivalent of "no setX methods found."
type Injectable interface {
	InjectionPoints() []InjectionPoint
}

// Descriptor is the registration-time metadata that substitutes for
// spec.md's class-level and method-level annotations (§6 "Markers consumed
// on classes/methods"), per SPEC_FULL.md's translation section.
type Descriptor struct {
	// DefaultName, set on at most one registration per capability, is the
	// SPI default (spec.md's @SPI(value) annotation carried at the
	// capability level; here attached to whichever registration call
	// happens to declare it — Register validates there is at most one).
	DefaultName string
	// Activate is non-nil if this registration is auto-activatable.
	Activate *ActivateMeta
	// AdaptiveMethods describes adaptive methods as registration metadata.
	// The loader does not read this field: a synthesized dispatcher takes
	// its method descriptors from RegisterAdaptiveTemplate, and a
	// hand-written adaptive handles dispatch itself.
	AdaptiveMethods []AdaptiveMethodDescriptor
	// MinProtocolVersion, when set, is a semver constraint string checked
	// against LoaderProtocolVersion at Register time.
	MinProtocolVersion string
}

// factoryKind reports what shape of factory function f has, for the
// registrations that don't pass an explicit Kind (Register infers Plain
// vs Wrapper from the factory's own signature, the closest Go-native
// analogue of spec.md §4.C's constructor-arity scan).
func factoryKind(f any) Kind {
	t := reflect.TypeOf(f)
	if t == nil || t.Kind() != reflect.Func {
		return Plain
	}
	if t.NumIn() == 1 {
		return Wrapper
	}
	return Plain
}
