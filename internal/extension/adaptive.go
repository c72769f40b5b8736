package extension

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/sync/singleflight"
)

// adaptiveEnv is the expression environment exposed to the generated
// key-resolution source: exactly the subset of the URL-like bag spec.md
// §4.H.3 reads (Parameter / MethodParameter / Protocol), plus the
// in-flight invocation's method name when the descriptor names one.
type adaptiveEnv struct {
	URL    *URL
	Method string
}

func (e adaptiveEnv) Parameter(key, def string) string {
	return e.URL.ParameterWithDefault(key, def)
}

func (e adaptiveEnv) MethodParameter(key, def string) string {
	return e.URL.MethodParameter(e.Method, key, def)
}

func (e adaptiveEnv) Protocol(def string) string {
	if p := e.URL.Protocol(); p != nil {
		return *p
	}
	return def
}

// AdaptiveResolver holds the compiled key-resolution programs for every
// adaptive method of one capability — the cached "adaptive class" of
// spec.md §4.H, reimagined as compiled expr.Program values instead of a
// loaded JVM class.
type AdaptiveResolver struct {
	capability string
	programs   map[string]*vm.Program
	sources    map[string]string // retained for diagnostics / testing
}

// Resolve runs the compiled program for method against bag, returning the
// extension name to dispatch to. invocationMethod is the in-flight call's
// target method name, used only when the descriptor marked an invocation
// argument (§4.H.3's "use url.method-parameter(methodName, ...)" case).
func (r *AdaptiveResolver) Resolve(method string, bag *URL, invocationMethod string) (string, error) {
	if bag == nil {
		return "", &IllegalArgumentError{Capability: r.capability, Method: method, Reason: "URL argument is nil"}
	}
	program, ok := r.programs[method]
	if !ok {
		return "", fmt.Errorf("%w: method %q", errUnsupportedAdaptiveMethod, method)
	}
	out, err := expr.Run(program, adaptiveEnv{URL: bag, Method: invocationMethod})
	if err != nil {
		return "", fmt.Errorf("adaptive key resolution failed for %s.%s: %w", r.capability, method, err)
	}
	name, _ := out.(string)
	if name == "" {
		return "", fmt.Errorf("%w: %s.%s resolved to an empty extension name for url %+v", errIllegalAdaptiveState, r.capability, method, bag)
	}
	return name, nil
}

var (
	errUnsupportedAdaptiveMethod = fmt.Errorf("method has no adaptive dispatch")
	errIllegalAdaptiveState      = fmt.Errorf("illegal adaptive state")
)

// compileAdaptiveResolver emits expr source for each descriptor per the
// §4.H.3 fallback-cascade algorithm and compiles it immediately; this is
// the literal "emit source text... submit it to the Compiler" step of
// spec.md §4.H, with expr.Compile standing in for the external Compiler.
func compileAdaptiveResolver(capability string, methods []AdaptiveMethodDescriptor, defaultName string) (*AdaptiveResolver, error) {
	r := &AdaptiveResolver{
		capability: capability,
		programs:   make(map[string]*vm.Program, len(methods)),
		sources:    make(map[string]string, len(methods)),
	}
	for _, m := range methods {
		if m.URLArgIndex < 0 {
			continue // generated body would simply throw Unsupported; nothing to compile
		}
		keys := m.Keys
		if len(keys) == 0 {
			keys = []string{deriveAdaptiveKey(capability)}
		}
		src := generateAdaptiveSource(keys, defaultName, m.InvocationArgIndex >= 0)
		program, err := expr.Compile(src, expr.Env(adaptiveEnv{}))
		if err != nil {
			return nil, &AdaptiveSynthesisError{Capability: capability, Reason: fmt.Sprintf("method %s: compile %q", m.Method, src), Cause: err}
		}
		r.programs[m.Method] = program
		r.sources[m.Method] = src
	}
	if len(r.programs) == 0 {
		return nil, &AdaptiveSynthesisError{Capability: capability, Reason: "no method carries adaptive dispatch keys"}
	}
	return r, nil
}

// generateAdaptiveSource builds the right-to-left chained-default
// expression of spec.md §4.H.3: the innermost default is the SPI default
// name (or empty string), and each key wraps the previous expression as
// its own default, outermost key first in source order but evaluated
// innermost-out.
func generateAdaptiveSource(keys []string, defaultName string, useInvocation bool) string {
	expr := fmt.Sprintf("%q", defaultName)
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		if key == "protocol" {
			expr = fmt.Sprintf("Protocol(%s)", expr)
			continue
		}
		if useInvocation {
			expr = fmt.Sprintf("MethodParameter(%q, %s)", key, expr)
		} else {
			expr = fmt.Sprintf("Parameter(%q, %s)", key, expr)
		}
	}
	return expr
}

// deriveAdaptiveKey implements spec.md §4.H.3's fallback when a method's
// Adaptive marker carries no keys: split the capability's simple name at
// uppercase boundaries, lowercase, join with ".".
func deriveAdaptiveKey(capability string) string {
	simple := capability
	if idx := strings.LastIndexByte(simple, '.'); idx >= 0 {
		simple = simple[idx+1:]
	}
	var parts []string
	var cur strings.Builder
	for _, r := range simple {
		if unicode.IsUpper(r) && cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteRune(unicode.ToLower(r))
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return strings.Join(parts, ".")
}

// adaptiveTemplates holds, per capability, the small hand-written
// forwarding skeleton a capability author supplies once: spec.md §9's
// "generic trait-object escape hatch for user extensions." The loader
// supplies the compiled AdaptiveResolver and a typed Get; the template
// supplies the mechanical per-method dispatch a JVM host would otherwise
// generate as bytecode.
var (
	adaptiveTemplatesMu sync.Mutex
	adaptiveTemplates   = map[string]func(core *loaderCore) (any, error){}
	adaptiveGroups      = map[string]*singleflight.Group{}
)

// RegisterAdaptiveTemplate supplies the forwarding skeleton for capability
// T's synthesized adaptive dispatcher. methods describes each adaptive
// method's dispatch keys; template receives the compiled resolver and a
// typed Get and must return a T whose methods call resolver.Resolve(...)
// then get(name) then delegate, exactly the body spec.md §4.H.5
// describes. Call once per capability, typically from the capability
// package's own init().
func RegisterAdaptiveTemplate[T any](capability string, methods []AdaptiveMethodDescriptor, template func(*AdaptiveResolver, func(string) (T, error)) T) {
	adaptiveTemplatesMu.Lock()
	defer adaptiveTemplatesMu.Unlock()
	if _, exists := adaptiveTemplates[capability]; exists {
		panic(fmt.Sprintf("extension: adaptive template already registered for capability %s", capability))
	}
	adaptiveTemplates[capability] = func(core *loaderCore) (any, error) {
		resolver, err := compileAdaptiveResolver(capability, methods, core.defaultName)
		if err != nil {
			return nil, err
		}
		get := func(name string) (T, error) {
			var zero T
			v, err := core.get(name)
			if err != nil {
				return zero, err
			}
			typed, ok := v.(T)
			if !ok {
				return zero, fmt.Errorf("extension %q for capability %s does not implement the expected type", name, capability)
			}
			return typed, nil
		}
		return template(resolver, get), nil
	}
}

func adaptiveGroupFor(capability string) *singleflight.Group {
	adaptiveTemplatesMu.Lock()
	defer adaptiveTemplatesMu.Unlock()
	g, ok := adaptiveGroups[capability]
	if !ok {
		g = &singleflight.Group{}
		adaptiveGroups[capability] = g
	}
	return g
}

func adaptiveTemplateFor(capability string) (func(core *loaderCore) (any, error), bool) {
	adaptiveTemplatesMu.Lock()
	defer adaptiveTemplatesMu.Unlock()
	t, ok := adaptiveTemplates[capability]
	return t, ok
}
