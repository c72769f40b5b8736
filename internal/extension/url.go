package extension

import "net/url"

// URL is the opaque, per-call parameter bag spec.md §3 and §6 describe:
// out of scope as a collaborator, but needed here, concretely, to exercise
// the activator and the adaptive synthesizer end to end. Backed by
// net/url.Values; no library in the example corpus models a multi-key
// dispatch bag any more directly, so this is the one standard-library
// component in the package (recorded in DESIGN.md).
type URL struct {
	protocol   string
	params     url.Values
	methodKeys map[string]url.Values // per-method override parameters
}

// NewURL builds a URL-like bag with the given protocol and top-level
// parameters.
func NewURL(protocol string, params map[string]string) *URL {
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	return &URL{protocol: protocol, params: v, methodKeys: map[string]url.Values{}}
}

// WithMethodParameter attaches a method-scoped override, consulted by
// MethodParameter before the top-level parameters.
func (u *URL) WithMethodParameter(method, key, value string) *URL {
	mv, ok := u.methodKeys[method]
	if !ok {
		mv = url.Values{}
		u.methodKeys[method] = mv
	}
	mv.Set(key, value)
	return u
}

// Parameter returns the key's value, or nil if absent.
func (u *URL) Parameter(key string) *string {
	if u == nil {
		return nil
	}
	if !u.params.Has(key) {
		return nil
	}
	v := u.params.Get(key)
	return &v
}

// ParameterWithDefault returns the key's value, or def if absent or empty.
func (u *URL) ParameterWithDefault(key, def string) string {
	if u == nil {
		return def
	}
	v := u.params.Get(key)
	if v == "" {
		return def
	}
	return v
}

// MethodParameter returns a method-scoped override for key, falling back
// to the top-level parameter, then to def.
func (u *URL) MethodParameter(method, key, def string) string {
	if u == nil {
		return def
	}
	if mv, ok := u.methodKeys[method]; ok {
		if v := mv.Get(key); v != "" {
			return v
		}
	}
	return u.ParameterWithDefault(key, def)
}

// Protocol returns the protocol, or nil if unset.
func (u *URL) Protocol() *string {
	if u == nil || u.protocol == "" {
		return nil
	}
	p := u.protocol
	return &p
}

// Parameters iterates every top-level key/value pair.
func (u *URL) Parameters(yield func(key, value string)) {
	if u == nil {
		return
	}
	for k := range u.params {
		yield(k, u.params.Get(k))
	}
}
