// Package greeter is a minimal worked example of the extension loader:
// two plain implementations and one wrapper, matching spec.md §8's first
// two end-to-end scenarios exactly.
package greeter

import "github.com/reglet-dev/reglet/internal/extension"

// Capability is the registration string for this extension point,
// playing the role of the capability's fully-qualified interface name.
const Capability = "reglet.example.Greeter"

// Greeter is the capability interface.
type Greeter interface {
	Greet() string
}

// Loader returns the shared loader for Capability.
func Loader() *extension.Loader[Greeter] {
	return extension.LoaderFor[Greeter](Capability)
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "Hello" }

type frenchGreeter struct{}

func (frenchGreeter) Greet() string { return "Bonjour" }

// loggingGreeter wraps another Greeter, the wrapper class of spec.md §3:
// a single-argument constructor whose parameter type is exactly the
// capability interface.
type loggingGreeter struct {
	inner Greeter
	log   []string
}

func (g *loggingGreeter) Greet() string {
	out := g.inner.Greet()
	g.log = append(g.log, out)
	return out
}

func newLoggingGreeter(inner Greeter) Greeter {
	return &loggingGreeter{inner: inner}
}

func init() {
	extension.Register[Greeter](Capability, "greeter.English", func() Greeter { return englishGreeter{} },
		extension.Descriptor{DefaultName: "en"})
	extension.Register[Greeter](Capability, "greeter.French", func() Greeter { return frenchGreeter{} },
		extension.Descriptor{})
	extension.Register[Greeter](Capability, "greeter.Logging", newLoggingGreeter, extension.Descriptor{})
}
