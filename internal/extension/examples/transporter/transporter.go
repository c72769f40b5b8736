// Package transporter demonstrates adaptive proxy synthesis (spec.md
// §4.H / §8 scenario 3): no hand-written adaptive class is registered, so
// Loader().Adaptive() triggers runtime synthesis of a dispatcher that
// reads "client", falling back to "transporter", falling back to the SPI
// default "netty", from the call-site URL.
package transporter

import "github.com/reglet-dev/reglet/internal/extension"

// Capability is the registration string for this extension point.
const Capability = "reglet.example.Transporter"

// Transporter is the capability interface. Connect is adaptive: the
// extension to dispatch to is chosen at call time from bag.
type Transporter interface {
	Connect(bag *extension.URL) (string, error)
}

// Loader returns the shared loader for Capability.
func Loader() *extension.Loader[Transporter] {
	return extension.LoaderFor[Transporter](Capability)
}

type nettyTransporter struct{}

func (nettyTransporter) Connect(*extension.URL) (string, error) { return "netty", nil }

type minaTransporter struct{}

func (minaTransporter) Connect(*extension.URL) (string, error) { return "mina", nil }

// adaptiveTransporter is the hand-written forwarding skeleton spec.md §9
// calls the "generic trait-object escape hatch": its only job is to
// forward to whatever the compiled resolver picks. The loader supplies
// both the resolver and get; neither is known until runtime.
type adaptiveTransporter struct {
	resolver *extension.AdaptiveResolver
	get      func(name string) (Transporter, error)
}

func (a *adaptiveTransporter) Connect(bag *extension.URL) (string, error) {
	name, err := a.resolver.Resolve("Connect", bag, "")
	if err != nil {
		return "", err // IllegalState per spec.md §4.H.4
	}
	target, err := a.get(name)
	if err != nil {
		return "", err
	}
	return target.Connect(bag)
}

func init() {
	extension.Register[Transporter](Capability, "transporter.Netty", func() Transporter { return nettyTransporter{} },
		extension.Descriptor{DefaultName: "netty"})
	extension.Register[Transporter](Capability, "transporter.Mina", func() Transporter { return minaTransporter{} },
		extension.Descriptor{})

	extension.RegisterAdaptiveTemplate[Transporter](Capability,
		[]extension.AdaptiveMethodDescriptor{
			{Method: "Connect", Keys: []string{"client", "transporter"}, URLArgIndex: 0, InvocationArgIndex: -1},
		},
		func(resolver *extension.AdaptiveResolver, get func(string) (Transporter, error)) Transporter {
			return &adaptiveTransporter{resolver: resolver, get: get}
		},
	)
}
