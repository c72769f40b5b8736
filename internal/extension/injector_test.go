package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type injectTarget interface {
	Greet() string
}

type injectTargetImpl struct{ name string }

func (i *injectTargetImpl) Greet() string { return "hi " + i.name }

type injectableFixture struct {
	dep injectTarget
}

func (f *injectableFixture) InjectionPoints() []InjectionPoint {
	return []InjectionPoint{{PropertyName: "buddy", Exemplar: &f.dep}}
}

func Test_inject_wiresFromExtensionFactory(t *testing.T) {
	const capability = "test.inject.Capability"
	writeUserManifest(t, capability, "buddy=inject.Target\n")
	Register[injectTarget](capability, "inject.Target", func() injectTarget { return &injectTargetImpl{name: "buddy"} }, Descriptor{DefaultName: "buddy"})
	LoaderFor[injectTarget](capability) // registers the untyped getter for injectTarget

	f := &injectableFixture{}
	out := inject(capability, f)
	got := out.(*injectableFixture)
	assert.NotNil(t, got.dep)
	assert.Equal(t, "hi buddy", got.dep.Greet())
}

func Test_inject_skipsNonInjectableInstances(t *testing.T) {
	out := inject("test.inject.NotInjectable", &injectTargetImpl{name: "solo"})
	assert.IsType(t, &injectTargetImpl{}, out)
}

func Test_inject_skipsExtensionFactoryCapabilityEntirely(t *testing.T) {
	f := &injectableFixture{}
	out := inject(ExtensionFactoryCapability, f)
	got := out.(*injectableFixture)
	assert.Nil(t, got.dep)
}
