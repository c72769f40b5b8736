package extension

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFixture interface {
	Value() int
}

type loaderFixtureImpl struct{ n int }

func (f *loaderFixtureImpl) Value() int { return f.n }

func Test_LoaderFor_unregisteredCapabilityYieldsInvalidCapabilityError(t *testing.T) {
	l := LoaderFor[loaderFixture]("test.loader.NeverRegistered")
	_, err := l.DefaultInstance()
	require.Error(t, err)
	var invalid *InvalidCapabilityError
	require.ErrorAs(t, err, &invalid)
}

func Test_Get_emptyNameIsInvalidNameError(t *testing.T) {
	const capability = "test.loader.EmptyName"
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{DefaultName: "one"})
	l := LoaderFor[loaderFixture](capability)
	_, err := l.Get("")
	var invalidName *InvalidNameError
	require.ErrorAs(t, err, &invalidName)
}

func Test_Get_unknownNameIsUnknownExtensionError(t *testing.T) {
	const capability = "test.loader.UnknownName"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{DefaultName: "one"})
	l := LoaderFor[loaderFixture](capability)
	_, err := l.Get("nope")
	var unknown *UnknownExtensionError
	require.ErrorAs(t, err, &unknown)
}

func Test_DefaultInstance_withNoDefaultNameIsNilNotError(t *testing.T) {
	const capability = "test.loader.NoDefault"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{})
	l := LoaderFor[loaderFixture](capability)
	v, err := l.DefaultInstance()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func Test_Get_trueSentinelResolvesDefault(t *testing.T) {
	const capability = "test.loader.TrueSentinel"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{7} }, Descriptor{DefaultName: "one"})
	l := LoaderFor[loaderFixture](capability)
	v, err := l.Get("true")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Value())
}

func Test_Get_concurrentCallsConstructExactlyOnce(t *testing.T) {
	const capability = "test.loader.ConcurrentConstruct"
	writeUserManifest(t, capability, "one=fixture.One\n")
	var constructions int32
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture {
		atomic.AddInt32(&constructions, 1)
		return &loaderFixtureImpl{1}
	}, Descriptor{DefaultName: "one"})

	l := LoaderFor[loaderFixture](capability)
	const n = 64
	results := make([]loaderFixture, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := l.Get("one")
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&constructions))
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

type wrappingFixture struct{ inner loaderFixture }

func (w *wrappingFixture) Value() int { return w.inner.Value() + 100 }

func Test_create_appliesWrapperAroundPlainInstance(t *testing.T) {
	const capability = "test.loader.Wrapped"
	writeUserManifest(t, capability, "plain=fixture.Plain\nwrap=fixture.Wrap\n")
	Register[loaderFixture](capability, "fixture.Plain", func() loaderFixture { return &loaderFixtureImpl{5} }, Descriptor{DefaultName: "plain"})
	Register[loaderFixture](capability, "fixture.Wrap", func(inner loaderFixture) loaderFixture { return &wrappingFixture{inner} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	v, err := l.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, 105, v.Value())
}

func Test_SupportedNames_excludesWrappersAndAdaptive(t *testing.T) {
	const capability = "test.loader.SupportedNamesExclusion"
	writeUserManifest(t, capability, "a=fixture.A\nb=fixture.B\nwrap=fixture.Wrap\n")
	Register[loaderFixture](capability, "fixture.A", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{DefaultName: "a"})
	Register[loaderFixture](capability, "fixture.B", func() loaderFixture { return &loaderFixtureImpl{2} }, Descriptor{})
	Register[loaderFixture](capability, "fixture.Wrap", func(inner loaderFixture) loaderFixture { return &wrappingFixture{inner} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	names, err := l.SupportedNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func Test_Errors_surfacesUnresolvableManifestEntries(t *testing.T) {
	const capability = "test.loader.DanglingManifestEntry"
	writeUserManifest(t, capability, "ghost=fixture.NeverRegistered\nreal=fixture.Real\n")
	Register[loaderFixture](capability, "fixture.Real", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	errs, err := l.Errors()
	require.NoError(t, err)
	require.Contains(t, errs, "ghost")

	_, err = l.Get("ghost")
	var unknown *UnknownExtensionError
	require.ErrorAs(t, err, &unknown)
	require.Error(t, unknown.Cause)
}
