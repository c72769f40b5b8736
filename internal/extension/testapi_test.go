//go:build reglet_test

package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Register_addsAnAddressableNameWithoutAManifestLine(t *testing.T) {
	const capability = "test.loader.TestRegister"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	require.NoError(t, l.Register("two", func() loaderFixture { return &loaderFixtureImpl{2} }))

	v, err := l.Get("two")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Value())
}

func Test_Replace_swapsFactoryAndEvictsCachedSingleton(t *testing.T) {
	const capability = "test.loader.TestReplace"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	first, err := l.Get("one")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Value())

	require.NoError(t, l.Replace("one", func() loaderFixture { return &loaderFixtureImpl{99} }))

	second, err := l.Get("one")
	require.NoError(t, err)
	assert.Equal(t, 99, second.Value())
}

func Test_Replace_unknownNameIsUnknownExtensionError(t *testing.T) {
	const capability = "test.loader.TestReplaceUnknown"
	writeUserManifest(t, capability, "one=fixture.One\n")
	Register[loaderFixture](capability, "fixture.One", func() loaderFixture { return &loaderFixtureImpl{1} }, Descriptor{})

	l := LoaderFor[loaderFixture](capability)
	err := l.Replace("ghost", func() loaderFixture { return &loaderFixtureImpl{0} })
	var unknown *UnknownExtensionError
	require.ErrorAs(t, err, &unknown)
}
