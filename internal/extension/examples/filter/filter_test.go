package filter_test

import (
	"testing"

	"github.com/reglet-dev/reglet/internal/extension"
	"github.com/reglet-dev/reglet/internal/extension/examples/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(fs []filter.Filter) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name()
	}
	return out
}

func Test_Activate_providerGroup_valueGatesA(t *testing.T) {
	// filter.A only activates when its value key "cache" shows up as a
	// non-empty URL parameter; filter.B has no value gate and always
	// activates for the provider group. filter.B declares Order: 1, so it
	// sorts after anything with the default order 0.
	bag := extension.NewURL("dubbo", nil)
	got, err := filter.Loader().Activate(bag, nil, "provider")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(got))
}

func Test_Activate_valueParameterAdmitsA(t *testing.T) {
	bag := extension.NewURL("dubbo", map[string]string{"cache": "lru"})
	got, err := filter.Loader().Activate(bag, nil, "provider")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func Test_Activate_consumerGroupOnlySeesC(t *testing.T) {
	bag := extension.NewURL("dubbo", map[string]string{"cache": "lru"})
	got, err := filter.Loader().Activate(bag, nil, "consumer")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(got))
}

func Test_Activate_explicitExclusion(t *testing.T) {
	bag := extension.NewURL("dubbo", map[string]string{"cache": "lru"})
	got, err := filter.Loader().Activate(bag, []string{"-a"}, "provider")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(got))
}

func Test_Activate_defaultSplicePoint(t *testing.T) {
	bag := extension.NewURL("dubbo", map[string]string{"cache": "lru"})
	got, err := filter.Loader().Activate(bag, []string{"default"}, "provider")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func Test_Activate_minusDefaultSuppressesAutoActivation(t *testing.T) {
	bag := extension.NewURL("dubbo", map[string]string{"cache": "lru"})
	got, err := filter.Loader().Activate(bag, []string{"-default", "c"}, "provider")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(got))
}
