package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessByOrderThenIndex(order map[string]int, index map[string]int) func(a, b string) bool {
	return func(a, b string) bool {
		if order[a] != order[b] {
			return order[a] < order[b]
		}
		return index[a] < index[b]
	}
}

func Test_orderByTopology_afterConstraintOverridesDiscoveryOrder(t *testing.T) {
	// x declares Order:0 and is discovered before y (also Order:0), so the
	// base (Order, discovery) sort alone would place x before y. x also
	// declares After:["y"], so the real result must place y first.
	names := []string{"x", "y"}
	meta := map[string]ActivateMeta{
		"x": {Order: 0, After: []string{"y"}},
		"y": {Order: 0},
	}
	order := map[string]int{"x": 0, "y": 0}
	index := map[string]int{"x": 0, "y": 1}

	got := orderByTopology(names, meta, lessByOrderThenIndex(order, index))
	assert.Equal(t, []string{"y", "x"}, got)
}

func Test_orderByTopology_beforeConstraintIsSymmetricWithAfter(t *testing.T) {
	names := []string{"a", "b"}
	meta := map[string]ActivateMeta{
		"a": {Before: []string{"b"}},
		"b": {},
	}
	order := map[string]int{"a": 0, "b": 0}
	index := map[string]int{"a": 1, "b": 0} // b discovered first...
	got := orderByTopology(names, meta, lessByOrderThenIndex(order, index))
	assert.Equal(t, []string{"a", "b"}, got) // ...but a must still precede b
}

func Test_orderByTopology_tiesAmongReadyNodesUseOrderThenDiscovery(t *testing.T) {
	names := []string{"p", "q", "r"}
	meta := map[string]ActivateMeta{
		"p": {Order: 1},
		"q": {Order: 0},
		"r": {Order: 0},
	}
	order := map[string]int{"p": 1, "q": 0, "r": 0}
	index := map[string]int{"p": 0, "q": 2, "r": 1}
	got := orderByTopology(names, meta, lessByOrderThenIndex(order, index))
	assert.Equal(t, []string{"r", "q", "p"}, got)
}

func Test_orderByTopology_cycleStillEmitsEveryName(t *testing.T) {
	names := []string{"a", "b"}
	meta := map[string]ActivateMeta{
		"a": {After: []string{"b"}},
		"b": {After: []string{"a"}},
	}
	order := map[string]int{"a": 0, "b": 0}
	index := map[string]int{"a": 0, "b": 1}
	got := orderByTopology(names, meta, lessByOrderThenIndex(order, index))
	assert.ElementsMatch(t, []string{"a", "b"}, got)
	assert.Len(t, got, 2)
}

// Test_Activate_afterConstraintOverridesOrder exercises the same bug end
// to end through the public Activate API, with a fresh capability so it
// does not disturb examples/filter's own registrations.
func Test_Activate_afterConstraintOverridesOrder(t *testing.T) {
	const capability = "test.activate.AfterOverridesOrder"
	writeUserManifest(t, capability, "x=fixture.X\ny=fixture.Y\n")
	Register[activateFixture](capability, "fixture.X", func() activateFixture { return activateFixture("x") },
		Descriptor{Activate: &ActivateMeta{Group: []string{"provider"}, After: []string{"y"}}})
	Register[activateFixture](capability, "fixture.Y", func() activateFixture { return activateFixture("y") },
		Descriptor{Activate: &ActivateMeta{Group: []string{"provider"}}})

	got, err := LoaderFor[activateFixture](capability).Activate(NewURL("dubbo", nil), nil, "provider")
	require.NoError(t, err)
	assert.Equal(t, []activateFixture{"y", "x"}, got)
}

type activateFixture string
