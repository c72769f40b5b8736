package extension

import (
	"sort"
	"strings"
)

// Activate implements spec.md §4.G: an ordered sequence of auto-activated
// extensions satisfying group/value predicates, spliced with an explicit
// values list that may include exclusions (-name) and a "default" splice
// point.
func (l *Loader[T]) Activate(bag *URL, values []string, group string) ([]T, error) {
	names, err := l.core.activateNames(bag, values, group)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(names))
	for _, name := range names {
		t, err := l.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *loaderCore) activateNames(bag *URL, values []string, group string) ([]string, error) {
	if err := c.ensureClasses(); err != nil {
		return nil, err
	}

	suppressAuto := containsString(values, "-default")

	var autoBatch []string
	if !suppressAuto {
		autoBatch = c.autoActivatedNames(bag, values, group)
	}

	// The auto-activated batch is always present (absent -default); values
	// entries are collected in pending and spliced to the front whenever a
	// bare "default" token is seen, then whatever remains pending is
	// appended after the batch. This lets callers interleave explicit
	// names with the auto-activated set instead of replacing it.
	result := append([]string{}, autoBatch...)
	var pending []string
	for _, v := range values {
		switch {
		case v == "-default":
			continue
		case strings.HasPrefix(v, "-"):
			continue // pure exclusion, already excluded from autoBatch
		case v == "default":
			if len(pending) > 0 {
				result = append(pending, result...)
				pending = nil
			}
		default:
			pending = append(pending, v)
		}
	}
	result = append(result, pending...)
	return result, nil
}

// autoActivatedNames implements spec.md §4.G step 1-2: filter by group and
// value-key activation, then sort by the activate-comparator.
func (c *loaderCore) autoActivatedNames(bag *URL, values []string, group string) []string {
	excluded := map[string]bool{}
	included := map[string]bool{}
	for _, v := range values {
		switch {
		case strings.HasPrefix(v, "-"):
			excluded[strings.TrimPrefix(v, "-")] = true
		case v != "default":
			included[v] = true
		}
	}

	var candidates []string
	for name, meta := range c.activate {
		if len(meta.Group) > 0 && !containsString(meta.Group, group) {
			continue
		}
		if included[name] {
			continue // will be inserted explicitly when values is processed
		}
		if excluded[name] {
			continue
		}
		if !isActive(meta, bag) {
			continue
		}
		candidates = append(candidates, name)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return c.lessActivate(candidates[i], candidates[j])
	})
	return orderByTopology(candidates, c.activate, c.lessActivate)
}

// isActive implements the value-key test: empty Value[] always matches;
// otherwise at least one key must match a non-empty URL parameter, exact
// or by "." suffix.
func isActive(meta ActivateMeta, bag *URL) bool {
	if len(meta.Value) == 0 {
		return true
	}
	for _, key := range meta.Value {
		match := false
		bag.Parameters(func(k, v string) {
			if v == "" {
				return
			}
			if k == key || (strings.Contains(k, ".") && strings.HasSuffix(k, "."+key)) {
				match = true
			}
		})
		if match {
			return true
		}
	}
	return false
}

// lessActivate orders by ascending numeric Order, then by discovery order
// — the two tiebreaks below the topological pass done in orderByTopology.
func (c *loaderCore) lessActivate(a, b string) bool {
	oa, ob := c.activate[a].Order, c.activate[b].Order
	if oa != ob {
		return oa < ob
	}
	return c.order[a] < c.order[b]
}

// orderByTopology applies the before/after constraints spec.md §4.G and
// §9 describe: a real topological sort (Kahn's algorithm) over the
// before/after edges, breaking ties among names with no remaining
// unresolved dependency via less — ascending numeric Order, then
// discovery order.
func orderByTopology(names []string, meta map[string]ActivateMeta, less func(a, b string) bool) []string {
	present := map[string]bool{}
	for _, n := range names {
		present[n] = true
	}

	successors := map[string][]string{} // n -> names that must come after n
	indegree := map[string]int{}
	for _, n := range names {
		indegree[n] = 0
	}
	addEdge := func(earlier, later string) {
		if !present[earlier] || !present[later] || earlier == later {
			return
		}
		successors[earlier] = append(successors[earlier], later)
		indegree[later]++
	}
	for _, n := range names {
		for _, b := range meta[n].Before {
			addEdge(n, b)
		}
		for _, a := range meta[n].After {
			addEdge(a, n)
		}
	}

	var ready []string
	for _, n := range names {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return less(ready[i], ready[j]) })

	result := make([]string, 0, len(names))
	emitted := map[string]bool{}
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		result = append(result, n)
		emitted[n] = true

		var newlyReady []string
		for _, next := range successors[n] {
			indegree[next]--
			if indegree[next] == 0 {
				newlyReady = append(newlyReady, next)
			}
		}
		if len(newlyReady) > 0 {
			ready = append(ready, newlyReady...)
			sort.SliceStable(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		}
	}

	// A before/after cycle leaves some names with permanently positive
	// indegree; append them in their original order rather than dropping
	// them silently.
	if len(result) < len(names) {
		for _, n := range names {
			if !emitted[n] {
				result = append(result, n)
			}
		}
	}
	return result
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
