package extension

import "sync"

// singletons is the process-wide registration-key -> instance map spec.md
// §3 requires so that wrapper composition shares one inner instance
// regardless of how many loaders or wrapper layers reference it.
// Insertion is first-writer-wins: a losing goroutine discards its
// half-built copy and uses the one that won, per spec.md §5.
var singletons sync.Map // map[capability+"\x00"+key]any

func singletonKey(capability, key string) string {
	return capability + "\x00" + key
}

// sharedInstance returns the process-wide singleton for (capability, key),
// constructing it with build if absent. If a concurrent caller already
// published one, build's result is discarded and the existing value wins.
func sharedInstance(capability, key string, build func() (any, error)) (any, error) {
	k := singletonKey(capability, key)
	if v, ok := singletons.Load(k); ok {
		return v, nil
	}
	created, err := build()
	if err != nil {
		return nil, err
	}
	actual, loaded := singletons.LoadOrStore(k, created)
	if loaded {
		return actual, nil
	}
	return created, nil
}

// resetSingletons clears process-wide state. Its only caller is Reset in
// reset.go, which is build-tagged reglet_test.
func resetSingletons() {
	singletons.Range(func(k, _ any) bool {
		singletons.Delete(k)
		return true
	})
}
