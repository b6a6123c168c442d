package service

import "sync"

// InteractionEvent is emitted by the ledger after a committed write and consumed
// by the counter projector and the notification fanout. Delivery is synchronous
// and in-process, under the same per-tuple lock that serialized the write, so
// consumers observe each committed transition exactly once.
type InteractionEvent struct {
	InteractionID uint
	ActorID       uint
	TargetType    string
	TargetID      uint
	ActionType    string
	// Activated is true for toggle activations and for append-only records;
	// false marks an untoggle, which decrements counters and never notifies.
	Activated bool
	// OwnerID is the user affected by the interaction: the post author for
	// post targets, the followed user for follows.
	OwnerID uint
}

// keyedMutex serializes work per string key. Used by the ledger to guarantee
// that concurrent toggles on the same (actor, target, action) tuple resolve to
// a single consistent end state.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
