package execution

import "sync"

// LockTable provides per-market try-acquire mutual exclusion for the
// evaluate-and-execute critical section. Acquisition never blocks: a held
// lock means another execution is in flight and the evaluator skips the
// market. Cross-venue pairs use their pair key as the lock key.
type LockTable struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLockTable creates a lock table.
func NewLockTable() *LockTable {
	return &LockTable{held: make(map[string]bool)}
}

// TryAcquire attempts to take the lock for key. Returns false without
// blocking when the lock is already held.
func (t *LockTable) TryAcquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.held[key] {
		return false
	}
	t.held[key] = true
	return true
}

// Release frees the lock for key. Safe to call from a deferred statement
// on every exit path.
func (t *LockTable) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.held, key)
}

// Held reports whether the lock for key is currently held.
func (t *LockTable) Held(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.held[key]
}
