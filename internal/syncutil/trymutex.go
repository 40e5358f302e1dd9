// Package syncutil collects small concurrency primitives that the wallet
// components share, in the idiom of the teacher's "siasync" helpers: thin,
// dependency-free wrappers rather than generic libraries.
package syncutil

// TryMutex is a mutual exclusion lock that additionally supports a
// non-blocking TryLock, used by the Block Pipeline's "fetching" guard and
// the Coordinator's rescan lock so that "is an operation currently
// running" can be queried without blocking on it.
type TryMutex struct {
	c chan struct{}
}

// NewTryMutex returns an unlocked TryMutex.
func NewTryMutex() *TryMutex {
	return &TryMutex{c: make(chan struct{}, 1)}
}

// Lock blocks until the lock is acquired.
func (tm *TryMutex) Lock() {
	tm.c <- struct{}{}
}

// Unlock releases the lock. Unlock on an already-unlocked TryMutex panics,
// matching the behaviour of sync.Mutex.
func (tm *TryMutex) Unlock() {
	select {
	case <-tm.c:
	default:
		panic("unlock of unlocked TryMutex")
	}
}

// TryLock attempts to acquire the lock without blocking, returning whether
// it succeeded. The caller must call Unlock if and only if TryLock
// returned true.
func (tm *TryMutex) TryLock() bool {
	select {
	case tm.c <- struct{}{}:
		return true
	default:
		return false
	}
}
