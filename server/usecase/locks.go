package usecase

import "sync"

// sessionLocks serializes read-modify-write cycles per session id. The
// store itself is last-write-wins, so without this two interleaved
// mutations of the same session would clobber each other's slot.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// Acquire locks the mutex for id and returns its release func.
func (sl *sessionLocks) Acquire(id string) func() {
	sl.mu.Lock()
	lock, exists := sl.locks[id]
	if !exists {
		lock = &sessionLock{}
		sl.locks[id] = lock
	}
	lock.refs++
	sl.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		sl.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(sl.locks, id)
		}
		sl.mu.Unlock()
	}
}
