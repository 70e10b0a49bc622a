package service

import "sync"

// EssayLocks serializes state-changing operations per submission. Entries are
// reference counted and removed once the last holder releases, so the map
// does not grow with the total number of submissions ever touched.
type EssayLocks struct {
	mu      sync.Mutex
	entries map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewEssayLocks() *EssayLocks {
	return &EssayLocks{entries: make(map[uint]*lockEntry)}
}

// lock blocks until the submission lock is held and returns the release
// function.
func (l *EssayLocks) lock(essayID uint) func() {
	l.mu.Lock()
	entry, ok := l.entries[essayID]
	if !ok {
		entry = &lockEntry{}
		l.entries[essayID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, essayID)
		}
		l.mu.Unlock()
	}
}
