package memory

import (
	"slices"
	"sync"
)

// KeyedLocker implements ports.AccountLocker with one mutex per account id.
// Entries are reference counted and dropped once no goroutine holds or
// waits on them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocker creates an empty locker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[int64]*keyedEntry)}
}

// Lock acquires every id in ascending order, skipping duplicates, so two
// callers locking overlapping sets cannot deadlock.
func (l *KeyedLocker) Lock(ids ...int64) func() {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	entries := make([]*keyedEntry, len(keys))
	l.mu.Lock()
	for i, id := range keys {
		e, ok := l.locks[id]
		if !ok {
			e = &keyedEntry{}
			l.locks[id] = e
		}
		e.refs++
		entries[i] = e
	}
	l.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(entries) - 1; i >= 0; i-- {
				entries[i].mu.Unlock()
			}
			l.mu.Lock()
			for i, id := range keys {
				entries[i].refs--
				if entries[i].refs == 0 {
					delete(l.locks, id)
				}
			}
			l.mu.Unlock()
		})
	}
}

// size reports the number of live entries.
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
