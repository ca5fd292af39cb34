package usecase

import "sync"

// noteLocks serializes categorize-then-persist sequences per note id.
type noteLocks struct {
	mu    sync.Mutex
	locks map[int64]*noteLock
}

type noteLock struct {
	mu   sync.Mutex
	refs int
}

func newNoteLocks() *noteLocks {
	return &noteLocks{locks: make(map[int64]*noteLock)}
}

func (l *noteLocks) lock(id int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &noteLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
