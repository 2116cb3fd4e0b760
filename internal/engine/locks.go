package engine

import "sync"

// lockTable hands out one mutex per game id. Entries are dropped once no
// caller holds or waits on them.
type lockTable struct {
	mu    sync.Mutex
	games map[int64]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{games: map[int64]*gameLock{}}
}

var fallbackLocks = newLockTable()

// lock blocks until the game is free and returns the matching unlock.
func (t *lockTable) lock(id int64) func() {
	t.mu.Lock()
	l, ok := t.games[id]
	if !ok {
		l = &gameLock{}
		t.games[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.games, id)
		}
		t.mu.Unlock()
	}
}

func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.games)
}

func (e Engine) lockGame(id int64) func() {
	if e.locks == nil {
		return fallbackLocks.lock(id)
	}
	return e.locks.lock(id)
}
