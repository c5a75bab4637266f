package state

import "sync"

// Locker serializes work per chat id while distinct chats proceed in parallel.
// Entries are reference counted and removed once no goroutine holds or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*chatLock, 64)}
}

// Lock blocks until the chat is free and returns the matching unlock func.
func (l *Locker) Lock(chatID int64) func() {
	l.mu.Lock()
	cl, ok := l.locks[chatID]
	if !ok {
		cl = &chatLock{}
		l.locks[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			cl.mu.Unlock()

			l.mu.Lock()
			cl.refs--
			if cl.refs == 0 {
				delete(l.locks, chatID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
