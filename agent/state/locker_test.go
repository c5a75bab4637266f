package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockerSerializesSameChat(t *testing.T) {
	t.Parallel()

	l := NewLocker()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
	if got := l.active(); got != 0 {
		t.Fatalf("active() = %d after all unlocks, want 0", got)
	}
}

func TestLockerAllowsDistinctChatsInParallel(t *testing.T) {
	t.Parallel()

	l := NewLocker()
	unlockA := l.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := l.Lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on chat 2 blocked behind chat 1")
	}
}

func TestLockerUnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewLocker()
	unlock := l.Lock(5)
	unlock()
	unlock()

	if got := l.active(); got != 0 {
		t.Fatalf("active() = %d, want 0", got)
	}
	relock := l.Lock(5)
	relock()
}
