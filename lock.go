package slots

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// ReentrantLock serializes slot operations on one instance while letting the
// holding goroutine re-acquire without deadlocking. Nested acquisition happens
// when a locked slot's getter reads another locked slot on the same owner.
// Acquisition blocks without timeout; callers needing bounded waits must
// arrange them outside the lock.
type ReentrantLock struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int
}

// Lock acquires the lock, blocking until it is available unless the calling
// goroutine already holds it.
func (l *ReentrantLock) Lock() {
	gid := goid.Get()
	if l.owner.Load() == gid {
		l.depth++
		return
	}
	l.mu.Lock()
	l.owner.Store(gid)
	l.depth = 1
}

// Unlock releases one level of acquisition. The lock is freed for other
// goroutines once every nested Lock has been matched.
func (l *ReentrantLock) Unlock() {
	gid := goid.Get()
	if l.owner.Load() != gid {
		panic("slots: unlock of a reentrant lock not held by this goroutine")
	}
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}
