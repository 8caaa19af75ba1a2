// Package spinlock provides a non-parking mutual exclusion primitive for very
// short critical sections.
//
// A goroutine waiting on a SpinLock never sleeps on a runtime semaphore; it
// busy-waits and periodically yields the processor. That keeps the acquire
// path bounded and free of allocations, which is what the ring buffer needs
// when its producer is an event callback that must not be descheduled while
// a consumer holds the lock on the same processor.
package spinlock

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// spinsBeforeYield is how many failed CAS attempts happen before the waiting
// goroutine calls runtime.Gosched.
const spinsBeforeYield = 64

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// SpinLock is a test-and-test-and-set lock. The zero value is unlocked.
// It is not reentrant and must not be copied after first use.
type SpinLock struct {
	_     cpu.CacheLinePad
	state atomic.Uint32
	_     cpu.CacheLinePad
}

// Lock acquires the lock, spinning until it is available.
func (l *SpinLock) Lock() {
	spins := 0
	for {
		// Only attempt the CAS when the word looks free, so waiters spin on a
		// shared cache line instead of bouncing it between cores.
		if l.state.Load() == unlocked && l.state.CompareAndSwap(unlocked, locked) {
			return
		}
		spins++
		if spins >= spinsBeforeYield {
			spins = 0
			runtime.Gosched()
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(unlocked, locked)
}

// Unlock releases the lock. Unlocking a lock that is not held is a
// programming error and panics, as it does for sync.Mutex.
func (l *SpinLock) Unlock() {
	if !l.state.CompareAndSwap(locked, unlocked) {
		panic("spinlock: unlock of unlocked SpinLock")
	}
}
