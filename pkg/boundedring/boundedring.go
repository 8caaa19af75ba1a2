// Package boundedring implements a fixed-capacity, lock-protected circular
// buffer for handing elements from producers to consumers without allocating,
// blocking, or overwriting unread data.
//
// The capacity N must be a power of two so cursors wrap with a mask. One slot
// is kept free to tell a full buffer from an empty one, so at most N-1
// elements are stored at a time.
//
// A full buffer is not an error: Enqueue reports how many elements it took and
// drops the rest. An empty buffer is not an error either: Dequeue returns 0.
package boundedring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/i5heu/GoRingBuffer/internal/pow2"
	"github.com/i5heu/GoRingBuffer/internal/queue"
	"github.com/i5heu/GoRingBuffer/pkg/spinlock"
	"golang.org/x/sys/cpu"
)

var (
	// ErrCapacityNotPowerOfTwo is returned by New for capacities that cannot
	// be wrapped with a bitmask.
	ErrCapacityNotPowerOfTwo = errors.New("boundedring: capacity must be a power of two")

	// ErrCapacityTooSmall is returned by New for capacities below 2, which
	// would leave no usable slot.
	ErrCapacityTooSmall = errors.New("boundedring: capacity must be at least 2")
)

var _ queue.BatchQueueValidationInterface[int] = (*BoundedRingBuffer[int])(nil)

// BoundedRingBuffer is a circular queue of T with a capacity fixed at
// construction. All methods are safe for concurrent use.
type BoundedRingBuffer[T any] struct {
	lock sync.Locker

	_ cpu.CacheLinePad

	// guarded by lock
	head uint64 // next slot to write
	tail uint64 // next slot to read

	enqueued uint64
	dequeued uint64
	dropped  uint64

	mask          uint64
	zeroOnDequeue bool
	storage       []T
}

// New builds a buffer with room for capacity-1 elements.
// capacity must be a power of two and at least 2.
func New[T any](capacity uint64, opts ...Option) (*BoundedRingBuffer[T], error) {
	if capacity < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacityTooSmall, capacity)
	}
	if !pow2.IsPowerOfTwo(capacity) {
		return nil, fmt.Errorf("%w: got %d", ErrCapacityNotPowerOfTwo, capacity)
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.lock == nil {
		cfg.lock = &spinlock.SpinLock{}
	}

	return &BoundedRingBuffer[T]{
		lock:          cfg.lock,
		mask:          capacity - 1,
		zeroOnDequeue: cfg.zeroOnDequeue,
		storage:       make([]T, capacity),
	}, nil
}

// MustNew is like New but panics on an invalid capacity. It is meant for
// package-level variables whose capacity is a constant.
func MustNew[T any](capacity uint64, opts ...Option) *BoundedRingBuffer[T] {
	q, err := New[T](capacity, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

// Enqueue copies the leading elements of items into the buffer, in order, until
// the buffer is full or items is exhausted. It returns the number accepted;
// anything past that is dropped for this call and never retried.
func (q *BoundedRingBuffer[T]) Enqueue(items []T) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := uint64(len(items))
	free := (q.tail - q.head - 1) & q.mask
	if n > free {
		q.dropped += n - free
		n = free
	}
	if n == 0 {
		return 0
	}

	// At most two runs: up to the end of storage, then from slot 0.
	first := copy(q.storage[q.head:], items[:n])
	copy(q.storage, items[first:n])

	q.head = (q.head + n) & q.mask
	q.enqueued += n
	return int(n)
}

// Dequeue moves up to len(dst) of the oldest elements into dst[:n] and returns
// n. It returns 0 without touching dst when the buffer is empty.
func (q *BoundedRingBuffer[T]) Dequeue(dst []T) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := min(uint64(len(dst)), (q.head-q.tail)&q.mask)
	if n == 0 {
		return 0
	}

	first := uint64(copy(dst[:n], q.storage[q.tail:]))
	copy(dst[first:n], q.storage)

	if q.zeroOnDequeue {
		clear(q.storage[q.tail : q.tail+first])
		clear(q.storage[:n-first])
	}

	q.tail = (q.tail + n) & q.mask
	q.dequeued += n
	return int(n)
}

// Put enqueues a single element and reports whether it was accepted.
func (q *BoundedRingBuffer[T]) Put(v T) bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	next := (q.head + 1) & q.mask
	if next == q.tail {
		q.dropped++
		return false
	}
	q.storage[q.head] = v
	q.head = next
	q.enqueued++
	return true
}

// Get dequeues the oldest element. ok is false if the buffer is empty.
func (q *BoundedRingBuffer[T]) Get() (v T, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.head == q.tail {
		return v, false
	}
	v = q.storage[q.tail]
	if q.zeroOnDequeue {
		var zero T
		q.storage[q.tail] = zero
	}
	q.tail = (q.tail + 1) & q.mask
	q.dequeued++
	return v, true
}

// UsedSlots returns how many elements are currently queued.
func (q *BoundedRingBuffer[T]) UsedSlots() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return (q.head - q.tail) & q.mask
}

// FreeSlots returns how many more elements can be enqueued before the buffer is full.
func (q *BoundedRingBuffer[T]) FreeSlots() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return (q.tail - q.head - 1) & q.mask
}

// Len is UsedSlots as an int.
func (q *BoundedRingBuffer[T]) Len() int {
	return int(q.UsedSlots())
}

// Cap returns the number of elements the buffer can hold at once, N-1.
func (q *BoundedRingBuffer[T]) Cap() int {
	return int(q.mask)
}

// Size returns N, the length of the backing array.
func (q *BoundedRingBuffer[T]) Size() uint64 {
	return q.mask + 1
}
