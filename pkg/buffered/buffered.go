// Package buffered adapts a Go channel to the same non-blocking batch contract
// as boundedring, as a baseline for the bench.
package buffered

import (
	"github.com/i5heu/GoRingBuffer/internal/pow2"
	"github.com/i5heu/GoRingBuffer/internal/queue"
)

var _ queue.BatchQueueValidationInterface[int] = (*BufferedQueue[int])(nil)

type BufferedQueue[T any] struct {
	ch chan T
}

// New returns a queue holding capacity-1 elements, matching the usable size
// of a ring of the same capacity. Capacity is rounded up to a power of two as
// the ring would require.
func New[T any](capacity uint64) *BufferedQueue[T] {
	// A zero-capacity Go channel is an unbuffered synchronization primitive,
	// not an empty buffer, so keep at least one slot.
	if capacity < 2 {
		capacity = 2
	}
	if r := pow2.RoundUp(capacity); r != 0 {
		capacity = r
	}
	return &BufferedQueue[T]{
		ch: make(chan T, capacity-1),
	}
}

func (q *BufferedQueue[T]) Enqueue(items []T) int {
	for i, v := range items {
		select {
		case q.ch <- v:
		default:
			return i
		}
	}
	return len(items)
}

func (q *BufferedQueue[T]) Dequeue(dst []T) int {
	for i := range dst {
		select {
		case dst[i] = <-q.ch:
		default:
			return i
		}
	}
	return len(dst)
}

func (q *BufferedQueue[T]) FreeSlots() uint64 {
	return uint64(cap(q.ch) - len(q.ch))
}

func (q *BufferedQueue[T]) UsedSlots() uint64 {
	return uint64(len(q.ch))
}
