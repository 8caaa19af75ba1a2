package boundedring

// Stats is a consistent snapshot of a buffer's counters. Enqueued-Dequeued
// always equals Occupied.
type Stats struct {
	Enqueued uint64 // elements ever accepted
	Dequeued uint64 // elements ever handed out
	Dropped  uint64 // elements rejected because the buffer was full
	Occupied uint64
}

// Stats returns the counters as of a single critical section.
func (q *BoundedRingBuffer[T]) Stats() Stats {
	q.lock.Lock()
	defer q.lock.Unlock()
	return Stats{
		Enqueued: q.enqueued,
		Dequeued: q.dequeued,
		Dropped:  q.dropped,
		Occupied: (q.head - q.tail) & q.mask,
	}
}
