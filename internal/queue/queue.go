package queue

// BatchQueueValidationInterface is a *type constraint* that ensures any type Q
// has the batch transfer methods the harness and the bench drive. Because it
// only lists methods it is also usable as an ordinary interface type.
type BatchQueueValidationInterface[T any] interface {
	// Enqueue copies as many leading elements of items as fit and returns how
	// many were accepted. It never blocks; the rest of items is dropped.
	Enqueue(items []T) int

	// Dequeue moves up to len(dst) of the oldest elements into dst and
	// returns how many were written. It never blocks; 0 means empty.
	Dequeue(dst []T) int

	// FreeSlots returns how many more elements can be enqueued before the queue is full.
	FreeSlots() uint64

	// UsedSlots returns how many elements are currently queued.
	UsedSlots() uint64
}
