package main

import (
	"sync"

	"github.com/i5heu/GoRingBuffer/internal/queue"
	"github.com/i5heu/GoRingBuffer/pkg/boundedring"
	"github.com/i5heu/GoRingBuffer/pkg/buffered"
)

// Implementation represents a queue implementation under test.
type Implementation[T any] struct {
	name        string
	description string
	pkgName     string
	authors     []string
	features    []string
	newQueue    func(capacity uint64) queue.BatchQueueValidationInterface[T]
}

func (impl Implementation[T]) hasFeature(feature string) bool {
	for _, f := range impl.features {
		if f == feature {
			return true
		}
	}
	return false
}

// getImplementations enumerates the implementations driven by the bench. The
// order is stable so lists built for different element types line up.
func getImplementations[T any]() []Implementation[T] {
	return []Implementation[T]{
		{
			name:        "BoundedRingBuffer (SpinLock)",
			pkgName:     "boundedring",
			description: "Power-of-two ring guarded by a non-parking spinlock; batches are copied in one critical section.",
			authors:     []string{"Mia Heidenstedt <heidenstedt.org>"},
			features:    []string{"MPMC", "FIFO", "Atomic-Batch", "Non-Blocking"},
			newQueue: func(capacity uint64) queue.BatchQueueValidationInterface[T] {
				return boundedring.MustNew[T](capacity)
			},
		},
		{
			name:        "BoundedRingBuffer (sync.Mutex)",
			pkgName:     "boundedring",
			description: "The same ring with sync.Mutex as the critical-section primitive.",
			authors:     []string{"Mia Heidenstedt <heidenstedt.org>"},
			features:    []string{"MPMC", "FIFO", "Atomic-Batch", "Non-Blocking"},
			newQueue: func(capacity uint64) queue.BatchQueueValidationInterface[T] {
				return boundedring.MustNew[T](capacity, boundedring.WithLocker(&sync.Mutex{}))
			},
		},
		{
			name:        "Golang Buffered Channel",
			pkgName:     "buffered",
			description: "A buffered channel driven element by element with select/default.",
			authors:     []string{"Mia Heidenstedt <heidenstedt.org>"},
			features:    []string{"MPMC", "FIFO", "Non-Blocking"},
			newQueue: func(capacity uint64) queue.BatchQueueValidationInterface[T] {
				return buffered.New[T](capacity)
			},
		},
	}
}
