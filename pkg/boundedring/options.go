package boundedring

import "sync"

// Option configures a BoundedRingBuffer at construction.
type Option func(*config)

type config struct {
	lock          sync.Locker
	zeroOnDequeue bool
}

// WithLocker replaces the default spinlock guarding the buffer. A sync.Mutex
// is a reasonable choice when no producer runs in a context that must not be
// parked.
func WithLocker(l sync.Locker) Option {
	return func(c *config) {
		c.lock = l
	}
}

// WithZeroOnDequeue makes Dequeue and Get clear the slots they vacate, so a
// pointer-bearing T does not keep consumed values reachable.
func WithZeroOnDequeue() Option {
	return func(c *config) {
		c.zeroOnDequeue = true
	}
}
