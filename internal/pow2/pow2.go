// Package pow2 holds the power-of-two checks shared by the ring buffer and the
// benchmark configuration.
//
// When a capacity is a typed constant, the check can be moved to compile time
// with a constant expression that overflows for anything but a power of two:
//
//	const capacity uint64 = 256
//	const _ uint64 = -(capacity & (capacity - 1))
package pow2

// IsPowerOfTwo reports whether n is a power of two. Zero is not.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// RoundUp returns the smallest power of two that is >= n.
// RoundUp(0) is 1; values above 1<<63 have no such power and return 0.
func RoundUp(n uint64) uint64 {
	if IsPowerOfTwo(n) {
		return n
	}
	if n > 1<<63 {
		return 0
	}
	capPow := uint64(1)
	for capPow < n {
		capPow <<= 1
	}
	return capPow
}
