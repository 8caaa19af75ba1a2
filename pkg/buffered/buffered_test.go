package buffered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRoundTrip(t *testing.T) {
	q := New[int](4)
	require.Equal(t, uint64(3), q.FreeSlots())

	assert.Equal(t, 3, q.Enqueue([]int{1, 2, 3, 4}), "only capacity-1 elements fit")
	assert.Equal(t, uint64(0), q.FreeSlots())
	assert.Equal(t, 0, q.Enqueue([]int{5}))

	dst := make([]int, 2)
	require.Equal(t, 2, q.Dequeue(dst))
	assert.Equal(t, []int{1, 2}, dst)
	assert.Equal(t, uint64(1), q.UsedSlots())

	dst = make([]int, 10)
	n := q.Dequeue(dst)
	require.Equal(t, 1, n)
	assert.Equal(t, 3, dst[0])
	assert.Equal(t, 0, q.Dequeue(dst))
}

func TestMinimumCapacity(t *testing.T) {
	for _, c := range []uint64{0, 1, 2} {
		q := New[int](c)
		assert.Equalf(t, 1, q.Enqueue([]int{7, 8}), "capacity %d", c)
	}
}

func TestCapacityRoundedToPowerOfTwo(t *testing.T) {
	q := New[int](5)
	assert.Equal(t, uint64(7), q.FreeSlots())
	assert.Equal(t, 7, q.Enqueue(make([]int, 10)))
	assert.Equal(t, uint64(0), q.FreeSlots())
}
