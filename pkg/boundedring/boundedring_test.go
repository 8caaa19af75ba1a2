package boundedring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidCapacity(t *testing.T) {
	for _, c := range []uint64{3, 5, 6, 7, 12, 100, 1000, 1<<20 + 1} {
		q, err := New[int](c)
		assert.Nilf(t, q, "capacity %d", c)
		assert.ErrorIsf(t, err, ErrCapacityNotPowerOfTwo, "capacity %d", c)
	}
	for _, c := range []uint64{0, 1} {
		q, err := New[int](c)
		assert.Nilf(t, q, "capacity %d", c)
		assert.ErrorIsf(t, err, ErrCapacityTooSmall, "capacity %d", c)
	}
	assert.Panics(t, func() { MustNew[byte](6) })
}

func TestNewStartsEmpty(t *testing.T) {
	for _, c := range []uint64{2, 4, 8, 64, 1024} {
		q, err := New[int](c)
		require.NoError(t, err)

		assert.Zero(t, q.head)
		assert.Zero(t, q.tail)
		assert.Len(t, q.storage, int(c))
		assert.Equal(t, c, q.Size())
		assert.Equal(t, int(c-1), q.Cap())
		assert.Equal(t, 0, q.Len())
		assert.Equal(t, c-1, q.FreeSlots())
	}
}

// Capacity 4 holds 3; a full buffer rejects until something is drained.
func TestScenarioCapacityFour(t *testing.T) {
	q := MustNew[int](4)

	assert.Equal(t, 3, q.Enqueue([]int{1, 2, 3}))
	assert.Equal(t, 0, q.Enqueue([]int{4}))

	buf := make([]int, 10)
	n := q.Dequeue(buf)
	require.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, buf[:n])

	assert.Equal(t, 1, q.Enqueue([]int{4}))
}

// Capacity 8 holds 7: after 5 in and 2 out, 4 of the 7 slots are free, so a
// batch of 4 fits entirely.
func TestScenarioCapacityEight(t *testing.T) {
	q := MustNew[int](8)

	assert.Equal(t, 5, q.Enqueue([]int{1, 2, 3, 4, 5}))
	assert.Equal(t, 2, q.Dequeue(make([]int, 2)))
	assert.Equal(t, 4, q.Enqueue([]int{6, 7, 8, 9}))
	assert.Equal(t, 7, q.Len())

	buf := make([]int, 8)
	n := q.Dequeue(buf)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, buf[:n])

	assert.Equal(t, Stats{Enqueued: 9, Dequeued: 9, Dropped: 0, Occupied: 0}, q.Stats())
}

// One element more than the free space drops exactly the last one.
func TestScenarioCapacityEightDropsTail(t *testing.T) {
	q := MustNew[int](8)

	assert.Equal(t, 5, q.Enqueue([]int{1, 2, 3, 4, 5}))
	assert.Equal(t, 2, q.Dequeue(make([]int, 2)))
	assert.Equal(t, 4, q.Enqueue([]int{6, 7, 8, 9, 10}), "only 4 of 7 usable slots are free")
	assert.Equal(t, 7, q.Len())
	assert.Equal(t, uint64(0), q.FreeSlots())

	buf := make([]int, 8)
	n := q.Dequeue(buf)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, buf[:n])

	assert.Equal(t, Stats{Enqueued: 9, Dequeued: 9, Dropped: 1, Occupied: 0}, q.Stats())
}

func TestEnqueueStopsAtFull(t *testing.T) {
	q := MustNew[int](16)

	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	require.Equal(t, 15, q.Enqueue(items))

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, q.Enqueue(items[:3]))
		assert.False(t, q.Put(99))
	}
	assert.Equal(t, uint64(0), q.FreeSlots())

	buf := make([]int, 16)
	n := q.Dequeue(buf)
	assert.Equal(t, items[:15], buf[:n], "dropped tail must not reach storage")
}

func TestDequeueHonoursDestinationLength(t *testing.T) {
	q := MustNew[int](8)
	q.Enqueue([]int{1, 2, 3, 4, 5})

	buf := make([]int, 2)
	require.Equal(t, 2, q.Dequeue(buf))
	assert.Equal(t, []int{1, 2}, buf)
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, 0, q.Dequeue(nil))
	assert.Equal(t, 0, q.Dequeue(buf[:0]))
	assert.Equal(t, 3, q.Len())
}

func TestEmptyDequeueLeavesCursors(t *testing.T) {
	q := MustNew[int](8)
	q.Enqueue([]int{1, 2, 3})
	q.Dequeue(make([]int, 3))

	head, tail := q.head, q.tail
	buf := []int{-1, -1}
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0, q.Dequeue(buf))
		_, ok := q.Get()
		assert.False(t, ok)
	}
	assert.Equal(t, head, q.head)
	assert.Equal(t, tail, q.tail)
	assert.Equal(t, []int{-1, -1}, buf, "empty dequeue must not write dst")
}

func TestEnqueueEmptyBatch(t *testing.T) {
	q := MustNew[int](4)
	assert.Equal(t, 0, q.Enqueue(nil))
	assert.Equal(t, 0, q.Enqueue([]int{}))
	assert.Equal(t, Stats{}, q.Stats())
}

func TestWrapAroundKeepsOrder(t *testing.T) {
	const capacity = 8
	q := MustNew[int](capacity)

	next, want := 0, 0
	buf := make([]int, capacity)
	for round := 0; round < 200; round++ {
		batch := make([]int, round%5+1)
		for i := range batch {
			batch[i] = next + i
		}
		next += q.Enqueue(batch)

		n := q.Dequeue(buf[:round%3+1])
		for _, v := range buf[:n] {
			require.Equal(t, want, v, "round %d", round)
			want++
		}
		require.Less(t, q.head, uint64(capacity))
		require.Less(t, q.tail, uint64(capacity))
	}

	n := q.Dequeue(buf)
	for _, v := range buf[:n] {
		require.Equal(t, want, v)
		want++
	}
	assert.Equal(t, next, want)
}

func TestPutGet(t *testing.T) {
	q := MustNew[string](4)

	assert.True(t, q.Put("a"))
	assert.True(t, q.Put("b"))
	assert.True(t, q.Put("c"))
	assert.False(t, q.Put("d"))

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, "a", v)

	assert.True(t, q.Put("d"))

	buf := make([]string, 4)
	n := q.Dequeue(buf)
	assert.Equal(t, []string{"b", "c", "d"}, buf[:n])

	st := q.Stats()
	assert.Equal(t, uint64(4), st.Enqueued)
	assert.Equal(t, uint64(1), st.Dropped)
}

func TestZeroOnDequeue(t *testing.T) {
	q := MustNew[*int](4, WithZeroOnDequeue())

	a, b, c := 1, 2, 3
	q.Enqueue([]*int{&a, &b})
	q.Dequeue(make([]*int, 2))
	q.Enqueue([]*int{&c, &a, &b}) // slots 2, 3, 0
	q.Get()
	q.Dequeue(make([]*int, 2)) // slots 3 and 0, across the wrap

	for i, p := range q.storage {
		assert.Nilf(t, p, "slot %d still holds a pointer", i)
	}
}

func TestStaleSlotsKeptByDefault(t *testing.T) {
	q := MustNew[int](4)
	q.Enqueue([]int{7})
	q.Dequeue(make([]int, 1))
	assert.Equal(t, 7, q.storage[0])
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestWithLocker(t *testing.T) {
	l := &countingLocker{}
	q := MustNew[int](4, WithLocker(l))

	q.Enqueue([]int{1})
	q.Dequeue(make([]int, 1))
	q.Put(2)
	q.Get()
	q.Stats()

	assert.Equal(t, 5, l.locks)
	assert.True(t, l.TryLock(), "lock must be released after every call")
}

func BenchmarkEnqueueDequeueBatch(b *testing.B) {
	q := MustNew[int](1024)
	in := make([]int, 64)
	out := make([]int, 64)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q.Enqueue(in)
		q.Dequeue(out)
	}
}

func BenchmarkPutGet(b *testing.B) {
	q := MustNew[int](1024)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q.Put(i)
		q.Get()
	}
}
