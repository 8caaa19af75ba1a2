package testbench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i5heu/GoRingBuffer/internal/queue"
)

// Config describes the concurrency of one run: how many producers, how many
// consumers, and the largest batch either side moves per call.
type Config struct {
	NumProducers int `yaml:"producers" json:"num_producers"`
	NumConsumers int `yaml:"consumers" json:"num_consumers"`
	MaxBatch     int `yaml:"max_batch" json:"max_batch"`
}

func (cfg Config) maxBatch() int {
	if cfg.MaxBatch < 1 {
		return 1
	}
	return cfg.MaxBatch
}

// RunTimedTest spawns producers and consumers that run for the specified
// duration. Producers push random-size batches and count what the queue
// accepted and what it dropped; nothing is retried. Once the duration expires
// producers stop and consumers drain whatever is left.
// Returns the totals enqueued, dequeued and dropped, and the elapsed time.
func RunTimedTest[T any, Q queue.BatchQueueValidationInterface[T]](
	q Q,
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) (producedCount, consumedCount, droppedCount int64, elapsed time.Duration) {

	ctx, cancel := context.WithTimeout(context.Background(), testDuration)
	defer cancel()

	var totalProduced, totalConsumed, totalDropped atomic.Int64
	var msgIndex atomic.Int64

	// producersDone is set once every producer has returned, so a consumer
	// that then sees an empty queue knows it is drained for good.
	var producersDone atomic.Bool

	maxBatch := cfg.maxBatch()
	start := time.Now()

	var prodWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)
	for i := 0; i < cfg.NumProducers; i++ {
		go func(id int) {
			defer prodWg.Done()
			rng := rand.New(rand.NewPCG(uint64(start.UnixNano()), uint64(id)))
			batch := make([]T, maxBatch)
			for ctx.Err() == nil {
				size := rng.IntN(maxBatch) + 1
				base := int(msgIndex.Add(int64(size))) - size
				for j := 0; j < size; j++ {
					batch[j] = valueGenerator(base + j)
				}
				n := q.Enqueue(batch[:size])
				totalProduced.Add(int64(n))
				if n < size {
					totalDropped.Add(int64(size - n))
					runtime.Gosched()
				}
			}
		}(i)
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.NumConsumers)
	for i := 0; i < cfg.NumConsumers; i++ {
		go func(id int) {
			defer consWg.Done()
			rng := rand.New(rand.NewPCG(uint64(start.UnixNano()), uint64(id)^0xc0ffee))
			buf := make([]T, maxBatch)
			for {
				finished := producersDone.Load()
				n := q.Dequeue(buf[:rng.IntN(maxBatch)+1])
				totalConsumed.Add(int64(n))
				if n == 0 {
					if finished {
						return
					}
					runtime.Gosched()
				}
			}
		}(i)
	}

	prodWg.Wait()
	producersDone.Store(true)
	consWg.Wait()

	elapsed = time.Since(start)
	return totalProduced.Load(), totalConsumed.Load(), totalDropped.Load(), elapsed
}

// Item is the sequenced element RunCountedTest pushes through a queue.
type Item struct {
	Producer int
	Seq      int
}

var (
	ErrLostItems      = errors.New("testbench: items were enqueued but never dequeued")
	ErrDuplicateItems = errors.New("testbench: item dequeued more than once")
	ErrReordered      = errors.New("testbench: per-producer FIFO order violated")
	ErrUnknownItem    = errors.New("testbench: dequeued an item that was never produced")
)

// Result is the outcome of RunCountedTest.
type Result struct {
	Total    int
	Produced int64
	Consumed int64
	// Retries counts Enqueue calls that accepted fewer elements than offered.
	Retries int64
	Elapsed time.Duration

	producers int
	received  [][]Item
}

// RunCountedTest pushes exactly total sequence-numbered items through q.
// Each producer owns a contiguous share, offers it in random-size batches and
// re-offers whatever the queue dropped, so nothing is lost on the producer
// side. Consumers pull random-size batches until every item has arrived.
// ctx bounds the run; an expired ctx is reported as an error together with the
// partial Result. seed makes the batch sizes reproducible.
func RunCountedTest[Q queue.BatchQueueValidationInterface[Item]](
	ctx context.Context,
	q Q,
	cfg Config,
	total int,
	seed uint64,
) (*Result, error) {
	if cfg.NumProducers < 1 || cfg.NumConsumers < 1 {
		return nil, fmt.Errorf("testbench: need at least one producer and one consumer, got %d/%d",
			cfg.NumProducers, cfg.NumConsumers)
	}

	maxBatch := cfg.maxBatch()
	res := &Result{
		Total:     total,
		producers: cfg.NumProducers,
		received:  make([][]Item, cfg.NumConsumers),
	}

	var produced, consumed, retries atomic.Int64
	start := time.Now()

	share := total / cfg.NumProducers
	remainder := total % cfg.NumProducers

	var prodWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)
	for p := 0; p < cfg.NumProducers; p++ {
		count := share
		if p == cfg.NumProducers-1 {
			count += remainder
		}
		go func(producerID, count int) {
			defer prodWg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(producerID)))
			batch := make([]Item, maxBatch)
			for seq := 0; seq < count; {
				size := min(rng.IntN(maxBatch)+1, count-seq)
				for j := 0; j < size; j++ {
					batch[j] = Item{Producer: producerID, Seq: seq + j}
				}
				pending := batch[:size]
				for len(pending) > 0 {
					if ctx.Err() != nil {
						return
					}
					n := q.Enqueue(pending)
					produced.Add(int64(n))
					pending = pending[n:]
					if len(pending) > 0 {
						retries.Add(1)
						runtime.Gosched()
					}
				}
				seq += size
			}
		}(p, count)
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.NumConsumers)
	for c := 0; c < cfg.NumConsumers; c++ {
		go func(consumerID int) {
			defer consWg.Done()
			rng := rand.New(rand.NewPCG(seed^0x9e3779b97f4a7c15, uint64(consumerID)))
			buf := make([]Item, maxBatch)
			var got []Item
			defer func() { res.received[consumerID] = got }()
			for consumed.Load() < int64(total) {
				if ctx.Err() != nil {
					return
				}
				n := q.Dequeue(buf[:rng.IntN(maxBatch)+1])
				if n == 0 {
					runtime.Gosched()
					continue
				}
				got = append(got, buf[:n]...)
				consumed.Add(int64(n))
			}
		}(c)
	}

	prodWg.Wait()
	consWg.Wait()

	res.Elapsed = time.Since(start)
	res.Produced = produced.Load()
	res.Consumed = consumed.Load()
	res.Retries = retries.Load()

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("testbench: counted run stopped after %d/%d items: %w", res.Consumed, total, err)
	}
	return res, nil
}

// Verify checks that every produced item was dequeued exactly once and that
// each consumer saw every producer's items in increasing sequence order.
// With a single consumer that is the full FIFO guarantee.
func (r *Result) Verify() error {
	share := r.Total / r.producers
	seen := make(map[Item]int, r.Total)

	for consumerID, items := range r.received {
		last := make(map[int]int, r.producers)
		for _, it := range items {
			if it.Producer < 0 || it.Producer >= r.producers || it.Seq < 0 {
				return fmt.Errorf("%w: %+v", ErrUnknownItem, it)
			}
			seen[it]++
			if seen[it] > 1 {
				return fmt.Errorf("%w: %+v", ErrDuplicateItems, it)
			}
			if prev, ok := last[it.Producer]; ok && it.Seq <= prev {
				return fmt.Errorf("%w: consumer %d got producer %d seq %d after %d",
					ErrReordered, consumerID, it.Producer, it.Seq, prev)
			}
			last[it.Producer] = it.Seq
		}
	}

	for p := 0; p < r.producers; p++ {
		count := share
		if p == r.producers-1 {
			count += r.Total % r.producers
		}
		for seq := 0; seq < count; seq++ {
			if seen[Item{Producer: p, Seq: seq}] == 0 {
				return fmt.Errorf("%w: producer %d seq %d", ErrLostItems, p, seq)
			}
		}
	}

	if len(seen) != r.Total {
		return fmt.Errorf("%w: %d distinct items for %d produced", ErrUnknownItem, len(seen), r.Total)
	}
	return nil
}

// Received returns what each consumer dequeued, in order.
func (r *Result) Received() [][]Item {
	return r.received
}
