// Package queue defines the contract for enqueuing and consuming feed updates.
//
// The in-memory implementation splits its capacity across partitions and
// routes every update by its match id. All updates of one match land in the
// same partition and therefore reach a single consumer in arrival order.
package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100_000
	defaultPartitions    = 1
)

// Queue provides non-blocking enqueue and channel-based, per-partition
// dequeue semantics.
type Queue interface {
	// Enqueue adds an update to its match's partition.
	// Returns false if the queue is closed, the partition is full or ctx is done.
	Enqueue(ctx context.Context, u model.FeedUpdate) bool

	// Dequeue returns a channel that receives the updates of one partition.
	// The channel is closed when the queue is closed or ctx is done.
	Dequeue(ctx context.Context, partition int) <-chan model.FeedUpdate

	// Partitions returns the number of partitions.
	Partitions() int

	// Len returns the number of queued updates across all partitions.
	Len(ctx context.Context) int

	// Close stops accepting updates and closes every partition.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue with one buffered channel per partition.
type InMemoryQueue struct {
	parts      []chan model.FeedUpdate
	capacity   int
	partitions int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
// Capacity is divided evenly between partitions, rounding up.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		partitions: defaultPartitions,
	}
	for _, opt := range opts {
		opt(q)
	}

	perPartition := (q.capacity + q.partitions - 1) / q.partitions
	q.parts = make([]chan model.FeedUpdate, q.partitions)
	for i := range q.parts {
		q.parts[i] = make(chan model.FeedUpdate, perPartition)
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// PartitionFor returns the partition an update for id is routed to.
func (q *InMemoryQueue) PartitionFor(id uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return int(h.Sum32() % uint32(len(q.parts)))
}

// Enqueue adds an update to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, u model.FeedUpdate) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.parts[q.PartitionFor(u.MatchID)] <- u:
		metrics.RecordQueueEnqueue()
		q.reportSize()
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive the updates of partition.
// An out-of-range partition yields an already closed channel. Forwarding stops
// when ctx ends; readers cancel ctx once they stop receiving.
func (q *InMemoryQueue) Dequeue(ctx context.Context, partition int) <-chan model.FeedUpdate {
	out := make(chan model.FeedUpdate)
	if partition < 0 || partition >= len(q.parts) {
		close(out)
		return out
	}
	src := q.parts[partition]
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- u:
					metrics.RecordQueueDequeue()
					q.reportSize()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Partitions returns the number of partitions.
func (q *InMemoryQueue) Partitions() int { return len(q.parts) }

// Len returns the current number of queued updates.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.reportSize()
}

func (q *InMemoryQueue) reportSize() int {
	size := 0
	for _, p := range q.parts {
		size += len(p)
	}
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close shuts down the queue. Updates already queued are still delivered to
// consumers. Closing twice returns ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	for _, p := range q.parts {
		close(p)
	}
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

var _ Queue = (*InMemoryQueue)(nil)
