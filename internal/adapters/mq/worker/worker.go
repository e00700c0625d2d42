package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMetricsInterval = 5 * time.Second
	workerShutdownTimeout  = 5 * time.Second
)

// Rejection reasons used for logs and metrics.
const (
	ReasonInvalidArgument = "invalid_argument"
	ReasonInvalidState    = "invalid_state"
	ReasonNotFound        = "not_found"
	ReasonInternal        = "internal"
)

// Applier applies one feed update to its match.
type Applier interface {
	Apply(ctx context.Context, u model.FeedUpdate) error
}

// Queue defines how workers receive updates.
type Queue interface {
	Dequeue(ctx context.Context, partition int) <-chan model.FeedUpdate
	Partitions() int
}

// Worker processes feed updates from one queue partition.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Stop is called or
	// the partition is closed.
	Run(ctx context.Context)

	// Shutdown waits for the worker to drain its partition. If ctx expires
	// first the worker is stopped.
	Shutdown(ctx context.Context) error
}

// Classify maps an apply error to a rejection reason.
func Classify(err error) string {
	switch {
	case errors.Is(err, match.ErrInvalidArgument):
		return ReasonInvalidArgument
	case errors.Is(err, match.ErrInvalidState):
		return ReasonInvalidState
	case errors.Is(err, repository.ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonInternal
	}
}

// InMemoryWorker implements Worker. Rejected updates are logged and counted,
// never retried.
type InMemoryWorker struct {
	queue     Queue
	applier   Applier
	partition int
	name      string
	clock     clockwork.Clock

	applied  atomic.Int64
	rejected atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker bound to one queue partition.
func NewInMemoryWorker(queue Queue, applier Applier, partition int, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		applier:   applier,
		partition: partition,
		name:      "worker",
		clock:     clockwork.NewRealClock(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. The partition is consumed under a context that
// ends with the loop, so the queue stops forwarding once the worker is gone.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := w.queue.Dequeue(ctx, w.partition)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			w.process(ctx, u)
		}
	}
}

// Stop signals the worker to exit without draining and waits for it.
func (w *InMemoryWorker) Stop() {
	w.signalStop()
	select {
	case <-w.done:
	case <-time.After(workerShutdownTimeout):
		w.logger.Warn(context.Background(), "worker stop timed out")
	}
}

// Shutdown waits for the worker to drain its partition.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.signalStop()
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Applied returns the number of updates applied by this worker.
func (w *InMemoryWorker) Applied() int64 { return w.applied.Load() }

// Rejected returns the number of updates rejected by this worker.
func (w *InMemoryWorker) Rejected() int64 { return w.rejected.Load() }

func (w *InMemoryWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *InMemoryWorker) process(ctx context.Context, u model.FeedUpdate) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.applier.Apply(ctx, u)
	if err == nil {
		w.applied.Add(1)
		metrics.RecordFeedApplied()
		if !u.ReceivedAt.IsZero() {
			metrics.RecordFeedApplyLag(float64(w.clock.Since(u.ReceivedAt).Milliseconds()))
		}
		return
	}

	w.rejected.Add(1)
	reason := Classify(err)
	metrics.RecordFeedRejected(reason)
	metrics.RecordWorkerError(reason)

	fields := []logger.Field{
		logger.String("update_id", u.UpdateID),
		logger.String("match_id", u.MatchID.String()),
		logger.String("reason", reason),
		logger.Error(err),
	}
	if u.HasStatus() {
		fields = append(fields, logger.String("status", u.Status.String()))
	}
	if reason == ReasonInternal {
		w.logger.Error(ctx, "feed update failed", fields...)
		return
	}
	w.logger.Warn(ctx, "feed update rejected", fields...)
}

// Pool runs one worker per queue partition.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	clock           clockwork.Clock
	metricsInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}

	lastTotal int64
	lastTick  time.Time

	logger logger.Logger
}

// NewPool creates a pool with one worker per partition of queue.
func NewPool(queue Queue, applier Applier, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:           queue,
		clock:           clockwork.NewRealClock(),
		metricsInterval: defaultMetricsInterval,
		stop:            make(chan struct{}),
		logger:          logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	n := queue.Partitions()
	p.workers = make([]*InMemoryWorker, n)
	for i := range n {
		p.workers[i] = NewInMemoryWorker(queue, applier, i,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithClock(p.clock),
		)
	}

	metrics.UpdateWorkerCount(n)
	metrics.UpdateWorkerUpdatesPerSecond(0.0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.lastTick = p.clock.Now()
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.runMetricsUpdater(ctx)
}

func (p *Pool) runMetricsUpdater(ctx context.Context) {
	ticker := p.clock.NewTicker(p.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case now := <-ticker.Chan():
			p.updateMetrics(now)
		}
	}
}

// updateMetrics publishes updates handled per second since the last tick.
func (p *Pool) updateMetrics(now time.Time) {
	total := p.Applied() + p.Rejected()
	if elapsed := now.Sub(p.lastTick).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerUpdatesPerSecond(float64(total-p.lastTotal) / elapsed)
	}
	p.lastTotal = total
	p.lastTick = now
}

// Applied returns the number of updates applied across all workers.
func (p *Pool) Applied() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Applied()
	}
	return n
}

// Rejected returns the number of updates rejected across all workers.
func (p *Pool) Rejected() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Rejected()
	}
	return n
}

// Stop stops all workers immediately. Queued updates are left unprocessed.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	for _, w := range p.workers {
		w.Stop()
	}
}

// Shutdown closes the queue, lets the workers drain it and waits for them
// until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Warn(ctx, "error closing queue", logger.Error(err))
		}
	}

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	p.stopOnce.Do(func() { close(p.stop) })
	return errors.Join(errs...)
}
