// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/broadcast"
	feedqueue "github.com/okian/pulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/pulse/internal/adapters/mq/worker"
	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

const drainTimeout = 5 * time.Second

// Service owns the match store and the feed pipeline. Commands run
// synchronously against the store; feed updates are deduplicated, queued and
// applied by the worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     *feedqueue.InMemoryQueue
	pool      *workerpool.Pool
	publisher broadcast.Publisher
	clock     clockwork.Clock

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int

	started   bool
	runCancel context.CancelFunc

	// matchLocks serialize write-then-publish per match so views are
	// broadcast in version order.
	matchLocks []sync.Mutex

	logger logger.Logger
}

// New constructs a Service. The store and the deduper are ready
// immediately; the feed pipeline runs between Start and Stop.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100_000,
		dedupeSize:  50_000,
		shardCount:  16,
		publisher:   broadcast.NewNopPublisher(),
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewShardedStore(
		repository.WithShardCount(s.shardCount),
		repository.WithClock(s.clock),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.matchLocks = make([]sync.Mutex, s.shardCount)
	return s
}

// Start creates the feed queue and starts one worker per partition. The
// workers outlive ctx; only Stop ends them, after draining the queue.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting match service...")

	s.queue = feedqueue.NewInMemoryQueue(
		feedqueue.WithCapacity(s.queueSize),
		feedqueue.WithPartitions(s.workerCount),
	)
	s.pool = workerpool.NewPool(s.queue, s,
		workerpool.WithPoolLogger(s.logger.Named("workers")),
		workerpool.WithPoolClock(s.clock),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "match service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shardCount", s.shardCount),
	)
	return nil
}

// Stop closes the feed queue and waits for the workers to drain it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping match service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "feed workers did not drain in time", logger.Error(err))
	}
	s.runCancel()

	s.started = false
	s.logger.Info(ctx, "match service stopped",
		logger.Int("applied", int(s.pool.Applied())),
		logger.Int("rejected", int(s.pool.Rejected())),
	)
}

// CreateMatch registers a new NOT_STARTED match between two teams.
func (s *Service) CreateMatch(ctx context.Context, home, away types.TeamInput) (types.MatchView, error) {
	homeTeam, err := match.NewTeam(home.Name, home.Code)
	if err != nil {
		return types.MatchView{}, fmt.Errorf("home team: %w", err)
	}
	awayTeam, err := match.NewTeam(away.Name, away.Code)
	if err != nil {
		return types.MatchView{}, fmt.Errorf("away team: %w", err)
	}
	m, err := match.New(homeTeam, awayTeam)
	if err != nil {
		return types.MatchView{}, err
	}

	rec, err := s.store.Insert(ctx, m)
	if err != nil {
		return types.MatchView{}, err
	}
	metrics.RecordMatchCreated()
	s.logger.Info(ctx, "match created",
		logger.String("match_id", rec.ID.String()),
		logger.String("home", homeTeam.Code()),
		logger.String("away", awayTeam.Code()),
	)

	view := NewView(rec)
	s.publish(ctx, view)
	return view, nil
}

// Match returns the current view of one match.
func (s *Service) Match(ctx context.Context, id uuid.UUID) (types.MatchView, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return types.MatchView{}, err
	}
	return NewView(rec), nil
}

// Matches returns up to limit matches, oldest first.
func (s *Service) Matches(ctx context.Context, limit int) ([]types.MatchView, error) {
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]types.MatchView, len(recs))
	for i, rec := range recs {
		views[i] = NewView(rec)
	}
	return views, nil
}

// StartMatch moves a match to LIVE.
func (s *Service) StartMatch(ctx context.Context, id uuid.UUID) (types.MatchView, error) {
	return s.command(ctx, "start", id, func(m *match.Match) error { return m.Start() })
}

// FinishMatch moves a match to FINISHED.
func (s *Service) FinishMatch(ctx context.Context, id uuid.UUID) (types.MatchView, error) {
	return s.command(ctx, "finish", id, func(m *match.Match) error { return m.Finish() })
}

// UpdateMinute advances the match clock.
func (s *Service) UpdateMinute(ctx context.Context, id uuid.UUID, minute int) (types.MatchView, error) {
	return s.command(ctx, "minute", id, func(m *match.Match) error { return m.UpdateMinute(minute) })
}

// UpdateScore replaces the score.
func (s *Service) UpdateScore(ctx context.Context, id uuid.UUID, home, away int) (types.MatchView, error) {
	return s.command(ctx, "score", id, func(m *match.Match) error { return m.UpdateScore(home, away) })
}

func (s *Service) command(ctx context.Context, name string, id uuid.UUID, fn repository.MutateFunc) (types.MatchView, error) {
	rec, err := s.update(ctx, id, fn)
	if err != nil {
		metrics.RecordMatchCommand(name, "rejected")
		s.logger.Debug(ctx, "match command rejected",
			logger.String("command", name),
			logger.String("match_id", id.String()),
			logger.Error(err),
		)
		return types.MatchView{}, err
	}
	metrics.RecordMatchCommand(name, "ok")
	return NewView(rec), nil
}

// SubmitFeedUpdate queues a feed update for asynchronous application.
// Returns false when the pipeline is stopped or the queue is full.
// Deduplication is the caller's job (see SeenAndRecord).
func (s *Service) SubmitFeedUpdate(ctx context.Context, u model.FeedUpdate) bool { //nolint:gocritic // hugeParam: FeedUpdate is queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		s.logger.Warn(ctx, "feed update submitted while stopped",
			logger.String("update_id", u.UpdateID),
			logger.Error(ErrNotStarted),
		)
		return false
	}
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = s.clock.Now()
	}
	if !s.queue.Enqueue(ctx, u) {
		return false
	}
	metrics.RecordFeedReceived()
	return true
}

// Apply applies one feed update to its match. It is the worker pool's entry
// point. A partially applied update is still broadcast: the committed minute
// is real state.
func (s *Service) Apply(ctx context.Context, u model.FeedUpdate) error { //nolint:gocritic // hugeParam: FeedUpdate is passed by value from the queue
	_, err := s.update(ctx, u.MatchID, func(m *match.Match) error {
		return m.ApplyFeedUpdate(u.Minute, u.HomeScore, u.AwayScore, u.Status)
	})
	if err != nil {
		return fmt.Errorf("apply %s: %w", u.UpdateID, err)
	}
	return nil
}

type matchState struct {
	status match.Status
	minute int
	score  match.Score
}

// update runs fn through the store and broadcasts the match if it changed,
// including when fn failed after a partial write.
func (s *Service) update(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (repository.Record, error) {
	mu := s.matchLock(id)
	mu.Lock()
	defer mu.Unlock()

	var before matchState
	rec, err := s.store.Update(ctx, id, func(m *match.Match) error {
		before = matchState{status: m.Status(), minute: m.CurrentMinute(), score: m.Score()}
		return fn(m)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return rec, err
	}
	if after := (matchState{status: rec.Status, minute: rec.Minute, score: rec.Score}); after != before {
		s.publish(ctx, NewView(rec))
	}
	return rec, err
}

func (s *Service) matchLock(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return &s.matchLocks[h.Sum32()%uint32(len(s.matchLocks))]
}

func (s *Service) publish(ctx context.Context, view types.MatchView) {
	if err := s.publisher.Publish(ctx, view); err != nil {
		s.logger.Warn(ctx, "broadcast failed",
			logger.String("match_id", view.ID),
			logger.Int("version", int(view.Version)),
			logger.Error(err),
		)
	}
}

// SeenAndRecord atomically checks if a feed update id was seen and records
// it if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordFeedDuplicate()
	}
	return seen
}

// Unrecord removes a feed update id from the seen set so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	byStatus := s.store.CountByStatus(ctx)
	statusCounts := make(map[string]int, len(byStatus))
	for status, n := range byStatus {
		statusCounts[status.String()] = n
		metrics.UpdateMatchesByStatus(status.String(), n)
	}
	total := s.store.Count(ctx)
	metrics.UpdateStoreRecords(total)

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"shardCount":      s.shardCount,
		"totalMatches":    total,
		"matchesByStatus": statusCounts,
		"seenUpdates":     s.deduper.Size(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["appliedUpdates"] = s.pool.Applied()
		stats["rejectedUpdates"] = s.pool.Rejected()
	}

	return stats
}
