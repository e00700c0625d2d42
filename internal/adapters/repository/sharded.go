package repository

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/pkg/metrics"
)

const defaultShardCount = 16

type entry struct {
	m         *match.Match
	version   uint64
	createdAt time.Time
	updatedAt time.Time
}

func (e *entry) record() Record {
	r := snapshot(e.m)
	r.Version = e.version
	r.CreatedAt = e.createdAt
	r.UpdatedAt = e.updatedAt
	return r
}

type shard struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entry
}

// ShardedStore keeps matches in memory across N shards, each guarded by its
// own RWMutex. A match is only ever read or mutated under its shard's lock.
type ShardedStore struct {
	shards     []*shard
	shardCount int
	clock      clockwork.Clock
}

// NewShardedStore constructs a store with configuration options.
func NewShardedStore(opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount: defaultShardCount,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{byID: make(map[uuid.UUID]*entry)}
	}
	metrics.UpdateStoreShardCount(s.shardCount)
	return s
}

func (s *ShardedStore) shardFor(id uuid.UUID) *shard {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Insert implements Store.Insert.
func (s *ShardedStore) Insert(ctx context.Context, m *match.Match) (Record, error) {
	if m == nil {
		return Record{}, fmt.Errorf("%w: match is required", match.ErrInvalidArgument)
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(m.ID())
	sh.mu.Lock()
	if _, ok := sh.byID[m.ID()]; ok {
		sh.mu.Unlock()
		return Record{}, fmt.Errorf("%w: %s", ErrDuplicate, m.ID())
	}
	now := s.clock.Now()
	e := &entry{m: m, version: 1, createdAt: now, updatedAt: now}
	sh.byID[m.ID()] = e
	rec := e.record()
	sh.mu.Unlock()

	metrics.UpdateStoreRecords(s.Count(ctx))
	return rec, nil
}

// Update implements Store.Update.
func (s *ShardedStore) Update(_ context.Context, id uuid.UUID, fn MutateFunc) (Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	before := snapshot(e.m)
	err := fn(e.m)
	if !sameState(before, snapshot(e.m)) {
		e.version++
		e.updatedAt = s.clock.Now()
	}
	return e.record(), err
}

// Get implements Store.Get.
func (s *ShardedStore) Get(_ context.Context, id uuid.UUID) (Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.record(), nil
}

// List implements Store.List. Each shard is read under its own lock, so the
// result is not a single point-in-time view across shards.
func (s *ShardedStore) List(_ context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []Record
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.byID {
			out = append(out, e.record())
		}
		sh.mu.RUnlock()
	}

	slices.SortFunc(out, func(a, b Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements Store.Count.
func (s *ShardedStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.byID)
		sh.mu.RUnlock()
	}
	return n
}

// CountByStatus implements Store.CountByStatus. Every status is present in
// the result, zero included.
func (s *ShardedStore) CountByStatus(_ context.Context) map[match.Status]int {
	out := map[match.Status]int{
		match.StatusNotStarted: 0,
		match.StatusLive:       0,
		match.StatusFinished:   0,
	}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.byID {
			out[e.m.Status()]++
		}
		sh.mu.RUnlock()
	}
	return out
}

var _ Store = (*ShardedStore)(nil)
