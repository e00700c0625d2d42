// Package repository defines the match store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/match"
)

// Record is an immutable snapshot of a stored match.
type Record struct {
	ID        uuid.UUID
	HomeTeam  match.Team
	AwayTeam  match.Team
	Status    match.Status
	Minute    int
	Score     match.Score
	Winner    match.Side
	Version   uint64 // starts at 1, bumped on every observable change
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MutateFunc changes a match in place. It runs under the store's lock for
// that match and must not retain m.
type MutateFunc func(m *match.Match) error

// Store provides read/write access to live matches.
type Store interface {
	// Insert adds a new match. Returns ErrDuplicate if the id is taken.
	Insert(ctx context.Context, m *match.Match) (Record, error)

	// Update runs fn against the stored match while holding its lock and
	// returns the resulting record together with fn's error. Whatever fn
	// committed before failing stays committed and is reflected in the
	// record. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (Record, error)

	// Get returns the current record for id or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (Record, error)

	// List returns up to limit records ordered by CreatedAt, then id.
	List(ctx context.Context, limit int) ([]Record, error)

	// Count returns the number of stored matches.
	Count(ctx context.Context) int

	// CountByStatus returns the number of matches in every status.
	CountByStatus(ctx context.Context) map[match.Status]int
}

func snapshot(m *match.Match) Record {
	return Record{
		ID:       m.ID(),
		HomeTeam: m.HomeTeam(),
		AwayTeam: m.AwayTeam(),
		Status:   m.Status(),
		Minute:   m.CurrentMinute(),
		Score:    m.Score(),
		Winner:   m.Winner(),
	}
}

// sameState reports whether two snapshots describe the same observable state.
func sameState(a, b Record) bool {
	return a.Status == b.Status && a.Minute == b.Minute && a.Score == b.Score
}
