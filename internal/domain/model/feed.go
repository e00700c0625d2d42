// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/match"
)

// FeedUpdate is one poll result from an external match feed.
type FeedUpdate struct {
	UpdateID   string        // feed-assigned id used for idempotency
	MatchID    uuid.UUID     // target match
	Minute     int           // reported match clock
	HomeScore  int           // reported home goals
	AwayScore  int           // reported away goals
	Status     *match.Status // optional status target; nil keeps the current one
	ReceivedAt time.Time     // when the service accepted the update
}

// HasStatus reports whether the update carries a status target.
func (u FeedUpdate) HasStatus() bool { return u.Status != nil }
