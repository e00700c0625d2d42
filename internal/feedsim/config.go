// Package feedsim replays a generated match timeline against a running
// service over HTTP and verifies the state the service ends up in.
package feedsim

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pulse/internal/domain/match"
)

// Default run parameters.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultUpdates    = 40
	DefaultStale      = 5
	DefaultDuplicates = 5
	DefaultTimeout    = 10 * time.Second
	DefaultSettle     = 30 * time.Second
)

// ErrInvalidConfig is returned for run parameters that cannot produce a timeline.
var ErrInvalidConfig = errors.New("invalid feedsim config")

// Config holds the parameters of one simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Updates    int           // Fresh updates, kick-off and final whistle included
	Stale      int           // Out-of-order updates to interleave
	Duplicates int           // Re-sent update ids to interleave
	Seed       uint64        // Timeline seed; equal seeds give equal timelines
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the match to finish
	Verbose    bool          // Log every step
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Updates < 2:
		return fmt.Errorf("%w: updates must be at least 2, got %d", ErrInvalidConfig, c.Updates)
	case c.Stale < 0:
		return fmt.Errorf("%w: stale must not be negative, got %d", ErrInvalidConfig, c.Stale)
	case c.Duplicates < 0:
		return fmt.Errorf("%w: duplicates must not be negative, got %d", ErrInvalidConfig, c.Duplicates)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Update is the wire shape of POST /matches/{id}/feed.
type Update struct {
	UpdateID  string        `json:"update_id"`
	Minute    int           `json:"minute"`
	HomeScore int           `json:"home_score"`
	AwayScore int           `json:"away_score"`
	Status    *match.Status `json:"status,omitempty"`
}

// Ack is the response body of an accepted or duplicate update.
type Ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	MatchID    string
	Submitted  int
	Accepted   int
	Duplicates int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
