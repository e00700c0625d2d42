// Package match models the lifecycle of a single fixture as an in-memory
// aggregate.
//
// Invariants:
//   - the clock never goes backwards: CurrentMinute only grows
//   - the score never decreases on either side
//   - status only moves NOT_STARTED -> LIVE -> FINISHED
//
// A Match is not safe for concurrent mutation. The owner must serialize all
// mutating calls for a given match.
package match

import (
	"fmt"

	"github.com/google/uuid"
)

// Match is the aggregate root.
type Match struct {
	id       uuid.UUID
	homeTeam Team
	awayTeam Team
	status   Status
	minute   int
	score    Score
}

// New builds a match between two distinct teams. The match starts
// NOT_STARTED at minute 0 with a 0-0 score and a fresh random id.
func New(homeTeam, awayTeam Team) (*Match, error) {
	if homeTeam.IsZero() {
		return nil, fmt.Errorf("%w: home team is required", ErrInvalidArgument)
	}
	if awayTeam.IsZero() {
		return nil, fmt.Errorf("%w: away team is required", ErrInvalidArgument)
	}
	if homeTeam == awayTeam {
		return nil, fmt.Errorf("%w: home and away teams must differ (%s)", ErrInvalidArgument, homeTeam)
	}
	return &Match{
		id:       uuid.New(),
		homeTeam: homeTeam,
		awayTeam: awayTeam,
		status:   StatusNotStarted,
	}, nil
}

func (m *Match) ID() uuid.UUID      { return m.id }
func (m *Match) HomeTeam() Team     { return m.homeTeam }
func (m *Match) AwayTeam() Team     { return m.awayTeam }
func (m *Match) Status() Status     { return m.status }
func (m *Match) CurrentMinute() int { return m.minute }
func (m *Match) Score() Score       { return m.score }

func (m *Match) IsLive() bool     { return m.status == StatusLive }
func (m *Match) IsFinished() bool { return m.status == StatusFinished }

// Start moves a NOT_STARTED match to LIVE.
func (m *Match) Start() error {
	if !m.status.CanTransitionTo(StatusLive) {
		return fmt.Errorf("%w: cannot start a match that is %s", ErrInvalidState, m.status)
	}
	m.status = StatusLive
	return nil
}

// Finish moves a LIVE match to FINISHED.
func (m *Match) Finish() error {
	if !m.status.CanTransitionTo(StatusFinished) {
		return fmt.Errorf("%w: cannot finish a match that is %s", ErrInvalidState, m.status)
	}
	m.status = StatusFinished
	return nil
}

// UpdateMinute advances the clock. Repeating the current minute is accepted.
func (m *Match) UpdateMinute(newMinute int) error {
	if newMinute < 0 {
		return fmt.Errorf("%w: minute cannot be negative (%d)", ErrInvalidArgument, newMinute)
	}
	if newMinute < m.minute {
		return fmt.Errorf("%w: minute cannot go backwards (%d -> %d)", ErrInvalidArgument, m.minute, newMinute)
	}
	m.minute = newMinute
	return nil
}

// UpdateScore replaces the score; see Score.Update.
func (m *Match) UpdateScore(newHome, newAway int) error {
	score, err := m.score.Update(newHome, newAway)
	if err != nil {
		return err
	}
	m.score = score
	return nil
}

// ApplyFeedUpdate applies one feed poll. A nil status leaves the status
// untouched.
//
// The status target is validated before anything is written. The minute and
// the score are then committed one after the other and are not rolled back:
// if the score is rejected the new minute stays applied.
func (m *Match) ApplyFeedUpdate(minute, homeScore, awayScore int, newStatus *Status) error {
	if newStatus != nil && !m.status.CanTransitionTo(*newStatus) {
		return fmt.Errorf("%w: invalid status transition %s -> %s", ErrInvalidArgument, m.status, *newStatus)
	}
	if err := m.UpdateMinute(minute); err != nil {
		return err
	}
	if err := m.UpdateScore(homeScore, awayScore); err != nil {
		return err
	}
	if newStatus != nil {
		m.status = *newStatus
	}
	return nil
}

// Winner is SideNone until the match is finished.
func (m *Match) Winner() Side {
	if !m.IsFinished() {
		return SideNone
	}
	return m.score.Winner()
}
