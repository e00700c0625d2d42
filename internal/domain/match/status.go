package match

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a match.
type Status uint8

const (
	StatusNotStarted Status = iota
	StatusLive
	StatusFinished
)

type transition struct {
	from, to Status
}

// transitions holds every legal status change. Anything absent is illegal,
// including self-transitions and every change out of StatusFinished.
var transitions = map[transition]bool{
	{StatusNotStarted, StatusLive}: true,
	{StatusLive, StatusFinished}:   true,
}

// CanTransitionTo reports whether s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	return transitions[transition{from: s, to: target}]
}

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusLive:
		return "LIVE"
	case StatusFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Description returns a human readable label.
func (s Status) Description() string {
	switch s {
	case StatusNotStarted:
		return "Not started"
	case StatusLive:
		return "Live"
	case StatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s <= StatusFinished
}

// ParseStatus accepts the String form, case-insensitively.
func ParseStatus(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "NOT_STARTED":
		return StatusNotStarted, nil
	case "LIVE":
		return StatusLive, nil
	case "FINISHED":
		return StatusFinished, nil
	default:
		return 0, fmt.Errorf("%w: unknown match status %q", ErrInvalidArgument, v)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %d", ErrInvalidArgument, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
