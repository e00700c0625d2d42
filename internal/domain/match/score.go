package match

import "fmt"

// Side identifies the winning side of a match. SideNone covers draws and
// unfinished matches.
type Side uint8

const (
	SideNone Side = iota
	SideHome
	SideAway
)

func (s Side) String() string {
	switch s {
	case SideHome:
		return "HOME"
	case SideAway:
		return "AWAY"
	default:
		return ""
	}
}

// Score is an immutable pair of goal counts. Update returns a new value.
type Score struct {
	home int
	away int
}

// NewScore rejects negative counts.
func NewScore(home, away int) (Score, error) {
	if home < 0 {
		return Score{}, fmt.Errorf("%w: home score cannot be negative (%d)", ErrInvalidArgument, home)
	}
	if away < 0 {
		return Score{}, fmt.Errorf("%w: away score cannot be negative (%d)", ErrInvalidArgument, away)
	}
	return Score{home: home, away: away}, nil
}

func (s Score) Home() int { return s.home }
func (s Score) Away() int { return s.away }

// Update returns the score (newHome, newAway). Each side is checked on its
// own: a regression on either side fails even when the other side is valid.
func (s Score) Update(newHome, newAway int) (Score, error) {
	if newHome < s.home {
		return s, fmt.Errorf("%w: home score cannot decrease (%d -> %d)", ErrInvalidArgument, s.home, newHome)
	}
	if newAway < s.away {
		return s, fmt.Errorf("%w: away score cannot decrease (%d -> %d)", ErrInvalidArgument, s.away, newAway)
	}
	return NewScore(newHome, newAway)
}

func (s Score) IsDraw() bool { return s.home == s.away }

// Winner returns the leading side, or SideNone on a draw.
func (s Score) Winner() Side {
	switch {
	case s.home > s.away:
		return SideHome
	case s.away > s.home:
		return SideAway
	default:
		return SideNone
	}
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.home, s.away)
}
