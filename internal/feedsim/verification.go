package feedsim

import (
	"errors"
	"fmt"

	"github.com/okian/pulse/internal/domain/types"
)

// ErrMismatch is returned when the service state differs from the timeline.
var ErrMismatch = errors.New("final state mismatch")

// Verify compares the final match view with the expected state. Every
// differing field is reported.
func Verify(exp Expected, got types.MatchView) error {
	var errs []error
	if got.Status != exp.Status {
		errs = append(errs, fmt.Errorf("%w: status %s, want %s", ErrMismatch, got.Status, exp.Status))
	}
	if got.Minute != exp.Minute {
		errs = append(errs, fmt.Errorf("%w: minute %d, want %d", ErrMismatch, got.Minute, exp.Minute))
	}
	if got.Score.Home != exp.HomeScore || got.Score.Away != exp.AwayScore {
		errs = append(errs, fmt.Errorf("%w: score %d-%d, want %d-%d",
			ErrMismatch, got.Score.Home, got.Score.Away, exp.HomeScore, exp.AwayScore))
	}
	if got.Winner != exp.Winner {
		errs = append(errs, fmt.Errorf("%w: winner %q, want %q", ErrMismatch, got.Winner, exp.Winner))
	}
	return errors.Join(errs...)
}

// verifyCounts checks the acknowledgements against the timeline.
func verifyCounts(t Timeline, stats *Stats) error {
	var errs []error
	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d submissions failed", ErrMismatch, stats.Failed))
	}
	if want := t.Count(StepFresh) + t.Count(StepStale); stats.Accepted != want {
		errs = append(errs, fmt.Errorf("%w: %d accepted, want %d", ErrMismatch, stats.Accepted, want))
	}
	if want := t.Count(StepDuplicate); stats.Duplicates != want {
		errs = append(errs, fmt.Errorf("%w: %d duplicates, want %d", ErrMismatch, stats.Duplicates, want))
	}
	return errors.Join(errs...)
}
