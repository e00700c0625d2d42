package feedsim

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/match"
)

// Timeline shape.
const (
	regulationMinutes = 90
	maxStoppageTime   = 6
	goalChance        = 0.12
	seedMix           = 0x9e3779b97f4a7c15
)

// StepKind tells how the service is expected to treat a step.
type StepKind int

const (
	// StepFresh is applied by the service.
	StepFresh StepKind = iota
	// StepStale is accepted but rejected when applied because it goes backwards.
	StepStale
	// StepDuplicate reuses an update id and is acknowledged without being queued.
	StepDuplicate
)

func (k StepKind) String() string {
	switch k {
	case StepFresh:
		return "fresh"
	case StepStale:
		return "stale"
	case StepDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Step is one update in submission order.
type Step struct {
	Kind   StepKind
	Update Update
}

// Expected is the match state once every step has been applied.
type Expected struct {
	Minute    int
	HomeScore int
	AwayScore int
	Status    match.Status
	Winner    string
}

// Timeline is a generated feed for one match.
type Timeline struct {
	Steps    []Step
	Expected Expected
}

// Count returns the number of steps of the given kind.
func (t Timeline) Count(kind StepKind) int {
	n := 0
	for _, s := range t.Steps {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Generate builds a timeline from cfg. The first fresh update kicks the match
// off and the last one finishes it; stale and duplicate steps are placed
// between the two.
func Generate(cfg Config) Timeline {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^seedMix))
	fresh := freshUpdates(r, cfg.Updates)

	steps := make([]Step, 0, len(fresh)+cfg.Stale+cfg.Duplicates)
	for _, u := range fresh {
		steps = append(steps, Step{Kind: StepFresh, Update: u})
	}
	for range cfg.Stale {
		steps = insertStale(r, steps)
	}
	for range cfg.Duplicates {
		steps = insertDuplicate(r, steps)
	}

	last := fresh[len(fresh)-1]
	exp := Expected{
		Minute:    last.Minute,
		HomeScore: last.HomeScore,
		AwayScore: last.AwayScore,
		Status:    match.StatusFinished,
	}
	switch {
	case last.HomeScore > last.AwayScore:
		exp.Winner = match.SideHome.String()
	case last.AwayScore > last.HomeScore:
		exp.Winner = match.SideAway.String()
	}
	return Timeline{Steps: steps, Expected: exp}
}

// freshUpdates produces n updates with a non-decreasing clock and score.
func freshUpdates(r *rand.Rand, n int) []Update {
	live, finished := match.StatusLive, match.StatusFinished
	out := make([]Update, 0, n)
	out = append(out, Update{UpdateID: uuid.NewString(), Status: &live})

	home, away := 0, 0
	for i := 1; i < n-1; i++ {
		if r.Float64() < goalChance {
			if r.IntN(2) == 0 {
				home++
			} else {
				away++
			}
		}
		out = append(out, Update{
			UpdateID:  uuid.NewString(),
			Minute:    i * regulationMinutes / (n - 1),
			HomeScore: home,
			AwayScore: away,
		})
	}

	out = append(out, Update{
		UpdateID:  uuid.NewString(),
		Minute:    regulationMinutes + r.IntN(maxStoppageTime+1),
		HomeScore: home,
		AwayScore: away,
		Status:    &finished,
	})
	return out
}

// insertStale replays an older fresh update under a new id right after a
// fresh update with a later minute. Steps are returned unchanged when no such
// pair exists.
func insertStale(r *rand.Rand, steps []Step) []Step {
	// The final whistle stays last.
	limit := len(steps) - 1
	var pos []int
	for i := 1; i < limit; i++ {
		if steps[i].Kind == StepFresh && steps[i].Update.Minute > 0 {
			pos = append(pos, i)
		}
	}
	if len(pos) == 0 {
		return steps
	}
	at := pos[r.IntN(len(pos))]
	minute := steps[at].Update.Minute

	var older []int
	for i := 0; i < at; i++ {
		if steps[i].Kind == StepFresh && steps[i].Update.Minute < minute {
			older = append(older, i)
		}
	}
	if len(older) == 0 {
		return steps
	}
	src := steps[older[r.IntN(len(older))]].Update
	stale := Update{
		UpdateID:  uuid.NewString(),
		Minute:    src.Minute,
		HomeScore: src.HomeScore,
		AwayScore: src.AwayScore,
	}
	return insertAt(steps, at+1, Step{Kind: StepStale, Update: stale})
}

// insertDuplicate re-sends an earlier update id before the final whistle.
func insertDuplicate(r *rand.Rand, steps []Step) []Step {
	limit := len(steps) - 1
	if limit < 1 {
		return steps
	}
	at := 1 + r.IntN(limit)
	src := steps[r.IntN(at)]
	return insertAt(steps, at, Step{Kind: StepDuplicate, Update: src.Update})
}

func insertAt(steps []Step, i int, s Step) []Step {
	steps = append(steps, Step{})
	copy(steps[i+1:], steps[i:])
	steps[i] = s
	return steps
}
