package feedsim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
)

const (
	pollInterval         = 100 * time.Millisecond
	percentageMultiplier = 100
)

// Teams used for simulated matches.
var (
	homeTeam = types.TeamInput{Name: "Mexico", Code: "MEX"}
	awayTeam = types.TeamInput{Name: "South Africa", Code: "RSA"}
)

// Run executes one simulation: health check, match creation, timeline
// submission in order, then verification of the settled match.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	log := logger.Get().Named("feedsim")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting feed simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("updates", cfg.Updates),
		logger.Int("stale", cfg.Stale),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Any("seed", cfg.Seed),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	created, err := client.CreateMatch(ctx, homeTeam, awayTeam)
	if err != nil {
		return stats, fmt.Errorf("create match: %w", err)
	}
	stats.MatchID = created.ID
	log.Info(ctx, "match created", logger.String("matchID", created.ID))

	timeline := Generate(cfg)
	if err := submit(ctx, client, cfg, created.ID, timeline, stats); err != nil {
		return stats, err
	}
	if err := verifyCounts(timeline, stats); err != nil {
		return stats, err
	}

	final, err := awaitFinished(ctx, client, created.ID, cfg.Settle)
	if err != nil {
		return stats, err
	}
	if err := Verify(timeline.Expected, final); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats, final)
	return stats, nil
}

// submit posts the steps one at a time; arrival order is application order.
func submit(ctx context.Context, c *Client, cfg Config, id string, t Timeline, stats *Stats) error {
	log := logger.Get().Named("feedsim")
	for i, s := range t.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("submission cancelled: %w", err)
		}
		res, err := c.PostUpdate(ctx, id, s.Update)
		stats.Submitted++
		switch res {
		case resultAccepted:
			stats.Accepted++
		case resultDuplicate:
			stats.Duplicates++
		default:
			stats.Failed++
			log.Warn(ctx, "update failed",
				logger.Int("step", i),
				logger.String("updateID", s.Update.UpdateID),
				logger.Error(err))
			continue
		}
		if cfg.Verbose {
			log.Debug(ctx, "update submitted",
				logger.Int("step", i),
				logger.String("kind", s.Kind.String()),
				logger.String("result", res),
				logger.Int("minute", s.Update.Minute),
				logger.Int("home", s.Update.HomeScore),
				logger.Int("away", s.Update.AwayScore))
		}
	}
	return nil
}

// awaitFinished polls the match until it is finished or settle elapses.
func awaitFinished(ctx context.Context, c *Client, id string, settle time.Duration) (types.MatchView, error) {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		view, err := c.Match(ctx, id)
		if err == nil && view.Finished {
			return view, nil
		}
		select {
		case <-ctx.Done():
			if err == nil {
				err = errors.New("match did not finish")
			}
			return view, fmt.Errorf("await finished: %w", err)
		case <-ticker.C:
		}
	}
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats, final types.MatchView) {
	var acceptRate float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	log.Info(ctx, "simulation completed",
		logger.String("matchID", stats.MatchID),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Float64("acceptRate", acceptRate),
		logger.String("finalScore", fmt.Sprintf("%d-%d", final.Score.Home, final.Score.Away)),
		logger.Int("finalMinute", final.Minute),
		logger.String("winner", final.Winner),
		logger.Duration("duration", stats.Duration))
}
