package service

import (
	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/types"
)

// NewView converts a store record into its public shape.
func NewView(rec repository.Record) types.MatchView {
	return types.MatchView{
		ID:                rec.ID.String(),
		HomeTeam:          types.NewTeamView(rec.HomeTeam),
		AwayTeam:          types.NewTeamView(rec.AwayTeam),
		Status:            rec.Status,
		StatusDescription: rec.Status.Description(),
		Minute:            rec.Minute,
		Score:             types.ScoreView{Home: rec.Score.Home(), Away: rec.Score.Away()},
		Live:              rec.Status == match.StatusLive,
		Finished:          rec.Status == match.StatusFinished,
		Winner:            rec.Winner.String(),
		Version:           rec.Version,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}
