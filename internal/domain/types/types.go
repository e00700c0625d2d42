// Package types contains read shapes shared by the service, the HTTP API and
// the broadcaster.
package types

import (
	"time"

	"github.com/okian/pulse/internal/domain/match"
)

// TeamInput carries the raw fields of a team in a create request.
type TeamInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// TeamView is the public shape of a team.
type TeamView struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ScoreView is the public shape of a score.
type ScoreView struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// MatchView is a point-in-time snapshot of a match.
type MatchView struct {
	ID                string       `json:"id"`
	HomeTeam          TeamView     `json:"home_team"`
	AwayTeam          TeamView     `json:"away_team"`
	Status            match.Status `json:"status"`
	StatusDescription string       `json:"status_description"`
	Minute            int          `json:"minute"`
	Score             ScoreView    `json:"score"`
	Live              bool         `json:"live"`
	Finished          bool         `json:"finished"`
	Winner            string       `json:"winner,omitempty"`
	Version           uint64       `json:"version"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewTeamView converts a domain team.
func NewTeamView(t match.Team) TeamView {
	return TeamView{Name: t.Name(), Code: t.Code()}
}
