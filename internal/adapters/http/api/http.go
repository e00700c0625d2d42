// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
)

// MatchDependencies covers the synchronous match commands and reads.
type MatchDependencies interface {
	CreateMatch(ctx context.Context, home, away types.TeamInput) (types.MatchView, error)
	Match(ctx context.Context, id uuid.UUID) (types.MatchView, error)
	Matches(ctx context.Context, limit int) ([]types.MatchView, error)
	StartMatch(ctx context.Context, id uuid.UUID) (types.MatchView, error)
	FinishMatch(ctx context.Context, id uuid.UUID) (types.MatchView, error)
	UpdateMinute(ctx context.Context, id uuid.UUID, minute int) (types.MatchView, error)
	UpdateScore(ctx context.Context, id uuid.UUID, home, away int) (types.MatchView, error)
}

// FeedDependencies covers feed intake.
type FeedDependencies interface {
	dedupe.Deduper
	Match(ctx context.Context, id uuid.UUID) (types.MatchView, error)
	// SubmitFeedUpdate queues an update. Returns false on backpressure.
	SubmitFeedUpdate(ctx context.Context, u model.FeedUpdate) bool
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchDependencies
	FeedDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchesHandler *MatchesHandler
	feedHandler    *FeedHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		matchesHandler: NewMatchesHandler(deps, maxListLimit),
		feedHandler:    NewFeedHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /matches", MetricsMiddleware(s.matchesHandler.HandleCreate, "matches_create"))
	mux.HandleFunc("GET /matches", MetricsMiddleware(s.matchesHandler.HandleList, "matches_list"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "matches_get"))
	mux.HandleFunc("POST /matches/{id}/start", MetricsMiddleware(s.matchesHandler.HandleStart, "matches_start"))
	mux.HandleFunc("POST /matches/{id}/finish", MetricsMiddleware(s.matchesHandler.HandleFinish, "matches_finish"))
	mux.HandleFunc("POST /matches/{id}/minute", MetricsMiddleware(s.matchesHandler.HandleMinute, "matches_minute"))
	mux.HandleFunc("POST /matches/{id}/score", MetricsMiddleware(s.matchesHandler.HandleScore, "matches_score"))

	mux.HandleFunc("POST /matches/{id}/feed", MetricsMiddleware(s.feedHandler.HandlePostFeed, "matches_feed"))
}
