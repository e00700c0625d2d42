package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pulse/internal/domain/match"
	"github.com/okian/pulse/internal/domain/model"
)

// FeedHandler accepts feed updates for asynchronous application.
type FeedHandler struct {
	deps FeedDependencies
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies) *FeedHandler {
	return &FeedHandler{deps: deps}
}

// feedRequest mirrors the OpenAPI schema for POST /matches/{id}/feed.
type feedRequest struct {
	UpdateID  string        `json:"update_id"`
	Minute    *int          `json:"minute"`
	HomeScore *int          `json:"home_score"`
	AwayScore *int          `json:"away_score"`
	Status    *match.Status `json:"status,omitempty"`
}

func (f feedRequest) validate() error {
	switch {
	case strings.TrimSpace(f.UpdateID) == "":
		return errMissing("update_id")
	case f.Minute == nil:
		return errMissing("minute")
	case f.HomeScore == nil:
		return errMissing("home_score")
	case f.AwayScore == nil:
		return errMissing("away_score")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostFeed handles POST /matches/{id}/feed. Update ids are
// deduplicated per match.
func (h *FeedHandler) HandlePostFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_feed"
	id, err := matchID(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req feedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if _, err := h.deps.Match(r.Context(), id); err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	// Idempotency check - mark as seen first
	key := id.String() + "/" + req.UpdateID
	if h.deps.SeenAndRecord(r.Context(), key) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	update := model.FeedUpdate{
		UpdateID:  req.UpdateID,
		MatchID:   id,
		Minute:    *req.Minute,
		HomeScore: *req.HomeScore,
		AwayScore: *req.AwayScore,
		Status:    req.Status,
	}
	if ok := h.deps.SubmitFeedUpdate(r.Context(), update); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), key)
		writeError(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

func errMissing(field string) error {
	return errors.New("missing " + field)
}
