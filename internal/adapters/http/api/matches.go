package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/types"
)

// MatchesHandler serves the synchronous match commands and reads.
type MatchesHandler struct {
	deps     MatchDependencies
	maxLimit int
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, maxLimit int) *MatchesHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &MatchesHandler{deps: deps, maxLimit: maxLimit}
}

type createMatchRequest struct {
	Home types.TeamInput `json:"home"`
	Away types.TeamInput `json:"away"`
}

type minuteRequest struct {
	Minute *int `json:"minute"`
}

type scoreRequest struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// HandleCreate handles POST /matches.
func (h *MatchesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_match"
	var req createMatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.CreateMatch(r.Context(), req.Home, req.Away)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/matches/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleList handles GET /matches?limit=N. Without limit the configured
// maximum is used.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code:    "limit_exceeded",
				Message: "limit must not exceed " + strconv.Itoa(h.maxLimit),
			})
			return
		}
	}
	views, err := h.deps.Matches(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGet handles GET /matches/{id}.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.get_match", h.deps.Match)
}

// HandleStart handles POST /matches/{id}/start.
func (h *MatchesHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.start_match", h.deps.StartMatch)
}

// HandleFinish handles POST /matches/{id}/finish.
func (h *MatchesHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.finish_match", h.deps.FinishMatch)
}

// HandleMinute handles POST /matches/{id}/minute.
func (h *MatchesHandler) HandleMinute(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_minute"
	var req minuteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Minute == nil {
		writeError(w, WrapKind(op, ErrBadRequest, errMissing("minute")))
		return
	}
	h.withID(w, r, op, func(ctx context.Context, id uuid.UUID) (types.MatchView, error) {
		return h.deps.UpdateMinute(ctx, id, *req.Minute)
	})
}

// HandleScore handles POST /matches/{id}/score.
func (h *MatchesHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_score"
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	switch {
	case req.Home == nil:
		writeError(w, WrapKind(op, ErrBadRequest, errMissing("home")))
		return
	case req.Away == nil:
		writeError(w, WrapKind(op, ErrBadRequest, errMissing("away")))
		return
	}
	h.withID(w, r, op, func(ctx context.Context, id uuid.UUID) (types.MatchView, error) {
		return h.deps.UpdateScore(ctx, id, *req.Home, *req.Away)
	})
}

func (h *MatchesHandler) withID(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, uuid.UUID) (types.MatchView, error)) {
	id, err := matchID(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
