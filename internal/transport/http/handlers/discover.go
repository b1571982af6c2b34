package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/geo"
	"github.com/maxjeon97/friender/internal/services/match"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type DiscoverService interface {
	DiscoverCandidates(ctx context.Context, username, originOverride string, radiusOverride int) ([]model.Candidate, error)
}

type DiscoverHandler struct {
	match  DiscoverService
	logger *zap.Logger
}

func NewDiscoverHandler(matchSvc DiscoverService, logger *zap.Logger) *DiscoverHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscoverHandler{match: matchSvc, logger: logger}
}

// Discover lists unseen candidates within the caller's friend radius. The
// optional location and radius query parameters override the stored origin
// ZIP and radius for this search only.
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	origin := r.URL.Query().Get("location")

	radius := 0
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apierrors.Write(w, apierrors.Validation("radius must be a positive integer"))
			return
		}
		radius = parsed
	}

	candidates, err := h.match.DiscoverCandidates(r.Context(), identity.Username, origin, radius)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrValidation), errors.Is(err, geo.ErrValidation):
			apierrors.Write(w, apierrors.Validation(err.Error()))
		case errors.Is(err, match.ErrUserNotFound):
			apierrors.Write(w, apierrors.NotFound("user not found"))
		case errors.Is(err, geo.ErrUpstream):
			h.logger.Warn("radius provider unavailable", zap.Error(err))
			apierrors.Write(w, apierrors.Upstream())
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewDiscoverResponse(candidates))
}
