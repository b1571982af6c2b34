package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/services/match"
	"github.com/maxjeon97/friender/internal/services/rate"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type DecisionService interface {
	RecordDecision(ctx context.Context, viewingUsername, viewedUsername string, liked bool) (bool, error)
}

type ViewHandler struct {
	match  DecisionService
	logger *zap.Logger
}

func NewViewHandler(matchSvc DecisionService, logger *zap.Logger) *ViewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewHandler{match: matchSvc, logger: logger}
}

// Decide records a like or pass on a candidate and reports whether it
// completed a mutual match.
func (h *ViewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	var req dto.DecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}
	if req.Liked == nil {
		apierrors.Write(w, apierrors.Validation("liked is required"))
		return
	}
	if req.ViewedUsername == "" {
		apierrors.Write(w, apierrors.Validation("viewed_username is required"))
		return
	}

	matched, err := h.match.RecordDecision(r.Context(), identity.Username, req.ViewedUsername, *req.Liked)
	if err != nil {
		var tooFast *rate.TooFastError
		switch {
		case errors.As(err, &tooFast):
			apierrors.WriteRateLimited(w, tooFast.RetryAfter)
		case errors.Is(err, match.ErrSelfDecision):
			apierrors.Write(w, apierrors.Validation("cannot decide on yourself"))
		case errors.Is(err, match.ErrValidation):
			apierrors.Write(w, apierrors.Validation(err.Error()))
		case errors.Is(err, match.ErrUserNotFound):
			apierrors.Write(w, apierrors.NotFound("user not found"))
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.DecisionResponse{Matched: matched})
}
