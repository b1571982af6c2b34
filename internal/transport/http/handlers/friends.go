package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/friends"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type FriendService interface {
	ListFriends(ctx context.Context, username string) ([]model.UserSummary, error)
}

type FriendHandler struct {
	friends FriendService
	logger  *zap.Logger
}

func NewFriendHandler(friendsSvc FriendService, logger *zap.Logger) *FriendHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FriendHandler{friends: friendsSvc, logger: logger}
}

// List returns the caller's friends. Only the owner may read their list.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	username := chi.URLParam(r, "username")
	if identity.Username != username {
		apierrors.Write(w, apierrors.Forbidden("cannot access another user's friends"))
		return
	}

	items, err := h.friends.ListFriends(r.Context(), username)
	if err != nil {
		if errors.Is(err, friends.ErrUserNotFound) {
			apierrors.Write(w, apierrors.NotFound("user not found"))
			return
		}
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewFriendsResponse(items))
}
