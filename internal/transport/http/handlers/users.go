package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/users"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type UserService interface {
	Get(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.UserSummary, error)
	Update(ctx context.Context, username string, input users.UpdateInput) (model.User, error)
	Delete(ctx context.Context, username string) error
}

type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

func NewUserHandler(usersSvc UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: usersSvc, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.List(r.Context())
	if err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, struct {
		Users []dto.UserSummaryResponse `json:"users"`
	}{Users: dto.NewUserSummaryResponses(items)})
}

// Get returns the full profile. Only the profile owner may read it.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !h.requireSelf(w, r, username) {
		return
	}

	user, err := h.users.Get(r.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			apierrors.Write(w, apierrors.NotFound("user not found"))
			return
		}
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !h.requireSelf(w, r, username) {
		return
	}

	var req dto.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}

	user, err := h.users.Update(r.Context(), username, users.UpdateInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Hobbies:      req.Hobbies,
		Interests:    req.Interests,
		Location:     req.Location,
		FriendRadius: req.FriendRadius,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			apierrors.Write(w, apierrors.Validation(err.Error()))
		case errors.Is(err, users.ErrNotFound):
			apierrors.Write(w, apierrors.NotFound("user not found"))
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !h.requireSelf(w, r, username) {
		return
	}

	if err := h.users.Delete(r.Context(), username); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			apierrors.Write(w, apierrors.NotFound("user not found"))
			return
		}
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusNoContent, nil)
}

func (h *UserHandler) requireSelf(w http.ResponseWriter, r *http.Request, username string) bool {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return false
	}
	if identity.Username != username {
		apierrors.Write(w, apierrors.Forbidden("cannot access another user's profile"))
		return false
	}
	return true
}
