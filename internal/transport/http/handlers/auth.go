package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/auth"
	"github.com/maxjeon97/friender/internal/services/users"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type AuthService interface {
	IssueForUser(ctx context.Context, username string) (auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.AuthResult, error)
	Logout(ctx context.Context, sid string) error
	LogoutAll(ctx context.Context, username string) error
}

type RegistrationService interface {
	Register(ctx context.Context, input users.RegisterInput) (model.User, error)
	Authenticate(ctx context.Context, username, password string) (model.User, error)
}

type AuthHandler struct {
	auth   AuthService
	users  RegistrationService
	logger *zap.Logger
}

func NewAuthHandler(authSvc AuthService, usersSvc RegistrationService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authSvc, users: usersSvc, logger: logger}
}

// Register creates the profile and logs the new user straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}

	user, err := h.users.Register(r.Context(), users.RegisterInput{
		Username:     req.Username,
		Password:     req.Password,
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
		case errors.Is(err, users.ErrUsernameTaken):
			apierrors.Write(w, apierrors.Conflict("username already taken"))
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	result, err := h.auth.IssueForUser(r.Context(), user.Username)
	if err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, toAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			apierrors.Write(w, apierrors.Unauthorized())
			return
		}
		writeInternal(w, h.logger, err)
		return
	}

	result, err := h.auth.IssueForUser(r.Context(), user.Username)
	if err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			apierrors.Write(w, apierrors.Validation("refresh_token is required"))
		case errors.Is(err, auth.ErrRefreshNotFound), errors.Is(err, auth.ErrSessionNotFound):
			apierrors.Write(w, apierrors.Unauthorized())
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	if err := h.auth.Logout(r.Context(), identity.SID); err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusNoContent, nil)
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	if err := h.auth.LogoutAll(r.Context(), identity.Username); err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusNoContent, nil)
}

func toAuthResponse(result auth.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Username:      result.Username,
		AccessToken:   result.AccessToken,
		RefreshToken:  result.RefreshToken,
		AccessExpires: result.AccessExpires,
	}
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
