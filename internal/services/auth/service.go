package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SessionStore is the redis-backed session ledger: one record per session
// ID plus a refresh-token index pointing back at it.
type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, username string) error
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Dependencies struct {
	Sessions SessionStore
	JWT      *JWTManager
}

type Service struct {
	sessions SessionStore
	jwt      *JWTManager
	cfg      Config
	now      func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}

	return &Service{
		sessions: deps.Sessions,
		jwt:      deps.JWT,
		cfg:      cfg,
		now:      time.Now,
	}
}

// IssueForUser opens a new session for an already-authenticated username and
// returns the access/refresh pair for it.
func (s *Service) IssueForUser(ctx context.Context, username string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return AuthResult{}, ErrInvalidInput
	}

	sid, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sid,
		Username:  username,
		ExpiresAt: s.now().UTC().Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, err
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(username, sid)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Username:      username,
	}, nil
}

// Refresh rotates the refresh token and mints a fresh access token for the
// session it belongs to.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, err
	}
	if !session.ExpiresAt.After(s.now().UTC()) {
		_ = s.sessions.DeleteSession(ctx, session.SID)
		return AuthResult{}, ErrRefreshNotFound
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.cfg.RefreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, expiresAt); err != nil {
		return AuthResult{}, err
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.Username, session.SID)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		Username:      session.Username,
	}, nil
}

// ValidateAccessToken checks the token signature and that the session behind
// it is still alive in redis, so a logout invalidates outstanding tokens.
func (s *Service) ValidateAccessToken(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(raw)
	if err != nil {
		return Identity{}, err
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if err == ErrSessionNotFound {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}
	if session.Username != claims.Username {
		return Identity{}, ErrUnauthorized
	}

	return Identity{Username: claims.Username, SID: claims.SID}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	return s.sessions.DeleteSession(ctx, sid)
}

func (s *Service) LogoutAll(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidInput
	}
	return s.sessions.DeleteAllForUser(ctx, username)
}
