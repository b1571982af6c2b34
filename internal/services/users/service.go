package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("invalid profile payload")
	ErrNotFound       = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrBadCredentials = errors.New("bad credentials")
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	zipCodeRe  = regexp.MustCompile(`^\d{5}$`)
)

const bcryptCost = 12

type ProfileStore interface {
	Create(ctx context.Context, rec postgres.UserRecord) (postgres.UserRecord, error)
	GetByUsername(ctx context.Context, username string) (postgres.UserRecord, error)
	Exists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]postgres.UserSummaryRecord, error)
	UpdateProfile(ctx context.Context, username string, update postgres.UserUpdate) (postgres.UserRecord, error)
	SetPhotoURL(ctx context.Context, username, photoURL string) error
	DeleteTx(ctx context.Context, tx pgx.Tx, username string) error
}

type ViewCleaner interface {
	DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error
}

type FriendshipCleaner interface {
	DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error
}

type MessageCleaner interface {
	DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error
}

// SessionRevoker invalidates every live session of a deleted account.
type SessionRevoker interface {
	DeleteAllForUser(ctx context.Context, username string) error
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Config struct {
	MaxRadiusMiles     int
	DefaultRadiusMiles int
}

type Dependencies struct {
	Profiles    ProfileStore
	Views       ViewCleaner
	Friendships FriendshipCleaner
	Messages    MessageCleaner
	Sessions    SessionRevoker
	Tx          TxRunner
	Logger      *zap.Logger
}

type Service struct {
	profiles    ProfileStore
	views       ViewCleaner
	friendships FriendshipCleaner
	messages    MessageCleaner
	sessions    SessionRevoker
	tx          TxRunner
	cfg         Config
	logger      *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxRadiusMiles <= 0 {
		cfg.MaxRadiusMiles = 250
	}
	if cfg.DefaultRadiusMiles <= 0 {
		cfg.DefaultRadiusMiles = 25
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		profiles:    deps.Profiles,
		views:       deps.Views,
		friendships: deps.Friendships,
		messages:    deps.Messages,
		sessions:    deps.Sessions,
		tx:          deps.Tx,
		cfg:         cfg,
		logger:      logger,
	}
}

type RegisterInput struct {
	Username     string
	Password     string
	FirstName    string
	LastName     string
	Hobbies      []string
	Interests    []string
	Location     string
	FriendRadius int
}

type UpdateInput struct {
	FirstName    *string
	LastName     *string
	Hobbies      *[]string
	Interests    *[]string
	Location     *string
	FriendRadius *int
}

func (i UpdateInput) empty() bool {
	return i.FirstName == nil &&
		i.LastName == nil &&
		i.Hobbies == nil &&
		i.Interests == nil &&
		i.Location == nil &&
		i.FriendRadius == nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Location = strings.TrimSpace(input.Location)

	if !usernameRe.MatchString(input.Username) {
		return model.User{}, fmt.Errorf("%w: username must be 3-30 word characters", ErrValidation)
	}
	if len(input.Password) < 8 {
		return model.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" {
		return model.User{}, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if !zipCodeRe.MatchString(input.Location) {
		return model.User{}, fmt.Errorf("%w: location must be a 5-digit ZIP code", ErrValidation)
	}
	if input.FriendRadius == 0 {
		input.FriendRadius = s.cfg.DefaultRadiusMiles
	}
	if input.FriendRadius < 1 || input.FriendRadius > s.cfg.MaxRadiusMiles {
		return model.User{}, fmt.Errorf("%w: friend radius must be between 1 and %d miles", ErrValidation, s.cfg.MaxRadiusMiles)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	rec, err := s.profiles.Create(ctx, postgres.UserRecord{
		Username:     input.Username,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Hobbies:      normalizeTags(input.Hobbies),
		Interests:    normalizeTags(input.Interests),
		Location:     input.Location,
		FriendRadius: input.FriendRadius,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrUsernameTaken) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, err
	}

	s.logger.Info("user registered", zap.String("username", rec.Username))
	return toUser(rec), nil
}

// Authenticate verifies the password and never reveals whether the username
// or the password was the wrong half.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrBadCredentials
	}

	rec, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return model.User{}, ErrBadCredentials
		}
		return model.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return model.User{}, ErrBadCredentials
	}

	return toUser(rec), nil
}

func (s *Service) Get(ctx context.Context, username string) (model.User, error) {
	rec, err := s.profiles.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return toUser(rec), nil
}

func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	return s.profiles.Exists(ctx, strings.TrimSpace(username))
}

func (s *Service) List(ctx context.Context) ([]model.UserSummary, error) {
	recs, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.UserSummary, 0, len(recs))
	for _, rec := range recs {
		items = append(items, model.UserSummary{
			Username:  rec.Username,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			PhotoURL:  rec.PhotoURL,
		})
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, username string, input UpdateInput) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, ErrValidation
	}
	if input.empty() {
		return s.Get(ctx, username)
	}

	update := postgres.UserUpdate{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: first name cannot be empty", ErrValidation)
		}
		update.FirstName = &name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: last name cannot be empty", ErrValidation)
		}
		update.LastName = &name
	}
	if input.Hobbies != nil {
		hobbies := normalizeTags(*input.Hobbies)
		update.Hobbies = &hobbies
	}
	if input.Interests != nil {
		interests := normalizeTags(*input.Interests)
		update.Interests = &interests
	}
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		if !zipCodeRe.MatchString(location) {
			return model.User{}, fmt.Errorf("%w: location must be a 5-digit ZIP code", ErrValidation)
		}
		update.Location = &location
	}
	if input.FriendRadius != nil {
		radius := *input.FriendRadius
		if radius < 1 || radius > s.cfg.MaxRadiusMiles {
			return model.User{}, fmt.Errorf("%w: friend radius must be between 1 and %d miles", ErrValidation, s.cfg.MaxRadiusMiles)
		}
		update.FriendRadius = &radius
	}

	rec, err := s.profiles.UpdateProfile(ctx, username, update)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}

	return toUser(rec), nil
}

func (s *Service) SetPhotoURL(ctx context.Context, username, photoURL string) error {
	err := s.profiles.SetPhotoURL(ctx, strings.TrimSpace(username), photoURL)
	if errors.Is(err, postgres.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete removes the account and everything keyed to it in one transaction:
// view events, friendships, messages, then the profile row. Live sessions
// are revoked after the commit.
func (s *Service) Delete(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrValidation
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.views.DeleteAllForUser(ctx, tx, username); err != nil {
			return err
		}
		if err := s.friendships.DeleteAllForUser(ctx, tx, username); err != nil {
			return err
		}
		if err := s.messages.DeleteAllForUser(ctx, tx, username); err != nil {
			return err
		}
		return s.profiles.DeleteTx(ctx, tx, username)
	})
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteAllForUser(ctx, username); err != nil {
			s.logger.Warn("revoke sessions after account delete",
				zap.String("username", username),
				zap.Error(err))
		}
	}

	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func toUser(rec postgres.UserRecord) model.User {
	return model.User{
		Username:     rec.Username,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Hobbies:      rec.Hobbies,
		Interests:    rec.Interests,
		Location:     rec.Location,
		FriendRadius: rec.FriendRadius,
		PhotoURL:     rec.PhotoURL,
		LastSearchAt: rec.LastSearchAt,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
