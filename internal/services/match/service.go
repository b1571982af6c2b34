package match

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("invalid decision payload")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfDecision = errors.New("cannot decide on yourself")
)

var zipCodeRe = regexp.MustCompile(`^\d{5}$`)

type ProfileStore interface {
	GetByUsername(ctx context.Context, username string) (postgres.UserRecord, error)
	Exists(ctx context.Context, username string) (bool, error)
	TouchLastSearch(ctx context.Context, username string, at time.Time) error
}

type CandidateStore interface {
	FindByLocationCodes(ctx context.Context, codes []string, excludeUsername, excludeViewedBy string) ([]postgres.CandidateRecord, error)
}

// RadiusProvider resolves a ZIP code and radius into the set of areas the
// radius covers.
type RadiusProvider interface {
	ZipCodesInRadius(ctx context.Context, originZip string, radius int) ([]model.Area, error)
}

type ViewStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, username, otherUsername string) error
	Upsert(ctx context.Context, tx pgx.Tx, viewingUsername, viewedUsername string, liked bool, now time.Time) error
	GetDecision(ctx context.Context, tx pgx.Tx, viewingUsername, viewedUsername string) (liked bool, found bool, err error)
}

type FriendshipStore interface {
	Create(ctx context.Context, tx pgx.Tx, username, otherUsername string) error
}

type RateLimiter interface {
	AllowDecision(ctx context.Context, username string) error
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Config struct {
	MaxRadiusMiles int
}

type Dependencies struct {
	Profiles    ProfileStore
	Candidates  CandidateStore
	Radius      RadiusProvider
	Views       ViewStore
	Friendships FriendshipStore
	Limiter     RateLimiter
	Tx          TxRunner
	Logger      *zap.Logger
}

type Service struct {
	profiles    ProfileStore
	candidates  CandidateStore
	radius      RadiusProvider
	views       ViewStore
	friendships FriendshipStore
	limiter     RateLimiter
	tx          TxRunner
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxRadiusMiles <= 0 {
		cfg.MaxRadiusMiles = 250
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		profiles:    deps.Profiles,
		candidates:  deps.Candidates,
		radius:      deps.Radius,
		views:       deps.Views,
		friendships: deps.Friendships,
		limiter:     deps.Limiter,
		tx:          deps.Tx,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// DiscoverCandidates returns profiles inside the viewing user's radius that
// they have not yet decided on. A non-empty originOverride searches from
// that ZIP code instead of the stored profile location, and
// radiusOverride > 0 replaces the stored friend radius; both apply to this
// search only and never mutate the profile.
func (s *Service) DiscoverCandidates(ctx context.Context, username, originOverride string, radiusOverride int) ([]model.Candidate, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrValidation
	}

	user, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	origin := user.Location
	if originOverride != "" {
		if !zipCodeRe.MatchString(originOverride) {
			return nil, fmt.Errorf("%w: location must be a 5-digit ZIP code", ErrValidation)
		}
		origin = originOverride
	}

	radius := user.FriendRadius
	if radiusOverride > 0 {
		radius = radiusOverride
	}
	if radius < 1 || radius > s.cfg.MaxRadiusMiles {
		return nil, fmt.Errorf("%w: radius must be between 1 and %d miles", ErrValidation, s.cfg.MaxRadiusMiles)
	}

	areas, err := s.radius.ZipCodesInRadius(ctx, origin, radius)
	if err != nil {
		return nil, err
	}

	areaByCode := make(map[string]model.Area, len(areas))
	codes := make([]string, 0, len(areas))
	for _, area := range areas {
		if _, ok := areaByCode[area.ZipCode]; ok {
			continue
		}
		areaByCode[area.ZipCode] = area
		codes = append(codes, area.ZipCode)
	}

	candidates := []model.Candidate{}
	if len(codes) > 0 {
		recs, err := s.candidates.FindByLocationCodes(ctx, codes, username, username)
		if err != nil {
			return nil, err
		}

		candidates = make([]model.Candidate, 0, len(recs))
		for _, rec := range recs {
			area, ok := areaByCode[rec.Location]
			if !ok {
				// A candidate row outside the resolved area set means the
				// query and the provider disagree; drop it rather than
				// report a bogus distance.
				s.logger.Warn("candidate location missing from radius result",
					zap.String("candidate", rec.Username),
					zap.String("location", rec.Location))
				continue
			}
			candidates = append(candidates, model.Candidate{
				Username:  rec.Username,
				FirstName: rec.FirstName,
				LastName:  rec.LastName,
				Hobbies:   rec.Hobbies,
				Interests: rec.Interests,
				PhotoURL:  rec.PhotoURL,
				Area:      area,
			})
		}
	}

	if err := s.profiles.TouchLastSearch(ctx, username, s.now().UTC()); err != nil {
		s.logger.Warn("touch last search", zap.String("username", username), zap.Error(err))
	}

	return candidates, nil
}

// RecordDecision stores a like/pass for the ordered pair and reports whether
// it completed a mutual match. A repeat decision overwrites the stored one.
// Matched is true whenever both directions currently hold liked=true; the
// friendship insert is idempotent, so replays converge on a single
// friendship row. The transaction serializes on the unordered pair, so of
// two simultaneous reciprocal likes the second always observes the first
// and at least one call reports matched.
func (s *Service) RecordDecision(ctx context.Context, viewingUsername, viewedUsername string, liked bool) (matched bool, err error) {
	viewingUsername = strings.TrimSpace(viewingUsername)
	viewedUsername = strings.TrimSpace(viewedUsername)
	if viewingUsername == "" || viewedUsername == "" {
		return false, ErrValidation
	}
	if viewingUsername == viewedUsername {
		return false, ErrSelfDecision
	}

	for _, username := range []string{viewingUsername, viewedUsername} {
		exists, err := s.profiles.Exists(ctx, username)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, ErrUserNotFound
		}
	}

	if s.limiter != nil {
		if err := s.limiter.AllowDecision(ctx, viewingUsername); err != nil {
			return false, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.views.LockPair(ctx, tx, viewingUsername, viewedUsername); err != nil {
			return err
		}
		if err := s.views.Upsert(ctx, tx, viewingUsername, viewedUsername, liked, s.now().UTC()); err != nil {
			return err
		}
		if !liked {
			return nil
		}

		reciprocalLiked, found, err := s.views.GetDecision(ctx, tx, viewedUsername, viewingUsername)
		if err != nil {
			return err
		}
		if !found || !reciprocalLiked {
			return nil
		}

		if err := s.friendships.Create(ctx, tx, viewingUsername, viewedUsername); err != nil {
			return err
		}
		matched = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if matched {
		s.logger.Info("mutual match",
			zap.String("username", viewingUsername),
			zap.String("other", viewedUsername))
	}

	return matched, nil
}
