package friends

import (
	"context"
	"errors"
	"strings"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/repo/postgres"
)

var ErrUserNotFound = errors.New("user not found")

type FriendshipStore interface {
	ListFriendProfiles(ctx context.Context, username string) ([]postgres.FriendRecord, error)
	Exists(ctx context.Context, username, otherUsername string) (bool, error)
}

type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	friendships FriendshipStore
	users       UserChecker
}

func NewService(friendships FriendshipStore, users UserChecker) *Service {
	return &Service{friendships: friendships, users: users}
}

// ListFriends returns every user the given username holds a friendship with.
// The result is deduplicated by username in case the store returns the same
// counterpart through both pair positions.
func (s *Service) ListFriends(ctx context.Context, username string) ([]model.UserSummary, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}

	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	recs, err := s.friendships.ListFriendProfiles(ctx, username)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(recs))
	items := make([]model.UserSummary, 0, len(recs))
	for _, rec := range recs {
		if _, ok := seen[rec.Username]; ok {
			continue
		}
		seen[rec.Username] = struct{}{}
		items = append(items, model.UserSummary{
			Username:  rec.Username,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			PhotoURL:  rec.PhotoURL,
		})
	}

	return items, nil
}

// AreFriends reports whether a stored friendship pairs the two usernames.
func (s *Service) AreFriends(ctx context.Context, username, otherUsername string) (bool, error) {
	username = strings.TrimSpace(username)
	otherUsername = strings.TrimSpace(otherUsername)
	if username == "" || otherUsername == "" || username == otherUsername {
		return false, nil
	}
	return s.friendships.Exists(ctx, username, otherUsername)
}
