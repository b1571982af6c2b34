package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipRepo struct {
	pool *pgxpool.Pool
}

func NewFriendshipRepo(pool *pgxpool.Pool) *FriendshipRepo {
	return &FriendshipRepo{pool: pool}
}

type FriendRecord struct {
	Username  string
	FirstName string
	LastName  string
	PhotoURL  *string
}

// Create stores the unordered pair canonically (username_a < username_b).
// Inserting an already-present pair is a no-op, which makes mutual-match
// creation idempotent under concurrent reciprocal decisions.
func (r *FriendshipRepo) Create(ctx context.Context, tx pgx.Tx, username, otherUsername string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(otherUsername) == "" || username == otherUsername {
		return fmt.Errorf("invalid friendship payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	userA, userB := username, otherUsername
	if userA > userB {
		userA, userB = userB, userA
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO friendships (
	username_a,
	username_b,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (username_a, username_b) DO NOTHING
`, userA, userB); err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}

	return nil
}

func (r *FriendshipRepo) Exists(ctx context.Context, username, otherUsername string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(otherUsername) == "" {
		return false, fmt.Errorf("invalid friendship lookup payload")
	}

	userA, userB := username, otherUsername
	if userA > userB {
		userA, userB = userB, userA
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM friendships
WHERE username_a = $1 AND username_b = $2
LIMIT 1
`, userA, userB).Scan(&one)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check friendship exists: %w", err)
	}

	return true, nil
}

// ListFriendProfiles returns the profile summary of every user paired with
// username in either position of a stored friendship.
func (r *FriendshipRepo) ListFriendProfiles(ctx context.Context, username string) ([]FriendRecord, error) {
	if r.pool == nil {
		return []FriendRecord{}, nil
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username is required")
	}

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT u.username, u.first_name, u.last_name, u.photo_url
FROM friendships f
JOIN users u ON u.username = CASE
	WHEN f.username_a = $1 THEN f.username_b
	ELSE f.username_a
END
WHERE f.username_a = $1 OR f.username_b = $1
ORDER BY u.username
`, username)
	if err != nil {
		return nil, fmt.Errorf("list friend profiles: %w", err)
	}
	defer rows.Close()

	items := make([]FriendRecord, 0, 16)
	for rows.Next() {
		var rec FriendRecord
		if err := rows.Scan(&rec.Username, &rec.FirstName, &rec.LastName, &rec.PhotoURL); err != nil {
			return nil, fmt.Errorf("scan friend profile: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate friend profiles: %w", rows.Err())
	}

	return items, nil
}

func (r *FriendshipRepo) DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM friendships
WHERE username_a = $1 OR username_b = $1
`, username); err != nil {
		return fmt.Errorf("delete friendships for user: %w", err)
	}

	return nil
}
