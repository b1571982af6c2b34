package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

type ViewEventRecord struct {
	ViewingUsername string
	ViewedUsername  string
	Liked           bool
	CreatedAt       time.Time
}

// LockPair takes a transaction-scoped advisory lock on the unordered pair.
// Reciprocal decision transactions serialize on it, so two simultaneous
// likes cannot both read the other direction before the peer commits and
// lose the match.
func (r *ViewRepo) LockPair(ctx context.Context, tx pgx.Tx, username, otherUsername string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(otherUsername) == "" {
		return fmt.Errorf("invalid view lock payload")
	}

	userA, userB := username, otherUsername
	if userA > userB {
		userA, userB = userB, userA
	}

	if _, err := tx.Exec(ctx, `
SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
`, userA+":"+userB); err != nil {
		return fmt.Errorf("lock decision pair: %w", err)
	}

	return nil
}

// Upsert records a view event. A repeat observation for the same ordered
// pair overwrites the stored decision.
func (r *ViewRepo) Upsert(ctx context.Context, tx pgx.Tx, viewingUsername, viewedUsername string, liked bool, now time.Time) error {
	if strings.TrimSpace(viewingUsername) == "" || strings.TrimSpace(viewedUsername) == "" {
		return fmt.Errorf("invalid view payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO view_events (
	viewing_username,
	viewed_username,
	liked,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (viewing_username, viewed_username) DO UPDATE SET
	liked = EXCLUDED.liked,
	created_at = EXCLUDED.created_at
`, viewingUsername, viewedUsername, liked, now.UTC()); err != nil {
		return fmt.Errorf("upsert view event: %w", err)
	}

	return nil
}

// GetDecision returns the stored decision for the ordered pair, with found
// reporting whether a view event exists at all.
func (r *ViewRepo) GetDecision(ctx context.Context, tx pgx.Tx, viewingUsername, viewedUsername string) (liked bool, found bool, err error) {
	if strings.TrimSpace(viewingUsername) == "" || strings.TrimSpace(viewedUsername) == "" {
		return false, false, fmt.Errorf("invalid view lookup payload")
	}
	if tx == nil {
		return false, false, fmt.Errorf("transaction is required")
	}

	err = tx.QueryRow(ctx, `
SELECT liked
FROM view_events
WHERE viewing_username = $1 AND viewed_username = $2
`, viewingUsername, viewedUsername).Scan(&liked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("get view decision: %w", err)
	}

	return liked, true, nil
}

func (r *ViewRepo) DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM view_events
WHERE viewing_username = $1 OR viewed_username = $1
`, username); err != nil {
		return fmt.Errorf("delete view events for user: %w", err)
	}

	return nil
}
