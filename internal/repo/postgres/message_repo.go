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

var ErrMessageNotFound = errors.New("message not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

type MessageRecord struct {
	ID           int64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time
}

// ThreadMessageRecord is a message joined with the counterpart's name for
// the per-user inbox/outbox listings.
type ThreadMessageRecord struct {
	ID                   int64
	CounterpartUsername  string
	CounterpartFirstName string
	CounterpartLastName  string
	Body                 string
	SentAt               time.Time
	ReadAt               *time.Time
}

func (r *MessageRepo) Create(ctx context.Context, fromUsername, toUsername, body string) (MessageRecord, error) {
	if r.pool == nil {
		return MessageRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(fromUsername) == "" || strings.TrimSpace(toUsername) == "" || strings.TrimSpace(body) == "" {
		return MessageRecord{}, fmt.Errorf("invalid message payload")
	}

	var rec MessageRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO messages (
	from_username,
	to_username,
	body,
	sent_at
) VALUES ($1, $2, $3, NOW())
RETURNING id, from_username, to_username, body, sent_at, read_at
`, fromUsername, toUsername, body).Scan(
		&rec.ID,
		&rec.FromUsername,
		&rec.ToUsername,
		&rec.Body,
		&rec.SentAt,
		&rec.ReadAt,
	)
	if err != nil {
		return MessageRecord{}, fmt.Errorf("create message: %w", err)
	}

	return rec, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (MessageRecord, error) {
	if r.pool == nil {
		return MessageRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return MessageRecord{}, fmt.Errorf("invalid message id")
	}

	var rec MessageRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, from_username, to_username, body, sent_at, read_at
FROM messages
WHERE id = $1
`, id).Scan(
		&rec.ID,
		&rec.FromUsername,
		&rec.ToUsername,
		&rec.Body,
		&rec.SentAt,
		&rec.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MessageRecord{}, ErrMessageNotFound
		}
		return MessageRecord{}, fmt.Errorf("get message by id: %w", err)
	}

	return rec, nil
}

// MarkRead sets read_at once. A repeat call leaves the original timestamp
// and returns the stored record.
func (r *MessageRepo) MarkRead(ctx context.Context, id int64) (MessageRecord, error) {
	if r.pool == nil {
		return MessageRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return MessageRecord{}, fmt.Errorf("invalid message id")
	}

	var rec MessageRecord
	err := r.pool.QueryRow(ctx, `
UPDATE messages
SET read_at = NOW()
WHERE id = $1 AND read_at IS NULL
RETURNING id, from_username, to_username, body, sent_at, read_at
`, id).Scan(
		&rec.ID,
		&rec.FromUsername,
		&rec.ToUsername,
		&rec.Body,
		&rec.SentAt,
		&rec.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByID(ctx, id)
		}
		return MessageRecord{}, fmt.Errorf("mark message read: %w", err)
	}

	return rec, nil
}

func (r *MessageRepo) ListTo(ctx context.Context, username string) ([]ThreadMessageRecord, error) {
	return r.listThread(ctx, username, `
SELECT m.id, m.from_username, u.first_name, u.last_name, m.body, m.sent_at, m.read_at
FROM messages m
JOIN users u ON u.username = m.from_username
WHERE m.to_username = $1
ORDER BY m.sent_at DESC, m.id DESC
`)
}

func (r *MessageRepo) ListFrom(ctx context.Context, username string) ([]ThreadMessageRecord, error) {
	return r.listThread(ctx, username, `
SELECT m.id, m.to_username, u.first_name, u.last_name, m.body, m.sent_at, m.read_at
FROM messages m
JOIN users u ON u.username = m.to_username
WHERE m.from_username = $1
ORDER BY m.sent_at DESC, m.id DESC
`)
}

func (r *MessageRepo) listThread(ctx context.Context, username, query string) ([]ThreadMessageRecord, error) {
	if r.pool == nil {
		return []ThreadMessageRecord{}, nil
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username is required")
	}

	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]ThreadMessageRecord, 0, 32)
	for rows.Next() {
		var rec ThreadMessageRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CounterpartUsername,
			&rec.CounterpartFirstName,
			&rec.CounterpartLastName,
			&rec.Body,
			&rec.SentAt,
			&rec.ReadAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

func (r *MessageRepo) DeleteAllForUser(ctx context.Context, tx pgx.Tx, username string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM messages
WHERE from_username = $1 OR to_username = $1
`, username); err != nil {
		return fmt.Errorf("delete messages for user: %w", err)
	}

	return nil
}
