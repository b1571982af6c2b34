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

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

type UserRecord struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Hobbies      []string
	Interests    []string
	Location     string
	FriendRadius int
	PhotoURL     *string
	LastSearchAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserSummaryRecord struct {
	Username  string
	FirstName string
	LastName  string
	PhotoURL  *string
}

type CandidateRecord struct {
	Username  string
	FirstName string
	LastName  string
	Hobbies   []string
	Interests []string
	Location  string
	PhotoURL  *string
}

// UserUpdate carries the explicit optional fields of a partial profile
// update. Nil pointers leave the stored column untouched.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	Hobbies      *[]string
	Interests    *[]string
	Location     *string
	FriendRadius *int
}

func (u UserUpdate) Empty() bool {
	return u.FirstName == nil &&
		u.LastName == nil &&
		u.Hobbies == nil &&
		u.Interests == nil &&
		u.Location == nil &&
		u.FriendRadius == nil
}

func (r *UserRepo) Create(ctx context.Context, rec UserRecord) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(rec.Username) == "" || rec.PasswordHash == "" {
		return UserRecord{}, fmt.Errorf("invalid user payload")
	}

	var out UserRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (
	username,
	password_hash,
	first_name,
	last_name,
	hobbies,
	interests,
	location,
	friend_radius,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING username, password_hash, first_name, last_name, hobbies, interests,
	location, friend_radius, photo_url, last_search_at, created_at, updated_at
`, rec.Username, rec.PasswordHash, rec.FirstName, rec.LastName, rec.Hobbies,
		rec.Interests, rec.Location, rec.FriendRadius).Scan(
		&out.Username,
		&out.PasswordHash,
		&out.FirstName,
		&out.LastName,
		&out.Hobbies,
		&out.Interests,
		&out.Location,
		&out.FriendRadius,
		&out.PhotoURL,
		&out.LastSearchAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return UserRecord{}, ErrUsernameTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return out, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" {
		return UserRecord{}, fmt.Errorf("username is required")
	}

	var out UserRecord
	err := r.pool.QueryRow(ctx, `
SELECT username, password_hash, first_name, last_name, hobbies, interests,
	location, friend_radius, photo_url, last_search_at, created_at, updated_at
FROM users
WHERE username = $1
`, username).Scan(
		&out.Username,
		&out.PasswordHash,
		&out.FirstName,
		&out.LastName,
		&out.Hobbies,
		&out.Interests,
		&out.Location,
		&out.FriendRadius,
		&out.PhotoURL,
		&out.LastSearchAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("get user by username: %w", err)
	}

	return out, nil
}

func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" {
		return false, nil
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM users
WHERE username = $1
LIMIT 1
`, username).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return true, nil
}

func (r *UserRepo) List(ctx context.Context) ([]UserSummaryRecord, error) {
	if r.pool == nil {
		return []UserSummaryRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT username, first_name, last_name, photo_url
FROM users
ORDER BY username
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]UserSummaryRecord, 0, 64)
	for rows.Next() {
		var rec UserSummaryRecord
		if err := rows.Scan(&rec.Username, &rec.FirstName, &rec.LastName, &rec.PhotoURL); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate users: %w", rows.Err())
	}

	return items, nil
}

// FindByLocationCodes returns candidate profiles whose home ZIP code is in
// codes, excluding the viewing user and every username the viewing user has
// already recorded a view event for.
func (r *UserRepo) FindByLocationCodes(ctx context.Context, codes []string, excludeUsername, excludeViewedBy string) ([]CandidateRecord, error) {
	if r.pool == nil {
		return []CandidateRecord{}, nil
	}
	if len(codes) == 0 {
		return []CandidateRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT u.username, u.first_name, u.last_name, u.hobbies, u.interests, u.location, u.photo_url
FROM users u
WHERE
	u.location = ANY($1)
	AND u.username <> $2
	AND NOT EXISTS (
		SELECT 1
		FROM view_events v
		WHERE v.viewing_username = $3
			AND v.viewed_username = u.username
	)
ORDER BY u.username
`, codes, excludeUsername, excludeViewedBy)
	if err != nil {
		return nil, fmt.Errorf("find users by location codes: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateRecord, 0, 32)
	for rows.Next() {
		var rec CandidateRecord
		if err := rows.Scan(
			&rec.Username,
			&rec.FirstName,
			&rec.LastName,
			&rec.Hobbies,
			&rec.Interests,
			&rec.Location,
			&rec.PhotoURL,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, username string, update UserUpdate) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" {
		return UserRecord{}, fmt.Errorf("username is required")
	}
	if update.Empty() {
		return r.GetByUsername(ctx, username)
	}

	setClauses := make([]string, 0, 6)
	args := make([]any, 0, 7)
	args = append(args, username)

	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.FirstName != nil {
		addSet("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		addSet("last_name", *update.LastName)
	}
	if update.Hobbies != nil {
		addSet("hobbies", *update.Hobbies)
	}
	if update.Interests != nil {
		addSet("interests", *update.Interests)
	}
	if update.Location != nil {
		addSet("location", *update.Location)
	}
	if update.FriendRadius != nil {
		addSet("friend_radius", *update.FriendRadius)
	}

	query := fmt.Sprintf(`
UPDATE users
SET %s, updated_at = NOW()
WHERE username = $1
RETURNING username, password_hash, first_name, last_name, hobbies, interests,
	location, friend_radius, photo_url, last_search_at, created_at, updated_at
`, strings.Join(setClauses, ", "))

	var out UserRecord
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&out.Username,
		&out.PasswordHash,
		&out.FirstName,
		&out.LastName,
		&out.Hobbies,
		&out.Interests,
		&out.Location,
		&out.FriendRadius,
		&out.PhotoURL,
		&out.LastSearchAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("update user profile: %w", err)
	}

	return out, nil
}

func (r *UserRepo) SetPhotoURL(ctx context.Context, username, photoURL string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(photoURL) == "" {
		return fmt.Errorf("invalid photo payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET photo_url = $2, updated_at = NOW()
WHERE username = $1
`, username, photoURL)
	if err != nil {
		return fmt.Errorf("set user photo url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) TouchLastSearch(ctx context.Context, username string, at time.Time) error {
	if r.pool == nil {
		return nil
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET last_search_at = $2, updated_at = NOW()
WHERE username = $1
`, username, at.UTC()); err != nil {
		return fmt.Errorf("touch last search: %w", err)
	}

	return nil
}

func (r *UserRepo) DeleteTx(ctx context.Context, tx pgx.Tx, username string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM users
WHERE username = $1
`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
