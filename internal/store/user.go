package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ecoforge/apiserver/types"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts the user in a single statement. The unique index on
// username is the only arbiter of duplicates: concurrent registrations
// of the same name resolve to exactly one success and ErrDuplicate for
// the rest.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}
