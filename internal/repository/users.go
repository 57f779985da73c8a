package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/go-blog/internal/lib/cache"
	"github.com/deppfellow/go-blog/internal/logger"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type UserRepository struct {
	db    DBTX
	cache *cache.Cache
	log   *zerolog.Logger
}

func NewUserRepository(db DBTX, c *cache.Cache, log *zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, cache: c, log: log}
}

// errUserNotFound lets sqlerr.HandleError name the entity in the 404.
var errUserNotFound = fmt.Errorf("%susers: %w", sqlerr.TablePrefix, pgx.ErrNoRows)

func scanUser(row pgx.CollectableRow) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username)
	return u, err
}

// ListUsers returns every user ordered by id, from the cache when possible.
func (r *UserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	return cache.GetOrLoad(ctx, r.cache, UsersCacheKey, r.listUsers)
}

func (r *UserRepository) listUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to collect users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// RefreshCache reloads the user list from the database into the cache.
func (r *UserRepository) RefreshCache(ctx context.Context) error {
	users, err := r.listUsers(ctx)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, UsersCacheKey, users)
}

// GetUserByID returns an error wrapping pgx.ErrNoRows when no user has id.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx, `SELECT id, username FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByUsername returns an error wrapping pgx.ErrNoRows when the
// username is free.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx, `SELECT id, username FROM users WHERE username = $1`, username).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user. A taken username surfaces as a
// *pgconn.PgError with code 23505 on users_username_key.
func (r *UserRepository) CreateUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING id, username`,
		username,
	).Scan(&u.ID, &u.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	invalidate(ctx, r.cache, logger.FromContext(ctx, r.log), UsersCacheKey)
	return &u, nil
}
