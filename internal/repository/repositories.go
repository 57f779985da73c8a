// Package repository handles all interactions with the database.
//
// It contains the raw SQL for users and posts and keeps the two list
// queries behind a Redis read-through cache, so the service layer never
// sees SQL or cache keys.
package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/go-blog/internal/lib/cache"
	"github.com/deppfellow/go-blog/internal/lib/job"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Cache keys of the list endpoints.
const (
	UsersCacheKey = "blog:users:all"
	PostsCacheKey = "blog:posts:all"
)

// DBTX is the subset of *pgxpool.Pool the repositories use. It is also
// satisfied by pgx.Tx and by pgxmock in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories is a container for all repository instances.
type Repositories struct {
	Users *UserRepository
	Posts *PostRepository
}

// NewRepositories builds the repositories on the server's pool. Caching is
// enabled only when the server has a redis client.
func NewRepositories(s *server.Server) *Repositories {
	c := cache.New(s.Redis, s.Config.Redis.CacheTTL, s.Logger)

	return &Repositories{
		Users: NewUserRepository(s.DB.Pool, c, s.Logger),
		Posts: NewPostRepository(s.DB.Pool, c, s.Logger),
	}
}

// Warm reloads one cached list from the database. It backs the cache:warm
// background task.
func (r *Repositories) Warm(ctx context.Context, resource string) error {
	switch resource {
	case job.ResourceUsers:
		return r.Users.RefreshCache(ctx)
	case job.ResourcePosts:
		return r.Posts.RefreshCache(ctx)
	default:
		return fmt.Errorf("unknown cache resource %q", resource)
	}
}

// invalidate drops a cached list after a write. A failure leaves a stale
// entry for at most the cache TTL, so it is logged, not returned.
func invalidate(ctx context.Context, c *cache.Cache, log *zerolog.Logger, key string) {
	if err := c.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to invalidate cache")
	}
}
