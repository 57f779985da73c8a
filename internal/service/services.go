// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// requests from the handlers, enforces the rules the database cannot
// express on its own (a username is free, a post's author exists), and
// calls the repositories through the UserStore and PostStore interfaces.
package service

import (
	"context"

	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/repository"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/rs/zerolog"
)

// UserStore is the user persistence the services need.
// Lookups that find nothing return an error wrapping pgx.ErrNoRows.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, username string) (*model.User, error)
}

// PostStore is the post persistence the services need.
type PostStore interface {
	ListPosts(ctx context.Context) ([]model.PostWithAuthor, error)
	ListPostsByUserID(ctx context.Context, userID int64) ([]model.PostWithAuthor, error)
	CreatePost(ctx context.Context, title, content string, userID int64) (*model.Post, error)
}

// CacheWarmEnqueuer schedules a background reload of a cached list.
// *job.JobService implements it, including as a nil pointer.
type CacheWarmEnqueuer interface {
	EnqueueCacheWarm(ctx context.Context, resource string) error
}

type Services struct {
	Users *UserService
	Posts *PostService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Users: NewUserService(repos.Users, s.Job, s.Logger),
		Posts: NewPostService(repos.Posts, repos.Users, s.Job, s.Logger),
	}
}

// enqueueWarm never fails the request: the write already happened and
// the next read reloads the list anyway.
func enqueueWarm(ctx context.Context, jobs CacheWarmEnqueuer, log *zerolog.Logger, resource string) {
	if jobs == nil {
		return
	}
	if err := jobs.EnqueueCacheWarm(ctx, resource); err != nil {
		log.Warn().Err(err).Str("resource", resource).Msg("failed to enqueue cache warm")
	}
}
