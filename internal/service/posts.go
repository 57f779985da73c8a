package service

import (
	"context"
	"errors"

	"github.com/deppfellow/go-blog/internal/errs"
	"github.com/deppfellow/go-blog/internal/lib/job"
	"github.com/deppfellow/go-blog/internal/logger"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const postAuthorForeignKey = "posts_user_id_fkey"

type PostService struct {
	posts PostStore
	users UserStore
	jobs  CacheWarmEnqueuer
	log   *zerolog.Logger
}

func NewPostService(posts PostStore, users UserStore, jobs CacheWarmEnqueuer, log *zerolog.Logger) *PostService {
	return &PostService{posts: posts, users: users, jobs: jobs, log: log}
}

func errUserNotFound() *errs.HTTPError {
	return errs.NewNotFoundError("User not found", true, errs.Ptr(errs.CodeUserNotFound))
}

// requireUser maps a missing user to the 404 clients expect.
func (s *PostService) requireUser(ctx context.Context, userID int64) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errUserNotFound()
		}
		return err
	}
	return nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	return s.posts.ListPosts(ctx)
}

// ListPostsByUser returns the posts of an existing user.
func (s *PostService) ListPostsByUser(ctx context.Context, userID int64) ([]model.PostWithAuthor, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.ListPostsByUserID(ctx, userID)
}

// CreatePost checks that the author exists, then inserts. A user removed
// between the check and the insert trips the foreign key and is reported
// the same way.
func (s *PostService) CreatePost(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	log := logger.FromContext(ctx, s.log)
	userID := *req.UserID

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	post, err := s.posts.CreatePost(ctx, req.Title, req.Content, userID)
	if err != nil {
		if sqlerr.Is(err, sqlerr.ForeignKeyViolation, postAuthorForeignKey) {
			return nil, errUserNotFound()
		}
		return nil, err
	}

	log.Info().Int64("post_id", post.ID).Int64("user_id", userID).Msg("post created")
	enqueueWarm(ctx, s.jobs, log, job.ResourcePosts)

	return post, nil
}
