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

// usernameUniqueConstraint is the schema constraint behind the
// username check.
const usernameUniqueConstraint = "users_username_key"

type UserService struct {
	users UserStore
	jobs  CacheWarmEnqueuer
	log   *zerolog.Logger
}

func NewUserService(users UserStore, jobs CacheWarmEnqueuer, log *zerolog.Logger) *UserService {
	return &UserService{users: users, jobs: jobs, log: log}
}

func errUsernameTaken() *errs.HTTPError {
	return errs.NewConflictError("Username already exists", errs.Ptr(errs.CodeUserAlreadyExists))
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// CreateUser rejects a taken username before inserting. Two concurrent
// requests for the same name can both pass the check; the loser then
// fails on the unique constraint and gets the same error.
func (s *UserService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	log := logger.FromContext(ctx, s.log)

	_, err := s.users.GetUserByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, errUsernameTaken()
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, req.Username)
	if err != nil {
		if sqlerr.Is(err, sqlerr.UniqueViolation, usernameUniqueConstraint) {
			return nil, errUsernameTaken()
		}
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Msg("user created")
	enqueueWarm(ctx, s.jobs, log, job.ResourceUsers)

	return user, nil
}
