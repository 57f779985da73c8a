package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/go-blog/internal/lib/cache"
	"github.com/deppfellow/go-blog/internal/logger"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type PostRepository struct {
	db    DBTX
	cache *cache.Cache
	log   *zerolog.Logger
}

func NewPostRepository(db DBTX, c *cache.Cache, log *zerolog.Logger) *PostRepository {
	return &PostRepository{db: db, cache: c, log: log}
}

const selectPostsWithAuthor = `
	SELECT p.id, p.title, p.content, u.id, u.username
	FROM posts p
	JOIN users u ON u.id = p.user_id`

func scanPostWithAuthor(row pgx.CollectableRow) (model.PostWithAuthor, error) {
	var p model.PostWithAuthor
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author.ID, &p.Author.Username)
	return p, err
}

func (r *PostRepository) queryPosts(ctx context.Context, sql string, args ...any) ([]model.PostWithAuthor, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, scanPostWithAuthor)
	if err != nil {
		return nil, fmt.Errorf("failed to collect posts: %w", err)
	}
	if posts == nil {
		posts = []model.PostWithAuthor{}
	}
	return posts, nil
}

// ListPosts returns every post with its author, ordered by post id, from
// the cache when possible.
func (r *PostRepository) ListPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	return cache.GetOrLoad(ctx, r.cache, PostsCacheKey, r.listPosts)
}

func (r *PostRepository) listPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	return r.queryPosts(ctx, selectPostsWithAuthor+` ORDER BY p.id`)
}

// ListPostsByUserID returns the posts written by one user. It is not
// cached. An unknown user yields an empty list, not an error.
func (r *PostRepository) ListPostsByUserID(ctx context.Context, userID int64) ([]model.PostWithAuthor, error) {
	return r.queryPosts(ctx, selectPostsWithAuthor+` WHERE p.user_id = $1 ORDER BY p.id`, userID)
}

// RefreshCache reloads the post list from the database into the cache.
func (r *PostRepository) RefreshCache(ctx context.Context) error {
	posts, err := r.listPosts(ctx)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, PostsCacheKey, posts)
}

// CreatePost inserts a post. A user_id without a user surfaces as a
// *pgconn.PgError with code 23503 on posts_user_id_fkey.
func (r *PostRepository) CreatePost(ctx context.Context, title, content string, userID int64) (*model.Post, error) {
	var p model.Post
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3) RETURNING id, title, content, user_id`,
		title, content, userID,
	).Scan(&p.ID, &p.Title, &p.Content, &p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	invalidate(ctx, r.cache, logger.FromContext(ctx, r.log), PostsCacheKey)
	return &p, nil
}
