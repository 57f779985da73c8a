package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/go-blog/internal/lib/cache"
	"github.com/deppfellow/go-blog/internal/lib/job"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zerolog.Nop()
	return cache.New(rdb, time.Minute, &logger), mr
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

var (
	listUsersSQL = regexp.QuoteMeta(`SELECT id, username FROM users ORDER BY id`)
	listPostsSQL = regexp.QuoteMeta(`JOIN users u ON u.id = p.user_id ORDER BY p.id`)
)

func TestUserRepository_ListUsers(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, nil, nopLogger())

	mock.ExpectQuery(listUsersSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, users)
}

func TestUserRepository_ListUsers_EmptyIsNotNil(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, nil, nopLogger())

	mock.ExpectQuery(listUsersSQL).WillReturnRows(pgxmock.NewRows([]string{"id", "username"}))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_ListUsers_CachedUntilCreate(t *testing.T) {
	mock := newMock(t)
	c, mr := newRedisCache(t)
	repo := NewUserRepository(mock, c, nopLogger())
	ctx := context.Background()

	mock.ExpectQuery(listUsersSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(int64(1), "alice"))

	// Second read is served by redis: only one query is expected.
	for range 2 {
		users, err := repo.ListUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.User{{ID: 1, Username: "alice"}}, users)
	}
	assert.True(t, mr.Exists(UsersCacheKey))

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username) VALUES ($1) RETURNING id, username`)).
		WithArgs("bob").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(int64(2), "bob"))

	_, err := repo.CreateUser(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, mr.Exists(UsersCacheKey))

	mock.ExpectQuery(listUsersSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_GetUserByID(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, nil, nopLogger())
	query := regexp.QuoteMeta(`SELECT id, username FROM users WHERE id = $1`)

	mock.ExpectQuery(query).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(int64(1), "alice"))
	user, err := repo.GetUserByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &model.User{ID: 1, Username: "alice"}, user)

	mock.ExpectQuery(query).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetUserByID(context.Background(), 9)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Contains(t, err.Error(), sqlerr.TablePrefix+"users")
}

func TestUserRepository_GetUserByUsername(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, nil, nopLogger())
	query := regexp.QuoteMeta(`SELECT id, username FROM users WHERE username = $1`)

	mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepository_CreateUser_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, nil, nopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("alice").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.CreateUser(context.Background(), "alice")
	assert.True(t, sqlerr.Is(err, sqlerr.UniqueViolation, "users_username_key"))
}

func TestPostRepository_ListPosts(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock, nil, nopLogger())

	mock.ExpectQuery(listPostsSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "content", "id", "username"}).
			AddRow(int64(1), "Hello", "World", int64(7), "alice"))

	posts, err := repo.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.PostWithAuthor{{
		ID:      1,
		Title:   "Hello",
		Content: "World",
		Author:  model.Author{ID: 7, Username: "alice"},
	}}, posts)
}

func TestPostRepository_ListPostsByUserID(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock, nil, nopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.user_id = $1 ORDER BY p.id`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "content", "id", "username"}))

	posts, err := repo.ListPostsByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostRepository_CreatePost(t *testing.T) {
	mock := newMock(t)
	c, mr := newRedisCache(t)
	repo := NewPostRepository(mock, c, nopLogger())
	require.NoError(t, mr.Set(PostsCacheKey, "[]"))

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts (title, content, user_id)`)).
		WithArgs("Hello", "World", int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "content", "user_id"}).
			AddRow(int64(3), "Hello", "World", int64(7)))

	post, err := repo.CreatePost(context.Background(), "Hello", "World", 7)
	require.NoError(t, err)
	assert.Equal(t, &model.Post{ID: 3, Title: "Hello", Content: "World", UserID: 7}, post)
	assert.False(t, mr.Exists(PostsCacheKey))
}

func TestPostRepository_CreatePost_ForeignKeyViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock, nil, nopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts`)).
		WithArgs("Hello", "World", int64(99)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "posts_user_id_fkey"})

	_, err := repo.CreatePost(context.Background(), "Hello", "World", 99)
	assert.True(t, sqlerr.Is(err, sqlerr.ForeignKeyViolation, "posts_user_id_fkey"))
}

func TestRepositories_Warm(t *testing.T) {
	mock := newMock(t)
	c, mr := newRedisCache(t)
	log := nopLogger()
	repos := &Repositories{
		Users: NewUserRepository(mock, c, log),
		Posts: NewPostRepository(mock, c, log),
	}
	ctx := context.Background()

	mock.ExpectQuery(listUsersSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(int64(1), "alice"))
	require.NoError(t, repos.Warm(ctx, job.ResourceUsers))

	raw, err := mr.Get(UsersCacheKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"username":"alice"}]`, raw)

	mock.ExpectQuery(listPostsSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "content", "id", "username"}))
	require.NoError(t, repos.Warm(ctx, job.ResourcePosts))

	raw, err = mr.Get(PostsCacheKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, raw)

	assert.Error(t, repos.Warm(ctx, "comments"))
}
