package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/go-blog/internal/config"
	"github.com/deppfellow/go-blog/internal/handler"
	"github.com/deppfellow/go-blog/internal/middleware"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blogStore is an in-memory service.UserStore and service.PostStore.
type blogStore struct {
	mu    sync.Mutex
	users []model.User
	posts []model.Post
}

func (b *blogStore) ListUsers(context.Context) ([]model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.User{}, b.users...), nil
}

func (b *blogStore) find(match func(model.User) bool) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("users: %w", pgx.ErrNoRows)
}

func (b *blogStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return b.find(func(u model.User) bool { return u.ID == id })
}

func (b *blogStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return b.find(func(u model.User) bool { return u.Username == username })
}

func (b *blogStore) CreateUser(_ context.Context, username string) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := model.User{ID: int64(len(b.users) + 1), Username: username}
	b.users = append(b.users, u)
	return &u, nil
}

func (b *blogStore) ListPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	return b.ListPostsByUserID(ctx, 0)
}

// ListPostsByUserID lists every post when userID is 0.
func (b *blogStore) ListPostsByUserID(_ context.Context, userID int64) ([]model.PostWithAuthor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.PostWithAuthor{}
	for _, p := range b.posts {
		if userID != 0 && p.UserID != userID {
			continue
		}
		author := b.users[p.UserID-1]
		out = append(out, model.PostWithAuthor{
			ID:      p.ID,
			Title:   p.Title,
			Content: p.Content,
			Author:  model.Author{ID: author.ID, Username: author.Username},
		})
	}
	return out, nil
}

func (b *blogStore) CreatePost(_ context.Context, title, content string, userID int64) (*model.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := model.Post{ID: int64(len(b.posts) + 1), Title: title, Content: content, UserID: userID}
	b.posts = append(b.posts, p)
	return &p, nil
}

func newTestRouter(t *testing.T, rateLimit float64) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "test"},
			Server:        config.ServerConfig{Port: "0", RateLimit: rateLimit},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}

	store := &blogStore{}
	services := &service.Services{
		Users: service.NewUserService(store, nil, &logger),
		Posts: service.NewPostService(store, store, nil, &logger),
	}

	return NewRouter(s, handler.NewHandlers(s, services))
}

func do(r *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, message, body["error"])
	assert.EqualValues(t, status, body["status"])
}

func TestIndex(t *testing.T) {
	r := newTestRouter(t, 0)

	rec := do(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to the blog API"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestUsers(t *testing.T) {
	r := newTestRouter(t, 0)

	rec := do(r, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(r, http.MethodPost, "/users", `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"username":"alice"}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"username":"alice"}]`, rec.Body.String())
}

func TestCreateUser_Errors(t *testing.T) {
	r := newTestRouter(t, 0)

	rec := do(r, http.MethodPost, "/users", `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodPost, "/users", `{"username":"alice"}`)
	requireError(t, rec, http.StatusBadRequest, "Username already exists")
	assert.Equal(t, "USER_ALREADY_EXISTS", decode(t, rec)["code"])

	requireError(t, do(r, http.MethodPost, "/users", `{}`), http.StatusBadRequest, "Username is required")
	requireError(t, do(r, http.MethodPost, "/users", ""), http.StatusBadRequest, "Username is required")
	requireError(t, do(r, http.MethodPost, "/users", `{"username":`), http.StatusBadRequest, "Invalid request body")
}

func TestPosts(t *testing.T) {
	r := newTestRouter(t, 0)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/users", `{"username":"alice"}`).Code)

	rec := do(r, http.MethodPost, "/posts", `{"title":"Hello","content":"World","user_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"title":"Hello","content":"World","user_id":1}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`[{"id":1,"title":"Hello","content":"World","author":{"id":1,"username":"alice"}}]`,
		rec.Body.String())

	rec = do(r, http.MethodGet, "/users/1/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`[{"id":1,"title":"Hello","content":"World","author":{"id":1,"username":"alice"}}]`,
		rec.Body.String())
}

func TestCreatePost_Errors(t *testing.T) {
	r := newTestRouter(t, 0)

	requireError(t, do(r, http.MethodPost, "/posts", `{"title":"Hello"}`),
		http.StatusBadRequest, "title, content and user_id are required")

	requireError(t, do(r, http.MethodPost, "/posts", `{"title":"Hello","content":"World","user_id":42}`),
		http.StatusNotFound, "User not found")

	long := strings.Repeat("x", model.TitleMaxLength+1)
	rec := do(r, http.MethodPost, "/posts", `{"title":"`+long+`","content":"World","user_id":1}`)
	requireError(t, rec, http.StatusBadRequest, "Validation failed")
	assert.NotEmpty(t, decode(t, rec)["errors"])

	rec = do(r, http.MethodGet, "/posts", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListUserPosts_Errors(t *testing.T) {
	r := newTestRouter(t, 0)

	requireError(t, do(r, http.MethodGet, "/users/abc/posts", ""), http.StatusBadRequest, "Invalid request parameters")
	requireError(t, do(r, http.MethodGet, "/users/99/posts", ""), http.StatusNotFound, "User not found")
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, 0)

	rec := do(r, http.MethodGet, "/comments", "")
	requireError(t, rec, http.StatusNotFound, "Route not found")
	assert.Equal(t, []interface{}{}, decode(t, rec)["errors"])
}

func TestStatusAndDocs(t *testing.T) {
	r := newTestRouter(t, 0)

	rec := do(r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])

	rec = do(r, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = do(r, http.MethodGet, "/static/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/users/{id}/posts"`)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, 1)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/users", "").Code)
	requireError(t, do(r, http.MethodGet, "/users", ""), http.StatusTooManyRequests, "Too many requests")

	// /status is exempt.
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/status", "").Code)
}
