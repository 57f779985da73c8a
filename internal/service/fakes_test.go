package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/deppfellow/go-blog/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory UserStore and PostStore with the same
// constraint behavior as the schema.
type memStore struct {
	mu     sync.Mutex
	users  []model.User
	posts  []model.Post
	nextID int64

	// insertErr, when set, is returned by the next insert.
	insertErr error
	inserts   int
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) ListUsers(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User{}, m.users...), nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("users: %w", pgx.ErrNoRows)
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("users: %w", pgx.ErrNoRows)
}

func (m *memStore) CreateUser(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if err := m.takeInsertErr(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	m.nextID++
	u := model.User{ID: m.nextID, Username: username}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *memStore) ListPosts(context.Context) ([]model.PostWithAuthor, error) {
	return m.listPosts(func(model.Post) bool { return true }), nil
}

func (m *memStore) ListPostsByUserID(_ context.Context, userID int64) ([]model.PostWithAuthor, error) {
	return m.listPosts(func(p model.Post) bool { return p.UserID == userID }), nil
}

func (m *memStore) listPosts(keep func(model.Post) bool) []model.PostWithAuthor {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.PostWithAuthor{}
	for _, p := range m.posts {
		if !keep(p) {
			continue
		}
		for _, u := range m.users {
			if u.ID == p.UserID {
				out = append(out, model.PostWithAuthor{
					ID:      p.ID,
					Title:   p.Title,
					Content: p.Content,
					Author:  model.Author{ID: u.ID, Username: u.Username},
				})
			}
		}
	}
	return out
}

func (m *memStore) CreatePost(_ context.Context, title, content string, userID int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if err := m.takeInsertErr(); err != nil {
		return nil, err
	}
	m.nextID++
	p := model.Post{ID: m.nextID, Title: title, Content: content, UserID: userID}
	m.posts = append(m.posts, p)
	return &p, nil
}

func (m *memStore) takeInsertErr() error {
	err := m.insertErr
	m.insertErr = nil
	return err
}

type recordingEnqueuer struct {
	resources []string
	err       error
}

func (r *recordingEnqueuer) EnqueueCacheWarm(_ context.Context, resource string) error {
	r.resources = append(r.resources, resource)
	return r.err
}
