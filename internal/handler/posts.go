package handler

import (
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/service"
	"github.com/labstack/echo/v4"
)

type PostHandler struct {
	Handler
	posts *service.PostService
}

func NewPostHandler(s *server.Server, posts *service.PostService) *PostHandler {
	return &PostHandler{
		Handler: NewHandler(s),
		posts:   posts,
	}
}

// ListPosts handles GET /posts.
func (h *PostHandler) ListPosts(c echo.Context, _ *model.ListPostsRequest) ([]model.PostWithAuthor, error) {
	return h.posts.ListPosts(c.Request().Context())
}

// ListUserPosts handles GET /users/:id/posts.
func (h *PostHandler) ListUserPosts(c echo.Context, req *model.ListUserPostsRequest) ([]model.PostWithAuthor, error) {
	return h.posts.ListPostsByUser(c.Request().Context(), req.UserID)
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c echo.Context, req *model.CreatePostRequest) (*model.Post, error) {
	return h.posts.CreatePost(c.Request().Context(), req)
}
