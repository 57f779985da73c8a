package router

import (
	"net/http"

	"github.com/deppfellow/go-blog/internal/handler"
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/labstack/echo/v4"
)

func registerBlogRoutes(r *echo.Echo, h *handler.Handlers) {
	users := r.Group("/users")
	users.GET("", handler.Handle(h.Users.Handler, h.Users.ListUsers, http.StatusOK, &model.ListUsersRequest{}))
	users.POST("", handler.Handle(h.Users.Handler, h.Users.CreateUser, http.StatusCreated, &model.CreateUserRequest{}))
	users.GET("/:id/posts", handler.Handle(h.Posts.Handler, h.Posts.ListUserPosts, http.StatusOK, &model.ListUserPostsRequest{}))

	posts := r.Group("/posts")
	posts.GET("", handler.Handle(h.Posts.Handler, h.Posts.ListPosts, http.StatusOK, &model.ListPostsRequest{}))
	posts.POST("", handler.Handle(h.Posts.Handler, h.Posts.CreatePost, http.StatusCreated, &model.CreatePostRequest{}))
}
