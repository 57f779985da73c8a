package handler

import (
	"github.com/deppfellow/go-blog/internal/model"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/service"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, users *service.UserService) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c echo.Context, _ *model.ListUsersRequest) ([]model.User, error) {
	return h.users.ListUsers(c.Request().Context())
}

// CreateUser handles POST /users.
func (h *UserHandler) CreateUser(c echo.Context, req *model.CreateUserRequest) (*model.User, error) {
	return h.users.CreateUser(c.Request().Context(), req)
}
