package handler

import (
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/service"
)

// Handlers groups all HTTP handlers for the router.
type Handlers struct {
	Index   *IndexHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Users   *UserHandler
	Posts   *PostHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Index:   NewIndexHandler(s),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Users:   NewUserHandler(s, services.Users),
		Posts:   NewPostHandler(s, services.Posts),
	}
}
