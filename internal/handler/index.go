package handler

import (
	"net/http"

	"github.com/deppfellow/go-blog/internal/server"
	"github.com/labstack/echo/v4"
)

const welcomeMessage = "Welcome to the blog API"

type IndexHandler struct {
	Handler
}

func NewIndexHandler(s *server.Server) *IndexHandler {
	return &IndexHandler{Handler: NewHandler(s)}
}

// Index handles GET /.
func (h *IndexHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": welcomeMessage})
}
