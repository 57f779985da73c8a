package router

import (
	"github.com/deppfellow/go-blog/internal/handler"
	"github.com/deppfellow/go-blog/static"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints that are not part of the
// blog itself: index, health, and the docs UI with its assets.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Index.Index)
	r.GET("/status", h.Health.CheckHealth)

	r.StaticFS("/static", static.FS)
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
