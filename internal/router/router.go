// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/deppfellow/go-blog/internal/handler"
	"github.com/deppfellow/go-blog/internal/middleware"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the echo instance with the global middleware chain and
// every route.
//
// Order matters: the request id must exist before the New Relic
// transaction and the request logger are built, and the rate limiter
// rejects after the request has been logged.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	r.Use(
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
		mw.Global.CORS(),
		mw.Global.Secure(),
		mw.RateLimit.Limit(),
	)

	registerSystemRoutes(r, h)
	registerBlogRoutes(r, h)

	return r
}
