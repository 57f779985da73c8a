package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/go-blog/internal/middleware"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// dependencyCheck pings one dependency.
type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error

	// critical failures make /status answer 503. Redis is not critical:
	// the API keeps serving from PostgreSQL without it.
	critical bool
}

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	checks  []dependencyCheck
	timeout time.Duration
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{
		Handler: NewHandler(s),
		timeout: s.Config.Observability.HealthChecks.Timeout,
	}

	obs := s.Config.Observability
	if s.DB != nil && obs.HealthCheckEnabled("database") {
		h.checks = append(h.checks, dependencyCheck{
			name:     "database",
			ping:     s.DB.Pool.Ping,
			critical: true,
		})
	}
	if s.Redis != nil && obs.HealthCheckEnabled("redis") {
		h.checks = append(h.checks, dependencyCheck{
			name: "redis",
			ping: func(ctx context.Context) error {
				return s.Redis.Ping(ctx).Err()
			},
		})
	}

	return h
}

// CheckHealth pings every configured dependency and reports each result.
//
//   - 200 "healthy": every check passed
//   - 200 "degraded": only non-critical checks failed
//   - 503 "unhealthy": a critical check failed
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{}, len(h.checks))
	status := statusHealthy

	for _, check := range h.checks {
		ctx := c.Request().Context()
		var cancel context.CancelFunc
		if h.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, h.timeout)
		}

		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			checks[check.name] = map[string]interface{}{
				"status":        statusHealthy,
				"response_time": elapsed.String(),
			}
			continue
		}

		checks[check.name] = map[string]interface{}{
			"status":        statusUnhealthy,
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		if check.critical {
			status = statusUnhealthy
		} else if status == statusHealthy {
			status = statusDegraded
		}

		logger.Error().
			Err(err).
			Str("check", check.name).
			Dur("response_time", elapsed).
			Msg("health check failed")

		if app := h.server.LoggerService.GetApplication(); app != nil {
			app.RecordCustomEvent("HealthCheckError", map[string]interface{}{
				"check_type":       check.name,
				"operation":        "health_check",
				"error_type":       check.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	logger.Debug().
		Str("status", status).
		Dur("total_duration", time.Since(start)).
		Msg("health check completed")

	return c.JSON(code, response)
}
