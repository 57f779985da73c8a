// Command blog runs the blog API: users and their posts over HTTP, stored
// in PostgreSQL with an optional Redis cache.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/go-blog/internal/config"
	"github.com/deppfellow/go-blog/internal/database"
	"github.com/deppfellow/go-blog/internal/handler"
	"github.com/deppfellow/go-blog/internal/logger"
	"github.com/deppfellow/go-blog/internal/repository"
	"github.com/deppfellow/go-blog/internal/router"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/service"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLogger(cfg.Observability, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to start New Relic, continuing without APM")
	}
	defer loggerService.Shutdown()

	if err := run(cfg, &log, loggerService); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		loggerService.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, log, cfg); err != nil {
		return err
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(srv)
	services := service.NewServices(srv, repos)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	if err := srv.StartJobs(repos); err != nil {
		return err
	}

	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = srv.Shutdown(context.Background())
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
