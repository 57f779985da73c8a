// Package job runs background work on Asynq.
//
// Asynq is a Redis-backed job queue:
//   - tasks are enqueued (producer) with asynq.Client
//   - an asynq.Server runs workers that process them (consumer)
//
// The only task today is cache:warm, which rebuilds the cached user and
// post lists after a write.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/go-blog/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
//
// A nil *JobService is valid: enqueueing becomes a no-op. That is what the
// server uses when Redis is not configured.
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger
	warmer CacheWarmer
}

// NewJobService creates a JobService configured to use Redis from cfg.
// Workers are not started until Start.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	// Queue weights: out of 10 workers roughly 6 go to critical, 3 to
	// default, 1 to low.
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// Start registers task handlers and starts the workers.
//
// asynq.Server.Start returns once the workers are running, so this does
// not block.
func (j *JobService) Start(warmer CacheWarmer) error {
	if j == nil {
		return nil
	}
	if warmer == nil {
		return errors.New("start job server: no cache warmer")
	}
	j.warmer = warmer

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCacheWarm, j.handleCacheWarmTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return fmt.Errorf("start job server: %w", err)
	}
	return nil
}

// EnqueueCacheWarm schedules a cache:warm task for resource.
// A warm already queued for the same resource is not an error.
func (j *JobService) EnqueueCacheWarm(ctx context.Context, resource string) error {
	if j == nil {
		return nil
	}

	task, err := NewCacheWarmTask(resource)
	if err != nil {
		return err
	}

	if _, err := j.Client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s task: %w", TaskCacheWarm, err)
	}
	return nil
}

// Stop gracefully stops the job server and closes the client.
func (j *JobService) Stop() {
	if j == nil {
		return
	}

	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job client")
	}
}
