package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// CacheWarmer reloads a cached resource list from the database.
type CacheWarmer interface {
	Warm(ctx context.Context, resource string) error
}

func (j *JobService) handleCacheWarmTask(ctx context.Context, t *asynq.Task) error {
	var p CacheWarmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// Retrying a malformed payload can't succeed.
		return fmt.Errorf("unmarshal cache warm payload: %v: %w", err, asynq.SkipRetry)
	}

	if j.warmer == nil {
		return fmt.Errorf("no cache warmer registered: %w", asynq.SkipRetry)
	}

	start := time.Now()
	if err := j.warmer.Warm(ctx, p.Resource); err != nil {
		j.logger.Error().
			Err(err).
			Str("type", TaskCacheWarm).
			Str("resource", p.Resource).
			Msg("failed to warm cache")
		return err
	}

	j.logger.Debug().
		Str("type", TaskCacheWarm).
		Str("resource", p.Resource).
		Dur("duration", time.Since(start)).
		Msg("cache warmed")

	return nil
}
