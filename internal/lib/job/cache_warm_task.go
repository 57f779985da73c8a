package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskCacheWarm is the job type name stored in Redis.
	TaskCacheWarm = "cache:warm"

	ResourceUsers = "users"
	ResourcePosts = "posts"
)

// CacheWarmPayload is the JSON payload of a cache:warm task.
type CacheWarmPayload struct {
	Resource string `json:"resource"`
}

// NewCacheWarmTask builds a task that reloads one cached list.
//
// Warming is idempotent and cheap to lose, so it retries only once and
// goes to the low queue. Unique collapses a burst of writes into one
// reload per resource.
func NewCacheWarmTask(resource string) (*asynq.Task, error) {
	switch resource {
	case ResourceUsers, ResourcePosts:
	default:
		return nil, fmt.Errorf("unknown cache resource %q", resource)
	}

	payload, err := json.Marshal(CacheWarmPayload{Resource: resource})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskCacheWarm,
		payload,
		asynq.MaxRetry(1),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
		asynq.Unique(5*time.Second),
	), nil
}
