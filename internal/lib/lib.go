// Package lib holds infrastructure that does not fit strictly into one
// layer: the Redis read-through cache (lib/cache) and background job
// processing on Asynq (lib/job).
package lib
