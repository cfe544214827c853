package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "crawler:"

// FrontierRepoImpl combines the queue and visited set of one run. Both live under
// keys namespaced by the run ID, so concurrent runs never share state.
type FrontierRepoImpl struct {
	*QueueRepoImpl
	*VisitedRepoImpl
	client redis.Cmdable
}

// NewFrontierRepo creates the Redis-backed frontier for a run.
func NewFrontierRepo(client redis.Cmdable, runID string) *FrontierRepoImpl {
	return &FrontierRepoImpl{
		QueueRepoImpl:   NewQueueRepo(client, runID),
		VisitedRepoImpl: NewVisitedRepo(client, runID),
		client:          client,
	}
}

// Close deletes the run's keys.
func (r *FrontierRepoImpl) Close(ctx context.Context) error {
	return r.client.Del(ctx, r.QueueRepoImpl.key, r.VisitedRepoImpl.key).Err()
}
