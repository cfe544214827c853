package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/repository"
)

// QueueRepoImpl provides a concrete implementation for the QueueRepository interface using a Redis list.
type QueueRepoImpl struct {
	client redis.Cmdable
	key    string
}

// NewQueueRepo creates a queue stored under the given run's key.
func NewQueueRepo(client redis.Cmdable, runID string) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, key: keyPrefix + runID + ":queue"}
}

// Enqueue pushes a JSON-encoded job onto the left side of the list.
func (r *QueueRepoImpl) Enqueue(ctx context.Context, job entity.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.URL, err)
	}
	return r.client.LPush(ctx, r.key, payload).Err()
}

// Dequeue pops a job from the right side of the list, which makes the list a FIFO queue.
// RPOP returns redis.Nil when the list is empty.
func (r *QueueRepoImpl) Dequeue(ctx context.Context) (entity.Job, error) {
	payload, err := r.client.RPop(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.Job{}, repository.ErrFrontierEmpty
		}
		return entity.Job{}, err
	}
	var job entity.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return entity.Job{}, fmt.Errorf("failed to decode queued job: %w", err)
	}
	return job, nil
}

// Len returns the current number of items in the queue.
func (r *QueueRepoImpl) Len(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
