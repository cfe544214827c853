package repository

import (
	"context"
	"errors"

	"github.com/user/bfs-crawler/internal/entity"
)

// ErrFrontierEmpty is returned by Dequeue when no jobs remain.
var ErrFrontierEmpty = errors.New("frontier is empty")

// QueueRepository defines the interface for a FIFO queue of crawl jobs.
type QueueRepository interface {
	// Enqueue adds a job to the end of the queue. It does not consult the visited set.
	Enqueue(ctx context.Context, job entity.Job) error
	// Dequeue removes and returns the job at the front of the queue, or ErrFrontierEmpty.
	Dequeue(ctx context.Context) (entity.Job, error)
	// Len returns the current number of queued jobs.
	Len(ctx context.Context) (int64, error)
}
