package memory

import (
	"context"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/repository"
)

// FrontierRepoImpl keeps the queue and visited set of a run in process memory.
// It is owned by a single orchestrator and is not safe for concurrent use.
type FrontierRepoImpl struct {
	queue   []entity.Job
	visited map[string]struct{}
}

// NewFrontierRepo creates an empty in-memory frontier.
func NewFrontierRepo() *FrontierRepoImpl {
	return &FrontierRepoImpl{visited: make(map[string]struct{})}
}

// Enqueue appends a job to the tail of the queue.
func (r *FrontierRepoImpl) Enqueue(_ context.Context, job entity.Job) error {
	r.queue = append(r.queue, job)
	return nil
}

// Dequeue removes and returns the head of the queue.
func (r *FrontierRepoImpl) Dequeue(_ context.Context) (entity.Job, error) {
	if len(r.queue) == 0 {
		return entity.Job{}, repository.ErrFrontierEmpty
	}
	job := r.queue[0]
	r.queue[0] = entity.Job{}
	r.queue = r.queue[1:]
	return job, nil
}

// Len returns the number of queued jobs.
func (r *FrontierRepoImpl) Len(_ context.Context) (int64, error) {
	return int64(len(r.queue)), nil
}

// MarkVisited adds a URL to the visited set.
func (r *FrontierRepoImpl) MarkVisited(_ context.Context, url string) error {
	r.visited[url] = struct{}{}
	return nil
}

// IsVisited reports whether a URL is in the visited set.
func (r *FrontierRepoImpl) IsVisited(_ context.Context, url string) (bool, error) {
	_, ok := r.visited[url]
	return ok, nil
}

// Close drops the queue and visited set.
func (r *FrontierRepoImpl) Close(_ context.Context) error {
	r.queue = nil
	r.visited = make(map[string]struct{})
	return nil
}
