package repository

import "context"

// VisitedRepository defines the interface for deduplication of processed URLs.
type VisitedRepository interface {
	// MarkVisited records that a URL has been dequeued for processing.
	MarkVisited(ctx context.Context, url string) error
	// IsVisited checks if a URL has already been dequeued for processing.
	IsVisited(ctx context.Context, url string) (bool, error)
}
