package repository

import "context"

// SeedRepository provides the start URLs of a run.
type SeedRepository interface {
	// Load returns the usable start URLs in source order.
	Load(ctx context.Context) ([]string, error)
}
