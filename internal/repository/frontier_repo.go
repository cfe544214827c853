package repository

import "context"

// FrontierRepository is the pending-job queue plus the visited set of one run.
type FrontierRepository interface {
	QueueRepository
	VisitedRepository
	// Close releases the state held for the run.
	Close(ctx context.Context) error
}
