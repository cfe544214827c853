package repository

import (
	"context"

	"github.com/user/bfs-crawler/internal/entity"
)

// ResultSink persists the output of a finished run.
type ResultSink interface {
	// Name identifies the sink in logs.
	Name() string
	// Save stores the results, failures and stats of the run.
	Save(ctx context.Context, output *entity.CrawlOutput) error
}
