package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/user/bfs-crawler/internal/entity"
)

// A URL that fails again under the same run ID bumps retry_count.
const insertFailedURL = `
	INSERT INTO failed_urls (run_id, url, depth, label, failure_reason, last_attempt_timestamp, retry_count)
	VALUES ($1, $2, $3, $4, $5, $6, 1)
	ON CONFLICT (run_id, url) DO UPDATE SET
		depth = EXCLUDED.depth,
		label = EXCLUDED.label,
		failure_reason = EXCLUDED.failure_reason,
		last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
		retry_count = failed_urls.retry_count + 1;
`

func queueFailedURLs(batch *pgx.Batch, runID string, failures []entity.FailedURL) {
	for _, f := range failures {
		batch.Queue(insertFailedURL,
			runID,
			f.URL,
			f.Depth,
			string(f.Label),
			f.FailureReason,
			f.LastAttemptTimestamp,
		)
	}
}
