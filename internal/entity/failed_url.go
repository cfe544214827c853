package entity

import "time"

// FailedURL records a job whose execution failed. It mirrors the `failed_urls` PostgreSQL table.
type FailedURL struct {
	URL                  string
	Depth                int
	Label                Label
	FailureReason        string
	LastAttemptTimestamp time.Time
}
