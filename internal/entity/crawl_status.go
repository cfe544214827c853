package entity

// RunStatus is a point-in-time view of a run, served by the status API.
type RunStatus struct {
	RunID string
	State string // "seeding", "running", "done"
	Stats CrawlStats
}
