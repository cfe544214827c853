package response

// RunStatusResponse is the live view of a crawl run.
type RunStatusResponse struct {
	RunID   string `json:"run_id"`
	State   string `json:"state"` // "seeding", "running", "done"
	Queued  int    `json:"queued"`
	Crawled int    `json:"crawled"`
	Failed  int    `json:"failed"`
}
