package entity

// Label tags where a job came from.
type Label string

const (
	// LabelStart marks a job created from a seed URL.
	LabelStart Label = "START"
	// LabelFollowed marks a job discovered on a crawled page.
	LabelFollowed Label = "FOLLOWED"
)

// Job is one unit of crawl work. It is created once and consumed once.
type Job struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
	Label Label  `json:"label"`
}

// NewSeedJob creates a depth-0 job for a start URL.
func NewSeedJob(url string) Job {
	return Job{URL: url, Depth: 0, Label: LabelStart}
}
