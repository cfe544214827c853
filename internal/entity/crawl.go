package entity

// DefaultMaxLinksPerPage is used when CrawlLimits.MaxLinksPerPage is not positive.
const DefaultMaxLinksPerPage = 10

// CrawlLimits bounds the growth of the frontier.
type CrawlLimits struct {
	MaxDepth        int // 0 means unlimited
	MaxLinksPerPage int
	DelayMs         int
	MaxPages        int // 0 means unlimited
}

// LinksPerPage returns the effective per-page link cap.
func (l CrawlLimits) LinksPerPage() int {
	if l.MaxLinksPerPage <= 0 {
		return DefaultMaxLinksPerPage
	}
	return l.MaxLinksPerPage
}

// CrawlStats counts the work done by a single run.
type CrawlStats struct {
	Queued  int `json:"queued"`
	Crawled int `json:"crawled"`
	Failed  int `json:"failed"`
}

// CrawlOutput is everything a finished run produced.
type CrawlOutput struct {
	RunID    string
	Results  []PageResult
	Failures []FailedURL
	Stats    CrawlStats
}
