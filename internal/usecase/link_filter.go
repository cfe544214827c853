package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/repository"
)

// FilterLinks turns the URLs discovered on a page at currentDepth into the next
// generation of jobs. It returns nothing once currentDepth reaches MaxDepth
// (when MaxDepth > 0), skips blank, visited and repeated URLs, and emits at
// most LinksPerPage jobs in input order. URLs are only trimmed, never normalised.
func FilterLinks(ctx context.Context, discovered []string, limits entity.CrawlLimits, visited repository.VisitedRepository, currentDepth int) ([]entity.Job, error) {
	if limits.MaxDepth > 0 && currentDepth >= limits.MaxDepth {
		return nil, nil
	}

	maxLinks := limits.LinksPerPage()
	jobs := make([]entity.Job, 0, min(maxLinks, len(discovered)))
	seen := make(map[string]struct{}, len(discovered))

	for _, raw := range discovered {
		if len(jobs) >= maxLinks {
			break
		}
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		isVisited, err := visited.IsVisited(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to check visited state of %s: %w", url, err)
		}
		if isVisited {
			continue
		}

		seen[url] = struct{}{}
		jobs = append(jobs, entity.Job{URL: url, Depth: currentDepth + 1, Label: entity.LabelFollowed})
	}
	return jobs, nil
}
