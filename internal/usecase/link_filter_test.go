package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bfs-crawler/internal/adapter/memory"
	"github.com/user/bfs-crawler/internal/entity"
)

type failingVisited struct{}

func (failingVisited) MarkVisited(context.Context, string) error { return nil }
func (failingVisited) IsVisited(context.Context, string) (bool, error) {
	return false, errors.New("backend unavailable")
}

func urlsOf(jobs []entity.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.URL)
	}
	return out
}

func TestFilterLinks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		discovered []string
		limits     entity.CrawlLimits
		visited    []string
		depth      int
		expected   []string
	}{
		{
			name:       "dedups within the page",
			discovered: []string{"http://b.test", "http://b.test", "http://c.test"},
			limits:     entity.CrawlLimits{MaxDepth: 1, MaxLinksPerPage: 10},
			expected:   []string{"http://b.test", "http://c.test"},
		},
		{
			name:       "depth gate uses the parent depth",
			discovered: []string{"http://b.test"},
			limits:     entity.CrawlLimits{MaxDepth: 1, MaxLinksPerPage: 10},
			depth:      1,
			expected:   []string{},
		},
		{
			name:       "max depth zero is unlimited",
			discovered: []string{"http://b.test"},
			limits:     entity.CrawlLimits{MaxDepth: 0, MaxLinksPerPage: 10},
			depth:      50,
			expected:   []string{"http://b.test"},
		},
		{
			name:       "caps links per page in input order",
			discovered: []string{"http://1.test", "http://2.test", "http://3.test", "http://4.test", "http://5.test"},
			limits:     entity.CrawlLimits{MaxLinksPerPage: 1},
			expected:   []string{"http://1.test"},
		},
		{
			name:       "skips visited urls",
			discovered: []string{"http://a.test", "http://b.test"},
			limits:     entity.CrawlLimits{MaxLinksPerPage: 10},
			visited:    []string{"http://a.test"},
			expected:   []string{"http://b.test"},
		},
		{
			name:       "trims and drops blanks",
			discovered: []string{"", "   ", "  http://b.test  ", "http://b.test"},
			limits:     entity.CrawlLimits{MaxLinksPerPage: 10},
			expected:   []string{"http://b.test"},
		},
		{
			name:       "no normalisation beyond trimming",
			discovered: []string{"http://b.test", "http://b.test/", "http://b.test/?b=2&a=1", "http://b.test/?a=1&b=2"},
			limits:     entity.CrawlLimits{MaxLinksPerPage: 10},
			expected:   []string{"http://b.test", "http://b.test/", "http://b.test/?b=2&a=1", "http://b.test/?a=1&b=2"},
		},
		{
			name:       "skipped urls do not count against the cap",
			discovered: []string{"http://a.test", "http://a.test", "", "http://b.test", "http://c.test"},
			limits:     entity.CrawlLimits{MaxLinksPerPage: 2},
			visited:    []string{"http://b.test"},
			expected:   []string{"http://a.test", "http://c.test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frontier := memory.NewFrontierRepo()
			for _, u := range tt.visited {
				require.NoError(t, frontier.MarkVisited(ctx, u))
			}

			jobs, err := FilterLinks(ctx, tt.discovered, tt.limits, frontier, tt.depth)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, urlsOf(jobs))
			for _, j := range jobs {
				assert.Equal(t, tt.depth+1, j.Depth)
				assert.Equal(t, entity.LabelFollowed, j.Label)
			}
		})
	}
}

func TestFilterLinks_DefaultCap(t *testing.T) {
	discovered := make([]string, 0, 25)
	for i := range 25 {
		discovered = append(discovered, "http://a.test/"+string(rune('a'+i)))
	}

	jobs, err := FilterLinks(context.Background(), discovered, entity.CrawlLimits{}, memory.NewFrontierRepo(), 0)
	require.NoError(t, err)
	assert.Len(t, jobs, entity.DefaultMaxLinksPerPage)
	assert.Equal(t, discovered[:10], urlsOf(jobs))
}

func TestFilterLinks_DepthBound(t *testing.T) {
	limits := entity.CrawlLimits{MaxDepth: 3, MaxLinksPerPage: 5}
	for depth := range 6 {
		jobs, err := FilterLinks(context.Background(), []string{"http://x.test"}, limits, memory.NewFrontierRepo(), depth)
		require.NoError(t, err)
		for _, j := range jobs {
			assert.LessOrEqual(t, j.Depth, limits.MaxDepth)
		}
		if depth >= limits.MaxDepth {
			assert.Empty(t, jobs)
		}
	}
}

func TestFilterLinks_VisitedError(t *testing.T) {
	_, err := FilterLinks(context.Background(), []string{"http://b.test"}, entity.CrawlLimits{}, failingVisited{}, 0)
	assert.ErrorContains(t, err, "backend unavailable")
}
