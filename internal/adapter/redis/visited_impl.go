package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/user/bfs-crawler/pkg/utils"
)

// VisitedRepoImpl provides a concrete implementation for the VisitedRepository interface using a Redis set.
// Members are URL hashes so that arbitrarily long URLs produce fixed-size members.
type VisitedRepoImpl struct {
	client redis.Cmdable
	key    string
}

// NewVisitedRepo creates a visited set stored under the given run's key.
func NewVisitedRepo(client redis.Cmdable, runID string) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client, key: keyPrefix + runID + ":visited"}
}

// MarkVisited adds the URL hash to the set.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, url string) error {
	return r.client.SAdd(ctx, r.key, utils.HashURL(url)).Err()
}

// IsVisited checks the set for the URL hash.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, url string) (bool, error) {
	return r.client.SIsMember(ctx, r.key, utils.HashURL(url)).Result()
}
