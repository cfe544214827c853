package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestFrontierRepo_QueueIsFIFO(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	f := NewFrontierRepo(client, "run-1")

	_, err := f.Dequeue(ctx)
	require.ErrorIs(t, err, repository.ErrFrontierEmpty)

	jobs := []entity.Job{
		entity.NewSeedJob("http://a.test"),
		{URL: "http://b.test", Depth: 1, Label: entity.LabelFollowed},
		{URL: "http://c.test", Depth: 2, Label: entity.LabelFollowed},
	}
	for _, j := range jobs {
		require.NoError(t, f.Enqueue(ctx, j))
	}

	n, err := f.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	for _, want := range jobs {
		got, err := f.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = f.Dequeue(ctx)
	assert.ErrorIs(t, err, repository.ErrFrontierEmpty)
}

func TestFrontierRepo_Visited(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	f := NewFrontierRepo(client, "run-1")

	visited, err := f.IsVisited(ctx, "http://a.test")
	require.NoError(t, err)
	assert.False(t, visited)

	require.NoError(t, f.MarkVisited(ctx, "http://a.test"))
	require.NoError(t, f.MarkVisited(ctx, "http://a.test"))

	visited, err = f.IsVisited(ctx, "http://a.test")
	require.NoError(t, err)
	assert.True(t, visited)
}

func TestFrontierRepo_RunsAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	first := NewFrontierRepo(client, "run-1")
	second := NewFrontierRepo(client, "run-2")

	require.NoError(t, first.Enqueue(ctx, entity.NewSeedJob("http://a.test")))
	require.NoError(t, first.MarkVisited(ctx, "http://a.test"))

	n, err := second.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	visited, err := second.IsVisited(ctx, "http://a.test")
	require.NoError(t, err)
	assert.False(t, visited)
}

func TestFrontierRepo_CloseDeletesKeys(t *testing.T) {
	ctx := context.Background()
	s, client := newTestClient(t)
	f := NewFrontierRepo(client, "run-1")

	require.NoError(t, f.Enqueue(ctx, entity.NewSeedJob("http://a.test")))
	require.NoError(t, f.MarkVisited(ctx, "http://b.test"))
	assert.True(t, s.Exists("crawler:run-1:queue"))
	assert.True(t, s.Exists("crawler:run-1:visited"))

	require.NoError(t, f.Close(ctx))
	assert.False(t, s.Exists("crawler:run-1:queue"))
	assert.False(t, s.Exists("crawler:run-1:visited"))
}

func TestFrontierRepo_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, client := newTestClient(t)
	f := NewFrontierRepo(client, "run-1")
	s.Close()

	_, err := f.Dequeue(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrFrontierEmpty)
}
