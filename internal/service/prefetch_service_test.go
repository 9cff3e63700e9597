package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

type recordingFetcher struct {
	mu      sync.Mutex
	queries []models.TrainerPageQuery
	done    chan struct{}
}

func (r *recordingFetcher) FetchPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return models.TrainerPage{Trainers: []models.Trainer{}}, nil
}

func TestPrefetchServiceWarmsNextPage(t *testing.T) {
	fetcher := &recordingFetcher{done: make(chan struct{}, 1)}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewPrefetchService(fetcher, cache, 1, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Enqueue(models.TrainerPageQuery{Category: "yoga_instructor", Offset: 12, Limit: 12})

	select {
	case <-fetcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch did not run")
	}
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, 12, fetcher.queries[0].Offset)
}

func TestPrefetchServiceSkipsWithoutCache(t *testing.T) {
	fetcher := &recordingFetcher{}
	svc := NewPrefetchService(fetcher, nil, 1, nil, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Enqueue(models.TrainerPageQuery{Offset: 12, Limit: 12})
	time.Sleep(20 * time.Millisecond)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Empty(t, fetcher.queries)
}
