package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	"github.com/noah-isme/trainer-discovery-api/pkg/jobs"
)

const prefetchJobType = "page_prefetch"

// PrefetchService warms the page cache for the offset a session will ask for next.
type PrefetchService struct {
	queue   *jobs.Queue
	fetcher pageFetcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPrefetchService constructs a PrefetchService backed by a worker queue.
func NewPrefetchService(fetcher pageFetcher, cache *CacheService, workers int, metrics *MetricsService, logger *zap.Logger) *PrefetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PrefetchService{fetcher: fetcher, cache: cache, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("page-prefetch", s.handle, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: workers * 8,
		MaxRetries: 1,
		RetryDelay: 200 * time.Millisecond,
		JobTimeout: 10 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *PrefetchService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for workers to exit.
func (s *PrefetchService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules q for warming. Prefetching is skipped when no cache is configured.
func (s *PrefetchService) Enqueue(q models.TrainerPageQuery) {
	if !s.cache.Enabled() {
		return
	}
	err := s.queue.Offer(jobs.Job{Key: PageCacheKey(q), Type: prefetchJobType, Payload: q})
	switch {
	case err == nil, errors.Is(err, jobs.ErrDuplicate):
	default:
		s.metrics.RecordPrefetchDropped()
		s.logger.Debug("prefetch dropped", zap.Int("offset", q.Offset), zap.Error(err))
	}
}

func (s *PrefetchService) handle(ctx context.Context, job jobs.Job) error {
	q, ok := job.Payload.(models.TrainerPageQuery)
	if !ok {
		return fmt.Errorf("unexpected prefetch payload %T", job.Payload)
	}
	_, err := s.fetcher.FetchPage(ctx, q)
	return err
}
