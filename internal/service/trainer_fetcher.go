package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

type trainerPageSource interface {
	ListPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error)
}

// TrainerFetcher issues single remote page requests for the trainer collection.
type TrainerFetcher struct {
	source   trainerPageSource
	cache    *CacheService
	metrics  *MetricsService
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTrainerFetcher constructs a TrainerFetcher. A non-positive timeout disables the per-fetch deadline.
func NewTrainerFetcher(source trainerPageSource, cache *CacheService, metrics *MetricsService, timeout, cacheTTL time.Duration, logger *zap.Logger) *TrainerFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerFetcher{source: source, cache: cache, metrics: metrics, timeout: timeout, cacheTTL: cacheTTL, logger: logger}
}

// FetchPage returns up to q.Limit trainers ordered per q.SortKey together with a has-more signal.
func (f *TrainerFetcher) FetchPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error) {
	if q.Limit <= 0 || q.Offset < 0 {
		return models.TrainerPage{}, appErrors.Clone(appErrors.ErrValidation, "offset and limit must be non-negative and limit positive")
	}

	key := PageCacheKey(q)
	var cached models.TrainerPage
	if hit, err := f.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached.Trainers == nil {
			cached.Trainers = []models.Trainer{}
		}
		return cached, nil
	}

	fetchCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	page, err := f.source.ListPage(fetchCtx, q)
	f.metrics.ObserveRemoteFetch(err, time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.TrainerPage{}, appErrors.WrapAs(err, appErrors.ErrRemoteFetch, "loading trainers timed out")
		}
		return models.TrainerPage{}, appErrors.WrapAs(err, appErrors.ErrRemoteFetch, "")
	}

	if len(page.Trainers) > q.Limit {
		page.Trainers = page.Trainers[:q.Limit]
		page.HasMore = true
		page.Exact = true
	}
	if !page.Exact {
		// short page means the source is exhausted
		page.HasMore = len(page.Trainers) == q.Limit
	}
	if page.Trainers == nil {
		page.Trainers = []models.Trainer{}
	}

	if f.cache.Enabled() {
		if err := f.cache.Set(ctx, key, page, f.cacheTTL); err != nil {
			f.logger.Debug("page cache write skipped", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}
