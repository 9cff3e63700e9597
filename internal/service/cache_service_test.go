package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	"github.com/noah-isme/trainer-discovery-api/internal/repository"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

type memoryCacheRepo struct {
	items  map[string][]byte
	getErr error
	setErr error
	ttls   map[string]time.Duration
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func TestCacheServiceRoundTripAndDefaultTTL(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), 0, nil, true)
	ctx := context.Background()

	var out models.TrainerPage
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", models.TrainerPage{HasMore: true, Exact: true}, 0))
	assert.Equal(t, 30*time.Second, repo.ttls["k"])

	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, out.HasMore)
}

func TestCacheServiceOverRedisRepository(t *testing.T) {
	var repo CacheRepository = repository.NewCacheRepository(nil, "discovery:", nil)
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", models.TrainerPage{HasMore: true}, 0))
	var out models.TrainerPage
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledAndErrors(t *testing.T) {
	repo := newMemoryCacheRepo()
	disabled := NewCacheService(repo, nil, time.Minute, nil, false)
	assert.False(t, disabled.Enabled())
	require.NoError(t, disabled.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.items)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())

	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	var dest int
	hit, err := svc.Get(context.Background(), "k", &dest)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestPageCacheKeyNormalises(t *testing.T) {
	a := PageCacheKey(models.TrainerPageQuery{Category: "", Search: " Yoga ", Offset: 12, Limit: 12})
	b := PageCacheKey(models.TrainerPageQuery{Category: "all", Search: "yoga", SortKey: models.SortNewest, Offset: 12, Limit: 12})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, PageCacheKey(models.TrainerPageQuery{Category: "all", Search: "yoga", Offset: 24, Limit: 12}))
}
