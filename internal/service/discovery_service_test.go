package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

func newTestDiscoveryService(fetcher pageFetcher) *DiscoveryService {
	pager := newTestPager(fetcher, nil)
	return NewDiscoveryService(pager, NewSessionHandleService("secret", time.Minute), nil, time.Minute, nil, nil)
}

func TestDiscoveryServiceLifecycle(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["yoga_instructor"] = makeTrainers(20, "y")
	fetcher.catalog["pilates"] = makeTrainers(3, "p")
	svc := newTestDiscoveryService(fetcher)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DiscoveryFilter{Category: "yoga_instructor"})
	require.NoError(t, err)
	id := created.Snapshot.SessionID
	require.NotEmpty(t, id)
	assert.Len(t, created.Snapshot.Trainers, 12)
	assert.True(t, created.Snapshot.HasMore)
	assert.Equal(t, 12, created.Snapshot.PageSize)
	assert.Equal(t, 1, svc.ActiveSessions())

	boundID, err := svc.handles.Validate(created.Handle.Token)
	require.NoError(t, err)
	assert.Equal(t, id, boundID)

	snap, err := svc.LoadMore(ctx, id)
	require.NoError(t, err)
	assert.Len(t, snap.Trainers, 20)
	assert.False(t, snap.HasMore)

	snap, err = svc.ApplyFilters(ctx, id, models.DiscoveryFilter{Category: "pilates"})
	require.NoError(t, err)
	assert.Len(t, snap.Trainers, 3)
	assert.Greater(t, snap.Token, created.Snapshot.Token)

	snap, err = svc.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "pilates", snap.Filter.Category)

	require.NoError(t, svc.Close(id))
	_, err = svc.Snapshot(id)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Close(id), appErrors.ErrSessionNotFound)
}

func TestDiscoveryServiceRenewedHandleOutlivesTTL(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["yoga_instructor"] = makeTrainers(60, "y")
	svc := newTestDiscoveryService(fetcher)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc.now = clock
	svc.handles.now = clock
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DiscoveryFilter{Category: "yoga_instructor"})
	require.NoError(t, err)
	id := created.Snapshot.SessionID
	original := created.Handle.Token
	token := original

	for i := 0; i < 4; i++ {
		now = now.Add(40 * time.Second)
		boundID, err := svc.handles.Validate(token)
		require.NoError(t, err, "scroll %d", i)
		assert.Equal(t, id, boundID)

		_, err = svc.LoadMore(ctx, id)
		require.NoError(t, err)
		handle, err := svc.Renew(id)
		require.NoError(t, err)
		assert.True(t, handle.ExpiresAt.Equal(now.Add(time.Minute)))
		token = handle.Token
		assert.Zero(t, svc.Sweep())
	}

	_, err = svc.handles.Validate(original)
	assert.ErrorIs(t, err, appErrors.ErrInvalidSessionKey)
	boundID, err := svc.handles.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, boundID)

	_, err = svc.Renew("missing")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestDiscoveryServiceValidatesFilter(t *testing.T) {
	svc := newTestDiscoveryService(newCatalogFetcher())

	_, err := svc.Create(context.Background(), models.DiscoveryFilter{SortKey: "popularity"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), models.DiscoveryFilter{Search: strings.Repeat("x", 101)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, svc.ActiveSessions())
}

func TestDiscoveryServiceDismissError(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.setFailure(0, appErrors.Clone(appErrors.ErrRemoteFetch, ""))
	svc := newTestDiscoveryService(fetcher)

	created, err := svc.Create(context.Background(), models.DiscoveryFilter{})
	require.NoError(t, err)
	assert.Equal(t, appErrors.ErrRemoteFetch.Message, created.Snapshot.Error)

	snap, err := svc.DismissError(created.Snapshot.SessionID)
	require.NoError(t, err)
	assert.Empty(t, snap.Error)
}

func TestDiscoveryServiceSweepExpiresIdleSessions(t *testing.T) {
	fetcher := newCatalogFetcher()
	svc := newTestDiscoveryService(fetcher)
	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	idle, err := svc.Create(context.Background(), models.DiscoveryFilter{})
	require.NoError(t, err)
	svc.now = func() time.Time { return base.Add(50 * time.Second) }
	active, err := svc.Create(context.Background(), models.DiscoveryFilter{})
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(90 * time.Second) }
	assert.Equal(t, 1, svc.Sweep())

	_, err = svc.Snapshot(idle.Snapshot.SessionID)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	_, err = svc.Snapshot(active.Snapshot.SessionID)
	assert.NoError(t, err)
}

func TestDiscoveryServiceCities(t *testing.T) {
	svc := newTestDiscoveryService(newCatalogFetcher())
	cities := svc.Cities()
	require.NotEmpty(t, cities)
	assert.Equal(t, "athens", cities[0].Key)
}
