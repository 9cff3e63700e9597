package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

type catalogFetcher struct {
	mu      sync.Mutex
	catalog map[string][]models.Trainer
	failAt  map[int]error
	gates   map[string]chan struct{}
	entered chan string
	queries []models.TrainerPageQuery
}

func newCatalogFetcher() *catalogFetcher {
	return &catalogFetcher{
		catalog: map[string][]models.Trainer{},
		failAt:  map[int]error{},
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 4),
	}
}

func (c *catalogFetcher) FetchPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error) {
	c.mu.Lock()
	c.queries = append(c.queries, q)
	gate := c.gates[q.Category]
	err := c.failAt[q.Offset]
	rows := c.catalog[q.Category]
	c.mu.Unlock()

	if gate != nil {
		c.entered <- q.Category
		<-gate
	}
	if err != nil {
		return models.TrainerPage{}, err
	}
	if q.Offset >= len(rows) {
		return models.TrainerPage{Trainers: []models.Trainer{}}, nil
	}
	end := q.Offset + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return models.TrainerPage{
		Trainers: append([]models.Trainer(nil), rows[q.Offset:end]...),
		HasMore:  end < len(rows),
		Exact:    true,
	}, nil
}

func (c *catalogFetcher) setFailure(offset int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failAt, offset)
		return
	}
	c.failAt[offset] = err
}

func (c *catalogFetcher) queryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func newTestPager(fetcher pageFetcher, rel *fakeRelations) *ScanPager {
	if rel == nil {
		rel = &fakeRelations{}
	}
	hydrator := NewHydrationService(rel.readers(), time.Hour, nil, nil)
	calc := NewDerivedValueCalculator(nil, 0, time.UTC, nil)
	filter := NewClientFilter(nil, time.UTC)
	return NewScanPager(fetcher, hydrator, calc, filter, PagerConfig{}, NewMetricsService(), nil)
}

func snapshotIDs(s models.DiscoverySnapshot) []string {
	return ids(s.Trainers)
}

func assertUnique(t *testing.T, snap models.DiscoverySnapshot) {
	t.Helper()
	seen := map[string]bool{}
	for _, v := range snap.Trainers {
		require.False(t, seen[v.ID], "duplicate trainer %s", v.ID)
		seen[v.ID] = true
	}
}

func TestScanPagerFirstLoadEndToEnd(t *testing.T) {
	source := &fakePageSource{trainers: makeTrainers(30, "yoga")}
	fetcher := NewTrainerFetcher(source, nil, nil, time.Second, 0, nil)
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	filter := models.DiscoveryFilter{Category: "yoga_instructor", OnlineOnly: true, Search: "", SortKey: models.SortNewest}
	res := pager.Reset(context.Background(), session, filter)

	require.Equal(t, OutcomeCommitted, res.Outcome)
	assert.LessOrEqual(t, res.Pages, 3)
	snap := session.Snapshot()
	assert.Len(t, snap.Trainers, 12)
	assert.True(t, snap.HasMore)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assertUnique(t, snap)

	require.NotEmpty(t, source.queries)
	q := source.queries[0]
	assert.Equal(t, "yoga_instructor", q.Category)
	assert.True(t, q.OnlineOnly)
	assert.Equal(t, models.SortNewest, q.SortKey)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 12, q.Limit)

	// two scrolls drain the remaining 18 rows
	scroll := NewScrollController(pager)
	res = scroll.OnSentinelVisible(context.Background(), session)
	require.Equal(t, OutcomeCommitted, res.Outcome)
	res = scroll.OnSentinelVisible(context.Background(), session)
	snap = session.Snapshot()
	assert.Len(t, snap.Trainers, 30)
	assert.False(t, snap.HasMore)
	assertUnique(t, snap)

	res = scroll.OnSentinelVisible(context.Background(), session)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
}

func TestScanPagerScansAheadForClientFilters(t *testing.T) {
	rows := makeTrainers(40, "c")
	for i := range rows {
		if i%4 != 0 {
			rows[i].Location = "Πάτρα"
		}
	}
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = rows
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	res := pager.Reset(context.Background(), session, models.DiscoveryFilter{City: "athens"})
	require.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, 4, res.Pages)

	snap := session.Snapshot()
	assert.Len(t, snap.Trainers, 10)
	assert.False(t, snap.HasMore)
	for _, v := range snap.Trainers {
		assert.Equal(t, "Αθήνα", v.Location)
	}
}

func TestScanPagerTerminatesWithoutMatches(t *testing.T) {
	rows := makeTrainers(100, "n")
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = rows
	pager := newTestPager(fetcher, nil)
	scroll := NewScrollController(pager)
	session := NewPagerSession()

	res := pager.Reset(context.Background(), session, models.DiscoveryFilter{City: "thessaloniki"})
	require.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, DefaultFirstLoadScan, res.Pages)
	assert.True(t, session.Snapshot().HasMore)

	triggers := 0
	for session.CanLoadMore() {
		triggers++
		require.Less(t, triggers, 10, "pager did not terminate")
		res = scroll.OnSentinelVisible(context.Background(), session)
		assert.LessOrEqual(t, res.Pages, DefaultScrollScan)
	}
	snap := session.Snapshot()
	assert.Empty(t, snap.Trainers)
	assert.NotNil(t, snap.Trainers)
	assert.False(t, snap.HasMore)
	assert.Equal(t, 9, fetcher.queryCount())
}

func TestScanPagerDeduplicatesShiftedPages(t *testing.T) {
	base := makeTrainers(18, "d")
	rows := append(append([]models.Trainer{}, base[:12]...), base[6:]...)
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = rows
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	pager.Reset(context.Background(), session, models.DiscoveryFilter{})
	NewScrollController(pager).OnSentinelVisible(context.Background(), session)

	snap := session.Snapshot()
	assertUnique(t, snap)
	assert.Len(t, snap.Trainers, 18)
	assert.False(t, snap.HasMore)
}

func TestScanPagerDiscardsSupersededLoad(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["slow"] = makeTrainers(12, "slow")
	fetcher.catalog["fast"] = makeTrainers(5, "fast")
	release := make(chan struct{})
	fetcher.gates["slow"] = release
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	slowDone := make(chan LoadResult, 1)
	go func() {
		slowDone <- pager.Reset(context.Background(), session, models.DiscoveryFilter{Category: "slow"})
	}()
	require.Equal(t, "slow", <-fetcher.entered)
	assert.True(t, session.Snapshot().Loading)

	// a scroll trigger must not overlap the in-flight load
	assert.Equal(t, OutcomeSkipped, NewScrollController(pager).OnSentinelVisible(context.Background(), session).Outcome)

	fast := pager.Reset(context.Background(), session, models.DiscoveryFilter{Category: "fast"})
	require.Equal(t, OutcomeCommitted, fast.Outcome)

	close(release)
	slow := <-slowDone
	assert.Equal(t, OutcomeStale, slow.Outcome)
	assert.Less(t, slow.Token, fast.Token)

	snap := session.Snapshot()
	assert.Equal(t, fast.Token, snap.Token)
	assert.Equal(t, "fast", snap.Filter.Category)
	assert.Len(t, snap.Trainers, 5)
	for _, id := range snapshotIDs(snap) {
		assert.Contains(t, id, "fast-")
	}
	assert.False(t, snap.Loading)
}

func TestScanPagerRapidFilterChangesCommitLastOnly(t *testing.T) {
	fetcher := newCatalogFetcher()
	gates := make([]chan struct{}, 3)
	for i := range gates {
		cat := fmt.Sprintf("c%d", i)
		fetcher.catalog[cat] = makeTrainers(3, cat)
		gates[i] = make(chan struct{})
		fetcher.gates[cat] = gates[i]
	}
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	results := make(chan LoadResult, 3)
	for i := range gates {
		cat := fmt.Sprintf("c%d", i)
		go func() {
			results <- pager.Reset(context.Background(), session, models.DiscoveryFilter{Category: cat})
		}()
		<-fetcher.entered
	}
	// resolve in reverse order so the oldest request finishes last
	for i := len(gates) - 1; i >= 0; i-- {
		close(gates[i])
		<-results
	}

	snap := session.Snapshot()
	require.Len(t, snap.Trainers, 3)
	assert.Equal(t, "c2", snap.Filter.Category)
	for _, id := range snapshotIDs(snap) {
		assert.Contains(t, id, "c2-")
	}
}

func TestScanPagerFailureKeepsCommittedResults(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = makeTrainers(30, "e")
	pager := newTestPager(fetcher, nil)
	scroll := NewScrollController(pager)
	session := NewPagerSession()

	pager.Reset(context.Background(), session, models.DiscoveryFilter{})
	require.Len(t, session.Snapshot().Trainers, 12)

	fetcher.setFailure(12, appErrors.WrapAs(errors.New("connection reset"), appErrors.ErrRemoteFetch, ""))
	res := scroll.OnSentinelVisible(context.Background(), session)
	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, appErrors.ErrRemoteFetch)

	snap := session.Snapshot()
	assert.Len(t, snap.Trainers, 12)
	assert.Equal(t, appErrors.ErrRemoteFetch.Message, snap.Error)
	assert.True(t, snap.HasMore)
	assert.False(t, snap.Loading)
	assert.Equal(t, 12, snap.Offset)

	session.DismissError()
	assert.Empty(t, session.Snapshot().Error)

	fetcher.setFailure(12, nil)
	res = scroll.OnSentinelVisible(context.Background(), session)
	require.Equal(t, OutcomeCommitted, res.Outcome)
	snap = session.Snapshot()
	assert.Len(t, snap.Trainers, 24)
	assertUnique(t, snap)
}

func TestScanPagerCommitsPagesBeforeMidLoadFailure(t *testing.T) {
	rows := makeTrainers(36, "m")
	for i := range rows {
		if i%4 != 0 {
			rows[i].Location = "Πάτρα"
		}
	}
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = rows
	fetcher.setFailure(12, errors.New("timeout"))
	pager := newTestPager(fetcher, nil)
	session := NewPagerSession()

	res := pager.Reset(context.Background(), session, models.DiscoveryFilter{City: "athens"})
	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 3, res.Added)

	snap := session.Snapshot()
	assert.Len(t, snap.Trainers, 3)
	assert.Equal(t, 12, snap.Offset)
	assert.NotEmpty(t, snap.Error)
}

func TestScanPagerHydrationFailureCommitsNothing(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = makeTrainers(5, "h")
	rel := &fakeRelations{reviewErr: errors.New("reviews down")}
	pager := newTestPager(fetcher, rel)
	session := NewPagerSession()

	res := pager.Reset(context.Background(), session, models.DiscoveryFilter{})
	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, appErrors.ErrHydration)

	snap := session.Snapshot()
	assert.Empty(t, snap.Trainers)
	assert.Equal(t, appErrors.ErrHydration.Message, snap.Error)
	assert.True(t, snap.HasMore)
}

func TestScanPagerRatingSortSpansWholeList(t *testing.T) {
	rows := makeTrainers(24, "r")
	rel := &fakeRelations{}
	for i, tr := range rows {
		rating := 2.0
		if i >= 12 {
			rating = 4.0
		}
		rel.reviews = append(rel.reviews, models.Review{TrainerID: tr.ID, Rating: rating})
	}
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = rows
	pager := newTestPager(fetcher, rel)
	session := NewPagerSession()

	pager.Reset(context.Background(), session, models.DiscoveryFilter{SortKey: models.SortRating})
	NewScrollController(pager).OnSentinelVisible(context.Background(), session)

	snap := session.Snapshot()
	require.Len(t, snap.Trainers, 24)
	assert.Equal(t, "r-12", snap.Trainers[0].ID)
	assert.Equal(t, "r-23", snap.Trainers[11].ID)
	assert.Equal(t, "r-00", snap.Trainers[12].ID)
	for i := 1; i < len(snap.Trainers); i++ {
		assert.GreaterOrEqual(t, snap.Trainers[i-1].Rating, snap.Trainers[i].Rating)
	}
}

func TestScanPagerPrefetchHookAndClose(t *testing.T) {
	fetcher := newCatalogFetcher()
	fetcher.catalog["all"] = makeTrainers(30, "p")
	pager := newTestPager(fetcher, nil)
	var next []models.TrainerPageQuery
	pager.OnCommitted(func(q models.TrainerPageQuery) { next = append(next, q) })
	session := NewPagerSession()

	pager.Reset(context.Background(), session, models.DiscoveryFilter{})
	require.Len(t, next, 1)
	assert.Equal(t, 12, next[0].Offset)

	session.Close()
	assert.False(t, session.CanLoadMore())
	assert.Empty(t, session.Snapshot().Trainers)
	assert.Equal(t, OutcomeSkipped, pager.Reset(context.Background(), session, models.DiscoveryFilter{}).Outcome)
}
