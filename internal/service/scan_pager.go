package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

// Pager defaults.
const (
	DefaultPageSize      = 12
	DefaultFirstLoadScan = 5
	DefaultScrollScan    = 3
)

// OutcomeSkipped marks a trigger that did not start a load.
const OutcomeSkipped = "skipped"

type pageFetcher interface {
	FetchPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error)
}

type trainerHydrator interface {
	Hydrate(ctx context.Context, trainers []models.Trainer) ([]models.HydratedTrainer, error)
}

type viewBuilder interface {
	Build(ctx context.Context, batch []models.HydratedTrainer) []models.TrainerView
}

type batchFilter interface {
	Apply(views []models.TrainerView, filter models.DiscoveryFilter) []models.TrainerView
}

// PagerConfig holds the scan-ahead tunables.
type PagerConfig struct {
	PageSize      int
	FirstLoadScan int
	ScrollScan    int
}

func (c PagerConfig) withDefaults() PagerConfig {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.FirstLoadScan <= 0 {
		c.FirstLoadScan = DefaultFirstLoadScan
	}
	if c.ScrollScan <= 0 {
		c.ScrollScan = DefaultScrollScan
	}
	return c
}

// LoadResult summarises one scan-ahead load.
type LoadResult struct {
	Token   uint64
	Outcome string
	Added   int
	Pages   int
	Err     error
}

// PagerSession is the state of one accumulated result list. It is mutated only by ScanPager and
// only while the token that started the mutation is current.
type PagerSession struct {
	mu       sync.Mutex
	guard    *SessionGuard
	filter   models.DiscoveryFilter
	results  []models.TrainerView
	seen     map[string]struct{}
	offset   int
	hasMore  bool
	inFlight uint64
	errMsg   string
	closed   bool
}

// NewPagerSession returns an empty session with no load started.
func NewPagerSession() *PagerSession {
	return &PagerSession{
		guard:   NewSessionGuard(),
		filter:  models.DiscoveryFilter{}.Normalized(),
		results: []models.TrainerView{},
		seen:    map[string]struct{}{},
	}
}

// Snapshot copies what a rendering layer needs.
func (s *PagerSession) Snapshot() models.DiscoverySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.DiscoverySnapshot{
		Token:    s.guard.Current(),
		Filter:   s.filter,
		Trainers: append([]models.TrainerView{}, s.results...),
		HasMore:  s.hasMore,
		Loading:  s.inFlight != 0,
		Error:    s.errMsg,
		Offset:   s.offset,
	}
}

// CanLoadMore reports whether a scroll trigger would start a load.
func (s *PagerSession) CanLoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.inFlight == 0 && s.hasMore
}

// DismissError clears the error banner.
func (s *PagerSession) DismissError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// Close supersedes any in-flight load and drops the accumulated list.
func (s *PagerSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard.Close()
	s.closed = true
	s.inFlight = 0
	s.results = []models.TrainerView{}
	s.seen = map[string]struct{}{}
}

// ScanPager pulls remote pages until enough new filtered results accumulate.
type ScanPager struct {
	fetcher  pageFetcher
	hydrator trainerHydrator
	builder  viewBuilder
	filter   batchFilter
	cfg      PagerConfig
	metrics  *MetricsService
	logger   *zap.Logger
	prefetch func(models.TrainerPageQuery)
}

// NewScanPager wires the pipeline stages together.
func NewScanPager(fetcher pageFetcher, hydrator trainerHydrator, builder viewBuilder, filter batchFilter, cfg PagerConfig, metrics *MetricsService, logger *zap.Logger) *ScanPager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanPager{
		fetcher:  fetcher,
		hydrator: hydrator,
		builder:  builder,
		filter:   filter,
		cfg:      cfg.withDefaults(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Config returns the effective tunables.
func (p *ScanPager) Config() PagerConfig {
	return p.cfg
}

// OnCommitted registers a callback receiving the next remote query after a committed load that left
// more pages.
func (p *ScanPager) OnCommitted(fn func(models.TrainerPageQuery)) {
	p.prefetch = fn
}

// Reset discards the list, mints a new token and runs the first load for filter. A load already in
// flight under an older token keeps running but its results are discarded.
func (p *ScanPager) Reset(ctx context.Context, s *PagerSession, filter models.DiscoveryFilter) LoadResult {
	filter = filter.Normalized()

	s.mu.Lock()
	if s.closed {
		token := s.guard.Current()
		s.mu.Unlock()
		return LoadResult{Token: token, Outcome: OutcomeSkipped}
	}
	token := s.guard.Advance()
	s.filter = filter
	s.results = []models.TrainerView{}
	s.seen = map[string]struct{}{}
	s.offset = 0
	s.hasMore = true
	s.inFlight = token
	s.errMsg = ""
	s.mu.Unlock()

	return p.run(ctx, s, token, filter, 0, map[string]struct{}{}, p.cfg.FirstLoadScan)
}

// continueLoad runs one more load under the current token. It is a no-op while another load is in
// flight or once the remote source is exhausted.
func (p *ScanPager) continueLoad(ctx context.Context, s *PagerSession, maxPages int) LoadResult {
	s.mu.Lock()
	token := s.guard.Current()
	if s.closed || s.inFlight != 0 || !s.hasMore || token == 0 {
		s.mu.Unlock()
		return LoadResult{Token: token, Outcome: OutcomeSkipped}
	}
	s.inFlight = token
	filter, offset := s.filter, s.offset
	known := make(map[string]struct{}, len(s.seen))
	for id := range s.seen {
		known[id] = struct{}{}
	}
	s.mu.Unlock()

	return p.run(ctx, s, token, filter, offset, known, maxPages)
}

func (p *ScanPager) run(parent context.Context, s *PagerSession, token uint64, filter models.DiscoveryFilter, offset int, known map[string]struct{}, maxPages int) LoadResult {
	ctx, release := s.guard.Bind(parent, token)
	defer release()

	fresh := make([]models.TrainerView, 0, p.cfg.PageSize)
	more := true
	pages := 0
	var loadErr error

	for {
		pages++
		page, err := p.fetcher.FetchPage(ctx, filter.PageQuery(offset, p.cfg.PageSize))
		if !s.guard.IsCurrent(token) {
			return p.discard(s, token, pages)
		}
		if err != nil {
			loadErr = err
			break
		}

		views, err := p.process(ctx, page.Trainers, filter)
		if !s.guard.IsCurrent(token) {
			return p.discard(s, token, pages)
		}
		if err != nil {
			loadErr = err
			break
		}

		for _, v := range views {
			if _, dup := known[v.ID]; dup {
				continue
			}
			known[v.ID] = struct{}{}
			fresh = append(fresh, v)
		}
		offset += p.cfg.PageSize
		if !page.HasMore {
			more = false
		}
		if len(fresh) >= p.cfg.PageSize || !more || pages >= maxPages {
			break
		}
	}

	return p.commit(s, token, filter, fresh, offset, more, pages, loadErr)
}

func (p *ScanPager) process(ctx context.Context, trainers []models.Trainer, filter models.DiscoveryFilter) ([]models.TrainerView, error) {
	if len(trainers) == 0 {
		return []models.TrainerView{}, nil
	}
	hydrated, err := p.hydrator.Hydrate(ctx, trainers)
	if err != nil {
		return nil, err
	}
	return p.filter.Apply(p.builder.Build(ctx, hydrated), filter), nil
}

// commit publishes the load when its token is still current. Pages finished before a failure are kept
// and the offset points at the failed page so a retry resumes there.
func (p *ScanPager) commit(s *PagerSession, token uint64, filter models.DiscoveryFilter, fresh []models.TrainerView, offset int, more bool, pages int, loadErr error) LoadResult {
	s.mu.Lock()
	if !s.guard.IsCurrent(token) {
		s.mu.Unlock()
		return p.discard(s, token, pages)
	}

	added := 0
	for _, v := range fresh {
		if _, dup := s.seen[v.ID]; dup {
			continue
		}
		s.seen[v.ID] = struct{}{}
		s.results = append(s.results, v)
		added++
	}
	if filter.SortKey == models.SortRating {
		s.results = SortByRating(s.results)
	}
	s.offset = offset
	s.inFlight = 0
	if loadErr != nil {
		s.errMsg = appErrors.FromError(loadErr).Message
	} else {
		s.hasMore = more
		s.errMsg = ""
	}
	hasMore := s.hasMore
	s.mu.Unlock()

	if loadErr != nil {
		p.logger.Warn("discovery load failed",
			zap.Uint64("token", token), zap.Int("pages", pages), zap.Int("added", added), zap.Error(loadErr))
		p.metrics.RecordLoad(OutcomeFailed, pages)
		return LoadResult{Token: token, Outcome: OutcomeFailed, Added: added, Pages: pages, Err: loadErr}
	}

	p.logger.Debug("discovery load committed",
		zap.Uint64("token", token), zap.Int("pages", pages), zap.Int("added", added), zap.Bool("has_more", hasMore))
	p.metrics.RecordLoad(OutcomeCommitted, pages)
	if hasMore && p.prefetch != nil {
		p.prefetch(filter.PageQuery(offset, p.cfg.PageSize))
	}
	return LoadResult{Token: token, Outcome: OutcomeCommitted, Added: added, Pages: pages}
}

func (p *ScanPager) discard(s *PagerSession, token uint64, pages int) LoadResult {
	s.mu.Lock()
	if s.inFlight == token {
		s.inFlight = 0
	}
	s.mu.Unlock()

	p.logger.Debug("discarding stale discovery load", zap.Uint64("token", token), zap.Int("pages", pages))
	p.metrics.RecordLoad(OutcomeStale, pages)
	return LoadResult{Token: token, Outcome: OutcomeStale, Pages: pages}
}
