package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

type discoverySession struct {
	id       string
	pager    *PagerSession
	lastSeen time.Time
}

// CreatedSession is returned when a discovery session is opened.
type CreatedSession struct {
	Snapshot models.DiscoverySnapshot `json:"snapshot"`
	Handle   models.SessionHandle     `json:"handle"`
}

// DiscoveryService owns the registry of discovery sessions and routes triggers to their pagers.
type DiscoveryService struct {
	pager     *ScanPager
	scroll    *ScrollController
	handles   *SessionHandleService
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*discoverySession
}

// NewDiscoveryService constructs a DiscoveryService.
func NewDiscoveryService(pager *ScanPager, handles *SessionHandleService, validate *validator.Validate, idleTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DiscoveryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &DiscoveryService{
		pager:     pager,
		scroll:    NewScrollController(pager),
		handles:   handles,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		idleTTL:   idleTTL,
		now:       time.Now,
		sessions:  make(map[string]*discoverySession),
	}
}

// Create opens a session and runs its first load.
func (s *DiscoveryService) Create(ctx context.Context, filter models.DiscoveryFilter) (*CreatedSession, error) {
	if err := s.validate(filter); err != nil {
		return nil, err
	}

	sess := &discoverySession{id: uuid.NewString(), pager: NewPagerSession(), lastSeen: s.now()}
	handle, err := s.handles.Issue(sess.id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(active)

	s.pager.Reset(context.WithoutCancel(ctx), sess.pager, filter)
	s.logger.Info("discovery session opened", zap.String("session_id", sess.id))
	return &CreatedSession{Snapshot: s.snapshot(sess), Handle: handle}, nil
}

// ApplyFilters resets the session to filter and reloads from the first remote page.
func (s *DiscoveryService) ApplyFilters(ctx context.Context, id string, filter models.DiscoveryFilter) (models.DiscoverySnapshot, error) {
	if err := s.validate(filter); err != nil {
		return models.DiscoverySnapshot{}, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return models.DiscoverySnapshot{}, err
	}
	s.pager.Reset(context.WithoutCancel(ctx), sess.pager, filter)
	return s.snapshot(sess), nil
}

// LoadMore is the scroll sentinel and manual retry trigger. It returns the current snapshot even when
// no load was started.
func (s *DiscoveryService) LoadMore(ctx context.Context, id string) (models.DiscoverySnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return models.DiscoverySnapshot{}, err
	}
	s.scroll.OnSentinelVisible(context.WithoutCancel(ctx), sess.pager)
	return s.snapshot(sess), nil
}

// Renew reissues the session handle so its expiry slides with activity like lastSeen does.
func (s *DiscoveryService) Renew(id string) (models.SessionHandle, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return models.SessionHandle{}, err
	}
	return s.handles.Issue(sess.id)
}

// Snapshot returns the session's visible state.
func (s *DiscoveryService) Snapshot(id string) (models.DiscoverySnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return models.DiscoverySnapshot{}, err
	}
	return s.snapshot(sess), nil
}

// DismissError clears the session's error banner.
func (s *DiscoveryService) DismissError(id string) (models.DiscoverySnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return models.DiscoverySnapshot{}, err
	}
	sess.pager.DismissError()
	return s.snapshot(sess), nil
}

// Close removes the session; loads still in flight are discarded.
func (s *DiscoveryService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	active := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return appErrors.ErrSessionNotFound
	}
	sess.pager.Close()
	s.metrics.SetActiveSessions(active)
	s.logger.Info("discovery session closed", zap.String("session_id", id))
	return nil
}

// Sweep closes sessions idle for longer than the configured TTL and returns how many were removed.
func (s *DiscoveryService) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)
	var expired []*discoverySession

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.pager.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("expired idle discovery sessions", zap.Int("count", len(expired)))
	}
	s.metrics.SetActiveSessions(active)
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *DiscoveryService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// ActiveSessions returns the registry size.
func (s *DiscoveryService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cities lists the selectable cities of the city filter.
func (s *DiscoveryService) Cities() []CityEntry {
	if f, ok := s.pager.filter.(*ClientFilter); ok {
		return f.cities.Entries()
	}
	return DefaultCityAliases().Entries()
}

func (s *DiscoveryService) lookup(id string) (*discoverySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *DiscoveryService) snapshot(sess *discoverySession) models.DiscoverySnapshot {
	snap := sess.pager.Snapshot()
	snap.SessionID = sess.id
	snap.PageSize = s.pager.Config().PageSize
	return snap
}

func (s *DiscoveryService) validate(filter models.DiscoveryFilter) error {
	if err := s.validator.Struct(filter); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discovery filter")
	}
	return nil
}
