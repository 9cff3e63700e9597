package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

type availabilityReader interface {
	ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.AvailabilitySlot, error)
}

type holidayReader interface {
	ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.HolidayRange, error)
}

type reviewReader interface {
	ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.Review, error)
}

type pricingReader interface {
	ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.PricingRule, error)
}

type bookingReader interface {
	ListRecentByTrainerIDs(ctx context.Context, trainerIDs []string, since time.Time) ([]models.Booking, error)
}

// RelationReaders groups the bulk readers of every related collection.
type RelationReaders struct {
	Availability availabilityReader
	Holidays     holidayReader
	Reviews      reviewReader
	Pricing      pricingReader
	Bookings     bookingReader
}

// HydrationService joins related collections onto trainer rows.
type HydrationService struct {
	readers  RelationReaders
	lookback time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewHydrationService constructs a HydrationService. lookback bounds how far back bookings are read.
func NewHydrationService(readers RelationReaders, lookback time.Duration, metrics *MetricsService, logger *zap.Logger) *HydrationService {
	if lookback <= 0 {
		lookback = 180 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HydrationService{readers: readers, lookback: lookback, metrics: metrics, logger: logger, now: time.Now}
}

// Hydrate returns one HydratedTrainer per input row, in input order. Any failed sub-fetch fails the
// whole batch.
func (s *HydrationService) Hydrate(ctx context.Context, trainers []models.Trainer) ([]models.HydratedTrainer, error) {
	if len(trainers) == 0 {
		return []models.HydratedTrainer{}, nil
	}
	start := time.Now()
	defer func() { s.metrics.ObserveHydration(time.Since(start)) }()

	ids := uniqueTrainerIDs(trainers)
	since := s.now().Add(-s.lookback)

	var (
		slots    []models.AvailabilitySlot
		holidays []models.HolidayRange
		reviews  []models.Review
		rules    []models.PricingRule
		bookings []models.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		slots, err = s.readers.Availability.ListByTrainerIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		holidays, err = s.readers.Holidays.ListByTrainerIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = s.readers.Reviews.ListByTrainerIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		rules, err = s.readers.Pricing.ListByTrainerIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		bookings, err = s.readers.Bookings.ListRecentByTrainerIDs(gctx, ids, since)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("hydration failed", zap.Int("trainers", len(ids)), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrHydration, "")
	}

	slotsBy := make(map[string][]models.AvailabilitySlot, len(ids))
	for _, slot := range slots {
		slotsBy[slot.TrainerID] = append(slotsBy[slot.TrainerID], slot)
	}
	holidaysBy := make(map[string][]models.HolidayRange, len(ids))
	for _, h := range holidays {
		holidaysBy[h.TrainerID] = append(holidaysBy[h.TrainerID], h)
	}
	reviewsBy := make(map[string][]models.Review, len(ids))
	for _, r := range reviews {
		reviewsBy[r.TrainerID] = append(reviewsBy[r.TrainerID], r)
	}
	rulesBy := make(map[string]*models.PricingRule, len(rules))
	for i := range rules {
		if _, exists := rulesBy[rules[i].TrainerID]; !exists {
			rule := rules[i]
			rulesBy[rule.TrainerID] = &rule
		}
	}
	bookingsBy := make(map[string][]models.Booking, len(ids))
	for _, b := range bookings {
		bookingsBy[b.TrainerID] = append(bookingsBy[b.TrainerID], b)
	}

	out := make([]models.HydratedTrainer, 0, len(trainers))
	for _, t := range trainers {
		h := models.HydratedTrainer{
			Trainer:      t,
			Availability: append([]models.AvailabilitySlot{}, slotsBy[t.ID]...),
			Holidays:     append([]models.HolidayRange{}, holidaysBy[t.ID]...),
			Reviews:      append([]models.Review{}, reviewsBy[t.ID]...),
			Bookings:     append([]models.Booking{}, bookingsBy[t.ID]...),
		}
		if rule, ok := rulesBy[t.ID]; ok {
			cp := *rule
			h.Pricing = &cp
		}
		sortAvailability(h.Availability)
		sortHolidays(h.Holidays)
		out = append(out, h)
	}
	return out, nil
}

func uniqueTrainerIDs(trainers []models.Trainer) []string {
	seen := make(map[string]struct{}, len(trainers))
	ids := make([]string, 0, len(trainers))
	for _, t := range trainers {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	return ids
}

// sortAvailability orders slots by weekday, then start time.
func sortAvailability(slots []models.AvailabilitySlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		oi, oj := slots[i].Weekday.Order(), slots[j].Weekday.Order()
		if oi != oj {
			return oi < oj
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// sortHolidays orders ranges by start date, most recent first.
func sortHolidays(holidays []models.HolidayRange) {
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].StartDate.After(holidays[j].StartDate)
	})
}
