package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	"github.com/noah-isme/trainer-discovery-api/pkg/storage"
)

// DerivedValueCalculator turns hydrated rows into display-ready trainer views.
type DerivedValueCalculator struct {
	signer   storage.ObjectURLSigner
	urlTTL   time.Duration
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewDerivedValueCalculator constructs a calculator. A nil signer leaves avatar URLs empty; a nil
// location means UTC.
func NewDerivedValueCalculator(signer storage.ObjectURLSigner, urlTTL time.Duration, location *time.Location, logger *zap.Logger) *DerivedValueCalculator {
	if urlTTL <= 0 {
		urlTTL = storage.DefaultURLTTL
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DerivedValueCalculator{signer: signer, urlTTL: urlTTL, location: location, now: time.Now, logger: logger}
}

// Build computes the derived fields of every row. It never fails; unresolvable avatars are left blank.
func (c *DerivedValueCalculator) Build(ctx context.Context, batch []models.HydratedTrainer) []models.TrainerView {
	today := c.now().In(c.location)
	views := make([]models.TrainerView, 0, len(batch))
	for _, h := range batch {
		rating, count := ComputeRating(h.Reviews)
		price, currency := ComputeDisplayPrice(h.Trainer, h.Pricing)
		onVacation, next := VacationStatus(h.Holidays, today)

		view := models.TrainerView{
			Trainer:                h.Trainer,
			AvatarURL:              c.avatarURL(ctx, h.Trainer),
			Verified:               h.Trainer.Verified(),
			Availability:           h.Availability,
			Holidays:               h.Holidays,
			Rating:                 rating,
			ReviewCount:            count,
			DisplayPrice:           price,
			Currency:               currency,
			TypicalDurationMinutes: TypicalDuration(h.Bookings, h.Availability),
			OnVacation:             onVacation,
			NextVacation:           next,
		}
		if view.Availability == nil {
			view.Availability = []models.AvailabilitySlot{}
		}
		if view.Holidays == nil {
			view.Holidays = []models.HolidayRange{}
		}
		views = append(views, view)
	}
	return views
}

func (c *DerivedValueCalculator) avatarURL(ctx context.Context, t models.Trainer) string {
	if t.AvatarKey == nil || *t.AvatarKey == "" {
		return ""
	}
	key := *t.AvatarKey
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	if c.signer == nil {
		return ""
	}
	url, err := c.signer.PresignGet(ctx, key, c.urlTTL)
	if err != nil {
		c.logger.Warn("avatar url resolution failed", zap.String("trainer_id", t.ID), zap.Error(err))
		return ""
	}
	return url
}

// ComputeRating returns the unrounded mean rating and the number of reviews.
func ComputeRating(reviews []models.Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return sum / float64(len(reviews)), len(reviews)
}

// ComputeDisplayPrice applies the specialty override and the online discount to the base price.
// A nil price means there is nothing to display.
func ComputeDisplayPrice(t models.Trainer, rule *models.PricingRule) (*float64, string) {
	if rule == nil {
		return nil, ""
	}
	price := rule.BasePrice
	if override, ok := rule.SpecialtyPrices[t.Specialty]; ok && override > 0 {
		price = override
	}
	if t.IsOnline && rule.OnlineDiscountPct > 0 {
		price = price * (1 - rule.OnlineDiscountPct/100)
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return nil, ""
	}
	return &price, rule.Currency
}

// TypicalDuration prefers accepted or completed booking durations and falls back to availability
// slot lengths. Nil when neither yields a positive value.
func TypicalDuration(bookings []models.Booking, slots []models.AvailabilitySlot) *int {
	durations := make([]int, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.BookingAccepted && b.Status != models.BookingCompleted {
			continue
		}
		if b.DurationMinutes > 0 {
			durations = append(durations, b.DurationMinutes)
		}
	}
	if v, ok := modeOrMedian(durations); ok {
		return &v
	}

	durations = durations[:0]
	for _, s := range slots {
		if d := s.DurationMinutes(); d > 0 {
			durations = append(durations, d)
		}
	}
	if v, ok := modeOrMedian(durations); ok {
		return &v
	}
	return nil
}

// modeOrMedian returns the most frequent value when some value repeats, the smallest such value on
// ties. Otherwise it returns the median, averaging the middle pair and rounding to the nearest minute.
func modeOrMedian(values []int) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	best, bestCount := 0, 1
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if count := j - i; count > bestCount {
			best, bestCount = sorted[i], count
		}
		i = j
	}
	if bestCount > 1 {
		return best, true
	}

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2)), true
}

// VacationStatus reports whether today falls inside any holiday range and returns the earliest range
// starting today or later.
func VacationStatus(holidays []models.HolidayRange, today time.Time) (bool, *models.HolidayRange) {
	onVacation := false
	var next *models.HolidayRange
	todayKey := civilDate(today)
	for i := range holidays {
		h := holidays[i]
		if h.Covers(today) {
			onVacation = true
		}
		if !civilDate(h.StartDate).Before(todayKey) {
			if next == nil || h.StartDate.Before(next.StartDate) {
				cp := h
				next = &cp
			}
		}
	}
	return onVacation, next
}

// civilDate drops the clock and zone of t, keeping the calendar date it shows.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
