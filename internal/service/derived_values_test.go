package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

type fakeSigner struct {
	err  error
	keys []string
}

func (f *fakeSigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/" + key + "?sig=1", nil
}

func strPtr(s string) *string { return &s }

func TestComputeDisplayPrice(t *testing.T) {
	rule := &models.PricingRule{
		BasePrice:         100,
		Currency:          "EUR",
		OnlineDiscountPct: 10,
		SpecialtyPrices:   models.PriceOverrides{"yoga_instructor": 80},
	}
	trainer := models.Trainer{Specialty: "yoga_instructor", IsOnline: true}

	price, currency := ComputeDisplayPrice(trainer, rule)
	require.NotNil(t, price)
	assert.InDelta(t, 72.0, *price, 1e-9)
	assert.Equal(t, "EUR", currency)

	price, _ = ComputeDisplayPrice(trainer, nil)
	assert.Nil(t, price)

	offline := models.Trainer{Specialty: "pilates", IsOnline: false}
	price, _ = ComputeDisplayPrice(offline, rule)
	require.NotNil(t, price)
	assert.InDelta(t, 100.0, *price, 1e-9)

	zeroOverride := &models.PricingRule{BasePrice: 50, SpecialtyPrices: models.PriceOverrides{"pilates": 0}}
	price, _ = ComputeDisplayPrice(offline, zeroOverride)
	require.NotNil(t, price)
	assert.InDelta(t, 50.0, *price, 1e-9)

	free := &models.PricingRule{BasePrice: 0}
	price, _ = ComputeDisplayPrice(offline, free)
	assert.Nil(t, price)

	fullDiscount := &models.PricingRule{BasePrice: 30, OnlineDiscountPct: 100}
	price, _ = ComputeDisplayPrice(trainer, fullDiscount)
	assert.Nil(t, price)
}

func TestComputeRating(t *testing.T) {
	rating, count := ComputeRating(nil)
	assert.Zero(t, rating)
	assert.Zero(t, count)

	rating, count = ComputeRating([]models.Review{{Rating: 4}, {Rating: 5}, {Rating: 5}})
	assert.InDelta(t, 14.0/3.0, rating, 1e-12)
	assert.Equal(t, 3, count)
}

func TestTypicalDurationFallbackChain(t *testing.T) {
	slots := []models.AvailabilitySlot{
		{Weekday: models.Monday, StartTime: "09:00:00", EndTime: "10:00:00"},
		{Weekday: models.Tuesday, StartTime: "09:00:00", EndTime: "10:30:00"},
	}
	got := TypicalDuration(nil, slots)
	require.NotNil(t, got)
	assert.Equal(t, 75, *got)

	bookings := []models.Booking{
		{DurationMinutes: 45, Status: models.BookingCompleted},
		{DurationMinutes: 60, Status: models.BookingAccepted},
		{DurationMinutes: 45, Status: models.BookingAccepted},
		{DurationMinutes: 90, Status: "cancelled"},
		{DurationMinutes: 90, Status: "cancelled"},
	}
	got = TypicalDuration(bookings, slots)
	require.NotNil(t, got)
	assert.Equal(t, 45, *got)

	invalid := []models.Booking{{DurationMinutes: 0, Status: models.BookingCompleted}, {DurationMinutes: -5, Status: models.BookingCompleted}}
	inverted := []models.AvailabilitySlot{{StartTime: "10:00", EndTime: "09:00"}}
	assert.Nil(t, TypicalDuration(invalid, inverted))
}

func TestModeOrMedianTieBreak(t *testing.T) {
	cases := []struct {
		name   string
		values []int
		want   int
	}{
		{"mode", []int{60, 45, 60, 30}, 60},
		{"tied modes pick smallest", []int{60, 90, 60, 90, 30}, 60},
		{"no repeat odd median", []int{90, 30, 45}, 45},
		{"no repeat even median rounds", []int{30, 45}, 38},
		{"single", []int{50}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := modeOrMedian(tc.values)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
	_, ok := modeOrMedian(nil)
	assert.False(t, ok)
}

func TestVacationStatus(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	require.NoError(t, err)
	today := time.Date(2026, 10, 19, 0, 30, 0, 0, athens)
	day := func(offset int) time.Time { return time.Date(2026, 10, 19+offset, 0, 0, 0, 0, time.UTC) }

	on, next := VacationStatus([]models.HolidayRange{{ID: "now", StartDate: day(-1), EndDate: day(1)}}, today)
	assert.True(t, on)
	assert.Nil(t, next)

	on, next = VacationStatus([]models.HolidayRange{
		{ID: "later", StartDate: day(20), EndDate: day(25)},
		{ID: "soon", StartDate: day(0), EndDate: day(2)},
		{ID: "past", StartDate: day(-30), EndDate: day(-20)},
	}, today)
	assert.True(t, on)
	require.NotNil(t, next)
	assert.Equal(t, "soon", next.ID)

	on, next = VacationStatus(nil, today)
	assert.False(t, on)
	assert.Nil(t, next)
}

func TestDerivedValueCalculatorBuild(t *testing.T) {
	signer := &fakeSigner{}
	calc := NewDerivedValueCalculator(signer, time.Minute, time.UTC, nil)
	calc.now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }

	batch := []models.HydratedTrainer{
		{
			Trainer: models.Trainer{ID: "a", AvatarKey: strPtr("avatars/a.png"), VerificationDocKey: strPtr("docs/a.pdf"), Specialty: "yoga_instructor", IsOnline: true},
			Reviews: []models.Review{{Rating: 5}, {Rating: 3}},
			Pricing: &models.PricingRule{BasePrice: 100, Currency: "EUR", OnlineDiscountPct: 10, SpecialtyPrices: models.PriceOverrides{"yoga_instructor": 80}},
		},
		{Trainer: models.Trainer{ID: "b", AvatarKey: strPtr("https://img.example/b.png")}},
	}
	views := calc.Build(context.Background(), batch)
	require.Len(t, views, 2)

	a := views[0]
	assert.Equal(t, "https://cdn.example/avatars/a.png?sig=1", a.AvatarURL)
	assert.True(t, a.Verified)
	assert.Equal(t, 4.0, a.Rating)
	assert.Equal(t, 2, a.ReviewCount)
	require.NotNil(t, a.DisplayPrice)
	assert.InDelta(t, 72.0, *a.DisplayPrice, 1e-9)
	assert.Nil(t, a.TypicalDurationMinutes)
	assert.NotNil(t, a.Availability)

	b := views[1]
	assert.Equal(t, "https://img.example/b.png", b.AvatarURL)
	assert.False(t, b.Verified)
	assert.Nil(t, b.DisplayPrice)
	assert.Equal(t, []string{"avatars/a.png"}, signer.keys)
}

func TestDerivedValueCalculatorPresignFailureLeavesURLEmpty(t *testing.T) {
	calc := NewDerivedValueCalculator(&fakeSigner{err: errors.New("no credentials")}, 0, nil, nil)

	views := calc.Build(context.Background(), []models.HydratedTrainer{{Trainer: models.Trainer{ID: "a", AvatarKey: strPtr("avatars/a.png")}}})
	require.Len(t, views, 1)
	assert.Empty(t, views[0].AvatarURL)
}
