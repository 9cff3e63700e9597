package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday is one of the five working days a trainer can publish availability for.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

var weekdayOrder = map[Weekday]int{Monday: 1, Tuesday: 2, Wednesday: 3, Thursday: 4, Friday: 5}

// Order returns the position of the weekday in the working week, or 0 when unknown.
func (w Weekday) Order() int {
	return weekdayOrder[Weekday(strings.ToLower(string(w)))]
}

// WeekdayOf maps a calendar date onto the modelled weekdays. Weekends have no mapping.
func WeekdayOf(t time.Time) (Weekday, bool) {
	switch t.Weekday() {
	case time.Monday:
		return Monday, true
	case time.Tuesday:
		return Tuesday, true
	case time.Wednesday:
		return Wednesday, true
	case time.Thursday:
		return Thursday, true
	case time.Friday:
		return Friday, true
	}
	return "", false
}

// AvailabilitySlot is a recurring weekly window in which a trainer accepts sessions.
type AvailabilitySlot struct {
	ID        string  `db:"id" bson:"_id" json:"id"`
	TrainerID string  `db:"trainer_id" bson:"trainer_id" json:"trainer_id"`
	Weekday   Weekday `db:"weekday" bson:"weekday" json:"weekday"`
	StartTime string  `db:"start_time" bson:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" bson:"end_time" json:"end_time"`
	IsOnline  bool    `db:"is_online" bson:"is_online" json:"is_online"`
}

// DurationMinutes returns end minus start, or 0 when the times are unparsable or inverted.
func (s AvailabilitySlot) DurationMinutes() int {
	start, ok := clockMinutes(s.StartTime)
	if !ok {
		return 0
	}
	end, ok := clockMinutes(s.EndTime)
	if !ok || end <= start {
		return 0
	}
	return end - start
}

func clockMinutes(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// HolidayRange is an inclusive date range during which a trainer is away.
type HolidayRange struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	TrainerID string    `db:"trainer_id" bson:"trainer_id" json:"trainer_id"`
	StartDate time.Time `db:"start_date" bson:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" bson:"end_date" json:"end_date"`
	Reason    *string   `db:"reason" bson:"reason,omitempty" json:"reason,omitempty"`
}

// Covers reports whether day falls inside the range, both ends inclusive. Only calendar dates
// are compared.
func (h HolidayRange) Covers(day time.Time) bool {
	d := dateKey(day)
	return dateKey(h.StartDate) <= d && d <= dateKey(h.EndDate)
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Review carries only the rating; text is not needed for discovery.
type Review struct {
	TrainerID string  `db:"trainer_id" bson:"trainer_id" json:"trainer_id"`
	Rating    float64 `db:"rating" bson:"rating" json:"rating"`
}

// PriceOverrides maps a specialty code to the price charged for it.
type PriceOverrides map[string]float64

// Scan implements sql.Scanner for JSONB columns.
func (p *PriceOverrides) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("price overrides: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	out := PriceOverrides{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("price overrides: %w", err)
	}
	*p = out
	return nil
}

// Value implements driver.Valuer.
func (p PriceOverrides) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// PricingRule is the single pricing configuration of a trainer.
type PricingRule struct {
	TrainerID         string         `db:"trainer_id" bson:"trainer_id" json:"trainer_id"`
	BasePrice         float64        `db:"base_price" bson:"base_price" json:"base_price"`
	Currency          string         `db:"currency" bson:"currency" json:"currency"`
	OnlineDiscountPct float64        `db:"online_discount_pct" bson:"online_discount_pct" json:"online_discount_pct"`
	SpecialtyPrices   PriceOverrides `db:"specialty_prices" bson:"specialty_prices,omitempty" json:"specialty_prices,omitempty"`
}

// Booking statuses that count toward the typical session length.
const (
	BookingAccepted  = "accepted"
	BookingCompleted = "completed"
)

// Booking is the read-only slice of a booking consumed by discovery.
type Booking struct {
	ID              string    `db:"id" bson:"_id" json:"id"`
	TrainerID       string    `db:"trainer_id" bson:"trainer_id" json:"trainer_id"`
	DurationMinutes int       `db:"duration_minutes" bson:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" bson:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" bson:"created_at" json:"created_at"`
}
