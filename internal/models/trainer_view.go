package models

// HydratedTrainer is a trainer row joined with its related collections. Slices are never nil.
type HydratedTrainer struct {
	Trainer      Trainer
	Availability []AvailabilitySlot
	Holidays     []HolidayRange
	Reviews      []Review
	Pricing      *PricingRule
	Bookings     []Booking
}

// TrainerView is the fully enriched, transient row rendered by discovery clients.
type TrainerView struct {
	Trainer
	AvatarURL              string             `json:"avatar_url,omitempty"`
	Verified               bool               `json:"verified"`
	Availability           []AvailabilitySlot `json:"availability"`
	Holidays               []HolidayRange     `json:"holidays"`
	Rating                 float64            `json:"rating"`
	ReviewCount            int                `json:"review_count"`
	DisplayPrice           *float64           `json:"display_price,omitempty"`
	Currency               string             `json:"currency,omitempty"`
	TypicalDurationMinutes *int               `json:"typical_duration_minutes,omitempty"`
	OnVacation             bool               `json:"on_vacation"`
	NextVacation           *HolidayRange      `json:"next_vacation,omitempty"`
}
