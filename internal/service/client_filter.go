package service

import (
	"sort"
	"time"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// ClientFilter applies the predicates a remote store cannot evaluate.
type ClientFilter struct {
	cities   *CityAliases
	location *time.Location
	now      func() time.Time
}

// NewClientFilter constructs a ClientFilter. Relative dates are evaluated in location.
func NewClientFilter(cities *CityAliases, location *time.Location) *ClientFilter {
	if cities == nil {
		cities = DefaultCityAliases()
	}
	if location == nil {
		location = time.UTC
	}
	return &ClientFilter{cities: cities, location: location, now: time.Now}
}

// Apply runs city, vacation, date and rating steps in that order. The input slice is never modified.
func (f *ClientFilter) Apply(views []models.TrainerView, filter models.DiscoveryFilter) []models.TrainerView {
	today := f.now().In(f.location)
	out := append([]models.TrainerView(nil), views...)

	if filter.City != "" && filter.City != models.CityAll {
		out = keep(out, func(v models.TrainerView) bool { return f.cities.Matches(v.Location, filter.City) })
	}
	if filter.ExcludeVacationing {
		out = keep(out, func(v models.TrainerView) bool { return !onHolidayOn(v.Holidays, today) })
	}
	switch filter.DateFilter {
	case models.DateToday, models.DateTomorrow:
		day := today
		if filter.DateFilter == models.DateTomorrow {
			day = today.AddDate(0, 0, 1)
		}
		weekday, ok := models.WeekdayOf(day)
		out = keep(out, func(v models.TrainerView) bool { return ok && hasSlotOn(v.Availability, weekday) })
	case models.DateWeek:
		out = keep(out, func(v models.TrainerView) bool { return len(v.Availability) > 0 })
	}
	if filter.SortKey == models.SortRating {
		out = SortByRating(out)
	}
	return out
}

// SortByRating returns a copy of views stable-sorted by rating, highest first.
func SortByRating(views []models.TrainerView) []models.TrainerView {
	out := append([]models.TrainerView(nil), views...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}

func keep(views []models.TrainerView, pred func(models.TrainerView) bool) []models.TrainerView {
	out := make([]models.TrainerView, 0, len(views))
	for _, v := range views {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func onHolidayOn(holidays []models.HolidayRange, day time.Time) bool {
	for _, h := range holidays {
		if h.Covers(day) {
			return true
		}
	}
	return false
}

func hasSlotOn(slots []models.AvailabilitySlot, weekday models.Weekday) bool {
	for _, s := range slots {
		if s.Weekday.Order() == weekday.Order() {
			return true
		}
	}
	return false
}
