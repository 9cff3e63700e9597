package models

import "strings"

// DateFilter narrows results to trainers available on a relative day.
type DateFilter string

const (
	DateAny      DateFilter = ""
	DateToday    DateFilter = "today"
	DateTomorrow DateFilter = "tomorrow"
	DateWeek     DateFilter = "week"
)

// CityAll disables the city predicate.
const CityAll = "all"

// DiscoveryFilter is the full filter selection of the discovery screen.
type DiscoveryFilter struct {
	Search             string     `json:"search_term" validate:"max=100"`
	SortKey            SortKey    `json:"sort_key" validate:"omitempty,oneof=newest name experience rating"`
	Category           string     `json:"category" validate:"max=64"`
	OnlineOnly         bool       `json:"online_only"`
	ExcludeVacationing bool       `json:"exclude_vacationing"`
	DateFilter         DateFilter `json:"date_filter" validate:"omitempty,oneof=today tomorrow week"`
	City               string     `json:"city" validate:"max=64"`
}

// Normalized trims free text and fills the defaults the rest of the pipeline relies on.
func (f DiscoveryFilter) Normalized() DiscoveryFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = CategoryAll
	}
	f.City = strings.TrimSpace(f.City)
	if f.City == "" {
		f.City = CityAll
	}
	if f.SortKey == "" {
		f.SortKey = SortNewest
	}
	return f
}

// PageQuery projects the filter onto the remotely evaluable predicates.
func (f DiscoveryFilter) PageQuery(offset, limit int) TrainerPageQuery {
	return TrainerPageQuery{
		Category:   f.Category,
		OnlineOnly: f.OnlineOnly,
		Search:     f.Search,
		SortKey:    f.SortKey,
		Offset:     offset,
		Limit:      limit,
	}
}

// Pagination describes scroll progress of a discovery session.
type Pagination struct {
	PageSize     int  `json:"page_size"`
	RemoteOffset int  `json:"remote_offset"`
	Loaded       int  `json:"loaded"`
	HasMore      bool `json:"has_more"`
}

// DiscoverySnapshot is what a rendering layer needs: ordered rows plus loading state.
type DiscoverySnapshot struct {
	SessionID string          `json:"session_id"`
	Token     uint64          `json:"token"`
	Filter    DiscoveryFilter `json:"filter"`
	Trainers  []TrainerView   `json:"trainers"`
	HasMore   bool            `json:"has_more"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	Offset    int             `json:"-"`
	PageSize  int             `json:"-"`
}

// Pagination derives the envelope pagination block from the snapshot.
func (s DiscoverySnapshot) Pagination() *Pagination {
	return &Pagination{PageSize: s.PageSize, RemoteOffset: s.Offset, Loaded: len(s.Trainers), HasMore: s.HasMore}
}
