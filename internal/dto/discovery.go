package dto

import "github.com/noah-isme/trainer-discovery-api/internal/models"

// DiscoveryFilterRequest is the filter selection sent by the discovery screen.
type DiscoveryFilterRequest struct {
	SearchTerm         string `json:"searchTerm"`
	SortKey            string `json:"sortKey"`
	Category           string `json:"category"`
	OnlineOnly         bool   `json:"onlineOnly"`
	ExcludeVacationing bool   `json:"excludeVacationing"`
	DateFilter         string `json:"dateFilter"`
	City               string `json:"city"`
}

// ToFilter converts the request into the domain filter.
func (r DiscoveryFilterRequest) ToFilter() models.DiscoveryFilter {
	return models.DiscoveryFilter{
		Search:             r.SearchTerm,
		SortKey:            models.SortKey(r.SortKey),
		Category:           r.Category,
		OnlineOnly:         r.OnlineOnly,
		ExcludeVacationing: r.ExcludeVacationing,
		DateFilter:         models.DateFilter(r.DateFilter),
		City:               r.City,
	}
}

// FilterRequestFrom mirrors a domain filter back into its wire form.
func FilterRequestFrom(f models.DiscoveryFilter) DiscoveryFilterRequest {
	return DiscoveryFilterRequest{
		SearchTerm:         f.Search,
		SortKey:            string(f.SortKey),
		Category:           f.Category,
		OnlineOnly:         f.OnlineOnly,
		ExcludeVacationing: f.ExcludeVacationing,
		DateFilter:         string(f.DateFilter),
		City:               f.City,
	}
}

// DiscoverySessionResponse is the rendering payload of a discovery session.
type DiscoverySessionResponse struct {
	SessionID string                 `json:"sessionId"`
	Token     uint64                 `json:"token"`
	Filter    DiscoveryFilterRequest `json:"filter"`
	Trainers  []models.TrainerView   `json:"trainers"`
	More      bool                   `json:"more"`
	Loading   bool                   `json:"loading"`
	Error     *string                `json:"error"`
	Handle    *models.SessionHandle  `json:"handle,omitempty"`
}

// NewDiscoverySessionResponse builds the response from a snapshot.
func NewDiscoverySessionResponse(snap models.DiscoverySnapshot) DiscoverySessionResponse {
	resp := DiscoverySessionResponse{
		SessionID: snap.SessionID,
		Token:     snap.Token,
		Filter:    FilterRequestFrom(snap.Filter),
		Trainers:  snap.Trainers,
		More:      snap.HasMore,
		Loading:   snap.Loading,
	}
	if resp.Trainers == nil {
		resp.Trainers = []models.TrainerView{}
	}
	if snap.Error != "" {
		msg := snap.Error
		resp.Error = &msg
	}
	return resp
}

// CityOption is one entry of the city selector.
type CityOption struct {
	Key       string   `json:"key"`
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}
