package models

import "time"

// Trainer is the discovery projection of a trainer profile. It is read-only for this service.
type Trainer struct {
	ID                 string    `db:"id" bson:"_id" json:"id"`
	FullName           string    `db:"full_name" bson:"full_name" json:"full_name"`
	AvatarKey          *string   `db:"avatar_key" bson:"avatar_key,omitempty" json:"-"`
	Specialty          string    `db:"specialty" bson:"specialty" json:"specialty"`
	Location           string    `db:"location" bson:"location" json:"location"`
	IsOnline           bool      `db:"is_online" bson:"is_online" json:"is_online"`
	ExperienceYears    int       `db:"experience_years" bson:"experience_years" json:"experience_years"`
	CreatedAt          time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	VerificationDocKey *string   `db:"verification_doc_key" bson:"verification_doc_key,omitempty" json:"-"`
}

// Verified reports whether the trainer uploaded a verification document.
func (t Trainer) Verified() bool {
	return t.VerificationDocKey != nil && *t.VerificationDocKey != ""
}

// SortKey selects the ordering of discovery results.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortName       SortKey = "name"
	SortExperience SortKey = "experience"
	SortRating     SortKey = "rating"
)

// CategoryAll disables the specialty predicate.
const CategoryAll = "all"

// TrainerPageQuery holds the predicates a remote store can evaluate natively.
type TrainerPageQuery struct {
	Category   string  `json:"category"`
	OnlineOnly bool    `json:"online_only"`
	Search     string  `json:"search"`
	SortKey    SortKey `json:"sort_key"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

// HasCategory reports whether a concrete specialty was requested.
func (q TrainerPageQuery) HasCategory() bool {
	return q.Category != "" && q.Category != CategoryAll
}

// TrainerPage is one remote page. Exact is set when HasMore comes from the store rather than
// from the short-page heuristic.
type TrainerPage struct {
	Trainers []Trainer `json:"trainers"`
	HasMore  bool      `json:"has_more"`
	Exact    bool      `json:"exact"`
}
