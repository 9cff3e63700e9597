package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

const trainerColumns = "id, full_name, avatar_key, specialty, location, is_online, experience_years, created_at, verification_doc_key"

// Rating has no remote column; recency stands in for it and the client re-sorts.
var trainerSortClauses = map[models.SortKey]string{
	models.SortNewest:     "created_at DESC, id ASC",
	models.SortName:       "full_name ASC, id ASC",
	models.SortExperience: "experience_years DESC, id ASC",
	models.SortRating:     "created_at DESC, id ASC",
}

// TrainerRepository serves paged trainer listings.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository constructs a TrainerRepository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// ListPage returns one page of trainers. One extra row is requested so the page carries an
// exact has-more signal.
func (r *TrainerRepository) ListPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error) {
	base := "FROM trainers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if q.HasCategory() {
		conditions = append(conditions, fmt.Sprintf("specialty = $%d", len(args)+1))
		args = append(args, q.Category)
	}
	if q.OnlineOnly {
		conditions = append(conditions, "is_online = TRUE")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(location) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, pattern)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order, ok := trainerSortClauses[q.SortKey]
	if !ok {
		order = trainerSortClauses[models.SortNewest]
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 12
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", trainerColumns, base, order, limit+1, offset)
	var trainers []models.Trainer
	if err := r.db.SelectContext(ctx, &trainers, query, args...); err != nil {
		return models.TrainerPage{}, fmt.Errorf("list trainers: %w", err)
	}

	page := models.TrainerPage{Exact: true}
	if len(trainers) > limit {
		page.HasMore = true
		trainers = trainers[:limit]
	}
	if trainers == nil {
		trainers = []models.Trainer{}
	}
	page.Trainers = trainers
	return page, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
