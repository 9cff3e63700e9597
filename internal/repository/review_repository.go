package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// ReviewRepository reads review ratings.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByTrainerIDs returns the ratings left for the given trainers.
func (r *ReviewRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.Review, error) {
	if len(trainerIDs) == 0 {
		return []models.Review{}, nil
	}
	const query = `SELECT trainer_id, rating::float8 AS rating FROM trainer_reviews WHERE trainer_id = ANY($1)`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, pq.Array(trainerIDs)); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
