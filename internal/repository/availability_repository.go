package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// AvailabilityRepository reads weekly availability slots.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTrainerIDs returns every slot owned by the given trainers, in no particular order.
func (r *AvailabilityRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.AvailabilitySlot, error) {
	if len(trainerIDs) == 0 {
		return []models.AvailabilitySlot{}, nil
	}
	const query = `SELECT id, trainer_id, weekday, start_time::text AS start_time, end_time::text AS end_time, is_online
		FROM trainer_availability WHERE trainer_id = ANY($1)`
	var slots []models.AvailabilitySlot
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(trainerIDs)); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}
