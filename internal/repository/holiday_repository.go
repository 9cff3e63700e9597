package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// HolidayRepository reads trainer holiday ranges.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a HolidayRepository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListByTrainerIDs returns all holiday ranges of the given trainers.
func (r *HolidayRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.HolidayRange, error) {
	if len(trainerIDs) == 0 {
		return []models.HolidayRange{}, nil
	}
	const query = `SELECT id, trainer_id, start_date, end_date, reason FROM trainer_holidays WHERE trainer_id = ANY($1)`
	var holidays []models.HolidayRange
	if err := r.db.SelectContext(ctx, &holidays, query, pq.Array(trainerIDs)); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}
