package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// BookingRepository reads the booking history used to infer session lengths.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListRecentByTrainerIDs returns accepted or completed bookings created at or after since.
func (r *BookingRepository) ListRecentByTrainerIDs(ctx context.Context, trainerIDs []string, since time.Time) ([]models.Booking, error) {
	if len(trainerIDs) == 0 {
		return []models.Booking{}, nil
	}
	const query = `SELECT id, trainer_id, duration_minutes, status, created_at FROM bookings
		WHERE trainer_id = ANY($1) AND status IN ('accepted', 'completed') AND created_at >= $2
		ORDER BY created_at DESC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, pq.Array(trainerIDs), since.UTC()); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
