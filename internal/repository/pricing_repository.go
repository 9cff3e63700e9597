package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// PricingRepository reads per-trainer pricing rules.
type PricingRepository struct {
	db *sqlx.DB
}

// NewPricingRepository constructs a PricingRepository.
func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// ListByTrainerIDs returns at most one rule per trainer.
func (r *PricingRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.PricingRule, error) {
	if len(trainerIDs) == 0 {
		return []models.PricingRule{}, nil
	}
	const query = `SELECT trainer_id, base_price::float8 AS base_price, currency, online_discount_pct::float8 AS online_discount_pct, specialty_prices
		FROM trainer_pricing WHERE trainer_id = ANY($1)`
	var rules []models.PricingRule
	if err := r.db.SelectContext(ctx, &rules, query, pq.Array(trainerIDs)); err != nil {
		return nil, fmt.Errorf("list pricing: %w", err)
	}
	return rules, nil
}
