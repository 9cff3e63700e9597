package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

const (
	trainersCollection     = "trainers"
	availabilityCollection = "trainer_availability"
	holidaysCollection     = "trainer_holidays"
	reviewsCollection      = "trainer_reviews"
	pricingCollection      = "trainer_pricing"
	bookingsCollection     = "bookings"

	defaultPageLimit = 12
)

// Store groups the document-store repositories used by discovery.
type Store struct {
	Trainers     *TrainerRepository
	Availability *AvailabilityRepository
	Holidays     *HolidayRepository
	Reviews      *ReviewRepository
	Pricing      *PricingRepository
	Bookings     *BookingRepository
}

// NewStore binds every repository to db.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		Trainers:     &TrainerRepository{collection: db.Collection(trainersCollection)},
		Availability: &AvailabilityRepository{collection: db.Collection(availabilityCollection)},
		Holidays:     &HolidayRepository{collection: db.Collection(holidaysCollection)},
		Reviews:      &ReviewRepository{collection: db.Collection(reviewsCollection)},
		Pricing:      &PricingRepository{collection: db.Collection(pricingCollection)},
		Bookings:     &BookingRepository{collection: db.Collection(bookingsCollection)},
	}
}

// TrainerRepository pages through trainer documents.
type TrainerRepository struct {
	collection *mongo.Collection
}

// ListPage fetches one page plus a look-ahead document to report HasMore exactly.
func (r *TrainerRepository) ListPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(trainerSort(q.SortKey)).
		SetSkip(int64(offset)).
		SetLimit(int64(limit + 1))

	var trainers []models.Trainer
	if err := findAll(ctx, r.collection, trainerFilter(q), &trainers, opts); err != nil {
		return models.TrainerPage{}, fmt.Errorf("list trainers: %w", err)
	}
	page := models.TrainerPage{Trainers: trainers, Exact: true}
	if len(trainers) > limit {
		page.Trainers = trainers[:limit]
		page.HasMore = true
	}
	if page.Trainers == nil {
		page.Trainers = []models.Trainer{}
	}
	return page, nil
}

// AvailabilityRepository reads availability slot documents.
type AvailabilityRepository struct {
	collection *mongo.Collection
}

// ListByTrainerIDs returns the slots of the given trainers.
func (r *AvailabilityRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.AvailabilitySlot, error) {
	out := []models.AvailabilitySlot{}
	if len(trainerIDs) == 0 {
		return out, nil
	}
	if err := findAll(ctx, r.collection, byTrainerIDs(trainerIDs), &out); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return out, nil
}

// HolidayRepository reads holiday range documents.
type HolidayRepository struct {
	collection *mongo.Collection
}

// ListByTrainerIDs returns the holiday ranges of the given trainers.
func (r *HolidayRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.HolidayRange, error) {
	out := []models.HolidayRange{}
	if len(trainerIDs) == 0 {
		return out, nil
	}
	if err := findAll(ctx, r.collection, byTrainerIDs(trainerIDs), &out); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return out, nil
}

// ReviewRepository reads review ratings.
type ReviewRepository struct {
	collection *mongo.Collection
}

// ListByTrainerIDs returns the ratings of the given trainers.
func (r *ReviewRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.Review, error) {
	out := []models.Review{}
	if len(trainerIDs) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"trainer_id": 1, "rating": 1})
	if err := findAll(ctx, r.collection, byTrainerIDs(trainerIDs), &out, opts); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

// PricingRepository reads pricing rule documents.
type PricingRepository struct {
	collection *mongo.Collection
}

// ListByTrainerIDs returns the pricing rules of the given trainers.
func (r *PricingRepository) ListByTrainerIDs(ctx context.Context, trainerIDs []string) ([]models.PricingRule, error) {
	out := []models.PricingRule{}
	if len(trainerIDs) == 0 {
		return out, nil
	}
	if err := findAll(ctx, r.collection, byTrainerIDs(trainerIDs), &out); err != nil {
		return nil, fmt.Errorf("list pricing: %w", err)
	}
	return out, nil
}

// BookingRepository reads booking documents.
type BookingRepository struct {
	collection *mongo.Collection
}

// ListRecentByTrainerIDs returns accepted or completed bookings created at or after since.
func (r *BookingRepository) ListRecentByTrainerIDs(ctx context.Context, trainerIDs []string, since time.Time) ([]models.Booking, error) {
	out := []models.Booking{}
	if len(trainerIDs) == 0 {
		return out, nil
	}
	filter := recentBookingsFilter(trainerIDs, since)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := findAll(ctx, r.collection, filter, &out, opts); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func recentBookingsFilter(trainerIDs []string, since time.Time) bson.M {
	filter := byTrainerIDs(trainerIDs)
	filter["status"] = bson.M{"$in": bson.A{models.BookingAccepted, models.BookingCompleted}}
	filter["created_at"] = bson.M{"$gte": since.UTC()}
	return filter
}

func findAll(ctx context.Context, collection *mongo.Collection, filter interface{}, dest interface{}, opts ...*options.FindOptions) error {
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, dest)
}

// EnsureIndexes creates the indexes the discovery queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byTrainer := mongo.IndexModel{Keys: bson.D{{Key: "trainer_id", Value: 1}}}
	plan := map[string][]mongo.IndexModel{
		trainersCollection: {
			{Keys: bson.D{{Key: "specialty", Value: 1}, {Key: "is_online", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "full_name", Value: 1}}},
			{Keys: bson.D{{Key: "experience_years", Value: -1}}},
		},
		availabilityCollection: {byTrainer},
		holidaysCollection:     {byTrainer},
		reviewsCollection:      {byTrainer},
		pricingCollection: {
			{Keys: bson.D{{Key: "trainer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "trainer_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, indexes := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
