package repository

import (
	"context"
	"fmt"
	"time"

	"campus/pkg/config"
	mongotx "campus/pkg/db/mongo"
	"campus/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Booking_history"

type HistoryRepository interface {
	// Record stores entry once. Recording an event id that is already
	// stored succeeds without changing anything.
	Record(ctx context.Context, entry *model.HistoryEntry) error
	FindByBooking(ctx context.Context, bookingID string) ([]*model.HistoryEntry, error)
}

type mongoHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHistoryRepository(cfg *config.Config) HistoryRepository {
	return &mongoHistoryRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoHistoryRepository) Record(ctx context.Context, entry *model.HistoryEntry) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to record history entry %s: %w", entry.EventID, err)
	}
	return nil
}

func (r *mongoHistoryRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.HistoryEntry, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "event.occurred_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"event.booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find history for booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	entries := []*model.HistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}
	return entries, nil
}
