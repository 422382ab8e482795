package mongo

import (
	"context"
	"fmt"

	auditrepo "campus/internal/audit/repository"
	bookingrepo "campus/internal/bookings/repository"
	"campus/internal/migrations/mongo/validators"
	roomrepo "campus/internal/rooms/repository"
	userrepo "campus/internal/users/repository"
	"campus/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	RoomsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_room_name").SetUnique(true),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room", Value: 1},
				{Key: "date", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("room_date_status"),
		},
		{
			Keys:    bson.D{{Key: "user.id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("user_date"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("status_date"),
		},
	}

	// expireAfterSeconds 0: a lock document expires at its own expires_at.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}

	BookingHistoryIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event.booking_id", Value: 1}, {Key: "event.occurred_at", Value: 1}},
			Options: options.Index().SetName("booking_occurred_at"),
		},
	}

	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_user_email").SetUnique(true),
		},
	}
)

// Collections lists every collection the booking services own or read, in
// creation order.
func Collections() []Collection {
	return []Collection{
		{Name: roomrepo.CollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: bookingrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: bookingrepo.LockCollectionName, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		{Name: auditrepo.CollectionName, Indexes: BookingHistoryIndexes, Validator: validators.BookingHistoryValidator},
		{Name: userrepo.CollectionName, Indexes: UsersIndexes, Validator: validators.UserValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
