package repository

import (
	"context"
	"fmt"
	"time"

	"campus/pkg/config"
	"campus/pkg/model"
	"campus/pkg/slotlock"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LockCollectionName = "Booking_locks"

// lockCollection is the part of *mongo.Collection the locker uses.
type lockCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// MongoSlotLocker takes advisory locks by inserting a document keyed by the
// slot. The unique _id makes the insert fail while another holder exists.
type MongoSlotLocker struct {
	collection    lockCollection
	ttl           time.Duration
	retryInterval time.Duration
}

func NewMongoSlotLocker(cfg *config.Config) *MongoSlotLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoSlotLocker{
		collection:    db.Collection(LockCollectionName),
		ttl:           cfg.LockTTL,
		retryInterval: cfg.LockRetryInterval,
	}
}

func (l *MongoSlotLocker) Acquire(ctx context.Context, key string) (slotlock.Release, error) {
	token := uuid.NewString()

	err := slotlock.Poll(ctx, key, l.retryInterval, func(ctx context.Context) (bool, error) {
		now := time.Now().UTC()
		lock := model.BookingLock{
			ID:        key,
			Token:     token,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		}

		_, err := l.collection.InsertOne(ctx, lock)
		if err == nil {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return false, fmt.Errorf("failed to insert booking lock %s: %w", key, err)
		}

		// The TTL monitor only runs once a minute, so a holder that died
		// is cleared here as soon as its lease is over.
		if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}}); err != nil && ctx.Err() == nil {
			return false, fmt.Errorf("failed to clear stale booking lock %s: %w", key, err)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
		defer cancel()
		if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "token": token}); err != nil {
			return fmt.Errorf("failed to release booking lock %s: %w", key, err)
		}
		return nil
	}, nil
}
