package repository

import (
	"context"
	"errors"
	"fmt"

	userserrors "campus/internal/users/errors"
	"campus/pkg/config"
	mongotx "campus/pkg/db/mongo"
	"campus/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

// UserRepository is a read-only view over the user store, which is owned by
// the account service.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.UserSnapshot, error)
	LookupRole(ctx context.Context, userID string) (string, bool, error)
}

// userDocument mirrors the fields of a stored user that bookings care about.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Email     string             `bson:"email"`
	Role      string             `bson:"role"`
}

func (d *userDocument) snapshot() *model.UserSnapshot {
	return &model.UserSnapshot{
		ID:      d.ID.Hex(),
		Name:    d.FirstName,
		Surname: d.LastName,
		Email:   d.Email,
		Role:    model.UserRole(d.Role),
	}
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) find(ctx context.Context, id string, projection bson.M) (*userDocument, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var doc userDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &doc, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.UserSnapshot, error) {
	doc, err := r.find(ctx, id, bson.M{"firstName": 1, "lastName": 1, "email": 1, "role": 1})
	if err != nil {
		return nil, err
	}
	return doc.snapshot(), nil
}

// LookupRole reports found=false for ids that are malformed or unknown.
func (r *mongoUserRepository) LookupRole(ctx context.Context, userID string) (string, bool, error) {
	doc, err := r.find(ctx, userID, bson.M{"role": 1})
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return "", false, nil
		}
		return "", false, err
	}
	return doc.Role, true, nil
}
