package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "campus/internal/bookings/errors"
	roomsrepository "campus/internal/rooms/repository"
	"campus/pkg/config"
	mongotx "campus/pkg/db/mongo"
	"campus/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindViewByID(ctx context.Context, id string) (*model.BookingView, error)
	FindViews(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error)
	// FindActiveBySlot returns every non-declined booking of a room on a date.
	FindActiveBySlot(ctx context.Context, roomID, date string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, id string) (*model.Booking, error)
}

// bookingDocument is the stored shape of a booking. The room reference is
// kept as an ObjectID so it can be joined against Rooms.
type bookingDocument struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	User      model.UserSnapshot  `bson:"user"`
	Room      primitive.ObjectID  `bson:"room"`
	Date      string              `bson:"date"`
	StartTime string              `bson:"startTime"`
	EndTime   string              `bson:"endTime"`
	Purpose   string              `bson:"purpose"`
	Status    model.BookingStatus `bson:"status"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

type bookingViewDocument struct {
	Booking     bookingDocument    `bson:",inline"`
	RoomDetails *model.RoomDetails `bson:"roomDetails,omitempty"`
}

func (d *bookingDocument) toModel() *model.Booking {
	return &model.Booking{
		ID:        d.ID.Hex(),
		User:      d.User,
		Room:      d.Room.Hex(),
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Purpose:   d.Purpose,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d *bookingViewDocument) toModel() *model.BookingView {
	return &model.BookingView{
		Booking:     *d.Booking.toModel(),
		RoomDetails: d.RoomDetails,
	}
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	roomID, err := primitive.ObjectIDFromHex(booking.Room)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidRoomID, booking.Room)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	doc := bookingDocument{
		User:      booking.User,
		Room:      roomID,
		Date:      booking.Date,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Purpose:   booking.Purpose,
		Status:    booking.Status,
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var doc bookingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoBookingRepository) FindViewByID(ctx context.Context, id string) (*model.BookingView, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	views, err := r.aggregateViews(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return views[0], nil
}

func (r *mongoBookingRepository) FindViews(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error) {
	match, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}
	return r.aggregateViews(ctx, match)
}

func (r *mongoBookingRepository) aggregateViews(ctx context.Context, match bson.M) ([]*model.BookingView, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, viewPipeline(match))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingViewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	views := make([]*model.BookingView, len(docs))
	for i := range docs {
		views[i] = docs[i].toModel()
	}
	return views, nil
}

// viewPipeline joins the room onto each matching booking. Bookings whose
// room was removed are kept with no room details.
func viewPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: roomsrepository.CollectionName},
			{Key: "localField", Value: "room"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "roomDetails"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$roomDetails"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

func buildFilter(filter model.BookingFilter) (bson.M, error) {
	match := bson.M{}
	if filter.Room != "" {
		roomID, err := primitive.ObjectIDFromHex(filter.Room)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidRoomID, filter.Room)
		}
		match["room"] = roomID
	}
	if filter.Date != "" {
		match["date"] = filter.Date
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	}
	if filter.UserID != "" {
		match["user.id"] = filter.UserID
	}
	return match, nil
}

func (r *mongoBookingRepository) FindActiveBySlot(ctx context.Context, roomID, date string) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidRoomID, roomID)
	}

	filter := bson.M{
		"room":   oid,
		"date":   date,
		"status": bson.M{"$ne": model.StatusDeclined},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings for slot: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	bookings := make([]*model.Booking, len(docs))
	for i := range docs {
		bookings[i] = docs[i].toModel()
	}
	return bookings, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var doc bookingDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}
	return doc.toModel(), nil
}
