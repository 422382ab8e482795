package service

import (
	"context"
	"errors"
	"fmt"

	"campus/internal/events"
	roomserrors "campus/internal/rooms/errors"
	"campus/internal/rooms/repository"
	"campus/internal/rooms/validator"
	"campus/pkg/config"
	apperrors "campus/pkg/errors"
	"campus/pkg/model"
	"campus/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const msgDuplicateRoom = "Room is already added"

type RoomService interface {
	AddRoom(ctx context.Context, room *model.Room) error
	AddManyRooms(ctx context.Context, rooms []*model.Room) error
	GetAllRooms(ctx context.Context) ([]*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	validator *validator.RoomValidator,
	publisher events.Publisher,
	cfg *config.Config,
) RoomService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &roomService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *roomService) AddRoom(ctx context.Context, room *model.Room) error {
	s.prepare(room)
	if err := s.validate(room); err != nil {
		return err
	}

	_, err := s.repo.FindByName(ctx, room.Name)
	switch {
	case err == nil:
		return apperrors.Conflict(msgDuplicateRoom)
	case !errors.Is(err, roomserrors.ErrNotFound):
		return apperrors.Internal("Failed to check room name", err)
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return apperrors.Conflict(msgDuplicateRoom)
		}
		s.cfg.Log.Error("Failed to create room", "name", room.Name, "error", err)
		return apperrors.Internal("Failed to add room", err)
	}

	s.cfg.Log.Info("Room created successfully", "id", room.ID, "name", room.Name)
	s.publishCreated(ctx, room)
	return nil
}

// AddManyRooms inserts the whole batch or nothing.
func (s *roomService) AddManyRooms(ctx context.Context, rooms []*model.Room) error {
	if len(rooms) == 0 {
		return apperrors.InvalidInput("Request body must be a non-empty array")
	}

	seen := make(map[string]int, len(rooms))
	names := make([]string, 0, len(rooms))
	for i, room := range rooms {
		if room == nil {
			return apperrors.InvalidInput(fmt.Sprintf("Room at index %d is empty", i))
		}
		s.prepare(room)
		if err := s.validator.Validate(room); err != nil {
			return apperrors.Validation(fmt.Sprintf("Room at index %d is invalid", i), map[string]any{"error": err.Error(), "index": i})
		}
		if first, dup := seen[room.Name]; dup {
			return apperrors.Conflict(msgDuplicateRoom).WithDetails(map[string]any{
				"name":    room.Name,
				"indexes": []int{first, i},
			})
		}
		seen[room.Name] = i
		names = append(names, room.Name)
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByNames(sessCtx, names)
		if err != nil {
			return apperrors.Internal("Failed to check room names", err)
		}
		if len(existing) > 0 {
			taken := make([]string, len(existing))
			for i, r := range existing {
				taken[i] = r.Name
			}
			return apperrors.Conflict(msgDuplicateRoom).WithDetails(map[string]any{"names": taken})
		}

		if err := s.repo.CreateMany(sessCtx, rooms); err != nil {
			if errors.Is(err, roomserrors.ErrDuplicateName) {
				return apperrors.Conflict(msgDuplicateRoom)
			}
			return apperrors.Internal("Failed to add rooms", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create rooms", "count", len(rooms), "error", err)
		return err
	}

	s.cfg.Log.Info("Rooms created successfully", "count", len(rooms))
	for _, room := range rooms {
		s.publishCreated(ctx, room)
	}
	return nil
}

func (s *roomService) GetAllRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}
	return rooms, nil
}

// --- Helpers ---

func (s *roomService) prepare(room *model.Room) {
	room.ID = ""
	room.Name = sanitizer.NormalizeRoomName(room.Name)
	room.Location = sanitizer.NormalizeLocation(room.Location)
	room.Type = model.RoomType(sanitizer.MatchFold(string(room.Type), roomTypeNames()))
	room.ApplyDefaults()
}

func roomTypeNames() []string {
	names := make([]string, len(model.RoomTypes))
	for i, t := range model.RoomTypes {
		names[i] = string(t)
	}
	return names
}

func (s *roomService) validate(room *model.Room) error {
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *roomService) publishCreated(ctx context.Context, room *model.Room) {
	s.publisher.Publish(ctx, model.EventRoomCreated, room.ID, model.BookingEvent{RoomID: room.ID})
}
