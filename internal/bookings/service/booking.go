package service

import (
	"context"
	"errors"

	bookingserrors "campus/internal/bookings/errors"
	"campus/internal/bookings/repository"
	"campus/internal/bookings/validator"
	"campus/internal/events"
	roomserrors "campus/internal/rooms/errors"
	userserrors "campus/internal/users/errors"
	"campus/pkg/config"
	apperrors "campus/pkg/errors"
	"campus/pkg/model"
	"campus/pkg/sanitizer"
	"campus/pkg/slotlock"
)

const (
	msgSlotTaken = "Room already booked for selected time slot"
	msgSlotBusy  = "slot is currently being booked, try again"
)

type BookingService interface {
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.BookingView, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error)
	ListByUser(ctx context.Context, userID string) ([]*model.BookingView, error)
}

type RoomDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.UserSnapshot, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     RoomDirectory
	users     UserDirectory
	locker    slotlock.Locker
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms RoomDirectory,
	users UserDirectory,
	locker slotlock.Locker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		users:     users,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.rooms.FindByID(ctx, req.Room); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", req.Room)
		}
		return nil, apperrors.Internal("Failed to look up room", err)
	}

	user, err := s.users.FindByID(ctx, req.User.ID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("User", req.User.ID)
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	booking := &model.Booking{
		User:      *user,
		Room:      req.Room,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   req.Purpose,
		Status:    model.StatusPending,
	}

	err = s.withSlotLock(ctx, booking.Room, booking.Date, func() error {
		if err := s.verifyAvailability(ctx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"room", booking.Room,
			"date", booking.Date,
			"start_time", booking.StartTime,
			"end_time", booking.EndTime,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room", booking.Room,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)
	s.publisher.Publish(ctx, model.EventBookingCreated, booking.ID, events.FromBooking(booking))
	return booking, nil
}

// UpdateStatus overwrites the status of a booking. Moving a declined booking
// back into an active status re-checks the slot, since the time may have been
// taken since it was declined.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	if err := s.validator.ValidateStatus(&model.UpdateStatusRequest{Status: status}); err != nil {
		return nil, apperrors.Validation("Invalid status value", map[string]any{
			"status":  string(status),
			"allowed": model.BookingStatuses,
		})
	}

	id = sanitizer.NormalizeID(id)
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, err)
	}

	var updated *model.Booking
	update := func() error {
		b, err := s.repo.UpdateStatus(ctx, id, status)
		if err != nil {
			return s.mapLookupError(id, err)
		}
		updated = b
		return nil
	}

	if !existing.Status.Active() && status.Active() {
		err = s.withSlotLock(ctx, existing.Room, existing.Date, func() error {
			if err := s.verifyAvailability(ctx, existing); err != nil {
				return err
			}
			return update()
		})
	} else {
		err = update()
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update booking status", "id", id, "status", status, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"previous_status", existing.Status,
		"status", updated.Status,
	)
	evt := events.FromBooking(updated)
	evt.PreviousStatus = existing.Status
	s.publisher.Publish(ctx, model.EventBookingStatusChanged, updated.ID, evt)
	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	id = sanitizer.NormalizeID(id)
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.mapLookupError(id, err)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publisher.Publish(ctx, model.EventBookingDeleted, deleted.ID, events.FromBooking(deleted))
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingView, error) {
	id = sanitizer.NormalizeID(id)
	view, err := s.repo.FindViewByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, err)
	}
	return view, nil
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error) {
	filter.Room = sanitizer.NormalizeID(filter.Room)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput("Invalid status value").WithDetails(map[string]any{
			"status":  string(filter.Status),
			"allowed": model.BookingStatuses,
		})
	}
	if filter.Date != "" {
		if _, err := model.ParseDate(filter.Date); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
	}

	views, err := s.repo.FindViews(ctx, filter)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidRoomID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return views, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]*model.BookingView, error) {
	userID = sanitizer.NormalizeID(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	views, err := s.repo.FindViews(ctx, model.BookingFilter{UserID: userID})
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for user", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return views, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.CreateBookingRequest) {
	req.User.ID = sanitizer.NormalizeID(req.User.ID)
	req.Room = sanitizer.NormalizeID(req.Room)
	req.Date = sanitizer.TrimAndNormalize(req.Date)
	req.StartTime = sanitizer.TrimAndNormalize(req.StartTime)
	req.EndTime = sanitizer.TrimAndNormalize(req.EndTime)
	req.Purpose = sanitizer.NormalizePurpose(req.Purpose)
}

// withSlotLock runs fn while holding the (room, date) lock.
func (s *bookingService) withSlotLock(ctx context.Context, roomID, date string, fn func() error) error {
	key := slotlock.Key(roomID, date)

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWaitTimeout)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, key)
	if err != nil {
		if errors.Is(err, slotlock.ErrLockTimeout) {
			return apperrors.Conflict(msgSlotBusy)
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "key", key, "error", releaseErr)
		}
	}()

	return fn()
}

// verifyAvailability fails with a conflict when an active booking other than
// b itself overlaps b's time range. An active booking whose stored times do
// not parse blocks the whole slot, since its range is unknown.
func (s *bookingService) verifyAvailability(ctx context.Context, b *model.Booking) error {
	want, err := b.Interval()
	if err != nil {
		return apperrors.Validation("Booking has malformed times", map[string]any{
			"startTime": b.StartTime,
			"endTime":   b.EndTime,
		})
	}

	existing, err := s.repo.FindActiveBySlot(ctx, b.Room, b.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, other := range existing {
		if other.ID != "" && other.ID == b.ID {
			continue
		}
		got, err := other.Interval()
		if err != nil {
			s.cfg.Log.Warn("Active booking has malformed times", "id", other.ID, "error", err)
		}
		if err != nil || want.Overlaps(got) {
			return apperrors.Conflict(msgSlotTaken).WithDetails(map[string]any{
				"conflictingBooking": other.ID,
				"startTime":          other.StartTime,
				"endTime":            other.EndTime,
			})
		}
	}
	return nil
}

func (s *bookingService) mapLookupError(id string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	return apperrors.Internal("Failed to access booking", err)
}
