package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	bookingserrors "campus/internal/bookings/errors"
	"campus/internal/bookings/validator"
	roomserrors "campus/internal/rooms/errors"
	userserrors "campus/internal/users/errors"
	"campus/pkg/config"
	apperrors "campus/pkg/errors"
	"campus/pkg/logger"
	"campus/pkg/model"
	"campus/pkg/slotlock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roomR1 = "665f1c2ab1e4a2d3c4b5a601"
	userU1 = "665f1c2ab1e4a2d3c4b5a701"
	day    = "2024-05-01"
)

// fakeBookingRepository is a goroutine-safe in-memory store. slotReadDelay
// widens the window between the overlap read and the insert so races show up.
type fakeBookingRepository struct {
	mu            sync.Mutex
	bookings      map[string]*model.Booking
	nextID        int
	slotReadDelay time.Duration
	findViewsFunc func(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error)
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{bookings: map[string]*model.Booking{}}
}

func (f *fakeBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = fmt.Sprintf("%024x", f.nextID)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	f.bookings[b.ID] = &stored
	return nil
}

func (f *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookingRepository) FindViewByID(ctx context.Context, id string) (*model.BookingView, error) {
	b, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.BookingView{Booking: *b}, nil
}

func (f *fakeBookingRepository) FindViews(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error) {
	if f.findViewsFunc != nil {
		return f.findViewsFunc(ctx, filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BookingView
	for _, b := range f.bookings {
		if filter.UserID != "" && b.User.ID != filter.UserID {
			continue
		}
		if filter.Room != "" && b.Room != filter.Room {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, &model.BookingView{Booking: *b})
	}
	return out, nil
}

func (f *fakeBookingRepository) FindActiveBySlot(ctx context.Context, roomID, date string) ([]*model.Booking, error) {
	f.mu.Lock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.Room == roomID && b.Date == date && b.Status != model.StatusDeclined {
			c := *b
			out = append(out, &c)
		}
	}
	f.mu.Unlock()

	if f.slotReadDelay > 0 {
		time.Sleep(f.slotReadDelay)
	}
	return out, nil
}

func (f *fakeBookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	out := *b
	return &out, nil
}

func (f *fakeBookingRepository) Delete(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	delete(f.bookings, id)
	return b, nil
}

func (f *fakeBookingRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

func (f *fakeBookingRepository) active(roomID, date string) []*model.Booking {
	out, _ := f.FindActiveBySlot(context.Background(), roomID, date)
	return out
}

type mockRoomDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Room, error)
}

func (m *mockRoomDirectory) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	if id == roomR1 {
		return &model.Room{ID: roomR1, Name: "R1", Type: model.RoomTypeStudy, Capacity: 10}, nil
	}
	return nil, roomserrors.ErrNotFound
}

type mockUserDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.UserSnapshot, error)
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (*model.UserSnapshot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	if id == userU1 {
		return &model.UserSnapshot{ID: userU1, Name: "Ada", Surname: "Lovelace", Email: "ada@campus.example", Role: model.RoleStudent}, nil
	}
	return nil, userserrors.ErrNotFound
}

type publishedEvent struct {
	eventType string
	event     model.BookingEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, key string, event model.BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, event})
}

type fixture struct {
	svc   BookingService
	repo  *fakeBookingRepository
	rooms *mockRoomDirectory
	users *mockUserDirectory
	pub   *recordingPublisher
}

func newFixture(locker slotlock.Locker) *fixture {
	log := logger.Discard()
	cfg := &config.Config{
		Log:             log,
		LockWaitTimeout: 2 * time.Second,
	}
	if locker == nil {
		locker = slotlock.NewMemoryLocker()
	}
	f := &fixture{
		repo:  newFakeBookingRepository(),
		rooms: &mockRoomDirectory{},
		users: &mockUserDirectory{},
		pub:   &recordingPublisher{},
	}
	f.svc = NewBookingService(f.repo, f.rooms, f.users, locker, validator.NewBookingValidator(log), f.pub, cfg)
	return f
}

func request(start, end string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		User:      model.UserRef{ID: userU1},
		Room:      roomR1,
		Date:      day,
		StartTime: start,
		EndTime:   end,
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.StatusCode()
}

func assertNoOverlap(t *testing.T, bookings []*model.Booking) {
	t.Helper()
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			a, _ := bookings[i].Interval()
			b, _ := bookings[j].Interval()
			assert.False(t, a.Overlaps(b), "bookings %s and %s overlap", bookings[i].ID, bookings[j].ID)
		}
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(nil)

	req := request("09:00", "10:00")
	req.Purpose = "  Revision  "
	booking, err := f.svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, model.StatusPending, booking.Status)
	assert.Equal(t, "Revision", booking.Purpose)
	assert.Equal(t, "Ada", booking.User.Name)
	assert.Equal(t, "Lovelace", booking.User.Surname)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, model.EventBookingCreated, f.pub.events[0].eventType)
	assert.Equal(t, booking.ID, f.pub.events[0].event.BookingID)
}

func TestCreate_OverlapConflicts(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)

	cases := [][2]string{
		{"09:30", "10:30"},
		{"08:30", "09:01"},
		{"09:15", "09:45"},
		{"08:00", "11:00"},
		{"09:00", "10:00"},
	}
	for _, c := range cases {
		_, err := f.svc.Create(ctx, request(c[0], c[1]))
		assert.Equal(t, http.StatusConflict, statusOf(t, err), "%s-%s", c[0], c[1])
	}
	assert.Equal(t, 1, f.repo.count())
}

func TestCreate_AdjacentSlotsDoNotConflict(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, request("10:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, request("08:00", "09:00"))
	require.NoError(t, err)

	assert.Equal(t, 3, f.repo.count())
}

func TestCreate_OtherDateOrRoomDoesNotConflict(t *testing.T) {
	const roomR2 = "665f1c2ab1e4a2d3c4b5a602"
	f := newFixture(nil)
	f.rooms.findByIDFunc = func(ctx context.Context, id string) (*model.Room, error) {
		return &model.Room{ID: id}, nil
	}
	ctx := context.Background()

	_, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)

	other := request("09:00", "10:00")
	other.Date = "2024-05-02"
	_, err = f.svc.Create(ctx, other)
	require.NoError(t, err)

	other = request("09:00", "10:00")
	other.Room = roomR2
	_, err = f.svc.Create(ctx, other)
	require.NoError(t, err)
}

func TestCreate_DeclinedDoesNotBlock(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, first.ID, model.StatusDeclined)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, request("09:00", "10:00"))
	assert.NoError(t, err)
}

func TestCreate_AcceptedStillBlocks(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, first.ID, model.StatusAccepted)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, request("09:30", "10:30"))
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestCreate_MissingRoom(t *testing.T) {
	f := newFixture(nil)

	req := request("09:00", "10:00")
	req.Room = "665f1c2ab1e4a2d3c4b5a6ff"
	_, err := f.svc.Create(context.Background(), req)

	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.Zero(t, f.repo.count())
	assert.Empty(t, f.pub.events)
}

func TestCreate_MalformedRoomIDIsNotFound(t *testing.T) {
	f := newFixture(nil)
	f.rooms.findByIDFunc = func(ctx context.Context, id string) (*model.Room, error) {
		return nil, roomserrors.ErrInvalidID
	}

	req := request("09:00", "10:00")
	req.Room = "room-1"
	_, err := f.svc.Create(context.Background(), req)

	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestCreate_MissingUser(t *testing.T) {
	f := newFixture(nil)

	req := request("09:00", "10:00")
	req.User.ID = "665f1c2ab1e4a2d3c4b5a7ff"
	_, err := f.svc.Create(context.Background(), req)

	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.Contains(t, err.Error(), "User")
	assert.Zero(t, f.repo.count())
}

func TestCreate_ValidationRejectsBeforeLookups(t *testing.T) {
	f := newFixture(nil)
	looked := false
	f.rooms.findByIDFunc = func(ctx context.Context, id string) (*model.Room, error) {
		looked = true
		return nil, nil
	}

	for _, req := range []*model.CreateBookingRequest{
		request("10:00", "09:00"),
		request("9:00", "10:00"),
		{Room: roomR1, Date: day, StartTime: "09:00", EndTime: "10:00"},
	} {
		_, err := f.svc.Create(context.Background(), req)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	}
	assert.False(t, looked)
}

func TestCreate_DirectoryFailureIsInternal(t *testing.T) {
	f := newFixture(nil)
	f.users.findByIDFunc = func(ctx context.Context, id string) (*model.UserSnapshot, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.svc.Create(context.Background(), request("09:00", "10:00"))

	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestCreate_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(nil)
	f.repo.slotReadDelay = 5 * time.Millisecond

	slots := [][2]string{
		{"09:00", "10:00"}, {"09:30", "10:30"}, {"09:45", "11:00"}, {"08:30", "09:15"},
		{"10:00", "11:00"}, {"09:00", "10:00"}, {"10:30", "11:30"}, {"08:00", "09:00"},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created int
	for i := 0; i < 4; i++ {
		for _, s := range slots {
			wg.Add(1)
			go func(start, end string) {
				defer wg.Done()
				_, err := f.svc.Create(context.Background(), request(start, end))
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
					return
				}
				assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "unexpected error: %v", err)
			}(s[0], s[1])
		}
	}
	wg.Wait()

	active := f.repo.active(roomR1, day)
	assert.Equal(t, created, len(active))
	assert.GreaterOrEqual(t, created, 2)
	assertNoOverlap(t, active)
}

type stuckLocker struct{}

func (stuckLocker) Acquire(ctx context.Context, key string) (slotlock.Release, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("%w: %s", slotlock.ErrLockTimeout, key)
}

func TestCreate_LockTimeoutIsConflict(t *testing.T) {
	f := newFixture(stuckLocker{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.Create(ctx, request("09:00", "10:00"))

	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Contains(t, err.Error(), msgSlotBusy)
	assert.Zero(t, f.repo.count())
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, b.ID, model.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, updated.Status)

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, model.EventBookingStatusChanged, last.eventType)
	assert.Equal(t, model.StatusPending, last.event.PreviousStatus)
	assert.Equal(t, model.StatusAccepted, last.event.Status)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, b.ID, "Cancelled")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	stored, err := f.repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.UpdateStatus(context.Background(), "665f1c2ab1e4a2d3c4b5a999", model.StatusAccepted)

	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUpdateStatus_ReactivationRechecksSlot(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, first.ID, model.StatusDeclined)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, request("09:30", "10:30"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, first.ID, model.StatusAccepted)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	stored, err := f.repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, stored.Status)
	assertNoOverlap(t, f.repo.active(roomR1, day))
}

func TestUpdateStatus_ReactivationWhenSlotFree(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, b.ID, model.StatusDeclined)
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, b.ID, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, updated.Status)
}

func (f *fakeBookingRepository) seed(b model.Booking) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = fmt.Sprintf("%024x", f.nextID)
	f.bookings[b.ID] = &b
	return b.ID
}

func TestCreate_MalformedExistingBookingBlocksSlot(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	legacyID := f.repo.seed(model.Booking{
		User:      model.UserSnapshot{ID: userU1},
		Room:      roomR1,
		Date:      day,
		StartTime: "9:00",
		EndTime:   "10:00",
		Status:    model.StatusAccepted,
	})

	_, err := f.svc.Create(ctx, request("15:00", "16:00"))

	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, legacyID, appErr.Details["conflictingBooking"])
	assert.Equal(t, 1, f.repo.count())
}

func TestCreate_MalformedDeclinedBookingIsIgnored(t *testing.T) {
	f := newFixture(nil)
	f.repo.seed(model.Booking{
		User:      model.UserSnapshot{ID: userU1},
		Room:      roomR1,
		Date:      day,
		StartTime: "9:00",
		EndTime:   "10:00",
		Status:    model.StatusDeclined,
	})

	_, err := f.svc.Create(context.Background(), request("09:00", "10:00"))

	require.NoError(t, err)
}

func TestUpdateStatus_ReactivatingMalformedBookingIsBadRequest(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	id := f.repo.seed(model.Booking{
		User:      model.UserSnapshot{ID: userU1},
		Room:      roomR1,
		Date:      day,
		StartTime: "9:00",
		EndTime:   "10:00",
		Status:    model.StatusDeclined,
	})

	_, err := f.svc.UpdateStatus(ctx, id, model.StatusAccepted)

	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	stored, err := f.repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, stored.Status)
}

func TestDelete(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.ID))

	_, err = f.svc.GetByID(ctx, b.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	err = f.svc.Delete(ctx, b.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, model.EventBookingDeleted, last.eventType)
}

func TestDelete_FreesSlot(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, b.ID))

	_, err = f.svc.Create(ctx, request("09:00", "10:00"))
	assert.NoError(t, err)
}

func TestList_ValidatesFilter(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.List(ctx, model.BookingFilter{Status: "Cancelled"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.List(ctx, model.BookingFilter{Date: "May 1st"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	f.repo.findViewsFunc = func(ctx context.Context, filter model.BookingFilter) ([]*model.BookingView, error) {
		return nil, bookingserrors.ErrInvalidRoomID
	}
	_, err = f.svc.List(ctx, model.BookingFilter{Room: "nope"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestListByUser(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, request("11:00", "12:00"))
	require.NoError(t, err)

	views, err := f.svc.ListByUser(ctx, userU1)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = f.svc.ListByUser(ctx, "665f1c2ab1e4a2d3c4b5a7ff")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.svc.ListByUser(ctx, " ")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

// Room R1: book 09:00-10:00, fail 09:30-10:30, decline the first, then the
// second booking goes through.
func TestScenario_DeclineFreesOverlappingSlot(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, request("09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)

	_, err = f.svc.Create(ctx, request("09:30", "10:30"))
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Contains(t, err.Error(), msgSlotTaken)

	declined, err := f.svc.UpdateStatus(ctx, first.ID, model.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, declined.Status)

	second, err := f.svc.Create(ctx, request("09:30", "10:30"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, second.Status)

	active := f.repo.active(roomR1, day)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	types := make([]string, len(f.pub.events))
	for i, e := range f.pub.events {
		types[i] = e.eventType
	}
	sort.Strings(types)
	assert.Equal(t, []string{
		model.EventBookingCreated,
		model.EventBookingCreated,
		model.EventBookingStatusChanged,
	}, types)
}
