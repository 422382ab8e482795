package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	roomserrors "campus/internal/rooms/errors"
	"campus/internal/rooms/validator"
	"campus/pkg/config"
	mongotx "campus/pkg/db/mongo"
	apperrors "campus/pkg/errors"
	"campus/pkg/logger"
	"campus/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeRoomRepository keeps rooms in memory. Transactions run the callback
// against a copy and commit it only when the callback succeeds.
type fakeRoomRepository struct {
	rooms       []*model.Room
	nextID      int
	findAllFunc func(ctx context.Context) ([]*model.Room, error)
}

func (f *fakeRoomRepository) Create(ctx context.Context, room *model.Room) error {
	for _, r := range f.rooms {
		if r.Name == room.Name {
			return roomserrors.ErrDuplicateName
		}
	}
	f.nextID++
	room.ID = fmt.Sprintf("%024x", f.nextID)
	f.rooms = append(f.rooms, room)
	return nil
}

func (f *fakeRoomRepository) CreateMany(ctx context.Context, rooms []*model.Room) error {
	for _, room := range rooms {
		if err := f.Create(ctx, room); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	for _, r := range f.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, roomserrors.ErrNotFound
}

func (f *fakeRoomRepository) FindByName(ctx context.Context, name string) (*model.Room, error) {
	for _, r := range f.rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, roomserrors.ErrNotFound
}

func (f *fakeRoomRepository) FindByNames(ctx context.Context, names []string) ([]*model.Room, error) {
	var out []*model.Room
	for _, n := range names {
		if r, err := f.FindByName(ctx, n); err == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	if f.findAllFunc != nil {
		return f.findAllFunc(ctx)
	}
	return f.rooms, nil
}

func (f *fakeRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	snapshot := append([]*model.Room(nil), f.rooms...)
	if err := fn(mongo.NewSessionContext(ctx, nil)); err != nil {
		f.rooms = snapshot
		return err
	}
	return nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, key string, event model.BookingEvent) {
	p.types = append(p.types, eventType)
}

func newTestService(repo *fakeRoomRepository, pub *recordingPublisher) RoomService {
	log := logger.Discard()
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewRoomService(repo, validator.NewRoomValidator(log), pub, cfg)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.StatusCode()
}

func TestAddRoom_AppliesDefaultsAndNormalizes(t *testing.T) {
	repo := &fakeRoomRepository{}
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)

	room := &model.Room{Name: "  Room   A ", Type: "study room"}
	require.NoError(t, svc.AddRoom(context.Background(), room))

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Room A", room.Name)
	assert.Equal(t, model.RoomTypeStudy, room.Type)
	assert.Equal(t, model.DefaultRoomLocation, room.Location)
	assert.Equal(t, model.DefaultRoomCapacity, room.Capacity)
	assert.Equal(t, []string{model.EventRoomCreated}, pub.types)
}

func TestAddRoom_DuplicateName(t *testing.T) {
	repo := &fakeRoomRepository{}
	svc := newTestService(repo, &recordingPublisher{})
	ctx := context.Background()

	require.NoError(t, svc.AddRoom(ctx, &model.Room{Name: "Room A", Type: model.RoomTypeStudy}))
	err := svc.AddRoom(ctx, &model.Room{Name: "Room  A", Type: model.RoomTypeLab})

	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Len(t, repo.rooms, 1)
}

func TestAddRoom_InvalidType(t *testing.T) {
	svc := newTestService(&fakeRoomRepository{}, &recordingPublisher{})

	err := svc.AddRoom(context.Background(), &model.Room{Name: "Room A", Type: "Ballroom"})

	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestAddManyRooms(t *testing.T) {
	t.Run("inserts all", func(t *testing.T) {
		repo := &fakeRoomRepository{}
		pub := &recordingPublisher{}
		svc := newTestService(repo, pub)

		rooms := []*model.Room{
			{Name: "Room A", Type: model.RoomTypeStudy},
			{Name: "Hall 1", Type: model.RoomTypeLectureHall, Capacity: 200},
		}
		require.NoError(t, svc.AddManyRooms(context.Background(), rooms))

		assert.Len(t, repo.rooms, 2)
		assert.Len(t, pub.types, 2)
		for _, r := range rooms {
			assert.NotEmpty(t, r.ID)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		err := newTestService(&fakeRoomRepository{}, &recordingPublisher{}).AddManyRooms(context.Background(), nil)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})

	t.Run("duplicate inside batch", func(t *testing.T) {
		repo := &fakeRoomRepository{}
		err := newTestService(repo, &recordingPublisher{}).AddManyRooms(context.Background(), []*model.Room{
			{Name: "Room A", Type: model.RoomTypeStudy},
			{Name: " Room A", Type: model.RoomTypeLab},
		})
		assert.Equal(t, http.StatusConflict, statusOf(t, err))
		assert.Empty(t, repo.rooms)
	})

	t.Run("duplicate against existing leaves store untouched", func(t *testing.T) {
		repo := &fakeRoomRepository{}
		svc := newTestService(repo, &recordingPublisher{})
		ctx := context.Background()
		require.NoError(t, svc.AddRoom(ctx, &model.Room{Name: "Room B", Type: model.RoomTypeStudy}))

		err := svc.AddManyRooms(ctx, []*model.Room{
			{Name: "Room A", Type: model.RoomTypeStudy},
			{Name: "Room B", Type: model.RoomTypeStudy},
		})
		assert.Equal(t, http.StatusConflict, statusOf(t, err))
		assert.Len(t, repo.rooms, 1)
	})

	t.Run("invalid element", func(t *testing.T) {
		repo := &fakeRoomRepository{}
		err := newTestService(repo, &recordingPublisher{}).AddManyRooms(context.Background(), []*model.Room{
			{Name: "Room A", Type: model.RoomTypeStudy},
			{Name: "", Type: model.RoomTypeStudy},
		})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		assert.Empty(t, repo.rooms)
	})
}

func TestGetAllRooms_RepoError(t *testing.T) {
	repo := &fakeRoomRepository{findAllFunc: func(ctx context.Context) ([]*model.Room, error) {
		return nil, errors.New("connection reset")
	}}

	_, err := newTestService(repo, &recordingPublisher{}).GetAllRooms(context.Background())

	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}
