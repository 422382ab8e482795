//go:build integration

package bookings

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"campus/pkg/client"
	"campus/pkg/model"
	"campus/test/integration/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fixture struct {
	mongo   *testutil.MongoHelper
	public  *client.BookingClient
	admin   *client.BookingClient
	student *client.BookingClient
	userID  string
	roomID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewTestEnv()
	mongo, c := env.Setup(t)
	t.Cleanup(func() { env.Cleanup(t, mongo) })

	userID := mongo.InsertUser(t, testutil.Student())
	adminID := mongo.InsertUser(t, testutil.Admin())

	room, err := c.AddRoom(context.Background(), testutil.NewRoomBuilder().Build())
	require.NoError(t, err)

	return &fixture{
		mongo:   mongo,
		public:  c,
		admin:   c.WithToken(testutil.Token(t, env.JWTSecret, adminID)),
		student: c.WithToken(testutil.Token(t, env.JWTSecret, userID)),
		userID:  userID,
		roomID:  room.ID,
	}
}

func statusOf(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func TestCreateBooking_ConflictLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).At("2030-05-01", "10:00", "11:00").Build())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.Equal(t, "Ama", first.User.Name)

	_, err = f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).At("2030-05-01", "10:30", "11:30").Build())
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).At("2030-05-01", "11:00", "12:00").Build())
	assert.NoError(t, err, "adjacent slot must be free")

	_, err = f.admin.UpdateBookingStatus(ctx, first.ID, model.StatusDeclined)
	require.NoError(t, err)

	_, err = f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).At("2030-05-01", "10:00", "10:45").Build())
	assert.NoError(t, err, "declined booking must not block the slot")
}

func TestCreateBooking_ConcurrentOverlaps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).At("2030-06-01", "09:00", "10:00").Build())
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, http.StatusConflict, statusOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.mongo.CountDocuments(t, "Bookings", bson.M{"date": "2030-06-01"}))
}

func TestAdminEndpoints(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	booking, err := f.public.CreateBooking(ctx, testutil.NewBookingBuilder(f.userID, f.roomID).Build())
	require.NoError(t, err)

	_, err = f.public.ListBookings(ctx, model.BookingFilter{})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = f.student.ListBookings(ctx, model.BookingFilter{})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	views, err := f.admin.ListBookings(ctx, model.BookingFilter{Room: f.roomID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].RoomDetails)
	assert.Equal(t, "Seminar Room 1", views[0].RoomDetails.Name)

	byUser, err := f.admin.ListBookingsByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	view, err := f.admin.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, view.ID)

	_, err = f.admin.UpdateBookingStatus(ctx, booking.ID, model.BookingStatus("Cancelled"))
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, f.admin.DeleteBooking(ctx, booking.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(f.admin.DeleteBooking(ctx, booking.ID)))
}

func TestRooms(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.public.AddRoom(ctx, testutil.NewRoomBuilder().Build())
	assert.Equal(t, http.StatusConflict, statusOf(err))

	added, err := f.public.AddManyRooms(ctx, []model.Room{
		testutil.NewRoomBuilder().WithName("Lab 2").WithType(model.RoomTypeLab).Build(),
		testutil.NewRoomBuilder().WithName("Hall A").WithType(model.RoomTypeLectureHall).Build(),
	})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	rooms, err := f.public.GetAllRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 3)
}
