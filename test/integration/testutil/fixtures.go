//go:build integration

package testutil

import (
	"testing"
	"time"

	"campus/pkg/auth"
	"campus/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

type UserFixture struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

func Student() UserFixture {
	return UserFixture{FirstName: "Ama", LastName: "Mensah", Email: "ama.mensah@campus.test", Role: "student"}
}

func Admin() UserFixture {
	return UserFixture{FirstName: "Kofi", LastName: "Boateng", Email: "kofi.boateng@campus.test", Role: "admin"}
}

type RoomBuilder struct {
	room model.Room
}

func NewRoomBuilder() *RoomBuilder {
	return &RoomBuilder{
		room: model.Room{
			Name:     "Seminar Room 1",
			Type:     model.RoomTypeConference,
			Location: "Engineering Block",
			Capacity: 30,
		},
	}
}

func (b *RoomBuilder) WithName(name string) *RoomBuilder {
	b.room.Name = name
	return b
}

func (b *RoomBuilder) WithType(t model.RoomType) *RoomBuilder {
	b.room.Type = t
	return b
}

func (b *RoomBuilder) Build() model.Room {
	return b.room
}

type BookingBuilder struct {
	req model.CreateBookingRequest
}

func NewBookingBuilder(userID, roomID string) *BookingBuilder {
	return &BookingBuilder{
		req: model.CreateBookingRequest{
			User:      model.UserRef{ID: userID},
			Room:      roomID,
			Date:      "2030-05-01",
			StartTime: "10:00",
			EndTime:   "11:00",
			Purpose:   "Study group",
		},
	}
}

func (b *BookingBuilder) At(date, start, end string) *BookingBuilder {
	b.req.Date = date
	b.req.StartTime = start
	b.req.EndTime = end
	return b
}

func (b *BookingBuilder) Build() model.CreateBookingRequest {
	return b.req
}

func Token(t *testing.T, secret, userID string) string {
	t.Helper()
	token, err := auth.IssueToken(secret, userID, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}
