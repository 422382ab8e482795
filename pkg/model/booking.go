package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusPending  BookingStatus = "Pending"
	StatusAccepted BookingStatus = "Accepted"
	StatusDeclined BookingStatus = "Declined"
)

var BookingStatuses = []BookingStatus{StatusPending, StatusAccepted, StatusDeclined}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// Active reports whether a booking in this status occupies its slot.
func (s BookingStatus) Active() bool {
	return s != StatusDeclined
}

type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleAdmin    UserRole = "admin"
)

// UserSnapshot is the copy of the booking owner taken when the booking was
// created. It is never refreshed afterwards.
type UserSnapshot struct {
	ID      string   `json:"id" bson:"id"`
	Name    string   `json:"name" bson:"name"`
	Surname string   `json:"surname" bson:"surname"`
	Email   string   `json:"email" bson:"email"`
	Role    UserRole `json:"role" bson:"role"`
}

type Booking struct {
	ID        string        `json:"id,omitempty" bson:"_id,omitempty"`
	User      UserSnapshot  `json:"user" bson:"user"`
	Room      string        `json:"room" bson:"room"`
	Date      string        `json:"date" bson:"date"`
	StartTime string        `json:"startTime" bson:"startTime"`
	EndTime   string        `json:"endTime" bson:"endTime"`
	Purpose   string        `json:"purpose" bson:"purpose"`
	Status    BookingStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Interval returns the booking's [start, end) range in minutes after midnight.
func (b *Booking) Interval() (Interval, error) {
	return ParseInterval(b.StartTime, b.EndTime)
}

// BookingView is a booking with the details of its room joined at read time.
// RoomDetails is nil when the room no longer exists.
type BookingView struct {
	Booking     `bson:",inline"`
	RoomDetails *RoomDetails `json:"roomDetails" bson:"roomDetails,omitempty"`
}

// UserRef accepts either a bare user id or an object carrying one of "id",
// "_id" or "userId".
type UserRef struct {
	ID string
}

func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		u.ID = ""
		return nil
	}

	if data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}

	var obj struct {
		ID     string `json:"id"`
		OID    string `json:"_id"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("user must be an id string or an object with an id: %w", err)
	}
	switch {
	case obj.ID != "":
		u.ID = obj.ID
	case obj.OID != "":
		u.ID = obj.OID
	default:
		u.ID = obj.UserID
	}
	return nil
}

func (u UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.ID)
}

// CreateBookingRequest is the body of POST /api/booking.
type CreateBookingRequest struct {
	User      UserRef `json:"user"`
	Room      string  `json:"room" validate:"required"`
	Date      string  `json:"date" validate:"required,isodate"`
	StartTime string  `json:"startTime" validate:"required,hhmm"`
	EndTime   string  `json:"endTime" validate:"required,hhmm"`
	Purpose   string  `json:"purpose" validate:"max=500"`
}

type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,booking_status"`
}

// BookingFilter narrows listBookings. Empty fields do not filter.
type BookingFilter struct {
	Room   string
	Date   string
	Status BookingStatus
	UserID string
}
