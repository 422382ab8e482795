package model

import "time"

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingDeleted       = "booking.deleted"
	EventRoomCreated          = "room.created"
)

// BookingEvent is the payload published for every booking or room change.
type BookingEvent struct {
	BookingID      string        `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	RoomID         string        `json:"room_id" bson:"room_id"`
	UserID         string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Date           string        `json:"date,omitempty" bson:"date,omitempty"`
	StartTime      string        `json:"start_time,omitempty" bson:"start_time,omitempty"`
	EndTime        string        `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status         BookingStatus `json:"status,omitempty" bson:"status,omitempty"`
	PreviousStatus BookingStatus `json:"previous_status,omitempty" bson:"previous_status,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at" bson:"occurred_at"`
}

// HistoryEntry is one audited event as stored by the audit worker.
type HistoryEntry struct {
	EventID    string       `json:"event_id" bson:"_id"`
	EventType  string       `json:"event_type" bson:"event_type"`
	Source     string       `json:"source,omitempty" bson:"source,omitempty"`
	Event      BookingEvent `json:"event" bson:"event"`
	RecordedAt time.Time    `json:"recorded_at" bson:"recorded_at"`
}
