package model

import "time"

type RoomType string

const (
	RoomTypeStudy         RoomType = "Study Room"
	RoomTypeConference    RoomType = "Conference Room"
	RoomTypeLectureHall   RoomType = "Lecture Hall"
	RoomTypeLab           RoomType = "Lab Room"
	RoomTypeStudentCentre RoomType = "Student Centre"
)

var RoomTypes = []RoomType{
	RoomTypeStudy,
	RoomTypeConference,
	RoomTypeLectureHall,
	RoomTypeLab,
	RoomTypeStudentCentre,
}

func (t RoomType) Valid() bool {
	for _, rt := range RoomTypes {
		if t == rt {
			return true
		}
	}
	return false
}

const (
	DefaultRoomLocation = "Main Campus"
	DefaultRoomCapacity = 10
)

type Room struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type      RoomType  `json:"type" bson:"type" validate:"required,room_type"`
	Location  string    `json:"location" bson:"location" validate:"required,max=200"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"min=1,max=10000"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ApplyDefaults fills location and capacity when the caller left them out.
func (r *Room) ApplyDefaults() {
	if r.Location == "" {
		r.Location = DefaultRoomLocation
	}
	if r.Capacity == 0 {
		r.Capacity = DefaultRoomCapacity
	}
}

// RoomDetails is the slice of a room joined onto booking read views.
type RoomDetails struct {
	Name     string   `json:"name" bson:"name"`
	Type     RoomType `json:"type" bson:"type"`
	Location string   `json:"location" bson:"location"`
	Capacity int      `json:"capacity" bson:"capacity"`
}
