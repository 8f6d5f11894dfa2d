package models

import "time"

// RoomType classifies rooms for subject compatibility.
type RoomType string

const (
	RoomTypeClassroom  RoomType = "classroom"
	RoomTypeLab        RoomType = "lab"
	RoomTypeAuditorium RoomType = "auditorium"
)

// Room is a bookable teaching space.
type Room struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Type         RoomType  `db:"type" json:"type"`
	Capacity     int       `db:"capacity" json:"capacity"`
	Equipment    IDList    `db:"equipment" json:"equipment"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Fits reports whether the room can host the subject for the batch.
func (r Room) Fits(subject Subject, batch Batch) bool {
	if subject.IsLab() && r.Type != RoomTypeLab {
		return false
	}
	return r.Capacity >= batch.StudentCount
}
