package models

// Session is one scheduled teaching occurrence.
type Session struct {
	ID          string      `db:"id" json:"id"`
	TimetableID string      `db:"timetable_id" json:"timetable_id,omitempty"`
	SubjectID   string      `db:"subject_id" json:"subject_id"`
	BatchID     string      `db:"batch_id" json:"batch_id"`
	FacultyID   string      `db:"faculty_id" json:"faculty_id"`
	RoomID      string      `db:"room_id" json:"room_id"`
	TimeSlotID  string      `db:"time_slot_id" json:"time_slot_id"`
	Type        SubjectType `db:"type" json:"type"`
	Week        int         `db:"week" json:"week"`
}
