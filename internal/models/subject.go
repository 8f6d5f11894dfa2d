package models

import "time"

// SubjectType classifies how a subject is taught.
type SubjectType string

const (
	SubjectTypeTheory   SubjectType = "theory"
	SubjectTypeLab      SubjectType = "lab"
	SubjectTypeElective SubjectType = "elective"
)

// Subject represents a course component that needs weekly sessions.
type Subject struct {
	ID              string      `db:"id" json:"id"`
	Code            string      `db:"code" json:"code"`
	Name            string      `db:"name" json:"name"`
	Type            SubjectType `db:"type" json:"type"`
	SessionsPerWeek int         `db:"sessions_per_week" json:"sessions_per_week"`
	SessionDuration int         `db:"session_duration" json:"session_duration"`
	CourseID        string      `db:"course_id" json:"course_id"`
	Semester        int         `db:"semester" json:"semester"`
	Credits         int         `db:"credits" json:"credits"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// IsLab reports whether the subject must be held in a lab room.
func (s Subject) IsLab() bool {
	return s.Type == SubjectTypeLab
}
