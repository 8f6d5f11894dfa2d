package models

import "time"

// Batch is a cohort of students sharing the same enrolled subjects.
type Batch struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Semester     int       `db:"semester" json:"semester"`
	StudentCount int       `db:"student_count" json:"student_count"`
	SubjectIDs   IDList    `db:"subject_ids" json:"subject_ids"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
