package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// AvailabilityDays covers the full week, Monday first.
	AvailabilityDays = 7
	// AvailabilityBuckets are hourly buckets starting at 09:00.
	AvailabilityBuckets = 10
)

// Availability marks the hourly buckets a faculty member can teach in.
type Availability [AvailabilityDays][AvailabilityBuckets]bool

// FullAvailability returns a matrix with every bucket open.
func FullAvailability() Availability {
	var a Availability
	for d := range a {
		for b := range a[d] {
			a[d][b] = true
		}
	}
	return a
}

// Value marshals the matrix to JSON for persistence.
func (a Availability) Value() (driver.Value, error) {
	data, err := json.Marshal([AvailabilityDays][AvailabilityBuckets]bool(a))
	if err != nil {
		return nil, fmt.Errorf("marshal availability: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON matrix.
func (a *Availability) Scan(value interface{}) error {
	var matrix [AvailabilityDays][AvailabilityBuckets]bool
	ok, err := scanJSON(value, &matrix, "availability")
	if err != nil {
		return err
	}
	if !ok {
		*a = FullAvailability()
		return nil
	}
	*a = Availability(matrix)
	return nil
}

// Faculty is an instructor who can teach a set of subjects.
type Faculty struct {
	ID                string        `db:"id" json:"id"`
	Name              string        `db:"name" json:"name"`
	Email             string        `db:"email" json:"email"`
	Department        string        `db:"department" json:"department"`
	SubjectIDs        IDList        `db:"subject_ids" json:"subject_ids"`
	MaxClassesPerDay  int           `db:"max_classes_per_day" json:"max_classes_per_day"`
	MaxClassesPerWeek int           `db:"max_classes_per_week" json:"max_classes_per_week"`
	Availability      *Availability `db:"availability" json:"availability,omitempty"`
	AverageLeaves     float64       `db:"average_leaves" json:"average_leaves"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// Teaches reports whether the faculty member covers the subject.
func (f Faculty) Teaches(subjectID string) bool {
	return f.SubjectIDs.Contains(subjectID)
}

// Available reports whether the bucket is open. A nil matrix means always available.
func (f Faculty) Available(day, bucket int) bool {
	if f.Availability == nil {
		return true
	}
	if day < 0 || day >= AvailabilityDays || bucket < 0 || bucket >= AvailabilityBuckets {
		return false
	}
	return f.Availability[day][bucket]
}
