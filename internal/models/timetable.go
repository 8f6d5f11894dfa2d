package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for stored timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is a saved generation result.
type Timetable struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Version       int             `db:"version" json:"version"`
	Status        TimetableStatus `db:"status" json:"status"`
	Score         int             `db:"score" json:"score"`
	Seed          int64           `db:"seed" json:"seed"`
	Weeks         int             `db:"weeks" json:"weeks"`
	ConflictCount int             `db:"conflict_count" json:"conflict_count"`
	Conflicts     ConflictList    `db:"conflicts" json:"conflicts"`
	Meta          types.JSONText  `db:"meta" json:"meta"`
	CreatedBy     *string         `db:"created_by" json:"created_by,omitempty"`
	PublishedAt   *time.Time      `db:"published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableFilter captures list filters.
type TimetableFilter struct {
	Status   *TimetableStatus
	Page     int
	PageSize int
}
