package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const (
	subjectColumns  = `id, code, name, type, sessions_per_week, session_duration, course_id, semester, credits, created_at, updated_at`
	batchColumns    = `id, name, course_id, semester, student_count, subject_ids, created_at, updated_at`
	facultyColumns  = `id, name, email, department, subject_ids, max_classes_per_day, max_classes_per_week, availability, average_leaves, created_at, updated_at`
	roomColumns     = `id, name, type, capacity, equipment, department_id, created_at, updated_at`
	timeSlotColumns = `id, day, start_time, end_time, shift`
)

// EntityRepository reads the scheduling entities maintained by the CRUD screens.
type EntityRepository struct {
	db *sqlx.DB
}

// NewEntityRepository constructs repository.
func NewEntityRepository(db *sqlx.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// LoadSnapshot reads every entity in a single read-only transaction so the
// collections are mutually consistent.
func (r *EntityRepository) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var snap models.Snapshot
	if err := sqlx.SelectContext(ctx, tx, &snap.Subjects, `SELECT `+subjectColumns+` FROM subjects ORDER BY id`); err != nil {
		return models.Snapshot{}, fmt.Errorf("load subjects: %w", err)
	}
	if err := sqlx.SelectContext(ctx, tx, &snap.Batches, `SELECT `+batchColumns+` FROM batches ORDER BY id`); err != nil {
		return models.Snapshot{}, fmt.Errorf("load batches: %w", err)
	}
	if err := sqlx.SelectContext(ctx, tx, &snap.Faculty, `SELECT `+facultyColumns+` FROM faculty ORDER BY id`); err != nil {
		return models.Snapshot{}, fmt.Errorf("load faculty: %w", err)
	}
	if err := sqlx.SelectContext(ctx, tx, &snap.Rooms, `SELECT `+roomColumns+` FROM rooms ORDER BY id`); err != nil {
		return models.Snapshot{}, fmt.Errorf("load rooms: %w", err)
	}
	if err := sqlx.SelectContext(ctx, tx, &snap.TimeSlots, `SELECT `+timeSlotColumns+` FROM time_slots ORDER BY day, start_time, id`); err != nil {
		return models.Snapshot{}, fmt.Errorf("load time slots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Snapshot{}, fmt.Errorf("commit snapshot transaction: %w", err)
	}
	return snap, nil
}

// Counts returns the number of rows per entity table.
func (r *EntityRepository) Counts(ctx context.Context) (models.SnapshotCounts, error) {
	const query = `SELECT
    (SELECT COUNT(*) FROM subjects) AS subjects,
    (SELECT COUNT(*) FROM batches) AS batches,
    (SELECT COUNT(*) FROM faculty) AS faculty,
    (SELECT COUNT(*) FROM rooms) AS rooms,
    (SELECT COUNT(*) FROM time_slots) AS time_slots`
	var counts models.SnapshotCounts
	if err := r.db.QueryRowxContext(ctx, query).Scan(&counts.Subjects, &counts.Batches, &counts.Faculty, &counts.Rooms, &counts.TimeSlots); err != nil {
		return models.SnapshotCounts{}, fmt.Errorf("count entities: %w", err)
	}
	return counts, nil
}
