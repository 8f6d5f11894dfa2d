package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const timetableColumns = `id, name, version, status, score, seed, weeks, conflict_count, conflicts, meta, created_by, published_at, created_at, updated_at`

// TimetableRepository persists versioned timetables and their sessions.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable assigning the next global version.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	if timetable.Conflicts == nil {
		timetable.Conflicts = models.ConflictList{}
	}
	timetable.ConflictCount = len(timetable.Conflicts)
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables`
	if err := sqlx.GetContext(ctx, target, &timetable.Version, nextVersionQuery); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}
	if timetable.Name == "" {
		timetable.Name = fmt.Sprintf("Timetable v%d", timetable.Version)
	}

	const insertQuery = `
INSERT INTO timetables (id, name, version, status, score, seed, weeks, conflict_count, conflicts, meta, created_by, published_at, created_at, updated_at)
VALUES (:id, :name, :version, :status, :score, :seed, :weeks, :conflict_count, :conflicts, :meta, :created_by, :published_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertSessions stores sessions for a timetable in chunks.
func (r *TimetableRepository) InsertSessions(ctx context.Context, exec sqlx.ExtContext, timetableID string, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	const chunk = 500
	for start := 0; start < len(sessions); start += chunk {
		end := start + chunk
		if end > len(sessions) {
			end = len(sessions)
		}
		rows := make([]models.Session, 0, end-start)
		for _, s := range sessions[start:end] {
			s.TimetableID = timetableID
			rows = append(rows, s)
		}
		const query = `
INSERT INTO timetable_sessions (timetable_id, id, subject_id, batch_id, faculty_id, room_id, time_slot_id, type, week)
VALUES (:timetable_id, :id, :subject_id, :batch_id, :faculty_id, :room_id, :time_slot_id, :type, :week)`
		if _, err := sqlx.NamedExecContext(ctx, target, query, rows); err != nil {
			return fmt.Errorf("insert timetable sessions: %w", err)
		}
	}
	return nil
}

// List returns timetables newest first with the total count.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timetables"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM timetables%s ORDER BY version DESC LIMIT $%d OFFSET $%d", timetableColumns, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)
	var list []models.Timetable
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	return list, total, nil
}

// FindByID loads a timetable by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// FindPublished returns the currently published timetable, locking it when run in a transaction.
func (r *TimetableRepository) FindPublished(ctx context.Context, exec sqlx.ExtContext) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE status = 'PUBLISHED' LIMIT 1 FOR UPDATE`
	var timetable models.Timetable
	if err := sqlx.GetContext(ctx, r.exec(exec), &timetable, query); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListSessions returns the stored sessions of a timetable.
func (r *TimetableRepository) ListSessions(ctx context.Context, timetableID string) ([]models.Session, error) {
	const query = `SELECT timetable_id, id, subject_id, batch_id, faculty_id, room_id, time_slot_id, type, week
FROM timetable_sessions WHERE timetable_id = $1 ORDER BY week, id`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable sessions: %w", err)
	}
	return sessions, nil
}

// UpdateStatus moves a timetable to a new status. publishedAt is only written when set.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, publishedAt *time.Time) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	var (
		query string
		args  []interface{}
	)
	if publishedAt != nil {
		query = `UPDATE timetables SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4`
		args = []interface{}{status, *publishedAt, now, id}
	} else {
		query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`
		args = []interface{}{status, now, id}
	}
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a timetable; sessions cascade.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
