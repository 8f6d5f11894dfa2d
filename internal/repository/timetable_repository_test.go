package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
)

var timetableRowColumns = []string{"id", "name", "version", "status", "score", "seed", "weeks", "conflict_count", "conflicts", "meta", "created_by", "published_at", "created_at", "updated_at"}

func TestTimetableRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM timetables")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WithArgs(sqlmock.AnyArg(), "Timetable v3", 3, string(models.TimetableStatusDraft), 92, int64(42), 1, 0,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Timetable{Score: 92, Seed: 42, Weeks: 1}
	require.NoError(t, repo.CreateVersioned(context.Background(), nil, payload))
	assert.Equal(t, 3, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.NotNil(t, payload.Conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryInsertSessions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	sessions := []models.Session{
		{ID: "ses-1", SubjectID: "sub-1", BatchID: "bat-1", FacultyID: "fac-1", RoomID: "room-1", TimeSlotID: "d0-s0", Type: models.SubjectTypeTheory, Week: 1},
		{ID: "ses-2", SubjectID: "sub-1", BatchID: "bat-1", FacultyID: "fac-1", RoomID: "room-1", TimeSlotID: "d1-s0", Type: models.SubjectTypeTheory, Week: 1},
	}
	require.NoError(t, repo.InsertSessions(context.Background(), nil, "tt-1", sessions))
	assert.Empty(t, sessions[0].TimetableID)
	require.NoError(t, repo.InsertSessions(context.Background(), nil, "tt-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)
	now := time.Now()
	status := models.TimetableStatusDraft

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetables WHERE status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + timetableColumns + " FROM timetables WHERE status = $1 ORDER BY version DESC LIMIT $2 OFFSET $3")).
		WithArgs(status, 10, 10).
		WillReturnRows(sqlmock.NewRows(timetableRowColumns).
			AddRow("tt-1", "Timetable v1", 1, "DRAFT", 88, 7, 1, 0, []byte(`[]`), []byte(`{}`), nil, nil, now, now))

	list, total, err := repo.List(context.Background(), models.TimetableFilter{Status: &status, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, 88, list[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindPublished(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE status = 'PUBLISHED' LIMIT 1 FOR UPDATE")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPublished(context.Background(), nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)
	published := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(models.TimetableStatusPublished, published, sqlmock.AnyArg(), "tt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.TimetableStatusArchived, sqlmock.AnyArg(), "tt-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, "tt-1", models.TimetableStatusPublished, &published))
	err := repo.UpdateStatus(context.Background(), nil, "tt-missing", models.TimetableStatusArchived, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListSessionsAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_sessions WHERE timetable_id = $1 ORDER BY week, id")).
		WithArgs("tt-1").
		WillReturnRows(sqlmock.NewRows([]string{"timetable_id", "id", "subject_id", "batch_id", "faculty_id", "room_id", "time_slot_id", "type", "week"}).
			AddRow("tt-1", "ses-1", "sub-1", "bat-1", "fac-1", "room-1", "d0-s0", "theory", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	sessions, err := repo.ListSessions(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "d0-s0", sessions[0].TimeSlotID)

	assert.ErrorIs(t, repo.Delete(context.Background(), "tt-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
