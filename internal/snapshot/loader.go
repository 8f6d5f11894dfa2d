// Package snapshot reads entity snapshots from CSV files.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// File names expected by LoadDir.
const (
	SubjectsFile  = "subjects.csv"
	BatchesFile   = "batches.csv"
	FacultyFile   = "faculty.csv"
	RoomsFile     = "rooms.csv"
	TimeSlotsFile = "time_slots.csv"
)

const listSeparator = "|"

// Loader parses snapshot CSV files with a configurable delimiter.
type Loader struct {
	delimiter rune
}

// NewLoader returns a loader; a zero delimiter means comma.
func NewLoader(delimiter rune) *Loader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Loader{delimiter: delimiter}
}

// LoadDir reads every entity file from dir.
func (l *Loader) LoadDir(dir string) (models.Snapshot, error) {
	var snap models.Snapshot
	var err error

	if err = l.readFile(filepath.Join(dir, SubjectsFile), func(r io.Reader) error {
		snap.Subjects, err = l.Subjects(r)
		return err
	}); err != nil {
		return models.Snapshot{}, err
	}
	if err = l.readFile(filepath.Join(dir, BatchesFile), func(r io.Reader) error {
		snap.Batches, err = l.Batches(r)
		return err
	}); err != nil {
		return models.Snapshot{}, err
	}
	if err = l.readFile(filepath.Join(dir, FacultyFile), func(r io.Reader) error {
		snap.Faculty, err = l.Faculty(r)
		return err
	}); err != nil {
		return models.Snapshot{}, err
	}
	if err = l.readFile(filepath.Join(dir, RoomsFile), func(r io.Reader) error {
		snap.Rooms, err = l.Rooms(r)
		return err
	}); err != nil {
		return models.Snapshot{}, err
	}
	if err = l.readFile(filepath.Join(dir, TimeSlotsFile), func(r io.Reader) error {
		snap.TimeSlots, err = l.TimeSlots(r)
		return err
	}); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

func (l *Loader) readFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := parse(f); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (l *Loader) unmarshal(r io.Reader, out interface{}) error {
	reader := csv.NewReader(r)
	reader.Comma = l.delimiter
	reader.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(reader, out)
}

// Subjects parses a subjects file.
func (l *Loader) Subjects(r io.Reader) ([]models.Subject, error) {
	var records []subjectRecord
	if err := l.unmarshal(r, &records); err != nil {
		return nil, err
	}
	result := make([]models.Subject, 0, len(records))
	for i, rec := range records {
		kind := models.SubjectType(strings.ToLower(strings.TrimSpace(rec.Type)))
		switch kind {
		case models.SubjectTypeTheory, models.SubjectTypeLab, models.SubjectTypeElective:
		default:
			return nil, fmt.Errorf("row %d: unknown subject type %q", i+1, rec.Type)
		}
		if rec.SessionsPerWeek < 0 {
			return nil, fmt.Errorf("row %d: sessions_per_week must not be negative", i+1)
		}
		result = append(result, models.Subject{
			ID:              strings.TrimSpace(rec.ID),
			Code:            rec.Code,
			Name:            rec.Name,
			Type:            kind,
			SessionsPerWeek: rec.SessionsPerWeek,
			SessionDuration: rec.SessionDuration,
			CourseID:        rec.CourseID,
			Semester:        rec.Semester,
			Credits:         rec.Credits,
		})
	}
	return result, nil
}

// Batches parses a batches file.
func (l *Loader) Batches(r io.Reader) ([]models.Batch, error) {
	var records []batchRecord
	if err := l.unmarshal(r, &records); err != nil {
		return nil, err
	}
	result := make([]models.Batch, 0, len(records))
	for i, rec := range records {
		if rec.StudentCount < 0 {
			return nil, fmt.Errorf("row %d: student_count must not be negative", i+1)
		}
		result = append(result, models.Batch{
			ID:           strings.TrimSpace(rec.ID),
			Name:         rec.Name,
			CourseID:     rec.CourseID,
			Semester:     rec.Semester,
			StudentCount: rec.StudentCount,
			SubjectIDs:   splitList(rec.Subjects),
		})
	}
	return result, nil
}

// Faculty parses a faculty file.
func (l *Loader) Faculty(r io.Reader) ([]models.Faculty, error) {
	var records []facultyRecord
	if err := l.unmarshal(r, &records); err != nil {
		return nil, err
	}
	result := make([]models.Faculty, 0, len(records))
	for i, rec := range records {
		availability, err := ParseAvailability(rec.Availability)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		result = append(result, models.Faculty{
			ID:                strings.TrimSpace(rec.ID),
			Name:              rec.Name,
			Email:             rec.Email,
			Department:        rec.Department,
			SubjectIDs:        splitList(rec.Subjects),
			MaxClassesPerDay:  rec.MaxClassesPerDay,
			MaxClassesPerWeek: rec.MaxClassesPerWeek,
			Availability:      availability,
			AverageLeaves:     rec.AverageLeaves,
		})
	}
	return result, nil
}

// Rooms parses a rooms file.
func (l *Loader) Rooms(r io.Reader) ([]models.Room, error) {
	var records []roomRecord
	if err := l.unmarshal(r, &records); err != nil {
		return nil, err
	}
	result := make([]models.Room, 0, len(records))
	for i, rec := range records {
		kind := models.RoomType(strings.ToLower(strings.TrimSpace(rec.Type)))
		switch kind {
		case models.RoomTypeClassroom, models.RoomTypeLab, models.RoomTypeAuditorium:
		default:
			return nil, fmt.Errorf("row %d: unknown room type %q", i+1, rec.Type)
		}
		room := models.Room{
			ID:        strings.TrimSpace(rec.ID),
			Name:      rec.Name,
			Type:      kind,
			Capacity:  rec.Capacity,
			Equipment: splitList(rec.Equipment),
		}
		if dept := strings.TrimSpace(rec.DepartmentID); dept != "" {
			room.DepartmentID = &dept
		}
		result = append(result, room)
	}
	return result, nil
}

// TimeSlots parses a time slot file.
func (l *Loader) TimeSlots(r io.Reader) ([]models.TimeSlot, error) {
	var records []timeSlotRecord
	if err := l.unmarshal(r, &records); err != nil {
		return nil, err
	}
	result := make([]models.TimeSlot, 0, len(records))
	for i, rec := range records {
		if rec.Day < 0 || rec.Day > 6 {
			return nil, fmt.Errorf("row %d: day must be between 0 and 6", i+1)
		}
		slot := models.TimeSlot{
			ID:        strings.TrimSpace(rec.ID),
			Day:       rec.Day,
			StartTime: strings.TrimSpace(rec.StartTime),
			EndTime:   strings.TrimSpace(rec.EndTime),
			Shift:     models.Shift(strings.ToLower(strings.TrimSpace(rec.Shift))),
		}
		if _, err := slot.StartMinutes(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		result = append(result, slot)
	}
	return result, nil
}

// ParseAvailability decodes seven '|' separated day groups of ten '1'/'0' flags.
// An empty value means always available.
func ParseAvailability(raw string) (*models.Availability, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	days := strings.Split(raw, listSeparator)
	if len(days) != models.AvailabilityDays {
		return nil, fmt.Errorf("availability needs %d day groups, got %d", models.AvailabilityDays, len(days))
	}
	var a models.Availability
	for d, group := range days {
		group = strings.TrimSpace(group)
		if len(group) != models.AvailabilityBuckets {
			return nil, fmt.Errorf("availability day %d needs %d flags", d, models.AvailabilityBuckets)
		}
		for b, flag := range group {
			switch flag {
			case '1':
				a[d][b] = true
			case '0':
			default:
				return nil, fmt.Errorf("availability day %d has invalid flag %q", d, flag)
			}
		}
	}
	return &a, nil
}

func splitList(raw string) models.IDList {
	result := models.IDList{}
	for _, part := range strings.Split(raw, listSeparator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
