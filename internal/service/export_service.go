package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/snapshot"
	"github.com/noah-isme/timetable-engine/pkg/export"
	"github.com/noah-isme/timetable-engine/pkg/storage"
)

type timetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListSessions(ctx context.Context, timetableID string) ([]models.Session, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type workbookRenderer interface {
	Render(sheets []export.Sheet) ([]byte, error)
}

type calendarRenderer interface {
	Render(name string, events []export.Event) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	// RecurrenceWeeks is how many weeks a single-week timetable repeats in calendar exports.
	RecurrenceWeeks int
	Location        *time.Location
	// CSVDelimiter separates CSV fields. Zero means comma.
	CSVDelimiter rune
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders stored timetables and persists the files behind signed URLs.
type ExportService struct {
	timetables timetableReader
	snapshots  snapshotSource
	storage    fileStorage
	csv        datasetRenderer
	pdf        datasetRenderer
	xlsx       workbookRenderer
	ics        calendarRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(timetables timetableReader, snapshots snapshotSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.RecurrenceWeeks <= 0 {
		cfg.RecurrenceWeeks = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	csv := export.NewCSVExporter()
	if cfg.CSVDelimiter != 0 {
		csv = csv.WithDelimiter(cfg.CSVDelimiter)
	}
	return &ExportService{
		timetables: timetables,
		snapshots:  snapshots,
		storage:    store,
		csv:        csv,
		pdf:        export.NewPDFExporter(),
		xlsx:       export.NewXLSXExporter(),
		ics:        export.NewICSExporter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Generate renders the job's timetable in the requested format and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	timetable, err := s.timetables.FindByID(ctx, job.TimetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timetable %s no longer exists", job.TimetableID)
		}
		return nil, fmt.Errorf("load timetable: %w", err)
	}
	sessions, err := s.timetables.ListSessions(ctx, job.TimetableID)
	if err != nil {
		return nil, fmt.Errorf("load timetable sessions: %w", err)
	}
	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	sessions = filterSessions(sessions, job.Params)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(sessionDataset(timetable, snap, sessions))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(sessionDataset(timetable, snap, sessions))
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(batchSheets(timetable, snap, sessions))
	case models.ExportFormatICS:
		var events []export.Event
		events, err = s.calendarEvents(timetable, snap, sessions, job.Params.StartDate)
		if err == nil {
			payload, err = s.ics.Render(timetable.Name, events)
		}
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(timetable, job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("timetable export rendered",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("sessions", len(sessions)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured ResultTTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ContentType maps an export format to its MIME type.
func ContentType(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatPDF:
		return "application/pdf"
	case models.ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatICS:
		return "text/calendar"
	default:
		return "application/octet-stream"
	}
}

func (s *ExportService) buildFilename(timetable *models.Timetable, job *models.ExportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.BatchID != nil {
		scope = "batch-" + sanitizeFilename(*job.Params.BatchID)
	} else if job.Params.FacultyID != nil {
		scope = "faculty-" + sanitizeFilename(*job.Params.FacultyID)
	}
	return fmt.Sprintf("timetables/v%d_%s_%s_%s.%s", timetable.Version, scope, timestamp, job.ID[:minInt(8, len(job.ID))], job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func filterSessions(sessions []models.Session, params models.ExportJobParams) []models.Session {
	if params.BatchID == nil && params.FacultyID == nil {
		return sessions
	}
	return lo.Filter(sessions, func(session models.Session, _ int) bool {
		if params.BatchID != nil && session.BatchID != *params.BatchID {
			return false
		}
		return params.FacultyID == nil || session.FacultyID == *params.FacultyID
	})
}

var sessionHeaders = []string{"Week", "Day", "Start", "End", "Batch", "Subject", "Faculty", "Room", "Type"}

func sessionDataset(timetable *models.Timetable, snap models.Snapshot, sessions []models.Session) export.Dataset {
	rows := snapshot.SessionRows(snap, sessions)
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		data = append(data, []string{
			fmt.Sprintf("%d", row.Week), row.Day, row.StartTime, row.EndTime,
			row.Batch, row.Subject, row.Faculty, row.Room, row.Type,
		})
	}
	return export.Dataset{
		Title:    timetable.Name,
		Subtitle: fmt.Sprintf("Version %d, %s, score %d, %d sessions", timetable.Version, strings.ToLower(string(timetable.Status)), timetable.Score, len(rows)),
		Headers:  sessionHeaders,
		Rows:     data,
	}
}

// batchSheets lays out one day x time grid per batch, plus a flat sheet with every session.
func batchSheets(timetable *models.Timetable, snap models.Snapshot, sessions []models.Session) []export.Sheet {
	slotByID := make(map[string]models.TimeSlot, len(snap.TimeSlots))
	for _, ts := range snap.TimeSlots {
		slotByID[ts.ID] = ts
	}
	names := entityNames(snap)

	batchOrder := lo.Uniq(lo.Map(sessions, func(session models.Session, _ int) string { return session.BatchID }))
	byBatch := lo.GroupBy(sessions, func(session models.Session) string { return session.BatchID })

	sheets := make([]export.Sheet, 0, len(batchOrder)+1)
	for _, batchID := range batchOrder {
		grid := make(map[string]map[int][]string)
		times := make([]string, 0)
		for _, session := range byBatch[batchID] {
			slot, ok := slotByID[session.TimeSlotID]
			if !ok || !slot.IsWeekday() {
				continue
			}
			key := slot.StartTime + "-" + slot.EndTime
			if _, ok := grid[key]; !ok {
				grid[key] = make(map[int][]string)
				times = append(times, key)
			}
			entry := fmt.Sprintf("%s\n%s, %s", names.label("subject", session.SubjectID), names.label("faculty", session.FacultyID), names.label("room", session.RoomID))
			if session.Week > 1 {
				entry = fmt.Sprintf("W%d %s", session.Week, entry)
			}
			grid[key][slot.Day] = append(grid[key][slot.Day], entry)
		}
		sort.Strings(times)

		rows := make([][]string, 0, len(times))
		for _, key := range times {
			row := []string{key}
			for day := 0; day < 5; day++ {
				row = append(row, strings.Join(grid[key][day], "\n"))
			}
			rows = append(rows, row)
		}
		batchName := names.label("batch", batchID)
		sheets = append(sheets, export.Sheet{
			Name:    batchName,
			Title:   fmt.Sprintf("%s: %s", timetable.Name, batchName),
			Headers: []string{"Time", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			Rows:    rows,
		})
	}

	flat := sessionDataset(timetable, snap, sessions)
	sheets = append(sheets, export.Sheet{Name: "All sessions", Title: flat.Subtitle, Headers: flat.Headers, Rows: flat.Rows})
	return sheets
}

// calendarEvents dates each session from the Monday of startDate's week. A single-week timetable
// recurs weekly; multi-week timetables already carry explicit weeks and do not recur.
func (s *ExportService) calendarEvents(timetable *models.Timetable, snap models.Snapshot, sessions []models.Session, startDate string) ([]export.Event, error) {
	anchor := s.now().In(s.cfg.Location)
	if startDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", startDate, s.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		anchor = parsed
	}
	monday := mondayOf(anchor)

	recurrence := 1
	if timetable.Weeks <= 1 {
		recurrence = s.cfg.RecurrenceWeeks
	}
	slotByID := make(map[string]models.TimeSlot, len(snap.TimeSlots))
	for _, ts := range snap.TimeSlots {
		slotByID[ts.ID] = ts
	}
	names := entityNames(snap)

	events := make([]export.Event, 0, len(sessions))
	for _, session := range sessions {
		slot, ok := slotByID[session.TimeSlotID]
		if !ok {
			continue
		}
		startMin, err := slot.StartMinutes()
		if err != nil {
			continue
		}
		endMin, err := slot.EndMinutes()
		if err != nil || endMin <= startMin {
			continue
		}
		week := session.Week
		if week < 1 {
			week = 1
		}
		day := monday.AddDate(0, 0, (week-1)*7+slot.Day)
		events = append(events, export.Event{
			UID:         fmt.Sprintf("%s-%s@timetable-engine", timetable.ID, session.ID),
			Summary:     fmt.Sprintf("%s (%s)", names.label("subject", session.SubjectID), names.label("batch", session.BatchID)),
			Description: fmt.Sprintf("Faculty: %s\nType: %s", names.label("faculty", session.FacultyID), session.Type),
			Location:    names.label("room", session.RoomID),
			Start:       day.Add(time.Duration(startMin) * time.Minute),
			End:         day.Add(time.Duration(endMin) * time.Minute),
			Weeks:       recurrence,
		})
	}
	return events, nil
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type nameIndex map[string]string

func entityNames(snap models.Snapshot) nameIndex {
	names := nameIndex{}
	for _, s := range snap.Subjects {
		names["subject:"+s.ID] = s.Name
	}
	for _, b := range snap.Batches {
		names["batch:"+b.ID] = b.Name
	}
	for _, f := range snap.Faculty {
		names["faculty:"+f.ID] = f.Name
	}
	for _, r := range snap.Rooms {
		names["room:"+r.ID] = r.Name
	}
	return names
}

func (n nameIndex) label(kind, id string) string {
	if name := n[kind+":"+id]; name != "" {
		return name
	}
	return id
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
