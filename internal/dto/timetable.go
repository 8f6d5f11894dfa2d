package dto

import (
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// GenerationMode selects whether the weekly pass is replicated into later weeks.
type GenerationMode string

const (
	GenerationModeWeekly  GenerationMode = "weekly"
	GenerationModeMonthly GenerationMode = "monthly"
)

// GenerateTimetableRequest asks the engine for candidate timetables over the current entity snapshot.
type GenerateTimetableRequest struct {
	Seed                 *int64         `json:"seed"`
	Options              int            `json:"options" validate:"omitempty,min=1,max=10"`
	Mode                 GenerationMode `json:"mode" validate:"omitempty,oneof=weekly monthly"`
	Weeks                int            `json:"weeks" validate:"omitempty,min=1,max=12"`
	InclusionProbability *float64       `json:"inclusionProbability" validate:"omitempty,min=0,max=1"`
}

// TimetableOption is one candidate returned from generation.
type TimetableOption struct {
	Index        int                   `json:"index"`
	Name         string                `json:"name"`
	Score        int                   `json:"score"`
	Seed         int64                 `json:"seed"`
	Weeks        int                   `json:"weeks"`
	BaseSessions int                   `json:"baseSessions"`
	Sessions     []models.Session      `json:"sessions"`
	Conflicts    []models.Conflict     `json:"conflicts"`
	Breakdown    models.ScoreBreakdown `json:"breakdown"`
	Utilization  models.Utilization    `json:"utilization"`
}

// GenerateTimetableResponse holds a stored proposal and its options, best score first.
type GenerateTimetableResponse struct {
	ProposalID  string                `json:"proposalId"`
	Mode        GenerationMode        `json:"mode"`
	Counts      models.SnapshotCounts `json:"counts"`
	Options     []TimetableOption     `json:"options"`
	GeneratedAt time.Time             `json:"generatedAt"`
	ExpiresAt   time.Time             `json:"expiresAt"`
}

// SaveTimetableRequest persists one option of a proposal as a draft timetable.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Option     int    `json:"option" validate:"min=0"`
	Name       string `json:"name" validate:"omitempty,max=120"`
}

// AnalyzeTimetableRequest carries hand-edited sessions for re-evaluation.
type AnalyzeTimetableRequest struct {
	Sessions []models.Session `json:"sessions" validate:"required,min=1"`
}

// TimetableAnalysisResponse reports conflicts, score and utilisation for a set of sessions.
type TimetableAnalysisResponse struct {
	TimetableID *string               `json:"timetableId,omitempty"`
	Sessions    int                   `json:"sessions"`
	Conflicts   []models.Conflict     `json:"conflicts"`
	Score       int                   `json:"score"`
	Breakdown   models.ScoreBreakdown `json:"breakdown"`
	Utilization models.Utilization    `json:"utilization"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	Status   string `form:"status" json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	Page     int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" json:"pageSize" validate:"omitempty,min=1,max=100"`
}

// SessionQuery narrows the sessions of a stored timetable.
type SessionQuery struct {
	Week      int    `form:"week" json:"week" validate:"omitempty,min=1"`
	BatchID   string `form:"batchId" json:"batchId"`
	FacultyID string `form:"facultyId" json:"facultyId"`
	RoomID    string `form:"roomId" json:"roomId"`
}

// ExportRequest queues an export of a stored timetable.
type ExportRequest struct {
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf xlsx ics"`
	BatchID   *string             `json:"batchId"`
	FacultyID *string             `json:"facultyId"`
	StartDate string              `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse describes export progress and, once finished, the signed download URL.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	TimetableID string              `json:"timetableId"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	ResultURL   *string             `json:"resultUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
