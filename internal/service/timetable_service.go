package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/engine"
	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/middleware/requestid"
)

type snapshotSource interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	Counts(ctx context.Context) (models.SnapshotCounts, error)
}

type timetableStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertSessions(ctx context.Context, exec sqlx.ExtContext, timetableID string, sessions []models.Session) error
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindPublished(ctx context.Context, exec sqlx.ExtContext) (*models.Timetable, error)
	ListSessions(ctx context.Context, timetableID string) ([]models.Session, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, publishedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationRecorder interface {
	ObserveGeneration(mode string, bestScore, conflicts, sessions int, duration time.Duration)
}

// TimetableConfig governs generation defaults and limits.
type TimetableConfig struct {
	ProposalTTL          time.Duration
	OptionCount          int
	Weeks                int
	InclusionProbability float64
	MaxEntities          int
}

// TimetableService runs the engine over the stored entities and manages the
// proposal, draft and publish lifecycle of timetables.
type TimetableService struct {
	snapshots  snapshotSource
	timetables timetableStore
	tx         txProvider
	metrics    generationRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	store      *proposalStore
	cfg        TimetableConfig
	now        func() time.Time
}

// NewTimetableService wires timetable dependencies. cache and metrics may be nil.
func NewTimetableService(
	snapshots snapshotSource,
	timetables timetableStore,
	tx txProvider,
	cache proposalCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.OptionCount <= 0 {
		cfg.OptionCount = 3
	}
	defaults := engine.DefaultReplication()
	if cfg.Weeks <= 0 {
		cfg.Weeks = defaults.Weeks
	}
	if cfg.InclusionProbability < 0 || cfg.InclusionProbability > 1 {
		cfg.InclusionProbability = defaults.Probability
	}
	return &TimetableService{
		snapshots:  snapshots,
		timetables: timetables,
		tx:         tx,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		store:      newProposalStore(cfg.ProposalTTL, cache, metrics, logger),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Generate builds candidate timetables over the current snapshot and stores them as a proposal.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	counts, err := s.snapshots.Counts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduling entities")
	}
	if !counts.Complete() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf(
			"timetable generation needs at least one of each entity (faculty=%d, batches=%d, subjects=%d, rooms=%d, timeslots=%d)",
			counts.Faculty, counts.Batches, counts.Subjects, counts.Rooms, counts.TimeSlots))
	}
	if s.cfg.MaxEntities > 0 && counts.Total() > s.cfg.MaxEntities {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("snapshot has %d entities, limit is %d", counts.Total(), s.cfg.MaxEntities))
	}

	snapshot, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling entities")
	}

	mode, replication := s.replicationFor(req)
	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	count := req.Options
	if count <= 0 {
		count = s.cfg.OptionCount
	}

	started := s.now()
	options, err := engine.GenerateOptions(ctx, snapshot, count, seed, replication)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation aborted")
	}
	elapsed := s.now().Sub(started)

	proposal := generationProposal{
		ID:        uuid.NewString(),
		Mode:      mode,
		Seed:      seed,
		Counts:    counts,
		Options:   toOptionDTOs(options),
		CreatedAt: s.now().UTC(),
	}
	s.store.Save(ctx, proposal)

	best := options[0].Result
	if s.metrics != nil {
		s.metrics.ObserveGeneration(string(mode), best.Score, len(best.Conflicts), len(best.Sessions), elapsed)
	}
	s.logger.Info("timetable options generated",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("proposal_id", proposal.ID),
		zap.String("mode", string(mode)),
		zap.Int64("seed", seed),
		zap.Int("options", len(options)),
		zap.Int("best_score", best.Score),
		zap.Int("best_conflicts", len(best.Conflicts)),
		zap.Duration("elapsed", elapsed),
	)

	return &dto.GenerateTimetableResponse{
		ProposalID:  proposal.ID,
		Mode:        mode,
		Counts:      counts,
		Options:     proposal.Options,
		GeneratedAt: proposal.CreatedAt,
		ExpiresAt:   proposal.CreatedAt.Add(s.cfg.ProposalTTL),
	}, nil
}

// Save persists one option of a proposal as a draft timetable with its sessions.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest, actorID string) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.store.Get(ctx, req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	if req.Option >= len(proposal.Options) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("option %d out of range, proposal has %d options", req.Option, len(proposal.Options)))
	}
	option := proposal.Options[req.Option]
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	meta, err := json.Marshal(map[string]any{
		"proposalId":   proposal.ID,
		"mode":         proposal.Mode,
		"option":       option.Name,
		"baseSessions": option.BaseSessions,
		"breakdown":    option.Breakdown,
		"utilization":  option.Utilization,
		"counts":       proposal.Counts,
		"alternatives": optionSummaries(proposal.Options),
		"generatedAt":  proposal.CreatedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	record := &models.Timetable{
		Name:      req.Name,
		Status:    models.TimetableStatusDraft,
		Score:     option.Score,
		Seed:      option.Seed,
		Weeks:     option.Weeks,
		Conflicts: models.ConflictList(option.Conflicts),
		Meta:      types.JSONText(meta),
	}
	if actorID != "" {
		record.CreatedBy = &actorID
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.timetables.CreateVersioned(ctx, tx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	if err = s.timetables.InsertSessions(ctx, tx, record.ID, option.Sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable sessions")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}

	s.store.Delete(ctx, proposal.ID)
	s.logger.Info("timetable saved",
		zap.String("timetable_id", record.ID),
		zap.Int("version", record.Version),
		zap.Int("sessions", len(option.Sessions)),
		zap.Int("conflicts", record.ConflictCount),
	)
	return record, nil
}

// Publish moves a conflict-free draft to published and archives the previous published timetable.
func (s *TimetableService) Publish(ctx context.Context, id string) (*models.Timetable, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case models.TimetableStatusDraft:
	case models.TimetableStatusPublished:
		return nil, appErrors.Clone(appErrors.ErrPublished, "timetable already published")
	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be published")
	}
	if len(record.Conflicts) > 0 || record.ConflictCount > 0 {
		return nil, appErrors.Clone(appErrors.ErrUnresolvedConflicts, fmt.Sprintf("timetable has %d unresolved conflicts", maxInt(len(record.Conflicts), record.ConflictCount)))
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	previous, findErr := s.timetables.FindPublished(ctx, tx)
	switch {
	case findErr == nil:
		if err = s.timetables.UpdateStatus(ctx, tx, previous.ID, models.TimetableStatusArchived, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published timetable")
		}
	case !errors.Is(findErr, sql.ErrNoRows):
		err = findErr
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}

	publishedAt := s.now().UTC()
	if err = s.timetables.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished, &publishedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish")
	}

	record.Status = models.TimetableStatusPublished
	record.PublishedAt = &publishedAt
	record.UpdatedAt = publishedAt
	fields := []zap.Field{zap.String("timetable_id", record.ID), zap.Int("version", record.Version)}
	if previous != nil {
		fields = append(fields, zap.String("archived_id", previous.ID))
	}
	s.logger.Info("timetable published", fields...)
	return record, nil
}

// List returns stored timetables newest version first.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	filter := models.TimetableFilter{Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if query.Status != "" {
		status := models.TimetableStatus(query.Status)
		filter.Status = &status
	}
	list, total, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a stored timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	return s.find(ctx, id)
}

// Sessions returns the stored sessions of a timetable, optionally narrowed by week or entity.
func (s *TimetableService) Sessions(ctx context.Context, id string, query dto.SessionQuery) ([]models.Session, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session query")
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	sessions, err := s.timetables.ListSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable sessions")
	}
	filtered := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if query.Week > 0 && session.Week != query.Week {
			continue
		}
		if query.BatchID != "" && session.BatchID != query.BatchID {
			continue
		}
		if query.FacultyID != "" && session.FacultyID != query.FacultyID {
			continue
		}
		if query.RoomID != "" && session.RoomID != query.RoomID {
			continue
		}
		filtered = append(filtered, session)
	}
	return filtered, nil
}

// Analyze re-evaluates hand-edited sessions against the current snapshot.
func (s *TimetableService) Analyze(ctx context.Context, req dto.AnalyzeTimetableRequest) (*dto.TimetableAnalysisResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analyze payload")
	}
	seen := make(map[string]struct{}, len(req.Sessions))
	for i, session := range req.Sessions {
		if session.ID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("sessions[%d].id is required", i))
		}
		if _, dup := seen[session.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate session id %s", session.ID))
		}
		seen[session.ID] = struct{}{}
		if session.Week <= 0 {
			req.Sessions[i].Week = 1
		}
	}
	return s.analyze(ctx, req.Sessions, nil)
}

// Analytics re-evaluates the stored sessions of a timetable.
func (s *TimetableService) Analytics(ctx context.Context, id string) (*dto.TimetableAnalysisResponse, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	sessions, err := s.timetables.ListSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable sessions")
	}
	return s.analyze(ctx, sessions, &id)
}

// Delete removes a draft timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	record, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

func (s *TimetableService) analyze(ctx context.Context, sessions []models.Session, timetableID *string) (*dto.TimetableAnalysisResponse, error) {
	snapshot, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling entities")
	}
	analysis := engine.Analyze(snapshot, sessions)
	return &dto.TimetableAnalysisResponse{
		TimetableID: timetableID,
		Sessions:    len(sessions),
		Conflicts:   analysis.Conflicts,
		Score:       analysis.Score,
		Breakdown:   analysis.Breakdown,
		Utilization: analysis.Utilization,
	}, nil
}

func (s *TimetableService) find(ctx context.Context, id string) (*models.Timetable, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

// replicationFor resolves the generation mode. Asking for more than one week implies monthly.
func (s *TimetableService) replicationFor(req dto.GenerateTimetableRequest) (dto.GenerationMode, *engine.Replication) {
	mode := req.Mode
	if mode == "" {
		mode = dto.GenerationModeWeekly
		if req.Weeks > 1 {
			mode = dto.GenerationModeMonthly
		}
	}
	if mode != dto.GenerationModeMonthly {
		return mode, nil
	}
	rep := engine.Replication{Weeks: s.cfg.Weeks, Probability: s.cfg.InclusionProbability}
	if req.Weeks > 0 {
		rep.Weeks = req.Weeks
	}
	if req.InclusionProbability != nil {
		rep.Probability = *req.InclusionProbability
	}
	return mode, &rep
}

func toOptionDTOs(options []engine.Option) []dto.TimetableOption {
	out := make([]dto.TimetableOption, 0, len(options))
	for i, opt := range options {
		out = append(out, dto.TimetableOption{
			Index:        i,
			Name:         opt.Name,
			Score:        opt.Result.Score,
			Seed:         opt.Result.Seed,
			Weeks:        opt.Result.Weeks,
			BaseSessions: opt.Result.BaseSessions,
			Sessions:     opt.Result.Sessions,
			Conflicts:    opt.Result.Conflicts,
			Breakdown:    opt.Result.Breakdown,
			Utilization:  opt.Utilization,
		})
	}
	return out
}

func optionSummaries(options []dto.TimetableOption) []map[string]any {
	out := make([]map[string]any, 0, len(options))
	for _, opt := range options {
		out = append(out, map[string]any{
			"name":      opt.Name,
			"score":     opt.Score,
			"seed":      opt.Seed,
			"conflicts": len(opt.Conflicts),
		})
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
