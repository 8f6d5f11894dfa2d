package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/middleware"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

type timetableServiceMock struct {
	generateReq  dto.GenerateTimetableRequest
	generateErr  error
	saveActor    string
	sessionQuery dto.SessionQuery
	listQuery    dto.TimetableQuery
	publishErr   error
	deleted      string
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.GenerateTimetableResponse{ProposalID: "proposal-1", Mode: dto.GenerationModeWeekly}, nil
}

func (m *timetableServiceMock) Save(ctx context.Context, req dto.SaveTimetableRequest, actorID string) (*models.Timetable, error) {
	m.saveActor = actorID
	return &models.Timetable{ID: "tt-1", Name: req.Name, Status: models.TimetableStatusDraft}, nil
}

func (m *timetableServiceMock) Publish(ctx context.Context, id string) (*models.Timetable, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	return &models.Timetable{ID: id, Status: models.TimetableStatusPublished}, nil
}

func (m *timetableServiceMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	m.listQuery = query
	return []models.Timetable{{ID: "tt-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *timetableServiceMock) Get(ctx context.Context, id string) (*models.Timetable, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &models.Timetable{ID: id}, nil
}

func (m *timetableServiceMock) Sessions(ctx context.Context, id string, query dto.SessionQuery) ([]models.Session, error) {
	m.sessionQuery = query
	return []models.Session{{ID: "s1"}, {ID: "s2"}}, nil
}

func (m *timetableServiceMock) Analyze(ctx context.Context, req dto.AnalyzeTimetableRequest) (*dto.TimetableAnalysisResponse, error) {
	return &dto.TimetableAnalysisResponse{Sessions: len(req.Sessions), Score: 90}, nil
}

func (m *timetableServiceMock) Analytics(ctx context.Context, id string) (*dto.TimetableAnalysisResponse, error) {
	return &dto.TimetableAnalysisResponse{TimetableID: &id, Score: 100}, nil
}

func (m *timetableServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables/generate", []byte(`{"seed":42,"options":2,"mode":"monthly","weeks":4}`))
	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.generateReq.Seed)
	assert.Equal(t, int64(42), *mockSvc.generateReq.Seed)
	assert.Equal(t, dto.GenerationModeMonthly, mockSvc.generateReq.Mode)
	envelope := decodeEnvelope(t, w)
	assert.JSONEq(t, `{"mode":"preview"}`, string(envelope["meta"]))
}

func TestTimetableHandlerGenerateWithoutBody(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables/generate", nil)
	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mockSvc.generateReq.Seed)
}

func TestTimetableHandlerGenerateErrors(t *testing.T) {
	mockSvc := &timetableServiceMock{generateErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable generation needs at least one of each entity")}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables/generate", []byte(`{}`))
	h.Generate(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	c, w = newGinContext(http.MethodPost, "/timetables/generate", []byte(`{"seed":"abc"}`))
	h.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerSaveUsesActor(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables", []byte(`{"proposalId":"p-1","option":0,"name":"Spring"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	h.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", mockSvc.saveActor)
}

func TestTimetableHandlerListAndSessions(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/timetables?status=DRAFT&page=2&pageSize=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DRAFT", mockSvc.listQuery.Status)
	assert.Equal(t, 2, mockSvc.listQuery.Page)
	assert.Contains(t, string(decodeEnvelope(t, w)["pagination"]), `"total_count":1`)

	c, w = newGinContext(http.MethodGet, "/timetables/tt-1/sessions?week=2&batchId=bat-a", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	h.Sessions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mockSvc.sessionQuery.Week)
	assert.Equal(t, "bat-a", mockSvc.sessionQuery.BatchID)
	assert.JSONEq(t, `{"count":2}`, string(decodeEnvelope(t, w)["meta"]))
}

func TestTimetableHandlerSessionsDefaultsToOwnFaculty(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}
	claims := &models.JWTClaims{UserID: "u-rao", Role: models.RoleFaculty, FacultyID: "fac-1"}

	c, w := newGinContext(http.MethodGet, "/timetables/tt-1/sessions", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	c.Set(middleware.ContextUserKey, claims)
	h.Sessions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fac-1", mockSvc.sessionQuery.FacultyID)

	c, _ = newGinContext(http.MethodGet, "/timetables/tt-1/sessions?roomId=room-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	c.Set(middleware.ContextUserKey, claims)
	h.Sessions(c)
	assert.Empty(t, mockSvc.sessionQuery.FacultyID)
	assert.Equal(t, "room-1", mockSvc.sessionQuery.RoomID)
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{}}
	c, w := newGinContext(http.MethodGet, "/timetables/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerPublishConflict(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{publishErr: appErrors.Clone(appErrors.ErrConflict, "timetable has 2 unresolved conflicts")}}
	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	h.Publish(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "unresolved conflicts")
}

func TestTimetableHandlerAnalyzeAndDelete(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables/analyze", []byte(`{"sessions":[{"id":"s1"},{"id":"s2"}]}`))
	h.Analyze(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w)["data"]), `"sessions":2`)

	c, w = newGinContext(http.MethodDelete, "/timetables/tt-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-9"}}
	h.Delete(c)
	// c.Status alone does not flush the header on a test context
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "tt-9", mockSvc.deleted)
}

type exportServiceMock struct {
	createReq   dto.ExportRequest
	createErr   error
	statusRole  models.UserRole
	download    *service.ExportDownload
	downloadErr error
}

func (m *exportServiceMock) CreateJob(ctx context.Context, timetableID string, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}, nil
}

func (m *exportServiceMock) GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ExportStatusResponse, error) {
	m.statusRole = role
	return &dto.ExportStatusResponse{ID: id, Status: models.ExportStatusFinished, Progress: 100}, nil
}

func (m *exportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	mockSvc := &exportServiceMock{}
	h := &ExportHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/exports", []byte(`{"format":"xlsx","batchId":"bat-a"}`))
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	h.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/exports/job-1", w.Header().Get("Location"))
	assert.Equal(t, models.ExportFormatXLSX, mockSvc.createReq.Format)
	require.NotNil(t, mockSvc.createReq.BatchID)
	assert.Equal(t, "bat-a", *mockSvc.createReq.BatchID)
}

func TestExportHandlerCreateRequiresClaims(t *testing.T) {
	h := &ExportHandler{service: &exportServiceMock{}}
	c, w := newGinContext(http.MethodPost, "/timetables/tt-1/exports", []byte(`{"format":"csv"}`))
	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportHandlerStatus(t *testing.T) {
	mockSvc := &exportServiceMock{}
	h := &ExportHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "f-1", Role: models.RoleFaculty})
	h.Status(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleFaculty, mockSvc.statusRole)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1_all.csv")
	require.NoError(t, os.WriteFile(path, []byte("Week,Day\n1,Monday\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	h := &ExportHandler{service: &exportServiceMock{download: &service.ExportDownload{File: file, Filename: "v1_all.csv", ContentType: "text/csv"}}}
	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="v1_all.csv"`)
	assert.Equal(t, "18", w.Header().Get("Content-Length"))
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "Week,Day\n1,Monday\n", string(body))
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	h := &ExportHandler{service: &exportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}}
	c, w := newGinContext(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type authServiceMock struct {
	loginErr error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email}}, nil
}

func (m *authServiceMock) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	h := &AuthHandler{service: &authServiceMock{}}
	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.test","password":"pw"}`))
	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
	assert.Contains(t, w.Body.String(), `"token_type":"Bearer"`)

	h = &AuthHandler{service: &authServiceMock{loginErr: appErrors.ErrInvalidCredentials}}
	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.test","password":"bad"}`))
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := &AuthHandler{service: &authServiceMock{}}
	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-7"})
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u-7"`)
}

func TestMetricsHandlerReady(t *testing.T) {
	metrics := service.NewMetricsService()
	h := NewMetricsHandler(metrics, map[string]ReadinessCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
	assert.Contains(t, w.Body.String(), `"engine"`)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
