package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"testdesk/app"
	"testdesk/domain/core"
	"testdesk/internal"
	"testdesk/internal/errors"
	"testdesk/models"
)

type mockImporter struct {
	mock.Mock
}

func (m *mockImporter) Import(ctx context.Context, req app.ImportRequest) (*app.ImportResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*app.ImportResult)
	return result, args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ListProjects(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]models.Project)
	return projects, args.Error(1)
}

func (m *mockCatalog) CreateProject(ctx context.Context, name string) (models.Project, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.Project), args.Bool(1), args.Error(2)
}

func (m *mockCatalog) ListScenarioRows(ctx context.Context, projectID int64) ([]models.ScenarioRow, error) {
	args := m.Called(ctx, projectID)
	rows, _ := args.Get(0).([]models.ScenarioRow)
	return rows, args.Error(1)
}

func (m *mockCatalog) ImportHistory(ctx context.Context, limit int) ([]models.ImportRun, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]models.ImportRun)
	return runs, args.Error(1)
}

func newTestServer(importer Importer, catalog Catalog) *Server {
	return NewServer(DefaultConfig(), importer, catalog, internal.NewLogger(internal.LogLevelError))
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("PK fake workbook"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(&mockImporter{}, &mockCatalog{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestImportUpload(t *testing.T) {
	importer := &mockImporter{}
	outcomes := []models.ImportOutcome{
		{Screen: "ログイン画面", Name: "正常ログイン", Status: models.StatusSuccess, Message: models.MessageCreated, Action: models.ActionCreated, ItemCount: 2},
	}
	runID := core.NewRunID()
	importer.On("Import", mock.Anything, mock.MatchedBy(func(req app.ImportRequest) bool {
		return req.FileName == "login.xlsx" &&
			filepath.Ext(req.Path) == ".xlsx" &&
			req.Target == models.NewProject("販売管理") &&
			req.Overwrite
	})).Return(&app.ImportResult{RunID: runID, ProjectID: 3, Outcomes: outcomes}, nil)

	s := newTestServer(importer, &mockCatalog{})
	rec := serve(s, uploadRequest(t, "login.xlsx", map[string]string{"project_name": "販売管理"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, runID.String(), resp.RunID)
	assert.Equal(t, int64(3), resp.ProjectID)
	assert.Equal(t, outcomes, resp.Outcomes)
	assert.Equal(t, 1, resp.Summary.Created)
	importer.AssertExpectations(t)
}

func TestImportHonoursOverwriteField(t *testing.T) {
	importer := &mockImporter{}
	importer.On("Import", mock.Anything, mock.MatchedBy(func(req app.ImportRequest) bool {
		return !req.Overwrite && req.Target == models.ExistingProject(7)
	})).Return(&app.ImportResult{ProjectID: 7}, nil)

	rec := serve(newTestServer(importer, &mockCatalog{}),
		uploadRequest(t, "book.xlsx", map[string]string{"project_id": "7", "overwrite": "false"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	importer.AssertExpectations(t)
}

func TestImportRejectsBadTarget(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing", map[string]string{}},
		{"both", map[string]string{"project_id": "1", "project_name": "x"}},
		{"not a number", map[string]string{"project_id": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &mockImporter{}
			rec := serve(newTestServer(importer, &mockCatalog{}), uploadRequest(t, "book.xlsx", tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			importer.AssertNotCalled(t, "Import", mock.Anything, mock.Anything)
		})
	}
}

func TestImportRequiresFile(t *testing.T) {
	rec := serve(newTestServer(&mockImporter{}, &mockCatalog{}),
		uploadRequest(t, "", map[string]string{"project_id": "1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"file format", errors.FileFormatError("book.xls", fmt.Errorf("zip: not a valid zip file")), http.StatusUnprocessableEntity},
		{"unknown project", &errors.AppError{Code: errors.CodeNotFound, Message: "import rejected", Cause: core.NewNotFoundError("project", 9)}, http.StatusBadRequest},
		{"invalid name", &errors.AppError{Code: errors.CodeValidationError, Message: "import rejected", Cause: core.ErrInvalidName}, http.StatusBadRequest},
		{"store", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &mockImporter{}
			importer.On("Import", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(newTestServer(importer, &mockCatalog{}),
				uploadRequest(t, "book.xlsx", map[string]string{"project_id": "9"}))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestListProjects(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("ListProjects", mock.Anything).Return([]models.Project{{ID: 1, Name: "販売管理"}}, nil)

	rec := serve(newTestServer(&mockImporter{}, catalog), httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "販売管理")
}

func TestCreateProject(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("CreateProject", mock.Anything, "新規").Return(models.Project{ID: 4, Name: "新規"}, true, nil).Once()
	catalog.On("CreateProject", mock.Anything, "既存").Return(models.Project{ID: 1, Name: "既存"}, false, nil).Once()
	catalog.On("CreateProject", mock.Anything, "").
		Return(models.Project{}, false, &errors.AppError{Code: errors.CodeValidationError, Message: "invalid project", Cause: core.ErrInvalidName}).Once()
	s := newTestServer(&mockImporter{}, catalog)

	post := func(body string) *httptest.ResponseRecorder {
		return serve(s, httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body)))
	}

	assert.Equal(t, http.StatusCreated, post(`{"name":"新規"}`).Code)
	assert.Equal(t, http.StatusOK, post(`{"name":"既存"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	catalog.AssertExpectations(t)
}

func TestListScenarios(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("ListScenarioRows", mock.Anything, int64(2)).
		Return([]models.ScenarioRow{{ItemID: 10, ScreenName: "ログイン画面", ScenarioName: "正常ログイン", ItemName: "ID入力"}}, nil)
	catalog.On("ListScenarioRows", mock.Anything, int64(99)).Return(nil, core.NewNotFoundError("project", 99))
	s := newTestServer(&mockImporter{}, catalog)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/projects/2/scenarios", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ID入力")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/projects/99/scenarios", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/projects/x/scenarios", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHistory(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("ImportHistory", mock.Anything, defaultHistoryLimit).Return([]models.ImportRun{{ID: "a"}}, nil).Once()
	catalog.On("ImportHistory", mock.Anything, 5).Return([]models.ImportRun{}, nil).Once()
	s := newTestServer(&mockImporter{}, catalog)

	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/imports", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=5", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=0", nil)).Code)
	catalog.AssertExpectations(t)
}
