package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/handler"
	"github.com/mtlprog/constructos/internal/handler/dto"
	"github.com/mtlprog/constructos/internal/repository/memstore"
	"github.com/mtlprog/constructos/internal/service"
)

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type HandlerTestSuite struct {
	suite.Suite
	store *memstore.Store
	mux   *http.ServeMux
}

func (s *HandlerTestSuite) SetupTest() {
	rootID := int64(domain.RootTaskID)
	s.store = memstore.New(
		&domain.Task{
			ID: 1, Name: "Campus", Phase: domain.PhasePreConstruction,
			Progress: 75, Status: domain.StatusInProgress,
			StartDate: date("2025-05-01"), EndDate: date("2025-06-10"), Duration: 41,
		},
		&domain.Task{
			ID: 2, ParentID: &rootID, Name: "Site survey", Level: 1, Phase: domain.PhasePreConstruction,
			IsLeaf: true, Status: domain.StatusNotStarted,
			StartDate: date("2025-06-01"), EndDate: date("2025-06-10"), Duration: 10,
		},
		&domain.Task{
			ID: 3, ParentID: &rootID, Name: "Approvals", Level: 1, Phase: domain.PhasePreConstruction,
			IsLeaf: true, Progress: 100, Status: domain.StatusCompleted,
			StartDate: date("2025-05-01"), EndDate: date("2025-05-30"), Duration: 30,
		},
	)

	svc := service.NewTaskService(s.store, service.ProjectInfo{
		Name:  "Test Project",
		Start: date("2025-05-01"),
		End:   date("2025-06-10"),
	}, func() time.Time { return testNow })

	s.mux = http.NewServeMux()
	handler.New(svc, nil).RegisterRoutes(s.mux)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Helper to make a request against the registered routes
func (s *HandlerTestSuite) makeRequest(method, path string, body any) *httptest.ResponseRecorder {
	var bodyReader *bytes.Reader
	switch b := body.(type) {
	case nil:
		bodyReader = bytes.NewReader([]byte{})
	case string:
		bodyReader = bytes.NewReader([]byte(b))
	default:
		bodyBytes, err := json.Marshal(b)
		s.Require().NoError(err)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *HandlerTestSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code, w.Body.String())
	var resp dto.ErrorResponse
	s.decode(w, &resp)
	s.Equal(code, resp.Error.Code)
}

func (s *HandlerTestSuite) TestHealthz() {
	w := s.makeRequest("GET", "/healthz", nil)
	s.Equal(http.StatusOK, w.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func (s *HandlerTestSuite) TestHealthz_DatabaseDown() {
	mux := http.NewServeMux()
	svc := service.NewTaskService(s.store, service.ProjectInfo{}, nil)
	handler.New(svc, failingPinger{}).RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlerTestSuite) TestAPIMd() {
	w := s.makeRequest("GET", "/api.md", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/markdown")
	s.Contains(w.Body.String(), "/tasks/{id}/progress")
}

func (s *HandlerTestSuite) TestListTasks() {
	w := s.makeRequest("GET", "/api/v1/tasks", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.TasksListResponse
	s.decode(w, &resp)
	s.Equal(3, resp.Total)
	s.Require().Len(resp.Tasks, 3)
	s.Equal(int64(1), resp.Tasks[0].ID)
	s.Nil(resp.Tasks[0].ParentID)
	s.Equal("2025-06-01", resp.Tasks[1].StartDate)
}

func (s *HandlerTestSuite) TestListTasks_PhaseFilter() {
	w := s.makeRequest("GET", "/api/v1/tasks?phase=auditorium", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.TasksListResponse
	s.decode(w, &resp)
	s.Equal(0, resp.Total)
	s.NotNil(resp.Tasks)
}

func (s *HandlerTestSuite) TestListTasks_InvalidPhase() {
	w := s.makeRequest("GET", "/api/v1/tasks?phase=moon_base", nil)
	s.assertError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func (s *HandlerTestSuite) TestGetTask() {
	w := s.makeRequest("GET", "/api/v1/tasks/3", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.TaskResponse
	s.decode(w, &resp)
	s.Equal("Approvals", resp.Name)
	s.Equal("completed", resp.Status)
	s.Equal(100.0, resp.Progress)
}

func (s *HandlerTestSuite) TestGetTask_NotFound() {
	w := s.makeRequest("GET", "/api/v1/tasks/999", nil)
	s.assertError(w, http.StatusNotFound, "TASK_NOT_FOUND")
}

func (s *HandlerTestSuite) TestGetTask_InvalidID() {
	w := s.makeRequest("GET", "/api/v1/tasks/abc", nil)
	s.assertError(w, http.StatusBadRequest, "INVALID_REQUEST")

	w = s.makeRequest("GET", "/api/v1/tasks/0", nil)
	s.assertError(w, http.StatusBadRequest, "INVALID_REQUEST")
}

func (s *HandlerTestSuite) TestUpdateProgress_RollsUpParent() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{
		"progress":     40,
		"update_notes": "survey started",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.MutationResponse
	s.decode(w, &resp)
	s.Equal(40.0, resp.Task.Progress)
	s.Equal("in_progress", resp.Task.Status)

	s.Require().Len(resp.History, 2)
	s.Equal("progress_update", resp.History[0].Action)
	s.Equal("0.0", resp.History[0].OldValue)
	s.Equal("40.0", resp.History[0].NewValue)
	s.Equal("survey started", resp.History[0].Notes)
	s.Equal("status_change", resp.History[1].Action)
	s.Equal("not_started", resp.History[1].OldValue)
	s.Equal("in_progress", resp.History[1].NewValue)

	// (40*10 + 100*30) / 40
	s.Require().Len(resp.Ancestors, 1)
	s.Equal(int64(1), resp.Ancestors[0].ID)
	s.Equal(85.0, resp.Ancestors[0].Progress)
	s.Equal("in_progress", resp.Ancestors[0].Status)
}

func (s *HandlerTestSuite) TestUpdateProgress_NonLeaf() {
	w := s.makeRequest("PUT", "/api/v1/tasks/1/progress", map[string]any{"progress": 50})
	s.assertError(w, http.StatusBadRequest, "NOT_LEAF_TASK")
}

func (s *HandlerTestSuite) TestUpdateProgress_MissingProgress() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{"update_notes": "x"})
	s.assertError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func (s *HandlerTestSuite) TestUpdateProgress_InvalidJSON() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/progress", "{not json")
	s.assertError(w, http.StatusBadRequest, "INVALID_JSON")
}

func (s *HandlerTestSuite) TestUpdateProgress_NotFound() {
	w := s.makeRequest("PUT", "/api/v1/tasks/42/progress", map[string]any{"progress": 10})
	s.assertError(w, http.StatusNotFound, "TASK_NOT_FOUND")
}

func (s *HandlerTestSuite) TestUpdateDates() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/dates", map[string]any{
		"start_date": "2025-06-01",
		"end_date":   "2025-06-30",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.MutationResponse
	s.decode(w, &resp)
	s.Equal(30, resp.Task.Duration)
	s.Require().Len(resp.History, 1)
	s.Equal("date_change", resp.History[0].Action)
	s.Equal("2025-06-01 to 2025-06-10", resp.History[0].OldValue)
	s.Equal("2025-06-01 to 2025-06-30", resp.History[0].NewValue)

	// (0*30 + 100*30) / 60
	s.Require().Len(resp.Ancestors, 1)
	s.Equal(50.0, resp.Ancestors[0].Progress)
}

func (s *HandlerTestSuite) TestUpdateDates_InvalidDate() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/dates", map[string]any{
		"start_date": "01/06/2025",
		"end_date":   "2025-06-30",
	})
	s.assertError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func (s *HandlerTestSuite) TestUpdateRisk() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/risk", map[string]any{
		"risk_flagged": true,
		"risk_notes":   "monsoon",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.MutationResponse
	s.decode(w, &resp)
	s.True(resp.Task.RiskFlagged)
	s.Equal("at_risk", resp.Task.Status)
	s.Require().Len(resp.History, 1)
	s.Equal("risk_change", resp.History[0].Action)
	s.Equal("False", resp.History[0].OldValue)
	s.Equal("True", resp.History[0].NewValue)
	s.Equal("monsoon", resp.History[0].Notes)

	s.Require().Len(resp.Ancestors, 1)
	s.Equal("at_risk", resp.Ancestors[0].Status)
}

func (s *HandlerTestSuite) TestUpdateRisk_MissingFlag() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/risk", map[string]any{"risk_notes": "x"})
	s.assertError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func (s *HandlerTestSuite) TestUpdateNotes_WritesNoHistory() {
	w := s.makeRequest("PUT", "/api/v1/tasks/2/notes", map[string]any{"notes": "crew on site"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var task dto.TaskResponse
	s.decode(w, &task)
	s.Equal("crew on site", task.Notes)

	w = s.makeRequest("GET", "/api/v1/tasks/2/history", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var history dto.HistoryListResponse
	s.decode(w, &history)
	s.Equal(0, history.Total)
	s.NotNil(history.Entries)
}

func (s *HandlerTestSuite) TestTaskHistory_NewestFirst() {
	s.Require().Equal(http.StatusOK, s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{"progress": 20}).Code)
	s.Require().Equal(http.StatusOK, s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{"progress": 60}).Code)

	w := s.makeRequest("GET", "/api/v1/tasks/2/history", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.HistoryListResponse
	s.decode(w, &resp)
	s.Require().Equal(3, resp.Total)
	s.Equal("60.0", resp.Entries[0].NewValue)
	s.Equal("in_progress", resp.Entries[1].NewValue)
	s.Equal("20.0", resp.Entries[2].NewValue)
	s.Empty(resp.Entries[0].TaskName)
}

func (s *HandlerTestSuite) TestRecentHistory() {
	s.Require().Equal(http.StatusOK, s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{"progress": 20}).Code)

	w := s.makeRequest("GET", "/api/v1/history/recent?limit=1", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.HistoryListResponse
	s.decode(w, &resp)
	s.Require().Equal(1, resp.Total)
	s.Equal("Site survey", resp.Entries[0].TaskName)
}

func (s *HandlerTestSuite) TestRecentHistory_InvalidLimit() {
	w := s.makeRequest("GET", "/api/v1/history/recent?limit=many", nil)
	s.assertError(w, http.StatusBadRequest, "INVALID_REQUEST")
}

func (s *HandlerTestSuite) TestDashboardStats() {
	w := s.makeRequest("GET", "/api/v1/dashboard/stats", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.DashboardStatsResponse
	s.decode(w, &resp)
	s.Equal(75.0, resp.OverallProgress)
	s.Equal(3, resp.TotalTasks)
	s.Equal(2, resp.LeafTasks)
	s.Equal(1, resp.StatusCounts["completed"])
	s.Equal(1, resp.StatusCounts["not_started"])
	s.Equal(0, resp.StatusCounts["delayed"])
	s.Len(resp.Phases, len(domain.AllPhases))
	s.Equal("pre_construction", resp.Phases[0].Phase)
	s.Equal(75.0, resp.Phases[0].Progress)
	s.Empty(resp.AtRiskTasks)
	s.Equal("2025-05-01", resp.ProjectStart)
}

func (s *HandlerTestSuite) TestReport_WithHistory() {
	s.Require().Equal(http.StatusOK, s.makeRequest("PUT", "/api/v1/tasks/2/progress", map[string]any{"progress": 20}).Code)

	w := s.makeRequest("GET", "/api/v1/reports?start_date=2025-06-01&end_date=2025-06-01&include_history=true", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.ReportResponse
	s.decode(w, &resp)
	s.Equal("full", resp.Type)
	s.Equal("Test Project", resp.ProjectName)
	s.Require().NotNil(resp.StartDate)
	s.Equal("2025-06-01", *resp.StartDate)
	// Task 3 ended on 2025-05-30 and does not overlap the window.
	s.Equal(2, resp.TotalTasks)
	s.Equal(1, resp.LeafTasks)
	s.Len(resp.History, 2)
}

func (s *HandlerTestSuite) TestReport_InvalidInput() {
	s.assertError(s.makeRequest("GET", "/api/v1/reports?start_date=yesterday", nil),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	s.assertError(s.makeRequest("GET", "/api/v1/reports?type=hourly", nil),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	s.assertError(s.makeRequest("GET", "/api/v1/reports?include_history=perhaps", nil),
		http.StatusBadRequest, "INVALID_REQUEST")
}
