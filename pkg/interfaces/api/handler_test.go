package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/application/services/scheduler"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	fixtures "github.com/vsinha/drumsched/pkg/infrastructure/testing"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (*gin.Engine, *fixtures.Scenario) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := fixtures.BuildPlantScenario()
	svc, err := scheduler.NewScheduler(scheduler.Dependencies{
		JobOrders:      s.JobOrders,
		Inventory:      s.Inventory,
		PurchaseOrders: s.PurchaseOrders,
		Procurement:    s.Procurement,
		MasterData:     s.MasterData,
		Schedules:      s.Schedules,
	}, scheduler.DefaultConfig())
	require.NoError(t, err)

	return NewRouter(NewScheduleHandler(svc, nil), nil), s
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestScheduleHandler_WeekStartValidation(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		code     int
		errorTag string
	}{
		{"missing week_start", http.MethodGet, "/api/v1/drum-schedule", http.StatusBadRequest, CodeBadRequest, ""},
		{"tuesday", http.MethodGet, "/api/v1/drum-schedule?week_start=2025-01-07", http.StatusBadRequest, CodeInvalidDate, "INVALID_DATE"},
		{"not a date", http.MethodPost, "/api/v1/drum-schedule/regenerate?week_start=next-week", http.StatusBadRequest, CodeInvalidDate, "INVALID_DATE"},
		{"approve on sunday", http.MethodPost, "/api/v1/drum-schedule/approve?week_start=2025-01-12", http.StatusBadRequest, CodeInvalidDate, "INVALID_DATE"},
		{"unknown week", http.MethodGet, "/api/v1/drum-schedule?week_start=2025-01-13", http.StatusNotFound, CodeNotFound, "WEEK_NOT_FOUND"},
		{"arrivals before regenerate", http.MethodGet, "/api/v1/drum-schedule/arrivals?week_start=2025-01-06", http.StatusNotFound, CodeNotFound, "WEEK_NOT_FOUND"},
		{"bad accept flag", http.MethodPost, "/api/v1/drum-schedule/approve?week_start=2025-01-06&accept_over_capacity=maybe", http.StatusBadRequest, CodeBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doRequest(t, r, tt.method, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.errorTag, env.Error)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestScheduleHandler_Lifecycle(t *testing.T) {
	r, scenario := setupRouter(t)
	week := "?week_start=2025-01-06"

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/regenerate"+week)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, CodeSuccess, env.Code)
	assert.Equal(t, "success", env.Message)

	var result dto.ScheduleResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.ReadyCount)
	assert.Equal(t, 1, result.BlockedCount)
	assert.Len(t, result.Unplanned, 1)
	assert.Len(t, result.Requisitions, 1)

	w, env = doRequest(t, r, http.MethodGet, "/api/v1/drum-schedule"+week)
	require.Equal(t, http.StatusOK, w.Code)
	var stored entities.WeekSchedule
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, entities.WeekBlocked, stored.Status)
	assert.Len(t, stored.Days, 3)

	w, env = doRequest(t, r, http.MethodGet, "/api/v1/drum-schedule/arrivals"+week)
	require.Equal(t, http.StatusOK, w.Code)
	var arrivals dto.ArrivalsResult
	require.NoError(t, json.Unmarshal(env.Data, &arrivals))
	assert.Equal(t, "2025-01-06", arrivals.WeekStart)
	assert.Len(t, arrivals.Arrivals, 2)
	assert.Equal(t, 2, arrivals.Late)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/approve"+week)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_ALL_READY", env.Error)
	assert.Contains(t, string(env.Data), `"status":"BLOCKED"`)

	scenario.SetStock("RM-ACID", 110000)
	w, _ = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/regenerate"+week)
	require.Equal(t, http.StatusOK, w.Code)

	scenario.SetStock("PK-CAP", 500)
	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/approve"+week)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RESERVATION_CONFLICT", env.Error)
	assert.Contains(t, string(env.Data), `"item_id":"PK-CAP"`)

	scenario.SetStock("PK-CAP", 2000)
	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/approve"+week)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approval dto.ApprovalResult
	require.NoError(t, json.Unmarshal(env.Data, &approval))
	assert.Equal(t, entities.WeekApproved, approval.Week.Status)
	assert.Len(t, approval.Reservations, 11)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/approve"+week)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_APPROVED", env.Error)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/regenerate"+week)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_APPROVED", env.Error)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/reopen"+week)
	require.Equal(t, http.StatusOK, w.Code)
	var reopened dto.ReopenResult
	require.NoError(t, json.Unmarshal(env.Data, &reopened))
	assert.Equal(t, 11, reopened.Released)
	assert.Equal(t, entities.WeekDraft, reopened.Week.Status)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/drum-schedule/reopen"+week)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_APPROVED", env.Error)
}
