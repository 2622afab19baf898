package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/lifecycle"
	"github.com/iudanet/fedsim/pkg/api"
)

// mockController is a mock implementation of GroupController for testing
type mockController struct {
	groups      map[string]*models.TrainingGroup
	metrics     map[string][]models.MetricRecord
	createError error
	stopError   error
}

func newMockController() *mockController {
	return &mockController{
		groups:  make(map[string]*models.TrainingGroup),
		metrics: make(map[string][]models.MetricRecord),
	}
}

func (m *mockController) CreateGroup(ctx context.Context, name string, numClients int) (*models.TrainingGroup, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	if numClients <= 0 {
		return nil, lifecycle.ErrInvalidClientCount
	}
	g := &models.TrainingGroup{
		ID:         "test-id",
		Name:       name,
		NumClients: numClients,
		Status:     models.GroupStatusRunning,
		CreatedAt:  time.Now(),
	}
	m.groups[name] = g
	return g, nil
}

func (m *mockController) StopGroup(ctx context.Context, name string) error {
	if m.stopError != nil {
		return m.stopError
	}
	g, ok := m.groups[name]
	if !ok || g.Status != models.GroupStatusRunning {
		return lifecycle.ErrGroupNotActive
	}
	g.Status = models.GroupStatusStopped
	return nil
}

func (m *mockController) Snapshot(ctx context.Context, name string) ([]models.MetricRecord, error) {
	if _, ok := m.groups[name]; !ok {
		return nil, lifecycle.ErrUnknownGroup
	}
	return m.metrics[name], nil
}

func doSimulate(t *testing.T, handler *TrainingHandler, groupName string, numClients int) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(api.SimulateRequest{GroupName: groupName, NumClients: numClients})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Simulate(w, req)
	return w
}

func doExit(t *testing.T, handler *TrainingHandler, groupName string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(api.ExitRequest{GroupName: groupName})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/exit", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Exit(w, req)
	return w
}

func doMetrics(t *testing.T, handler *TrainingHandler, groupName string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics?group_name="+groupName, nil)
	w := httptest.NewRecorder()
	handler.Metrics(w, req)
	return w
}

func TestTrainingHandler_Simulate_Success(t *testing.T) {
	controller := newMockController()
	handler := NewTrainingHandler(setupTestLogger(), controller)

	w := doSimulate(t, handler, "income", 2)

	assert.Equal(t, http.StatusOK, w.Code)

	var response api.StatusResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, api.StatusSuccess, response.Status)
	assert.Equal(t, "Client added to group income", response.Message)
	assert.Contains(t, controller.groups, "income")
}

func TestTrainingHandler_Simulate_InvalidClientCount(t *testing.T) {
	for _, count := range []int{0, -3} {
		controller := newMockController()
		handler := NewTrainingHandler(setupTestLogger(), controller)

		w := doSimulate(t, handler, "income", count)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, controller.groups)
	}
}

func TestTrainingHandler_Simulate_InvalidGroupName(t *testing.T) {
	controller := newMockController()
	handler := NewTrainingHandler(setupTestLogger(), controller)

	w := doSimulate(t, handler, "", 2)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doSimulate(t, handler, "bad name!", 2)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainingHandler_Simulate_InvalidJSON(t *testing.T) {
	handler := NewTrainingHandler(setupTestLogger(), newMockController())

	req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.Simulate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainingHandler_Simulate_ControllerError(t *testing.T) {
	controller := newMockController()
	controller.createError = errors.New("db down")
	handler := NewTrainingHandler(setupTestLogger(), controller)

	w := doSimulate(t, handler, "income", 2)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTrainingHandler_Metrics_Success(t *testing.T) {
	controller := newMockController()
	now := time.Now()
	controller.groups["income"] = &models.TrainingGroup{Name: "income", Status: models.GroupStatusRunning}
	controller.metrics["income"] = []models.MetricRecord{
		{ClientID: 1, Accuracy: 0.80, Loss: 0.4, Timestamp: now, GlobalAccuracy: 0.80, GlobalLoss: 0.4},
		{ClientID: 2, Accuracy: 0.90, Loss: 0.2, Timestamp: now.Add(time.Second), GlobalAccuracy: 0.85, GlobalLoss: 0.3},
	}

	handler := NewTrainingHandler(setupTestLogger(), controller)

	w := doMetrics(t, handler, "income")

	assert.Equal(t, http.StatusOK, w.Code)

	var response api.MetricsResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, api.StatusSuccess, response.Status)
	require.Len(t, response.Metrics, 2)

	// Порядок прибытия сохранен, глобальный агрегат проштампован
	// на момент каждой записи и задним числом не меняется
	assert.Equal(t, 1, response.Metrics[0].ClientID)
	assert.InDelta(t, 0.80, response.Metrics[0].GlobalAccuracy, 1e-9)
	assert.InDelta(t, 0.4, response.Metrics[0].GlobalLoss, 1e-9)
	assert.Equal(t, 2, response.Metrics[1].ClientID)
	assert.InDelta(t, 0.85, response.Metrics[1].GlobalAccuracy, 1e-9)
	assert.InDelta(t, 0.3, response.Metrics[1].GlobalLoss, 1e-9)
}

func TestTrainingHandler_Metrics_EmptyHistoryIsSuccess(t *testing.T) {
	controller := newMockController()
	controller.groups["income"] = &models.TrainingGroup{Name: "income", Status: models.GroupStatusRunning}

	handler := NewTrainingHandler(setupTestLogger(), controller)

	w := doMetrics(t, handler, "income")

	assert.Equal(t, http.StatusOK, w.Code)

	var response api.MetricsResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, api.StatusSuccess, response.Status)
	assert.Empty(t, response.Metrics)
}

func TestTrainingHandler_Metrics_UnknownGroup(t *testing.T) {
	handler := NewTrainingHandler(setupTestLogger(), newMockController())

	w := doMetrics(t, handler, "nosuch")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response api.ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, "Invalid group", response.Message)
}

func TestTrainingHandler_Metrics_MissingGroupName(t *testing.T) {
	handler := NewTrainingHandler(setupTestLogger(), newMockController())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.Metrics(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainingHandler_Exit_Success(t *testing.T) {
	controller := newMockController()
	handler := NewTrainingHandler(setupTestLogger(), controller)

	require.Equal(t, http.StatusOK, doSimulate(t, handler, "income", 2).Code)

	w := doExit(t, handler, "income")

	assert.Equal(t, http.StatusOK, w.Code)

	var response api.StatusResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, "Client exited group income", response.Message)
	assert.Equal(t, models.GroupStatusStopped, controller.groups["income"].Status)
}

func TestTrainingHandler_Exit_NotActive(t *testing.T) {
	controller := newMockController()
	handler := NewTrainingHandler(setupTestLogger(), controller)

	// Unknown group
	w := doExit(t, handler, "nosuch")
	assert.Equal(t, http.StatusConflict, w.Code)

	var response api.ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "Group is not active", response.Message)

	// Stopped - поглощающее состояние, повторный exit тоже конфликт
	require.Equal(t, http.StatusOK, doSimulate(t, handler, "income", 2).Code)
	require.Equal(t, http.StatusOK, doExit(t, handler, "income").Code)
	w = doExit(t, handler, "income")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTrainingHandler_Exit_MissingGroupName(t *testing.T) {
	handler := NewTrainingHandler(setupTestLogger(), newMockController())

	w := doExit(t, handler, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// История остановленной группы остается читаемой и не меняется
func TestTrainingHandler_HistorySurvivesExit(t *testing.T) {
	controller := newMockController()
	now := time.Now()
	handler := NewTrainingHandler(setupTestLogger(), controller)

	require.Equal(t, http.StatusOK, doSimulate(t, handler, "income", 2).Code)
	controller.metrics["income"] = []models.MetricRecord{
		{ClientID: 1, Accuracy: 0.80, Loss: 0.4, Timestamp: now, GlobalAccuracy: 0.80, GlobalLoss: 0.4},
	}

	require.Equal(t, http.StatusOK, doExit(t, handler, "income").Code)

	w := doMetrics(t, handler, "income")
	assert.Equal(t, http.StatusOK, w.Code)

	var response api.MetricsResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	require.Len(t, response.Metrics, 1)
	assert.InDelta(t, 0.80, response.Metrics[0].GlobalAccuracy, 1e-9)
}
