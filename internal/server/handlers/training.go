package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/lifecycle"
	"github.com/iudanet/fedsim/internal/validation"
	"github.com/iudanet/fedsim/pkg/api"
)

// GroupController определяет интерфейс контроллера жизненного цикла
// групп со стороны гейтвея
type GroupController interface {
	CreateGroup(ctx context.Context, name string, numClients int) (*models.TrainingGroup, error)
	StopGroup(ctx context.Context, name string) error
	Snapshot(ctx context.Context, name string) ([]models.MetricRecord, error)
}

// TrainingHandler обрабатывает запросы жизненного цикла тренировочных
// групп и чтение метрик. Чистый routing/validation слой: состояние
// живет в контроллере и ledger-ах.
type TrainingHandler struct {
	logger     *slog.Logger
	controller GroupController
}

// NewTrainingHandler создает новый handler для тренировочных групп
func NewTrainingHandler(logger *slog.Logger, controller GroupController) *TrainingHandler {
	return &TrainingHandler{
		logger:     logger,
		controller: controller,
	}
}

// Simulate обрабатывает POST /simulate
// Создает тренировочную группу и запускает ее воркеров
func (h *TrainingHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode simulate request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateGroupName(req.GroupName); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	group, err := h.controller.CreateGroup(ctx, req.GroupName, req.NumClients)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidClientCount) {
			h.logger.WarnContext(ctx, "invalid client count",
				slog.String("group", req.GroupName), slog.Int("num_clients", req.NumClients))
			h.sendError(w, "num_clients must be a positive integer", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create group",
			slog.String("group", req.GroupName), slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	username, _ := GetUsername(ctx)
	h.logger.InfoContext(ctx, "simulation started",
		slog.String("group", group.Name),
		slog.String("group_id", group.ID),
		slog.Int("num_clients", group.NumClients),
		slog.String("username", username))

	resp := api.StatusResponse{
		Status:  api.StatusSuccess,
		Message: fmt.Sprintf("Client added to group %s", group.Name),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Metrics обрабатывает GET /metrics?group_name=...
// Возвращает историю метрик новейшего запуска с этим именем в порядке
// прибытия. Пустой список - это успех, дашборд поллит до первых записей.
func (h *TrainingHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groupName := r.URL.Query().Get("group_name")
	if groupName == "" {
		h.sendError(w, "group_name is required", http.StatusBadRequest)
		return
	}

	records, err := h.controller.Snapshot(ctx, groupName)
	if err != nil {
		if errors.Is(err, lifecycle.ErrUnknownGroup) {
			h.sendError(w, "Invalid group", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to read metrics",
			slog.String("group", groupName), slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Конвертируем в API формат
	metrics := make([]api.MetricRecord, 0, len(records))
	for _, rec := range records {
		metrics = append(metrics, api.MetricRecord{
			ClientID:       rec.ClientID,
			Accuracy:       rec.Accuracy,
			Loss:           rec.Loss,
			Timestamp:      rec.Timestamp,
			GlobalAccuracy: rec.GlobalAccuracy,
			GlobalLoss:     rec.GlobalLoss,
		})
	}

	resp := api.MetricsResponse{
		Status:  api.StatusSuccess,
		Metrics: metrics,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Exit обрабатывает POST /exit
// Останавливает новейший запуск группы: воркеры отменяются, ledger
// становится read-only, история остается доступной
func (h *TrainingHandler) Exit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode exit request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.GroupName == "" {
		h.sendError(w, "group_name is required", http.StatusBadRequest)
		return
	}

	if err := h.controller.StopGroup(ctx, req.GroupName); err != nil {
		if errors.Is(err, lifecycle.ErrGroupNotActive) {
			h.sendError(w, "Group is not active", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to stop group",
			slog.String("group", req.GroupName), slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	username, _ := GetUsername(ctx)
	h.logger.InfoContext(ctx, "group exited",
		slog.String("group", req.GroupName), slog.String("username", username))

	resp := api.StatusResponse{
		Status:  api.StatusSuccess,
		Message: fmt.Sprintf("Client exited group %s", req.GroupName),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// sendJSON отправляет JSON ответ
func (h *TrainingHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *TrainingHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Status: api.StatusError, Message: message}, statusCode)
}
