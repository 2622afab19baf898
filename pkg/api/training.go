package api

import "time"

// SimulateRequest представляет запрос на запуск тренировочной группы
type SimulateRequest struct {
	GroupName  string `json:"group_name"`
	NumClients int    `json:"num_clients"`
}

// ExitRequest представляет запрос на остановку тренировочной группы
type ExitRequest struct {
	GroupName string `json:"group_name"`
}

// MetricRecord представляет одну запись метрик от клиента-тренера.
// Имена полей совпадают с тем, что тренер пишет в /metrics:
// client_id, accuracy, loss, timestamp, global_accuracy, global_loss.
type MetricRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ClientID       int       `json:"client_id"`
	Accuracy       float64   `json:"accuracy"`
	Loss           float64   `json:"loss"`
	GlobalAccuracy float64   `json:"global_accuracy"`
	GlobalLoss     float64   `json:"global_loss"`
}

// MetricsResponse представляет ответ на GET /metrics
// Пустой список metrics - это успех ("no metrics logged yet"), не ошибка.
type MetricsResponse struct {
	Status  string         `json:"status"`
	Metrics []MetricRecord `json:"metrics"`
}
