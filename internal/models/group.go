package models

import "time"

// GroupStatus представляет состояние тренировочной группы.
// Переходы только Created -> Running -> Stopped, Stopped - терминальное.
type GroupStatus string

const (
	GroupStatusCreated GroupStatus = "created"
	GroupStatusRunning GroupStatus = "running"
	GroupStatusStopped GroupStatus = "stopped"
)

// TrainingGroup представляет один запуск симуляции.
// Имя группы не уникально во времени - настоящий ключ это ID,
// повторные симуляции с тем же именем получают новый ID.
type TrainingGroup struct {
	ID         string      `json:"id"`          // UUID группы
	Name       string      `json:"group_name"`  // имя группы, выбранное пользователем
	NumClients int         `json:"num_clients"` // количество симулируемых клиентов, >= 1
	Status     GroupStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	StoppedAt  *time.Time  `json:"stopped_at,omitempty"`
}

// MetricRecord представляет одну запись метрик обучения.
// Append-only: после записи в ledger никогда не изменяется.
// GlobalAccuracy/GlobalLoss - снимок агрегата на момент этого append,
// старые записи задним числом не пересчитываются.
type MetricRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ClientID       int       `json:"client_id"`
	Accuracy       float64   `json:"accuracy"`
	Loss           float64   `json:"loss"`
	GlobalAccuracy float64   `json:"global_accuracy"`
	GlobalLoss     float64   `json:"global_loss"`
}
