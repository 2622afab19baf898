// Package ledger реализует append-only журнал метрик одной тренировочной
// группы с бегущим глобальным агрегатом. Записи добавляются в порядке
// прибытия и после записи не изменяются; после retire журнал становится
// read-only, история остается доступной.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/storage"
)

// ErrRetired indicates that the group was stopped and its ledger
// no longer accepts appends. Reads are still permitted.
var ErrRetired = errors.New("ledger is retired")

// Ledger хранит историю метрик одной группы.
// Append-ы сериализуются write-локом (single writer), Snapshot берет
// read-лок и копирует срез: читатели видят состояние до или после
// целого append-а, никогда частичную запись.
type Ledger struct {
	logger  *slog.Logger
	archive storage.MetricStorage // write-through архив, nil допустим
	latest  map[int]models.MetricRecord
	groupID string
	records []models.MetricRecord
	mu      sync.RWMutex
	retired bool
}

// New создает пустой ledger для группы.
// archive может быть nil - тогда история живет только в памяти.
func New(groupID string, archive storage.MetricStorage, logger *slog.Logger) *Ledger {
	return &Ledger{
		groupID: groupID,
		archive: archive,
		latest:  make(map[int]models.MetricRecord),
		records: make([]models.MetricRecord, 0),
		logger:  logger,
	}
}

// GroupID возвращает ID группы-владельца
func (l *Ledger) GroupID() string {
	return l.groupID
}

// Append добавляет запись и пересчитывает глобальный агрегат.
// Агрегат - среднее accuracy/loss по последней записи каждого
// отчитавшегося клиента; его снимок штампуется в добавляемую запись.
// Возвращает ErrRetired если группа остановлена.
func (l *Ledger) Append(ctx context.Context, record models.MetricRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Append, начавшийся до retire, проходит; после retire не допускаем новых
	if l.retired {
		return ErrRetired
	}

	// Обновляем последнюю запись клиента и пересчитываем агрегат
	l.latest[record.ClientID] = record

	var sumAcc, sumLoss float64
	for _, latest := range l.latest {
		sumAcc += latest.Accuracy
		sumLoss += latest.Loss
	}
	n := float64(len(l.latest))
	record.GlobalAccuracy = sumAcc / n
	record.GlobalLoss = sumLoss / n

	l.records = append(l.records, record)

	// Write-through в архив: сбой архива не отклоняет уже принятую запись
	if l.archive != nil {
		if err := l.archive.SaveMetric(ctx, l.groupID, &record); err != nil {
			l.logger.Warn("failed to archive metric record",
				"group_id", l.groupID,
				"client_id", record.ClientID,
				"error", err)
		}
	}

	return nil
}

// Snapshot возвращает копию всех записей в порядке прибытия.
// Безопасен при конкурентных Append-ах и работает после retire.
func (l *Ledger) Snapshot() []models.MetricRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]models.MetricRecord, len(l.records))
	copy(snapshot, l.records)
	return snapshot
}

// Len возвращает количество принятых записей
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Aggregate возвращает текущий глобальный агрегат и количество
// клиентов, отчитавшихся хотя бы раз. Если никто не отчитался,
// возвращает нули.
func (l *Ledger) Aggregate() (accuracy, loss float64, clients int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.latest) == 0 {
		return 0, 0, 0
	}

	var sumAcc, sumLoss float64
	for _, latest := range l.latest {
		sumAcc += latest.Accuracy
		sumLoss += latest.Loss
	}
	n := float64(len(l.latest))
	return sumAcc / n, sumLoss / n, len(l.latest)
}

// Retire переводит ledger в read-only. Идемпотентен.
// История не удаляется, Snapshot продолжает работать.
func (l *Ledger) Retire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retired = true
}

// Retired сообщает, остановлен ли ledger
func (l *Ledger) Retired() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.retired
}
