// Package worker реализует симулируемого клиента-тренера.
// Контракт с координатором: ленивый неограниченный поток MetricRecord
// с монотонными per-client временными метками, прекращающийся по
// отмене контекста или по отказу приемника.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/ledger"
)

// Emitter принимает записи метрик, производимые тренером.
// В продакшене это ledger группы; тесты подставляют свою реализацию.
type Emitter interface {
	Append(ctx context.Context, record models.MetricRecord) error
}

// Кривая обучения симулятора: accuracy растет от базы к потолку,
// loss экспоненциально затухает. Параметры подобраны под то, что
// выдает реальный тренер на табличных датасетах.
const (
	baseAccuracy    = 0.50
	ceilingAccuracy = 0.97
	initialLoss     = 1.2
	decayRounds     = 12.0 // характерное число раундов до выхода на плато
	noiseAmplitude  = 0.02
)

// Trainer симулирует локальное обучение одного клиента.
// Каждый раунд: "тренировка" (ожидание interval с джиттером),
// затем эмиссия метрик в приемник.
type Trainer struct {
	emitter   Emitter
	logger    *slog.Logger
	rng       *rand.Rand
	groupName string
	clientID  int
	interval  time.Duration
}

// New создает тренера для одного клиента группы.
func New(groupName string, clientID int, interval time.Duration, emitter Emitter, logger *slog.Logger) *Trainer {
	// Свой генератор на тренера: клиенты шумят независимо
	seed1 := uint64(time.Now().UnixNano())
	seed2 := uint64(clientID)

	return &Trainer{
		groupName: groupName,
		clientID:  clientID,
		interval:  interval,
		emitter:   emitter,
		logger:    logger,
		rng:       rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// Run крутит раунды обучения до отмены контекста или остановки группы.
// Блокирует вызывающего; запускается контроллером в отдельной горутине.
func (t *Trainer) Run(ctx context.Context) {
	timer := time.NewTimer(t.nextInterval())
	defer timer.Stop()

	for round := 1; ; round++ {
		select {
		case <-ctx.Done():
			t.logger.Debug("trainer cancelled",
				"group", t.groupName, "client_id", t.clientID, "rounds", round-1)
			return
		case <-timer.C:
		}

		record := t.trainRound(round)

		if err := t.emitter.Append(ctx, record); err != nil {
			// Остановленный ledger - штатный сигнал завершения
			if errors.Is(err, ledger.ErrRetired) || errors.Is(err, context.Canceled) {
				return
			}
			t.logger.Warn("failed to emit metric record",
				"group", t.groupName, "client_id", t.clientID, "error", err)
			return
		}

		timer.Reset(t.nextInterval())
	}
}

// trainRound вычисляет метрики раунда.
// Временная метка назначается тренером и монотонна внутри клиента.
func (t *Trainer) trainRound(round int) models.MetricRecord {
	progress := 1 - math.Exp(-float64(round)/decayRounds)

	accuracy := baseAccuracy + (ceilingAccuracy-baseAccuracy)*progress + t.noise()
	loss := initialLoss*math.Exp(-float64(round)/decayRounds) + t.noise()

	return models.MetricRecord{
		ClientID:  t.clientID,
		Accuracy:  clamp(accuracy, 0, 1),
		Loss:      math.Max(loss, 0),
		Timestamp: time.Now(),
	}
}

// nextInterval возвращает interval с джиттером +-25%:
// у клиентов нет общего такта
func (t *Trainer) nextInterval() time.Duration {
	jitter := 0.75 + 0.5*t.rng.Float64()
	return time.Duration(float64(t.interval) * jitter)
}

func (t *Trainer) noise() float64 {
	return (t.rng.Float64()*2 - 1) * noiseAmplitude
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
