// Package lifecycle реализует контроллер жизненного цикла тренировочных
// групп: создание группы, запуск и надзор за ее воркерами, остановка.
// Машина состояний группы: Created -> Running -> Stopped, Stopped -
// поглощающее состояние.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/ledger"
	"github.com/iudanet/fedsim/internal/server/storage"
	"github.com/iudanet/fedsim/internal/server/worker"
)

// Lifecycle errors
var (
	// ErrInvalidClientCount indicates that numClients is not positive
	ErrInvalidClientCount = errors.New("number of clients must be positive")

	// ErrGroupNotActive indicates that the group is unknown or already stopped
	ErrGroupNotActive = errors.New("group is not active")

	// ErrUnknownGroup indicates that no group with this name was ever created
	ErrUnknownGroup = errors.New("unknown group")
)

// WorkerFunc запускает одного воркера группы и блокируется до его
// завершения. Контроллер вызывает ее в отдельной горутине на клиента.
// Тесты подставляют детерминированные реализации.
type WorkerFunc func(ctx context.Context, groupName string, clientID int, emit worker.Emitter)

// group объединяет запись группы, ее ledger и ручки надзора за воркерами.
// mu сериализует переходы жизненного цикла этой группы: stop не может
// гоняться с поздним запуском воркеров.
type group struct {
	cancel context.CancelFunc
	ledger *ledger.Ledger
	model  models.TrainingGroup
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// Controller владеет таблицей групп.
// Операции над разными группами не блокируют друг друга: глобальный
// лок держится только на время работы с таблицей, переходы группы
// идут под ее собственным локом.
type Controller struct {
	logger      *slog.Logger
	groupStore  storage.GroupStorage
	metricStore storage.MetricStorage
	startWorker WorkerFunc
	active      map[string]*group // имя группы -> новейший запуск
	baseCtx     context.Context
	baseCancel  context.CancelFunc
	mu          sync.RWMutex
}

// New создает контроллер.
// groupStore и metricStore могут быть nil (память-only режим в тестах).
func New(groupStore storage.GroupStorage, metricStore storage.MetricStorage, startWorker WorkerFunc, logger *slog.Logger) *Controller {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Controller{
		groupStore:  groupStore,
		metricStore: metricStore,
		startWorker: startWorker,
		active:      make(map[string]*group),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		logger:      logger,
	}
}

// CreateGroup создает новый запуск группы и поднимает numClients воркеров.
// Возвращает ErrInvalidClientCount для numClients <= 0, без побочных
// эффектов. Повторное имя допустимо: новый запуск затеняет прежний.
func (c *Controller) CreateGroup(ctx context.Context, name string, numClients int) (*models.TrainingGroup, error) {
	if numClients <= 0 {
		return nil, ErrInvalidClientCount
	}

	g := &group{
		model: models.TrainingGroup{
			ID:         uuid.New().String(),
			Name:       name,
			NumClients: numClients,
			Status:     models.GroupStatusCreated,
			CreatedAt:  time.Now(),
		},
	}
	g.ledger = ledger.New(g.model.ID, c.metricStore, c.logger)

	// До первого Put в таблицу группа никому не видна; лок группы
	// берем заранее, чтобы stop по имени не успел вклиниться до spawn
	g.mu.Lock()
	defer g.mu.Unlock()

	c.mu.Lock()
	prev := c.active[name]
	c.active[name] = g
	c.mu.Unlock()

	// Новый запуск затеняет прежний; не даем воркерам прежнего течь
	if prev != nil {
		if err := c.stop(ctx, prev); err == nil {
			c.logger.Info("stopped previous run with the same name",
				"group", name, "prev_id", prev.model.ID, "new_id", g.model.ID)
		}
	}

	if c.groupStore != nil {
		if err := c.groupStore.CreateGroup(ctx, &g.model); err != nil {
			// Снимаем только собственную запись: конкурентный запуск
			// с тем же именем мог уже затенить нас в таблице
			c.mu.Lock()
			if c.active[name] == g {
				delete(c.active, name)
			}
			c.mu.Unlock()
			return nil, fmt.Errorf("failed to persist group: %w", err)
		}
	}

	// Created -> Running на запуске воркеров
	workerCtx, cancel := context.WithCancel(c.baseCtx)
	g.cancel = cancel
	g.model.Status = models.GroupStatusRunning

	for clientID := 1; clientID <= numClients; clientID++ {
		g.wg.Add(1)
		go func(id int) {
			defer g.wg.Done()
			c.startWorker(workerCtx, name, id, g.ledger)
		}(clientID)
	}

	if c.groupStore != nil {
		if err := c.groupStore.UpdateGroupStatus(ctx, g.model.ID, models.GroupStatusRunning, nil); err != nil {
			c.logger.Warn("failed to persist running status", "group_id", g.model.ID, "error", err)
		}
	}

	c.logger.Info("training group started",
		"group", name, "group_id", g.model.ID, "num_clients", numClients)

	model := g.model
	return &model, nil
}

// StopGroup останавливает новейший запуск группы с этим именем:
// отменяет воркеров, переводит группу в Stopped и переводит ledger в
// read-only. Возвращает ErrGroupNotActive для неизвестной или уже
// остановленной группы.
func (c *Controller) StopGroup(ctx context.Context, name string) error {
	c.mu.RLock()
	g := c.active[name]
	c.mu.RUnlock()

	if g == nil {
		return ErrGroupNotActive
	}

	if err := c.stop(ctx, g); err != nil {
		return err
	}

	c.logger.Info("training group stopped",
		"group", name, "group_id", g.model.ID, "records", g.ledger.Len())

	return nil
}

// stop выполняет переход Running -> Stopped под локом группы.
// Возвращает ErrGroupNotActive если группа уже остановлена.
func (c *Controller) stop(ctx context.Context, g *group) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.model.Status != models.GroupStatusRunning {
		return ErrGroupNotActive
	}

	// Сначала ledger перестает принимать, затем гасим воркеров:
	// уже допущенные в критическую секцию append-ы доезжают, новых нет
	g.ledger.Retire()
	g.cancel()
	g.wg.Wait()

	now := time.Now()
	g.model.Status = models.GroupStatusStopped
	g.model.StoppedAt = &now

	if c.groupStore != nil {
		if err := c.groupStore.UpdateGroupStatus(ctx, g.model.ID, models.GroupStatusStopped, &now); err != nil {
			c.logger.Warn("failed to persist stopped status", "group_id", g.model.ID, "error", err)
		}
	}

	return nil
}

// GetGroup возвращает снимок записи новейшего запуска с этим именем.
// Сначала таблица в памяти, затем хранилище (запуски до рестарта).
func (c *Controller) GetGroup(ctx context.Context, name string) (*models.TrainingGroup, error) {
	c.mu.RLock()
	g := c.active[name]
	c.mu.RUnlock()

	if g != nil {
		g.mu.Lock()
		model := g.model
		g.mu.Unlock()
		return &model, nil
	}

	if c.groupStore != nil {
		stored, err := c.groupStore.GetLatestGroupByName(ctx, name)
		if err != nil {
			if errors.Is(err, storage.ErrGroupNotFound) {
				return nil, ErrUnknownGroup
			}
			return nil, fmt.Errorf("failed to look up group: %w", err)
		}
		return stored, nil
	}

	return nil, ErrUnknownGroup
}

// Snapshot возвращает историю метрик новейшего запуска с этим именем
// в порядке прибытия. Для групп, остановленных до рестарта сервера,
// читает архив. Пустая история - не ошибка.
func (c *Controller) Snapshot(ctx context.Context, name string) ([]models.MetricRecord, error) {
	c.mu.RLock()
	g := c.active[name]
	c.mu.RUnlock()

	if g != nil {
		return g.ledger.Snapshot(), nil
	}

	if c.groupStore == nil || c.metricStore == nil {
		return nil, ErrUnknownGroup
	}

	stored, err := c.groupStore.GetLatestGroupByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrGroupNotFound) {
			return nil, ErrUnknownGroup
		}
		return nil, fmt.Errorf("failed to look up group: %w", err)
	}

	records, err := c.metricStore.GetGroupMetrics(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric archive: %w", err)
	}

	return records, nil
}

// Shutdown останавливает все активные группы. Вызывается при
// завершении сервера.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.RLock()
	names := make([]string, 0, len(c.active))
	for name := range c.active {
		names = append(names, name)
	}
	c.mu.RUnlock()

	for _, name := range names {
		if err := c.StopGroup(ctx, name); err != nil && !errors.Is(err, ErrGroupNotActive) {
			c.logger.Warn("failed to stop group during shutdown", "group", name, "error", err)
		}
	}

	c.baseCancel()
}
