package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/storage"
)

func newTestGroup(name string, createdAt time.Time) *models.TrainingGroup {
	return &models.TrainingGroup{
		ID:         uuid.New().String(),
		Name:       name,
		NumClients: 3,
		Status:     models.GroupStatusRunning,
		CreatedAt:  createdAt,
	}
}

func TestGroupStorage_CreateAndGetLatest(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	group := newTestGroup("income", time.Now())
	require.NoError(t, s.CreateGroup(ctx, group))

	retrieved, err := s.GetLatestGroupByName(ctx, "income")
	require.NoError(t, err)
	assert.Equal(t, group.ID, retrieved.ID)
	assert.Equal(t, "income", retrieved.Name)
	assert.Equal(t, 3, retrieved.NumClients)
	assert.Equal(t, models.GroupStatusRunning, retrieved.Status)
	assert.Nil(t, retrieved.StoppedAt)
}

func TestGroupStorage_GetLatestGroupByName_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetLatestGroupByName(ctx, "nosuchgroup")
	assert.ErrorIs(t, err, storage.ErrGroupNotFound)
}

func TestGroupStorage_GetLatestGroupByName_ResolvesNewestRun(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	// Две симуляции с одним именем: имя не уникально во времени
	older := newTestGroup("income", time.Now().Add(-time.Hour))
	newer := newTestGroup("income", time.Now())
	require.NoError(t, s.CreateGroup(ctx, older))
	require.NoError(t, s.CreateGroup(ctx, newer))

	retrieved, err := s.GetLatestGroupByName(ctx, "income")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, retrieved.ID)
}

func TestGroupStorage_UpdateGroupStatus(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	group := newTestGroup("credit", time.Now())
	require.NoError(t, s.CreateGroup(ctx, group))

	stoppedAt := time.Now()
	require.NoError(t, s.UpdateGroupStatus(ctx, group.ID, models.GroupStatusStopped, &stoppedAt))

	retrieved, err := s.GetLatestGroupByName(ctx, "credit")
	require.NoError(t, err)
	assert.Equal(t, models.GroupStatusStopped, retrieved.Status)
	require.NotNil(t, retrieved.StoppedAt)
	assert.WithinDuration(t, stoppedAt, *retrieved.StoppedAt, time.Second)
}

func TestGroupStorage_UpdateGroupStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.UpdateGroupStatus(ctx, uuid.New().String(), models.GroupStatusStopped, nil)
	assert.ErrorIs(t, err, storage.ErrGroupNotFound)
}
