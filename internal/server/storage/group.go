package storage

import (
	"context"
	"time"

	"github.com/iudanet/fedsim/internal/models"
)

// GroupStorage defines interface for training group persistence.
// Group names are not unique across runs: each run gets its own ID,
// name-based lookups resolve to the most recent run.
type GroupStorage interface {
	// CreateGroup stores a new training group run
	CreateGroup(ctx context.Context, group *models.TrainingGroup) error

	// UpdateGroupStatus transitions the stored group status
	// Returns ErrGroupNotFound if the group ID doesn't exist
	UpdateGroupStatus(ctx context.Context, groupID string, status models.GroupStatus, stoppedAt *time.Time) error

	// GetLatestGroupByName retrieves the most recently created run with this name
	// Returns ErrGroupNotFound if no run with this name exists
	GetLatestGroupByName(ctx context.Context, name string) (*models.TrainingGroup, error)
}
