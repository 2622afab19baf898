package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fedsim/internal/models"
	"github.com/iudanet/fedsim/internal/server/storage"
)

// CreateGroup stores a new training group run
func (s *Storage) CreateGroup(ctx context.Context, group *models.TrainingGroup) error {
	query := `
		INSERT INTO groups (id, name, num_clients, status, created_at, stopped_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.NumClients,
		string(group.Status),
		group.CreatedAt,
		group.StoppedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return nil
}

// UpdateGroupStatus transitions the stored group status
func (s *Storage) UpdateGroupStatus(ctx context.Context, groupID string, status models.GroupStatus, stoppedAt *time.Time) error {
	query := `UPDATE groups SET status = ?, stopped_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(status), stoppedAt, groupID)
	if err != nil {
		return fmt.Errorf("failed to update group status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrGroupNotFound
	}

	return nil
}

// GetLatestGroupByName retrieves the most recently created run with this name
// Повторные симуляции переиспользуют имя, поэтому сортируем по created_at
func (s *Storage) GetLatestGroupByName(ctx context.Context, name string) (*models.TrainingGroup, error) {
	query := `
		SELECT id, name, num_clients, status, created_at, stopped_at
		FROM groups
		WHERE name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	group := &models.TrainingGroup{}
	var status string
	var stoppedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&group.ID,
		&group.Name,
		&group.NumClients,
		&status,
		&group.CreatedAt,
		&stoppedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Status = models.GroupStatus(status)
	if stoppedAt.Valid {
		group.StoppedAt = &stoppedAt.Time
	}

	return group, nil
}
