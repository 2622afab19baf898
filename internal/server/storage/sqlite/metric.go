package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/fedsim/internal/models"
)

// SaveMetric appends one metric record for a group.
// Порядок прибытия фиксируется автоинкрементным seq.
func (s *Storage) SaveMetric(ctx context.Context, groupID string, record *models.MetricRecord) error {
	query := `
		INSERT INTO metrics (group_id, client_id, accuracy, loss, timestamp, global_accuracy, global_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		groupID,
		record.ClientID,
		record.Accuracy,
		record.Loss,
		record.Timestamp,
		record.GlobalAccuracy,
		record.GlobalLoss,
	)

	if err != nil {
		return fmt.Errorf("failed to insert metric: %w", err)
	}

	return nil
}

// GetGroupMetrics returns all records for a group in arrival order
func (s *Storage) GetGroupMetrics(ctx context.Context, groupID string) ([]models.MetricRecord, error) {
	query := `
		SELECT client_id, accuracy, loss, timestamp, global_accuracy, global_loss
		FROM metrics
		WHERE group_id = ?
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	records := make([]models.MetricRecord, 0)
	for rows.Next() {
		var record models.MetricRecord
		if err := rows.Scan(
			&record.ClientID,
			&record.Accuracy,
			&record.Loss,
			&record.Timestamp,
			&record.GlobalAccuracy,
			&record.GlobalLoss,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metrics: %w", err)
	}

	return records, nil
}
