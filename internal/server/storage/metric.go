package storage

import (
	"context"

	"github.com/iudanet/fedsim/internal/models"
)

// MetricStorage defines interface for the metric archive.
// The in-memory ledger writes every accepted record through here so the
// history of a retired group survives a server restart. Rows are
// append-only and returned in arrival order.
type MetricStorage interface {
	// SaveMetric appends one metric record for a group
	SaveMetric(ctx context.Context, groupID string, record *models.MetricRecord) error

	// GetGroupMetrics returns all records for a group in arrival order
	// Returns an empty slice if the group has no records
	GetGroupMetrics(ctx context.Context, groupID string) ([]models.MetricRecord, error)
}
