package cli

import (
	"context"
	"time"

	"github.com/iudanet/fedsim/pkg/api"
)

func (c *Cli) runMetrics(ctx context.Context, args []string) error {
	session, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	groupName, err := c.resolveGroupName(args, session)
	if err != nil {
		return err
	}

	resp, err := c.apiClient.Metrics(ctx, groupName)
	if err != nil {
		return err
	}

	c.rememberGroup(ctx, session, groupName)

	if len(resp.Metrics) == 0 {
		c.io.Printf("No metrics logged yet for group %s.\n", groupName)
		return nil
	}

	c.io.Printf("=== Metrics: %s (%d records) ===\n", groupName, len(resp.Metrics))
	c.printMetricHeader()
	for _, rec := range resp.Metrics {
		c.printMetricRow(rec)
	}

	last := resp.Metrics[len(resp.Metrics)-1]
	c.io.Println()
	c.io.Printf("Global model: accuracy %.4f, loss %.4f\n", last.GlobalAccuracy, last.GlobalLoss)

	return nil
}

func (c *Cli) printMetricHeader() {
	c.io.Printf("%-20s %8s %10s %10s %12s %12s\n",
		"TIMESTAMP", "CLIENT", "ACCURACY", "LOSS", "GLOBAL ACC", "GLOBAL LOSS")
}

func (c *Cli) printMetricRow(rec api.MetricRecord) {
	c.io.Printf("%-20s %8d %10.4f %10.4f %12.4f %12.4f\n",
		rec.Timestamp.Local().Format(time.DateTime),
		rec.ClientID, rec.Accuracy, rec.Loss, rec.GlobalAccuracy, rec.GlobalLoss)
}
