package cli

import (
	"context"
	"errors"
	"time"
)

// watchInterval - период опроса /metrics в команде watch
const watchInterval = 2 * time.Second

// runWatch поллит метрики группы и печатает новые записи по мере
// прибытия. Завершается по Ctrl-C (отмена контекста).
func (c *Cli) runWatch(ctx context.Context, args []string) error {
	session, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	groupName, err := c.resolveGroupName(args, session)
	if err != nil {
		return err
	}

	c.rememberGroup(ctx, session, groupName)

	c.io.Printf("Watching group %s (press Ctrl-C to stop)...\n", groupName)
	c.printMetricHeader()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	seen := 0
	for {
		resp, err := c.apiClient.Metrics(ctx, groupName)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.io.Println()
				return nil
			}
			return err
		}

		// Печатаем только записи, прибывшие с прошлого опроса
		for _, rec := range resp.Metrics[min(seen, len(resp.Metrics)):] {
			c.printMetricRow(rec)
		}
		seen = len(resp.Metrics)

		select {
		case <-ctx.Done():
			c.io.Println()
			return nil
		case <-ticker.C:
		}
	}
}
