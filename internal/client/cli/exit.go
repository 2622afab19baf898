package cli

import (
	"context"

	"github.com/iudanet/fedsim/pkg/api"
)

func (c *Cli) runExit(ctx context.Context, args []string) error {
	session, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	groupName, err := c.resolveGroupName(args, session)
	if err != nil {
		return err
	}

	resp, err := c.apiClient.Exit(ctx, api.ExitRequest{GroupName: groupName})
	if err != nil {
		return err
	}

	c.io.Printf("✓ %s\n", resp.Message)
	c.io.Println("Metric history remains available via 'fedsim metrics'.")

	return nil
}
