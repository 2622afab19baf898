package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iudanet/fedsim/internal/validation"
	"github.com/iudanet/fedsim/pkg/api"
)

func (c *Cli) runSimulate(ctx context.Context, args []string) error {
	session, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	var groupName string
	if len(args) > 0 {
		groupName = args[0]
	} else {
		groupName, err = c.io.ReadInput("Group name: ")
		if err != nil {
			return fmt.Errorf("failed to read group name: %w", err)
		}
	}
	if err := validation.ValidateGroupName(groupName); err != nil {
		return err
	}

	var numClients int
	if len(args) > 1 {
		numClients, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid client count %q: %w", args[1], err)
		}
	} else {
		input, err := c.io.ReadInput("Number of clients: ")
		if err != nil {
			return fmt.Errorf("failed to read client count: %w", err)
		}
		numClients, err = strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("invalid client count %q: %w", input, err)
		}
	}
	if numClients <= 0 {
		return fmt.Errorf("number of clients must be positive")
	}

	resp, err := c.apiClient.Simulate(ctx, api.SimulateRequest{
		GroupName:  groupName,
		NumClients: numClients,
	})
	if err != nil {
		return err
	}

	c.rememberGroup(ctx, session, groupName)

	c.io.Printf("✓ %s\n", resp.Message)
	c.io.Printf("Training started with %d client(s). Run 'fedsim watch %s' to follow progress.\n", numClients, groupName)

	return nil
}
