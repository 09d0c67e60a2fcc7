package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the evaluator service is reachable",
	Long: `Query the service's health endpoint and exit non-zero when it does not
answer or reports itself unhealthy.

This command is meant for scripts and container health checks.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().DurationP("timeout", "t", 3*time.Second, "Timeout for the health check")
}

func runHealth(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := env.client.Health(ctx); err != nil {
		return fmt.Errorf("%s is unhealthy: %w", env.client.BaseURL(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", env.client.BaseURL())
	return nil
}
