package cmd

import (
	"fmt"

	"github.com/conneroisu/abacus/internal/session"
	"github.com/spf13/cobra"
)

var statsOutput OutputFormat

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many evaluations were recorded and when the last one was",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addOutputFlag(statsCmd, &statsOutput)
}

func runStats(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}

	stats, err := env.client.Stats(cmd.Context())
	if err != nil {
		return err
	}

	if done, err := writeStructured(cmd.OutOrStdout(), statsOutput, stats); done {
		return err
	}

	last := session.EmptyPlaceholder
	if stats.Last != nil && *stats.Last != "" {
		last = *stats.Last
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nLast:  %s\n", stats.Total, last)
	return nil
}
