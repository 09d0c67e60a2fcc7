package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/conneroisu/abacus/internal/buffer"
	"github.com/spf13/cobra"
)

var historyOutput OutputFormat

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent evaluations",
	Long: `List the service's most recent evaluations, newest first.

Examples:
  abacus history
  abacus history --output json
  abacus history clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded evaluation",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)

	addOutputFlag(historyCmd, &historyOutput)
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}

	items, err := env.client.History(cmd.Context())
	if err != nil {
		return err
	}

	if done, err := writeStructured(cmd.OutOrStdout(), historyOutput, items); done {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEXPRESSION\tRESULT\tMODE\tCREATED")
	for i, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i, buffer.Prettify(item.Expression), item.Result, item.Mode, item.CreatedAt)
	}
	return w.Flush()
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}
	if err := env.client.ClearHistory(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}
