package cmd

import (
	"fmt"

	"github.com/conneroisu/abacus/internal/version"
	"github.com/spf13/cobra"
)

var versionOutput OutputFormat

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for abacus.

Examples:
  abacus version              # Show version
  abacus version --short      # Version only
  abacus version --output json`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	addOutputFlag(versionCmd, &versionOutput)
	versionCmd.Flags().Bool("short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Current()

	if done, err := writeStructured(cmd.OutOrStdout(), versionOutput, info); done {
		return err
	}
	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Fprintln(cmd.OutOrStdout(), info.Short())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), info.Detailed())
	return nil
}
