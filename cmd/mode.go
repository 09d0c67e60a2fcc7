package cmd

import (
	"fmt"

	"github.com/conneroisu/abacus/internal/mode"
	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode [standard|scientific|toggle]",
	Short: "Show or change the saved evaluation mode",
	Long: `Without an argument, print the saved evaluation mode. With one, switch
to it and save the choice for later sessions.

Examples:
  abacus mode
  abacus mode scientific
  abacus mode toggle`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(mode.Standard), string(mode.Scientific), "toggle"},
	RunE:      runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}
	modes, _, err := env.modeSelector()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), modes.Current().Label())
		return nil
	}

	var p mode.Presentation
	if args[0] == "toggle" {
		p, err = modes.Toggle()
	} else {
		m, parseErr := mode.Parse(args[0])
		if parseErr != nil {
			return parseErr
		}
		p, err = modes.SetMode(m)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), p.Mode.AnnounceMessage())
	return nil
}
