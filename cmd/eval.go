package cmd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/prefs"
	"github.com/conneroisu/abacus/internal/session"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:     "eval <expression...>",
	Aliases: []string{"e"},
	Short:   "Evaluate an expression on the service",
	Long: `Type an expression key by key into the expression buffer and evaluate
it. The buffer's input rules apply, so "3+*4" is sent as "3*4".

Examples:
  abacus eval 12+3*4
  abacus eval "sqrt(2)" --mode scientific`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().String("mode", "", "Evaluate in this mode without changing the saved one (standard|scientific)")
	evalCmd.Flags().BoolP("verbose", "v", false, "Print the whole screen instead of the result")
}

func runEval(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}

	var modes *mode.Selector
	if name, _ := cmd.Flags().GetString("mode"); name != "" {
		m, err := mode.Parse(name)
		if err != nil {
			return err
		}
		modes = mode.NewSelector(prefs.NewMemory(), env.logger)
		if _, err := modes.SetMode(m); err != nil {
			return err
		}
	} else {
		if modes, _, err = env.modeSelector(); err != nil {
			return err
		}
	}

	s := session.New(env.client, modes, session.WithLogger(env.logger))
	for _, r := range strings.Join(args, "") {
		if unicode.IsSpace(r) {
			continue
		}
		if err := s.Append(string(r)); err != nil {
			return err
		}
	}
	if s.State().Text == "" {
		return fmt.Errorf("nothing to evaluate")
	}

	evalErr := s.Evaluate(cmd.Context())
	screen := s.Screen()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		printScreen(cmd.OutOrStdout(), screen, false)
	}
	if evalErr != nil {
		return fmt.Errorf("%s", screen.Status.Text)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		fmt.Fprintln(cmd.OutOrStdout(), screen.Result)
	}
	return nil
}
