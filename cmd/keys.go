package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/abacus/internal/keymap"
	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/session"
	"github.com/spf13/cobra"
)

// prefsDebounce collapses bursts of preference file writes.
const prefsDebounce = 100 * time.Millisecond

var keysCmd = &cobra.Command{
	Use:     "keys",
	Aliases: []string{"k"},
	Short:   "Drive a calculator session one key per line",
	Long: `Read one key per line and print the calculator screen after each one.

Keys:
  0-9 . % + - * /     append to the expression
  Enter or =          evaluate
  Escape              clear
  Backspace           delete the last character
  sin cos tan pi ...  scientific keys, in scientific mode only

Commands:
  :toggle             switch between standard and scientific mode
  :history            reload and show history and stats
  :load N             load the N-th history entry into the expression
  :clear-history      delete the service's history
  :keys               list the keys available in the current mode
  :quit               leave the session

With --live the history follows the service's change notifications and
the mode follows changes made by other abacus processes.`,
	Args: cobra.NoArgs,
	RunE: runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.Flags().Bool("live", false, "Follow history and mode changes made elsewhere")
}

func runKeys(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}
	modes, prefStore, err := env.modeSelector()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s := session.New(env.client, modes, session.WithLogger(env.logger))
	out := &lockedWriter{w: cmd.OutOrStdout()}

	if live, _ := cmd.Flags().GetBool("live"); live {
		go func() {
			if err := s.Watch(ctx, env.client); err != nil {
				env.logger.Warn(ctx, err, "Live history sync stopped")
			}
		}()
		go func() {
			err := prefStore.Watch(ctx, prefsDebounce, func() {
				p := s.ReloadMode()
				fmt.Fprintf(out, "(mode is now %s)\n", p.Label)
			})
			if err != nil {
				env.logger.Warn(ctx, err, "Preference watch stopped")
			}
		}()
	}

	if err := s.Refresh(ctx); err != nil {
		env.logger.Warn(ctx, err, "Initial sync failed")
	}
	printScreen(out, s.Screen(), true)

	return keyLoop(ctx, s, cmd.InOrStdin(), out)
}

// keyLoop dispatches every input line until EOF or :quit.
func keyLoop(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			return nil
		}

		if line == ":keys" {
			printKeys(out, s.Mode())
			continue
		}

		intent, withHistory, err := parseLine(line, s)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := s.Dispatch(ctx, intent); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		rule(out)
		printScreen(out, s.Screen(), withHistory)
	}
	return scanner.Err()
}

// parseLine turns one input line into an intent. withHistory reports
// whether the history panel should be printed afterwards.
func parseLine(line string, s *session.Session) (intent session.Intent, withHistory bool, err error) {
	switch {
	case line == ":toggle":
		return session.Do(session.ActionToggleMode), false, nil
	case line == ":history":
		return session.Do(session.ActionRefresh), true, nil
	case line == ":clear-history":
		return session.Do(session.ActionClearHistory), true, nil
	case strings.HasPrefix(line, ":load"):
		n, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":load")))
		if convErr != nil {
			return session.Intent{}, false, fmt.Errorf("usage: :load N")
		}
		return session.Select(n), true, nil
	case strings.HasPrefix(line, ":"):
		return session.Intent{}, false, fmt.Errorf("unknown command: %s", line)
	}

	intent, ok := keymap.Lookup(line, s.Mode())
	if !ok {
		return session.Intent{}, false, fmt.Errorf("unknown key: %s", line)
	}
	return intent, intent.Action == session.ActionEquals, nil
}

func printKeys(out io.Writer, m mode.Mode) {
	fmt.Fprintln(out, "0-9 . % + - * /  Enter =  Escape  Backspace")
	if m.IsScientific() {
		fmt.Fprintln(out, strings.Join(keymap.ScientificKeys(), " "))
	}
}

// lockedWriter serializes writes from the input loop and the watchers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
