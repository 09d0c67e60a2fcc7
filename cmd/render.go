package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/abacus/internal/session"
)

// printScreen renders a session screen as plain text.
func printScreen(w io.Writer, s session.Screen, withHistory bool) {
	fmt.Fprintf(w, "[%s] %s\n", s.Mode.Label, s.Expression)
	fmt.Fprintf(w, "= %s", s.Result)
	if s.Status.Text != "" {
		fmt.Fprintf(w, "   (%s)", s.Status.Text)
	}
	fmt.Fprintln(w)

	if !withHistory {
		return
	}
	fmt.Fprintf(w, "Total: %d   Last: %s\n", s.Total, s.Last)
	for i, row := range s.History {
		if row.Placeholder {
			fmt.Fprintf(w, "  %s\n", row.Expression)
			continue
		}
		fmt.Fprintf(w, "  %2d. %s = %s   %s\n", i, row.Expression, row.Result, row.Meta)
	}
}

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", 40))
}
