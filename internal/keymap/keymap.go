// Package keymap translates key names into session intents. Keyboard keys
// are always available; the function and constant keys only exist in
// scientific mode.
package keymap

import (
	"sort"

	"github.com/conneroisu/abacus/internal/evaluator"
	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/session"
)

// Key names that do not append anything.
const (
	KeyEscape    = "Escape"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyEquals    = "="
)

var control = map[string]session.Action{
	KeyEscape:    session.ActionClear,
	KeyBackspace: session.ActionBackspace,
	KeyEnter:     session.ActionEquals,
	KeyEquals:    session.ActionEquals,
}

// scientific maps the scientific keypad's labels to the tokens they insert:
// every evaluator function opens a call, constants and parentheses insert
// themselves.
var scientific = scientificTokens()

func scientificTokens() map[string]string {
	tokens := map[string]string{
		"pi": "pi",
		"e":  "e",
		"(":  "(",
		")":  ")",
	}
	for _, name := range evaluator.Functions() {
		tokens[name] = name + "("
	}
	return tokens
}

// Lookup returns the intent for key in mode m.
func Lookup(key string, m mode.Mode) (session.Intent, bool) {
	if action, ok := control[key]; ok {
		return session.Do(action), true
	}
	if isStandardKey(key) {
		return session.Append(key), true
	}
	if m.IsScientific() {
		if token, ok := scientific[key]; ok {
			return session.Append(token), true
		}
	}
	return session.Intent{}, false
}

// ScientificKeys lists the keys only available in scientific mode.
func ScientificKeys() []string {
	keys := make([]string, 0, len(scientific))
	for k := range scientific {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isStandardKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	c := key[0]
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '.', c == '%':
		return true
	case c == '+', c == '-', c == '*', c == '/':
		return true
	}
	return false
}
