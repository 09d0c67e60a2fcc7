package keymap

import (
	"testing"

	"github.com/conneroisu/abacus/internal/evaluator"
	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		key    string
		mode   mode.Mode
		want   session.Intent
		wantOK bool
	}{
		{"Escape", mode.Standard, session.Do(session.ActionClear), true},
		{"Backspace", mode.Standard, session.Do(session.ActionBackspace), true},
		{"Enter", mode.Standard, session.Do(session.ActionEquals), true},
		{"=", mode.Scientific, session.Do(session.ActionEquals), true},
		{"7", mode.Standard, session.Append("7"), true},
		{".", mode.Standard, session.Append("."), true},
		{"%", mode.Standard, session.Append("%"), true},
		{"/", mode.Standard, session.Append("/"), true},
		{"sin", mode.Scientific, session.Append("sin("), true},
		{"pi", mode.Scientific, session.Append("pi"), true},
		{"sin", mode.Standard, session.Intent{}, false},
		{"x", mode.Scientific, session.Intent{}, false},
		{"12", mode.Standard, session.Intent{}, false},
		{"", mode.Standard, session.Intent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.mode.String(), func(t *testing.T) {
			got, ok := Lookup(tt.key, tt.mode)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScientificKeysSorted(t *testing.T) {
	keys := ScientificKeys()
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "sqrt")
}

func TestEveryFunctionHasAKey(t *testing.T) {
	for _, name := range evaluator.Functions() {
		got, ok := Lookup(name, mode.Scientific)
		require.True(t, ok, name)
		assert.Equal(t, session.Append(name+"("), got)
	}
}
