package buffer

import (
	"testing"

	"github.com/conneroisu/abacus/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, b *Buffer, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		require.NoError(t, b.Append(tok))
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		expected string
	}{
		{"digits", []string{"1", "2", "3"}, "123"},
		{"decimal", []string{"3", ".", "1", "4"}, "3.14"},
		{"binary operator", []string{"3", "+", "4"}, "3+4"},
		{"leading unary minus", []string{"-", "5"}, "-5"},
		{"leading plus dropped", []string{"+", "5"}, "5"},
		{"leading times dropped", []string{"*"}, ""},
		{"leading divide dropped", []string{"/", "2"}, "2"},
		{"operator collapse", []string{"3", "+", "*", "4"}, "3*4"},
		{"collapse chain", []string{"3", "+", "-", "/", "*"}, "3*"},
		{"unary minus replaced", []string{"-", "+"}, "+"},
		{"function names", []string{"sin(", "pi", ")"}, "sin(pi)"},
		{"percent", []string{"5", "0", "%"}, "50%"},
		{"operator after percent", []string{"5", "0", "%", "*", "2"}, "50%*2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			appendAll(t, b, tt.tokens...)
			assert.Equal(t, tt.expected, b.Text())
			assert.False(t, b.LastWasResult())
		})
	}
}

func TestAppendRejectsMixedTokens(t *testing.T) {
	b := New()
	appendAll(t, b, "2")

	for _, tok := range []string{"", "**", "+-", "2+3", "sin(-"} {
		err := b.Append(tok)
		require.Error(t, err, tok)
		assert.True(t, errors.IsRecoverable(err))
	}
	assert.Equal(t, "2", b.Text())
}

func TestOperatorCollapseKeepsLength(t *testing.T) {
	ops := []string{"+", "-", "*", "/"}
	for _, o1 := range ops {
		for _, o2 := range ops {
			t.Run(o1+o2, func(t *testing.T) {
				b := New()
				appendAll(t, b, "9", o1)
				before := len(b.Text())

				require.NoError(t, b.Append(o2))
				assert.Equal(t, before, len(b.Text()))
				assert.Equal(t, "9"+o2, b.Text())
			})
		}
	}
}

func TestResultChaining(t *testing.T) {
	t.Run("digit after result starts fresh", func(t *testing.T) {
		b := New()
		appendAll(t, b, "3", "+", "4")
		b.MarkResult()

		require.NoError(t, b.Append("2"))
		assert.Equal(t, "2", b.Text())
		assert.False(t, b.LastWasResult())
	})

	t.Run("decimal point after result starts fresh", func(t *testing.T) {
		b := New()
		appendAll(t, b, "8")
		b.MarkResult()

		require.NoError(t, b.Append("."))
		assert.Equal(t, ".", b.Text())
	})

	t.Run("operator after result chains", func(t *testing.T) {
		b := New()
		appendAll(t, b, "3", "+", "4")
		b.MarkResult()

		require.NoError(t, b.Append("+"))
		assert.Equal(t, "3+4+", b.Text())
		assert.False(t, b.LastWasResult())
	})

	t.Run("operator after committed result chains from the value", func(t *testing.T) {
		b := New()
		appendAll(t, b, "3", "+", "4")
		b.CommitResult("7")
		assert.True(t, b.LastWasResult())

		require.NoError(t, b.Append("+"))
		assert.Equal(t, "7+", b.Text())

		b.CommitResult("7")
		require.NoError(t, b.Append("2"))
		assert.Equal(t, "2", b.Text())
	})

	t.Run("function after result chains", func(t *testing.T) {
		b := New()
		appendAll(t, b, "2")
		b.MarkResult()

		require.NoError(t, b.Append("pi"))
		assert.Equal(t, "2pi", b.Text())
		assert.False(t, b.LastWasResult())
	})
}

func TestBackspace(t *testing.T) {
	b := New()
	b.Backspace()
	assert.Equal(t, "", b.Text())

	appendAll(t, b, "1", "2", "+")
	b.Backspace()
	assert.Equal(t, "12", b.Text())

	b.Load("2×")
	b.Backspace()
	assert.Equal(t, "2", b.Text())
}

func TestBackspaceKeepsResultFlag(t *testing.T) {
	b := New()
	appendAll(t, b, "1", "2")
	b.MarkResult()
	b.Backspace()

	assert.Equal(t, "1", b.Text())
	assert.True(t, b.LastWasResult())
}

func TestClearAndLoad(t *testing.T) {
	b := New()
	appendAll(t, b, "7", "*", "6")
	b.MarkResult()

	b.Clear()
	assert.Equal(t, State{}, b.State())
	assert.True(t, b.IsEmpty())

	b.MarkResult()
	b.Load("sqrt(16)")
	assert.Equal(t, State{Text: "sqrt(16)", LastWasResult: false}, b.State())
}

func TestDisplay(t *testing.T) {
	b := New()
	appendAll(t, b, "-", "8", "*", "3", "/", "2", "-", "1")

	assert.Equal(t, "-8*3/2-1", b.Text())
	assert.Equal(t, "−8×3÷2−1", b.Display())
	assert.Equal(t, "", Prettify(""))
}

func TestIsOperator(t *testing.T) {
	for _, op := range []string{"+", "-", "*", "/"} {
		assert.True(t, IsOperator(op), op)
	}
	for _, tok := range []string{"", "%", "**", "1", "x"} {
		assert.False(t, IsOperator(tok), tok)
	}
}
