// Package buffer holds the in-progress calculator expression and the rules
// that keep it well formed while keys are pressed.
//
// The buffer never contains two binary operators in a row: pressing an
// operator while the expression already ends in one replaces the trailing
// operator. After a successful evaluation the buffer remembers that its
// content produced a result, so the next digit starts a fresh expression
// while the next operator continues the current one.
package buffer

import (
	"strings"
	"unicode/utf8"

	"github.com/conneroisu/abacus/internal/errors"
)

const operators = "+-*/"

// Display substitutions applied by Display. The underlying text keeps the
// ASCII operators.
const (
	TimesSign  = "×"
	DivideSign = "÷"
	MinusSign  = "−"
)

var prettifier = strings.NewReplacer("*", TimesSign, "/", DivideSign, "-", MinusSign)

// State is a snapshot of the buffer.
type State struct {
	Text          string `json:"text"`
	LastWasResult bool   `json:"last_was_result"`
}

// Buffer is the expression being typed. The zero value is an empty buffer.
// It is not safe for concurrent use; the owning session serialises access.
type Buffer struct {
	text          string
	lastWasResult bool
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// IsOperator reports whether token is one of the binary operators + - * /.
func IsOperator(token string) bool {
	return len(token) == 1 && strings.Contains(operators, token)
}

// startsFresh reports whether token restarts the expression after a result.
func startsFresh(token string) bool {
	return strings.ContainsAny(token, "0123456789.")
}

// Append applies one key press. Operators are collapsed onto a trailing
// operator, a leading operator is only accepted when it is a unary minus,
// and everything else is appended verbatim. A token that embeds operator
// characters without being a single operator is rejected because it could
// break the no-consecutive-operators rule.
func (b *Buffer) Append(token string) error {
	if token == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidToken, "empty token")
	}
	if !IsOperator(token) && strings.ContainsAny(token, operators) {
		return errors.NewValidationError(errors.ErrCodeInvalidToken, "token mixes operators: "+token).
			WithContext("token", token)
	}

	if b.lastWasResult && startsFresh(token) {
		b.text = ""
	}
	b.lastWasResult = false

	if !IsOperator(token) {
		b.text += token
		return nil
	}

	switch {
	case b.text == "":
		if token == "-" {
			b.text = "-"
		}
	case b.endsWithOperator():
		b.text = b.text[:len(b.text)-1] + token
	default:
		b.text += token
	}

	return nil
}

// Backspace removes the last character. It does nothing on an empty buffer.
func (b *Buffer) Backspace() {
	if b.text == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(b.text)
	b.text = b.text[:len(b.text)-size]
}

// Clear resets the buffer to its initial state.
func (b *Buffer) Clear() {
	b.text = ""
	b.lastWasResult = false
}

// MarkResult records that the current text was just evaluated successfully.
func (b *Buffer) MarkResult() {
	b.lastWasResult = true
}

// CommitResult replaces the text with an evaluation result so that a
// following operator continues from the value rather than the expression
// that produced it.
func (b *Buffer) CommitResult(result string) {
	b.text = result
	b.lastWasResult = true
}

// Load replaces the text, e.g. with an expression recalled from history.
// The loaded text is editable, so it is not marked as a result.
func (b *Buffer) Load(text string) {
	b.text = text
	b.lastWasResult = false
}

// Text returns the raw expression sent to the evaluator.
func (b *Buffer) Text() string {
	return b.text
}

// LastWasResult reports whether the text was produced by a successful
// evaluation and has not been edited since.
func (b *Buffer) LastWasResult() bool {
	return b.lastWasResult
}

// IsEmpty reports whether there is nothing to evaluate.
func (b *Buffer) IsEmpty() bool {
	return b.text == ""
}

// State returns a snapshot of the buffer.
func (b *Buffer) State() State {
	return State{Text: b.text, LastWasResult: b.lastWasResult}
}

// Display returns the text with typographic operator signs for rendering.
func (b *Buffer) Display() string {
	return Prettify(b.text)
}

// Prettify replaces ASCII operators with their typographic signs.
func Prettify(s string) string {
	return prettifier.Replace(s)
}

func (b *Buffer) endsWithOperator() bool {
	return b.text != "" && strings.ContainsRune(operators, rune(b.text[len(b.text)-1]))
}
