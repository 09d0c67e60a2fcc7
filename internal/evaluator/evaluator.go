// Package evaluator computes calculator expressions for the reference
// service.
//
// Expressions use + - * / % (modulo) and ** (power) over floating point
// numbers, unary signs, parentheses, the constants pi and e, and the
// one-argument functions sin cos tan asin acos atan sqrt log (base 10) ln
// and abs. A number directly followed by % is a percentage: 50% is 0.5.
package evaluator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrDivideByZero reports division or modulo by zero, or a result
	// that overflowed to infinity.
	ErrDivideByZero = errors.New("divide by zero")
	// ErrInvalidExpression reports anything else the evaluator cannot
	// compute.
	ErrInvalidExpression = errors.New("invalid expression")
)

// Messages returned to clients.
const (
	MessageDivideByZero      = "Divide by zero"
	MessageInvalidExpression = "Invalid expression"
)

// largeMagnitude is where results switch to exponent notation.
const largeMagnitude = 1e12

var (
	percent = regexp.MustCompile(`(\d+(\.\d+)?)%`)
	allowed = regexp.MustCompile(`^[0-9+\-*/().,%a-zA-Z_]+$`)
)

// Evaluate computes expression and formats the result. Surrounding
// whitespace and inner spaces are ignored; any other whitespace inside the
// expression makes it invalid. An empty expression evaluates to "0".
func Evaluate(expression string) (string, error) {
	src := strings.ReplaceAll(strings.TrimSpace(expression), " ", "")
	if src == "" {
		return "0", nil
	}

	src = percent.ReplaceAllString(src, "(${1}/100)")
	if !allowed.MatchString(src) {
		return "", fmt.Errorf("%w: disallowed characters", ErrInvalidExpression)
	}

	tokens, err := lex(src)
	if err != nil {
		return "", err
	}

	p := &parser{tokens: tokens}
	v, err := p.parse()
	if err != nil {
		return "", err
	}

	return Format(v)
}

// Format renders v the way results are reported: up to twelve decimals
// with trailing zeros removed, or exponent notation from 1e12 upward.
func Format(v float64) (string, error) {
	if math.IsInf(v, 0) {
		return "", ErrDivideByZero
	}
	if math.IsNaN(v) {
		return "", fmt.Errorf("%w: not a number", ErrInvalidExpression)
	}

	if math.Abs(v) >= largeMagnitude {
		return strconv.FormatFloat(v, 'e', 6, 64), nil
	}

	s := strconv.FormatFloat(v, 'f', 12, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "0", nil
	}
	return s, nil
}

// Message maps an Evaluate error to the text reported to clients.
func Message(err error) string {
	if errors.Is(err, ErrDivideByZero) {
		return MessageDivideByZero
	}
	return MessageInvalidExpression
}
