package evaluator

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokPower
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q at %d", t.text, t.pos)
}

var punct = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'%': tokPercent,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
}

// lex splits src into tokens. src has already been checked against the
// allowed character set.
func lex(src string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isDigit(c) || c == '.':
			n, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[i:n], pos: i})
			i = n
		case isIdentStart(c):
			n := i + 1
			for n < len(src) && (isIdentStart(src[n]) || isDigit(src[n])) {
				n++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[i:n], pos: i})
			i = n
		case c == '*' && strings.HasPrefix(src[i:], "**"):
			tokens = append(tokens, token{kind: tokPower, text: "**", pos: i})
			i += 2
		default:
			kind, ok := punct[c]
			if !ok {
				return nil, fmt.Errorf("%w: unexpected %q at %d", ErrInvalidExpression, c, i)
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(src)}), nil
}

// scanNumber returns the end of the numeric literal starting at i:
// digits with an optional fraction and an optional exponent. A bare "."
// and integers with redundant leading zeros are rejected.
func scanNumber(src string, i int) (int, error) {
	start := i
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	intPart := src[start:i]

	fraction := false
	if i < len(src) && src[i] == '.' {
		fraction = true
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i-start == 1 && fraction {
		return 0, fmt.Errorf("%w: lone decimal point at %d", ErrInvalidExpression, start)
	}

	exponent := false
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			exponent = true
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}

	if !fraction && !exponent && len(intPart) > 1 && intPart[0] == '0' && strings.Trim(intPart, "0") != "" {
		return 0, fmt.Errorf("%w: leading zero in %q", ErrInvalidExpression, intPart)
	}
	return i, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
