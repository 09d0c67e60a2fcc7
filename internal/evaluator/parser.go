package evaluator

import (
	"fmt"
	"math"
	"strconv"
)

// parser evaluates while it parses. Precedence, loosest first:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | "%") unary }
//	unary  = ("+" | "-") unary | power
//	power  = atom [ "**" unary ]
//	atom   = number | name | name "(" expr ")" | "(" expr ")"
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) error {
	if t := p.next(); t.kind != kind {
		return unexpected(t)
	}
	return nil
}

func (p *parser) parse() (float64, error) {
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, unexpected(t)
	}
	return v, nil
}

func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case tokMinus:
			p.next()
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash && op != tokPercent {
			return v, nil
		}
		p.next()
		r, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case tokStar:
			v *= r
		case tokSlash:
			if r == 0 {
				return 0, ErrDivideByZero
			}
			v /= r
		case tokPercent:
			if r == 0 {
				return 0, ErrDivideByZero
			}
			v = floorMod(v, r)
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek().kind {
	case tokPlus:
		p.next()
		return p.unary()
	case tokMinus:
		p.next()
		v, err := p.unary()
		return -v, err
	default:
		return p.power()
	}
}

func (p *parser) power() (float64, error) {
	base, err := p.atom()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokPower {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	return pow(base, exp)
}

func (p *parser) atom() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil && !math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: bad number %s", ErrInvalidExpression, t)
		}
		return v, nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		return v, p.expect(tokRParen)
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if c, ok := constants[t.text]; ok {
			return c, nil
		}
		return 0, fmt.Errorf("%w: unknown name %s", ErrInvalidExpression, t)
	default:
		return 0, unexpected(t)
	}
}

func (p *parser) call(name token) (float64, error) {
	fn, ok := functions[name.text]
	if !ok {
		return 0, fmt.Errorf("%w: unknown function %s", ErrInvalidExpression, name)
	}
	p.next() // (
	arg, err := p.expr()
	if err != nil {
		return 0, err
	}
	if err := p.expect(tokRParen); err != nil {
		return 0, err
	}
	return fn.apply(arg)
}

func unexpected(t token) error {
	return fmt.Errorf("%w: unexpected %s", ErrInvalidExpression, t)
}

// floorMod takes the sign of the divisor.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func pow(base, exp float64) (float64, error) {
	if base == 0 && exp < 0 {
		return 0, ErrDivideByZero
	}
	v := math.Pow(base, exp)
	if math.IsInf(v, 0) && !math.IsInf(base, 0) && !math.IsInf(exp, 0) {
		return 0, fmt.Errorf("%w: %g ** %g overflows", ErrInvalidExpression, base, exp)
	}
	return v, nil
}
