package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"empty", "", "0"},
		{"blank", "   ", "0"},
		{"addition", "3+4", "7"},
		{"precedence", "2+3*4", "14"},
		{"parentheses", "(2+3)*4", "20"},
		{"whitespace ignored", " 1 + 2 ", "3"},
		{"surrounding tabs and newlines ignored", "\t1+2\n", "3"},
		{"division", "7/2", "3.5"},
		{"repeating decimal", "1/3", "0.333333333333"},
		{"float noise trimmed", "0.1+0.2", "0.3"},
		{"leading unary minus", "-8*3", "-24"},
		{"double unary", "--2", "2"},
		{"unary plus", "+5", "5"},
		{"percent", "50%", "0.5"},
		{"percent of fraction", "12.5%*8", "1"},
		{"modulo", "(7)%3", "1"},
		{"modulo takes divisor sign", "(-7)%3", "2"},
		{"power", "2**10", "1024"},
		{"power right associative", "2**3**2", "512"},
		{"power binds tighter than unary", "-2**2", "-4"},
		{"negative exponent", "2**-1", "0.5"},
		{"constants", "pi", "3.14159265359"},
		{"e", "e", "2.718281828459"},
		{"sqrt", "sqrt(16)", "4"},
		{"log is base ten", "log(1000)", "3"},
		{"ln", "ln(e)", "1"},
		{"abs", "abs(-3)", "3"},
		{"nested functions", "sqrt(abs(-81))+cos(0)", "10"},
		{"sin", "sin(pi/2)", "1"},
		{"exponent literal", "1e3+1", "1001"},
		{"large result", "10**12", "1.000000e+12"},
		{"large negative result", "-(10**13)*2", "-2.000000e+13"},
		{"chained result", "1.000000e+12+1", "1.000000e+12"},
		{"all zeros literal", "00+1", "1"},
		{"trailing point", "1.+1", "2"},
		{"leading point", ".5*2", "1"},
		{"tiny rounds to zero", "1e-15", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want error
	}{
		{"division by zero", "5/0", ErrDivideByZero},
		{"modulo by zero", "(5)%0", ErrDivideByZero},
		{"zero to negative power", "0**-1", ErrDivideByZero},
		{"overflow", "1e308*10", ErrDivideByZero},
		{"huge literal", "1e400", ErrDivideByZero},
		{"power overflow", "10**400", ErrInvalidExpression},
		{"trailing operator", "3+", ErrInvalidExpression},
		{"dangling operators", "3+*4", ErrInvalidExpression},
		{"floor division", "7//2", ErrInvalidExpression},
		{"unbalanced", "(1+2", ErrInvalidExpression},
		{"extra close", "1+2)", ErrInvalidExpression},
		{"unknown name", "x+1", ErrInvalidExpression},
		{"unknown function", "exp(1)", ErrInvalidExpression},
		{"constant called", "pi(2)", ErrInvalidExpression},
		{"implicit multiplication", "2pi", ErrInvalidExpression},
		{"call on number", "2(3)", ErrInvalidExpression},
		{"two arguments", "sin(1,2)", ErrInvalidExpression},
		{"tuple", "1,2", ErrInvalidExpression},
		{"inner tab", "1\t+2", ErrInvalidExpression},
		{"inner newline", "1+\n2", ErrInvalidExpression},
		{"no argument", "sqrt()", ErrInvalidExpression},
		{"domain error", "sqrt(-1)", ErrInvalidExpression},
		{"log of zero", "log(0)", ErrInvalidExpression},
		{"asin out of range", "asin(2)", ErrInvalidExpression},
		{"fractional power of negative", "(-8)**(1/3)", ErrInvalidExpression},
		{"disallowed characters", "2^3", ErrInvalidExpression},
		{"leading zero", "007", ErrInvalidExpression},
		{"lone point", ".", ErrInvalidExpression},
		{"percent after point", ".5%", ErrInvalidExpression},
		{"percent before number", "5%3", ErrInvalidExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-1.5, "-1.5"},
		{999999999999, "999999999999"},
		{1e12, "1.000000e+12"},
		{-1234567890123456, "-1.234568e+15"},
		{0.0000000000001, "0"},
	}

	for _, tt := range tests {
		got, err := Format(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Format(%v)", tt.in)
	}
}

func TestMessage(t *testing.T) {
	_, err := Evaluate("1/0")
	assert.Equal(t, MessageDivideByZero, Message(err))

	_, err = Evaluate("1+")
	assert.Equal(t, MessageInvalidExpression, Message(err))

	assert.Equal(t, MessageInvalidExpression, Message(errors.New("boom")))
}

func TestFunctions(t *testing.T) {
	assert.Equal(t, []string{"abs", "acos", "asin", "atan", "cos", "ln", "log", "sin", "sqrt", "tan"}, Functions())
}
