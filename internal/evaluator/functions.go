package evaluator

import (
	"fmt"
	"math"
	"sort"
)

type function struct {
	name string
	fn   func(float64) float64
}

// apply rejects domain errors such as sqrt(-1) or log(0).
func (f function) apply(x float64) (float64, error) {
	v := f.fn(x)
	if math.IsNaN(v) || (math.IsInf(v, 0) && !math.IsInf(x, 0)) {
		return 0, fmt.Errorf("%w: %s(%g) is undefined", ErrInvalidExpression, f.name, x)
	}
	return v, nil
}

var functions = map[string]function{
	"sin":  {"sin", math.Sin},
	"cos":  {"cos", math.Cos},
	"tan":  {"tan", math.Tan},
	"asin": {"asin", math.Asin},
	"acos": {"acos", math.Acos},
	"atan": {"atan", math.Atan},
	"sqrt": {"sqrt", math.Sqrt},
	"log":  {"log", math.Log10},
	"ln":   {"ln", math.Log},
	"abs":  {"abs", math.Abs},
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Functions lists the supported function names in order.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
