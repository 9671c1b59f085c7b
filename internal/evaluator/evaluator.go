// Package evaluator compiles and evaluates pass expressions: JSONata
// predicates over the full response text.
//
// Inside an expression the response is the root value $, so
//
//	$contains($, "OK")
//
// passes when the response mentions OK. Expressions must yield a boolean.
package evaluator

import (
	"errors"
	"fmt"
	"strings"

	jsonata "github.com/blues/jsonata-go"

	"pipellm/internal/core"
)

// ErrNotBoolean is wrapped by evaluation errors for expressions whose result
// is not a boolean.
var ErrNotBoolean = errors.New("pass expression did not evaluate to a boolean")

// Predicate is a compiled pass expression. It is safe to evaluate repeatedly.
type Predicate struct {
	source string
	expr   *jsonata.Expr
}

// Compile parses expression. Compilation happens before any request is made
// so a malformed expression fails fast.
func Compile(expression string) (*Predicate, error) {
	source := strings.TrimSpace(expression)
	if source == "" {
		return nil, core.NewExpressionError("pass expression is empty", nil)
	}

	expr, err := jsonata.Compile(source)
	if err != nil {
		return nil, core.NewExpressionError(fmt.Sprintf("invalid pass expression %q: %v", source, err), err)
	}
	return &Predicate{source: source, expr: expr}, nil
}

// String returns the expression source.
func (p *Predicate) String() string {
	return p.source
}

// Evaluate runs the predicate against input and returns its verdict.
// Non-boolean results are reported as errors wrapping ErrNotBoolean; they are
// never coerced.
func (p *Predicate) Evaluate(input string) (bool, error) {
	result, err := p.expr.Eval(input)
	if errors.Is(err, jsonata.ErrUndefined) {
		return false, notBoolean(p.source, "undefined")
	}
	if err != nil {
		return false, core.NewEvaluationError(fmt.Sprintf("evaluating %q: %v", p.source, err), err)
	}

	verdict, ok := result.(bool)
	if !ok {
		return false, notBoolean(p.source, describe(result))
	}
	return verdict, nil
}

func notBoolean(source, got string) error {
	return core.NewEvaluationError(fmt.Sprintf("%q evaluated to %s, want boolean", source, got), ErrNotBoolean)
}

func describe(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", t)
	case float64, int, int64:
		return fmt.Sprintf("number %v", t)
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
