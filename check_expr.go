package slots

import (
	"github.com/cockroachdb/errors"
	exprlang "github.com/expr-lang/expr"
)

// ExprCheck compiles expression with expr-lang and returns a CheckFunc that
// evaluates it with the candidate bound as `value`, coercing the result to
// bool.
func ExprCheck(expression string) (CheckFunc, error) {
	if expression == "" {
		return nil, errors.New("slots: check expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "slots: expr check %q", expression)
	}
	return func(value any) (bool, error) {
		out, err := exprlang.Run(program, map[string]any{"value": value})
		if err != nil {
			return false, err
		}
		return coerceCheckResult("expr", expression, out)
	}, nil
}

// MustExprCheck is ExprCheck that panics on compile errors, for package-level
// slot declarations.
func MustExprCheck(expression string) CheckFunc {
	check, err := ExprCheck(expression)
	if err != nil {
		panic(err)
	}
	return check
}
