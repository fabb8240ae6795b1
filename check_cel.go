package slots

import (
	"github.com/cockroachdb/errors"
	celgo "github.com/google/cel-go/cel"
)

// CELCheck compiles expression with cel-go and returns a CheckFunc that
// evaluates it with the candidate bound as `value`, coercing the result to
// bool.
func CELCheck(expression string) (CheckFunc, error) {
	if expression == "" {
		return nil, errors.New("slots: check expression must not be empty")
	}
	env, err := celgo.NewEnv(celgo.Variable("value", celgo.DynType))
	if err != nil {
		return nil, errors.Wrap(err, "slots: cel environment")
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "slots: cel check %q", expression)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "slots: cel check %q", expression)
	}
	return func(value any) (bool, error) {
		out, _, err := program.Eval(map[string]any{"value": value})
		if err != nil {
			return false, err
		}
		return coerceCheckResult("cel", expression, out.Value())
	}, nil
}

// MustCELCheck is CELCheck that panics on compile errors, for package-level
// slot declarations.
func MustCELCheck(expression string) CheckFunc {
	check, err := CELCheck(expression)
	if err != nil {
		panic(err)
	}
	return check
}
