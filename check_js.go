//go:build js_eval

package slots

import (
	"github.com/cockroachdb/errors"
	"github.com/dop251/goja"
)

// JSCheck compiles expression with goja and returns a CheckFunc that
// evaluates it with the candidate bound as `value`, coercing the result to
// bool. A fresh VM runs per validation so check functions stay safe for
// concurrent use.
func JSCheck(expression string) (CheckFunc, error) {
	if expression == "" {
		return nil, errors.New("slots: check expression must not be empty")
	}
	program, err := goja.Compile("", expression, false)
	if err != nil {
		return nil, errors.Wrapf(err, "slots: js check %q", expression)
	}
	return func(value any) (bool, error) {
		vm := goja.New()
		if err := vm.Set("value", value); err != nil {
			return false, err
		}
		out, err := vm.RunProgram(program)
		if err != nil {
			return false, err
		}
		return coerceCheckResult("js", expression, out.Export())
	}, nil
}

func jsCheckAvailable() bool {
	return true
}
