package slots

import "github.com/cockroachdb/errors"

// Expression-backed check functions compile a boolean expression once and
// bind the candidate configuration value as `value` on every validation.
// Three backends are provided, one per expression engine; they are
// interchangeable CheckFunc factories.

func coerceCheckResult(engine, expression string, out any) (bool, error) {
	b, ok := out.(bool)
	if !ok {
		return false, errors.Newf("slots: %s check %q returned %T, want bool", engine, expression, out)
	}
	return b, nil
}
