//go:build !js_eval

package slots

import "github.com/cockroachdb/errors"

// JSCheck is unavailable without the js_eval build tag.
func JSCheck(expression string) (CheckFunc, error) {
	return nil, errors.Newf("slots: js check %q requires the js_eval build tag", expression)
}

func jsCheckAvailable() bool {
	return false
}
