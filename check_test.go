package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprCheck(t *testing.T) {
	check, err := ExprCheck(`value > 0 && value < 100`)
	require.NoError(t, err)

	ok, err := check(42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = check(-1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExprCheckRejectsNonBool(t *testing.T) {
	check, err := ExprCheck(`value + 1`)
	require.NoError(t, err)

	_, err = check(1)
	assert.ErrorContains(t, err, "want bool")
}

func TestExprCheckCompileError(t *testing.T) {
	_, err := ExprCheck(`value >`)
	assert.Error(t, err)
	_, err = ExprCheck("")
	assert.Error(t, err)
}

func TestCELCheck(t *testing.T) {
	check, err := CELCheck(`value in [9600, 19200, 115200]`)
	require.NoError(t, err)

	ok, err := check(9600)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = check(300)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSCheckAvailability(t *testing.T) {
	if !jsCheckAvailable() {
		_, err := JSCheck(`value > 0`)
		assert.ErrorContains(t, err, "js_eval build tag")
		return
	}
	check, err := JSCheck(`value > 0`)
	require.NoError(t, err)
	ok, err := check(1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckBackedConfigSlot(t *testing.T) {
	schema := NewSchema(ConfigSlot{
		Name:        "baud_rate",
		Check:       MustExprCheck(`value in [9600, 19200, 115200]`),
		Default:     9600,
		PerInstance: true,
	})
	s := newVoltage(t, WithConfig[float64](schema))

	require.NoError(t, s.ConfigSet(nil, "baud_rate", 115200))

	err := s.ConfigSet(nil, "baud_rate", 300)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
