package slots

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsResolve(t *testing.T) {
	s := newVoltage(t, WithConfig[float64](NewSchema(
		ConfigSlot{Name: "baud_rate", Default: 9600, PerInstance: true},
	)))

	v, err := s.ConfigGet(nil, "baud_rate")
	require.NoError(t, err)
	assert.Equal(t, 9600, v)

	v, err = s.ConfigGet(&device{}, "baud_rate")
	require.NoError(t, err)
	assert.Equal(t, 9600, v)
}

func TestConfigRequiredValueMissing(t *testing.T) {
	schema := NewSchema(
		ConfigSlot{Name: "port", Default: Unset},
		ConfigSlot{Name: "address", Default: Unset},
	)
	_, err := New[float64]("voltage", WithConfig[float64](schema))
	var declErr *DeclarationError
	require.ErrorAs(t, err, &declErr)
	assert.Contains(t, err.Error(), "missing 2 required configuration value(s): port, address")
}

func TestConfigRequiredValueSupplied(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "port", Default: Unset})
	s := newVoltage(t, WithConfig[float64](schema, ConfigValues{"port": "COM3"}))

	v, err := s.ConfigGet(nil, "port")
	require.NoError(t, err)
	assert.Equal(t, "COM3", v)
}

func TestConfigUnexpectedConstructionKey(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "port", Default: "COM1"})
	_, err := New[float64]("voltage",
		WithConfig[float64](schema, ConfigValues{"prot": "COM1"}),
	)
	assert.ErrorContains(t, err, `unexpected configuration key "prot"`)
}

func TestConfigValidValuesEnforced(t *testing.T) {
	schema := NewSchema(ConfigSlot{
		Name:        "baud_rate",
		ValidValues: []any{9600, 19200},
		Default:     9600,
		PerInstance: true,
	})
	s := newVoltage(t, WithConfig[float64](schema))

	err := s.ConfigSet(nil, "baud_rate", 300)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "baud_rate", valErr.Key)
	assert.Equal(t, 300, valErr.Value)

	// A rejected write leaves the previous value in place.
	v, err := s.ConfigGet(nil, "baud_rate")
	require.NoError(t, err)
	assert.Equal(t, 9600, v)
}

func TestConfigValidTypesEnforced(t *testing.T) {
	schema := NewSchema(ConfigSlot{
		Name:        "terminator",
		ValidTypes:  []reflect.Type{TypeOf[string]()},
		Default:     "\n",
		PerInstance: true,
	})
	s := newVoltage(t, WithConfig[float64](schema))

	require.NoError(t, s.ConfigSet(nil, "terminator", "\r\n"))
	err := s.ConfigSet(nil, "terminator", 13)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestConfigCheckFunction(t *testing.T) {
	schema := NewSchema(ConfigSlot{
		Name: "timeout_ms",
		Check: func(v any) (bool, error) {
			n, ok := v.(int)
			return ok && n > 0, nil
		},
		Default:     100,
		PerInstance: true,
	})
	s := newVoltage(t, WithConfig[float64](schema))

	require.NoError(t, s.ConfigSet(nil, "timeout_ms", 250))
	err := s.ConfigSet(nil, "timeout_ms", -1)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestConfigPerInstanceOverride(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "baud_rate", Default: 9600, PerInstance: true})
	s := newVoltage(t, WithConfig[float64](schema))
	a := &device{}
	b := &device{}

	require.NoError(t, s.ConfigSet(a, "baud_rate", 115200))

	va, err := s.ConfigGet(a, "baud_rate")
	require.NoError(t, err)
	vb, err := s.ConfigGet(b, "baud_rate")
	require.NoError(t, err)
	shared, err := s.ConfigGet(nil, "baud_rate")
	require.NoError(t, err)

	assert.Equal(t, 115200, va)
	assert.Equal(t, 9600, vb)
	assert.Equal(t, 9600, shared)
}

func TestConfigSharedUpdateReachesUnoverriddenInstances(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "baud_rate", Default: 9600, PerInstance: true})
	s := newVoltage(t, WithConfig[float64](schema))
	a := &device{}
	b := &device{}
	require.NoError(t, s.ConfigSet(a, "baud_rate", 115200))

	require.NoError(t, s.ConfigSet(nil, "baud_rate", 19200))

	va, _ := s.ConfigGet(a, "baud_rate")
	vb, _ := s.ConfigGet(b, "baud_rate")
	assert.Equal(t, 115200, va)
	assert.Equal(t, 19200, vb)
}

func TestConfigInstanceWriteRequiresPerInstance(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "baud_rate", Default: 9600})
	s := newVoltage(t, WithConfig[float64](schema))

	err := s.ConfigSet(&device{}, "baud_rate", 19200)
	assert.ErrorContains(t, err, `configuration key "baud_rate" is not per-instance configurable`)
}

func TestOnConfigSetFiresAfterWrites(t *testing.T) {
	schema := NewSchema(ConfigSlot{Name: "baud_rate", Default: 9600, PerInstance: true})
	s := newVoltage(t, WithConfig[float64](schema))
	d := &device{}

	var writes []string
	s.OnConfigSet(func(owner Owner, key string, value any) {
		scope := "shared"
		if owner != nil {
			scope = "instance"
		}
		writes = append(writes, fmt.Sprintf("%s %s=%v", scope, key, value))
	})

	require.NoError(t, s.ConfigSet(nil, "baud_rate", 19200))
	require.NoError(t, s.ConfigSet(d, "baud_rate", 115200))
	assert.Error(t, s.ConfigSet(nil, "nope", 1))

	assert.Equal(t, []string{
		"shared baud_rate=19200",
		"instance baud_rate=115200",
	}, writes)
}

func TestSchemaExtendInheritsDeclarations(t *testing.T) {
	parent := NewSchema(ConfigSlot{Name: "port", Default: "COM1"})
	child := parent.Extend(
		ConfigSlot{Name: "port", Default: "COM2"},
		ConfigSlot{Name: "baud_rate", Default: 9600},
	)

	assert.Equal(t, []string{"port", "baud_rate"}, child.Names())
	decl, ok := child.Slot("port")
	require.True(t, ok)
	assert.Equal(t, "COM2", decl.Default)

	// The parent is untouched.
	decl, ok = parent.Slot("port")
	require.True(t, ok)
	assert.Equal(t, "COM1", decl.Default)
}

func TestUnsetIsDistinctFromNil(t *testing.T) {
	assert.NotEqual(t, Unset, nil)
	assert.Equal(t, "<unset>", unsetType{}.String())
}
