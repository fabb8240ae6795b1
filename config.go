package slots

import (
	"fmt"
	"reflect"
)

type unsetType struct{}

func (unsetType) String() string { return "<unset>" }

// Unset marks a configuration or cache slot that has no value yet. It is
// distinct from every valid value, including nil: a configuration slot
// declared with Default: Unset has no default and must receive a value at
// construction time.
var Unset any = unsetType{}

// CheckFunc validates a candidate configuration value. Returning ok=false
// rejects the value; returning a non-nil error rejects it and preserves the
// error as the cause.
type CheckFunc func(value any) (bool, error)

// ConfigSlot declares one named configurable knob on a layer. Validation runs
// on every write: membership in ValidValues, then ValidTypes, then the Check
// function.
type ConfigSlot struct {
	Name        string
	ValidValues []any
	ValidTypes  []reflect.Type
	Check       CheckFunc
	// Default is the class-level value until overwritten. Leave nil for a
	// nil default; set Unset to make the slot required at construction.
	Default any
	Doc     string
	// PerInstance allows instance-level overrides through ConfigSet with a
	// non-nil owner, resolved before the shared value.
	PerInstance bool
}

// TypeOf returns the reflect.Type of a zero sample, for ValidTypes entries.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (c ConfigSlot) validate(value any) error {
	if len(c.ValidValues) > 0 {
		found := false
		for _, valid := range c.ValidValues {
			if reflect.DeepEqual(valid, value) {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{
				Key:        c.Name,
				Value:      value,
				Constraint: fmt.Sprintf("should be in %v", c.ValidValues),
			}
		}
	}

	if len(c.ValidTypes) > 0 {
		vt := reflect.TypeOf(value)
		ok := false
		for _, t := range c.ValidTypes {
			if vt == t {
				ok = true
				break
			}
			if t.Kind() == reflect.Interface && vt != nil && vt.Implements(t) {
				ok = true
				break
			}
		}
		if !ok {
			return &ValidationError{
				Key:        c.Name,
				Value:      value,
				Constraint: fmt.Sprintf("%T is not among the valid types %v", value, c.ValidTypes),
			}
		}
	}

	if c.Check != nil {
		ok, err := c.Check(value)
		if err != nil {
			return &ValidationError{
				Key:        c.Name,
				Value:      value,
				Constraint: "does not pass the check function",
				Err:        err,
			}
		}
		if !ok {
			return &ValidationError{
				Key:        c.Name,
				Value:      value,
				Constraint: "rejected by the check function",
			}
		}
	}
	return nil
}

// Schema is the ordered set of configuration slots a layer family declares.
// Child families extend their parent's schema with Extend.
type Schema struct {
	slots map[string]ConfigSlot
	order []string
}

// NewSchema builds a schema from declarations, preserving order.
func NewSchema(decls ...ConfigSlot) *Schema {
	s := &Schema{slots: make(map[string]ConfigSlot, len(decls))}
	for _, decl := range decls {
		if _, ok := s.slots[decl.Name]; !ok {
			s.order = append(s.order, decl.Name)
		}
		s.slots[decl.Name] = decl
	}
	return s
}

// Extend returns a copy of the schema merged with additional declarations,
// the way a child layer family inherits its parent's configuration template.
func (s *Schema) Extend(decls ...ConfigSlot) *Schema {
	merged := NewSchema()
	if s != nil {
		for _, name := range s.order {
			merged.order = append(merged.order, name)
			merged.slots[name] = s.slots[name]
		}
	}
	for _, decl := range decls {
		if _, ok := merged.slots[decl.Name]; !ok {
			merged.order = append(merged.order, decl.Name)
		}
		merged.slots[decl.Name] = decl
	}
	return merged
}

// Slot returns the declaration for name.
func (s *Schema) Slot(name string) (ConfigSlot, bool) {
	if s == nil {
		return ConfigSlot{}, false
	}
	decl, ok := s.slots[name]
	return decl, ok
}

// Names returns the declared slot names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// ConfigValues supplies configuration values at layer construction, keyed by
// declared slot name.
type ConfigValues map[string]any

func mergeConfigValues(values []ConfigValues) ConfigValues {
	merged := ConfigValues{}
	for _, m := range values {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// configStore resolves configuration for one layer instance: construction
// kwargs against the schema, shared class-level values, and per-instance
// overrides kept in namespaced storage.
type configStore struct {
	layer  string
	schema *Schema
	ns     string
	name   AttrName
	shared map[string]any
	onSet  func(owner Owner, key string, value any)
}

// newConfigStore resolves construction values against schema. Every supplied
// value is validated; unknown keys and missing required values are
// declaration errors.
func newConfigStore(layer string, schema *Schema, values ConfigValues) (*configStore, error) {
	store := &configStore{
		layer:  layer,
		schema: schema,
		ns:     nsIConfig,
		shared: make(map[string]any),
	}

	for key := range values {
		if _, ok := schema.Slot(key); !ok {
			return nil, declErrf(layer, "got an unexpected configuration key %q", key)
		}
	}

	var missing []string
	for _, name := range schema.Names() {
		decl, _ := schema.Slot(name)
		value, supplied := values[name]
		if !supplied {
			if decl.Default == Unset {
				missing = append(missing, name)
				continue
			}
			store.shared[name] = decl.Default
			continue
		}
		if err := decl.validate(value); err != nil {
			return nil, err
		}
		store.shared[name] = value
	}
	if len(missing) > 0 {
		return nil, declErrf(layer, "missing %d required configuration value(s): %s",
			len(missing), joinMissing(missing))
	}
	return store, nil
}

func (c *configStore) bind(name AttrName, ns string) {
	c.name = name
	if ns != "" {
		c.ns = ns
	}
}

func (c *configStore) has(key string) bool {
	_, ok := c.schema.Slot(key)
	return ok
}

// get resolves key for owner: instance override first, shared value as the
// fallback. A nil owner reads the shared value directly.
func (c *configStore) get(owner Owner, key string) any {
	if owner == nil {
		return c.shared[key]
	}
	decl, ok := c.schema.Slot(key)
	if ok && decl.PerInstance {
		if h, ok := owner.(HasStorage); ok {
			if space, ok := h.Storage().Get(c.ns, c.name); ok {
				if overrides, ok := space.(map[string]any); ok {
					if value, ok := overrides[key]; ok {
						return value
					}
				}
			}
		}
	}
	return c.shared[key]
}

// set validates and writes key. A nil owner updates the shared value used as
// the fallback for every instance; a non-nil owner stores an override visible
// only through that instance.
func (c *configStore) set(owner Owner, key string, value any) error {
	decl, ok := c.schema.Slot(key)
	if !ok {
		return declErrf(c.layer, "got an unexpected configuration key %q", key)
	}
	if err := decl.validate(value); err != nil {
		return err
	}

	if owner == nil {
		c.shared[key] = value
	} else {
		if !decl.PerInstance {
			return declErrf(c.layer, "configuration key %q is not per-instance configurable", key)
		}
		h, ok := owner.(HasStorage)
		if !ok {
			return declErrf(c.layer, "owner type %T does not provide the required storage capability", owner)
		}
		overrides := h.Storage().GetOrCreate(c.ns, c.name, func() any {
			return make(map[string]any)
		}).(map[string]any)
		overrides[key] = value
	}

	if c.onSet != nil {
		c.onSet(owner, key, value)
	}
	return nil
}

// each yields the resolved (key, value) pairs for owner in declaration order.
func (c *configStore) each(owner Owner, fn func(key string, value any)) {
	for _, name := range c.schema.Names() {
		fn(name, c.get(owner, name))
	}
}
