package slots

import (
	"fmt"
	"strings"
)

// DeclarationError reports a problem detected while a slot, layer, or storage
// namespace is being declared: an unknown or missing configuration key, a
// failed capability audit, or a namespace collision. Declaration errors
// surface from New, NewMethod, Bind, or Registry.Register, never from a get
// or set.
type DeclarationError struct {
	Slot   string
	Reason string
	Err    error
}

func (e *DeclarationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Slot == "" {
		return fmt.Sprintf("slots: %s", e.Reason)
	}
	return fmt.Sprintf("slots: declaring %s: %s", e.Slot, e.Reason)
}

func (e *DeclarationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports a configuration value rejected by its slot
// declaration. Err carries the cause when the check function itself failed.
type ValidationError struct {
	Key        string
	Value      any
	Constraint string
	Err        error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("slots: %v is not a valid value for %s: %s", e.Value, e.Key, e.Constraint)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AccessError reports a get, set, delete, or force-set against a slot that
// does not support the operation.
type AccessError struct {
	Name AttrName
	Op   string
}

func (e *AccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Op {
	case "get":
		return fmt.Sprintf("slots: %s cannot be read (no getter)", e.Name)
	case "set":
		return fmt.Sprintf("slots: %s cannot be written (no setter)", e.Name)
	case "delete":
		return fmt.Sprintf("slots: %s is permanent (no deleter)", e.Name)
	default:
		return fmt.Sprintf("slots: %s does not support %s", e.Name, e.Op)
	}
}

// KeyError reports a dictionary slot indexed with a key outside its declared
// domain.
type KeyError struct {
	Name   AttrName
	Key    any
	Domain string
}

func (e *KeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("slots: %v is not a valid key for %s, should be in %s", e.Key, e.Name, e.Domain)
}

func declErrf(slot string, format string, args ...any) *DeclarationError {
	return &DeclarationError{Slot: slot, Reason: fmt.Sprintf(format, args...)}
}

func joinMissing(keys []string) string {
	return strings.Join(keys, ", ")
}
