package value

import (
	"errors"
	"fmt"
)

// ErrNotVariant is returned by AsVariant when the value is neither a String
// nor a single-entry Map.
var ErrNotVariant = errors.New("value: not a variant selection")

// MismatchError reports a request for a variant the value does not hold.
type MismatchError struct {
	Expected Kind
	Actual   Kind
	Value    Value
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.Expected, describe(e.Value))
}

func mismatch(expected Kind, actual Value) error {
	return &MismatchError{Expected: expected, Actual: actual.kind, Value: actual}
}

// describe renders the kind plus a short payload preview for scalars.
func describe(v Value) string {
	if v.kind.IsScalar() {
		return fmt.Sprintf("%s(%s)", v.kind, v.String())
	}
	return v.kind.String()
}

// ConversionError reports a host value that has no Value representation.
type ConversionError struct {
	Path   string
	Type   string
	Reason string
}

func (e *ConversionError) Error() string {
	at := e.Path
	if at == "" {
		at = "<root>"
	}
	if e.Reason != "" {
		return fmt.Sprintf("value: cannot convert %s at %s: %s", e.Type, at, e.Reason)
	}
	return fmt.Sprintf("value: cannot convert %s at %s", e.Type, at)
}
