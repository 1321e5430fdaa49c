package cfgx

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-confmerge/value"
)

// Reason classifies a DecodeError.
type Reason string

const (
	ReasonTypeMismatch   Reason = "type_mismatch"
	ReasonMissingField   Reason = "missing_field"
	ReasonDuplicateField Reason = "duplicate_field"
	ReasonUnknownField   Reason = "unknown_field"
	ReasonEnumStructure  Reason = "enum_structure"
	ReasonUnknownVariant Reason = "unknown_variant"
	ReasonMissingPayload Reason = "missing_payload"
	ReasonOverflow       Reason = "overflow"
	ReasonLength         Reason = "length"
	ReasonUnsupported    Reason = "unsupported"
	ReasonHook           Reason = "hook"
	ReasonUnmarshal      Reason = "unmarshal"
)

// DecodeError describes the first mismatch found while materializing a tree.
// Path uses dots for map keys and brackets for sequence indexes, for example
// "servers[2].port". The root is the empty path.
type DecodeError struct {
	Path     string
	Reason   Reason
	Expected string
	Actual   string
	Enum     string
	Variant  string
	Err      error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	at := e.Path
	if at == "" {
		at = "<root>"
	}
	return fmt.Sprintf("%s: %s", at, e.message())
}

func (e *DecodeError) message() string {
	switch e.Reason {
	case ReasonTypeMismatch:
		if e.Err != nil {
			return e.Err.Error()
		}
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Actual)
	case ReasonMissingField:
		return fmt.Sprintf("missing field `%s`", e.Expected)
	case ReasonDuplicateField:
		return fmt.Sprintf("duplicate field `%s`", e.Expected)
	case ReasonUnknownField:
		return fmt.Sprintf("unknown field `%s`", e.Actual)
	case ReasonEnumStructure:
		return fmt.Sprintf("value of enum %s should be represented by either string or map with exactly one key, found %s", e.Enum, e.Actual)
	case ReasonUnknownVariant:
		return fmt.Sprintf("enum %s does not have variant constructor %s", e.Enum, e.Variant)
	case ReasonMissingPayload:
		return fmt.Sprintf("variant %s of enum %s requires a payload", e.Variant, e.Enum)
	case ReasonOverflow:
		return fmt.Sprintf("value %s overflows %s", e.Actual, e.Expected)
	case ReasonLength:
		return fmt.Sprintf("expected array of length %s, found %s", e.Expected, e.Actual)
	case ReasonUnsupported:
		return fmt.Sprintf("unsupported destination type %s", e.Expected)
	case ReasonHook:
		return fmt.Sprintf("decode hook for %s failed: %v", e.Expected, e.Err)
	case ReasonUnmarshal:
		return fmt.Sprintf("unmarshal %s: %v", e.Expected, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Reason)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func typeMismatch(path string, err error) error {
	var mm *value.MismatchError
	if errors.As(err, &mm) {
		return &DecodeError{
			Path:     path,
			Reason:   ReasonTypeMismatch,
			Expected: mm.Expected.String(),
			Actual:   mm.Actual.String(),
			Err:      err,
		}
	}
	return &DecodeError{Path: path, Reason: ReasonTypeMismatch, Err: err}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
