package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField is matched by a FieldError whose key was absent
	// or whose value could not be parsed.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrUnsupportedType is matched by a FieldError whose value has a JSON type
	// that cannot be coerced to the target.
	ErrUnsupportedType = errors.New("unsupported field type")
	// ErrMissingType is returned when a message has no usable "type" key.
	ErrMissingType = errors.New("message has no numeric type")
)

// FieldErrorKind classifies a field decode failure.
type FieldErrorKind int

const (
	MissingRequiredField FieldErrorKind = iota
	UnsupportedType
	MalformedValue
)

func (k FieldErrorKind) String() string {
	switch k {
	case MissingRequiredField:
		return "missing"
	case UnsupportedType:
		return "unsupported type"
	case MalformedValue:
		return "malformed"
	default:
		return "unknown"
	}
}

// FieldError reports which field failed to decode and why.
type FieldError struct {
	Field string
	Kind  FieldErrorKind
	Value any
}

func (e *FieldError) Error() string {
	if e.Kind == MissingRequiredField {
		return fmt.Sprintf("field %q: missing", e.Field)
	}
	return fmt.Sprintf("field %q: %s: %v (%T)", e.Field, e.Kind, e.Value, e.Value)
}

// Is lets callers match on the error kind with errors.Is. A malformed value
// counts as a missing required field: the message is unusable either way.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrMissingRequiredField:
		return e.Kind == MissingRequiredField || e.Kind == MalformedValue
	case ErrUnsupportedType:
		return e.Kind == UnsupportedType
	}
	return false
}
