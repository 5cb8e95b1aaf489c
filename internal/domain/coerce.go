package domain

import (
	"math"
	"strconv"
	"time"
)

// rxTimeLayout is AIS-catcher's rxtime format, always UTC.
const rxTimeLayout = "20060102150405"

// jsonNumber matches number literals kept verbatim by a UseNumber decoder
// (encoding/json.Number and drop-in replacements).
type jsonNumber interface {
	Float64() (float64, error)
	String() string
}

// lookup returns the value for key, treating an explicit null as absent.
func lookup(m RawMessage, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// coerceFloat accepts any numeric value.
func coerceFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case jsonNumber:
		f, err := n.Float64()
		if err != nil {
			return 0, &FieldError{Field: field, Kind: MalformedValue, Value: v}
		}
		return f, nil
	default:
		return 0, &FieldError{Field: field, Kind: UnsupportedType, Value: v}
	}
}

// coerceUint accepts integer values directly and truncates floating point
// values toward zero. Negative or non-finite values are malformed.
func coerceUint(field string, v any) (uint64, error) {
	malformed := &FieldError{Field: field, Kind: MalformedValue, Value: v}
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, malformed
		}
		return uint64(n), nil
	case int32:
		if n < 0 {
			return 0, malformed
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, malformed
		}
		return uint64(n), nil
	case jsonNumber:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, malformed
		}
		return truncateUint(f, malformed)
	case float32:
		return truncateUint(float64(n), malformed)
	case float64:
		return truncateUint(n, malformed)
	default:
		return 0, &FieldError{Field: field, Kind: UnsupportedType, Value: v}
	}
}

func truncateUint(f float64, malformed error) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed
	}
	t := math.Trunc(f)
	if t < 0 || t >= math.MaxUint64 {
		return 0, malformed
	}
	return uint64(t), nil
}

func requireUint(m RawMessage, field string) (uint64, error) {
	v, ok := lookup(m, field)
	if !ok {
		return 0, &FieldError{Field: field, Kind: MissingRequiredField}
	}
	return coerceUint(field, v)
}

func requireFloat(m RawMessage, field string) (float64, error) {
	v, ok := lookup(m, field)
	if !ok {
		return 0, &FieldError{Field: field, Kind: MissingRequiredField}
	}
	return coerceFloat(field, v)
}

// optionalFloat returns nil when the key is absent, and an error only when it
// is present with an unusable value.
func optionalFloat(m RawMessage, field string) (*float64, error) {
	v, ok := lookup(m, field)
	if !ok {
		return nil, nil
	}
	f, err := coerceFloat(field, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// optionalUint returns nil for absent keys and for values that are not numbers.
// It never fails: identifier components are simply "not present" when unusable.
func optionalUint(m RawMessage, field string) *uint64 {
	v, ok := lookup(m, field)
	if !ok {
		return nil
	}
	u, err := coerceUint(field, v)
	if err != nil {
		return nil
	}
	return &u
}

func requireTimestamp(m RawMessage, field string) (time.Time, error) {
	v, ok := lookup(m, field)
	if !ok {
		return time.Time{}, &FieldError{Field: field, Kind: MissingRequiredField}
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, &FieldError{Field: field, Kind: UnsupportedType, Value: v}
	}
	t, err := time.ParseInLocation(rxTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Kind: MalformedValue, Value: v}
	}
	return t, nil
}

func defaultedUint(m RawMessage, field string, def uint64) (uint64, error) {
	v, ok := lookup(m, field)
	if !ok {
		return def, nil
	}
	return coerceUint(field, v)
}

func defaultedFloat(m RawMessage, field string, def float64) (float64, error) {
	v, ok := lookup(m, field)
	if !ok {
		return def, nil
	}
	return coerceFloat(field, v)
}
