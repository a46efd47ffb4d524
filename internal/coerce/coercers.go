package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coerce converts arbitrary extractor output into a typed value of the given
// kind. Coercion either fully succeeds or returns an error; there are no
// partial results.
func Coerce(kind Kind, input any) (*Value, error) {
	if v, ok := input.(*Value); ok {
		if v.Kind() == kind {
			return v, nil
		}
		return Coerce(kind, v.Raw())
	}
	switch kind {
	case KindBool:
		return coerceBool(input)
	case KindInt:
		return coerceInt(input)
	case KindFloat:
		return coerceFloat(input)
	case KindString:
		return coerceString(input)
	case KindBytes:
		return coerceBytes(input)
	case KindDateTime:
		return coerceDateTime(input)
	case KindPath:
		s, err := asString(input)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("coerce path: empty input")
		}
		return NewPath(s), nil
	case KindMIME:
		return coerceMIME(input)
	case KindList:
		return coerceList(input)
	default:
		return nil, fmt.Errorf("coerce: unsupported kind %v", kind)
	}
}

// Format renders a typed value as the canonical string accepted back by
// Coerce, so that Coerce(v.Kind(), Format(v)) reproduces v.
func Format(v *Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind() {
	case KindDateTime:
		return v.Time().UTC().Format("2006-01-02T15:04:05Z07:00")
	case KindMIME:
		return v.Normalized()
	default:
		return v.String()
	}
}

func coerceBool(input any) (*Value, error) {
	switch t := input.(type) {
	case bool:
		return NewBool(t), nil
	case int, int32, int64:
		n, _ := asInt(input)
		return NewBool(n != 0), nil
	case string, []byte:
		s, _ := asString(input)
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1", "on":
			return NewBool(true), nil
		case "false", "no", "0", "off", "":
			return NewBool(false), nil
		}
		return nil, fmt.Errorf("coerce bool: unrecognized %q", s)
	default:
		return nil, fmt.Errorf("coerce bool: unsupported input %T", input)
	}
}

func coerceInt(input any) (*Value, error) {
	if n, ok := asInt(input); ok {
		return NewInt(n), nil
	}
	if f, ok := input.(float64); ok && f == float64(int64(f)) {
		return NewInt(int64(f)), nil
	}
	s, err := asString(input)
	if err != nil {
		return nil, fmt.Errorf("coerce int: unsupported input %T", input)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("coerce int: %w", err)
	}
	return NewInt(n), nil
}

func coerceFloat(input any) (*Value, error) {
	switch t := input.(type) {
	case float64:
		return NewFloat(t), nil
	case float32:
		return NewFloat(float64(t)), nil
	}
	if n, ok := asInt(input); ok {
		return NewFloat(float64(n)), nil
	}
	s, err := asString(input)
	if err != nil {
		return nil, fmt.Errorf("coerce float: unsupported input %T", input)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("coerce float: %w", err)
	}
	return NewFloat(f), nil
}

func coerceString(input any) (*Value, error) {
	s, err := asString(input)
	if err != nil {
		return nil, err
	}
	return NewString(s), nil
}

func coerceBytes(input any) (*Value, error) {
	switch t := input.(type) {
	case []byte:
		return NewBytes(t), nil
	case string:
		return NewBytes([]byte(t)), nil
	default:
		return nil, fmt.Errorf("coerce bytes: unsupported input %T", input)
	}
}

func coerceDateTime(input any) (*Value, error) {
	switch t := input.(type) {
	case time.Time:
		return NewDateTime(t), nil
	case int, int32, int64:
		n, _ := asInt(input)
		ts, err := fromUnix(n)
		if err != nil {
			return nil, err
		}
		return NewDateTime(ts), nil
	case string, []byte:
		s, _ := asString(t)
		ts, err := ParseDateTime(s)
		if err != nil {
			return nil, err
		}
		return NewDateTime(ts), nil
	default:
		return nil, fmt.Errorf("coerce datetime: unsupported input %T", input)
	}
}

func coerceMIME(input any) (*Value, error) {
	s, err := asString(input)
	if err != nil {
		return nil, err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || !strings.Contains(s, "/") {
		return nil, fmt.Errorf("coerce mime: malformed %q", s)
	}
	return NewMIME(s), nil
}

func coerceList(input any) (*Value, error) {
	switch t := input.(type) {
	case []*Value:
		return NewList(t), nil
	case []string:
		items := make([]*Value, 0, len(t))
		for _, s := range t {
			items = append(items, NewString(s))
		}
		return NewList(items), nil
	case []any:
		items := make([]*Value, 0, len(t))
		for _, raw := range t {
			item, err := Coerce(KindString, raw)
			if err != nil {
				return nil, fmt.Errorf("coerce list item: %w", err)
			}
			items = append(items, item)
		}
		return NewList(items), nil
	default:
		return nil, fmt.Errorf("coerce list: unsupported input %T", input)
	}
}

func asString(input any) (string, error) {
	switch t := input.(type) {
	case string:
		return t, nil
	case []byte:
		return DecodeText(t), nil
	default:
		return "", fmt.Errorf("expected text, got %T", input)
	}
}

func asInt(input any) (int64, bool) {
	switch t := input.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	default:
		return 0, false
	}
}
