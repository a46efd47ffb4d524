package coerce

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"autoname/internal/textutil"
)

// Value is a tagged variant carrying one piece of extracted metadata.
// The raw form is immutable after construction; the normalized form is a
// pure function of the raw form and kind, computed on first use.
type Value struct {
	kind    Kind
	raw     any
	generic string

	normOnce sync.Once
	norm     string
}

func newValue(kind Kind, raw any) *Value {
	return &Value{kind: kind, raw: raw}
}

// NewBool wraps a boolean.
func NewBool(v bool) *Value { return newValue(KindBool, v) }

// NewInt wraps an integer.
func NewInt(v int64) *Value { return newValue(KindInt, v) }

// NewFloat wraps a floating-point number.
func NewFloat(v float64) *Value { return newValue(KindFloat, v) }

// NewString wraps a string.
func NewString(v string) *Value { return newValue(KindString, v) }

// NewBytes wraps a byte string.
func NewBytes(v []byte) *Value {
	cp := make([]byte, len(v))
	copy(cp, v)
	return newValue(KindBytes, cp)
}

// NewDateTime wraps a timestamp. Sub-second precision is discarded.
func NewDateTime(v time.Time) *Value {
	return newValue(KindDateTime, v.Truncate(time.Second))
}

// NewPath wraps a filesystem path.
func NewPath(v string) *Value { return newValue(KindPath, filepath.Clean(v)) }

// NewMIME wraps a MIME type string.
func NewMIME(v string) *Value {
	return newValue(KindMIME, strings.ToLower(strings.TrimSpace(v)))
}

// NewList wraps an ordered list of values.
func NewList(items []*Value) *Value {
	cp := make([]*Value, len(items))
	copy(cp, items)
	return newValue(KindList, cp)
}

// WithGeneric returns a copy of v tagged with a generic field name such as
// "date-created" or "author". The raw value is shared; it is immutable.
func (v *Value) WithGeneric(generic string) *Value {
	cp := newValue(v.kind, v.raw)
	cp.generic = strings.ToLower(strings.TrimSpace(generic))
	return cp
}

// Kind reports the type tag.
func (v *Value) Kind() Kind { return v.kind }

// Generic reports the generic field this value maps to, or "".
func (v *Value) Generic() string { return v.generic }

// Raw returns the underlying value.
func (v *Value) Raw() any { return v.raw }

// Bool returns the raw boolean; false when the kind differs.
func (v *Value) Bool() bool { b, _ := v.raw.(bool); return b }

// Int returns the raw integer; zero when the kind differs.
func (v *Value) Int() int64 { n, _ := v.raw.(int64); return n }

// Float returns the raw float; zero when the kind differs.
func (v *Value) Float() float64 { f, _ := v.raw.(float64); return f }

// Time returns the raw timestamp; the zero time when the kind differs.
func (v *Value) Time() time.Time { t, _ := v.raw.(time.Time); return t }

// List returns the raw item slice; nil when the kind differs.
func (v *Value) List() []*Value { l, _ := v.raw.([]*Value); return l }

// String returns a display form of the raw value.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case KindString, KindPath, KindMIME:
		s, _ := v.raw.(string)
		return s
	case KindBytes:
		b, _ := v.raw.([]byte)
		return string(b)
	case KindDateTime:
		return v.Time().Format(time.RFC3339)
	case KindList:
		items := v.List()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v.raw)
	}
}

// Normalized returns the canonical comparison form of the value. It is
// computed once and cached; the computation depends only on the raw form
// and kind.
func (v *Value) Normalized() string {
	if v == nil {
		return ""
	}
	v.normOnce.Do(func() {
		v.norm = normalize(v.kind, v.raw)
	})
	return v.norm
}

// Truthy reports whether the value carries usable content. Truthiness is
// defined by the normalized form: empty means falsy.
func (v *Value) Truthy() bool {
	return v != nil && v.Normalized() != ""
}

// Equal reports whether two values match by raw form or by normalized form.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind == b.kind && rawEqual(a, b) {
		return true
	}
	na, nb := a.Normalized(), b.Normalized()
	return na != "" && na == nb
}

func rawEqual(a, b *Value) bool {
	switch a.kind {
	case KindDateTime:
		return a.Time().Equal(b.Time())
	case KindBytes:
		ab, _ := a.raw.([]byte)
		bb, _ := b.raw.([]byte)
		return string(ab) == string(bb)
	case KindList:
		al, bl := a.List(), b.List()
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	default:
		return a.raw == b.raw
	}
}

func normalize(kind Kind, raw any) string {
	switch kind {
	case KindBool:
		if b, _ := raw.(bool); b {
			return "true"
		}
		return ""
	case KindInt:
		n, _ := raw.(int64)
		return strconv.FormatInt(n, 10)
	case KindFloat:
		f, _ := raw.(float64)
		return strconv.FormatFloat(f, 'f', -1, 64)
	case KindString:
		s, _ := raw.(string)
		return normalizeText(s)
	case KindBytes:
		b, _ := raw.([]byte)
		return normalizeText(DecodeText(b))
	case KindPath:
		s, _ := raw.(string)
		return strings.ToLower(filepath.Clean(s))
	case KindMIME:
		s, _ := raw.(string)
		return strings.ToLower(strings.TrimSpace(s))
	case KindDateTime:
		t, _ := raw.(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02T15:04:05")
	case KindList:
		items, _ := raw.([]*Value)
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if n := item.Normalized(); n != "" {
				parts = append(parts, n)
			}
		}
		sort.Strings(parts)
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func normalizeText(s string) string {
	return textutil.CollapseWhitespace(strings.ToLower(s))
}
