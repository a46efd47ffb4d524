package metadata

import (
	"autoname/internal/coerce"
)

// Field is one named, typed entry in a Record.
type Field struct {
	Name        string
	Value       *coerce.Value
	Probability float64
}

// Record is the ordered bundle of typed fields one extractor produced for
// one file. Insertion order is preserved; a field name never carries two
// values with identical normalized forms.
type Record struct {
	fields []Field
}

// NewRecord returns an empty record.
func NewRecord() *Record { return &Record{} }

// Set appends a field. A duplicate (name, normalized form) pair keeps the
// entry with the higher probability; ties keep the first seen.
func (r *Record) Set(name string, value *coerce.Value, probability float64) {
	if value == nil {
		return
	}
	for i, existing := range r.fields {
		if existing.Name != name {
			continue
		}
		if existing.Value.Normalized() == value.Normalized() {
			if probability > existing.Probability {
				r.fields[i].Value = value
				r.fields[i].Probability = probability
			}
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value, Probability: probability})
}

// Get returns the first value recorded under name.
func (r *Record) Get(name string) (*coerce.Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns the entries in insertion order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len counts fields whose values are truthy.
func (r *Record) Len() int {
	n := 0
	for _, f := range r.fields {
		if f.Value.Truthy() {
			n++
		}
	}
	return n
}

// Empty reports whether the record holds no usable fields.
func (r *Record) Empty() bool { return r == nil || r.Len() == 0 }

// Compare orders records by (count of non-empty fields, total length of
// normalized values). It returns -1, 0, or 1.
func Compare(a, b *Record) int {
	al, bl := a.Len(), b.Len()
	if al != bl {
		return sign(al - bl)
	}
	return sign(a.totalNormalizedLen() - b.totalNormalizedLen())
}

func (r *Record) totalNormalizedLen() int {
	total := 0
	for _, f := range r.fields {
		total += len(f.Value.Normalized())
	}
	return total
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
