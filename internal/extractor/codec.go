package extractor

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"autoname/internal/coerce"
	"autoname/internal/metadata"
)

// wireField is the cache serialization of one typed record field. Values
// travel as their canonical Format strings and are re-coerced on load, so
// the cache never needs to understand value internals.
type wireField struct {
	Name        string
	Kind        int
	Value       string
	Items       []string
	Generic     string
	Probability float64
}

func encodeRecord(rec *metadata.Record) ([]byte, error) {
	fields := rec.Fields()
	wire := make([]wireField, 0, len(fields))
	for _, field := range fields {
		wf := wireField{
			Name:        field.Name,
			Kind:        int(field.Value.Kind()),
			Generic:     field.Value.Generic(),
			Probability: field.Probability,
		}
		if field.Value.Kind() == coerce.KindList {
			for _, item := range field.Value.List() {
				wf.Items = append(wf.Items, coerce.Format(item))
			}
		} else {
			wf.Value = coerce.Format(field.Value)
		}
		wire = append(wire, wf)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*metadata.Record, error) {
	var wire []wireField
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	rec := metadata.NewRecord()
	for _, wf := range wire {
		var value *coerce.Value
		var err error
		if coerce.Kind(wf.Kind) == coerce.KindList {
			value, err = coerce.Coerce(coerce.KindList, wf.Items)
		} else {
			value, err = coerce.Coerce(coerce.Kind(wf.Kind), wf.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("decode field %s: %w", wf.Name, err)
		}
		if wf.Generic != "" {
			value = value.WithGeneric(wf.Generic)
		}
		rec.Set(wf.Name, value, wf.Probability)
	}
	return rec, nil
}
