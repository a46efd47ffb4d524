package extractor

import (
	"log/slog"
	"time"

	"autoname/internal/coerce"
	"autoname/internal/logging"
	"autoname/internal/metadata"
)

// coerceRaw converts a probe's raw output into a typed record using its
// field specs. Fields that fail coercion are dropped with one warning per
// extractor and field; fields without a spec get a kind inferred from the
// raw value, with full weight.
func coerceRaw(logger *slog.Logger, e Extractor, raw Raw) *metadata.Record {
	specs := e.FieldSpecs()
	warned := make(map[string]struct{})
	rec := metadata.NewRecord()

	for _, field := range raw {
		spec, ok := specs[field.Name]
		if !ok {
			spec = FieldSpec{Kind: inferKind(field.Value), Probability: 1.0}
		}
		value, err := coerce.Coerce(spec.Kind, field.Value)
		if err != nil {
			if _, seen := warned[field.Name]; !seen {
				warned[field.Name] = struct{}{}
				logger.Warn("dropping uncoercible field",
					logging.String(logging.FieldExtractor, e.Name()),
					logging.String(logging.FieldField, field.Name),
					logging.Error(err))
			}
			continue
		}
		if spec.Generic != "" {
			value = value.WithGeneric(spec.Generic)
		}
		probability := spec.Probability
		if probability <= 0 {
			probability = 1.0
		}
		rec.Set(field.Name, value, probability)
	}
	return rec
}

// inferKind picks a coercion kind for fields a probe did not declare.
func inferKind(value any) coerce.Kind {
	switch value.(type) {
	case bool:
		return coerce.KindBool
	case int, int32, int64, uint32, uint64:
		return coerce.KindInt
	case float32, float64:
		return coerce.KindFloat
	case time.Time:
		return coerce.KindDateTime
	case []byte:
		return coerce.KindBytes
	default:
		return coerce.KindString
	}
}
