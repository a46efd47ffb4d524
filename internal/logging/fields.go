package logging

// Standardized attribute keys. Handlers give these fixed positions so log
// lines stay scannable.
const (
	FieldComponent = "component"
	FieldFile      = "file"
	FieldExtractor = "extractor"
	FieldRule      = "rule"
	FieldField     = "field"
	FieldURI       = "uri"
	FieldState     = "state"
	FieldReason    = "reason"
	FieldProposed  = "proposed"
	FieldRunID     = "run_id"
)
