// Package metadata holds the typed metadata bus: Records produced by
// extractors, Candidates offered for template fields, and the Repository
// mapping (file identity, source URI) to typed values for one pipeline run.
package metadata
