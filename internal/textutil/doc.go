// Package textutil provides the string normalizers shared across the
// pipeline: title and human-name normalization, unicode simplification,
// extracted-text cleanup, and filesystem-safe sanitization.
//
// Every exported function is pure, deterministic, and idempotent: applying a
// normalizer to its own output returns the output unchanged. Value equality
// and resolver deduplication depend on this.
package textutil
