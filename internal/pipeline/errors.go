package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for failure classification. Per-file failures carry one
// of these; only ErrConfig and ErrAssertion abort a run.
var (
	ErrDependencyMissing = errors.New("dependency missing")
	ErrInvalidFile       = errors.New("invalid file argument")
	ErrFilesystem        = errors.New("filesystem error")
	ErrExternalTool      = errors.New("external tool error")
	ErrDecoding          = errors.New("decoding error")
	ErrParsing           = errors.New("parsing error")
	ErrTimeout           = errors.New("timeout")
	ErrConfig            = errors.New("configuration error")
	ErrTemplate          = errors.New("name template error")
	ErrNameBuilder       = errors.New("name builder error")
	ErrCache             = errors.New("cache error")
	ErrAssertion         = errors.New("internal invariant broken")
)

// Wrap builds an error message carrying pipeline context while tagging it
// with the marker for later classification. The marker should be one of the
// exported sentinels above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrAssertion
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error must abort the whole run.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfig) || errors.Is(err, ErrAssertion)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
