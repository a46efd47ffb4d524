// Package imghealth checks JPEG integrity with jpeginfo. The probe turns
// the tool's verdict into a health score so rules can select against
// corrupt images.
package imghealth

import (
	"context"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/shellout"
	"autoname/internal/uri"
)

// ExitCodeRunner is the subset of shellout needed here; jpeginfo encodes
// part of its verdict in the exit status.
type ExitCodeRunner interface {
	ExitCodeRun(ctx context.Context, binary string, args ...string) ([]byte, int, error)
}

type Prober struct {
	runner ExitCodeRunner
}

func NewProber(runner ExitCodeRunner) *Prober {
	if runner == nil {
		runner = shellout.New(0)
	}
	return &Prober{runner: runner}
}

func (*Prober) Name() string               { return "jpeg-health" }
func (*Prober) Version() string            { return "1.0" }
func (*Prober) Domain() string             { return uri.DomainExtractor }
func (*Prober) HandledMIMETypes() []string { return []string{"image/jpeg"} }
func (*Prober) Slow() bool                 { return true }

func (*Prober) DependenciesSatisfied() error {
	_, err := shellout.Lookup("jpeginfo")
	return err
}

func (*Prober) CanHandle(*fileobject.File) bool { return true }

func (*Prober) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"health":  {Kind: coerce.KindFloat, Probability: 1.0},
		"is-jpeg": {Kind: coerce.KindBool, Probability: 1.0},
	}
}

// Health scores per verdict. UNKNOWN sits between OK and WARNING: the tool
// could not complete the check, which is weaker evidence than a confirmed
// warning.
const (
	healthOK      = 1.0
	healthUnknown = 0.66
	healthWarning = 0.33
	healthError   = 0.0
)

func (p *Prober) Extract(ctx context.Context, f *fileobject.File) (extractor.Raw, error) {
	out, code, err := p.runner.ExitCodeRun(ctx, "jpeginfo", "-c", f.Path())
	if err != nil {
		return nil, err
	}

	verdict := string(out)
	health := healthUnknown
	isJPEG := true
	switch {
	case strings.Contains(verdict, "[ERROR]"):
		health = healthError
		isJPEG = !strings.Contains(verdict, "not a jpeg")
	case strings.Contains(verdict, "[WARNING]"):
		health = healthWarning
	case code == 0 && strings.Contains(verdict, "[OK]"):
		health = healthOK
	case code != 0:
		health = healthError
	}

	var raw extractor.Raw
	raw.Add("health", health)
	raw.Add("is-jpeg", isJPEG)
	return raw, nil
}
