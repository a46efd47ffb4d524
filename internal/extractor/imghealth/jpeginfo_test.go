package imghealth

import (
	"context"
	"errors"
	"testing"

	"autoname/internal/testsupport"
)

type fakeExitRunner struct {
	output []byte
	code   int
	err    error
}

func (r *fakeExitRunner) ExitCodeRun(_ context.Context, _ string, _ ...string) ([]byte, int, error) {
	return r.output, r.code, r.err
}

func extractHealth(t *testing.T, output string, code int) (health float64, isJPEG bool) {
	t.Helper()
	probe := NewProber(&fakeExitRunner{output: []byte(output), code: code})
	f := testsupport.JPEGFile(t, "photo.jpg")
	raw, err := probe.Extract(context.Background(), f)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, field := range raw {
		switch field.Name {
		case "health":
			health = field.Value.(float64)
		case "is-jpeg":
			isJPEG = field.Value.(bool)
		}
	}
	return health, isJPEG
}

func TestVerdictScores(t *testing.T) {
	tests := []struct {
		name   string
		output string
		code   int
		want   float64
		isJPEG bool
	}{
		{"ok", "photo.jpg 1024x768 24bit JFIF N 53177 [OK]\n", 0, healthOK, true},
		{"warning", "photo.jpg 1024x768 24bit JFIF N 53177 [WARNING] extraneous data\n", 0, healthWarning, true},
		{"error", "photo.jpg [ERROR] unexpected end of file\n", 1, healthError, true},
		{"not a jpeg", "photo.jpg [ERROR] not a jpeg file\n", 1, healthError, false},
		{"unparseable", "something odd\n", 0, healthUnknown, true},
		{"nonzero without verdict", "truncated\n", 2, healthError, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			health, isJPEG := extractHealth(t, tc.output, tc.code)
			if health != tc.want {
				t.Errorf("health = %v, want %v", health, tc.want)
			}
			if isJPEG != tc.isJPEG {
				t.Errorf("is-jpeg = %v, want %v", isJPEG, tc.isJPEG)
			}
		})
	}
}

func TestRunnerFailurePropagates(t *testing.T) {
	wantErr := errors.New("spawn failed")
	probe := NewProber(&fakeExitRunner{err: wantErr})
	f := testsupport.JPEGFile(t, "photo.jpg")

	if _, err := probe.Extract(context.Background(), f); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
