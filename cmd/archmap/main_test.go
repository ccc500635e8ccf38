package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	aerrors "github.com/matzehuels/archmap/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"cancelled", fmt.Errorf("watch: %w", context.Canceled), exitInterrupt},
		{"bad payload", aerrors.New(aerrors.ErrCodeInvalidPayload, "not an object"), exitUsage},
		{"bad layout wrapped", fmt.Errorf("map: %w", aerrors.New(aerrors.ErrCodeInvalidLayout, "unknown")), exitUsage},
		{"missing file", aerrors.New(aerrors.ErrCodeFileNotFound, "no such file"), exitNotFound},
		{"missing analysis", aerrors.New(aerrors.ErrCodeAnalysisNotFound, "gone"), exitNotFound},
		{"internal", aerrors.New(aerrors.ErrCodeInternal, "boom"), exitFailure},
		{"plain", fmt.Errorf("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, aerrors.New(aerrors.ErrCodeInvalidLayout, "unknown layout"))
	want := "Error: INVALID_LAYOUT: unknown layout\nRun 'archmap --help' for usage.\n"
	if got := buf.String(); got != want {
		t.Errorf("report = %q, want %q", got, want)
	}

	buf.Reset()
	report(&buf, fmt.Errorf("boom"))
	if got := buf.String(); got != "Error: boom\n" {
		t.Errorf("report = %q", got)
	}
}
