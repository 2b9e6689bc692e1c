package main

import (
	"errors"
	"strings"
	"testing"

	"reelforge/internal/services"
)

func TestExitCodeFollowsErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrValidation, "ingest", "stat source", "clip.mp4", nil), exitUsage},
		{services.Wrap(services.ErrInvalidConfiguration, "inclusion", "filter", "bogus", nil), exitUsage},
		{services.Wrap(services.ErrReleaseNotFound, "release", "resolve", "media-9", nil), exitNotFound},
		{services.Wrap(services.ErrNotFound, "graph", "get", "f1", nil), exitNotFound},
		{services.Wrap(services.ErrExternalTool, "av1", "encode", "", errors.New("exit 1")), exitTool},
		{errors.New("disk full"), exitFailure},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestErrorLinePrefixesKind(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "graph", "get", "f1", nil)
	if line := errorLine(err); !strings.HasPrefix(line, "not_found: ") {
		t.Fatalf("expected kind prefix, got %q", line)
	}
	if line := errorLine(errors.New("disk full")); line != "disk full" {
		t.Fatalf("unexpected unclassified line %q", line)
	}
}
