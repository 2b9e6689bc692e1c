package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reelforge/internal/services"
)

// Exit codes let scripts tell a bad invocation apart from a failed run.
const (
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
	exitTool     = 4
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(exitFailure)
		}
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(exitCode(err))
	}
}

// errorLine prefixes classified errors with their kind so the first word of
// the message is stable across releases.
func errorLine(err error) string {
	kind := services.Kind(err)
	if kind == "internal" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", kind, err)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidConfiguration),
		errors.Is(err, services.ErrTypeMismatch):
		return exitUsage
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrContentNotFound),
		errors.Is(err, services.ErrReleaseNotFound):
		return exitNotFound
	case errors.Is(err, services.ErrExternalTool):
		return exitTool
	default:
		return exitFailure
	}
}
