package preflight

import (
	"context"

	"reelforge/internal/config"
	"reelforge/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which the build directory check fails.
const minFreeBytes = 1 << 30

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Project directory", cfg.Paths.ProjectDir),
		CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir),
		CheckFreeSpace("Build directory", cfg.Paths.BuildDir, minFreeBytes),
	}

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	if cfg.RemoteStorage.Backend != "" {
		results = append(results, CheckRemoteStorage(ctx, cfg.RemoteStorage))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
