// Package deps reports whether the external binaries the post-processors
// shell out to are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"reelforge/internal/config"
)

// Requirement defines an external binary a post-processor relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the enabled post-processors need.
func Requirements(cfg *config.Config) []Requirement {
	var reqs []Requirement
	if cfg.PostProcess.Probe {
		reqs = append(reqs, Requirement{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required to read media durations",
		})
	}
	if cfg.PostProcess.AV1 {
		reqs = append(reqs, Requirement{
			Name:        "FFmpeg",
			Command:     ResolveFFmpeg(),
			Description: "Used by Drapto for AV1 transcoding",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
