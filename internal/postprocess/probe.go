package postprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelforge/internal/media/ffprobe"
	"reelforge/internal/payload"
	"reelforge/internal/resource"
)

// ProbeID is the extension id of the duration probe.
const ProbeID = "probe"

// Probe sets the duration of audio and video files from their payload.
type Probe struct {
	Inspector ffprobe.Inspector
	Payloads  *payload.Store
	Now       func() time.Time
}

// ID implements Processor.
func (p *Probe) ID() string { return ProbeID }

// BeforeFileImported implements ImportHook.
func (p *Probe) BeforeFileImported(ctx context.Context, files []*resource.Item) ([]*resource.Item, error) {
	for _, file := range files {
		if !file.IsFile() || !isTimedMedia(file.File.MimeType) {
			continue
		}
		result, err := p.Inspector.Inspect(ctx, p.Payloads.Path(file.ID))
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", file.ID, err)
		}
		if seconds, ok := result.Duration(); ok {
			file.File.Duration = &seconds
		} else {
			file.File.Duration = nil
		}
		file.RecordOperation(ProbeID, "probe", now(p.Now))
	}
	return files, nil
}

func isTimedMedia(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/")
}

func now(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
