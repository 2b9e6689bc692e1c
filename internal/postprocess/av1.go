package postprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/payload"
	"reelforge/internal/resource"
	"reelforge/internal/services/drapto"
)

// AV1ID is the extension id of the AV1 transcoder.
const AV1ID = "av1"

// AV1 transcodes imported video payloads and adds the result as a file
// managed by its source.
type AV1 struct {
	Encoder  drapto.Encoder
	Payloads *payload.Store
	WorkDir  string
	NewID    func() string
	Now      func() time.Time
}

// ID implements Processor.
func (a *AV1) ID() string { return AV1ID }

// BeforeFileImported implements ImportHook.
func (a *AV1) BeforeFileImported(ctx context.Context, files []*resource.Item) ([]*resource.Item, error) {
	out := make([]*resource.Item, 0, len(files))
	for _, file := range files {
		out = append(out, file)
		if !a.wants(file) {
			continue
		}
		derived, err := a.transcode(ctx, file)
		if err != nil {
			return nil, err
		}
		out = append(out, derived)
	}
	return out, nil
}

func (a *AV1) wants(file *resource.Item) bool {
	if !file.IsFile() || file.Controller() != "" {
		return false
	}
	return strings.HasPrefix(file.File.MimeType, "video/")
}

func (a *AV1) transcode(ctx context.Context, source *resource.Item) (*resource.Item, error) {
	workDir := filepath.Join(a.WorkDir, "av1-"+source.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create av1 work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	encoded, err := a.Encoder.Encode(ctx, a.Payloads.Path(source.ID), workDir)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", source.ID, err)
	}
	f, err := os.Open(encoded)
	if err != nil {
		return nil, fmt.Errorf("open encoded output: %w", err)
	}
	defer f.Close()

	id := uuid.NewString()
	if a.NewID != nil {
		id = a.NewID()
	}
	hash, _, err := a.Payloads.Write(id, f)
	if err != nil {
		return nil, err
	}

	derived := resource.NewFile(id, source.Label)
	derived.ImportTime = source.ImportTime
	derived.File.ManagedBy = source.ID
	derived.File.ResourceGroupID = source.GroupID()
	derived.File.OriginalHash = hash
	resource.ApplyManagedKeys(source, derived)
	derived.RecordOperation(AV1ID, "transcode", now(a.Now))
	return derived, nil
}
