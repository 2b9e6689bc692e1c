package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/docstore"
	"reelforge/internal/logging"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Processor is an extension identified by its id.
type Processor interface {
	ID() string
}

// ImportHook rewrites files before they are first persisted.
type ImportHook interface {
	BeforeFileImported(ctx context.Context, files []*resource.Item) ([]*resource.Item, error)
}

// GroupResult is what a GroupHook hands to the next processor.
type GroupResult struct {
	Files []*resource.Item
	Group *resource.Item
}

// GroupHook rewrites a newly created group and its members.
type GroupHook interface {
	AfterGroupCreated(ctx context.Context, files []*resource.Item, group *resource.Item) (*GroupResult, error)
}

// PreviewHook rewrites resources before they are delivered to a preview.
type PreviewHook interface {
	BeforePreviewResourceMetadataDelivered(ctx context.Context, resources []*resource.Item) ([]*resource.Item, error)
}

// Entry is one record of the postProcessed journal.
type Entry struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resourceId"`
	ExtensionID string    `json:"extensionId"`
	Operation   string    `json:"operation"`
	Time        time.Time `json:"time"`
}

// Outcome is the accumulated result of a hook chain.
type Outcome struct {
	Files   []*resource.Item
	Group   *resource.Item
	Journal []Entry
}

// Pipeline runs registered processors in order.
type Pipeline struct {
	processors []Processor
	docs       *docstore.Store
	logger     *slog.Logger
}

// NewPipeline registers processors in the given order. docs receives journal
// entries; it may be nil when journaling is not wanted.
func NewPipeline(docs *docstore.Store, logger *slog.Logger, processors ...Processor) *Pipeline {
	return &Pipeline{
		processors: processors,
		docs:       docs,
		logger:     logging.NewComponentLogger(logger, "postprocess"),
	}
}

// Processors returns the registered processors in order.
func (p *Pipeline) Processors() []Processor {
	if p == nil {
		return nil
	}
	return append([]Processor(nil), p.processors...)
}

// BeforeFileImported runs every ImportHook over files.
func (p *Pipeline) BeforeFileImported(ctx context.Context, files []*resource.Item) (*Outcome, error) {
	current := cloneAll(files)
	if p == nil {
		return &Outcome{Files: current}, nil
	}
	for _, proc := range p.processors {
		hook, ok := proc.(ImportHook)
		if !ok {
			continue
		}
		out, err := hook.BeforeFileImported(ctx, current)
		if err != nil {
			return nil, p.fail(ctx, proc, "before file imported", err)
		}
		if out != nil {
			current = out
		}
		p.logger.Debug("import hook applied", logging.String("extension", proc.ID()), logging.Int("files", len(current)))
	}
	return &Outcome{Files: current, Journal: journalEntries(files, current)}, nil
}

// AfterGroupCreated runs every GroupHook over a new group and its members.
func (p *Pipeline) AfterGroupCreated(ctx context.Context, files []*resource.Item, group *resource.Item) (*Outcome, error) {
	currentFiles := cloneAll(files)
	currentGroup := group.Clone()
	if p == nil {
		return &Outcome{Files: currentFiles, Group: currentGroup}, nil
	}
	for _, proc := range p.processors {
		hook, ok := proc.(GroupHook)
		if !ok {
			continue
		}
		out, err := hook.AfterGroupCreated(ctx, currentFiles, currentGroup)
		if err != nil {
			return nil, p.fail(ctx, proc, "after group created", err)
		}
		if out == nil {
			continue
		}
		if out.Files != nil {
			currentFiles = out.Files
		}
		if out.Group != nil {
			currentGroup = out.Group
		}
	}
	return &Outcome{Files: currentFiles, Group: currentGroup, Journal: journalEntries(files, currentFiles)}, nil
}

// BeforePreviewResourceMetadataDelivered runs every PreviewHook over resources.
// Preview output is never persisted, so no journal is produced.
func (p *Pipeline) BeforePreviewResourceMetadataDelivered(ctx context.Context, resources []*resource.Item) ([]*resource.Item, error) {
	current := cloneAll(resources)
	if p == nil {
		return current, nil
	}
	for _, proc := range p.processors {
		hook, ok := proc.(PreviewHook)
		if !ok {
			continue
		}
		out, err := hook.BeforePreviewResourceMetadataDelivered(ctx, current)
		if err != nil {
			return nil, p.fail(ctx, proc, "before preview delivered", err)
		}
		if out != nil {
			current = out
		}
	}
	return current, nil
}

// Record appends entries to the postProcessed journal.
func (p *Pipeline) Record(ctx context.Context, entries []Entry) error {
	if p == nil || p.docs == nil {
		return nil
	}
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if err := p.docs.Insert(ctx, docstore.PostProcessed, entry.ID, entry); err != nil {
			return fmt.Errorf("journal %s/%s: %w", entry.ResourceID, entry.Operation, err)
		}
	}
	return nil
}

// Journal returns every journal entry for resourceID in insertion order.
func Journal(ctx context.Context, docs *docstore.Store, resourceID string) ([]*Entry, error) {
	return docstore.FindAll[Entry](ctx, docs, docstore.PostProcessed, docstore.Eq("resourceId", resourceID))
}

func (p *Pipeline) fail(ctx context.Context, proc Processor, hook string, err error) error {
	logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "post-processor failed", "postprocess_failed",
		logging.String("extension", proc.ID()),
		logging.String("hook", hook),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "fix or disable the extension and retry"),
	)
	return services.Wrap(services.ErrExternalTool, "postprocess", hook, fmt.Sprintf("extension %s failed", proc.ID()), err)
}

func cloneAll(items []*resource.Item) []*resource.Item {
	out := make([]*resource.Item, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

// journalEntries lists the operations present on after but not on the
// matching before item.
func journalEntries(before, after []*resource.Item) []Entry {
	prior := make(map[string]int, len(before))
	for _, item := range before {
		if item.IsFile() && item.File.PostProcessRecord != nil {
			prior[item.ID] = len(item.File.PostProcessRecord.Operations)
		}
	}
	var entries []Entry
	for _, item := range after {
		if !item.IsFile() || item.File.PostProcessRecord == nil {
			continue
		}
		ops := item.File.PostProcessRecord.Operations
		start := prior[item.ID]
		if start > len(ops) {
			start = len(ops)
		}
		for _, op := range ops[start:] {
			entries = append(entries, Entry{
				ResourceID:  item.ID,
				ExtensionID: op.ExtensionID,
				Operation:   op.Operation,
				Time:        op.Time,
			})
		}
	}
	return entries
}
