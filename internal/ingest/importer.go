package ingest

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelforge/internal/graph"
	"reelforge/internal/logging"
	"reelforge/internal/payload"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Request describes one file to import.
type Request struct {
	Path            string
	Label           string
	Tags            []string
	EpisodeIDs      []string
	CacheToHardDisk bool
	// GroupID attaches the imported file to an existing group.
	GroupID string
}

// Outcome reports the result of one Request. Exactly one of Item and Err is
// set.
type Outcome struct {
	Path string
	Item *resource.Item
	Err  error
}

// Importer copies payloads and records the imported files.
type Importer struct {
	graph    *graph.Store
	payloads *payload.Store
	workers  int
	logger   *slog.Logger
	newID    func() string
}

// NewImporter returns an Importer running up to workers payload copies at
// once.
func NewImporter(g *graph.Store, payloads *payload.Store, workers int, logger *slog.Logger) *Importer {
	if workers < 1 {
		workers = 1
	}
	return &Importer{
		graph:    g,
		payloads: payloads,
		workers:  workers,
		logger:   logging.NewComponentLogger(logger, "ingest"),
		newID:    uuid.NewString,
	}
}

type staged struct {
	item *resource.Item
	req  Request
}

// Import imports every request and returns one Outcome per request, in
// request order.
func (im *Importer) Import(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	prepared := make([]*staged, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, req := range reqs {
		outcomes[i].Path = req.Path
		g.Go(func() error {
			item, err := im.stage(gctx, req)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			prepared[i] = &staged{item: item, req: req}
			return nil
		})
	}
	_ = g.Wait()

	started := time.Now()
	imported := 0
	for i, st := range prepared {
		if st == nil {
			im.logFailure(ctx, reqs[i].Path, outcomes[i].Err)
			continue
		}
		item, err := im.commit(ctx, st)
		if err != nil {
			if rmErr := im.payloads.Remove(st.item.ID); rmErr != nil {
				logging.WarnWithContext(im.logger, "payload cleanup failed", "ingest_cleanup_failed",
					logging.String(logging.FieldResourceID, st.item.ID),
					logging.Error(rmErr),
					logging.String(logging.FieldErrorHint, "delete the orphaned payload manually"),
					logging.String(logging.FieldImpact, "orphaned payload left in media dir"),
				)
			}
			outcomes[i].Err = err
			im.logFailure(ctx, reqs[i].Path, err)
			continue
		}
		outcomes[i].Item = item
		imported++
	}
	logging.WithContext(ctx, im.logger).Info("import finished",
		logging.Int("requested", len(reqs)),
		logging.Int("imported", imported),
		logging.Duration("duration", time.Since(started)),
	)
	return outcomes
}

// stage sniffs the file type and copies the payload.
func (im *Importer) stage(ctx context.Context, req Request) (*resource.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "stat source", req.Path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "ingest", "stat source", req.Path+" is a directory", nil)
	}
	mtype, err := mimetype.DetectFile(req.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "detect type", req.Path, err)
	}

	id := im.newID()
	src, err := os.Open(req.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "open source", req.Path, err)
	}
	defer src.Close()
	hash, _, err := im.payloads.Write(id, src)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "copy payload", req.Path, err)
	}

	label := NormalizeLabel(req.Label)
	if label == "" {
		label = DeriveLabel(req.Path)
	}
	item := resource.NewFile(id, label)
	item.File.MimeType = baseMIME(mtype.String())
	item.File.OriginalHash = hash
	item.File.CacheToHardDisk = req.CacheToHardDisk
	item.File.ResourceGroupID = req.GroupID
	item.Tags = append([]string(nil), req.Tags...)
	item.EpisodeIDs = append([]string(nil), req.EpisodeIDs...)
	return item, nil
}

// commit records the staged file. The group link travels with the upsert,
// so an unknown group fails the import as a whole.
func (im *Importer) commit(ctx context.Context, st *staged) (*resource.Item, error) {
	ctx = services.WithResourceID(ctx, st.item.ID)
	if _, err := im.graph.Import(ctx, []*resource.Item{st.item}); err != nil {
		return nil, err
	}
	return im.graph.Get(ctx, st.item.ID)
}

func (im *Importer) logFailure(ctx context.Context, path string, err error) {
	logging.ErrorWithContext(logging.WithContext(ctx, im.logger), "import failed", "ingest_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String("error_kind", services.Kind(err)),
		logging.String(logging.FieldErrorHint, "check the source file and retry"),
	)
}

// baseMIME drops parameters such as "; charset=utf-8".
func baseMIME(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}
