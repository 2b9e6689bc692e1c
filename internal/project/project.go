// Package project opens a reelforge project directory and wires every
// service over it. Only one process may hold a project open at a time.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/docstore"
	"reelforge/internal/graph"
	"reelforge/internal/ingest"
	"reelforge/internal/logging"
	"reelforge/internal/manifest"
	"reelforge/internal/payload"
	"reelforge/internal/postprocess"
	"reelforge/internal/publish"
	"reelforge/internal/release"
	"reelforge/internal/remotestorage"
	"reelforge/internal/series"
	"reelforge/internal/services"
	"reelforge/internal/services/drapto"
)

// Project holds the services of one open project.
type Project struct {
	Config    *config.Config
	Docs      *docstore.Store
	Payloads  *payload.Store
	Pipeline  *postprocess.Pipeline
	Graph     *graph.Store
	Series    *series.Store
	Releases  *release.Manager
	Resolver  *release.Resolver
	Assembler *manifest.Assembler
	Publisher *publish.Publisher
	Importer  *ingest.Importer

	storage remotestorage.Storage
	lock    *flock.Flock
	logger  *slog.Logger
}

// Options customizes Open.
type Options struct {
	// Encoder overrides the AV1 encoder; nil uses the Drapto library.
	Encoder drapto.Encoder
	// Processors replaces the built-in post-processors when non-nil.
	Processors []postprocess.Processor
}

// Open locks the project directory, opens the database and builds the
// services.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Project, error) {
	if cfg == nil {
		return nil, errors.New("project requires a config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "project")

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "project", "open",
			fmt.Sprintf("another reelforge process has %s open", cfg.Paths.ProjectDir), nil)
	}

	docs, err := docstore.Open(cfg.Paths.DatabasePath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open database: %w", err)
	}
	storage, err := remotestorage.New(cfg.RemoteStorage)
	if err != nil {
		_ = docs.Close()
		_ = lock.Unlock()
		return nil, err
	}

	p := &Project{
		Config:   cfg,
		Docs:     docs,
		Payloads: payload.NewOS(cfg.Paths.MediaDir),
		storage:  storage,
		lock:     lock,
		logger:   logger,
	}
	processors := opts.Processors
	if processors == nil {
		processors = postprocess.Builtins(cfg, docs, p.Payloads, opts.Encoder)
	}
	p.Pipeline = postprocess.NewPipeline(docs, logger, processors...)
	p.Graph = graph.New(docs, p.Payloads, p.Pipeline, logger)
	p.Series = series.NewStore(docs)
	p.Releases = release.NewManager(p.Graph, p.Payloads, cfg.Paths.BuildDir, cfg.Paths.TempDir, logger)
	p.Resolver = release.NewResolver(docs, cfg.Paths.BuildDir, cfg.Paths.TempDir, logger)
	p.Assembler = manifest.NewAssembler(p.Pipeline, logger)
	p.Publisher = publish.New(cfg, p.Releases, p.Resolver, p.Assembler, storage, logger)
	p.Importer = ingest.NewImporter(p.Graph, p.Payloads, cfg.Workers.Import, logger)

	logging.WithContext(ctx, logger).Debug("project opened",
		logging.String("project_dir", cfg.Paths.ProjectDir),
		logging.String("lock", cfg.LockPath()),
		logging.Int("processors", len(processors)),
	)
	return p, nil
}

// Close releases the database, the storage client and the project lock.
func (p *Project) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.storage != nil {
		errs = append(errs, p.storage.Close())
	}
	if p.Docs != nil {
		errs = append(errs, p.Docs.Close())
	}
	if p.lock != nil {
		if err := p.lock.Unlock(); err != nil {
			logging.WarnWithContext(p.logger, "failed to release project lock", "project_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no reelforge process is running"),
			)
		}
	}
	return errors.Join(errs...)
}
