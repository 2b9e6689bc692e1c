package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/docstore"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Handle is a database opened for one resolution. Callers must Close it.
type Handle struct {
	Docs *docstore.Store
	// Bundle is nil for the live database.
	Bundle *BundleRelease
	// MediaBundleID is the media release the snapshot came from, 0 when live.
	MediaBundleID int64

	cleanup func() error
}

// Live reports whether the handle wraps the live project database.
func (h *Handle) Live() bool {
	return h.Bundle == nil
}

// Close releases the snapshot. Closing a live handle is a no-op.
func (h *Handle) Close() error {
	if h == nil || h.cleanup == nil {
		return nil
	}
	cleanup := h.cleanup
	h.cleanup = nil
	return cleanup()
}

// Resolver maps a bundle release id to the database the caller should read.
type Resolver struct {
	live     *docstore.Store
	buildDir string
	tempDir  string
	logger   *slog.Logger
}

// NewResolver returns a Resolver over the live store.
func NewResolver(live *docstore.Store, buildDir, tempDir string, logger *slog.Logger) *Resolver {
	return &Resolver{
		live:     live,
		buildDir: buildDir,
		tempDir:  tempDir,
		logger:   logging.NewComponentLogger(logger, "release"),
	}
}

// Resolve returns the live database when bundleReleaseID is nil. Otherwise it
// extracts db-<mediaId>.zip of the bundle's media release into a temp
// directory and opens it read-only.
func (r *Resolver) Resolve(ctx context.Context, bundleReleaseID *int64) (*Handle, error) {
	if bundleReleaseID == nil {
		return &Handle{Docs: r.live}, nil
	}
	bundle, err := LoadBundle(ctx, r.live, *bundleReleaseID)
	if err != nil {
		return nil, err
	}
	archive := DatabaseArchivePath(r.buildDir, bundle.MediaReleaseID)
	if _, err := os.Stat(archive); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrReleaseNotFound, "release", "resolve snapshot",
				fmt.Sprintf("database archive for media release %d is missing", bundle.MediaReleaseID), err)
		}
		return nil, fmt.Errorf("stat %s: %w", archive, err)
	}

	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure temp dir: %w", err)
	}
	dir, err := os.MkdirTemp(r.tempDir, fmt.Sprintf("snapshot-%d-", bundle.ID))
	if err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := fileutil.Unzip(archive, dir, nil); err != nil {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrReleaseNotFound, "release", "resolve snapshot", "extract database archive", err)
	}
	docs, err := docstore.OpenReadOnly(filepath.Join(dir, SnapshotDBName))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrReleaseNotFound, "release", "resolve snapshot", "open database snapshot", err)
	}
	if err := checkSnapshotSchema(ctx, docs); err != nil {
		_ = docs.Close()
		_ = os.RemoveAll(dir)
		return nil, err
	}
	r.logger.Debug("snapshot resolved",
		logging.Release("bundle", bundle.ID),
		logging.Int64("media_release_id", bundle.MediaReleaseID),
		logging.String("path", dir),
	)
	return &Handle{
		Docs:          docs,
		Bundle:        bundle,
		MediaBundleID: bundle.MediaReleaseID,
		cleanup: func() error {
			return errors.Join(docs.Close(), os.RemoveAll(dir))
		},
	}, nil
}

// checkSnapshotSchema rejects snapshots written by a newer schema than this
// build can read.
func checkSnapshotSchema(ctx context.Context, docs *docstore.Store) error {
	version, err := docs.SchemaVersion(ctx)
	if err != nil {
		return services.Wrap(services.ErrReleaseNotFound, "release", "resolve snapshot", "read snapshot schema", err)
	}
	if latest := docstore.LatestSchemaVersion(); version > latest {
		return services.Wrap(services.ErrValidation, "release", "resolve snapshot",
			fmt.Sprintf("snapshot schema %d is newer than supported schema %d", version, latest), nil)
	}
	return nil
}
