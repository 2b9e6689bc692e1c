package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/docstore"
	"reelforge/internal/fileutil"
	"reelforge/internal/graph"
	"reelforge/internal/logging"
	"reelforge/internal/payload"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Manager creates and lists releases.
type Manager struct {
	graph    *graph.Store
	payloads *payload.Store
	buildDir string
	tempDir  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager returns a Manager writing artifacts under buildDir. tempDir holds
// the transient database copy while a media release is zipped.
func NewManager(g *graph.Store, payloads *payload.Store, buildDir, tempDir string, logger *slog.Logger) *Manager {
	return &Manager{
		graph:    g,
		payloads: payloads,
		buildDir: buildDir,
		tempDir:  tempDir,
		logger:   logging.NewComponentLogger(logger, "release"),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

func (m *Manager) docs() *docstore.Store {
	return m.graph.Docs()
}

// CreateCodeRelease copies the packaged app artifact to code-<id>.zip.
func (m *Manager) CreateCodeRelease(ctx context.Context, artifactZip, notes string) (*CodeRelease, error) {
	if _, err := os.Stat(artifactZip); err != nil {
		return nil, services.Wrap(services.ErrValidation, "release", "create code release",
			fmt.Sprintf("artifact %s is not readable", artifactZip), err)
	}
	id, err := m.docs().NextID(ctx, counterCode)
	if err != nil {
		return nil, err
	}
	dest := CodeArchivePath(m.buildDir, id)
	if err := fileutil.CopyFileVerified(artifactZip, dest); err != nil {
		return nil, services.Wrap(services.ErrTransient, "release", "create code release", "copy artifact", err)
	}
	rec := &CodeRelease{ID: id, Notes: notes, Source: artifactZip, CreateTime: m.now().UTC()}
	if err := m.docs().Insert(ctx, docstore.CodeReleases, docID(id), rec); err != nil {
		_ = os.Remove(dest)
		return nil, err
	}
	logging.WithContext(ctx, m.logger).Info("code release created",
		logging.Release("code", id),
		logging.String("archive", dest),
	)
	return rec, nil
}

// CreateMediaRelease snapshots the payload of every live file into
// resource-<id>/binary, stamps the release id into each post-processed
// file's record and writes the database snapshot to db-<id>.zip.
func (m *Manager) CreateMediaRelease(ctx context.Context, notes string) (*MediaRelease, error) {
	id, err := m.docs().NextID(ctx, counterMedia)
	if err != nil {
		return nil, err
	}
	ctx = services.WithRelease(ctx, fmt.Sprintf("media-%d", id))
	logger := logging.WithContext(ctx, m.logger)

	files, err := m.graph.List(ctx, graph.Filter{Type: resource.KindFile})
	if err != nil {
		return nil, err
	}

	binDir := MediaBinaryDir(m.buildDir, id)
	if err := fileutil.ResetDir(binDir); err != nil {
		return nil, err
	}
	var (
		copied  []string
		stamped []*resource.Item
	)
	for _, file := range files {
		if !m.payloads.Exists(file.ID) {
			if file.Redirected() {
				continue
			}
			logging.WarnWithContext(logger, "payload missing from media snapshot", "media_payload_missing",
				logging.String(logging.FieldResourceID, file.ID),
				logging.String(logging.FieldErrorHint, "re-import the resource or remove it"),
				logging.String(logging.FieldImpact, "resource is absent from the bundle"),
			)
			continue
		}
		if _, err := m.payloads.CopyTo(file.ID, binDir); err != nil {
			return nil, services.Wrap(services.ErrTransient, "release", "create media release", "snapshot payload", err)
		}
		copied = append(copied, file.ID)
		if file.PostProcessed() && !file.File.PostProcessRecord.ContainsMediaRelease(id) {
			file.File.PostProcessRecord.MediaBundleID = append(file.File.PostProcessRecord.MediaBundleID, id)
			stamped = append(stamped, file)
		}
	}
	if len(stamped) > 0 {
		if _, err := m.graph.UpdateOrInsert(ctx, stamped); err != nil {
			return nil, err
		}
	}

	rec := &MediaRelease{ID: id, Notes: notes, Resources: copied, CreateTime: m.now().UTC()}
	if err := m.docs().Insert(ctx, docstore.MediaReleases, docID(id), rec); err != nil {
		return nil, err
	}
	if err := m.writeDatabaseArchive(ctx, id); err != nil {
		return nil, err
	}
	logger.Info("media release created",
		logging.IDs("payloads", copied),
		logging.Int("stamped", len(stamped)),
	)
	return rec, nil
}

func (m *Manager) writeDatabaseArchive(ctx context.Context, id int64) error {
	if err := os.MkdirAll(m.tempDir, 0o755); err != nil {
		return fmt.Errorf("ensure temp dir: %w", err)
	}
	work, err := os.MkdirTemp(m.tempDir, "db-backup-")
	if err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	defer os.RemoveAll(work)

	snapshot := filepath.Join(work, SnapshotDBName)
	if err := m.docs().Backup(ctx, snapshot); err != nil {
		return services.Wrap(services.ErrTransient, "release", "create media release", "back up database", err)
	}
	if err := fileutil.ZipFile(snapshot, SnapshotDBName, DatabaseArchivePath(m.buildDir, id)); err != nil {
		return services.Wrap(services.ErrTransient, "release", "create media release", "zip database", err)
	}
	return nil
}

// CreateBundleRelease binds an existing code release and media release.
func (m *Manager) CreateBundleRelease(ctx context.Context, codeID, mediaID int64, notes string) (*BundleRelease, error) {
	code, err := m.CodeRelease(ctx, codeID)
	if err != nil {
		return nil, err
	}
	media, err := m.MediaRelease(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	id, err := m.docs().NextID(ctx, counterBundle)
	if err != nil {
		return nil, err
	}
	rec := &BundleRelease{
		ID:             id,
		CodeReleaseID:  code.ID,
		MediaReleaseID: media.ID,
		Notes:          notes,
		CreateTime:     m.now().UTC(),
	}
	if err := m.docs().Insert(ctx, docstore.BundleReleases, docID(id), rec); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, m.logger).Info("bundle release created",
		logging.Release("bundle", id),
		logging.Int64("code_release_id", code.ID),
		logging.Int64("media_release_id", media.ID),
	)
	return rec, nil
}

// CodeRelease loads one code release.
func (m *Manager) CodeRelease(ctx context.Context, id int64) (*CodeRelease, error) {
	return load[CodeRelease](ctx, m.docs(), docstore.CodeReleases, "code", id)
}

// MediaRelease loads one media release.
func (m *Manager) MediaRelease(ctx context.Context, id int64) (*MediaRelease, error) {
	return load[MediaRelease](ctx, m.docs(), docstore.MediaReleases, "media", id)
}

// BundleRelease loads one bundle release.
func (m *Manager) BundleRelease(ctx context.Context, id int64) (*BundleRelease, error) {
	return LoadBundle(ctx, m.docs(), id)
}

// ListCodeReleases returns every code release in creation order.
func (m *Manager) ListCodeReleases(ctx context.Context) ([]*CodeRelease, error) {
	return docstore.FindAll[CodeRelease](ctx, m.docs(), docstore.CodeReleases)
}

// ListMediaReleases returns every media release in creation order.
func (m *Manager) ListMediaReleases(ctx context.Context) ([]*MediaRelease, error) {
	return docstore.FindAll[MediaRelease](ctx, m.docs(), docstore.MediaReleases)
}

// ListBundleReleases returns every bundle release in creation order.
func (m *Manager) ListBundleReleases(ctx context.Context) ([]*BundleRelease, error) {
	return docstore.FindAll[BundleRelease](ctx, m.docs(), docstore.BundleReleases)
}

// LoadBundle reads a bundle release from docs.
func LoadBundle(ctx context.Context, docs *docstore.Store, id int64) (*BundleRelease, error) {
	return load[BundleRelease](ctx, docs, docstore.BundleReleases, "bundle", id)
}

func load[T any](ctx context.Context, docs *docstore.Store, collection, axis string, id int64) (*T, error) {
	rec, err := docstore.GetOne[T](ctx, docs, collection, docID(id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrReleaseNotFound, "release", "load "+axis+" release",
			fmt.Sprintf("%s release %d not found", axis, id), nil)
	}
	return rec, nil
}
