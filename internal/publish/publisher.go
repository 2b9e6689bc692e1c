package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/docstore"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/manifest"
	"reelforge/internal/payload"
	"reelforge/internal/profile"
	"reelforge/internal/release"
	"reelforge/internal/remotestorage"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Archive layout inside the player bundle.
const (
	AppDir      = "ap"
	DataDir     = "data"
	ResourceDir = "resource"
	AbstractID  = "episodes"
)

// Publisher builds player bundles and uploads manifests.
type Publisher struct {
	cfg       *config.Config
	releases  *release.Manager
	resolver  *release.Resolver
	assembler *manifest.Assembler
	storage   remotestorage.Storage
	logger    *slog.Logger
}

// New returns a Publisher. storage may be nil when uploads are not used.
func New(cfg *config.Config, releases *release.Manager, resolver *release.Resolver, assembler *manifest.Assembler, storage remotestorage.Storage, logger *slog.Logger) *Publisher {
	return &Publisher{
		cfg:       cfg,
		releases:  releases,
		resolver:  resolver,
		assembler: assembler,
		storage:   storage,
		logger:    logging.NewComponentLogger(logger, "publish"),
	}
}

// Result describes a published bundle.
type Result struct {
	BundleReleaseID int64  `json:"bundleReleaseId"`
	WorkDir         string `json:"workDir"`
	Archive         string `json:"archive"`
	Episodes        int    `json:"episodes"`
	Payloads        int    `json:"payloads"`
}

// PublishPlayerBundle builds <build_dir>/player-<bundleID>.zip from the code
// and media releases bound by bundleID.
func (p *Publisher) PublishPlayerBundle(ctx context.Context, codeID, mediaID, bundleID int64) (*Result, error) {
	ctx = services.WithRelease(ctx, fmt.Sprintf("bundle-%d", bundleID))
	logger := logging.WithContext(ctx, p.logger)

	bundle, err := p.releases.BundleRelease(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	if bundle.CodeReleaseID != codeID || bundle.MediaReleaseID != mediaID {
		return nil, services.Wrap(services.ErrValidation, "publish", "publish player bundle",
			fmt.Sprintf("bundle %d binds code %d and media %d, not code %d and media %d",
				bundleID, bundle.CodeReleaseID, bundle.MediaReleaseID, codeID, mediaID), nil)
	}
	buildDir := p.cfg.Paths.BuildDir

	workDir := release.PlayerDir(buildDir, bundleID)
	if err := fileutil.ResetDir(workDir); err != nil {
		return nil, err
	}

	if err := p.extractCode(codeID, workDir); err != nil {
		return nil, err
	}

	included, episodes, err := p.DumpPlayerConfigs(ctx, bundleID, workDir)
	if err != nil {
		return nil, err
	}

	copied, err := p.copyPayloads(ctx, mediaID, included, workDir)
	if err != nil {
		return nil, err
	}

	archive := release.PlayerArchivePath(buildDir, bundleID)
	if err := fileutil.ZipDir(workDir, archive); err != nil {
		return nil, services.Wrap(services.ErrTransient, "publish", "publish player bundle", "zip bundle", err)
	}
	logger.Info("player bundle published",
		logging.Int64("bundle_release_id", bundleID),
		logging.String("archive", archive),
		logging.Int("episodes", episodes),
		logging.Int("payloads", copied),
	)
	return &Result{
		BundleReleaseID: bundleID,
		WorkDir:         workDir,
		Archive:         archive,
		Episodes:        episodes,
		Payloads:        copied,
	}, nil
}

// extractCode unpacks code-<id>.zip into workDir, moving the configured
// output folder to ap/.
func (p *Publisher) extractCode(codeID int64, workDir string) error {
	archive := release.CodeArchivePath(p.cfg.Paths.BuildDir, codeID)
	if _, err := os.Stat(archive); err != nil {
		return services.Wrap(services.ErrReleaseNotFound, "publish", "extract code",
			fmt.Sprintf("code archive %d is missing", codeID), err)
	}
	outputDir := strings.Trim(p.cfg.Publish.CodeOutputDir, "/")
	rename := func(name string) string {
		if outputDir == "" {
			return path.Join(AppDir, name)
		}
		if name == outputDir {
			return AppDir
		}
		if rest, ok := strings.CutPrefix(name, outputDir+"/"); ok {
			return path.Join(AppDir, rest)
		}
		return name
	}
	if err := fileutil.Unzip(archive, workDir, rename); err != nil {
		return services.Wrap(services.ErrValidation, "publish", "extract code", "unpack code archive", err)
	}
	return nil
}

// copyPayloads copies the snapshotted payload of every included resource
// into resource/, overwriting existing files.
func (p *Publisher) copyPayloads(ctx context.Context, mediaID int64, included []string, workDir string) (int, error) {
	binDir := release.MediaBinaryDir(p.cfg.Paths.BuildDir, mediaID)
	if _, err := os.Stat(binDir); err != nil {
		return 0, services.Wrap(services.ErrReleaseNotFound, "publish", "copy payloads",
			fmt.Sprintf("media snapshot %d is missing", mediaID), err)
	}
	dest := filepath.Join(workDir, ResourceDir)
	copied := 0
	for _, id := range included {
		src := filepath.Join(binDir, payload.FileName(id))
		if err := fileutil.CopyFile(src, filepath.Join(dest, payload.FileName(id))); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logging.WarnWithContext(logging.WithContext(ctx, p.logger), "bundled resource has no snapshot payload", "bundle_payload_missing",
					logging.String(logging.FieldResourceID, id),
					logging.String(logging.FieldErrorHint, "create a new media release after importing"),
					logging.String(logging.FieldImpact, "players will fail to load the resource offline"),
				)
				continue
			}
			return copied, fmt.Errorf("copy payload %s: %w", id, err)
		}
		copied++
	}
	return copied, nil
}

// DumpPlayerConfigs writes data/<episodeId>.<ext> for every episode and the
// data/episodes.<ext> abstract into workDir. It returns the ids of the files
// the manifests bundle and the number of episodes written.
func (p *Publisher) DumpPlayerConfigs(ctx context.Context, bundleID int64, workDir string) ([]string, int, error) {
	format := p.cfg.Publish.MetadataFormat
	ext, err := Extension(format)
	if err != nil {
		return nil, 0, err
	}
	handle, err := p.resolver.Resolve(ctx, &bundleID)
	if err != nil {
		return nil, 0, err
	}
	defer handle.Close()

	prof, err := p.bundleProfile(handle.MediaBundleID)
	if err != nil {
		return nil, 0, err
	}
	details, err := p.assembler.AssembleAll(ctx, prof, handle.Docs)
	if err != nil {
		return nil, 0, err
	}

	dataDir := filepath.Join(workDir, DataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("create data dir: %w", err)
	}
	var (
		included  []string
		abstracts = make([]manifest.Abstract, 0, len(details))
	)
	for _, detail := range details {
		if err := writeEncoded(format, filepath.Join(dataDir, detail.Episode.ID+"."+ext), detail); err != nil {
			return nil, 0, err
		}
		abstracts = append(abstracts, detail.Abstract())
		for _, item := range detail.Resources {
			if item.IsFile() && item.File.URL[string(profile.KindBundler)] != "" && !slices.Contains(included, item.ID) {
				included = append(included, item.ID)
			}
		}
		p.logStats(ctx, detail)
	}
	if err := writeEncoded(format, filepath.Join(dataDir, AbstractID+"."+ext), abstracts); err != nil {
		return nil, 0, err
	}
	return included, len(details), nil
}

func (p *Publisher) bundleProfile(mediaReleaseID int64) (profile.Profile, error) {
	shell, err := profile.New(profile.FromSettings(p.cfg, profile.KindPlayerShell))
	if err != nil {
		return nil, err
	}
	bundlerCfg := profile.FromSettings(p.cfg, profile.KindBundler)
	bundlerCfg.MediaReleaseID = mediaReleaseID
	bundler, err := profile.New(bundlerCfg)
	if err != nil {
		return nil, err
	}
	return profile.Chain(shell, bundler), nil
}

func writeEncoded(format, target string, v any) error {
	data, err := Encode(format, v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	return nil
}

// logStats reports, per episode, how many files were post-processed,
// grouped by the set of operations applied.
func (p *Publisher) logStats(ctx context.Context, detail *manifest.Detail) {
	total, processed := 0, 0
	groups := map[string]int{}
	for _, item := range detail.Resources {
		if !item.IsFile() || item.ID == profile.EntryPointNotFoundID {
			continue
		}
		total++
		if !item.PostProcessed() {
			continue
		}
		processed++
		groups[operationSet(item)]++
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEpisodeID, detail.Episode.ID),
		logging.Int("resources", total),
		logging.Int("post_processed", processed),
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		attrs = append(attrs, logging.Int("ops."+key, groups[key]))
	}
	logging.WithContext(ctx, p.logger).Info("episode manifest written", logging.Args(attrs...)...)
}

// operationSet joins the sorted, de-duplicated operation names of a file.
func operationSet(item *resource.Item) string {
	var ops []string
	for _, op := range item.File.PostProcessRecord.Operations {
		ops = append(ops, op.Operation)
	}
	sort.Strings(ops)
	return strings.Join(slices.Compact(ops), "+")
}

// UploadDatabaseBackup uploads every episode manifest, the abstract and a
// zipped database backup to remote storage. A nil bundleReleaseID uploads
// the live database.
func (p *Publisher) UploadDatabaseBackup(ctx context.Context, bundleReleaseID *int64) error {
	if p.storage == nil {
		return services.Wrap(services.ErrInvalidConfiguration, "publish", "upload database backup", "remote storage is not configured", nil)
	}
	seriesID := p.cfg.Series.ID
	if seriesID == "" {
		return services.Wrap(services.ErrInvalidConfiguration, "publish", "upload database backup", "series.id is required", nil)
	}
	handle, err := p.resolver.Resolve(ctx, bundleReleaseID)
	if err != nil {
		return err
	}
	defer handle.Close()

	details, err := p.assembler.ListEpisodeDetails(ctx, profile.FromSettings(p.cfg, profile.KindPlayerShell), handle.Docs)
	if err != nil {
		return err
	}
	comment := "live"
	if bundleReleaseID != nil {
		comment = fmt.Sprintf("bundle %d", *bundleReleaseID)
	}

	abstracts := make([]manifest.Abstract, 0, len(details))
	for _, detail := range details {
		if err := p.put(ctx, seriesID+"/"+detail.Episode.ID, detail, comment); err != nil {
			return err
		}
		abstracts = append(abstracts, detail.Abstract())
	}
	if err := p.put(ctx, seriesID+"/abstract", abstracts, comment); err != nil {
		return err
	}

	backup, err := p.databaseArchive(ctx, handle)
	if err != nil {
		return err
	}
	record := p.record(seriesID+"/db", base64.StdEncoding.EncodeToString(backup), comment)
	if err := p.storage.Put(ctx, record); err != nil {
		return err
	}
	logging.WithContext(ctx, p.logger).Info("database backup uploaded",
		logging.String("series_id", seriesID),
		logging.Int("episodes", len(details)),
		logging.String("backup_size", logging.FormatBytes(int64(len(backup)))),
	)
	return nil
}

func (p *Publisher) put(ctx context.Context, key string, v any, comment string) error {
	data, err := Encode(FormatMinJSON, v)
	if err != nil {
		return err
	}
	return p.storage.Put(ctx, p.record(key, string(data), comment))
}

func (p *Publisher) record(key, value, comment string) remotestorage.Record {
	return remotestorage.Record{
		Key:                     key,
		Value:                   value,
		RequiredPermissions:     p.cfg.RemoteStorage.RequiredPermissions,
		RequiredPermissionCount: p.cfg.RemoteStorage.RequiredPermissionCount,
		Comment:                 comment,
	}
}

// databaseArchive returns the zipped database behind handle. Snapshots reuse
// their media release archive; the live store is backed up first.
func (p *Publisher) databaseArchive(ctx context.Context, handle *release.Handle) ([]byte, error) {
	if !handle.Live() {
		return os.ReadFile(release.DatabaseArchivePath(p.cfg.Paths.BuildDir, handle.MediaBundleID))
	}
	return backupLive(ctx, handle.Docs, p.cfg.Paths.TempDir)
}

func backupLive(ctx context.Context, docs *docstore.Store, tempDir string) ([]byte, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure temp dir: %w", err)
	}
	work, err := os.MkdirTemp(tempDir, "upload-")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	defer os.RemoveAll(work)

	snapshot := filepath.Join(work, release.SnapshotDBName)
	if err := docs.Backup(ctx, snapshot); err != nil {
		return nil, err
	}
	archive := filepath.Join(work, "db.zip")
	if err := fileutil.ZipFile(snapshot, release.SnapshotDBName, archive); err != nil {
		return nil, err
	}
	return os.ReadFile(archive)
}
