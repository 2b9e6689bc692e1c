package release_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"reelforge/internal/docstore"
	"reelforge/internal/release"
	"reelforge/internal/resource"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

func TestCodeReleaseCopiesArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	mgr := release.NewManager(g, testsupport.Payloads(cfg), cfg.Paths.BuildDir, cfg.Paths.TempDir, nil)
	ctx := context.Background()

	artifact := filepath.Join(testsupport.BaseDir(cfg), "app.zip")
	testsupport.WriteZip(t, artifact, map[string]string{"dist/index.html": "<html></html>"})

	first, err := mgr.CreateCodeRelease(ctx, artifact, "first")
	if err != nil {
		t.Fatalf("CreateCodeRelease: %v", err)
	}
	second, err := mgr.CreateCodeRelease(ctx, artifact, "second")
	if err != nil {
		t.Fatalf("CreateCodeRelease: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids %d, %d", first.ID, second.ID)
	}
	if _, err := os.Stat(release.CodeArchivePath(cfg.Paths.BuildDir, 2)); err != nil {
		t.Fatalf("code archive missing: %v", err)
	}

	list, err := mgr.ListCodeReleases(ctx)
	if err != nil {
		t.Fatalf("ListCodeReleases: %v", err)
	}
	if len(list) != 2 || list[1].Notes != "second" {
		t.Fatalf("unexpected code releases: %+v", list)
	}

	if _, err := mgr.CreateCodeRelease(ctx, filepath.Join(testsupport.BaseDir(cfg), "missing.zip"), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMediaReleaseSnapshotsAndStamps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	mgr := release.NewManager(g, testsupport.Payloads(cfg), cfg.Paths.BuildDir, cfg.Paths.TempDir, nil)
	ctx := context.Background()

	plain := testsupport.File("plain", "image/png")
	processed := testsupport.File("processed", "video/mp4")
	processed.RecordOperation("probe", "probe", time.Unix(100, 0).UTC())
	removed := testsupport.File("removed", "image/png")
	removed.Removed = true
	testsupport.PutItems(t, g, plain, processed, removed)
	for _, id := range []string{"plain", "processed", "removed"} {
		testsupport.MustWritePayload(t, cfg, id, "bytes-"+id)
	}

	media, err := mgr.CreateMediaRelease(ctx, "snapshot")
	if err != nil {
		t.Fatalf("CreateMediaRelease: %v", err)
	}
	if !slices.Equal(media.Resources, []string{"plain", "processed"}) {
		t.Fatalf("unexpected snapshot resources: %v", media.Resources)
	}

	binDir := release.MediaBinaryDir(cfg.Paths.BuildDir, media.ID)
	if _, err := os.Stat(filepath.Join(binDir, "processed.resource")); err != nil {
		t.Fatalf("payload not snapshotted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(binDir, "removed.resource")); !os.IsNotExist(err) {
		t.Fatalf("removed payload should not be snapshotted: %v", err)
	}

	stamped := testsupport.MustGet(t, g, "processed")
	if !stamped.File.PostProcessRecord.ContainsMediaRelease(media.ID) {
		t.Fatalf("post-process record not stamped: %+v", stamped.File.PostProcessRecord)
	}
	if testsupport.MustGet(t, g, "plain").File.PostProcessRecord != nil {
		t.Fatal("unprocessed file should not gain a record")
	}
	if _, err := os.Stat(release.DatabaseArchivePath(cfg.Paths.BuildDir, media.ID)); err != nil {
		t.Fatalf("database archive missing: %v", err)
	}
}

func TestBundleReleaseValidatesParents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	mgr := release.NewManager(g, testsupport.Payloads(cfg), cfg.Paths.BuildDir, cfg.Paths.TempDir, nil)
	ctx := context.Background()

	if _, err := mgr.CreateBundleRelease(ctx, 1, 1, ""); !errors.Is(err, services.ErrReleaseNotFound) {
		t.Fatalf("expected release not found, got %v", err)
	}

	artifact := filepath.Join(testsupport.BaseDir(cfg), "app.zip")
	testsupport.WriteZip(t, artifact, map[string]string{"dist/index.html": ""})
	code, err := mgr.CreateCodeRelease(ctx, artifact, "")
	if err != nil {
		t.Fatalf("CreateCodeRelease: %v", err)
	}
	if _, err := mgr.CreateBundleRelease(ctx, code.ID, 9, ""); !errors.Is(err, services.ErrReleaseNotFound) {
		t.Fatalf("expected missing media release, got %v", err)
	}
	media, err := mgr.CreateMediaRelease(ctx, "")
	if err != nil {
		t.Fatalf("CreateMediaRelease: %v", err)
	}
	bundle, err := mgr.CreateBundleRelease(ctx, code.ID, media.ID, "ship it")
	if err != nil {
		t.Fatalf("CreateBundleRelease: %v", err)
	}
	if bundle.CodeReleaseID != code.ID || bundle.MediaReleaseID != media.ID {
		t.Fatalf("unexpected binding: %+v", bundle)
	}
}

func TestResolverOpensFrozenSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	mgr := release.NewManager(g, testsupport.Payloads(cfg), cfg.Paths.BuildDir, cfg.Paths.TempDir, nil)
	resolver := release.NewResolver(g.Docs(), cfg.Paths.BuildDir, cfg.Paths.TempDir, nil)
	ctx := context.Background()

	testsupport.PutItems(t, g, testsupport.File("before", "image/png"))
	artifact := filepath.Join(testsupport.BaseDir(cfg), "app.zip")
	testsupport.WriteZip(t, artifact, map[string]string{"dist/index.html": ""})
	code, err := mgr.CreateCodeRelease(ctx, artifact, "")
	if err != nil {
		t.Fatalf("CreateCodeRelease: %v", err)
	}
	media, err := mgr.CreateMediaRelease(ctx, "")
	if err != nil {
		t.Fatalf("CreateMediaRelease: %v", err)
	}
	bundle, err := mgr.CreateBundleRelease(ctx, code.ID, media.ID, "")
	if err != nil {
		t.Fatalf("CreateBundleRelease: %v", err)
	}

	// Changes after the media release must not leak into the snapshot.
	testsupport.PutItems(t, g, testsupport.File("after", "image/png"))

	handle, err := resolver.Resolve(ctx, &bundle.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if handle.Live() || handle.MediaBundleID != media.ID {
		t.Fatalf("unexpected handle: %+v", handle)
	}
	items, err := docstore.FindAll[resource.Item](ctx, handle.Docs, docstore.Resources)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(items) != 1 || items[0].ID != "before" {
		t.Fatalf("snapshot should only hold the pre-release file, got %d items", len(items))
	}
	if err := handle.Docs.Put(ctx, docstore.Resources, "x", testsupport.File("x", "image/png")); err == nil {
		t.Fatal("snapshot must be read-only")
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	live, err := resolver.Resolve(ctx, nil)
	if err != nil {
		t.Fatalf("Resolve live: %v", err)
	}
	if !live.Live() || live.Docs != g.Docs() {
		t.Fatal("nil bundle id should resolve to the live store")
	}
	if err := live.Close(); err != nil {
		t.Fatalf("Close live: %v", err)
	}

	missing := int64(42)
	if _, err := resolver.Resolve(ctx, &missing); !errors.Is(err, services.ErrReleaseNotFound) {
		t.Fatalf("expected release not found, got %v", err)
	}
}
