package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"reelforge/internal/release"
	"reelforge/internal/testsupport"
)

func TestReleaseAndPublishFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	imported := importFiles(t, env, "clip.mp4")

	var episode struct {
		ID string `json:"id"`
	}
	runJSON(t, env, &episode, "episode", "add", "Pilot")

	var asset struct {
		ID string `json:"id"`
	}
	runJSON(t, env, &asset, "asset", "add", episode.ID, imported[0].Item.ID)
	if asset.ID == "" {
		t.Fatal("expected asset id")
	}

	artifact := filepath.Join(env.baseDir, "artifact.zip")
	testsupport.WriteZip(t, artifact, map[string]string{"dist/index.html": "<html></html>"})

	var code, media struct {
		ID int64 `json:"id"`
	}
	runJSON(t, env, &code, "release", "code", artifact, "--notes", "first build")
	runJSON(t, env, &media, "release", "media")

	var bundle struct {
		ID int64 `json:"id"`
	}
	runJSON(t, env, &bundle, "release", "bundle", strconv.FormatInt(code.ID, 10), strconv.FormatInt(media.ID, 10))

	var result struct {
		Archive  string `json:"archive"`
		Episodes int    `json:"episodes"`
	}
	runJSON(t, env, &result, "publish", "bundle", strconv.FormatInt(bundle.ID, 10))
	if result.Archive != release.PlayerArchivePath(env.cfg.Paths.BuildDir, bundle.ID) {
		t.Fatalf("unexpected archive path %q", result.Archive)
	}
	if _, err := os.Stat(result.Archive); err != nil {
		t.Fatalf("expected player archive: %v", err)
	}
	if result.Episodes != 1 {
		t.Fatalf("expected 1 episode, got %d", result.Episodes)
	}

	out, _, err := runCLI(t, []string{"release", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("release list: %v", err)
	}
	requireContains(t, out, "first build")

	out, _, err = runCLI(t, []string{"episode", "show", episode.ID, "--bundle", strconv.FormatInt(bundle.ID, 10)}, env.configPath)
	if err != nil {
		t.Fatalf("episode show: %v", err)
	}
	requireContains(t, out, "Pilot")
}

func TestReleaseBundleRejectsBadIDs(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"release", "bundle", "zero", "1"}, env.configPath); err == nil {
		t.Fatal("expected invalid id error")
	}
	if _, _, err := runCLI(t, []string{"release", "bundle", "7", "9"}, env.configPath); err == nil {
		t.Fatal("expected missing release error")
	}
}

func TestPublishUploadWithoutStorageFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"publish", "upload"}, env.configPath); err == nil {
		t.Fatal("expected upload to fail without remote storage")
	}
}
