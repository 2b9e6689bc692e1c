package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("build", dir, 1); !result.Passed {
		t.Fatalf("expected pass with a one-byte floor, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("build", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with an impossible floor")
	}
}

func TestCheckRemoteStorageHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	ok := CheckRemoteStorage(context.Background(), config.RemoteStorage{Backend: "http", URL: srv.URL, Token: "good"})
	if !ok.Passed {
		t.Fatalf("expected pass, got: %s", ok.Detail)
	}
	bad := CheckRemoteStorage(context.Background(), config.RemoteStorage{Backend: "http", URL: srv.URL, Token: "bad"})
	if bad.Passed {
		t.Fatal("expected failure for bad token")
	}
	missing := CheckRemoteStorage(context.Background(), config.RemoteStorage{Backend: "http"})
	if missing.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestRunAllSkipsDisabledFeatures(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "project")
	cfg.Paths.MediaDir = filepath.Join(base, "project", "media")
	cfg.Paths.BuildDir = base
	cfg.PostProcess.Probe = false
	cfg.PostProcess.AV1 = false
	cfg.RemoteStorage.Backend = ""
	for _, dir := range []string{cfg.Paths.ProjectDir, cfg.Paths.MediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected directory checks only, got %d results: %+v", len(results), results)
	}
	if failed := Failed(results[:2]); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
