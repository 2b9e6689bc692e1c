package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/remotestorage"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the directory is accessible and its filesystem has
// at least minFree bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	access := CheckDirectoryAccess(name, path)
	if !access.Passed {
		return access
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: only %s free)", path, logging.FormatBytes(int64(free)))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s free)", path, logging.FormatBytes(int64(free)))}
}

// CheckRemoteStorage verifies the configured backend is reachable.
func CheckRemoteStorage(ctx context.Context, cfg config.RemoteStorage) Result {
	const name = "Remote storage"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch strings.ToLower(cfg.Backend) {
	case "http":
		return checkHTTPStorage(checkCtx, name, cfg.URL, cfg.Token)
	case "redis":
		store, err := remotestorage.NewRedis(cfg.RedisURL, 5*time.Second)
		if err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		defer store.Close()
		if err := store.Ping(checkCtx); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("redis unreachable (%v)", err)}
		}
		return Result{Name: name, Passed: true, Detail: "redis reachable"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", cfg.Backend)}
	}
}

func checkHTTPStorage(ctx context.Context, name, baseURL, token string) Result {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base+"/storage", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	case resp.StatusCode >= 500:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	default:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	}
}
