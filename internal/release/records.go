package release

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// Counter names used with docstore.NextID.
const (
	counterCode   = "code"
	counterMedia  = "media"
	counterBundle = "bundle"
)

// SnapshotDBName is the database file name inside db-<id>.zip.
const SnapshotDBName = "reelforge.db"

// CodeRelease records a packaged app artifact.
type CodeRelease struct {
	ID         int64     `json:"id"`
	Notes      string    `json:"notes"`
	Source     string    `json:"source"`
	CreateTime time.Time `json:"createTime"`
}

// MediaRelease records a payload and database snapshot.
type MediaRelease struct {
	ID         int64     `json:"id"`
	Notes      string    `json:"notes"`
	Resources  []string  `json:"resources"`
	CreateTime time.Time `json:"createTime"`
}

// BundleRelease binds a code release to a media release.
type BundleRelease struct {
	ID             int64     `json:"id"`
	CodeReleaseID  int64     `json:"codeReleaseId"`
	MediaReleaseID int64     `json:"mediaReleaseId"`
	Notes          string    `json:"notes"`
	CreateTime     time.Time `json:"createTime"`
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// CodeArchivePath returns <buildDir>/code-<id>.zip.
func CodeArchivePath(buildDir string, id int64) string {
	return filepath.Join(buildDir, fmt.Sprintf("code-%d.zip", id))
}

// MediaBinaryDir returns <buildDir>/resource-<id>/binary.
func MediaBinaryDir(buildDir string, id int64) string {
	return filepath.Join(buildDir, fmt.Sprintf("resource-%d", id), "binary")
}

// DatabaseArchivePath returns <buildDir>/db-<id>.zip.
func DatabaseArchivePath(buildDir string, id int64) string {
	return filepath.Join(buildDir, fmt.Sprintf("db-%d.zip", id))
}

// PlayerDir returns <buildDir>/player-<id>.
func PlayerDir(buildDir string, id int64) string {
	return filepath.Join(buildDir, fmt.Sprintf("player-%d", id))
}

// PlayerArchivePath returns <buildDir>/player-<id>.zip.
func PlayerArchivePath(buildDir string, id int64) string {
	return PlayerDir(buildDir, id) + ".zip"
}
