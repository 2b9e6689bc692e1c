// Package payload stores the binary content behind file resources, one
// <id>.resource file per resource plus an optional <id>.thumbnail.
package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	resourceExt  = ".resource"
	thumbnailExt = ".thumbnail"
)

// Store manages payload files under a root directory.
type Store struct {
	fs   afero.Fs
	root string
}

// New returns a Store rooted at root on fsys.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// NewOS returns a Store on the host filesystem.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// Fs exposes the backing filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Root returns the payload directory.
func (s *Store) Root() string { return s.root }

// Path returns the payload file path for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.root, FileName(id))
}

// ThumbnailPath returns the thumbnail file path for id.
func (s *Store) ThumbnailPath(id string) string {
	return filepath.Join(s.root, id+thumbnailExt)
}

// FileName returns the archive name of a payload.
func FileName(id string) string {
	return id + resourceExt
}

// Write stores the content of r as the payload for id and returns its hex
// SHA-256 digest and size.
func (s *Store) Write(id string, r io.Reader) (string, int64, error) {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return "", 0, fmt.Errorf("create payload dir: %w", err)
	}
	tmp := s.Path(id) + ".part"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create payload %s: %w", id, err)
	}
	hasher := sha256.New()
	size, copyErr := io.Copy(io.MultiWriter(f, hasher), r)
	closeErr := f.Close()
	if copyErr != nil {
		_ = s.fs.Remove(tmp)
		return "", 0, fmt.Errorf("write payload %s: %w", id, copyErr)
	}
	if closeErr != nil {
		_ = s.fs.Remove(tmp)
		return "", 0, fmt.Errorf("close payload %s: %w", id, closeErr)
	}
	if err := s.fs.Rename(tmp, s.Path(id)); err != nil {
		return "", 0, fmt.Errorf("commit payload %s: %w", id, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}

// WriteThumbnail stores a thumbnail image for id.
func (s *Store) WriteThumbnail(id string, data []byte) error {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create payload dir: %w", err)
	}
	return afero.WriteFile(s.fs, s.ThumbnailPath(id), data, 0o644)
}

// Open opens the payload for reading.
func (s *Store) Open(id string) (afero.File, error) {
	return s.fs.Open(s.Path(id))
}

// Exists reports whether a payload is stored for id.
func (s *Store) Exists(id string) bool {
	ok, err := afero.Exists(s.fs, s.Path(id))
	return err == nil && ok
}

// Remove deletes the payload and thumbnail for id. Missing files are not an
// error.
func (s *Store) Remove(id string) error {
	var errs []error
	for _, target := range []string{s.Path(id), s.ThumbnailPath(id)} {
		if err := s.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", target, err))
		}
	}
	return errors.Join(errs...)
}

// CopyTo copies the payload for id into dir (on the same filesystem),
// overwriting any existing file, and returns the destination path.
func (s *Store) CopyTo(id, dir string) (string, error) {
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	src, err := s.Open(id)
	if err != nil {
		return "", fmt.Errorf("open payload %s: %w", id, err)
	}
	defer src.Close()

	dest := filepath.Join(dir, FileName(id))
	out, err := s.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copy payload %s: %w", id, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	return dest, nil
}

// List returns the ids of every stored payload, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list payloads: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), resourceExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), resourceExt))
	}
	sort.Strings(ids)
	return ids, nil
}
