package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains project, media and build directory configuration.
type Paths struct {
	ProjectDir   string `toml:"project_dir"`
	MediaDir     string `toml:"media_dir"`
	DatabasePath string `toml:"database_path"`
	BuildDir     string `toml:"build_dir"`
	LogDir       string `toml:"log_dir"`
	TempDir      string `toml:"temp_dir"`
}

// Series identifies the interactive series this project publishes.
type Series struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
}

// Publish contains configuration for bundle output.
type Publish struct {
	// OfflineAvailability is one of bare, partial or full.
	OfflineAvailability string `toml:"offline_availability"`
	// MetadataFormat is one of json, msgpack or minjson.
	MetadataFormat string `toml:"metadata_format"`
	// CodeOutputDir is the top-level folder inside code-<id>.zip that holds
	// the built player; it is renamed to ap/ in the bundle.
	CodeOutputDir string `toml:"code_output_dir"`
}

// Profiles contains the hosts each target profile points URLs at.
type Profiles struct {
	PlayerScheme        string `toml:"player_scheme"`
	PreviewHost         string `toml:"preview_host"`
	PreviewProtocol     string `toml:"preview_protocol"`
	PreviewPort         int    `toml:"preview_port"`
	LivePreviewHost     string `toml:"live_preview_host"`
	LivePreviewProtocol string `toml:"live_preview_protocol"`
	LivePreviewPort     int    `toml:"live_preview_port"`
}

// RemoteStorage contains configuration for manifest/database uploads.
type RemoteStorage struct {
	// Backend is "http", "redis" or empty (uploads disabled).
	Backend                 string   `toml:"backend"`
	URL                     string   `toml:"url"`
	Token                   string   `toml:"token"`
	RedisURL                string   `toml:"redis_url"`
	RequiredPermissions     []string `toml:"required_permissions"`
	RequiredPermissionCount int      `toml:"required_permission_count"`
	TimeoutSeconds          int      `toml:"timeout_seconds"`
}

// PostProcess toggles the built-in post-processors.
type PostProcess struct {
	Probe         bool   `toml:"probe"`
	AV1           bool   `toml:"av1"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Workers bounds batch parallelism.
type Workers struct {
	Import int `toml:"import"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: project, media, database, build, log and temp directories
//   - Series: series identifier used as remote storage key prefix
//   - Publish: offline availability, manifest format, code artifact layout
//   - Profiles: hosts and schemes the URL injectors write
//   - RemoteStorage: key/value upload backend
//   - PostProcess: built-in post-processor toggles
//   - Workers: batch import parallelism
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Series        Series        `toml:"series"`
	Publish       Publish       `toml:"publish"`
	Profiles      Profiles      `toml:"profiles"`
	RemoteStorage RemoteStorage `toml:"remote_storage"`
	PostProcess   PostProcess   `toml:"postprocess"`
	Workers       Workers       `toml:"workers"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env")); err != nil {
			return nil, "", false, err
		}

		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv exports variables from an optional .env file. Existing
// environment variables win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the project, media, build, log and temp directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectDir, c.Paths.MediaDir, c.Paths.BuildDir, c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.DatabasePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the project lock file guarding single-process access.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ProjectDir, ".reelforge.lock")
}

// FFprobeBinary returns the ffprobe executable name used by the probe post-processor.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.PostProcess.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.PostProcess.FFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
