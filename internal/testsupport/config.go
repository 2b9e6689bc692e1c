package testsupport

import (
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectDir = filepath.Join(base, "project")
	cfgVal.Paths.MediaDir = filepath.Join(base, "project", "media")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "project", "reelforge.db")
	cfgVal.Paths.BuildDir = filepath.Join(base, "build")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Series.ID = "series-test"
	cfgVal.PostProcess.Probe = false
	cfgVal.PostProcess.AV1 = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAvailability sets publish.offline_availability.
func WithAvailability(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.OfflineAvailability = value
	}
}

// WithMetadataFormat sets publish.metadata_format.
func WithMetadataFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.MetadataFormat = format
	}
}

// WithSeriesID overrides the series id used for remote storage keys.
func WithSeriesID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Series.ID = id
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ProjectDir)
}
