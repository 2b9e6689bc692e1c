package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSeries()
	c.normalizePublish()
	c.normalizeProfiles()
	c.normalizeRemoteStorage()
	c.normalizeWorkers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = filepath.Join(c.Paths.ProjectDir, "media")
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.ProjectDir, "reelforge.db")
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.BuildDir) == "" {
		c.Paths.BuildDir = filepath.Join(c.Paths.ProjectDir, "build")
	}
	if c.Paths.BuildDir, err = expandPath(c.Paths.BuildDir); err != nil {
		return fmt.Errorf("paths.build_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = filepath.Join(os.TempDir(), "reelforge")
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSeries() {
	c.Series.ID = strings.TrimSpace(c.Series.ID)
	if c.Series.ID == "" {
		if value, ok := os.LookupEnv("REELFORGE_SERIES_ID"); ok {
			c.Series.ID = strings.TrimSpace(value)
		}
	}
	c.Series.Title = strings.TrimSpace(c.Series.Title)
}

func (c *Config) normalizePublish() {
	c.Publish.OfflineAvailability = strings.ToLower(strings.TrimSpace(c.Publish.OfflineAvailability))
	if c.Publish.OfflineAvailability == "" {
		c.Publish.OfflineAvailability = defaultOfflineAvailability
	}
	c.Publish.MetadataFormat = strings.ToLower(strings.TrimSpace(c.Publish.MetadataFormat))
	if c.Publish.MetadataFormat == "" {
		c.Publish.MetadataFormat = defaultMetadataFormat
	}
	c.Publish.CodeOutputDir = strings.Trim(strings.TrimSpace(c.Publish.CodeOutputDir), "/")
	if c.Publish.CodeOutputDir == "" {
		c.Publish.CodeOutputDir = defaultCodeOutputDir
	}
}

func (c *Config) normalizeProfiles() {
	c.Profiles.PlayerScheme = strings.TrimSpace(c.Profiles.PlayerScheme)
	if c.Profiles.PlayerScheme == "" {
		c.Profiles.PlayerScheme = defaultPlayerScheme
	}
	c.Profiles.PreviewHost = strings.TrimSpace(c.Profiles.PreviewHost)
	if c.Profiles.PreviewHost == "" {
		c.Profiles.PreviewHost = defaultPreviewHost
	}
	c.Profiles.PreviewProtocol = strings.ToLower(strings.TrimSpace(c.Profiles.PreviewProtocol))
	if c.Profiles.PreviewProtocol == "" {
		c.Profiles.PreviewProtocol = defaultPreviewProtocol
	}
	if c.Profiles.PreviewPort == 0 {
		c.Profiles.PreviewPort = defaultPreviewPort
	}
	c.Profiles.LivePreviewHost = strings.TrimSpace(c.Profiles.LivePreviewHost)
	if c.Profiles.LivePreviewHost == "" {
		c.Profiles.LivePreviewHost = defaultLivePreviewHost
	}
	c.Profiles.LivePreviewProtocol = strings.ToLower(strings.TrimSpace(c.Profiles.LivePreviewProtocol))
	if c.Profiles.LivePreviewProtocol == "" {
		c.Profiles.LivePreviewProtocol = defaultLivePreviewProtocol
	}
	if c.Profiles.LivePreviewPort == 0 {
		c.Profiles.LivePreviewPort = defaultLivePreviewPort
	}
}

func (c *Config) normalizeRemoteStorage() {
	c.RemoteStorage.Backend = strings.ToLower(strings.TrimSpace(c.RemoteStorage.Backend))
	c.RemoteStorage.URL = strings.TrimRight(strings.TrimSpace(c.RemoteStorage.URL), "/")
	c.RemoteStorage.Token = strings.TrimSpace(c.RemoteStorage.Token)
	if c.RemoteStorage.Token == "" {
		if value, ok := os.LookupEnv("REELFORGE_REMOTE_TOKEN"); ok {
			c.RemoteStorage.Token = strings.TrimSpace(value)
		}
	}
	c.RemoteStorage.RedisURL = strings.TrimSpace(c.RemoteStorage.RedisURL)
	if c.RemoteStorage.RedisURL == "" {
		if value, ok := os.LookupEnv("REELFORGE_REDIS_URL"); ok {
			c.RemoteStorage.RedisURL = strings.TrimSpace(value)
		}
	}
	perms := make([]string, 0, len(c.RemoteStorage.RequiredPermissions))
	for _, perm := range c.RemoteStorage.RequiredPermissions {
		if trimmed := strings.TrimSpace(perm); trimmed != "" {
			perms = append(perms, trimmed)
		}
	}
	c.RemoteStorage.RequiredPermissions = perms
	if c.RemoteStorage.TimeoutSeconds <= 0 {
		c.RemoteStorage.TimeoutSeconds = defaultStorageTimeout
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Import <= 0 {
		c.Workers.Import = defaultImportWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
