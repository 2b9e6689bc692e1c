package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	if err := c.validateRemoteStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.OfflineAvailability {
	case "bare", "partial", "full":
	default:
		return fmt.Errorf("publish.offline_availability must be bare, partial or full (got %q)", c.Publish.OfflineAvailability)
	}
	switch c.Publish.MetadataFormat {
	case "json", "msgpack", "minjson":
	default:
		return fmt.Errorf("publish.metadata_format must be json, msgpack or minjson (got %q)", c.Publish.MetadataFormat)
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if c.Profiles.PreviewPort < 0 || c.Profiles.PreviewPort > 65535 {
		return errors.New("profiles.preview_port must be between 0 and 65535")
	}
	if c.Profiles.LivePreviewPort < 0 || c.Profiles.LivePreviewPort > 65535 {
		return errors.New("profiles.live_preview_port must be between 0 and 65535")
	}
	return nil
}

func (c *Config) validateRemoteStorage() error {
	switch c.RemoteStorage.Backend {
	case "":
		return nil
	case "http":
		if c.RemoteStorage.URL == "" {
			return errors.New("remote_storage.url must be set when remote_storage.backend is http")
		}
	case "redis":
		if c.RemoteStorage.RedisURL == "" {
			return errors.New("remote_storage.redis_url must be set when remote_storage.backend is redis")
		}
	default:
		return fmt.Errorf("remote_storage.backend must be http or redis (got %q)", c.RemoteStorage.Backend)
	}
	if c.Series.ID == "" {
		return errors.New("series.id is required when remote_storage is enabled (set REELFORGE_SERIES_ID or edit the config)")
	}
	if c.RemoteStorage.RequiredPermissionCount < 0 {
		return errors.New("remote_storage.required_permission_count must be >= 0")
	}
	if c.RemoteStorage.RequiredPermissionCount > len(c.RemoteStorage.RequiredPermissions) {
		return errors.New("remote_storage.required_permission_count exceeds the number of required_permissions")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
