package remotestorage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services"
)

const userAgent = "reelforge/0.1.0"

// Record is one key/value upload.
type Record struct {
	Key                     string   `json:"key"`
	Value                   string   `json:"value"`
	RequiredPermissions     []string `json:"requiredPermissions"`
	RequiredPermissionCount int      `json:"requiredPermissionCount"`
	Comment                 string   `json:"comment"`
}

// Storage stores records remotely.
type Storage interface {
	Put(ctx context.Context, record Record) error
	Close() error
}

// New builds the backend selected by cfg.
func New(cfg config.RemoteStorage) (Storage, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return disabled{}, nil
	case "http":
		return NewHTTP(cfg.URL, cfg.Token, timeout), nil
	case "redis":
		return NewRedis(cfg.RedisURL, timeout)
	default:
		return nil, services.Wrap(services.ErrInvalidConfiguration, "remotestorage", "new",
			fmt.Sprintf("unknown backend %q", cfg.Backend), nil)
	}
}

type disabled struct{}

func (disabled) Put(context.Context, Record) error {
	return services.Wrap(services.ErrInvalidConfiguration, "remotestorage", "put",
		"remote_storage.backend is not configured", nil)
}

func (disabled) Close() error { return nil }
