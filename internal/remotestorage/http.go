package remotestorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/services"
)

// HTTPStorage uploads records to the storage service.
type HTTPStorage struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTP returns an HTTPStorage for baseURL.
func NewHTTP(baseURL, token string, timeout time.Duration) *HTTPStorage {
	return &HTTPStorage{
		endpoint: strings.TrimRight(baseURL, "/") + "/storage",
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Put sends record as JSON. Server errors are transient; client errors are
// reported as external tool failures.
func (s *HTTPStorage) Put(ctx context.Context, record Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.Key, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build storage request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "remotestorage", "put", "send "+record.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		marker := services.ErrExternalTool
		if resp.StatusCode >= 500 {
			marker = services.ErrTransient
		}
		return services.Wrap(marker, "remotestorage", "put",
			fmt.Sprintf("storage returned %d for %s: %s", resp.StatusCode, record.Key, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (s *HTTPStorage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
