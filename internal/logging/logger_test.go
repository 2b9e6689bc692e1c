package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "reelforge.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "graph").Info("message without caller", logging.String("resource_id", "r1"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "graph: message without caller") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "resource_id=r1") {
		t.Fatalf("expected key=value attribute, got %q", line)
	}
}

func TestConsoleLoggerPrefixesReleaseAndAbbreviatesIDs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-ids.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "release").Info("media release created",
		logging.Release("media", 3),
		logging.IDs("payloads", []string{"a", "b", "c", "d", "e", "f"}),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "[media-3] release: media release created") {
		t.Fatalf("expected release prefix before component, got %q", line)
	}
	if !strings.Contains(line, "payloads=a,b,c,d,(+2 more)") {
		t.Fatalf("expected abbreviated id list, got %q", line)
	}
	if strings.Contains(line, "release=media-3") {
		t.Fatalf("release should not repeat as an attribute, got %q", line)
	}
}

func TestJSONLoggerWritesFullIDList(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json-ids.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("split",
		logging.IDs("detached", []string{"a", "b", "c", "d", "e", "f"}),
		logging.Release("media", 3),
		logging.Duration("duration", 1500*time.Millisecond+400*time.Microsecond),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload struct {
		TS       string `json:"ts"`
		Detached struct {
			Count int      `json:"count"`
			IDs   []string `json:"ids"`
		} `json:"detached"`
		Release struct {
			Label string `json:"label"`
			Kind  string `json:"kind"`
			ID    string `json:"id"`
		} `json:"release"`
		Duration string `json:"duration"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, content)
	}
	if payload.Detached.Count != 6 || len(payload.Detached.IDs) != 6 {
		t.Fatalf("expected all 6 ids in json output, got %+v", payload.Detached)
	}
	if payload.Release.Label != "media-3" || payload.Release.Kind != "media" || payload.Release.ID != "3" {
		t.Fatalf("expected split release label, got %+v", payload.Release)
	}
	if payload.Duration != "1.5s" {
		t.Fatalf("expected rounded duration, got %q", payload.Duration)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", payload.TS); err != nil {
		t.Fatalf("expected millisecond timestamp, got %q: %v", payload.TS, err)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithOperation(services.WithResourceID(context.Background(), "f1"), "merge")
	logging.WithContext(ctx, logger).Info("merged")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["resource_id"] != "f1" || payload["operation"] != "merge" {
		t.Fatalf("expected context fields, got %#v", payload)
	}
	if payload["level"] != "info" || payload["msg"] != "merged" {
		t.Fatalf("unexpected envelope: %#v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "payload delete failed", "payload_delete_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{"event_type=payload_delete_failed", "error_hint=", "impact="} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := logging.FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
