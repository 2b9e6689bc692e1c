package logging

import (
	"context"
	"log/slog"

	"reelforge/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldResourceID is the standardized key for resource item identifiers.
	FieldResourceID = "resource_id"
	// FieldOperation is the standardized key for graph/publish operation names.
	FieldOperation = "operation"
	// FieldRelease is the standardized key for release labels (code-1, media-2, bundle-3).
	FieldRelease = "release"
	// FieldEpisodeID is the standardized key for episode identifiers.
	FieldEpisodeID = "episode_id"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType names the kind of event a WARN/ERROR line reports.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a WARN/ERROR line.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ResourceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldResourceID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rel, ok := services.ReleaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRelease, rel))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
