package services

import "context"

type contextKey string

const (
	resourceIDKey contextKey = "resource_id"
	operationKey  contextKey = "operation"
	releaseKey    contextKey = "release"
	requestIDKey  contextKey = "request_id"
)

// WithResourceID annotates context with the resource being mutated.
func WithResourceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, resourceIDKey, id)
}

// ResourceIDFromContext extracts the resource identifier if present.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(resourceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the operation name (import, merge, publish...).
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(operationKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRelease annotates context with a release label such as "bundle-3".
func WithRelease(ctx context.Context, release string) context.Context {
	if release == "" {
		return ctx
	}
	return context.WithValue(ctx, releaseKey, release)
}

// ReleaseFromContext returns the release label if present.
func ReleaseFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(releaseKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
