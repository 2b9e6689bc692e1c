package services_test

import (
	"context"
	"testing"

	"reelforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithResourceID(ctx, "res-42")
	ctx = services.WithOperation(ctx, "merge")
	ctx = services.WithRelease(ctx, "bundle-3")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ResourceIDFromContext(ctx); !ok || id != "res-42" {
		t.Fatalf("unexpected resource id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "merge" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rel, ok := services.ReleaseFromContext(ctx); !ok || rel != "bundle-3" {
		t.Fatalf("unexpected release: %v %v", rel, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestOperationBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
