package project_test

import (
	"context"
	"errors"
	"testing"

	"reelforge/internal/project"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

func TestOpenLocksProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := project.Open(ctx, cfg, nil, project.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := project.Open(ctx, cfg, nil, project.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected second open to be rejected, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := project.Open(ctx, cfg, nil, project.Options{})
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	defer again.Close()

	testsupport.PutItems(t, again.Graph, testsupport.File("f1", "image/png"))
	testsupport.RequireConsistent(t, again.Graph)
}

func TestOpenRegistersBuiltins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p, err := project.Open(context.Background(), cfg, nil, project.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	var ids []string
	for _, proc := range p.Pipeline.Processors() {
		ids = append(ids, proc.ID())
	}
	if len(ids) != 2 || ids[0] != "poster" || ids[1] != "preview-redirect" {
		t.Fatalf("unexpected processors with probe and av1 disabled: %v", ids)
	}
}
