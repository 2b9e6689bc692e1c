package testsupport

import (
	"context"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/docstore"
	"reelforge/internal/graph"
	"reelforge/internal/payload"
	"reelforge/internal/postprocess"
	"reelforge/internal/resource"
)

// MustOpenDocstore opens the project database for tests and registers cleanup.
func MustOpenDocstore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenGraph opens a graph store over a fresh project database with the
// given processors registered.
func MustOpenGraph(t testing.TB, cfg *config.Config, processors ...postprocess.Processor) *graph.Store {
	t.Helper()

	docs := MustOpenDocstore(t, cfg)
	pipeline := postprocess.NewPipeline(docs, nil, processors...)
	return graph.New(docs, payload.NewOS(cfg.Paths.MediaDir), pipeline, nil)
}

// PutItems writes items through UpdateOrInsert.
func PutItems(t testing.TB, g *graph.Store, items ...*resource.Item) {
	t.Helper()

	if _, err := g.UpdateOrInsert(context.Background(), items); err != nil {
		t.Fatalf("UpdateOrInsert: %v", err)
	}
}

// MustGet loads a record or fails the test.
func MustGet(t testing.TB, g *graph.Store, id string) *resource.Item {
	t.Helper()

	item, err := g.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	return item
}

// RequireConsistent fails the test when the graph reports any issue.
func RequireConsistent(t testing.TB, g *graph.Store) {
	t.Helper()

	issues, err := g.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if len(issues) > 0 {
		t.Fatalf("graph inconsistent: %+v", issues)
	}
}

// Payloads returns the OS-backed payload store of cfg's media directory.
func Payloads(cfg *config.Config) *payload.Store {
	return payload.NewOS(cfg.Paths.MediaDir)
}

// MustWritePayload stores body as the payload of id.
func MustWritePayload(t testing.TB, cfg *config.Config, id, body string) {
	t.Helper()

	if _, _, err := Payloads(cfg).Write(id, strings.NewReader(body)); err != nil {
		t.Fatalf("write payload %s: %v", id, err)
	}
}
