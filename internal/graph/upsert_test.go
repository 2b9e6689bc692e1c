package graph_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"reelforge/internal/docstore"
	"reelforge/internal/graph"
	"reelforge/internal/postprocess"
	"reelforge/internal/resource"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

func TestControllerUpdatePropagatesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	ctx := context.Background()

	controller := testsupport.File("c", "video/mp4")
	controller.Tags = []string{"a"}
	dependent := testsupport.Managed("d", "c")
	dependent.Tags = []string{"mine!"}
	testsupport.PutItems(t, g, controller, dependent)

	update := func() *resource.Item {
		t.Helper()
		edited, err := g.Edit(ctx, "c", func(item *resource.Item) error {
			item.Label = "Renamed"
			item.Tags = []string{"b", "pinned-upstream!"}
			item.File.CacheToHardDisk = true
			item.SetURL("player-shell", "reelforge://c")
			return nil
		})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if edited.Label != "Renamed" {
			t.Fatalf("unexpected controller label %q", edited.Label)
		}
		return testsupport.MustGet(t, g, "d")
	}

	first := update()
	second := update()

	if first.Label != "Renamed" || !first.File.CacheToHardDisk || first.File.URL["player-shell"] != "reelforge://c" {
		t.Fatalf("managed keys not propagated: %+v %+v", first, first.File)
	}
	if !slices.Equal(first.Tags, []string{"b", "mine!"}) {
		t.Fatalf("unexpected dependent tags: %v", first.Tags)
	}
	if !slices.Equal(first.Tags, second.Tags) || first.Label != second.Label ||
		first.File.URL["player-shell"] != second.File.URL["player-shell"] {
		t.Fatalf("propagation not idempotent: %+v vs %+v", first, second)
	}
	if first.File.ManagedBy != "c" {
		t.Fatalf("dependent lost its controller: %q", first.File.ManagedBy)
	}
}

func TestDirectEditOfManagedKeysIsDiscarded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	ctx := context.Background()
	testsupport.PutItems(t, g, testsupport.File("c", "video/mp4"), testsupport.Managed("d", "c"))

	edited, err := g.Edit(ctx, "d", func(item *resource.Item) error {
		item.Label = "hacked"
		item.Tags = []string{"x", "keep!"}
		item.File.Duration = testsupport.Seconds(3)
		return nil
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Label != "c" {
		t.Fatalf("managed label should follow controller, got %q", edited.Label)
	}
	if !slices.Equal(edited.Tags, []string{"keep!"}) {
		t.Fatalf("expected only pinned tag kept, got %v", edited.Tags)
	}
	if edited.File.Duration == nil || *edited.File.Duration != 3 {
		t.Fatal("unmanaged fields must stay editable")
	}
}

func TestUpdateOrInsertRejectsTypeChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	testsupport.PutItems(t, g, testsupport.File("x", "video/mp4"))

	_, err := g.UpdateOrInsert(context.Background(), []*resource.Item{resource.NewGroup("x", "x")})
	if !errors.Is(err, services.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestUpdateOrInsertMovesGroupLink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	ctx := context.Background()
	testsupport.PutItems(t, g,
		testsupport.Group("g1"),
		testsupport.Group("g2"),
		testsupport.InGroup(testsupport.File("f1", "video/mp4"), "g1"),
	)

	if _, err := g.Edit(ctx, "f1", func(item *resource.Item) error {
		item.File.ResourceGroupID = "g2"
		return nil
	}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if files := testsupport.MustGet(t, g, "g1").Group.Files; len(files) != 0 {
		t.Fatalf("expected g1 empty, got %v", files)
	}
	if files := testsupport.MustGet(t, g, "g2").Group.Files; !slices.Equal(files, []string{"f1"}) {
		t.Fatalf("expected g2 to list f1, got %v", files)
	}
	testsupport.RequireConsistent(t, g)

	_, err := g.Edit(ctx, "f1", func(item *resource.Item) error {
		item.File.ResourceGroupID = "missing"
		return nil
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown group, got %v", err)
	}
}

type tagger struct{}

func (tagger) ID() string { return "tagger" }

func (tagger) BeforeFileImported(_ context.Context, files []*resource.Item) ([]*resource.Item, error) {
	for _, f := range files {
		f.Tags = append(f.Tags, "imported")
		f.RecordOperation("tagger", "tag", f.ImportTime)
	}
	return files, nil
}

type rejecter struct{}

func (rejecter) ID() string { return "rejecter" }

func (rejecter) BeforeFileImported(context.Context, []*resource.Item) ([]*resource.Item, error) {
	return nil, errors.New("unsupported codec")
}

func TestImportRunsHooksAndJournals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg, tagger{})
	ctx := context.Background()

	imported, err := g.Import(ctx, []*resource.Item{testsupport.File("f1", "video/mp4")})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(imported) != 1 || !slices.Contains(imported[0].Tags, "imported") {
		t.Fatalf("unexpected import result: %+v", imported)
	}
	stored := testsupport.MustGet(t, g, "f1")
	if stored.ImportTime.IsZero() || !stored.PostProcessed() {
		t.Fatalf("expected import time and post-process record, got %+v", stored)
	}
	entries, err := postprocess.Journal(ctx, g.Docs(), "f1")
	if err != nil {
		t.Fatalf("Journal: %v", err)
	}
	if len(entries) != 1 || entries[0].ExtensionID != "tagger" {
		t.Fatalf("unexpected journal: %+v", entries)
	}
}

func TestImportFailureLeavesNoRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg, tagger{}, rejecter{})
	ctx := context.Background()

	if _, err := g.Import(ctx, []*resource.Item{testsupport.File("f1", "video/mp4")}); err == nil {
		t.Fatal("expected import to fail")
	}
	if _, err := g.Get(ctx, "f1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected no record after failed import, got %v", err)
	}
	count, err := g.Docs().Count(ctx, docstore.PostProcessed)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty journal, got %d entries", count)
	}
}

func TestCheckConsistencyReportsBrokenLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	ctx := context.Background()

	broken := resource.NewGroup("g1", "g1", "ghost")
	if err := g.Docs().Put(ctx, docstore.Resources, broken.ID, broken); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stray := testsupport.InGroup(testsupport.File("f1", "video/mp4"), "g1")
	if err := g.Docs().Put(ctx, docstore.Resources, stray.ID, stray); err != nil {
		t.Fatalf("Put: %v", err)
	}

	issues, err := g.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", issues)
	}
	for _, issue := range issues {
		if issue.ResourceID != "g1" {
			t.Fatalf("unexpected issue subject: %+v", issue)
		}
	}
}

func TestListFiltersRemovedAndEpisodes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	ctx := context.Background()

	global := testsupport.File("global", "video/mp4")
	scoped := testsupport.File("scoped", "video/mp4")
	scoped.EpisodeIDs = []string{"e1"}
	other := testsupport.File("other", "video/mp4")
	other.EpisodeIDs = []string{"e2"}
	testsupport.PutItems(t, g, global, scoped, other, testsupport.Group("g1"))
	if _, err := g.MarkRemoved(ctx, "other"); err != nil {
		t.Fatalf("MarkRemoved: %v", err)
	}

	files, err := g.List(ctx, graph.Filter{Type: resource.KindFile, EpisodeID: "e1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	if !slices.Equal(ids, []string{"global", "scoped"}) {
		t.Fatalf("unexpected listing: %v", ids)
	}

	all, err := g.List(ctx, graph.Filter{IncludeRemoved: true})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
}
