package postprocess_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"reelforge/internal/docstore"
	"reelforge/internal/postprocess"
	"reelforge/internal/resource"
)

type renamer struct{ suffix string }

func (r renamer) ID() string { return "rename" + r.suffix }

func (r renamer) BeforeFileImported(_ context.Context, files []*resource.Item) ([]*resource.Item, error) {
	for _, f := range files {
		f.Label += r.suffix
		f.RecordOperation(r.ID(), "rename", f.ImportTime)
	}
	return files, nil
}

type passthrough struct{}

func (passthrough) ID() string { return "noop" }

func (passthrough) BeforeFileImported(context.Context, []*resource.Item) ([]*resource.Item, error) {
	return nil, nil
}

type failing struct{}

func (failing) ID() string { return "broken" }

func (failing) BeforeFileImported(context.Context, []*resource.Item) ([]*resource.Item, error) {
	return nil, errors.New("boom")
}

func TestImportHooksChainInOrder(t *testing.T) {
	pipeline := postprocess.NewPipeline(nil, nil, renamer{"-a"}, passthrough{}, renamer{"-b"})
	input := []*resource.Item{resource.NewFile("f1", "clip")}

	out, err := pipeline.BeforeFileImported(context.Background(), input)
	if err != nil {
		t.Fatalf("BeforeFileImported: %v", err)
	}
	if got := out.Files[0].Label; got != "clip-a-b" {
		t.Fatalf("unexpected label %q", got)
	}
	if input[0].Label != "clip" {
		t.Fatalf("pipeline mutated caller input: %q", input[0].Label)
	}
	if len(out.Journal) != 2 || out.Journal[0].ExtensionID != "rename-a" || out.Journal[1].ExtensionID != "rename-b" {
		t.Fatalf("unexpected journal: %+v", out.Journal)
	}
}

func TestFailingProcessorAbortsWithoutOutput(t *testing.T) {
	pipeline := postprocess.NewPipeline(nil, nil, renamer{"-a"}, failing{})
	input := []*resource.Item{resource.NewFile("f1", "clip")}

	out, err := pipeline.BeforeFileImported(context.Background(), input)
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Fatalf("expected no outcome, got %+v", out)
	}
	if input[0].Label != "clip" || input[0].PostProcessed() {
		t.Fatalf("caller input modified: %+v", input[0])
	}
}

func TestPosterPicksFirstImage(t *testing.T) {
	pipeline := postprocess.NewPipeline(nil, nil, postprocess.Poster{})
	video := resource.NewFile("v", "")
	video.File.MimeType = "video/mp4"
	image := resource.NewFile("i", "")
	image.File.MimeType = "image/png"
	group := resource.NewGroup("g", "", "v", "i")

	out, err := pipeline.AfterGroupCreated(context.Background(), []*resource.Item{video, image}, group)
	if err != nil {
		t.Fatalf("AfterGroupCreated: %v", err)
	}
	if out.Group.Group.ThumbnailSrc != "i" {
		t.Fatalf("unexpected thumbnail %q", out.Group.Group.ThumbnailSrc)
	}
	if group.Group.ThumbnailSrc != "" {
		t.Fatal("caller group mutated")
	}
	if len(out.Files) != 2 {
		t.Fatalf("expected files passed through, got %d", len(out.Files))
	}
}

func TestPreviewRedirectDropsDanglingTargets(t *testing.T) {
	docs, err := docstore.Open(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	defer docs.Close()
	ctx := context.Background()

	stored := resource.NewFile("stored", "")
	removed := resource.NewFile("gone", "")
	removed.Removed = true
	for _, item := range []*resource.Item{stored, removed} {
		if err := docs.Put(ctx, docstore.Resources, item.ID, item); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	toStored := resource.NewFile("a", "")
	toStored.File.RedirectTo = "stored"
	toRemoved := resource.NewFile("b", "")
	toRemoved.File.RedirectTo = "gone"
	toMissing := resource.NewFile("c", "")
	toMissing.File.RedirectTo = "nowhere"
	plain := resource.NewFile("d", "")

	pipeline := postprocess.NewPipeline(docs, nil, &postprocess.PreviewRedirect{Docs: docs})
	out, err := pipeline.BeforePreviewResourceMetadataDelivered(ctx, []*resource.Item{toStored, toRemoved, toMissing, plain})
	if err != nil {
		t.Fatalf("preview hook: %v", err)
	}
	var ids []string
	for _, item := range out {
		ids = append(ids, item.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "d" {
		t.Fatalf("unexpected preview resources: %v", ids)
	}
}

func TestRecordWritesJournal(t *testing.T) {
	docs, err := docstore.Open(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	defer docs.Close()
	ctx := context.Background()

	pipeline := postprocess.NewPipeline(docs, nil, renamer{"-a"})
	out, err := pipeline.BeforeFileImported(ctx, []*resource.Item{resource.NewFile("f1", "clip")})
	if err != nil {
		t.Fatalf("BeforeFileImported: %v", err)
	}
	if err := pipeline.Record(ctx, out.Journal); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := postprocess.Journal(ctx, docs, "f1")
	if err != nil {
		t.Fatalf("Journal: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "rename" || entries[0].ID == "" {
		t.Fatalf("unexpected journal entries: %+v", entries)
	}
}
