package main

import (
	"path/filepath"
	"testing"

	"reelforge/internal/testsupport"
)

type importedItem struct {
	Item struct {
		ID    string   `json:"id"`
		Label string   `json:"label"`
		Tags  []string `json:"tags"`
	} `json:"item"`
	Error string `json:"error"`
}

func importFiles(t *testing.T, env *cliTestEnv, names ...string) []importedItem {
	t.Helper()
	args := []string{"resource", "import"}
	for _, name := range names {
		path := filepath.Join(env.baseDir, "incoming", name)
		testsupport.WriteFile(t, path, 2048)
		args = append(args, path)
	}
	var out []importedItem
	runJSON(t, env, &out, args...)
	if len(out) != len(names) {
		t.Fatalf("expected %d outcomes, got %d", len(names), len(out))
	}
	for _, o := range out {
		if o.Error != "" || o.Item.ID == "" {
			t.Fatalf("import failed: %+v", o)
		}
	}
	return out
}

func TestResourceImportListAndTags(t *testing.T) {
	env := setupCLITestEnv(t)
	imported := importFiles(t, env, "Opening_Scene.mp4", "ending.mp4")
	id := imported[0].Item.ID

	var listed []struct {
		ID string `json:"id"`
	}
	runJSON(t, env, &listed, "resource", "list", "--type", "file")
	if len(listed) != 2 {
		t.Fatalf("expected 2 files, got %d", len(listed))
	}

	var edited struct {
		Tags []string `json:"tags"`
	}
	runJSON(t, env, &edited, "resource", "edit-tags", id, "--add", "hero", "--add", "intro!")
	if len(edited.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", edited.Tags)
	}

	out, _, err := runCLI(t, []string{"resource", "list", "--tag", "hero"}, env.configPath)
	if err != nil {
		t.Fatalf("resource list: %v", err)
	}
	requireContains(t, out, id)
}

func TestResourceMergeRemoveRestoreCheck(t *testing.T) {
	env := setupCLITestEnv(t)
	imported := importFiles(t, env, "a.mp4", "b.mp4")
	a, b := imported[0].Item.ID, imported[1].Item.ID

	var group struct {
		ID    string   `json:"id"`
		Files []string `json:"files"`
	}
	runJSON(t, env, &group, "resource", "merge", a, b)
	if len(group.Files) != 2 {
		t.Fatalf("expected merged group with 2 files, got %v", group.Files)
	}

	var removed struct {
		IDs []string `json:"ids"`
	}
	runJSON(t, env, &removed, "resource", "remove", group.ID)
	if len(removed.IDs) != 3 {
		t.Fatalf("expected group and both members removed, got %v", removed.IDs)
	}

	var visible []struct {
		ID string `json:"id"`
	}
	runJSON(t, env, &visible, "resource", "list")
	if len(visible) != 0 {
		t.Fatalf("expected removed resources hidden, got %d", len(visible))
	}

	runJSON(t, env, &removed, "resource", "restore", group.ID)
	if len(removed.IDs) != 3 {
		t.Fatalf("expected restore to cover group and members, got %v", removed.IDs)
	}

	out, _, err := runCLI(t, []string{"resource", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("resource check: %v", err)
	}
	requireContains(t, out, "consistent")
}

func TestResourceShowMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"resource", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown resource")
	}
}
