package resource_test

import (
	"slices"
	"testing"

	"reelforge/internal/resource"
)

func TestMergeTagsKeepsDependentPins(t *testing.T) {
	got := resource.MergeTags(
		[]string{"intro", "hd", "locked!"},
		[]string{"old", "mine!", "hd"},
	)
	want := []string{"intro", "hd", "mine!"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestApplyManagedKeysIsIdempotent(t *testing.T) {
	controller := resource.NewFile("c", "Controller")
	controller.Tags = []string{"a", "b"}
	controller.File.MimeType = "video/mp4"
	controller.File.CacheToHardDisk = true
	controller.EpisodeIDs = []string{"e1"}
	controller.SetURL("player-shell", "x")
	controller.ExtensionConfigurations = map[string]map[string]any{"video": {"loop": true}}

	dependent := resource.NewFile("d", "Derived")
	dependent.File.ManagedBy = "c"
	dependent.File.MimeType = "video/webm"
	dependent.Tags = []string{"keep!", "drop"}

	if changed := resource.ApplyManagedKeys(controller, dependent); !changed {
		t.Fatal("expected first application to change dependent")
	}
	first := dependent.Clone()
	if changed := resource.ApplyManagedKeys(controller, dependent); changed {
		t.Fatal("expected second application to be a no-op")
	}

	if dependent.Label != "Controller" || dependent.File.MimeType != "video/mp4" || !dependent.File.CacheToHardDisk {
		t.Fatalf("managed keys not applied: %+v %+v", dependent, dependent.File)
	}
	if !slices.Equal(dependent.Tags, []string{"a", "b", "keep!"}) {
		t.Fatalf("unexpected tags: %v", dependent.Tags)
	}
	if !slices.Equal(first.Tags, dependent.Tags) || first.File.URL["player-shell"] != dependent.File.URL["player-shell"] {
		t.Fatal("second application changed state")
	}
	if dependent.File.ManagedBy != "c" {
		t.Fatalf("managedBy must not be propagated, got %q", dependent.File.ManagedBy)
	}
}

func TestManagedKeysAllHaveSetters(t *testing.T) {
	controller := resource.NewFile("c", "")
	dependent := resource.NewFile("d", "")
	// Panics if a key lacks a setter.
	resource.ApplyManagedKeys(controller, dependent)
	if resource.ManagedKeysVersion != 1 {
		t.Fatalf("unexpected managed keys version %d", resource.ManagedKeysVersion)
	}
}
