package resource

import (
	"maps"
	"reflect"
	"slices"
	"strings"
)

// ManagedKeysVersion identifies the revision of ManagedKeys. Bump it when the
// list changes so stored dependents can be re-synchronized.
const ManagedKeysVersion = 1

// ManagedKeys lists the fields a controller file overwrites on every file it
// manages, in application order.
var ManagedKeys = []string{
	"label",
	"tags",
	"url",
	"mimeType",
	"episodeIds",
	"cacheToHardDisk",
	"preloadLevel",
	"preloadTriggers",
	"extensionConfigurations",
}

var managedSetters = map[string]func(dst, src *Item){
	"label": func(dst, src *Item) { dst.Label = src.Label },
	"tags":  func(dst, src *Item) { dst.Tags = MergeTags(src.Tags, dst.Tags) },
	"url": func(dst, src *Item) {
		dst.File.URL = maps.Clone(src.File.URL)
	},
	"mimeType":   func(dst, src *Item) { dst.File.MimeType = src.File.MimeType },
	"episodeIds": func(dst, src *Item) { dst.EpisodeIDs = slices.Clone(src.EpisodeIDs) },
	"cacheToHardDisk": func(dst, src *Item) {
		dst.File.CacheToHardDisk = src.File.CacheToHardDisk
	},
	"preloadLevel": func(dst, src *Item) { dst.File.PreloadLevel = src.File.PreloadLevel },
	"preloadTriggers": func(dst, src *Item) {
		dst.File.PreloadTriggers = slices.Clone(src.File.PreloadTriggers)
	},
	"extensionConfigurations": func(dst, src *Item) {
		dst.ExtensionConfigurations = cloneConfigurations(src.ExtensionConfigurations)
	},
}

// ApplyManagedKeys copies every managed key from controller onto dependent
// and reports whether anything changed. Both must be files.
func ApplyManagedKeys(controller, dependent *Item) bool {
	if !controller.IsFile() || !dependent.IsFile() {
		return false
	}
	before := dependent.Clone()
	for _, key := range ManagedKeys {
		managedSetters[key](dependent, controller)
	}
	return !sameManagedKeys(before, dependent)
}

// IsPinned reports whether tag carries the pin suffix.
func IsPinned(tag string) bool {
	return strings.HasSuffix(tag, PinSuffix)
}

// MergeTags returns the controller's non-pinned tags followed by the
// dependent's pinned tags, de-duplicated in order.
func MergeTags(controller, dependent []string) []string {
	out := make([]string, 0, len(controller)+len(dependent))
	seen := make(map[string]struct{}, cap(out))
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range controller {
		if !IsPinned(tag) {
			add(tag)
		}
	}
	for _, tag := range dependent {
		if IsPinned(tag) {
			add(tag)
		}
	}
	return out
}

func sameManagedKeys(a, b *Item) bool {
	if a.Label != b.Label ||
		!slices.Equal(a.Tags, b.Tags) ||
		!maps.Equal(a.File.URL, b.File.URL) ||
		a.File.MimeType != b.File.MimeType ||
		!slices.Equal(a.EpisodeIDs, b.EpisodeIDs) ||
		a.File.CacheToHardDisk != b.File.CacheToHardDisk ||
		a.File.PreloadLevel != b.File.PreloadLevel ||
		!slices.Equal(a.File.PreloadTriggers, b.File.PreloadTriggers) {
		return false
	}
	return configurationsEqual(a.ExtensionConfigurations, b.ExtensionConfigurations)
}

func configurationsEqual(a, b map[string]map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for ext, av := range a {
		bv, ok := b[ext]
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !reflect.DeepEqual(x, y) {
				return false
			}
		}
	}
	return true
}
