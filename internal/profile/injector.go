package profile

import (
	"strings"

	"reelforge/internal/resource"
	"reelforge/internal/series"
)

// Placeholders substituted by injectors. Matching is case-sensitive.
const (
	PlaceholderResourceID = "$resourceId"
	PlaceholderHTMLPath   = "$htmlPath"
)

// Injector writes Pattern, with its placeholder replaced, under Key.
type Injector struct {
	Key     string
	Pattern string
	// Filter restricts resource injection; nil accepts every file.
	Filter func(*resource.Item) bool
}

// InjectResources sets url[Key] on every file in items accepted by Filter.
// Other keys are left untouched. Groups are skipped.
func (in Injector) InjectResources(items []*resource.Item) []*resource.Item {
	for _, item := range items {
		if !item.IsFile() {
			continue
		}
		if in.Filter != nil && !in.Filter(item) {
			continue
		}
		item.SetURL(in.Key, strings.ReplaceAll(in.Pattern, PlaceholderResourceID, item.ID))
	}
	return items
}

// InjectEntryPoints sets entryPoints[Key] on every act point.
func (in Injector) InjectEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	for _, point := range points {
		point.SetEntryPoint(in.Key, strings.ReplaceAll(in.Pattern, PlaceholderHTMLPath, point.HTMLPath()))
	}
	return points
}

// CachedOnly accepts files marked for local caching.
func CachedOnly(item *resource.Item) bool {
	return item.IsFile() && item.File.CacheToHardDisk
}

func cloneItems(items []*resource.Item) []*resource.Item {
	out := make([]*resource.Item, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

func clonePoints(points []*series.ActPoint) []*series.ActPoint {
	out := make([]*series.ActPoint, 0, len(points))
	for _, point := range points {
		out = append(out, point.Clone())
	}
	return out
}
