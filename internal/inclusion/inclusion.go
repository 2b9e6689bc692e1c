// Package inclusion decides which resources ship inside a distributable
// bundle for a given offline availability setting.
package inclusion

import (
	"fmt"

	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// Offline availability levels.
const (
	Bare    = "bare"
	Partial = "partial"
	Full    = "full"
)

// IncludedInBundle reports whether item is packaged into a bundle built from
// media release mediaReleaseID. It depends only on its arguments. Groups are
// never included on their own; their included files represent them. An
// unknown availability is an ErrInvalidConfiguration.
func IncludedInBundle(item *resource.Item, mediaReleaseID int64, availability string) (bool, error) {
	if err := checkAvailability("included in bundle", availability); err != nil {
		return false, err
	}
	if item == nil || !item.IsFile() || item.Removed {
		return false, nil
	}
	if availability == Bare {
		return false, nil
	}
	if !passesPostProcessCheck(item, mediaReleaseID) {
		return false, nil
	}
	if item.Redirected() {
		return false, nil
	}
	if availability == Partial {
		return len(item.EpisodeIDs) == 0 && item.File.CacheToHardDisk, nil
	}
	return true, nil
}

// passesPostProcessCheck admits unprocessed files and processed files whose
// output was snapshotted by mediaReleaseID.
func passesPostProcessCheck(item *resource.Item, mediaReleaseID int64) bool {
	if !item.PostProcessed() {
		return true
	}
	return item.File.PostProcessRecord.ContainsMediaRelease(mediaReleaseID)
}

func checkAvailability(op, availability string) error {
	switch availability {
	case Bare, Partial, Full:
		return nil
	}
	return services.Wrap(services.ErrInvalidConfiguration, "inclusion", op,
		fmt.Sprintf("unknown offline availability %q", availability), nil)
}

// Filter returns the items of list included in the bundle, in order. The
// availability is checked even when list is empty.
func Filter(list []*resource.Item, mediaReleaseID int64, availability string) ([]*resource.Item, error) {
	if err := checkAvailability("filter", availability); err != nil {
		return nil, err
	}
	out := make([]*resource.Item, 0, len(list))
	for _, item := range list {
		ok, err := IncludedInBundle(item, mediaReleaseID, availability)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}
