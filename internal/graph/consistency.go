package graph

import (
	"context"
	"fmt"
	"sort"

	"reelforge/internal/docstore"
	"reelforge/internal/resource"
)

// Issue is one disagreement found by CheckConsistency.
type Issue struct {
	ResourceID string
	Problem    string
}

// CheckConsistency verifies every group/file link and managed-by reference
// and returns the problems found, ordered by resource id.
func (s *Store) CheckConsistency(ctx context.Context) ([]Issue, error) {
	items, err := docstore.FindAll[resource.Item](ctx, s.docs, docstore.Resources)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*resource.Item, len(items))
	pointing := make(map[string]map[string]bool)
	for _, item := range items {
		byID[item.ID] = item
		if gid := item.GroupID(); gid != "" {
			if pointing[gid] == nil {
				pointing[gid] = make(map[string]bool)
			}
			pointing[gid][item.ID] = true
		}
	}

	var issues []Issue
	report := func(id, format string, args ...any) {
		issues = append(issues, Issue{ResourceID: id, Problem: fmt.Sprintf(format, args...)})
	}

	for _, item := range items {
		switch {
		case item.IsGroup():
			listed := make(map[string]bool, len(item.Group.Files))
			for _, fid := range item.Group.Files {
				if listed[fid] {
					report(item.ID, "file %s listed more than once", fid)
					continue
				}
				listed[fid] = true
				member, ok := byID[fid]
				switch {
				case !ok:
					report(item.ID, "lists missing file %s", fid)
				case !member.IsFile():
					report(item.ID, "lists %s which is not a file", fid)
				case member.GroupID() != item.ID:
					report(item.ID, "lists file %s whose group is %q", fid, member.GroupID())
				}
			}
			for fid := range pointing[item.ID] {
				if !listed[fid] {
					report(item.ID, "does not list file %s that points at it", fid)
				}
			}
		case item.IsFile():
			if gid := item.GroupID(); gid != "" {
				group, ok := byID[gid]
				switch {
				case !ok:
					report(item.ID, "points at missing group %s", gid)
				case !group.IsGroup():
					report(item.ID, "points at %s which is not a group", gid)
				}
			}
			if cid := item.Controller(); cid != "" {
				controller, ok := byID[cid]
				switch {
				case !ok:
					report(item.ID, "managed by missing file %s", cid)
				case !controller.IsFile():
					report(item.ID, "managed by %s which is not a file", cid)
				}
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].ResourceID != issues[j].ResourceID {
			return issues[i].ResourceID < issues[j].ResourceID
		}
		return issues[i].Problem < issues[j].Problem
	})
	return issues, nil
}
