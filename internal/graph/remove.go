package graph

import (
	"context"

	"reelforge/internal/logging"
	"reelforge/internal/resource"
)

// MarkRemoved soft-removes a record. Removing a group also removes every
// member file. Records and payloads stay in place. Files managed by a removed
// file are left as they are.
func (s *Store) MarkRemoved(ctx context.Context, id string) ([]string, error) {
	return s.setRemoved(ctx, "mark removed", id, true)
}

// Restore undoes MarkRemoved for a record and, for a group, its members.
func (s *Store) Restore(ctx context.Context, id string) ([]string, error) {
	return s.setRemoved(ctx, "restore", id, false)
}

func (s *Store) setRemoved(ctx context.Context, op, id string, removed bool) ([]string, error) {
	v := s.newView()
	item, err := v.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound(op, id)
	}

	targets := []*resource.Item{item}
	if item.IsGroup() {
		members, err := v.members(ctx, item)
		if err != nil {
			return nil, err
		}
		targets = append(targets, members...)
	}

	at := s.now().UTC()
	var changed []string
	for _, target := range targets {
		if target.Removed == removed {
			continue
		}
		target.Removed = removed
		if removed {
			t := at
			target.RemovedTime = &t
		} else {
			target.RemovedTime = nil
		}
		v.put(target)
		changed = append(changed, target.ID)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	return changed, nil
}

// HardRemove deletes a record and its payload and thumbnail. Deleting a group
// deletes its member files too. A deleted file leaves its group's file list,
// and files it managed become unmanaged. Payload deletion failures are
// logged, not returned.
func (s *Store) HardRemove(ctx context.Context, id string) ([]string, error) {
	const op = "hard remove"
	v := s.newView()
	item, err := v.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound(op, id)
	}

	var targets []*resource.Item
	if item.IsGroup() {
		members, err := v.members(ctx, item)
		if err != nil {
			return nil, err
		}
		targets = append(targets, members...)
	}
	targets = append(targets, item)

	deleting := make(map[string]bool, len(targets))
	for _, target := range targets {
		deleting[target.ID] = true
	}

	var removed []string
	for _, target := range targets {
		if target.IsFile() {
			if groupID := target.GroupID(); groupID != "" && !deleting[groupID] {
				v.detach(ctx, target)
			}
			deps, err := v.dependents(ctx, target.ID)
			if err != nil {
				return nil, err
			}
			for _, dep := range deps {
				if deleting[dep.ID] {
					continue
				}
				dep.File.ManagedBy = ""
				v.put(dep)
			}
		}
		v.delete(target.ID)
		v.plan.RemovePayload(target.ID)
		removed = append(removed, target.ID)
	}

	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	s.logger.Info("resource deleted",
		logging.String(logging.FieldResourceID, id),
		logging.Int("records", len(removed)),
	)
	return removed, nil
}
