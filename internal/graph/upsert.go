package graph

import (
	"context"
	"fmt"
	"slices"

	"reelforge/internal/logging"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// UpdateOrInsert writes items. For files it keeps group links consistent on
// both sides, resets a managed file's managed keys to its controller's and
// propagates a controller's managed keys to its dependents. It returns every
// id written.
func (s *Store) UpdateOrInsert(ctx context.Context, items []*resource.Item) ([]string, error) {
	v := s.newView()
	if err := s.stageUpserts(ctx, v, items); err != nil {
		return nil, err
	}
	if v.plan.Empty() {
		return nil, nil
	}
	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	return v.plan.UpsertIDs(), nil
}

func (s *Store) stageUpserts(ctx context.Context, v *view, items []*resource.Item) error {
	const op = "update or insert"
	incoming := make([]*resource.Item, 0, len(items))
	for _, raw := range items {
		if raw == nil || raw.ID == "" {
			return services.Wrap(services.ErrValidation, "graph", op, "resource id required", nil)
		}
		item := raw.Clone()
		switch item.Type {
		case resource.KindFile:
			if item.File == nil {
				item.File = &resource.FileFields{}
			}
			item.Group = nil
		case resource.KindGroup:
			if item.Group == nil {
				item.Group = &resource.GroupFields{}
			}
			item.File = nil
		default:
			return services.Wrap(services.ErrValidation, "graph", op, fmt.Sprintf("resource %q has unknown type %q", item.ID, item.Type), nil)
		}
		existing, err := v.get(ctx, item.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Type != item.Type {
			return services.Wrap(services.ErrTypeMismatch, "graph", op,
				fmt.Sprintf("resource %q is a %s and cannot become a %s", item.ID, existing.Type, item.Type), nil)
		}
		if item.IsFile() {
			if err := s.stageGroupLink(ctx, v, existing, item); err != nil {
				return err
			}
		}
		v.put(item)
		incoming = append(incoming, item)
	}

	for _, item := range incoming {
		if !item.IsFile() {
			continue
		}
		if err := v.syncFromController(ctx, item); err != nil {
			return err
		}
		if err := v.propagate(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// stageGroupLink moves item between group file lists when its
// resourceGroupId changed.
func (s *Store) stageGroupLink(ctx context.Context, v *view, existing, item *resource.Item) error {
	const op = "update or insert"
	before := ""
	if existing != nil {
		before = existing.GroupID()
	}
	after := item.GroupID()
	if before == after {
		if after == "" {
			return nil
		}
		group, err := v.get(ctx, after)
		if err != nil {
			return err
		}
		if group.IsGroup() && !slices.Contains(group.Group.Files, item.ID) {
			group.Group.Files = append(group.Group.Files, item.ID)
			v.put(group)
		}
		return nil
	}
	if before != "" {
		old, err := v.get(ctx, before)
		if err != nil {
			return err
		}
		if old.IsGroup() {
			old.Group.Files = removeID(old.Group.Files, item.ID)
			v.put(old)
		}
	}
	if after != "" {
		group, err := v.get(ctx, after)
		if err != nil {
			return err
		}
		if group == nil {
			return notFound(op, after)
		}
		if !group.IsGroup() {
			return typeMismatch(op, after, resource.KindGroup)
		}
		group.Group.Files = appendUnique(group.Group.Files, item.ID)
		v.put(group)
	}
	return nil
}

// Edit applies fn to a copy of one record and writes it through
// UpdateOrInsert.
func (s *Store) Edit(ctx context.Context, id string, fn func(*resource.Item) error) (*resource.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	if _, err := s.UpdateOrInsert(ctx, []*resource.Item{item}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Import runs the "before file imported" hooks over new files and writes the
// result together with the post-processing journal.
func (s *Store) Import(ctx context.Context, files []*resource.Item) ([]*resource.Item, error) {
	for _, file := range files {
		if !file.IsFile() {
			return nil, typeMismatch("import", file.ID, resource.KindFile)
		}
		if file.ImportTime.IsZero() {
			file.ImportTime = s.now().UTC()
		}
	}
	outcome, err := s.pipeline.BeforeFileImported(ctx, files)
	if err != nil {
		return nil, err
	}
	v := s.newView()
	if err := s.stageUpserts(ctx, v, outcome.Files); err != nil {
		s.discardDerived(ctx, files, outcome.Files)
		return nil, err
	}
	v.plan.Journal(outcome.Journal...)
	if err := s.apply(ctx, v.plan); err != nil {
		s.discardDerived(ctx, files, outcome.Files)
		return nil, err
	}
	for _, file := range outcome.Files {
		if !file.IsFile() {
			continue
		}
		s.logger.Info("resource imported",
			logging.String(logging.FieldResourceID, file.ID),
			logging.String("mime_type", file.File.MimeType),
			logging.Bool("post_processed", file.PostProcessed()),
		)
	}
	return outcome.Files, nil
}

// discardDerived drops the payloads hooks wrote for files that never made it
// into the graph. The caller owns the payloads of the files it passed in.
func (s *Store) discardDerived(ctx context.Context, inputs, produced []*resource.Item) {
	if s.payloads == nil {
		return
	}
	known := make(map[string]struct{}, len(inputs))
	for _, file := range inputs {
		known[file.ID] = struct{}{}
	}
	for _, file := range produced {
		if _, ok := known[file.ID]; ok || !file.IsFile() || !s.payloads.Exists(file.ID) {
			continue
		}
		if err := s.payloads.Remove(file.ID); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "payload removal failed", "payload_remove_failed",
				logging.String(logging.FieldResourceID, file.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file manually from the media directory"),
				logging.String(logging.FieldImpact, "orphaned payload left on disk"),
			)
		}
	}
}
