package graph

import (
	"context"
	"slices"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

// AddOptions tunes AddFileToGroup.
type AddOptions struct {
	// BypassManaged moves a managed file itself instead of redirecting the
	// move to its controller.
	BypassManaged bool
}

// AddFileToGroup moves a file into a group, detaching it from any prior
// group. A managed file is redirected to its controller unless bypassed.
// Files managed by the moved file follow it. The returned ids are the files
// actually moved; an empty result means the file was already there.
func (s *Store) AddFileToGroup(ctx context.Context, fileID, groupID string, opts AddOptions) ([]string, error) {
	const op = "add file to group"
	v := s.newView()

	file, err := v.get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, notFound(op, fileID)
	}
	if !file.IsFile() {
		return nil, typeMismatch(op, fileID, resource.KindFile)
	}
	group, err := v.get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, notFound(op, groupID)
	}
	if !group.IsGroup() {
		return nil, typeMismatch(op, groupID, resource.KindGroup)
	}

	if controllerID := file.Controller(); controllerID != "" && !opts.BypassManaged {
		controller, err := v.get(ctx, controllerID)
		if err != nil {
			return nil, err
		}
		if controller == nil {
			return nil, notFound(op, controllerID)
		}
		if !controller.IsFile() {
			return nil, typeMismatch(op, controllerID, resource.KindFile)
		}
		s.logger.Debug("redirecting group move to controller",
			logging.String(logging.FieldResourceID, fileID),
			logging.String("controller", controllerID),
		)
		file = controller
	}

	var moved []string
	if file.GroupID() != groupID {
		v.attach(ctx, file, group)
		moved = append(moved, file.ID)
	}
	deps, err := v.allDependents(ctx, file.ID)
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		if dep.GroupID() == groupID {
			continue
		}
		v.attach(ctx, dep, group)
		moved = append(moved, dep.ID)
	}
	if len(moved) == 0 {
		return nil, nil
	}
	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	return moved, nil
}

// RemoveFileFromGroup detaches a file from its group. With cascadeManaged,
// every file it transitively manages is detached too.
func (s *Store) RemoveFileFromGroup(ctx context.Context, fileID string, cascadeManaged bool) ([]string, error) {
	const op = "remove file from group"
	v := s.newView()

	file, err := v.get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, notFound(op, fileID)
	}
	if !file.IsFile() {
		return nil, typeMismatch(op, fileID, resource.KindFile)
	}

	var detached []string
	if v.detach(ctx, file) {
		detached = append(detached, file.ID)
	}
	if cascadeManaged {
		deps, err := v.allDependents(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if v.detach(ctx, dep) {
				detached = append(detached, dep.ID)
			}
		}
	}
	if len(detached) == 0 {
		return nil, nil
	}
	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	s.logger.Info("file removed from group",
		logging.String(logging.FieldResourceID, fileID),
		logging.IDs("detached", detached),
	)
	return detached, nil
}

// MergeIntoGroup flattens the files behind ids (files directly, groups by
// membership) into one new group tagged groupTag. The source groups are
// deleted. The "after group created" hooks run before anything is written.
func (s *Store) MergeIntoGroup(ctx context.Context, ids []string, groupTag string) (*resource.Item, error) {
	const op = "merge into group"
	v := s.newView()

	var files []*resource.Item
	seen := make(map[string]bool)
	oldGroups := make(map[string]bool)
	add := func(item *resource.Item) {
		if !seen[item.ID] {
			seen[item.ID] = true
			files = append(files, item)
		}
	}
	for _, id := range ids {
		item, err := v.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, notFound(op, id)
		}
		if item.IsGroup() {
			oldGroups[item.ID] = true
			members, err := v.members(ctx, item)
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				add(member)
			}
			continue
		}
		add(item)
	}
	for _, file := range append([]*resource.Item(nil), files...) {
		deps, err := v.allDependents(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			add(dep)
		}
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrValidation, "graph", op, "no files to merge", nil)
	}

	group := resource.NewGroup(s.newID(), files[0].Label)
	group.ImportTime = s.now().UTC()
	if tag := strings.TrimSpace(groupTag); tag != "" {
		group.Tags = []string{tag}
	}
	v.put(group)
	for id := range oldGroups {
		v.delete(id)
	}
	for _, file := range files {
		if prior := file.GroupID(); prior != "" && !oldGroups[prior] {
			v.detach(ctx, file)
		}
		file.File.ResourceGroupID = group.ID
		group.Group.Files = appendUnique(group.Group.Files, file.ID)
	}

	outcome, err := s.pipeline.AfterGroupCreated(ctx, files, group)
	if err != nil {
		return nil, err
	}
	reconcileMerge(v, files, outcome.Files, outcome.Group)
	v.plan.Journal(outcome.Journal...)

	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	s.logger.Info("group created",
		logging.String(logging.FieldResourceID, outcome.Group.ID),
		logging.IDs("files", outcome.Group.Group.Files),
		logging.Int("merged_groups", len(oldGroups)),
	)
	return outcome.Group, nil
}

// reconcileMerge stages what the group hooks returned. Files a hook dropped
// leave the group ungrouped, and the group lists exactly the returned files
// that point at it, keeping the hook's order.
func reconcileMerge(v *view, staged, returned []*resource.Item, group *resource.Item) {
	kept := make(map[string]bool, len(returned))
	members := make(map[string]bool, len(returned))
	for _, file := range returned {
		kept[file.ID] = true
		if file.IsFile() && file.GroupID() == group.ID {
			members[file.ID] = true
		}
		v.put(file)
	}
	for _, file := range staged {
		if kept[file.ID] {
			continue
		}
		file.File.ResourceGroupID = ""
		v.put(file)
	}

	listed := make([]string, 0, len(members))
	for _, id := range group.Group.Files {
		if members[id] && !slices.Contains(listed, id) {
			listed = append(listed, id)
		}
	}
	for _, file := range returned {
		if members[file.ID] {
			listed = appendUnique(listed, file.ID)
		}
	}
	group.Group.Files = listed
	v.put(group)
}

// SplitGroup detaches every member of each group and deletes the group
// records. It returns the detached file ids.
func (s *Store) SplitGroup(ctx context.Context, groupIDs []string) ([]string, error) {
	const op = "split group"
	v := s.newView()

	var detached []string
	for _, id := range groupIDs {
		group, err := v.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, notFound(op, id)
		}
		if !group.IsGroup() {
			return nil, typeMismatch(op, id, resource.KindGroup)
		}
		members, err := v.members(ctx, group)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			if member.GroupID() == id {
				member.File.ResourceGroupID = ""
				v.put(member)
				detached = append(detached, member.ID)
			}
		}
		v.delete(id)
	}
	if err := s.apply(ctx, v.plan); err != nil {
		return nil, err
	}
	s.logger.Info("groups split",
		logging.IDs("groups", groupIDs),
		logging.IDs("detached", detached),
	)
	return detached, nil
}

// attach points file at group, detaching it from a different prior group.
func (v *view) attach(ctx context.Context, file, group *resource.Item) {
	if prior := file.GroupID(); prior != "" && prior != group.ID {
		v.detach(ctx, file)
	}
	file.File.ResourceGroupID = group.ID
	group.Group.Files = appendUnique(group.Group.Files, file.ID)
	v.put(file)
	v.put(group)
}

// detach clears file's group link and drops it from the group's list. It
// reports whether the file was in a group.
func (v *view) detach(ctx context.Context, file *resource.Item) bool {
	groupID := file.GroupID()
	if groupID == "" {
		return false
	}
	group, err := v.get(ctx, groupID)
	switch {
	case err != nil:
		v.store.logger.Debug("detaching from unreadable group", logging.String("group", groupID), logging.Error(err))
	case group.IsGroup():
		group.Group.Files = removeID(group.Group.Files, file.ID)
		v.put(group)
	default:
		v.store.logger.Debug("detaching from missing group", logging.String("group", groupID), logging.String(logging.FieldResourceID, file.ID))
	}
	file.File.ResourceGroupID = ""
	v.put(file)
	return true
}
