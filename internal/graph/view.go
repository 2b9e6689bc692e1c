package graph

import (
	"context"

	"reelforge/internal/docstore"
	"reelforge/internal/resource"
)

// view is the staging area of one operation: records read from the store are
// cached here, mutated in place and staged into the plan.
type view struct {
	store   *Store
	items   map[string]*resource.Item
	deleted map[string]bool
	plan    *Plan
}

func (s *Store) newView() *view {
	return &view{
		store:   s,
		items:   make(map[string]*resource.Item),
		deleted: make(map[string]bool),
		plan:    newPlan(),
	}
}

// get returns the view's copy of id, or nil when it does not exist.
func (v *view) get(ctx context.Context, id string) (*resource.Item, error) {
	if id == "" || v.deleted[id] {
		return nil, nil
	}
	if item, ok := v.items[id]; ok {
		return item, nil
	}
	item, err := docstore.GetOne[resource.Item](ctx, v.store.docs, docstore.Resources, id)
	if err != nil || item == nil {
		return nil, err
	}
	v.items[id] = item
	return item, nil
}

func (v *view) put(item *resource.Item) {
	v.items[item.ID] = item
	delete(v.deleted, item.ID)
	v.plan.Put(item)
}

func (v *view) delete(id string) {
	delete(v.items, id)
	v.deleted[id] = true
	v.plan.Delete(id)
}

// find returns the records matching pred in the store, overlaid with staged
// changes. match must agree with pred on stored records and is used to decide
// whether staged records belong in the result.
func (v *view) find(ctx context.Context, pred docstore.Predicate, match func(*resource.Item) bool) ([]*resource.Item, error) {
	stored, err := docstore.FindAll[resource.Item](ctx, v.store.docs, docstore.Resources, pred)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	var out []*resource.Item
	for _, item := range stored {
		seen[item.ID] = true
		if v.deleted[item.ID] {
			continue
		}
		if cached, ok := v.items[item.ID]; ok {
			item = cached
		} else {
			v.items[item.ID] = item
		}
		if match(item) {
			out = append(out, item)
		}
	}
	for _, id := range v.plan.order {
		if seen[id] {
			continue
		}
		if item := v.items[id]; item != nil && match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// dependents returns the files directly managed by id.
func (v *view) dependents(ctx context.Context, id string) ([]*resource.Item, error) {
	return v.find(ctx, docstore.Eq("managedBy", id), func(it *resource.Item) bool {
		return it.Controller() == id
	})
}

// allDependents returns every file transitively managed by id, depth first.
func (v *view) allDependents(ctx context.Context, id string) ([]*resource.Item, error) {
	var out []*resource.Item
	visited := map[string]bool{id: true}
	var walk func(string) error
	walk = func(current string) error {
		deps, err := v.dependents(ctx, current)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if visited[dep.ID] {
				continue
			}
			visited[dep.ID] = true
			out = append(out, dep)
			if err := walk(dep.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return out, walk(id)
}

// members returns the files of group: its ordered file list followed by any
// file pointing at it that the list is missing.
func (v *view) members(ctx context.Context, group *resource.Item) ([]*resource.Item, error) {
	var out []*resource.Item
	listed := make(map[string]bool, len(group.Group.Files))
	for _, id := range group.Group.Files {
		if listed[id] {
			continue
		}
		listed[id] = true
		item, err := v.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item.IsFile() {
			out = append(out, item)
		}
	}
	pointing, err := v.find(ctx, docstore.Eq("resourceGroupId", group.ID), func(it *resource.Item) bool {
		return it.GroupID() == group.ID
	})
	if err != nil {
		return nil, err
	}
	for _, item := range pointing {
		if !listed[item.ID] {
			listed[item.ID] = true
			out = append(out, item)
		}
	}
	return out, nil
}
