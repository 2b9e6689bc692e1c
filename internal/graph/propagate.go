package graph

import (
	"context"

	"reelforge/internal/resource"
)

// propagate re-applies controller's managed keys to every file it manages,
// recursing so that dependents which are themselves controllers pass the
// change on. Only changed dependents are staged.
func (v *view) propagate(ctx context.Context, controller *resource.Item) error {
	visited := map[string]bool{controller.ID: true}
	var walk func(*resource.Item) error
	walk = func(current *resource.Item) error {
		deps, err := v.dependents(ctx, current.ID)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if visited[dep.ID] || !dep.IsFile() {
				continue
			}
			visited[dep.ID] = true
			if resource.ApplyManagedKeys(current, dep) {
				v.put(dep)
			}
			if err := walk(dep); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(controller)
}

// syncFromController overwrites a managed file's managed keys with its
// controller's current values. A missing controller leaves the file as is.
func (v *view) syncFromController(ctx context.Context, file *resource.Item) error {
	controllerID := file.Controller()
	if controllerID == "" {
		return nil
	}
	controller, err := v.get(ctx, controllerID)
	if err != nil {
		return err
	}
	if controller.IsFile() {
		resource.ApplyManagedKeys(controller, file)
	}
	return nil
}
