package testsupport

import (
	"reelforge/internal/resource"
)

// File returns a file fixture with the given mime type.
func File(id, mimeType string) *resource.Item {
	item := resource.NewFile(id, id)
	item.File.MimeType = mimeType
	return item
}

// Managed returns a file fixture managed by controller.
func Managed(id, controller string) *resource.Item {
	item := File(id, "video/mp4")
	item.File.ManagedBy = controller
	return item
}

// Group returns a group fixture. Members must point back at it for the graph
// to stay consistent; UpdateOrInsert of the members takes care of that.
func Group(id string) *resource.Item {
	return resource.NewGroup(id, id)
}

// InGroup sets the file's group link and returns it.
func InGroup(item *resource.Item, groupID string) *resource.Item {
	item.File.ResourceGroupID = groupID
	return item
}

// Seconds returns a pointer to a duration value.
func Seconds(v float64) *float64 {
	return &v
}
