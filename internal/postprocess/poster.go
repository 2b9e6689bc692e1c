package postprocess

import (
	"context"
	"strings"

	"reelforge/internal/resource"
)

// PosterID is the extension id of the group poster picker.
const PosterID = "poster"

// Poster points a new group's thumbnail at its first image member.
type Poster struct{}

// ID implements Processor.
func (Poster) ID() string { return PosterID }

// AfterGroupCreated implements GroupHook.
func (Poster) AfterGroupCreated(_ context.Context, files []*resource.Item, group *resource.Item) (*GroupResult, error) {
	if !group.IsGroup() || group.Group.ThumbnailSrc != "" {
		return nil, nil
	}
	for _, file := range files {
		if file.IsFile() && strings.HasPrefix(file.File.MimeType, "image/") {
			group.Group.ThumbnailSrc = file.ID
			return &GroupResult{Files: files, Group: group}, nil
		}
	}
	return nil, nil
}
