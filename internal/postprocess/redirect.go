package postprocess

import (
	"context"

	"reelforge/internal/docstore"
	"reelforge/internal/resource"
)

// PreviewRedirectID is the extension id of the preview redirect filter.
const PreviewRedirectID = "preview-redirect"

// PreviewRedirect drops files whose redirectTo target is removed or missing,
// so previews never point at content that cannot load.
type PreviewRedirect struct {
	Docs *docstore.Store
}

// ID implements Processor.
func (p *PreviewRedirect) ID() string { return PreviewRedirectID }

// BeforePreviewResourceMetadataDelivered implements PreviewHook.
func (p *PreviewRedirect) BeforePreviewResourceMetadataDelivered(ctx context.Context, resources []*resource.Item) ([]*resource.Item, error) {
	byID := make(map[string]*resource.Item, len(resources))
	for _, item := range resources {
		byID[item.ID] = item
	}
	out := make([]*resource.Item, 0, len(resources))
	for _, item := range resources {
		if !item.IsFile() || item.File.RedirectTo == "" {
			out = append(out, item)
			continue
		}
		ok, err := p.targetAvailable(ctx, item.File.RedirectTo, byID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (p *PreviewRedirect) targetAvailable(ctx context.Context, id string, known map[string]*resource.Item) (bool, error) {
	target, ok := known[id]
	if !ok && p.Docs != nil {
		found, err := docstore.GetOne[resource.Item](ctx, p.Docs, docstore.Resources, id)
		if err != nil {
			return false, err
		}
		target = found
	}
	return target != nil && !target.Removed, nil
}
