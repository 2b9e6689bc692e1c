package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"reelforge/internal/docstore"
	"reelforge/internal/logging"
	"reelforge/internal/postprocess"
	"reelforge/internal/profile"
	"reelforge/internal/resource"
	"reelforge/internal/series"
	"reelforge/internal/services"
)

// AssetSpec is the client-facing description of an asset.
type AssetSpec struct {
	ID                   string   `json:"id"`
	ContentID            string   `json:"contentId"`
	ExtensionID          string   `json:"extensionId"`
	Order                int      `json:"order"`
	Triggers             []string `json:"triggers"`
	PreloadDisabled      bool     `json:"preloadDisabled"`
	EarlyDestroyOnSwitch bool     `json:"earlyDestroyOnSwitch"`
	// Duration in seconds; nil means infinite.
	Duration    *float64          `json:"duration"`
	EntryPoints map[string]string `json:"entryPoints,omitempty"`
}

// Detail is one episode's manifest.
type Detail struct {
	Episode   *series.Episode  `json:"episode"`
	Assets    []AssetSpec      `json:"assets"`
	Resources []*resource.Item `json:"resources"`
	Key       string           `json:"key"`
}

// Abstract is the resource-free summary of one episode.
type Abstract struct {
	Episode *series.Episode `json:"episode"`
	Assets  []AssetSpec     `json:"assets"`
	Key     string          `json:"key"`
}

// Abstract drops the resource list.
func (d *Detail) Abstract() Abstract {
	return Abstract{Episode: d.Episode, Assets: d.Assets, Key: d.Key}
}

// Assembler builds manifests from a document store.
type Assembler struct {
	pipeline *postprocess.Pipeline
	logger   *slog.Logger
}

// NewAssembler returns an Assembler. pipeline supplies the preview hook and
// may be nil.
func NewAssembler(pipeline *postprocess.Pipeline, logger *slog.Logger) *Assembler {
	return &Assembler{
		pipeline: pipeline,
		logger:   logging.NewComponentLogger(logger, "manifest"),
	}
}

// GetEpisodeDetail assembles the manifest of episodeID from docs under the
// profile described by cfg.
func (a *Assembler) GetEpisodeDetail(ctx context.Context, episodeID string, cfg profile.Config, docs *docstore.Store) (*Detail, error) {
	prof, err := profile.New(cfg)
	if err != nil {
		return nil, err
	}
	return a.Assemble(ctx, prof, episodeID, docs)
}

// ListEpisodeDetails assembles every episode in episode order.
func (a *Assembler) ListEpisodeDetails(ctx context.Context, cfg profile.Config, docs *docstore.Store) ([]*Detail, error) {
	prof, err := profile.New(cfg)
	if err != nil {
		return nil, err
	}
	return a.AssembleAll(ctx, prof, docs)
}

// Assemble builds one episode's manifest under an already resolved profile.
func (a *Assembler) Assemble(ctx context.Context, prof profile.Profile, episodeID string, docs *docstore.Store) (*Detail, error) {
	episode, err := series.NewStore(docs).Episode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, prof, episode, docs)
}

// AssembleAll builds every episode's manifest in episode order.
func (a *Assembler) AssembleAll(ctx context.Context, prof profile.Profile, docs *docstore.Store) ([]*Detail, error) {
	episodes, err := series.NewStore(docs).ListEpisodes(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]*Detail, 0, len(episodes))
	for _, episode := range episodes {
		detail, err := a.assemble(ctx, prof, episode, docs)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (a *Assembler) assemble(ctx context.Context, prof profile.Profile, episode *series.Episode, docs *docstore.Store) (*Detail, error) {
	logger := logging.WithContext(ctx, a.logger).With(logging.String(logging.FieldEpisodeID, episode.ID))

	assets, err := series.NewStore(docs).Assets(ctx, episode.ID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(assets, func(x, y *series.Asset) int { return x.Order - y.Order })

	specs := make([]AssetSpec, 0, len(assets))
	for _, asset := range assets {
		spec, err := a.assetSpec(ctx, prof, asset, docs)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	resources, err := a.resources(ctx, prof, episode.ID, docs)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Episode: episode, Assets: specs, Resources: resources}
	detail.Key = changeKey(detail)
	logger.Debug("episode manifest assembled",
		logging.String("profile", string(prof.Kind())),
		logging.Int("assets", len(specs)),
		logging.Int("resources", len(resources)),
	)
	return detail, nil
}

func (a *Assembler) assetSpec(ctx context.Context, prof profile.Profile, asset *series.Asset, docs *docstore.Store) (AssetSpec, error) {
	spec := AssetSpec{
		ID:                   asset.ID,
		ContentID:            asset.ContentID,
		ExtensionID:          asset.ExtensionID,
		Order:                asset.Order,
		Triggers:             asset.Triggers,
		PreloadDisabled:      asset.PreloadDisabled,
		EarlyDestroyOnSwitch: asset.EarlyDestroyOnSwitch,
	}
	switch asset.ExtensionID {
	case series.ExtensionVideo:
		duration, err := videoDuration(ctx, asset.ContentID, docs)
		if err != nil {
			return AssetSpec{}, err
		}
		spec.Duration = duration
	case series.ExtensionActPoint:
		points, err := series.NewStore(docs).ActPoints(ctx, asset.ContentID)
		if err != nil {
			return AssetSpec{}, err
		}
		if len(points) == 0 {
			return AssetSpec{}, contentNotFound(asset)
		}
		spec.EntryPoints = prof.InjectAPEntryPoints(points)[0].EntryPoints
	default:
		return AssetSpec{}, services.Wrap(services.ErrValidation, "manifest", "asset spec",
			fmt.Sprintf("asset %q has unknown extension %q", asset.ID, asset.ExtensionID), nil)
	}
	return spec, nil
}

// videoDuration returns the longest member duration of the content's group.
// A member without a duration makes the whole asset infinite.
func videoDuration(ctx context.Context, contentID string, docs *docstore.Store) (*float64, error) {
	content, err := docstore.GetOne[resource.Item](ctx, docs, docstore.Resources, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, services.Wrap(services.ErrContentNotFound, "manifest", "video duration",
			fmt.Sprintf("video content %q not found", contentID), nil)
	}
	groupID := content.ID
	if content.IsFile() {
		groupID = content.GroupID()
	}
	var members []*resource.Item
	if groupID == "" {
		members = []*resource.Item{content}
	} else {
		members, err = docstore.FindAll[resource.Item](ctx, docs, docstore.Resources,
			docstore.Eq("type", string(resource.KindFile)),
			docstore.Eq("resourceGroupId", groupID),
			docstore.Eq("removed", false),
		)
		if err != nil {
			return nil, err
		}
	}
	if len(members) == 0 {
		return nil, nil
	}
	var longest float64
	for _, member := range members {
		if !member.IsFile() || member.File.Duration == nil {
			return nil, nil
		}
		longest = max(longest, *member.File.Duration)
	}
	return &longest, nil
}

func (a *Assembler) resources(ctx context.Context, prof profile.Profile, episodeID string, docs *docstore.Store) ([]*resource.Item, error) {
	files, err := docstore.FindAll[resource.Item](ctx, docs, docstore.Resources,
		docstore.Eq("type", string(resource.KindFile)),
		docstore.Eq("removed", false),
		docstore.Or(docstore.Empty("episodeIds"), docstore.Contains("episodeIds", episodeID)),
	)
	if err != nil {
		return nil, err
	}
	resolved, err := prof.InjectResourceURLs(files)
	if err != nil {
		return nil, err
	}
	if profile.IsPreview(prof.Kind()) {
		resolved, err = a.pipeline.BeforePreviewResourceMetadataDelivered(ctx, resolved)
		if err != nil {
			return nil, err
		}
	}
	return withOwningGroups(ctx, resolved, docs)
}

// withOwningGroups appends, once each, the live group of every file in
// items.
func withOwningGroups(ctx context.Context, items []*resource.Item, docs *docstore.Store) ([]*resource.Item, error) {
	var groupIDs []string
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}
	for _, item := range items {
		gid := item.GroupID()
		if gid == "" || present[gid] || slices.Contains(groupIDs, gid) {
			continue
		}
		groupIDs = append(groupIDs, gid)
	}
	if len(groupIDs) == 0 {
		return items, nil
	}
	groups, err := docstore.FindAll[resource.Item](ctx, docs, docstore.Resources,
		docstore.In("id", groupIDs...),
		docstore.Eq("removed", false),
	)
	if err != nil {
		return nil, err
	}
	return append(items, groups...), nil
}

func contentNotFound(asset *series.Asset) error {
	return services.Wrap(services.ErrContentNotFound, "manifest", "asset spec",
		fmt.Sprintf("act point %q for asset %q not found", asset.ContentID, asset.ID), nil)
}

// changeKey hashes the episode id with the sorted asset and resource ids.
func changeKey(d *Detail) string {
	assetIDs := make([]string, 0, len(d.Assets))
	for _, spec := range d.Assets {
		assetIDs = append(assetIDs, spec.ID)
	}
	resourceIDs := make([]string, 0, len(d.Resources))
	for _, item := range d.Resources {
		resourceIDs = append(resourceIDs, item.ID)
	}
	sort.Strings(assetIDs)
	sort.Strings(resourceIDs)

	h := sha256.New()
	h.Write([]byte(d.Episode.ID))
	for _, list := range [][]string{assetIDs, resourceIDs} {
		h.Write([]byte{0})
		for _, id := range list {
			h.Write([]byte(id))
			h.Write([]byte{'\n'})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
