// Package series holds the episode, asset and act point records that
// manifests are assembled from.
package series

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/docstore"
	"reelforge/internal/services"
)

// Extension ids deciding how an asset's content resolves.
const (
	ExtensionVideo    = "video"
	ExtensionActPoint = "act-point"
)

// Episode is one playable unit of the series.
type Episode struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Order      int       `json:"order"`
	CreateTime time.Time `json:"createTime"`
}

// Asset places a resource or act point inside an episode.
type Asset struct {
	ID                   string   `json:"id"`
	EpisodeID            string   `json:"episodeId"`
	ContentID            string   `json:"contentId"`
	ExtensionID          string   `json:"extensionId"`
	Order                int      `json:"order"`
	Triggers             []string `json:"triggers"`
	PreloadDisabled      bool     `json:"preloadDisabled"`
	EarlyDestroyOnSwitch bool     `json:"earlyDestroyOnSwitch"`
}

// ActPoint is an interactive HTML entry point.
type ActPoint struct {
	ID              string            `json:"id"`
	Label           string            `json:"label"`
	FirstLevelPath  string            `json:"firstLevelPath"`
	SecondLevelPath string            `json:"secondLevelPath"`
	EntryPoints     map[string]string `json:"entryPoints"`
}

// HTMLPath returns the act point's path inside the code artifact.
func (a *ActPoint) HTMLPath() string {
	return path.Join(strings.Trim(a.FirstLevelPath, "/"), strings.Trim(a.SecondLevelPath, "/"))
}

// SetEntryPoint writes url under key, allocating the map when needed.
func (a *ActPoint) SetEntryPoint(key, url string) {
	if a.EntryPoints == nil {
		a.EntryPoints = map[string]string{}
	}
	a.EntryPoints[key] = url
}

// Clone returns a deep copy of the act point.
func (a *ActPoint) Clone() *ActPoint {
	out := *a
	if a.EntryPoints != nil {
		out.EntryPoints = make(map[string]string, len(a.EntryPoints))
		for k, v := range a.EntryPoints {
			out.EntryPoints[k] = v
		}
	}
	return &out
}

// Store reads and writes series records in a document store.
type Store struct {
	docs *docstore.Store
}

// NewStore wraps docs.
func NewStore(docs *docstore.Store) *Store {
	return &Store{docs: docs}
}

// AddEpisode creates an episode ordered after the existing ones.
func (s *Store) AddEpisode(ctx context.Context, label string) (*Episode, error) {
	episodes, err := s.ListEpisodes(ctx)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, ep := range episodes {
		if ep.Order >= order {
			order = ep.Order + 1
		}
	}
	ep := &Episode{
		ID:         uuid.NewString(),
		Label:      strings.TrimSpace(label),
		Order:      order,
		CreateTime: time.Now().UTC(),
	}
	if err := s.docs.Put(ctx, docstore.Episodes, ep.ID, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// PutEpisode inserts or replaces an episode.
func (s *Store) PutEpisode(ctx context.Context, ep *Episode) error {
	return s.docs.Put(ctx, docstore.Episodes, ep.ID, ep)
}

// Episode loads an episode, failing with ErrNotFound when absent.
func (s *Store) Episode(ctx context.Context, id string) (*Episode, error) {
	ep, err := docstore.GetOne[Episode](ctx, s.docs, docstore.Episodes, id)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, services.Wrap(services.ErrNotFound, "series", "get episode", fmt.Sprintf("episode %q not found", id), nil)
	}
	return ep, nil
}

// ListEpisodes returns every episode ordered by Order, ties in insertion order.
func (s *Store) ListEpisodes(ctx context.Context) ([]*Episode, error) {
	episodes, err := docstore.FindAll[Episode](ctx, s.docs, docstore.Episodes)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(episodes, func(a, b *Episode) int { return a.Order - b.Order })
	return episodes, nil
}

// AddAsset stores an asset after checking its episode exists.
func (s *Store) AddAsset(ctx context.Context, asset *Asset) error {
	if _, err := s.Episode(ctx, asset.EpisodeID); err != nil {
		return err
	}
	switch asset.ExtensionID {
	case ExtensionVideo, ExtensionActPoint:
	default:
		return services.Wrap(services.ErrValidation, "series", "add asset", fmt.Sprintf("unknown extension %q", asset.ExtensionID), nil)
	}
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	return s.docs.Put(ctx, docstore.Assets, asset.ID, asset)
}

// Assets returns an episode's assets in insertion order.
func (s *Store) Assets(ctx context.Context, episodeID string) ([]*Asset, error) {
	return docstore.FindAll[Asset](ctx, s.docs, docstore.Assets, docstore.Eq("episodeId", episodeID))
}

// PutActPoint inserts or replaces an act point.
func (s *Store) PutActPoint(ctx context.Context, ap *ActPoint) error {
	if ap.ID == "" {
		ap.ID = uuid.NewString()
	}
	return s.docs.Put(ctx, docstore.ActPoints, ap.ID, ap)
}

// ActPoints loads the act points with the given ids. Missing ids are skipped.
func (s *Store) ActPoints(ctx context.Context, ids ...string) ([]*ActPoint, error) {
	return docstore.FindAll[ActPoint](ctx, s.docs, docstore.ActPoints, docstore.In("id", ids...))
}
