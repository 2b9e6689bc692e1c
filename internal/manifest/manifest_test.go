package manifest_test

import (
	"context"
	"errors"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/graph"
	"reelforge/internal/inclusion"
	"reelforge/internal/manifest"
	"reelforge/internal/profile"
	"reelforge/internal/resource"
	"reelforge/internal/series"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

type harness struct {
	cfg     *config.Config
	graph   *graph.Store
	series  *series.Store
	episode *series.Episode
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	g := testsupport.MustOpenGraph(t, cfg)
	store := series.NewStore(g.Docs())
	episode, err := store.AddEpisode(context.Background(), "Pilot")
	if err != nil {
		t.Fatalf("AddEpisode: %v", err)
	}
	return &harness{cfg: cfg, graph: g, series: store, episode: episode}
}

func (h *harness) addAsset(t *testing.T, asset *series.Asset) {
	t.Helper()
	asset.EpisodeID = h.episode.ID
	if err := h.series.AddAsset(context.Background(), asset); err != nil {
		t.Fatalf("AddAsset: %v", err)
	}
}

func (h *harness) detail(t *testing.T, kind profile.Kind) *manifest.Detail {
	t.Helper()
	detail, err := manifest.NewAssembler(h.graph.Pipeline(), nil).
		GetEpisodeDetail(context.Background(), h.episode.ID, profile.FromSettings(h.cfg, kind), h.graph.Docs())
	if err != nil {
		t.Fatalf("GetEpisodeDetail: %v", err)
	}
	return detail
}

func TestVideoDurationIsLongestMember(t *testing.T) {
	h := newHarness(t)

	short := testsupport.InGroup(testsupport.File("short", "video/mp4"), "clip")
	short.File.Duration = testsupport.Seconds(12.5)
	long := testsupport.InGroup(testsupport.File("long", "video/mp4"), "clip")
	long.File.Duration = testsupport.Seconds(30)
	testsupport.PutItems(t, h.graph, testsupport.Group("clip"), short, long)

	open := testsupport.InGroup(testsupport.File("open", "video/mp4"), "live")
	timed := testsupport.InGroup(testsupport.File("timed", "video/mp4"), "live")
	timed.File.Duration = testsupport.Seconds(5)
	testsupport.PutItems(t, h.graph, testsupport.Group("live"), open, timed)

	h.addAsset(t, &series.Asset{ID: "a-clip", ContentID: "clip", ExtensionID: series.ExtensionVideo, Order: 1})
	h.addAsset(t, &series.Asset{ID: "a-live", ContentID: "live", ExtensionID: series.ExtensionVideo, Order: 0})

	detail := h.detail(t, profile.KindPlayerShell)
	if len(detail.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(detail.Assets))
	}
	if detail.Assets[0].ID != "a-live" || detail.Assets[1].ID != "a-clip" {
		t.Fatalf("assets not ordered: %s, %s", detail.Assets[0].ID, detail.Assets[1].ID)
	}
	if detail.Assets[0].Duration != nil {
		t.Fatalf("missing member duration should be infinite, got %v", *detail.Assets[0].Duration)
	}
	if d := detail.Assets[1].Duration; d == nil || *d != 30 {
		t.Fatalf("expected duration 30, got %v", d)
	}
}

func TestAssetOrderIsStable(t *testing.T) {
	h := newHarness(t)
	testsupport.PutItems(t, h.graph, testsupport.File("v", "video/mp4"))
	for _, id := range []string{"first", "second", "third"} {
		h.addAsset(t, &series.Asset{ID: id, ContentID: "v", ExtensionID: series.ExtensionVideo, Order: 3})
	}
	h.addAsset(t, &series.Asset{ID: "zero", ContentID: "v", ExtensionID: series.ExtensionVideo, Order: 0})

	detail := h.detail(t, profile.KindPlayerShell)
	var got []string
	for _, spec := range detail.Assets {
		got = append(got, spec.ID)
	}
	want := []string{"zero", "first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("asset order %v, want %v", got, want)
		}
	}
}

func TestActPointEntryPoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.series.PutActPoint(ctx, &series.ActPoint{ID: "quiz", FirstLevelPath: "quiz", SecondLevelPath: "index.html"}); err != nil {
		t.Fatalf("PutActPoint: %v", err)
	}
	h.addAsset(t, &series.Asset{ID: "a-quiz", ContentID: "quiz", ExtensionID: series.ExtensionActPoint})

	detail := h.detail(t, profile.KindPlayerShell)
	spec := detail.Assets[0]
	if spec.EntryPoints["player-shell"] != "reelforge://ap/quiz/index.html" {
		t.Fatalf("unexpected entry points: %v", spec.EntryPoints)
	}
	if spec.EntryPoints["player-shell-mobile"] != "ap/quiz/index.html" {
		t.Fatalf("unexpected mobile entry point: %v", spec.EntryPoints)
	}
}

func TestMissingActPointIsContentNotFound(t *testing.T) {
	h := newHarness(t)
	h.addAsset(t, &series.Asset{ID: "a-gone", ContentID: "gone", ExtensionID: series.ExtensionActPoint})

	_, err := manifest.NewAssembler(nil, nil).GetEpisodeDetail(context.Background(), h.episode.ID,
		profile.FromSettings(h.cfg, profile.KindPlayerShell), h.graph.Docs())
	if !errors.Is(err, services.ErrContentNotFound) {
		t.Fatalf("expected content not found, got %v", err)
	}
}

func TestResourcesIncludeOwningGroups(t *testing.T) {
	h := newHarness(t)

	member := testsupport.InGroup(testsupport.File("member", "image/png"), "g1")
	other := testsupport.File("other-episode", "image/png")
	other.EpisodeIDs = []string{"someone-else"}
	scoped := testsupport.File("scoped", "image/png")
	scoped.EpisodeIDs = []string{h.episode.ID}
	removed := testsupport.File("removed", "image/png")
	removed.Removed = true
	testsupport.PutItems(t, h.graph, testsupport.Group("g1"), member, other, scoped, removed)

	detail := h.detail(t, profile.KindPlayerShell)
	ids := map[string]*resource.Item{}
	for _, item := range detail.Resources {
		ids[item.ID] = item
	}
	for _, want := range []string{"member", "scoped", "g1"} {
		if ids[want] == nil {
			t.Fatalf("expected %s in resources, got %v", want, keys(ids))
		}
	}
	for _, unwanted := range []string{"other-episode", "removed"} {
		if ids[unwanted] != nil {
			t.Fatalf("did not expect %s in resources", unwanted)
		}
	}
	if ids["member"].File.URL["player-shell"] != "reelforge://resource/member" {
		t.Fatalf("member url not injected: %v", ids["member"].File.URL)
	}
	if len(detail.Key) != 64 {
		t.Fatalf("unexpected key %q", detail.Key)
	}
}

func TestBundlerResourcesAreFiltered(t *testing.T) {
	h := newHarness(t)

	cached := testsupport.File("cached", "image/png")
	cached.File.CacheToHardDisk = true
	streamed := testsupport.File("streamed", "image/png")
	testsupport.PutItems(t, h.graph, cached, streamed)

	cfg := profile.FromSettings(h.cfg, profile.KindBundler)
	cfg.OfflineAvailability = inclusion.Partial
	detail, err := manifest.NewAssembler(nil, nil).GetEpisodeDetail(context.Background(), h.episode.ID, cfg, h.graph.Docs())
	if err != nil {
		t.Fatalf("GetEpisodeDetail: %v", err)
	}
	if len(detail.Resources) != 2 {
		t.Fatalf("expected cached file plus sentinel, got %d resources", len(detail.Resources))
	}
	if detail.Resources[0].ID != "cached" || detail.Resources[1].ID != profile.EntryPointNotFoundID {
		t.Fatalf("unexpected resources: %s, %s", detail.Resources[0].ID, detail.Resources[1].ID)
	}
}

func TestKeyChangesWithContent(t *testing.T) {
	h := newHarness(t)
	testsupport.PutItems(t, h.graph, testsupport.File("a", "image/png"))
	before := h.detail(t, profile.KindPlayerShell).Key
	again := h.detail(t, profile.KindPlayerShell).Key
	testsupport.PutItems(t, h.graph, testsupport.File("b", "image/png"))
	after := h.detail(t, profile.KindPlayerShell).Key

	if before != again {
		t.Fatal("key should be deterministic")
	}
	if before == after {
		t.Fatal("key should change when resources change")
	}
}

func TestListEpisodeDetailsFollowsEpisodeOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	second, err := h.series.AddEpisode(ctx, "Second")
	if err != nil {
		t.Fatalf("AddEpisode: %v", err)
	}
	second.Order = -1
	if err := h.series.PutEpisode(ctx, second); err != nil {
		t.Fatalf("PutEpisode: %v", err)
	}

	details, err := manifest.NewAssembler(nil, nil).ListEpisodeDetails(ctx, profile.FromSettings(h.cfg, profile.KindPlayerShell), h.graph.Docs())
	if err != nil {
		t.Fatalf("ListEpisodeDetails: %v", err)
	}
	if len(details) != 2 || details[0].Episode.ID != second.ID {
		t.Fatalf("unexpected episode order")
	}
	if abstract := details[1].Abstract(); abstract.Key != details[1].Key || abstract.Episode.ID != h.episode.ID {
		t.Fatalf("abstract mismatch: %+v", abstract)
	}
}

func keys(m map[string]*resource.Item) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
