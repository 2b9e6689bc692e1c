package profile

import (
	"fmt"
	"strconv"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/inclusion"
	"reelforge/internal/resource"
	"reelforge/internal/series"
	"reelforge/internal/services"
)

// Kind names a profile variant. It doubles as the variant's URL key.
type Kind string

const (
	KindPlayerShell       Kind = "player-shell"
	KindApPackPreview     Kind = "ap-pack-preview"
	KindApPackLivePreview Kind = "ap-pack-live-preview"
	KindApPackDistPreview Kind = "ap-pack-dist-preview"
	KindStudioPreview     Kind = "studio-preview"
	KindBundler           Kind = "bundle"
)

// KeyPlayerShellMobile is the URL key of the mobile shell's bundled copy.
const KeyPlayerShellMobile = "player-shell-mobile"

// EntryPointNotFoundID is the id of the sentinel resource the bundler
// appends to every list.
const EntryPointNotFoundID = "@entry-point-not-found"

// EntryPointNotFoundURL is the fixed error page the sentinel points at.
const EntryPointNotFoundURL = "ap/error/entry-point-not-found.html"

// Kinds lists every profile kind.
var Kinds = []Kind{
	KindPlayerShell,
	KindApPackPreview,
	KindApPackLivePreview,
	KindApPackDistPreview,
	KindStudioPreview,
	KindBundler,
}

// Profile computes target-specific URLs and entry points. Both methods
// return copies; inputs are never mutated.
type Profile interface {
	Kind() Kind
	InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint
	InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error)
}

// Server locates an HTTP server a preview profile points at.
type Server struct {
	Protocol string
	Host     string
	Port     int
}

// Origin returns protocol://host[:port].
func (s Server) Origin() string {
	origin := s.Protocol + "://" + s.Host
	if s.Port > 0 {
		origin += ":" + strconv.Itoa(s.Port)
	}
	return origin
}

// Config carries the settings every variant may draw from. Each variant
// copies only what it needs.
type Config struct {
	Kind                Kind
	Scheme              string
	Preview             Server
	LivePreview         Server
	OfflineAvailability string
	MetadataFormat      string
	MediaReleaseID      int64
	BundleReleaseID     *int64
}

// FromSettings builds a profile Config of the given kind from application
// settings.
func FromSettings(cfg *config.Config, kind Kind) Config {
	return Config{
		Kind:   kind,
		Scheme: cfg.Profiles.PlayerScheme,
		Preview: Server{
			Protocol: cfg.Profiles.PreviewProtocol,
			Host:     cfg.Profiles.PreviewHost,
			Port:     cfg.Profiles.PreviewPort,
		},
		LivePreview: Server{
			Protocol: cfg.Profiles.LivePreviewProtocol,
			Host:     cfg.Profiles.LivePreviewHost,
			Port:     cfg.Profiles.LivePreviewPort,
		},
		OfflineAvailability: cfg.Publish.OfflineAvailability,
		MetadataFormat:      cfg.Publish.MetadataFormat,
	}
}

// IsPreview reports whether kind serves a preview that runs the preview
// post-processing hook.
func IsPreview(kind Kind) bool {
	switch kind {
	case KindApPackPreview, KindApPackLivePreview, KindApPackDistPreview, KindStudioPreview:
		return true
	}
	return false
}

// New resolves cfg to its Profile.
func New(cfg Config) (Profile, error) {
	switch cfg.Kind {
	case KindPlayerShell:
		return &PlayerShell{Scheme: cfg.Scheme}, nil
	case KindApPackPreview:
		return &ApPackPreview{Server: cfg.Preview}, nil
	case KindApPackLivePreview:
		return &ApPackLivePreview{Resources: cfg.Preview, App: cfg.LivePreview}, nil
	case KindApPackDistPreview:
		if cfg.BundleReleaseID == nil {
			return nil, invalid("dist preview needs a bundle release id")
		}
		return &ApPackDistPreview{Server: cfg.Preview, BundleReleaseID: *cfg.BundleReleaseID}, nil
	case KindStudioPreview:
		return &StudioPreview{Server: cfg.Preview}, nil
	case KindBundler:
		return &BundlerProfile{OfflineAvailability: cfg.OfflineAvailability, MediaReleaseID: cfg.MediaReleaseID}, nil
	default:
		return nil, invalid(fmt.Sprintf("unknown profile kind %q", cfg.Kind))
	}
}

func invalid(message string) error {
	return services.Wrap(services.ErrInvalidConfiguration, "profile", "resolve profile", message, nil)
}

// PlayerShell targets the desktop shell, with a local copy for the mobile
// shell when a file is cached to disk.
type PlayerShell struct {
	Scheme string
}

func (p *PlayerShell) Kind() Kind { return KindPlayerShell }

func (p *PlayerShell) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	points = clonePoints(points)
	points = Injector{Key: string(KindPlayerShell), Pattern: p.Scheme + "://ap/" + PlaceholderHTMLPath}.InjectEntryPoints(points)
	return Injector{Key: KeyPlayerShellMobile, Pattern: "ap/" + PlaceholderHTMLPath}.InjectEntryPoints(points)
}

func (p *PlayerShell) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	items = cloneItems(items)
	items = Injector{Key: string(KindPlayerShell), Pattern: p.Scheme + "://resource/" + PlaceholderResourceID}.InjectResources(items)
	items = Injector{Key: KeyPlayerShellMobile, Pattern: "resource/" + PlaceholderResourceID + ".resource", Filter: CachedOnly}.InjectResources(items)
	return items, nil
}

// ApPackPreview serves resources and the built app from the preview server.
type ApPackPreview struct {
	Server Server
}

func (p *ApPackPreview) Kind() Kind { return KindApPackPreview }

func (p *ApPackPreview) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	return Injector{Key: string(KindApPackPreview), Pattern: p.Server.Origin() + "/preview/ap/" + PlaceholderHTMLPath}.InjectEntryPoints(clonePoints(points))
}

func (p *ApPackPreview) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	return Injector{Key: string(KindApPackPreview), Pattern: p.Server.Origin() + "/preview/resource/" + PlaceholderResourceID}.InjectResources(cloneItems(items)), nil
}

// ApPackLivePreview serves resources from the preview server and act points
// from the live development server.
type ApPackLivePreview struct {
	Resources Server
	App       Server
}

func (p *ApPackLivePreview) Kind() Kind { return KindApPackLivePreview }

func (p *ApPackLivePreview) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	return Injector{Key: string(KindApPackLivePreview), Pattern: p.App.Origin() + "/" + PlaceholderHTMLPath}.InjectEntryPoints(clonePoints(points))
}

func (p *ApPackLivePreview) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	return Injector{Key: string(KindApPackLivePreview), Pattern: p.Resources.Origin() + "/resource/" + PlaceholderResourceID}.InjectResources(cloneItems(items)), nil
}

// ApPackDistPreview serves an unpacked player bundle from the preview server.
type ApPackDistPreview struct {
	Server          Server
	BundleReleaseID int64
}

func (p *ApPackDistPreview) Kind() Kind { return KindApPackDistPreview }

func (p *ApPackDistPreview) base() string {
	return p.Server.Origin() + "/bundle/" + strconv.FormatInt(p.BundleReleaseID, 10)
}

func (p *ApPackDistPreview) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	return Injector{Key: string(KindApPackDistPreview), Pattern: p.base() + "/ap/" + PlaceholderHTMLPath}.InjectEntryPoints(clonePoints(points))
}

func (p *ApPackDistPreview) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	return Injector{Key: string(KindApPackDistPreview), Pattern: p.base() + "/resource/" + PlaceholderResourceID + ".resource"}.InjectResources(cloneItems(items)), nil
}

// StudioPreview serves the authoring tool's embedded preview.
type StudioPreview struct {
	Server Server
}

func (p *StudioPreview) Kind() Kind { return KindStudioPreview }

func (p *StudioPreview) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	return Injector{Key: string(KindStudioPreview), Pattern: p.Server.Origin() + "/studio/ap/" + PlaceholderHTMLPath}.InjectEntryPoints(clonePoints(points))
}

func (p *StudioPreview) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	return Injector{Key: string(KindStudioPreview), Pattern: p.Server.Origin() + "/studio/resource/" + PlaceholderResourceID}.InjectResources(cloneItems(items)), nil
}

// BundlerProfile writes archive-relative URLs for the resources a bundle
// carries and appends the entry-point-not-found sentinel.
type BundlerProfile struct {
	OfflineAvailability string
	MediaReleaseID      int64
}

func (p *BundlerProfile) Kind() Kind { return KindBundler }

func (p *BundlerProfile) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	return Injector{Key: string(KindBundler), Pattern: "ap/" + PlaceholderHTMLPath}.InjectEntryPoints(clonePoints(points))
}

func (p *BundlerProfile) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	included, err := inclusion.Filter(items, p.MediaReleaseID, p.OfflineAvailability)
	if err != nil {
		return nil, err
	}
	included = Injector{Key: string(KindBundler), Pattern: "resource/" + PlaceholderResourceID + ".resource"}.InjectResources(cloneItems(included))
	return append(included, EntryPointNotFound()), nil
}

// EntryPointNotFound returns the sentinel resource consumers fall back to
// when a manifest has no entry point.
func EntryPointNotFound() *resource.Item {
	item := resource.NewFile(EntryPointNotFoundID, "Entry point not found")
	item.File.MimeType = "text/html"
	item.ImportTime = time.Unix(0, 0).UTC()
	item.SetURL(resource.ErrorKey, EntryPointNotFoundURL)
	return item
}

// Chain applies several profiles in order. Its kind is the last profile's.
func Chain(profiles ...Profile) Profile {
	return chain(profiles)
}

type chain []Profile

func (c chain) Kind() Kind {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1].Kind()
}

func (c chain) InjectAPEntryPoints(points []*series.ActPoint) []*series.ActPoint {
	for _, p := range c {
		points = p.InjectAPEntryPoints(points)
	}
	return points
}

func (c chain) InjectResourceURLs(items []*resource.Item) ([]*resource.Item, error) {
	var err error
	for _, p := range c {
		items, err = p.InjectResourceURLs(items)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}
