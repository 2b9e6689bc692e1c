package resource

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind discriminates the Item variants.
type Kind string

const (
	KindFile  Kind = "file"
	KindGroup Kind = "group"
)

// Reserved URL keys.
const (
	// RedirectKey marks a file whose payload is served from elsewhere.
	RedirectKey = "@redirect"
	// ErrorKey holds the fixed error URL of the entry-point-not-found sentinel.
	ErrorKey = "@error"
)

// PinSuffix marks a tag the controller file may not overwrite.
const PinSuffix = "!"

// Operation is one entry of a file's post-processing history.
type Operation struct {
	ExtensionID string    `json:"extensionId"`
	Operation   string    `json:"operation"`
	Time        time.Time `json:"time"`
}

// PostProcessRecord tracks which extension operations ran on a file and the
// media releases whose payload snapshot contains the result.
type PostProcessRecord struct {
	Operations    []Operation `json:"operations"`
	MediaBundleID []int64     `json:"mediaBundleId"`
}

// ContainsMediaRelease reports whether id was stamped into the record.
func (r *PostProcessRecord) ContainsMediaRelease(id int64) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.MediaBundleID, id)
}

// FileFields holds the File variant fields.
type FileFields struct {
	MimeType          string             `json:"mimeType"`
	URL               map[string]string  `json:"url"`
	ResourceGroupID   string             `json:"resourceGroupId"`
	ManagedBy         string             `json:"managedBy"`
	CacheToHardDisk   bool               `json:"cacheToHardDisk"`
	PreloadLevel      int                `json:"preloadLevel"`
	PreloadTriggers   []string           `json:"preloadTriggers"`
	PostProcessRecord *PostProcessRecord `json:"postProcessRecord,omitempty"`
	Duration          *float64           `json:"duration,omitempty"`
	RedirectTo        string             `json:"redirectTo"`
	OriginalHash      string             `json:"originalHash,omitempty"`
}

// GroupFields holds the Group variant fields.
type GroupFields struct {
	Files        []string `json:"files"`
	ThumbnailSrc string   `json:"thumbnailSrc"`
}

// Item is a File or a Group in the resource graph.
type Item struct {
	ID                      string                    `json:"id"`
	Type                    Kind                      `json:"type"`
	Label                   string                    `json:"label"`
	Tags                    []string                  `json:"tags"`
	Removed                 bool                      `json:"removed"`
	RemovedTime             *time.Time                `json:"removedTime"`
	ImportTime              time.Time                 `json:"importTime"`
	EpisodeIDs              []string                  `json:"episodeIds"`
	PluginConfigurations    map[string]map[string]any `json:"pluginConfigurations"`
	ExtensionConfigurations map[string]map[string]any `json:"extensionConfigurations"`

	File  *FileFields  `json:"-"`
	Group *GroupFields `json:"-"`
}

// NewFile returns a File item with empty variant fields.
func NewFile(id, label string) *Item {
	return &Item{
		ID:    id,
		Type:  KindFile,
		Label: label,
		File:  &FileFields{URL: map[string]string{}},
	}
}

// NewGroup returns a Group item holding files in order.
func NewGroup(id, label string, files ...string) *Item {
	return &Item{
		ID:    id,
		Type:  KindGroup,
		Label: label,
		Group: &GroupFields{Files: append([]string(nil), files...)},
	}
}

// IsFile reports whether the item is a File.
func (it *Item) IsFile() bool { return it != nil && it.Type == KindFile && it.File != nil }

// IsGroup reports whether the item is a Group.
func (it *Item) IsGroup() bool { return it != nil && it.Type == KindGroup && it.Group != nil }

// Controller returns the id of the file managing it, or "" when the item is
// not a managed file. A file naming itself is not managed.
func (it *Item) Controller() string {
	if !it.IsFile() {
		return ""
	}
	if it.File.ManagedBy == "" || it.File.ManagedBy == it.ID {
		return ""
	}
	return it.File.ManagedBy
}

// GroupID returns the owning group id of a file, or "".
func (it *Item) GroupID() string {
	if !it.IsFile() {
		return ""
	}
	return it.File.ResourceGroupID
}

// Redirected reports whether the file carries either redirect marker. The two
// markers are checked independently.
func (it *Item) Redirected() bool {
	if !it.IsFile() {
		return false
	}
	if _, ok := it.File.URL[RedirectKey]; ok {
		return true
	}
	return strings.TrimSpace(it.File.RedirectTo) != ""
}

// PostProcessed reports whether any extension operation has been recorded.
func (it *Item) PostProcessed() bool {
	return it.IsFile() && it.File.PostProcessRecord != nil && len(it.File.PostProcessRecord.Operations) > 0
}

// SetURL writes url under key, allocating the map when needed.
func (it *Item) SetURL(key, url string) {
	if !it.IsFile() {
		return
	}
	if it.File.URL == nil {
		it.File.URL = map[string]string{}
	}
	it.File.URL[key] = url
}

// RecordOperation appends an entry to the file's post-processing history.
func (it *Item) RecordOperation(extensionID, operation string, at time.Time) {
	if !it.IsFile() {
		return
	}
	if it.File.PostProcessRecord == nil {
		it.File.PostProcessRecord = &PostProcessRecord{}
	}
	it.File.PostProcessRecord.Operations = append(it.File.PostProcessRecord.Operations, Operation{
		ExtensionID: extensionID,
		Operation:   operation,
		Time:        at.UTC(),
	})
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	out.Tags = slices.Clone(it.Tags)
	out.EpisodeIDs = slices.Clone(it.EpisodeIDs)
	out.PluginConfigurations = cloneConfigurations(it.PluginConfigurations)
	out.ExtensionConfigurations = cloneConfigurations(it.ExtensionConfigurations)
	if it.RemovedTime != nil {
		t := *it.RemovedTime
		out.RemovedTime = &t
	}
	if it.File != nil {
		f := *it.File
		if it.File.URL != nil {
			f.URL = make(map[string]string, len(it.File.URL))
			for k, v := range it.File.URL {
				f.URL[k] = v
			}
		}
		f.PreloadTriggers = slices.Clone(it.File.PreloadTriggers)
		if it.File.Duration != nil {
			d := *it.File.Duration
			f.Duration = &d
		}
		if it.File.PostProcessRecord != nil {
			f.PostProcessRecord = &PostProcessRecord{
				Operations:    slices.Clone(it.File.PostProcessRecord.Operations),
				MediaBundleID: slices.Clone(it.File.PostProcessRecord.MediaBundleID),
			}
		}
		out.File = &f
	}
	if it.Group != nil {
		g := *it.Group
		g.Files = slices.Clone(it.Group.Files)
		out.Group = &g
	}
	return &out
}

func cloneConfigurations(in map[string]map[string]any) map[string]map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(in))
	for ext, values := range in {
		inner := make(map[string]any, len(values))
		for k, v := range values {
			inner[k] = v
		}
		out[ext] = inner
	}
	return out
}

// itemAlias drops Item's methods so the wire form can embed it.
type itemAlias Item

type wireItem struct {
	itemAlias
	*FileFields
	*GroupFields
}

// MarshalJSON flattens the common and variant fields into one object.
func (it Item) MarshalJSON() ([]byte, error) {
	w := wireItem{itemAlias: itemAlias(it)}
	switch it.Type {
	case KindFile:
		w.FileFields = it.File
		if w.FileFields == nil {
			w.FileFields = &FileFields{}
		}
	case KindGroup:
		w.GroupFields = it.Group
		if w.GroupFields == nil {
			w.GroupFields = &GroupFields{}
		}
	default:
		return nil, fmt.Errorf("resource %q: unknown type %q", it.ID, it.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores the variant selected by the type field.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*it = Item(w.itemAlias)
	switch it.Type {
	case KindFile:
		it.File = w.FileFields
		if it.File == nil {
			it.File = &FileFields{}
		}
		it.Group = nil
	case KindGroup:
		it.Group = w.GroupFields
		if it.Group == nil {
			it.Group = &GroupFields{}
		}
		it.File = nil
	default:
		return fmt.Errorf("resource %q: unknown type %q", it.ID, it.Type)
	}
	return nil
}
