package publish_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelforge/internal/manifest"
	"reelforge/internal/publish"
	"reelforge/internal/resource"
	"reelforge/internal/series"
	"reelforge/internal/services"
)

func sampleDetail() *manifest.Detail {
	file := resource.NewFile("f1", "Intro")
	file.ImportTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	file.File.ManagedBy = "c1"
	file.SetURL("bundle", "resource/f1.resource")
	file.RecordOperation("probe", "probe", file.ImportTime)
	return &manifest.Detail{
		Episode:   &series.Episode{ID: "e1", Label: "Pilot"},
		Assets:    []manifest.AssetSpec{{ID: "a1", ContentID: "g1", ExtensionID: series.ExtensionVideo}},
		Resources: []*resource.Item{file, resource.NewGroup("g1", "Clip", "f1")},
		Key:       "abc",
	}
}

func TestEncodeStripsBookkeepingInEveryFormat(t *testing.T) {
	for _, format := range []string{publish.FormatJSON, publish.FormatMsgpack, publish.FormatMinJSON} {
		t.Run(format, func(t *testing.T) {
			data, err := publish.Encode(format, sampleDetail())
			require.NoError(t, err)

			doc, err := publish.Decode(format, data)
			require.NoError(t, err)
			root, ok := doc.(map[string]any)
			require.True(t, ok, "root should be a map, got %T", doc)
			assert.Equal(t, "abc", root["key"])

			resources, ok := root["resources"].([]any)
			require.True(t, ok)
			require.Len(t, resources, 2)
			file, ok := resources[0].(map[string]any)
			require.True(t, ok)
			for _, field := range []string{"removed", "removedTime", "importTime", "pluginConfigurations", "postProcessRecord", "managedBy"} {
				assert.NotContains(t, file, field)
			}
			assert.Equal(t, "f1", file["id"])
			assert.Equal(t, "file", file["type"])
			urls, ok := file["url"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "resource/f1.resource", urls["bundle"])
		})
	}
}

func TestEncodeInfiniteDurationIsNull(t *testing.T) {
	data, err := publish.Encode(publish.FormatMinJSON, sampleDetail())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duration":null`)
}

func TestMinJSONIsCompact(t *testing.T) {
	pretty, err := publish.Encode(publish.FormatJSON, sampleDetail())
	require.NoError(t, err)
	compact, err := publish.Encode(publish.FormatMinJSON, sampleDetail())
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  ")
	assert.NotContains(t, string(compact), "\n")
	assert.Less(t, len(compact), len(pretty))
}

func TestUnknownFormatIsInvalidConfiguration(t *testing.T) {
	_, err := publish.Encode("yaml", sampleDetail())
	assert.True(t, errors.Is(err, services.ErrInvalidConfiguration))
	_, err = publish.Extension("yaml")
	assert.True(t, errors.Is(err, services.ErrInvalidConfiguration))

	ext, err := publish.Extension(publish.FormatMinJSON)
	require.NoError(t, err)
	assert.Equal(t, "min.json", ext)
}
