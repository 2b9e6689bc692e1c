package inclusion_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelforge/internal/inclusion"
	"reelforge/internal/resource"
	"reelforge/internal/services"
)

func cachedGlobal(id string) *resource.Item {
	item := resource.NewFile(id, id)
	item.File.CacheToHardDisk = true
	return item
}

func TestBareIncludesNothing(t *testing.T) {
	items := []*resource.Item{
		cachedGlobal("a"),
		resource.NewFile("b", "b"),
		resource.NewGroup("g", "g"),
	}
	for _, item := range items {
		ok, err := inclusion.IncludedInBundle(item, 1, inclusion.Bare)
		require.NoError(t, err)
		assert.False(t, ok, item.ID)
	}
}

func TestPartialRequiresGlobalCachedUnredirected(t *testing.T) {
	scoped := cachedGlobal("scoped")
	scoped.EpisodeIDs = []string{"e1"}

	uncached := resource.NewFile("uncached", "")

	redirectKey := cachedGlobal("redirect-key")
	redirectKey.SetURL(resource.RedirectKey, "https://cdn.example.com/x")

	redirectField := cachedGlobal("redirect-field")
	redirectField.File.RedirectTo = "other"

	removed := cachedGlobal("removed")
	removed.Removed = true

	cases := []struct {
		item *resource.Item
		want bool
	}{
		{cachedGlobal("ok"), true},
		{scoped, false},
		{uncached, false},
		{redirectKey, false},
		{redirectField, false},
		{removed, false},
		{resource.NewGroup("group", ""), false},
	}
	for _, tc := range cases {
		ok, err := inclusion.IncludedInBundle(tc.item, 3, inclusion.Partial)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.item.ID)
	}
}

func TestFullIgnoresEpisodeScopeButNotRedirects(t *testing.T) {
	scoped := resource.NewFile("scoped", "")
	scoped.EpisodeIDs = []string{"e1"}
	redirected := resource.NewFile("redirected", "")
	redirected.File.RedirectTo = "x"

	ok, err := inclusion.IncludedInBundle(scoped, 1, inclusion.Full)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inclusion.IncludedInBundle(redirected, 1, inclusion.Full)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostProcessedNeedsMatchingMediaRelease(t *testing.T) {
	processed := cachedGlobal("p")
	processed.RecordOperation("av1", "transcode", time.Unix(0, 0))
	processed.File.PostProcessRecord.MediaBundleID = []int64{2, 5}

	for _, availability := range []string{inclusion.Partial, inclusion.Full} {
		ok, err := inclusion.IncludedInBundle(processed, 5, availability)
		require.NoError(t, err)
		assert.True(t, ok, availability)

		ok, err = inclusion.IncludedInBundle(processed, 4, availability)
		require.NoError(t, err)
		assert.False(t, ok, availability)
	}
}

func TestUnknownAvailabilityIsFatal(t *testing.T) {
	_, err := inclusion.IncludedInBundle(cachedGlobal("a"), 1, "sometimes")
	require.ErrorIs(t, err, services.ErrInvalidConfiguration)

	_, err = inclusion.Filter([]*resource.Item{cachedGlobal("a")}, 1, "")
	require.ErrorIs(t, err, services.ErrInvalidConfiguration)
}

func TestFilterRejectsUnknownAvailabilityForEmptyList(t *testing.T) {
	for _, list := range [][]*resource.Item{nil, {}} {
		out, err := inclusion.Filter(list, 1, "bogus")
		require.ErrorIs(t, err, services.ErrInvalidConfiguration)
		assert.Nil(t, out)
	}

	out, err := inclusion.Filter(nil, 1, inclusion.Full)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIncludedInBundleIsDeterministic(t *testing.T) {
	item := cachedGlobal("a")
	first, err := inclusion.IncludedInBundle(item, 7, inclusion.Partial)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := inclusion.IncludedInBundle(item, 7, inclusion.Partial)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
