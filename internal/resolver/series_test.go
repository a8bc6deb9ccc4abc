package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvarorichard/animestream/internal/models"
)

func TestIsSameSeries(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSameSeries("Attack on Titan", "Attack on Titan Season 2"))
	assert.True(t, IsSameSeries("Attack on Titan Season 3 Part 2", "Attack on Titan"))
	assert.True(t, IsSameSeries("Mushoku Tensei 2nd Season", "Mushoku Tensei: Jobless Reincarnation"))
	assert.False(t, IsSameSeries("Naruto", "Bleach"))
	assert.False(t, IsSameSeries("", "Bleach"))
	assert.False(t, IsSameSeries("Season 2", "Bleach"))
}

func TestExtractSeasonNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected int
		ok       bool
	}{
		{"Show Season 1", 1, true},
		{"Show 2nd Season", 2, true},
		{"Show Part 3", 3, true},
		{"Show 4", 4, true},
		{"Show season 5 part 2", 5, true},
		{"Show", 0, false},
	}

	for _, tt := range tests {
		n, ok := ExtractSeasonNumber(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.expected, n, tt.name)
	}
}

func TestSortBySeason(t *testing.T) {
	t.Parallel()

	names := []string{"Show 2nd Season", "Show Part 3", "Show Season 1"}
	SortBySeason(names)
	assert.Equal(t, []string{"Show Season 1", "Show 2nd Season", "Show Part 3"}, names)

	mixed := []string{"Show: Movie", "Show Season 2", "Show OVA", "Show Season 1"}
	SortBySeason(mixed)
	assert.Equal(t, []string{"Show Season 1", "Show Season 2", "Show OVA", "Show: Movie"}, mixed)
}

func TestDetectSeasons(t *testing.T) {
	t.Parallel()

	info := &models.AnimeInfo{
		ID:   "attack-on-titan-season-2-100",
		Name: "Attack on Titan Season 2",
		Seasons: []models.SeasonEntry{
			{ID: "attack-on-titan-112", Name: "Attack on Titan"},
			{ID: "attack-on-titan-season-2-100", Name: "Attack on Titan Season 2", IsCurrent: true},
		},
		RelatedAnimes: []models.RelatedAnime{
			{ID: "attack-on-titan-season-3-200", Name: "Attack on Titan Season 3"},
			{ID: "vinland-saga-300", Name: "Vinland Saga"},
		},
	}

	seasons := DetectSeasons(info)
	require.Len(t, seasons, 3)
	assert.Equal(t, "attack-on-titan-season-2-100", seasons[0].ID)
	assert.Equal(t, 2, seasons[0].Number)
	assert.True(t, seasons[0].IsCurrent)
	assert.Equal(t, "attack-on-titan-season-3-200", seasons[1].ID)
	assert.Equal(t, "attack-on-titan-112", seasons[2].ID, "unnumbered titles sort last")

	assert.Nil(t, DetectSeasons(nil))
}

func TestDetectSeasons_SpellingVariants(t *testing.T) {
	t.Parallel()

	info := &models.AnimeInfo{
		ID:   "shingeki-no-kyojin-1",
		Name: "Shingeki no Kyojin",
		RelatedAnimes: []models.RelatedAnime{
			{ID: "shingeki-no-kyoujin-2", Name: "Shingeki no Kyoujin"},
			{ID: "boruto-3", Name: "Boruto"},
		},
	}

	seasons := DetectSeasons(info)
	ids := make([]string, len(seasons))
	for i, s := range seasons {
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{"shingeki-no-kyojin-1", "shingeki-no-kyoujin-2"}, ids)
	assert.False(t, IsSameSeries(info.Name, "Shingeki no Kyoujin"))
}
