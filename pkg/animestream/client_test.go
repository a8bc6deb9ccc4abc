package animestream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvarorichard/animestream/internal/scraper"
	"github.com/alvarorichard/animestream/pkg/animestream"
	"github.com/alvarorichard/animestream/pkg/animestream/types"
)

const hindiPage = `<html><head><title>Naruto Hindi</title></head><body>
<h1>Naruto</h1>
<script>const serverVideos = {
  filemoon: [{name: '01', url: 'https://filemoon.example/e/n1.m3u8'}],
  servabyss: [{name: '01', url: 'https://servabyss.example/e/n1'}],
};</script>
</body></html>`

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/agg/episode/sources", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sources":[{"url":"https://cdn.example/n1.m3u8","isM3U8":true}],
			"subtitles":[{"url":"https://cdn.example/n1.vtt","lang":"English"}],
			"intro":{"start":5,"end":80}}`))
	})
	mux.HandleFunc("/agg/anime/naruto-677", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"anime":{"info":{"id":"naruto-677","name":"Naruto"}},
			"relatedAnimes":[{"id":"naruto-shippuden-355","name":"Naruto: Shippuden"},{"id":"boruto-8143","name":"Boruto"}]}`))
	})
	mux.HandleFunc("/ahd/naruto/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hindiPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newClient(server *httptest.Server) *animestream.Client {
	return animestream.NewClient(
		animestream.WithHTTPClient(server.Client()),
		animestream.WithAggregatorURL(server.URL+"/agg"),
		animestream.WithWatchAnimeWorldURL(server.URL+"/waw"),
		animestream.WithAnimeHindiDubbedURL(server.URL+"/ahd"),
	)
}

func TestGetAvailableSources(t *testing.T) {
	t.Parallel()

	sources := animestream.NewClient().GetAvailableSources()
	assert.Equal(t, []types.Source{
		types.SourceHiAnime,
		types.SourceWatchAnimeWorld,
		types.SourceAnimeHindiDubbed,
	}, sources)
}

func TestSourceString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source   types.Source
		expected string
	}{
		{types.SourceHiAnime, "HiAnime"},
		{types.SourceWatchAnimeWorld, "WatchAnimeWorld"},
		{types.SourceAnimeHindiDubbed, "AnimeHindiDubbed"},
		{types.Source(42), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.source.String())
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	source, err := types.ParseSource(" AHD ")
	require.NoError(t, err)
	assert.Equal(t, types.SourceAnimeHindiDubbed, source)

	_, err = types.ParseSource("animefire")
	assert.Error(t, err)
}

func TestClient_Resolve(t *testing.T) {
	t.Parallel()

	client := newClient(newUpstream(t))
	result, err := client.Resolve(context.Background(), animestream.EpisodeRequest{
		EpisodeID:     "naruto-677?ep=12352",
		AnimeName:     "Naruto",
		EpisodeNumber: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "naruto", result.AnimeSlug)
	assert.False(t, result.HasWatchAnimeWorld)
	assert.True(t, result.HasAnimeHindiDubbed)
	require.NotNil(t, result.Intro)
	assert.Equal(t, 80, result.Intro.End)
	require.Len(t, result.Subtitles, 1)

	// no extractor configured: the embed stays as returned
	require.Len(t, result.Streams, 3)
	assert.Equal(t, "https://cdn.example/n1.m3u8", result.Streams[0].URL)
	assert.Equal(t, "AnimeHindiDubbed Berlin", result.Streams[1].Label)
	assert.True(t, result.Streams[1].IsHLS)
	assert.True(t, result.Streams[2].IsEmbed)
	assert.True(t, result.Streams[2].IsDub)
	assert.Equal(t, "Hindi", result.Streams[2].Language)
}

func TestClient_ExtractorUsesConfiguredHTTPClient(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/agg/episode/sources", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sources":[{"url":"https://cdn.example/n1.m3u8","isM3U8":true}]}`))
	})
	mux.HandleFunc("/ahd/naruto/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hindiPage))
	})
	mux.HandleFunc("/extract", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"sources":[{"url":"` + r.URL.Query().Get("url") + `/index.m3u8","type":"hls"}]}`))
	})
	// only server.Client() trusts the TLS certificate
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client := animestream.NewClient(
		animestream.WithExtractorURL(server.URL+"/extract"),
		animestream.WithHTTPClient(server.Client()),
		animestream.WithAggregatorURL(server.URL+"/agg"),
		animestream.WithWatchAnimeWorldURL(server.URL+"/waw"),
		animestream.WithAnimeHindiDubbedURL(server.URL+"/ahd"),
	)
	result, err := client.Resolve(context.Background(), animestream.EpisodeRequest{
		EpisodeID:     "naruto-677?ep=12352",
		AnimeName:     "Naruto",
		EpisodeNumber: 1,
	})
	require.NoError(t, err)

	labels := make([]string, len(result.Streams))
	for i, s := range result.Streams {
		labels[i] = s.Label
	}
	assert.Contains(t, labels, "AnimeHindiDubbed Madrid (Direct)")
	assert.Contains(t, labels, "AnimeHindiDubbed Madrid (Embed)")
}

func TestClient_ResolvePrimaryDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newClient(server).Resolve(context.Background(), animestream.EpisodeRequest{EpisodeID: "naruto-677?ep=1"})
	assert.ErrorIs(t, err, scraper.ErrPrimaryUnavailable)
}

func TestClient_ProviderStreams(t *testing.T) {
	t.Parallel()

	client := newClient(newUpstream(t))
	streams, err := client.ProviderStreams(context.Background(), types.SourceAnimeHindiDubbed, "naruto", 1, 1)
	require.NoError(t, err)
	assert.Len(t, streams, 2)

	_, err = client.ProviderStreams(context.Background(), types.SourceHiAnime, "naruto", 1, 1)
	assert.ErrorIs(t, err, scraper.ErrUnsupportedProvider)
}

func TestClient_AnimePageAndSeasons(t *testing.T) {
	t.Parallel()

	client := newClient(newUpstream(t))

	page, err := client.AnimePage(context.Background(), "naruto")
	require.NoError(t, err)
	assert.Equal(t, "Naruto", page.Title)
	assert.Len(t, page.Episodes, 2)
	assert.Equal(t, "filemoon", page.Episodes[0].Server)

	seasons, err := client.Seasons(context.Background(), "naruto-677")
	require.NoError(t, err)
	ids := make([]string, len(seasons))
	for i, s := range seasons {
		ids[i] = s.ID
	}
	assert.Contains(t, ids, "naruto-677")
	assert.Contains(t, ids, "naruto-shippuden-355")
	assert.NotContains(t, ids, "boruto-8143")
}

func TestClient_DeriveSlug(t *testing.T) {
	t.Parallel()

	slug, err := animestream.NewClient().DeriveSlug("jujutsu-kaisen-2nd-season-18413?ep=102662")
	require.NoError(t, err)
	assert.Equal(t, "jujutsu-kaisen-2nd-season", slug)
}
