package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/tracking"
)

const hindiPage = `<html><head><title>Naruto Hindi</title></head><body>
<h1>Naruto</h1>
<script>const serverVideos = {
  filemoon: [{name: '01', url: 'https://filemoon.example/e/n1'}, {name: '02', url: 'https://filemoon.example/e/n2'}],
};</script>
</body></html>`

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/agg/episode/sources", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":200,"data":{"sources":[{"url":"https://cdn.example/n1.m3u8","type":"hls"}]}}`))
	})
	mux.HandleFunc("/agg/anime/naruto-677", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":200,"data":{"anime":{"info":{"id":"naruto-677","name":"Naruto"}},
			"relatedAnimes":[{"id":"naruto-shippuden-355","name":"Naruto: Shippuden"}]}}`))
	})
	mux.HandleFunc("/ahd/naruto/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hindiPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// isolate points every upstream at server and keeps state in a temp dir
func isolate(t *testing.T, server *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("ANIMESTREAM_EXTRACTOR_MODE", "off")
	t.Setenv("ANIMESTREAM_TRACKING_DB_PATH", filepath.Join(dir, "history.db"))
	if server != nil {
		t.Setenv("ANIMESTREAM_AGGREGATOR_BASE_URL", server.URL+"/agg")
		t.Setenv("ANIMESTREAM_WATCHANIMEWORLD_BASE_URL", server.URL+"/waw")
		t.Setenv("ANIMESTREAM_ANIMEHINDIDUBBED_BASE_URL", server.URL+"/ahd")
	}
	return dir
}

// run executes the command tree and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, args...)
	return out, err
}

func runWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSlugCmd(t *testing.T) {
	isolate(t, nil)

	out, err := run(t, "slug", "one-piece-100?ep=2142")
	require.NoError(t, err)
	assert.Equal(t, "one-piece\n", out)

	_, err = run(t, "slug", "--", "-123")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "animestream v")
	assert.Contains(t, out, "Platform:")
}

func TestResolveCmd_JSON(t *testing.T) {
	isolate(t, newUpstream(t))

	out, err := run(t, "resolve", "naruto-677?ep=12352", "--name", "Naruto", "--episode", "1", "--json")
	require.NoError(t, err)

	var result models.CombinedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "naruto", result.AnimeSlug)
	assert.True(t, result.HasAnimeHindiDubbed)
	assert.False(t, result.HasWatchAnimeWorld)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "https://cdn.example/n1.m3u8", result.Sources[0].URL)
	assert.Equal(t, "https://filemoon.example/e/n1", result.Sources[1].URL)
	assert.Contains(t, out, `"label": "AnimeHindiDubbed Berlin"`)
}

func TestResolveCmd_PrimaryDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	isolate(t, server)

	_, err := run(t, "resolve", "naruto-677?ep=12352")
	assert.Error(t, err)
}

func TestHistoryCmd(t *testing.T) {
	isolate(t, newUpstream(t))

	_, err := run(t, "resolve", "naruto-677?ep=12352", "-e", "1", "--json")
	require.NoError(t, err)

	out, errOut, err := runWithStderr(t, "history", "--json")
	require.NoError(t, err)
	if !tracking.IsCgoEnabled {
		assert.Contains(t, errOut, "no SQLite support")
		return
	}

	var events []tracking.Event
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "naruto-677?ep=12352", events[0].EpisodeID)
	assert.Equal(t, tracking.OutcomeOK, events[0].Outcome)
}

func TestPageCmd(t *testing.T) {
	isolate(t, newUpstream(t))

	out, err := run(t, "page", "Naruto")
	require.NoError(t, err)
	assert.Contains(t, out, "Naruto")
	assert.Contains(t, out, "filemoon (2)")
	assert.Contains(t, out, "https://filemoon.example/e/n2")

	_, err = run(t, "page", "bleach")
	assert.Error(t, err)
}

func TestSeasonsCmd(t *testing.T) {
	isolate(t, newUpstream(t))

	out, err := run(t, "seasons", "naruto-677", "--json")
	require.NoError(t, err)

	var seasons []models.DetectedSeason
	require.NoError(t, json.Unmarshal([]byte(out), &seasons))
	require.Len(t, seasons, 2)
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	renderResult(&buf, &models.CombinedResult{
		EpisodeID: "naruto-677?ep=1",
		AnimeSlug: "naruto",
		Sources: []models.StreamingSource{
			{URL: "https://x.example/a.m3u8", IsM3U8: true, ProviderName: "HiAnime", Language: "Japanese"},
			{URL: "https://x.example/e/1", IsEmbed: true, ProviderName: "WatchAnimeWorld", Origin: models.OriginEmbed},
		},
		Subtitles: []models.Subtitle{{URL: "https://x.example/en.vtt", Lang: "English"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Sources (2, 1 direct)")
	assert.Contains(t, out, "embed")
	assert.Contains(t, out, "WatchAnimeWorld (Embed)")
	assert.Contains(t, out, "Subtitles (1)")
	assert.Equal(t, 1, strings.Count(out, "hls"))
}

func TestRunWithProgress(t *testing.T) {
	t.Run("disabled runs directly", func(t *testing.T) {
		calls := 0
		runWithProgress(false, func() { calls++ }, func(func()) error {
			t.Fatal("progress display must not be used")
			return nil
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("display runs the action once", func(t *testing.T) {
		calls := 0
		runWithProgress(true, func() { calls++ }, func(action func()) error {
			action()
			return nil
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("display failure falls back", func(t *testing.T) {
		calls := 0
		runWithProgress(true, func() { calls++ }, func(func()) error {
			return errors.New("no tty")
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("failure after the action does not rerun it", func(t *testing.T) {
		calls := 0
		runWithProgress(true, func() { calls++ }, func(action func()) error {
			action()
			return errors.New("render failed")
		})
		assert.Equal(t, 1, calls)
	})
}

func TestPickSource_Empty(t *testing.T) {
	_, err := pickSource(nil)
	assert.ErrorIs(t, err, ErrNoSources)
}
