package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsChallengeBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"just a moment", "<html><head><TITLE>Just a moment...</TITLE></head></html>", true},
		{"challenge platform script", `<script src="/cdn-cgi/challenge-platform/h/b/orchestrate"></script>`, true},
		{"chl opt", `window._cf_chl_opt={cvId: '3'}`, true},
		{"attention required", "<title>Attention Required! | Cloudflare</title>", true},
		{"regular page", "<html><title>Naruto Episode 1</title></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsChallengeBody(tt.body))
		})
	}
}

func TestFirstOf(t *testing.T) {
	t.Parallel()

	miss := PageExtractorFunc[string](func(string) mo.Result[string] { return mo.Err[string](ErrPatternNotFound) })
	hit := PageExtractorFunc[string](func(body string) mo.Result[string] { return mo.Ok("found:" + body) })
	broken := PageExtractorFunc[string](func(string) mo.Result[string] { return mo.Err[string](ErrDecode) })

	value, err := FirstOf[string](miss, hit, broken).Extract("x").Get()
	require.NoError(t, err)
	assert.Equal(t, "found:x", value)

	_, err = FirstOf[string](miss, broken).Extract("x").Get()
	assert.ErrorIs(t, err, ErrDecode)

	_, err = FirstOf[string]().Extract("x").Get()
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestPageFetcher_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://ref.example/", r.Header.Get("Referer"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	fetcher := newPageFetcher(server.Client(), "https://ref.example/")
	fetcher.retryDelay = time.Millisecond

	body, err := fetcher.fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPageFetcher_ChallengeNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<title>Just a moment...</title>"))
	}))
	defer server.Close()

	fetcher := newPageFetcher(server.Client(), "")
	fetcher.retryDelay = time.Millisecond

	_, err := fetcher.fetch(context.Background(), server.URL)
	assert.True(t, errors.Is(err, ErrChallenge))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPageFetcher_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newPageFetcher(server.Client(), "").fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
