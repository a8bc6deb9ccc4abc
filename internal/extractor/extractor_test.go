package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvarorichard/animestream/internal/models"
)

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBlocked("https://storage.googleapis.com/bucket/video.mp4"))
	assert.True(t, IsBlocked("https://STORAGE.GOOGLEAPIS.COM/x.m3u8"))
	assert.False(t, IsBlocked("https://cdn.example.com/master.m3u8"))
}

func TestFilterBlocked(t *testing.T) {
	t.Parallel()

	t.Run("drops blocked locators", func(t *testing.T) {
		t.Parallel()
		result := FilterBlocked(models.ExtractionResult{
			Success: true,
			Sources: []models.ExtractedSource{
				{URL: "https://storage.googleapis.com/a.mp4", Type: models.LocatorMP4},
				{URL: "https://cdn.example.com/master.m3u8", Type: models.LocatorHLS},
			},
		})
		require.True(t, result.Success)
		require.Len(t, result.Sources, 1)
		assert.Equal(t, "https://cdn.example.com/master.m3u8", result.Sources[0].URL)
	})

	t.Run("success with only blocked locators fails", func(t *testing.T) {
		t.Parallel()
		result := FilterBlocked(models.ExtractionResult{
			Success: true,
			Sources: []models.ExtractedSource{{URL: "https://storage.googleapis.com/a.mp4"}},
		})
		assert.False(t, result.Success)
		assert.Empty(t, result.Sources)
		assert.Contains(t, result.Error, "blocked")
	})

	t.Run("failure passes through", func(t *testing.T) {
		t.Parallel()
		in := models.ExtractionResult{Success: false, Error: "boom"}
		assert.Equal(t, in, FilterBlocked(in))
	})
}

func TestLocatorType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.LocatorHLS, LocatorType("https://a/b/master.m3u8?token=1"))
	assert.Equal(t, models.LocatorMP4, LocatorType("https://a/b/video.mp4"))
}

func TestNoop(t *testing.T) {
	t.Parallel()

	result := Noop{}.Extract(context.Background(), "https://embed.example/e/1", time.Second)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRemoteClient_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://embed.example/e/1", r.URL.Query().Get("url"))
		assert.Equal(t, "5000", r.URL.Query().Get("timeout"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ExtractionResult{
			Success: true,
			Sources: []models.ExtractedSource{{URL: "https://cdn.example/master.m3u8", Type: models.LocatorHLS}},
		})
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL+"/api/extract", server.Client())
	result := client.Extract(context.Background(), "https://embed.example/e/1", 5*time.Second)

	require.True(t, result.Success)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, models.LocatorHLS, result.Sources[0].Type)
}

func TestRemoteClient_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusBadGateway)
			},
		},
		{
			name: "reported failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"success":false}`))
			},
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewRemoteClient(server.URL, server.Client())
			result := client.Extract(context.Background(), "https://embed.example/e/1", 200*time.Millisecond)

			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestLocatorCollector(t *testing.T) {
	t.Parallel()

	c := newLocatorCollector()
	c.add("https://cdn.example/app.js")
	c.add("https://cdn.example/video.mp4")
	c.add("https://cdn.example/video.mp4")
	c.add("blob:https://cdn.example/123")

	select {
	case <-c.found:
		t.Fatal("found closed before a manifest was seen")
	default:
	}

	c.add("https://cdn.example/master.m3u8")
	c.add("https://cdn.example/other.m3u8")

	select {
	case <-c.found:
	default:
		t.Fatal("found not closed after a manifest was seen")
	}

	sources := c.sources()
	require.Len(t, sources, 3)
	assert.Equal(t, models.LocatorMP4, sources[0].Type)
	assert.Equal(t, models.LocatorHLS, sources[1].Type)
}
