package models

// AggregatorSource is a source as returned by the primary aggregator
type AggregatorSource struct {
	URL     string `json:"url"`
	IsM3U8  bool   `json:"isM3U8"`
	Type    string `json:"type,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// Subtitle represents a subtitle track for video playback
type Subtitle struct {
	URL     string `json:"url"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

// TimeRange is an intro/outro interval in seconds
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// EpisodeSources is the primary aggregator's answer for one episode
type EpisodeSources struct {
	Sources   []AggregatorSource `json:"sources"`
	Subtitles []Subtitle         `json:"subtitles"`
	Headers   map[string]string  `json:"headers"`
	Intro     *TimeRange         `json:"intro,omitempty"`
	Outro     *TimeRange         `json:"outro,omitempty"`
}

// CombinedResult is the merged answer handed to the player
type CombinedResult struct {
	EpisodeID           string            `json:"episodeId"`
	AnimeSlug           string            `json:"animeSlug,omitempty"`
	Sources             []StreamingSource `json:"sources"`
	Subtitles           []Subtitle        `json:"subtitles"`
	Headers             map[string]string `json:"headers,omitempty"`
	Intro               *TimeRange        `json:"intro,omitempty"`
	Outro               *TimeRange        `json:"outro,omitempty"`
	HasWatchAnimeWorld  bool              `json:"hasWatchAnimeWorld"`
	HasAnimeHindiDubbed bool              `json:"hasAnimeHindiDubbed"`
}

// Locator types reported by the extraction service
const (
	LocatorHLS = "hls"
	LocatorMP4 = "mp4"
)

// ExtractedSource is a direct media locator found in an embed page
type ExtractedSource struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality string `json:"quality,omitempty"`
}

// ExtractionResult is the answer of the embed extraction service
type ExtractionResult struct {
	Success bool              `json:"success"`
	Sources []ExtractedSource `json:"sources,omitempty"`
	Error   string            `json:"error,omitempty"`
}
