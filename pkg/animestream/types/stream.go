// Package types provides public type definitions for the animestream library
package types

import (
	"github.com/alvarorichard/animestream/internal/models"
)

// Stream is one playable candidate
type Stream struct {
	// URL is the HLS manifest, media file or embed page
	URL string
	// Label is the provider name shown to the user, e.g. "AnimeHindiDubbed Berlin (Direct)"
	Label    string
	Provider string
	Language string
	LangCode string
	IsDub    bool
	IsHLS    bool
	// IsEmbed marks pages that need an iframe or a headless browser
	IsEmbed bool
	Quality string
	Headers map[string]string
}

// Subtitle is a subtitle track
type Subtitle struct {
	URL     string
	Lang    string
	Default bool
}

// SkipTime is an intro or outro range in seconds
type SkipTime struct {
	Start int
	End   int
}

// Result is everything known about one episode
type Result struct {
	EpisodeID string
	AnimeSlug string
	Streams   []*Stream
	Subtitles []*Subtitle
	// Headers the aggregator's own streams must be requested with
	Headers             map[string]string
	Intro               *SkipTime
	Outro               *SkipTime
	HasWatchAnimeWorld  bool
	HasAnimeHindiDubbed bool
}

// Season is an alternate season of an aggregator anime
type Season struct {
	ID        string
	Name      string
	Number    int
	IsCurrent bool
}

// ServerEpisode is one entry of a delivery server's episode table
type ServerEpisode struct {
	Server string
	Name   string
	URL    string
}

// AnimePage is the scraped page of the Hindi dub site
type AnimePage struct {
	Title       string
	Slug        string
	Thumbnail   string
	Description string
	Rating      string
	Episodes    []*ServerEpisode
}

// FromInternalStream converts an internal source to public type
func FromInternalStream(internal models.StreamingSource) *Stream {
	return &Stream{
		URL:      internal.URL,
		Label:    internal.DisplayName(),
		Provider: internal.ProviderName,
		Language: internal.Language,
		LangCode: internal.LangCode,
		IsDub:    internal.IsDub,
		IsHLS:    internal.IsM3U8,
		IsEmbed:  internal.IsEmbed,
		Quality:  internal.Quality,
		Headers:  internal.Headers,
	}
}

func fromTimeRange(r *models.TimeRange) *SkipTime {
	if r == nil {
		return nil
	}
	return &SkipTime{Start: r.Start, End: r.End}
}

// FromInternalResult converts a combined result to public type
func FromInternalResult(internal *models.CombinedResult) *Result {
	if internal == nil {
		return nil
	}

	result := &Result{
		EpisodeID:           internal.EpisodeID,
		AnimeSlug:           internal.AnimeSlug,
		Headers:             internal.Headers,
		Intro:               fromTimeRange(internal.Intro),
		Outro:               fromTimeRange(internal.Outro),
		HasWatchAnimeWorld:  internal.HasWatchAnimeWorld,
		HasAnimeHindiDubbed: internal.HasAnimeHindiDubbed,
		Streams:             make([]*Stream, len(internal.Sources)),
		Subtitles:           make([]*Subtitle, len(internal.Subtitles)),
	}
	for i, s := range internal.Sources {
		result.Streams[i] = FromInternalStream(s)
	}
	for i, s := range internal.Subtitles {
		result.Subtitles[i] = &Subtitle{URL: s.URL, Lang: s.Lang, Default: s.Default}
	}
	return result
}

// FromInternalSeasons converts detected seasons to public types
func FromInternalSeasons(internal []models.DetectedSeason) []*Season {
	result := make([]*Season, len(internal))
	for i, s := range internal {
		result[i] = &Season{ID: s.ID, Name: s.Name, Number: s.Number, IsCurrent: s.IsCurrent}
	}
	return result
}

// FromInternalAnimePage converts a scraped page to public type
func FromInternalAnimePage(internal *models.AnimePageData) *AnimePage {
	if internal == nil {
		return nil
	}

	page := &AnimePage{
		Title:       internal.Title,
		Slug:        internal.Slug,
		Thumbnail:   internal.Thumbnail,
		Description: internal.Description,
		Rating:      internal.Rating,
	}
	internal.Servers.Each(func(server string, videos []models.ServerVideo) {
		for _, v := range videos {
			page.Episodes = append(page.Episodes, &ServerEpisode{Server: server, Name: v.Name, URL: v.URL})
		}
	})
	return page
}
