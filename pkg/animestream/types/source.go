package types

import (
	"fmt"
	"strings"

	"github.com/alvarorichard/animestream/internal/scraper"
)

// Source represents a stream source
type Source int

const (
	// SourceHiAnime is the primary aggregator
	SourceHiAnime Source = iota
	// SourceWatchAnimeWorld is the episode-page scrape site
	SourceWatchAnimeWorld
	// SourceAnimeHindiDubbed is the named-server Hindi dub site
	SourceAnimeHindiDubbed
)

// String returns the string representation of the source
func (s Source) String() string {
	switch s {
	case SourceHiAnime:
		return scraper.ProviderHiAnime
	case SourceWatchAnimeWorld:
		return scraper.ProviderWatchAnimeWorld
	case SourceAnimeHindiDubbed:
		return scraper.ProviderAnimeHindiDubbed
	default:
		return "Unknown"
	}
}

// ToProviderType converts a scrape source to the combiner's provider type.
// ok is false for the aggregator, which is not a scrape provider.
func (s Source) ToProviderType() (scraper.ProviderType, bool) {
	switch s {
	case SourceWatchAnimeWorld:
		return scraper.WatchAnimeWorldType, true
	case SourceAnimeHindiDubbed:
		return scraper.AnimeHindiDubbedType, true
	default:
		return 0, false
	}
}

// ParseSource parses a string into a Source type
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hianime", "aggregator", "primary":
		return SourceHiAnime, nil
	case "watchanimeworld", "waw":
		return SourceWatchAnimeWorld, nil
	case "animehindidubbed", "ahd", "hindi":
		return SourceAnimeHindiDubbed, nil
	default:
		return SourceHiAnime, fmt.Errorf("unknown source: %s", s)
	}
}
