// Package resolver derives provider-agnostic anime identities from aggregator ids
// and matches titles across providers.
package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/models"
)

// ErrCannotResolveSlug is returned when an episode id yields no usable slug
var ErrCannotResolveSlug = errors.New("cannot determine anime slug")

var (
	// trailing "-<digits>" is the aggregator's internal anime id, not an episode number
	trailingAnimeID = regexp.MustCompile(`-\d+$`)
	episodeSlugRe   = regexp.MustCompile(`^(.+)-(\d+)x(\d+)$`)
)

// DeriveAnimeSlug recovers the name slug from an aggregator episode id
// of the form <name-slug>-<numericAnimeId>?ep=<opaqueEpisodeId>.
func DeriveAnimeSlug(episodeID string) (string, error) {
	slug := strings.TrimSpace(episodeID)
	if idx := strings.Index(slug, "?"); idx >= 0 {
		slug = slug[:idx]
	}
	slug = trailingAnimeID.ReplaceAllString(slug, "")
	slug = strings.Trim(slug, "-/ ")
	if slug == "" {
		return "", errors.Wrapf(ErrCannotResolveSlug, "episode id %q", episodeID)
	}
	return slug, nil
}

// BuildEpisodeSlug returns the <animeSlug>-<season>x<episode> key
func BuildEpisodeSlug(animeSlug string, season, episode int) string {
	return fmt.Sprintf("%s-%dx%d", animeSlug, season, episode)
}

// ParseEpisodeSlug splits an episode key and builds its page URL.
// ok is false when the key has no season/episode suffix, which callers treat
// as "no mapping for this episode".
func ParseEpisodeSlug(slug, baseURL string) (models.ParsedEpisodeURL, bool) {
	m := episodeSlugRe.FindStringSubmatch(strings.TrimSpace(slug))
	if m == nil {
		return models.ParsedEpisodeURL{}, false
	}
	season, err := strconv.Atoi(m[2])
	if err != nil {
		return models.ParsedEpisodeURL{}, false
	}
	episode, err := strconv.Atoi(m[3])
	if err != nil {
		return models.ParsedEpisodeURL{}, false
	}
	return models.ParsedEpisodeURL{
		Slug:      m[0],
		AnimeSlug: m[1],
		Season:    season,
		Episode:   episode,
		FullURL:   fmt.Sprintf("%s/episode/%s/", strings.TrimSuffix(baseURL, "/"), m[0]),
	}, true
}

var (
	bareEpisodeRe     = regexp.MustCompile(`^\d+$`)
	seasonEpisodeRe   = regexp.MustCompile(`(?i)^s(\d+)\s*e(\d+)$`)
	labelledEpisodeRe = regexp.MustCompile(`(?i)^(?:episode|ep)\.?\s*(\d+)$`)
)

// ParseServerEpisodeName reads an episode table name ("01", "S5E12", "Episode 7").
// Season is 0 when the name carries none.
func ParseServerEpisodeName(name string) (season, episode int, ok bool) {
	name = strings.TrimSpace(name)
	switch {
	case bareEpisodeRe.MatchString(name):
		n, err := strconv.Atoi(name)
		return 0, n, err == nil
	case seasonEpisodeRe.MatchString(name):
		m := seasonEpisodeRe.FindStringSubmatch(name)
		s, err1 := strconv.Atoi(m[1])
		e, err2 := strconv.Atoi(m[2])
		return s, e, err1 == nil && err2 == nil
	case labelledEpisodeRe.MatchString(name):
		m := labelledEpisodeRe.FindStringSubmatch(name)
		n, err := strconv.Atoi(m[1])
		return 0, n, err == nil
	}
	return 0, 0, false
}
