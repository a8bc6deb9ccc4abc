package resolver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alvarorichard/animestream/internal/models"
)

var seasonTokens = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+(?:st|nd|rd|th)\s+season\b`),
	regexp.MustCompile(`(?i)\bseason\s*\d+\b`),
	regexp.MustCompile(`(?i)\bpart\s*\d+\b`),
	regexp.MustCompile(`(?i)\b\d+(?:st|nd|rd|th)\b`),
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

	// tried in order, first match wins
	seasonNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)season\s*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)(?:st|nd|rd|th)\s+season`),
		regexp.MustCompile(`(?i)part\s*(\d+)`),
		regexp.MustCompile(`\s+(\d+)$`),
	}
)

func normalizeSeriesName(name string) string {
	n := strings.ToLower(name)
	for _, re := range seasonTokens {
		n = re.ReplaceAllString(n, " ")
	}
	return nonAlphanumeric.ReplaceAllString(n, "")
}

// IsSameSeries reports whether two titles name the same series,
// ignoring season and part markers.
func IsSameSeries(nameA, nameB string) bool {
	a := normalizeSeriesName(nameA)
	b := normalizeSeriesName(nameB)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// ExtractSeasonNumber returns the season or part number carried by a title
func ExtractSeasonNumber(name string) (int, bool) {
	for _, re := range seasonNumberPatterns {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// lessBySeason orders numbered titles first by number, the rest lexically
func lessBySeason(nameI, nameJ string) bool {
	ni, okI := ExtractSeasonNumber(nameI)
	nj, okJ := ExtractSeasonNumber(nameJ)
	switch {
	case okI && okJ && ni != nj:
		return ni < nj
	case okI != okJ:
		return okI
	default:
		return nameI < nameJ
	}
}

// SortBySeason sorts titles in place by season number
func SortBySeason(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return lessBySeason(names[i], names[j])
	})
}

// SeriesSimilarityThreshold is the title similarity at which a related
// title counts as the same series even when the names differ in spelling
const SeriesSimilarityThreshold = 0.9

func isRelatedSeason(current, candidate string) bool {
	return IsSameSeries(current, candidate) || StringSimilarity(current, candidate) >= SeriesSimilarityThreshold
}

// DetectSeasons collects the seasons of an anime from the aggregator's
// season list and the related titles that belong to the same series.
func DetectSeasons(info *models.AnimeInfo) []models.DetectedSeason {
	if info == nil {
		return nil
	}

	seen := make(map[string]bool)
	var seasons []models.DetectedSeason
	add := func(id, name string, current bool) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		number, _ := ExtractSeasonNumber(name)
		seasons = append(seasons, models.DetectedSeason{
			ID:        id,
			Name:      name,
			Number:    number,
			IsCurrent: current,
		})
	}

	add(info.ID, info.Name, true)
	for _, s := range info.Seasons {
		name := s.Name
		if name == "" {
			name = s.Title
		}
		add(s.ID, name, s.IsCurrent || s.ID == info.ID)
	}
	for _, r := range info.RelatedAnimes {
		if isRelatedSeason(info.Name, r.Name) {
			add(r.ID, r.Name, false)
		}
	}

	sort.SliceStable(seasons, func(i, j int) bool {
		return lessBySeason(seasons[i].Name, seasons[j].Name)
	})
	return seasons
}
