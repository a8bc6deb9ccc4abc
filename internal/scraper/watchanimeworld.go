package scraper

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/util"
)

// ProviderWatchAnimeWorld labels sources from the per-language embed site
const ProviderWatchAnimeWorld = "WatchAnimeWorld"

// Pattern rules for the embed table. Markup changes only need edits here.
var (
	embedDataPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<iframe[^>]+data-src=["'][^"']*[?&](?:amp;)?data=([^"'&]+)`),
		regexp.MustCompile(`data-src=["'][^"']*[?&](?:amp;)?data=([^"'&]+)`),
	}
	m3u8Pattern = regexp.MustCompile(`https?://[^\s"'<>\\]+\.m3u8[^\s"'<>\\]*`)
)

// embedEntry is one item of the decoded per-language embed table
type embedEntry struct {
	Language string `json:"language"`
	Lang     string `json:"lang"`
	Link     string `json:"link"`
	URL      string `json:"url"`
}

func (e embedEntry) language() string {
	if e.Language != "" {
		return e.Language
	}
	return e.Lang
}

func (e embedEntry) link() string {
	if e.Link != "" {
		return e.Link
	}
	return e.URL
}

// regexDataParam pulls the raw data= parameter out of an iframe data-src
func regexDataParam(pattern *regexp.Regexp) PageExtractor[string] {
	return PageExtractorFunc[string](func(body string) mo.Result[string] {
		match := pattern.FindStringSubmatch(body)
		if len(match) < 2 || match[1] == "" {
			return mo.Err[string](ErrPatternNotFound)
		}
		return mo.Ok(match[1])
	})
}

// documentDataParam walks iframe[data-src] elements with goquery
var documentDataParam = PageExtractorFunc[string](func(body string) mo.Result[string] {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return mo.Err[string](errors.Wrap(err, "failed to parse HTML"))
	}

	var param string
	doc.Find("iframe[data-src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("data-src")
		parsed, err := url.Parse(strings.TrimSpace(src))
		if err != nil {
			return true
		}
		if value := parsed.Query().Get("data"); value != "" {
			param = value
			return false
		}
		return true
	})
	if param == "" {
		return mo.Err[string](ErrPatternNotFound)
	}
	return mo.Ok(param)
})

// embedDataExtractor applies the rules in order
var embedDataExtractor = FirstOf(append(
	lo.Map(embedDataPatterns, func(p *regexp.Regexp, _ int) PageExtractor[string] { return regexDataParam(p) }),
	PageExtractor[string](documentDataParam),
)...)

// decodeEmbedData turns the data= parameter into the embed table
func decodeEmbedData(param string) mo.Result[[]embedEntry] {
	raw := strings.TrimSpace(param)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(raw)
		if err != nil {
			continue
		}
		var entries []embedEntry
		if err := json.Unmarshal(decoded, &entries); err != nil {
			continue
		}
		return mo.Ok(entries)
	}
	return mo.Err[[]embedEntry](ErrDecode)
}

// scanHLSLocators finds literal manifest URLs anywhere in the page
func scanHLSLocators(body string) []string {
	matches := m3u8Pattern.FindAllString(body, -1)
	return lo.Uniq(matches)
}

// WatchAnimeWorldClient scrapes the per-language embed table of an episode page
type WatchAnimeWorldClient struct {
	fetcher *pageFetcher
	baseURL string
	logger  *log.Logger
}

// NewWatchAnimeWorldClient creates a new adapter rooted at baseURL
func NewWatchAnimeWorldClient(baseURL string, client *http.Client, logger *log.Logger) *WatchAnimeWorldClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if logger == nil {
		logger = util.DefaultLogger()
	}
	return &WatchAnimeWorldClient{
		fetcher: newPageFetcher(client, baseURL+"/"),
		baseURL: baseURL,
		logger:  logger,
	}
}

// Name returns the provider label
func (c *WatchAnimeWorldClient) Name() string {
	return ProviderWatchAnimeWorld
}

// EpisodeURL returns the canonical page of an episode
func (c *WatchAnimeWorldClient) EpisodeURL(animeSlug string, season, episode int) (models.ParsedEpisodeURL, bool) {
	return resolver.ParseEpisodeSlug(resolver.BuildEpisodeSlug(animeSlug, season, episode), c.baseURL)
}

// FetchSources returns every source listed on the episode page.
// A challenge page or a page without an embed table yields an error and no sources.
func (c *WatchAnimeWorldClient) FetchSources(ctx context.Context, animeSlug string, season, episode int) ([]models.StreamingSource, error) {
	parsed, ok := c.EpisodeURL(animeSlug, season, episode)
	if !ok {
		return nil, errors.Errorf("no episode mapping for %q S%dE%d", animeSlug, season, episode)
	}

	c.logger.Debug("Fetching episode page", "provider", ProviderWatchAnimeWorld, "url", parsed.FullURL)

	body, err := c.fetcher.fetch(ctx, parsed.FullURL)
	if err != nil {
		return nil, err
	}
	return c.parseSources(body), nil
}

// parseSources builds sources from the embed table and any literal manifests.
// Both paths are independent, so a missing table still yields scanned manifests.
func (c *WatchAnimeWorldClient) parseSources(body string) []models.StreamingSource {
	headers := map[string]string{"Referer": c.baseURL + "/"}
	var sources []models.StreamingSource
	seen := make(map[string]bool)

	param, err := embedDataExtractor.Extract(body).Get()
	if err == nil {
		table, decodeErr := decodeEmbedData(param).Get()
		if decodeErr != nil {
			c.logger.Warn("Embed table could not be decoded", "provider", ProviderWatchAnimeWorld, "error", decodeErr)
		}
		for _, entry := range table {
			link := strings.TrimSpace(entry.link())
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			sources = append(sources, newWatchAnimeWorldSource(link, entry.language(), headers))
		}
	} else {
		c.logger.Debug("No embed table on page", "provider", ProviderWatchAnimeWorld, "error", err)
	}

	for _, locator := range scanHLSLocators(body) {
		if seen[locator] {
			continue
		}
		seen[locator] = true
		sources = append(sources, newWatchAnimeWorldSource(locator, "", headers))
	}
	return sources
}

func newWatchAnimeWorldSource(link, language string, headers map[string]string) models.StreamingSource {
	lang := models.LookupLanguage(language)
	isM3U8 := models.LooksLikeHLS(link)
	needsHeadless := !isM3U8
	return models.StreamingSource{
		URL:           link,
		IsM3U8:        isM3U8,
		IsEmbed:       !isM3U8 && needsHeadless,
		NeedsHeadless: needsHeadless,
		Language:      lang.Label,
		LangCode:      lang.Code,
		IsDub:         models.IsDubLanguage(lang.Label),
		ProviderName:  ProviderWatchAnimeWorld,
		Headers:       headers,
	}
}
