package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/util"
)

// ProviderAnimeHindiDubbed labels sources from the named-server site
const ProviderAnimeHindiDubbed = "AnimeHindiDubbed"

// serverLabels are the names the site shows for each delivery server
var serverLabels = map[string]string{
	models.ServerFilemoon:  "Berlin",
	models.ServerServabyss: "Madrid",
	models.ServerVidgroud:  "Tokyo",
}

var (
	serverVideosDecl = regexp.MustCompile(`const\s+serverVideos\s*=\s*`)
	videoTuple       = regexp.MustCompile(`\{\s*["']?name["']?\s*:\s*["']([^"']*)["']\s*,\s*["']?url["']?\s*:\s*["']([^"']*)["']`)
	smartQuotes      = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‘", "'", "’", "'")
)

// PageFetcher returns the parsed anime page for a slug
type PageFetcher interface {
	FetchAnimePage(ctx context.Context, slug string) (*models.AnimePageData, error)
}

// AnimeHindiDubbedClient scrapes anime pages of the named-server site
type AnimeHindiDubbedClient struct {
	fetcher *pageFetcher
	baseURL string
	logger  *log.Logger
}

// NewAnimeHindiDubbedClient creates a new page client rooted at baseURL
func NewAnimeHindiDubbedClient(baseURL string, client *http.Client, logger *log.Logger) *AnimeHindiDubbedClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if logger == nil {
		logger = util.DefaultLogger()
	}
	return &AnimeHindiDubbedClient{
		fetcher: newPageFetcher(client, baseURL+"/"),
		baseURL: baseURL,
		logger:  logger,
	}
}

// FetchAnimePage fetches and parses the page of one anime
func (c *AnimeHindiDubbedClient) FetchAnimePage(ctx context.Context, slug string) (*models.AnimePageData, error) {
	slug = strings.Trim(slug, "/ ")
	if slug == "" {
		return nil, errors.Wrap(resolver.ErrCannotResolveSlug, "empty page slug")
	}

	pageURL := fmt.Sprintf("%s/%s/", c.baseURL, slug)
	c.logger.Debug("Fetching anime page", "provider", ProviderAnimeHindiDubbed, "url", pageURL)

	body, err := c.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	servers, err := parseServerVideos(body, c.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "server table of %s", slug)
	}

	page := parsePageMetadata(body)
	page.Slug = slug
	page.Servers = servers
	return page, nil
}

// parsePageMetadata reads the descriptive fields. Missing markup leaves them empty.
func parsePageMetadata(body string) *models.AnimePageData {
	page := &models.AnimePageData{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return page
	}

	page.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if page.Title == "" {
		page.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	page.Thumbnail = metaContent(doc, `meta[property="og:image"]`)
	page.Description = metaContent(doc, `meta[name="description"]`)
	if page.Description == "" {
		page.Description = metaContent(doc, `meta[property="og:description"]`)
	}

	page.Rating = strings.TrimSpace(doc.Find(`[itemprop="ratingValue"]`).First().Text())
	if page.Rating == "" {
		page.Rating = strings.TrimSpace(doc.Find(".rating").First().Text())
	}
	return page
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// parseServerVideos extracts the serverVideos literal. A strict parse of the
// normalized literal is tried first, then each server is recovered on its own.
func parseServerVideos(body string, logger *log.Logger) (models.ServerTable, error) {
	var table models.ServerTable

	literal, ok := serverVideosLiteral(body)
	if !ok {
		return table, ErrPatternNotFound
	}

	var strict map[string][]models.ServerVideo
	if err := json.Unmarshal([]byte(normalizeJSLiteral(literal)), &strict); err == nil {
		for _, name := range models.ServerNames {
			table.Set(name, cleanVideos(strict[name]))
		}
		return table, nil
	} else if logger != nil {
		logger.Debug("serverVideos strict parse failed, falling back per server", "error", err)
	}

	for _, name := range models.ServerNames {
		videos, err := parseServerFallback(literal, name)
		if err != nil {
			if logger != nil {
				logger.Warn("Server table unreadable", "server", name, "error", err)
			}
			continue
		}
		table.Set(name, videos)
	}
	if table.Total() == 0 {
		return table, ErrDecode
	}
	return table, nil
}

// serverVideosLiteral returns the {...} object assigned to serverVideos
func serverVideosLiteral(body string) (string, bool) {
	loc := serverVideosDecl.FindStringIndex(body)
	if loc == nil {
		return "", false
	}
	rest := body[loc[1]:]
	if !strings.HasPrefix(rest, "{") {
		return "", false
	}
	end := balancedEnd(rest, '{', '}')
	if end < 0 {
		return "", false
	}
	return rest[:end+1], true
}

// balancedEnd returns the index of the bracket closing s[0], skipping quoted text
func balancedEnd(s string, open, closing byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseServerFallback isolates one server's array and reads its name/url tuples
func parseServerFallback(literal, server string) ([]models.ServerVideo, error) {
	loc := serverKeyPattern(server).FindStringIndex(literal)
	if loc == nil {
		return nil, ErrPatternNotFound
	}
	rest := literal[loc[1]-1:]
	var array string
	if end := balancedEnd(rest, '[', ']'); end >= 0 {
		array = rest[:end+1]
	} else {
		// unterminated: stop at the next server key or the literal's closing brace
		array = rest[:unterminatedArrayEnd(rest, server)]
	}

	var videos []models.ServerVideo
	if err := json.Unmarshal([]byte(normalizeJSLiteral(array)), &videos); err == nil {
		return cleanVideos(videos), nil
	}

	for _, match := range videoTuple.FindAllStringSubmatch(array, -1) {
		videos = append(videos, models.ServerVideo{Name: match[1], URL: match[2]})
	}
	videos = cleanVideos(videos)
	if len(videos) == 0 {
		return nil, ErrDecode
	}
	return videos, nil
}

func serverKeyPattern(server string) *regexp.Regexp {
	return regexp.MustCompile(`["'“”]?` + regexp.QuoteMeta(server) + `["'“”]?\s*:\s*\[`)
}

// unterminatedArrayEnd returns where an array without its closing bracket ends
func unterminatedArrayEnd(rest, server string) int {
	end := strings.LastIndexByte(rest, '}')
	if end < 0 {
		end = len(rest)
	}
	for _, other := range models.ServerNames {
		if other == server {
			continue
		}
		if loc := serverKeyPattern(other).FindStringIndex(rest); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}
	return end
}

func cleanVideos(videos []models.ServerVideo) []models.ServerVideo {
	out := make([]models.ServerVideo, 0, len(videos))
	for _, v := range videos {
		v.Name = strings.TrimSpace(v.Name)
		v.URL = strings.TrimSpace(v.URL)
		if v.URL == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// normalizeJSLiteral rewrites a JavaScript object literal into JSON:
// smart quotes become plain quotes, single-quoted strings become double-quoted,
// bare keys get quoted and trailing commas are dropped.
func normalizeJSLiteral(literal string) string {
	s := smartQuotes.Replace(literal)
	var b strings.Builder
	b.Grow(len(s) + 16)

	var quote byte
	lastSignificant := byte(0)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch {
			case ch == '\\' && i+1 < len(s):
				next := s[i+1]
				if next == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte(ch)
					b.WriteByte(next)
				}
				i++
			case ch == quote:
				b.WriteByte('"')
				quote = 0
			case ch == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(ch)
			}
			continue
		}

		switch {
		case ch == '"' || ch == '\'':
			quote = ch
			b.WriteByte('"')
			lastSignificant = '"'
		case ch == ',':
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(ch)
			lastSignificant = ch
		case isIdentStart(ch) && (lastSignificant == '{' || lastSignificant == ','):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			lastSignificant = s[j-1]
			i = j - 1
		default:
			b.WriteByte(ch)
			if !isSpace(ch) {
				lastSignificant = ch
			}
		}
	}
	return b.String()
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// CachedPageFetcher serves anime pages from a TTL cache keyed by slug
type CachedPageFetcher struct {
	next  PageFetcher
	cache *util.TTLCache[*models.AnimePageData]
}

// NewCachedPageFetcher wraps next with cache
func NewCachedPageFetcher(next PageFetcher, cache *util.TTLCache[*models.AnimePageData]) *CachedPageFetcher {
	return &CachedPageFetcher{next: next, cache: cache}
}

// FetchAnimePage implements PageFetcher. Failures are not cached.
func (c *CachedPageFetcher) FetchAnimePage(ctx context.Context, slug string) (*models.AnimePageData, error) {
	key := strings.ToLower(strings.Trim(slug, "/ "))
	if page, ok := c.cache.Get(key); ok {
		return page, nil
	}
	page, err := c.next.FetchAnimePage(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, page)
	return page, nil
}

// FindEpisode returns at most one entry per server for the episode.
// The zero-padded name wins; otherwise names are parsed and matched
// numerically, preferring the requested season when one is given.
func FindEpisode(page *models.AnimePageData, season, episode int) []models.ServerMatch {
	if page == nil || episode <= 0 {
		return nil
	}

	padded := fmt.Sprintf("%02d", episode)
	var matches []models.ServerMatch

	page.Servers.Each(func(server string, videos []models.ServerVideo) {
		for _, v := range videos {
			if v.Name == padded {
				matches = append(matches, models.ServerMatch{Server: server, Video: v})
				return
			}
		}

		var fallback *models.ServerVideo
		for i := range videos {
			s, e, ok := resolver.ParseServerEpisodeName(videos[i].Name)
			if !ok || e != episode {
				continue
			}
			if season <= 0 || s == 0 || s == season {
				matches = append(matches, models.ServerMatch{Server: server, Video: videos[i]})
				return
			}
			if fallback == nil {
				fallback = &videos[i]
			}
		}
		if fallback != nil {
			matches = append(matches, models.ServerMatch{Server: server, Video: *fallback})
		}
	})
	return matches
}

// AnimeHindiDubbedProvider turns page lookups into streaming sources
type AnimeHindiDubbedProvider struct {
	pages   PageFetcher
	baseURL string
}

// NewAnimeHindiDubbedProvider creates a provider reading pages through pages
func NewAnimeHindiDubbedProvider(pages PageFetcher, baseURL string) *AnimeHindiDubbedProvider {
	return &AnimeHindiDubbedProvider{pages: pages, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name returns the provider label
func (p *AnimeHindiDubbedProvider) Name() string {
	return ProviderAnimeHindiDubbed
}

// FetchSources returns one source per server carrying the episode.
// Every source is marked dubbed.
func (p *AnimeHindiDubbedProvider) FetchSources(ctx context.Context, animeSlug string, season, episode int) ([]models.StreamingSource, error) {
	page, err := p.pages.FetchAnimePage(ctx, animeSlug)
	if err != nil {
		return nil, err
	}

	lang := models.LookupLanguage("hindi")
	var headers map[string]string
	if p.baseURL != "" {
		headers = map[string]string{"Referer": p.baseURL + "/"}
	}

	matches := FindEpisode(page, season, episode)
	sources := make([]models.StreamingSource, 0, len(matches))
	for _, m := range matches {
		isM3U8 := models.LooksLikeHLS(m.Video.URL)
		sources = append(sources, models.StreamingSource{
			URL:           m.Video.URL,
			IsM3U8:        isM3U8,
			IsEmbed:       !isM3U8,
			NeedsHeadless: !isM3U8,
			Language:      lang.Label,
			LangCode:      lang.Code,
			IsDub:         true,
			ProviderName:  fmt.Sprintf("%s %s", ProviderAnimeHindiDubbed, serverLabels[m.Server]),
			Headers:       headers,
		})
	}
	return sources, nil
}
