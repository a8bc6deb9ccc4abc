package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/util"
)

// ErrPrimaryUnavailable marks a failed primary aggregator call. The episode
// cannot be shown at all when this happens.
var ErrPrimaryUnavailable = errors.New("primary aggregator unavailable")

// ProviderHiAnime labels sources that come from the primary aggregator
const ProviderHiAnime = "HiAnime"

// AggregatorClient talks to the primary REST aggregator
type AggregatorClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewAggregatorClient creates a client for the aggregator rooted at baseURL
func NewAggregatorClient(baseURL string, client *http.Client) *AggregatorClient {
	if client == nil {
		client = util.GetSharedClient()
	}
	return &AggregatorClient{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: util.UserAgent,
	}
}

// RawResponse is an undecoded aggregator answer, relayed as-is
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// RawGet fetches path under the aggregator root without decoding it
func (c *AggregatorClient) RawGet(ctx context.Context, path string, query url.Values) (*RawResponse, error) {
	endpoint := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "aggregator request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read aggregator response")
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// envelope covers both the {status,data} and {success,data} wrappers
type envelope struct {
	Status  int             `json:"status"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "invalid aggregator JSON")
	}
	if env.Success != nil && !*env.Success {
		return nil, errors.Errorf("aggregator reported failure: %s", env.Message)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data, nil
	}
	return body, nil
}

type episodeSourcesPayload struct {
	Sources   []models.AggregatorSource `json:"sources"`
	Subtitles []models.Subtitle         `json:"subtitles"`
	Tracks    []struct {
		URL     string `json:"url"`
		File    string `json:"file"`
		Lang    string `json:"lang"`
		Label   string `json:"label"`
		Default bool   `json:"default"`
	} `json:"tracks"`
	Headers map[string]string `json:"headers"`
	Intro   *models.TimeRange `json:"intro"`
	Outro   *models.TimeRange `json:"outro"`
}

// EpisodeSources fetches the aggregator's sources for one episode.
// Every failure is wrapped with ErrPrimaryUnavailable.
func (c *AggregatorClient) EpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
	query := url.Values{}
	query.Set("animeEpisodeId", episodeID)
	if server != "" {
		query.Set("server", server)
	}
	if category != "" {
		query.Set("category", category)
	}

	util.Debug("Aggregator episode sources", "episode", episodeID, "server", server, "category", category)

	raw, err := c.RawGet(ctx, "/episode/sources", query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrimaryUnavailable, err)
	}
	if raw.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: aggregator returned status %d", ErrPrimaryUnavailable, raw.StatusCode)
	}

	data, err := unwrapEnvelope(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrimaryUnavailable, err)
	}

	var payload episodeSourcesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrimaryUnavailable, errors.Wrap(err, "failed to decode episode sources"))
	}

	result := &models.EpisodeSources{
		Sources:   payload.Sources,
		Subtitles: payload.Subtitles,
		Headers:   payload.Headers,
		Intro:     payload.Intro,
		Outro:     payload.Outro,
	}
	for _, track := range payload.Tracks {
		trackURL := track.URL
		if trackURL == "" {
			trackURL = track.File
		}
		lang := track.Lang
		if lang == "" {
			lang = track.Label
		}
		// thumbnail sprites share the tracks list
		if trackURL == "" || strings.EqualFold(lang, "thumbnails") {
			continue
		}
		result.Subtitles = append(result.Subtitles, models.Subtitle{URL: trackURL, Lang: lang, Default: track.Default})
	}
	return result, nil
}

type animeInfoPayload struct {
	Anime struct {
		Info struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Poster string `json:"poster"`
		} `json:"info"`
	} `json:"anime"`
	Seasons       []models.SeasonEntry  `json:"seasons"`
	RelatedAnimes []models.RelatedAnime `json:"relatedAnimes"`
}

// AnimeInfo fetches the aggregator's anime page with seasons and related titles
func (c *AggregatorClient) AnimeInfo(ctx context.Context, animeID string) (*models.AnimeInfo, error) {
	raw, err := c.RawGet(ctx, "/anime/"+url.PathEscape(animeID), nil)
	if err != nil {
		return nil, err
	}
	if raw.StatusCode != http.StatusOK {
		return nil, errors.Errorf("aggregator returned status %d for anime %s", raw.StatusCode, animeID)
	}

	data, err := unwrapEnvelope(raw.Body)
	if err != nil {
		return nil, err
	}

	var payload animeInfoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode anime info")
	}

	id := payload.Anime.Info.ID
	if id == "" {
		id = animeID
	}
	return &models.AnimeInfo{
		ID:            id,
		Name:          payload.Anime.Info.Name,
		Poster:        payload.Anime.Info.Poster,
		Seasons:       payload.Seasons,
		RelatedAnimes: payload.RelatedAnimes,
	}, nil
}

// categoryLanguage maps an aggregator audio category to a language label
func categoryLanguage(category string) string {
	if strings.EqualFold(category, "dub") {
		return "English"
	}
	return "Japanese"
}

// NormalizeAggregatorSources converts aggregator sources to the common model
func NormalizeAggregatorSources(es *models.EpisodeSources, category string) []models.StreamingSource {
	if es == nil {
		return nil
	}

	langLabel := categoryLanguage(category)
	lang := models.LookupLanguage(langLabel)

	sources := make([]models.StreamingSource, 0, len(es.Sources))
	for _, s := range es.Sources {
		if s.URL == "" {
			continue
		}
		sources = append(sources, models.StreamingSource{
			URL:          s.URL,
			IsM3U8:       s.IsM3U8 || strings.EqualFold(s.Type, models.LocatorHLS) || models.LooksLikeHLS(s.URL),
			Quality:      s.Quality,
			Language:     lang.Label,
			LangCode:     lang.Code,
			IsDub:        models.IsDubLanguage(langLabel),
			ProviderName: ProviderHiAnime,
			Headers:      es.Headers,
		})
	}
	return sources
}

// PlaybackReferer returns headers.Referer from a raw episode sources answer,
// or "" when the body carries none.
func PlaybackReferer(body []byte) string {
	data, err := unwrapEnvelope(body)
	if err != nil {
		return ""
	}
	var payload struct {
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	for key, value := range payload.Headers {
		if strings.EqualFold(key, "referer") {
			return value
		}
	}
	return ""
}
