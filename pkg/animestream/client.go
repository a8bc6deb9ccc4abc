// Package animestream resolves anime episodes to playable streams across
// the aggregator and the scrape sites. It can be used as a library in other Go projects.
package animestream

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alvarorichard/animestream/internal/appflow"
	"github.com/alvarorichard/animestream/internal/extractor"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/scraper"
	"github.com/alvarorichard/animestream/internal/util"
	"github.com/alvarorichard/animestream/pkg/animestream/types"
)

// Default upstream locations
const (
	DefaultAggregatorURL       = "https://aniwatch-api.vercel.app/api/v2/hianime"
	DefaultWatchAnimeWorldURL  = "https://watchanimeworld.in"
	DefaultAnimeHindiDubbedURL = "https://animehindidubbed.in"
)

// options collects Option values before the pipeline is built
type options struct {
	appflow.Settings
	extractorURL string
}

// Option configures a Client
type Option func(*options)

// WithAggregatorURL sets the aggregator API root
func WithAggregatorURL(u string) Option {
	return func(s *options) { s.AggregatorURL = u }
}

// WithWatchAnimeWorldURL sets the episode-page site root
func WithWatchAnimeWorldURL(u string) Option {
	return func(s *options) { s.WatchAnimeWorldURL = u }
}

// WithAnimeHindiDubbedURL sets the Hindi dub site root
func WithAnimeHindiDubbedURL(u string) Option {
	return func(s *options) { s.AnimeHindiDubbedURL = u }
}

// WithHTTPClient uses c for every upstream request
func WithHTTPClient(c *http.Client) Option {
	return func(s *options) {
		s.HTTPClient = c
		s.ScrapeClient = c
	}
}

// WithExtractorURL resolves embed pages through the extraction service at endpoint
func WithExtractorURL(endpoint string) Option {
	return func(s *options) { s.extractorURL = endpoint }
}

// WithScrapeTimeout bounds each scrape site; zero disables the bound
func WithScrapeTimeout(d time.Duration) Option {
	return func(s *options) {
		if d == 0 {
			d = -1
		}
		s.ScrapeTimeout = d
	}
}

// WithLogger sets the logger used by the pipeline
func WithLogger(l *log.Logger) Option {
	return func(s *options) { s.Logger = l }
}

// Client is the main client for resolving episode streams
type Client struct {
	pipeline *appflow.Pipeline
}

// NewClient creates a client with every source enabled
func NewClient(opts ...Option) *Client {
	o := options{Settings: appflow.Settings{
		AggregatorURL:       DefaultAggregatorURL,
		WatchAnimeWorldURL:  DefaultWatchAnimeWorldURL,
		AnimeHindiDubbedURL: DefaultAnimeHindiDubbedURL,
		HTTPClient:          util.GetSharedClient(),
		ScrapeClient:        util.GetScrapeClient(),
		Logger:              util.DiscardLogger(),
	}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.extractorURL != "" {
		o.Extractor = extractor.NewRemoteClient(o.extractorURL, o.HTTPClient)
	}
	return &Client{pipeline: appflow.New(o.Settings)}
}

// EpisodeRequest identifies one aggregator episode
type EpisodeRequest struct {
	// EpisodeID is the aggregator id, e.g. "one-piece-100?ep=2142"
	EpisodeID string
	// AnimeName is the display title; its season marker selects the scrape-site season
	AnimeName     string
	EpisodeNumber int
	// Server and Category are passed to the aggregator ("hd-1", "sub")
	Server   string
	Category string
}

// Resolve merges the streams of every source for one episode.
// Only an aggregator failure is returned as an error.
func (c *Client) Resolve(ctx context.Context, req EpisodeRequest) (*types.Result, error) {
	result, err := c.pipeline.Resolve(ctx, scraper.CombineRequest{
		EpisodeID:     req.EpisodeID,
		AnimeName:     req.AnimeName,
		EpisodeNumber: req.EpisodeNumber,
		Server:        req.Server,
		Category:      req.Category,
	})
	if err != nil {
		return nil, err
	}
	return types.FromInternalResult(result), nil
}

// ProviderStreams fetches the raw streams of one scrape source without extraction
func (c *Client) ProviderStreams(ctx context.Context, source types.Source, animeSlug string, season, episode int) ([]*types.Stream, error) {
	providerType, ok := source.ToProviderType()
	if !ok {
		return nil, scraper.ErrUnsupportedProvider
	}
	provider, err := c.pipeline.Combiner.GetProvider(providerType)
	if err != nil {
		return nil, err
	}

	sources, err := provider.FetchSources(ctx, animeSlug, season, episode)
	if err != nil {
		return nil, err
	}
	streams := make([]*types.Stream, len(sources))
	for i, s := range sources {
		streams[i] = types.FromInternalStream(s)
	}
	return streams, nil
}

// DeriveSlug returns the provider-agnostic slug of an aggregator episode id
func (c *Client) DeriveSlug(episodeID string) (string, error) {
	return resolver.DeriveAnimeSlug(episodeID)
}

// AnimePage scrapes the Hindi dub site's page for animeSlug
func (c *Client) AnimePage(ctx context.Context, animeSlug string) (*types.AnimePage, error) {
	page, err := c.pipeline.Pages.FetchAnimePage(ctx, animeSlug)
	if err != nil {
		return nil, err
	}
	return types.FromInternalAnimePage(page), nil
}

// Seasons lists the seasons of an aggregator anime
func (c *Client) Seasons(ctx context.Context, animeID string) ([]*types.Season, error) {
	seasons, err := c.pipeline.Seasons(ctx, animeID)
	if err != nil {
		return nil, err
	}
	return types.FromInternalSeasons(seasons), nil
}

// GetAvailableSources returns every source the client queries
func (c *Client) GetAvailableSources() []types.Source {
	return []types.Source{
		types.SourceHiAnime,
		types.SourceWatchAnimeWorld,
		types.SourceAnimeHindiDubbed,
	}
}
