// Package appflow assembles the resolution pipeline from its parts
package appflow

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alvarorichard/animestream/internal/extractor"
	"github.com/alvarorichard/animestream/internal/metrics"
	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/scraper"
	"github.com/alvarorichard/animestream/internal/tracking"
	"github.com/alvarorichard/animestream/internal/util"
)

// Page cache defaults
const (
	DefaultPageCacheTTL  = 10 * time.Minute
	DefaultPageCacheSize = 256
)

// Settings describe one pipeline. Zero values fall back to defaults.
type Settings struct {
	AggregatorURL       string
	WatchAnimeWorldURL  string
	AnimeHindiDubbedURL string

	HTTPClient   *http.Client
	ScrapeClient *http.Client

	// ScrapeTimeout bounds each scrape provider; negative disables the bound
	ScrapeTimeout  time.Duration
	ExtractTimeout time.Duration
	ExtractWorkers int
	Extractor      extractor.Extractor

	PageCacheTTL  time.Duration
	PageCacheSize int

	Logger   *log.Logger
	Metrics  *metrics.Registry
	Recorder tracking.Recorder
}

// Pipeline holds the wired components. Built once per process.
type Pipeline struct {
	Aggregator *scraper.AggregatorClient
	Pages      scraper.PageFetcher
	PageCache  *util.TTLCache[*models.AnimePageData]
	Combiner   *scraper.Combiner
	Extractor  extractor.Extractor
	Metrics    *metrics.Registry
	Logger     *log.Logger
}

// New wires every component described by s
func New(s Settings) *Pipeline {
	if s.Logger == nil {
		s.Logger = util.DefaultLogger()
	}
	if s.Metrics == nil {
		s.Metrics = metrics.NewRegistry()
	}
	if s.Extractor == nil {
		s.Extractor = extractor.Noop{}
	}
	if s.PageCacheTTL <= 0 {
		s.PageCacheTTL = DefaultPageCacheTTL
	}
	if s.PageCacheSize <= 0 {
		s.PageCacheSize = DefaultPageCacheSize
	}

	scrapeTimeout := s.ScrapeTimeout
	switch {
	case scrapeTimeout == 0:
		scrapeTimeout = scraper.DefaultScrapeTimeout
	case scrapeTimeout < 0:
		scrapeTimeout = 0
	}

	aggregator := scraper.NewAggregatorClient(s.AggregatorURL, s.HTTPClient)
	pageCache := util.NewTTLCache[*models.AnimePageData](s.PageCacheTTL, s.PageCacheSize)
	pages := scraper.NewCachedPageFetcher(
		scraper.NewAnimeHindiDubbedClient(s.AnimeHindiDubbedURL, s.ScrapeClient, s.Logger),
		pageCache,
	)

	combiner := scraper.NewCombiner(aggregator, s.Extractor,
		scraper.WithLogger(s.Logger),
		scraper.WithMetrics(s.Metrics),
		scraper.WithRecorder(s.Recorder),
		scraper.WithScrapeTimeout(scrapeTimeout),
		scraper.WithExtractTimeout(s.ExtractTimeout),
		scraper.WithExtractWorkers(s.ExtractWorkers),
		scraper.WithProvider(scraper.WatchAnimeWorldType,
			scraper.NewWatchAnimeWorldClient(s.WatchAnimeWorldURL, s.ScrapeClient, s.Logger)),
		scraper.WithProvider(scraper.AnimeHindiDubbedType,
			scraper.NewAnimeHindiDubbedProvider(pages, s.AnimeHindiDubbedURL)),
	)

	return &Pipeline{
		Aggregator: aggregator,
		Pages:      pages,
		PageCache:  pageCache,
		Combiner:   combiner,
		Extractor:  s.Extractor,
		Metrics:    s.Metrics,
		Logger:     s.Logger,
	}
}

// Run sweeps the page cache until ctx is done
func (p *Pipeline) Run(ctx context.Context) {
	p.PageCache.Run(ctx)
}

// Resolve runs the combiner and logs how long it took
func (p *Pipeline) Resolve(ctx context.Context, req scraper.CombineRequest) (*models.CombinedResult, error) {
	resolveStart := time.Now()
	result, err := p.Combiner.Combine(ctx, req)
	p.Logger.Debug("Resolve completed", "episode", req.EpisodeID, "duration", time.Since(resolveStart))
	return result, err
}

// Seasons lists the seasons of an aggregator anime, current one included
func (p *Pipeline) Seasons(ctx context.Context, animeID string) ([]models.DetectedSeason, error) {
	info, err := p.Aggregator.AnimeInfo(ctx, animeID)
	if err != nil {
		return nil, err
	}
	return resolver.DetectSeasons(info), nil
}
