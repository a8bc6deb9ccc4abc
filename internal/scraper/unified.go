// Package scraper resolves playable sources for an episode across the
// primary aggregator and the HTML scrape providers.
package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/extractor"
	"github.com/alvarorichard/animestream/internal/metrics"
	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/tracking"
	"github.com/alvarorichard/animestream/internal/util"
)

// ProviderType represents the scrape providers queried next to the aggregator
type ProviderType int

const (
	WatchAnimeWorldType ProviderType = iota
	AnimeHindiDubbedType
)

// ErrUnsupportedProvider is returned for a provider type with no registered provider
var ErrUnsupportedProvider = errors.New("provider not registered")

// DefaultScrapeTimeout bounds one scrape provider's contribution
const DefaultScrapeTimeout = 20 * time.Second

// defaultExtractWorkers is how many embeds are extracted at once
const defaultExtractWorkers = 3

// PrimarySource is the aggregator the combiner treats as source of truth
type PrimarySource interface {
	EpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error)
}

// SourceProvider is a scrape provider keyed by anime slug
type SourceProvider interface {
	Name() string
	FetchSources(ctx context.Context, animeSlug string, season, episode int) ([]models.StreamingSource, error)
}

// CombineRequest identifies the episode to resolve
type CombineRequest struct {
	EpisodeID     string
	AnimeName     string
	EpisodeNumber int
	Server        string
	Category      string
}

// Combiner merges every provider's sources into one ordered list
type Combiner struct {
	primary        PrimarySource
	providers      map[ProviderType]SourceProvider
	extractor      extractor.Extractor
	logger         *log.Logger
	metrics        *metrics.Registry
	recorder       tracking.Recorder
	scrapeTimeout  time.Duration
	extractTimeout time.Duration
	extractWorkers int
}

// Option configures a Combiner
type Option func(*Combiner)

// WithProvider registers a scrape provider
func WithProvider(providerType ProviderType, provider SourceProvider) Option {
	return func(c *Combiner) {
		if provider != nil {
			c.providers[providerType] = provider
		}
	}
}

// WithLogger sets the logger used at every catch site
func WithLogger(logger *log.Logger) Option {
	return func(c *Combiner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the registry counters are written to
func WithMetrics(registry *metrics.Registry) Option {
	return func(c *Combiner) { c.metrics = registry }
}

// WithRecorder sets where resolution events are stored
func WithRecorder(recorder tracking.Recorder) Option {
	return func(c *Combiner) { c.recorder = recorder }
}

// WithScrapeTimeout bounds each scrape provider. Zero disables the bound.
func WithScrapeTimeout(d time.Duration) Option {
	return func(c *Combiner) {
		if d >= 0 {
			c.scrapeTimeout = d
		}
	}
}

// WithExtractTimeout bounds each embed extraction
func WithExtractTimeout(d time.Duration) Option {
	return func(c *Combiner) {
		if d > 0 {
			c.extractTimeout = d
		}
	}
}

// WithExtractWorkers limits concurrent extractions
func WithExtractWorkers(n int) Option {
	return func(c *Combiner) {
		if n > 0 {
			c.extractWorkers = n
		}
	}
}

// NewCombiner creates a combiner over primary. A nil extractor disables extraction.
func NewCombiner(primary PrimarySource, ext extractor.Extractor, opts ...Option) *Combiner {
	if ext == nil {
		ext = extractor.Noop{}
	}
	c := &Combiner{
		primary:        primary,
		providers:      make(map[ProviderType]SourceProvider),
		extractor:      ext,
		logger:         util.DefaultLogger(),
		scrapeTimeout:  DefaultScrapeTimeout,
		extractTimeout: extractor.DefaultTimeout,
		extractWorkers: defaultExtractWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProvider returns a registered provider
func (c *Combiner) GetProvider(providerType ProviderType) (SourceProvider, error) {
	if provider, exists := c.providers[providerType]; exists {
		return provider, nil
	}
	return nil, fmt.Errorf("%w: type %v", ErrUnsupportedProvider, providerType)
}

func (c *Combiner) providerName(providerType ProviderType) string {
	switch providerType {
	case WatchAnimeWorldType:
		return ProviderWatchAnimeWorld
	case AnimeHindiDubbedType:
		return ProviderAnimeHindiDubbed
	default:
		return "Unknown"
	}
}

// Combine resolves every playable source of an episode.
// Only a primary aggregator failure is returned as an error.
func (c *Combiner) Combine(ctx context.Context, req CombineRequest) (*models.CombinedResult, error) {
	start := time.Now()
	defer c.metrics.Since("combine", start)

	episodeSources, err := c.primary.EpisodeSources(ctx, req.EpisodeID, req.Server, req.Category)
	if err != nil {
		if !errors.Is(err, ErrPrimaryUnavailable) {
			err = fmt.Errorf("%w: %w", ErrPrimaryUnavailable, err)
		}
		c.logger.Error("Primary aggregator failed", "episode", req.EpisodeID, "error", err)
		c.metrics.Inc("resolutions_total", "outcome", string(tracking.OutcomePrimaryFailed))
		c.record(ctx, tracking.Event{
			EpisodeID: req.EpisodeID,
			Outcome:   tracking.OutcomePrimaryFailed,
			Duration:  time.Since(start),
		})
		return nil, err
	}

	result := &models.CombinedResult{
		EpisodeID: req.EpisodeID,
		Subtitles: episodeSources.Subtitles,
		Headers:   episodeSources.Headers,
		Intro:     episodeSources.Intro,
		Outro:     episodeSources.Outro,
	}
	sources := NormalizeAggregatorSources(episodeSources, req.Category)
	c.metrics.Inc("provider_sources_total", "provider", ProviderHiAnime)

	outcome := tracking.OutcomeOK
	var scraped map[ProviderType][]models.StreamingSource

	animeSlug, err := resolver.DeriveAnimeSlug(req.EpisodeID)
	switch {
	case err != nil:
		c.logger.Warn("Skipping scrape providers", "episode", req.EpisodeID, "error", err)
		outcome = tracking.OutcomeSlugUnresolved
	case req.EpisodeNumber <= 0:
		c.logger.Warn("Skipping scrape providers", "episode", req.EpisodeID, "reason", "no episode number")
		result.AnimeSlug = animeSlug
	default:
		result.AnimeSlug = animeSlug
		season, ok := resolver.ExtractSeasonNumber(req.AnimeName)
		if !ok {
			season = 1
		}
		scraped = c.fetchProviders(ctx, animeSlug, season, req.EpisodeNumber)
	}

	sources = append(sources, scraped[WatchAnimeWorldType]...)
	sources = append(sources, scraped[AnimeHindiDubbedType]...)
	result.HasWatchAnimeWorld = len(scraped[WatchAnimeWorldType]) > 0
	result.HasAnimeHindiDubbed = len(scraped[AnimeHindiDubbedType]) > 0

	result.Sources = c.resolveEmbeds(ctx, sources)
	if result.Sources == nil {
		result.Sources = []models.StreamingSource{}
	}

	c.metrics.Inc("resolutions_total", "outcome", string(outcome))
	c.record(ctx, tracking.Event{
		EpisodeID:           req.EpisodeID,
		AnimeSlug:           result.AnimeSlug,
		Outcome:             outcome,
		Sources:             len(result.Sources),
		HasWatchAnimeWorld:  result.HasWatchAnimeWorld,
		HasAnimeHindiDubbed: result.HasAnimeHindiDubbed,
		Duration:            time.Since(start),
	})

	c.logger.Debug("Combined sources",
		"episode", req.EpisodeID,
		"total", len(result.Sources),
		"watchAnimeWorld", result.HasWatchAnimeWorld,
		"animeHindiDubbed", result.HasAnimeHindiDubbed)

	return result, nil
}

type providerResult struct {
	providerType ProviderType
	sources      []models.StreamingSource
	err          error
}

// fetchProviders queries every scrape provider concurrently. Failures,
// timeouts and panics are logged and contribute nothing.
func (c *Combiner) fetchProviders(ctx context.Context, animeSlug string, season, episode int) map[ProviderType][]models.StreamingSource {
	resultChan := make(chan providerResult, len(c.providers))
	var wg sync.WaitGroup

	for pType, provider := range c.providers {
		wg.Add(1)
		go func(pt ProviderType, p SourceProvider) {
			defer wg.Done()

			pctx, cancel := ctx, context.CancelFunc(func() {})
			if c.scrapeTimeout > 0 {
				pctx, cancel = context.WithTimeout(ctx, c.scrapeTimeout)
			}
			defer cancel()

			done := make(chan providerResult, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- providerResult{providerType: pt, err: fmt.Errorf("provider panicked: %v", r)}
					}
				}()
				sources, err := p.FetchSources(pctx, animeSlug, season, episode)
				done <- providerResult{providerType: pt, sources: sources, err: err}
			}()

			select {
			case res := <-done:
				resultChan <- res
			case <-pctx.Done():
				resultChan <- providerResult{
					providerType: pt,
					err:          errors.Wrapf(pctx.Err(), "%s gave no answer", p.Name()),
				}
			}
		}(pType, provider)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := make(map[ProviderType][]models.StreamingSource, len(c.providers))
	for res := range resultChan {
		name := c.providerName(res.providerType)
		if res.err != nil {
			c.logger.Warn("Provider unavailable", "provider", name, "slug", animeSlug, "error", res.err)
			c.metrics.Inc("provider_failures_total", "provider", name)
			continue
		}
		c.logger.Debug("Provider results", "provider", name, "count", len(res.sources))
		if len(res.sources) > 0 {
			c.metrics.Inc("provider_sources_total", "provider", name)
		}
		collected[res.providerType] = res.sources
	}
	return collected
}

// resolveEmbeds extracts every embed source in parallel. Each embed expands
// in place to its direct locators followed by itself, so source order holds.
func (c *Combiner) resolveEmbeds(ctx context.Context, sources []models.StreamingSource) []models.StreamingSource {
	groups := make([][]models.StreamingSource, len(sources))
	var tasks []func()

	for i := range sources {
		if !sources[i].IsEmbed {
			groups[i] = sources[i : i+1]
			continue
		}
		idx := i
		tasks = append(tasks, func() {
			groups[idx] = c.extractOne(ctx, sources[idx])
		})
	}
	util.ParallelExecute(c.extractWorkers, tasks...)

	out := make([]models.StreamingSource, 0, len(sources))
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

// extractOne returns direct entries then the embed entry on success,
// or the untouched embed source otherwise.
func (c *Combiner) extractOne(ctx context.Context, source models.StreamingSource) (group []models.StreamingSource) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Extraction panicked", "url", source.URL, "panic", r)
			c.metrics.Inc("extractions_total", "result", "failed")
			group = []models.StreamingSource{source}
		}
	}()

	result := extractor.FilterBlocked(c.extractor.Extract(ctx, source.URL, c.extractTimeout))
	if !result.Success {
		c.logger.Debug("Extraction failed", "provider", source.ProviderName, "url", source.URL, "error", result.Error)
		c.metrics.Inc("extractions_total", "result", "failed")
		return []models.StreamingSource{source}
	}
	c.metrics.Inc("extractions_total", "result", "ok")

	group = make([]models.StreamingSource, 0, len(result.Sources)+1)
	for _, locator := range result.Sources {
		direct := source
		direct.URL = locator.URL
		direct.IsEmbed = false
		direct.NeedsHeadless = false
		direct.IsM3U8 = locator.Type == models.LocatorHLS || models.LooksLikeHLS(locator.URL)
		if locator.Quality != "" {
			direct.Quality = locator.Quality
		}
		direct.Origin = models.OriginDirect
		group = append(group, direct)
	}

	embed := source
	embed.Origin = models.OriginEmbed
	return append(group, embed)
}

func (c *Combiner) record(ctx context.Context, e tracking.Event) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Debug("Could not record resolution", "error", err)
	}
}
