// Package relay exposes the resolution pipeline and the aggregator over HTTP
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/extractor"
	"github.com/alvarorichard/animestream/internal/metrics"
	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/scraper"
	"github.com/alvarorichard/animestream/internal/util"
)

// maxExtractTimeout caps the timeout a client may ask the extract route for
const maxExtractTimeout = 60 * time.Second

// RefererHeader carries the aggregator's playback Referer to the player
const RefererHeader = "X-Stream-Referer"

// Aggregator is the pass-through side of the primary aggregator
type Aggregator interface {
	RawGet(ctx context.Context, path string, query url.Values) (*scraper.RawResponse, error)
}

// Resolver runs the source combiner
type Resolver interface {
	Combine(ctx context.Context, req scraper.CombineRequest) (*models.CombinedResult, error)
}

// Deps are the collaborators the relay serves from. Constructed once per process.
type Deps struct {
	Aggregator     Aggregator
	Resolver       Resolver
	Pages          scraper.PageFetcher
	Extractor      extractor.Extractor
	Limiter        *RateLimiter
	Metrics        *metrics.Registry
	Logger         *log.Logger
	ExtractTimeout time.Duration
}

// Server is the HTTP relay
type Server struct {
	deps Deps
	mux  *http.ServeMux
}

// NewServer registers every route
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = util.DefaultLogger()
	}
	if deps.Extractor == nil {
		deps.Extractor = extractor.Noop{}
	}
	if deps.Limiter == nil {
		deps.Limiter = NewRateLimiter(0, time.Minute)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if deps.ExtractTimeout <= 0 {
		deps.ExtractTimeout = extractor.DefaultTimeout
	}

	s := &Server{deps: deps, mux: http.NewServeMux()}

	s.route("GET /api/episode/sources", "episode_sources", s.handleEpisodeSources)
	s.route("GET /api/anime/{id}", "anime", s.handleAnime)
	s.route("GET /api/sources", "sources", s.handleSources)
	s.route("GET /api/animehindidubbed/{slug}", "animehindidubbed", s.handleAnimePage)
	s.route("GET /api/extract", "extract", s.handleExtract)
	s.route("GET /metrics", "metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

func (s *Server) route(pattern, name string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(name, s.rateLimit(h)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("Relay listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}

func (s *Server) handleEpisodeSources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("animeEpisodeId") == "" {
		writeError(w, http.StatusBadRequest, "animeEpisodeId is required")
		return
	}

	raw, err := s.deps.Aggregator.RawGet(r.Context(), "/episode/sources", query)
	if err != nil {
		s.deps.Logger.Warn("Aggregator pass-through failed", "route", "episode_sources", "error", err)
		writeError(w, http.StatusBadGateway, "aggregator unavailable")
		return
	}
	if referer := scraper.PlaybackReferer(raw.Body); referer != "" {
		w.Header().Set(RefererHeader, referer)
	}
	writeRaw(w, raw)
}

func (s *Server) handleAnime(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, err := s.deps.Aggregator.RawGet(r.Context(), "/anime/"+url.PathEscape(id), nil)
	if err != nil {
		s.deps.Logger.Warn("Aggregator pass-through failed", "route", "anime", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "aggregator unavailable")
		return
	}
	writeRaw(w, raw)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := scraper.CombineRequest{
		EpisodeID: query.Get("episodeId"),
		AnimeName: query.Get("animeName"),
		Server:    query.Get("server"),
		Category:  query.Get("category"),
	}
	if req.EpisodeID == "" {
		req.EpisodeID = query.Get("animeEpisodeId")
	}
	if req.EpisodeID == "" {
		writeError(w, http.StatusBadRequest, "episodeId is required")
		return
	}
	if req.Category == "" {
		req.Category = "sub"
	}
	if raw := query.Get("episode"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "episode must be a positive number")
			return
		}
		req.EpisodeNumber = n
	}

	result, err := s.deps.Resolver.Combine(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnimePage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pages == nil {
		writeError(w, http.StatusNotImplemented, "page lookups disabled")
		return
	}
	slug := r.PathValue("slug")
	page, err := s.deps.Pages.FetchAnimePage(r.Context(), slug)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, page)
	case errors.Is(err, resolver.ErrCannotResolveSlug):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scraper.ErrPatternNotFound):
		writeError(w, http.StatusNotFound, "no server table for "+slug)
	default:
		s.deps.Logger.Warn("Page lookup failed", "slug", slug, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target := query.Get("url")
	parsed, err := url.Parse(target)
	if target == "" || err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "an http(s) url is required")
		return
	}

	timeout := s.deps.ExtractTimeout
	if raw := query.Get("timeout"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			writeError(w, http.StatusBadRequest, "timeout must be milliseconds")
			return
		}
		timeout = min(time.Duration(ms)*time.Millisecond, maxExtractTimeout)
	}

	result := extractor.FilterBlocked(s.deps.Extractor.Extract(r.Context(), target, timeout))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if err := s.deps.Metrics.WriteText(w); err != nil {
		s.deps.Logger.Debug("Could not write metrics", "error", err)
	}
}

func writeRaw(w http.ResponseWriter, raw *scraper.RawResponse) {
	contentType := raw.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(raw.StatusCode)
	_, _ = w.Write(raw.Body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
