package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/mo"

	"github.com/alvarorichard/animestream/internal/util"
)

var (
	// ErrChallenge is returned when a scrape target serves an anti-bot interstitial
	ErrChallenge = errors.New("challenge page returned")
	// ErrPatternNotFound is returned when a page lacks the markup an extractor looks for
	ErrPatternNotFound = errors.New("pattern not found in page")
	// ErrDecode is returned when embedded data cannot be decoded
	ErrDecode = errors.New("embedded data could not be decoded")
)

// maxPageSize bounds how much of a scraped page is read
const maxPageSize = 8 << 20

// challengeMarkers are lowercase body fragments of Cloudflare interstitials
var challengeMarkers = []string{
	"<title>just a moment...</title>",
	"cf-browser-verification",
	"challenge-platform",
	"cf_chl_opt",
	"attention required! | cloudflare",
	"cf-error-details",
}

// IsChallengeBody reports whether a page body is an anti-bot challenge
func IsChallengeBody(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// PageExtractor pulls one structured value out of raw page text.
// Rules live in the implementations so markup changes only touch them.
type PageExtractor[T any] interface {
	Extract(body string) mo.Result[T]
}

// PageExtractorFunc adapts a plain function to PageExtractor
type PageExtractorFunc[T any] func(body string) mo.Result[T]

// Extract implements PageExtractor
func (f PageExtractorFunc[T]) Extract(body string) mo.Result[T] {
	return f(body)
}

// FirstOf tries extractors in order and returns the first success,
// or the last failure when none succeeds.
func FirstOf[T any](extractors ...PageExtractor[T]) PageExtractor[T] {
	return PageExtractorFunc[T](func(body string) mo.Result[T] {
		result := mo.Err[T](ErrPatternNotFound)
		for _, e := range extractors {
			result = e.Extract(body)
			if result.IsOk() {
				return result
			}
		}
		return result
	})
}

// pageFetcher performs the GET requests shared by the HTML scrape adapters
type pageFetcher struct {
	client     *http.Client
	userAgent  string
	referer    string
	maxRetries int
	retryDelay time.Duration
}

func newPageFetcher(client *http.Client, referer string) *pageFetcher {
	if client == nil {
		client = util.GetScrapeClient()
	}
	return &pageFetcher{
		client:     client,
		userAgent:  util.UserAgent,
		referer:    referer,
		maxRetries: 1,
		retryDelay: 300 * time.Millisecond,
	}
}

func (f *pageFetcher) decorateRequest(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,hi;q=0.8")
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
}

func (f *pageFetcher) shouldRetry(attempt int) bool {
	return attempt < f.maxRetries
}

func (f *pageFetcher) sleep(ctx context.Context) error {
	if f.retryDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.retryDelay):
		return nil
	}
}

// fetch returns the page body. Transport errors and 5xx are retried,
// challenge pages and 4xx are not.
func (f *pageFetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	attempts := f.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", errors.Wrap(err, "failed to create request")
		}
		f.decorateRequest(req)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, "failed to make request")
			if ctx.Err() == nil && f.shouldRetry(attempt) {
				if f.sleep(ctx) != nil {
					break
				}
				continue
			}
			return "", lastErr
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
		_ = resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server returned: %s", resp.Status)
			if IsChallengeBody(string(body)) {
				return "", errors.Wrapf(ErrChallenge, "%s", pageURL)
			}
			if f.shouldRetry(attempt) {
				if f.sleep(ctx) != nil {
					break
				}
				continue
			}
			return "", lastErr
		}
		if readErr != nil {
			return "", errors.Wrap(readErr, "failed to read body")
		}

		text := string(body)
		if IsChallengeBody(text) {
			return "", errors.Wrapf(ErrChallenge, "%s", pageURL)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("server returned: %s", resp.Status)
		}
		return text, nil
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", errors.Errorf("failed to retrieve %s", pageURL)
}
