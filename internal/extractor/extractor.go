// Package extractor resolves embed pages into direct media locators
package extractor

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/alvarorichard/animestream/internal/models"
)

// DefaultTimeout bounds a single extraction
const DefaultTimeout = 30 * time.Second

// ErrExtractionFailed is returned when no direct locator could be found
var ErrExtractionFailed = errors.New("embed extraction failed")

// Extractor turns an embed page URL into direct locators.
// Failures are reported in the result, never as a panic or error return.
type Extractor interface {
	Extract(ctx context.Context, embedURL string, timeout time.Duration) models.ExtractionResult
}

// BlockedHosts lists hosts whose locators never play (billing-restricted storage)
var BlockedHosts = []string{"storage.googleapis.com"}

// IsBlocked reports whether a locator lives on a blocked host
func IsBlocked(locator string) bool {
	lower := strings.ToLower(locator)
	host := lower
	if parsed, err := url.Parse(lower); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	for _, blocked := range BlockedHosts {
		if strings.Contains(host, blocked) || strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

// FilterBlocked drops locators on blocked hosts. A success left with no
// locators becomes a failure.
func FilterBlocked(result models.ExtractionResult) models.ExtractionResult {
	if !result.Success {
		return result
	}
	kept := lo.Filter(result.Sources, func(s models.ExtractedSource, _ int) bool {
		return s.URL != "" && !IsBlocked(s.URL)
	})
	if len(kept) == 0 {
		return Failure(errors.Wrap(ErrExtractionFailed, "all locators on blocked hosts"))
	}
	result.Sources = kept
	return result
}

// Failure builds a failed result from err
func Failure(err error) models.ExtractionResult {
	if err == nil {
		err = ErrExtractionFailed
	}
	return models.ExtractionResult{Success: false, Error: err.Error()}
}

// LocatorType classifies a direct media URL
func LocatorType(locator string) string {
	if models.LooksLikeHLS(locator) {
		return models.LocatorHLS
	}
	return models.LocatorMP4
}

// Noop never extracts anything
type Noop struct{}

// Extract implements Extractor
func (Noop) Extract(context.Context, string, time.Duration) models.ExtractionResult {
	return Failure(errors.Wrap(ErrExtractionFailed, "extraction disabled"))
}
