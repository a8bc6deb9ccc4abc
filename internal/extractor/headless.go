package extractor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/util"
)

// settleDelay is how long the page may keep loading after navigation
// before the collected requests are read.
const settleDelay = 4 * time.Second

const videoSourcesScript = `() => Array.from(document.querySelectorAll('video, video source'))
	.map(v => v.currentSrc || v.src)
	.filter(Boolean)`

// Headless extracts locators by loading the embed page in Chromium and
// watching its network requests.
type Headless struct {
	logger *log.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewHeadless creates an extractor. The browser starts on first use.
func NewHeadless(logger *log.Logger) *Headless {
	if logger == nil {
		logger = util.DefaultLogger()
	}
	return &Headless{logger: logger}
}

func (h *Headless) ensureBrowser() (playwright.Browser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.browser != nil && h.browser.IsConnected() {
		return h.browser, nil
	}
	if h.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, errors.Wrap(err, "could not start playwright")
		}
		h.pw = pw
	}
	browser, err := h.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not launch chromium")
	}
	h.browser = browser
	return browser, nil
}

// Extract implements Extractor
func (h *Headless) Extract(ctx context.Context, embedURL string, timeout time.Duration) models.ExtractionResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browser, err := h.ensureBrowser()
	if err != nil {
		return Failure(err)
	}

	page, err := browser.NewPage()
	if err != nil {
		return Failure(errors.Wrap(err, "could not open page"))
	}
	defer func() { _ = page.Close() }()

	collector := newLocatorCollector()
	page.OnRequest(func(req playwright.Request) {
		collector.add(req.URL())
	})

	deadline, _ := ctx.Deadline()
	if _, err := page.Goto(embedURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(time.Until(deadline).Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		h.logger.Debug("Navigation failed", "url", embedURL, "error", err)
		return Failure(errors.Wrap(err, "navigation failed"))
	}

	select {
	case <-collector.found:
	case <-time.After(settleDelay):
	case <-ctx.Done():
	}

	if found, err := page.Evaluate(videoSourcesScript); err == nil {
		if list, ok := found.([]interface{}); ok {
			for _, item := range list {
				if src, ok := item.(string); ok {
					collector.add(src)
				}
			}
		}
	}

	sources := collector.sources()
	if len(sources) == 0 {
		return Failure(errors.Wrap(ErrExtractionFailed, "no media requests observed"))
	}
	return models.ExtractionResult{Success: true, Sources: sources}
}

// Close shuts down the browser and the playwright driver
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	if h.browser != nil {
		errs = append(errs, h.browser.Close())
		h.browser = nil
	}
	if h.pw != nil {
		errs = append(errs, h.pw.Stop())
		h.pw = nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// locatorCollector gathers media URLs seen while a page loads
type locatorCollector struct {
	mu    sync.Mutex
	seen  map[string]bool
	list  []models.ExtractedSource
	found chan struct{}
	once  sync.Once
}

func newLocatorCollector() *locatorCollector {
	return &locatorCollector{seen: make(map[string]bool), found: make(chan struct{})}
}

func isMediaLocator(locator string) bool {
	lower := strings.ToLower(locator)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	return strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mp4")
}

func (c *locatorCollector) add(locator string) {
	if !isMediaLocator(locator) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[locator] {
		return
	}
	c.seen[locator] = true
	c.list = append(c.list, models.ExtractedSource{URL: locator, Type: LocatorType(locator)})
	// a manifest is the best answer, stop waiting
	if LocatorType(locator) == models.LocatorHLS {
		c.once.Do(func() { close(c.found) })
	}
}

func (c *locatorCollector) sources() []models.ExtractedSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ExtractedSource(nil), c.list...)
}
