package extractor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/util"
)

// RemoteClient calls an out-of-process extraction endpoint
type RemoteClient struct {
	client   *http.Client
	endpoint string
}

// NewRemoteClient creates a client for endpoint (GET ?url=&timeout=)
func NewRemoteClient(endpoint string, client *http.Client) *RemoteClient {
	if client == nil {
		client = util.GetScrapeClient()
	}
	return &RemoteClient{client: client, endpoint: endpoint}
}

// Extract implements Extractor
func (c *RemoteClient) Extract(ctx context.Context, embedURL string, timeout time.Duration) models.ExtractionResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return Failure(errors.Wrap(err, "invalid extractor endpoint"))
	}
	query := endpoint.Query()
	query.Set("url", embedURL)
	query.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Failure(errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", util.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Failure(errors.Wrap(err, "extractor request failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Failure(errors.Wrap(err, "failed to read extractor response"))
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Failure(errors.Errorf("extractor returned status %d", resp.StatusCode))
		}
		return Failure(errors.Wrap(err, "invalid extractor response"))
	}
	if !result.Success && result.Error == "" {
		result.Error = ErrExtractionFailed.Error()
	}
	return result
}
