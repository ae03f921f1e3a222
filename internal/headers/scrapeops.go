package headers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/consultape/registro-scraper/internal/config"
	"github.com/sirupsen/logrus"
)

// Client fetches realistic browser request headers from the ScrapeOps
// header-randomization API. It is consulted once at session setup, never
// during extraction.
type Client struct {
	cfg    config.ScrapeOpsConfig
	http   *http.Client
	logger *logrus.Entry
}

// NewClient creates a new ScrapeOps client
func NewClient(cfg config.ScrapeOpsConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.WithField("component", "scrapeops"),
	}
}

type headersResponse struct {
	Result []map[string]string `json:"result"`
}

// FetchRandom fetches one random browser header set. An empty API key is a
// configuration signal to skip header randomization, not an error.
func (c *Client) FetchRandom(ctx context.Context) (map[string]string, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("SCRAPEOPS_API_KEY not configured, running without randomized headers")
		return nil, nil
	}

	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("num_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build headers request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headers API returned status %d", resp.StatusCode)
	}

	var decoded headersResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode headers response: %w", err)
	}
	if len(decoded.Result) == 0 {
		return nil, fmt.Errorf("headers API returned no header sets")
	}

	c.logger.Info("Fetched random browser headers")
	return decoded.Result[0], nil
}
