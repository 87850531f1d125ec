// Package scraper fetches credit card offers from a comparison website.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

// DefaultURL is the listing page scraped when no URL is configured.
const DefaultURL = "https://www.moneyhero.com.hk/en/credit-card/all-credit-cards"

// maxPageSize caps how much of a response body is read.
const maxPageSize = 10 << 20

var _ catalog.Fetcher = (*Client)(nil)

// Config holds scraper settings.
type Config struct {
	Selectors     Selectors
	URL           string
	UserAgent     string
	Timeout       time.Duration
	RetryDelay    time.Duration
	RetryAttempts int
}

// DefaultConfig returns a config with default values.
func DefaultConfig() Config {
	return Config{
		URL:           DefaultURL,
		UserAgent:     "duecard-sync/1.0",
		Timeout:       30 * time.Second,
		RetryDelay:    500 * time.Millisecond,
		RetryAttempts: 3,
		Selectors:     DefaultSelectors(),
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: scraper URL %q must be an absolute http(s) URL", common.ErrInvalidConfig, c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: scraper timeout must be positive", common.ErrInvalidConfig)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: scraper retry attempts must be at least 1", common.ErrInvalidConfig)
	}
	return c.Selectors.Validate()
}

// Client scrapes offer listings over HTTP.
type Client struct {
	httpClient *http.Client
	pageURL    *url.URL
	logger     *slog.Logger
	cfg        Config
}

// NewClient creates a scraper client. A nil logger uses slog.Default.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pageURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scraper URL: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		pageURL: pageURL,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// FetchOffers downloads the listing page and parses every offer on it. Server errors
// and rate limiting are retried; other non-200 responses fail immediately.
func (c *Client) FetchOffers(ctx context.Context) ([]model.ScrapedOffer, error) {
	var page []byte
	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		page, fetchErr = c.fetchPage(ctx)
		return fetchErr
	}, common.RetryOptions{
		MaxAttempts:  c.cfg.RetryAttempts,
		InitialDelay: c.cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	offers, err := ParseOffers(bytes.NewReader(page), c.cfg.Selectors, c.pageURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Scraped offers", "url", c.cfg.URL, "count", len(offers))
	return offers, nil
}

func (c *Client) fetchPage(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL.String(), nil)
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-HK,en;q=0.9,zh-HK;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, common.Permanent(err)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", common.ErrRateLimit, resp.Status)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", common.ErrRemoteUnavailable, resp.Status)
	default:
		return nil, common.Permanent(fmt.Errorf("unexpected response from %s: %s", c.pageURL.Host, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
