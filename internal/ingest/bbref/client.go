// Package bbref collects games, player scores, injuries, schedules, and
// final scores from basketball-reference HTML pages.
package bbref

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const BaseURL = "https://www.basketball-reference.com"

// DefaultUserAgent mirrors a desktop browser; the site rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ClientConfig tunes politeness and retry behavior.
type ClientConfig struct {
	BaseURL            string
	UserAgent          string
	PolitenessInterval time.Duration
	Retries            int
	RetryBackoff       time.Duration
	Timeout            time.Duration
}

// Client fetches and parses pages with a mandatory delay between requests.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	retries   int
	backoff   time.Duration
}

// NewClient builds a rate-limited client. Zero-valued config fields fall back
// to production defaults: one request per three seconds, three attempts.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.PolitenessInterval <= 0 {
		cfg.PolitenessInterval = 3 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Every(cfg.PolitenessInterval), 1),
		retries:   cfg.Retries,
		backoff:   cfg.RetryBackoff,
	}
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string { return c.baseURL }

// page is a parsed document plus the URL the request finally resolved to;
// box score pages encode the date and home team in their final URL.
type page struct {
	doc      *goquery.Document
	finalURL string
}

// getPage fetches one URL with retries and linear backoff. Each attempt waits
// on the politeness limiter first.
func (c *Client) getPage(ctx context.Context, url string) (*page, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		p, err := c.getOnce(ctx, url)
		if err == nil {
			return p, nil
		}
		lastErr = err
		log.Printf("[bbref-client] attempt %d/%d for %s failed: %v", attempt, c.retries, url, err)

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
	return nil, fmt.Errorf("fetching %s: %w", url, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &page{doc: doc, finalURL: resp.Request.URL.String()}, nil
}
