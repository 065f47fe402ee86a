// Package craigslist fetches housing listings from Craigslist search and
// listing pages.
package craigslist

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const defaultTimeout = 30 * time.Second

// Config controls which search is run and how politely.
type Config struct {
	Site           string
	Category       string
	MinPrice       int
	MaxPrice       int
	ZipCode        string
	SearchDistance int
	Limit          int
	UserAgent      string
	Location       *time.Location
	MinDelay       time.Duration
	MaxDelay       time.Duration
	// BaseURL overrides https://{site}.craigslist.org.
	BaseURL string
}

// Client implements ports.ListingSource.
type Client struct {
	cfg  Config
	http *fasthttp.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.craigslist.org", cfg.Site)
	}
	c := &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:                "aptscout",
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchURL builds the newest-first search URL for an area.
func (c *Client) SearchURL(area string) string {
	q := url.Values{}
	q.Set("sort", "date")
	if c.cfg.MinPrice > 0 {
		q.Set("min_price", strconv.Itoa(c.cfg.MinPrice))
	}
	if c.cfg.MaxPrice > 0 {
		q.Set("max_price", strconv.Itoa(c.cfg.MaxPrice))
	}
	if c.cfg.ZipCode != "" {
		q.Set("postal", c.cfg.ZipCode)
	}
	if c.cfg.SearchDistance > 0 {
		q.Set("search_distance", strconv.Itoa(c.cfg.SearchDistance))
	}
	return fmt.Sprintf("%s/search/%s/%s?%s", c.cfg.BaseURL, url.PathEscape(area), url.PathEscape(c.cfg.Category), q.Encode())
}

// Search returns the newest listings of an area.
func (c *Client) Search(ctx context.Context, area string) ([]domain.Listing, error) {
	body, err := c.get(ctx, c.SearchURL(area))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", area, err)
	}
	listings, err := ParseSearch(bytes.NewReader(body), c.cfg.BaseURL, area, c.cfg.Location, c.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("parse search %s: %w", area, err)
	}
	return listings, nil
}

// Details waits the request delay, then fills in geotag and photo from the
// listing page.
func (c *Client) Details(ctx context.Context, l *domain.Listing) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	body, err := c.get(ctx, l.URL)
	if err != nil {
		return fmt.Errorf("details %s: %w", l.ID, err)
	}
	if err := ParseDetails(bytes.NewReader(body), l); err != nil {
		return fmt.Errorf("parse details %s: %w", l.ID, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	if c.cfg.UserAgent != "" {
		req.Header.SetUserAgent(c.cfg.UserAgent)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return append([]byte(nil), resp.Body()...), nil
}

// wait sleeps a random duration in [MinDelay, MaxDelay].
func (c *Client) wait(ctx context.Context) error {
	d := c.cfg.MinDelay
	if span := c.cfg.MaxDelay - c.cfg.MinDelay; span > 0 {
		d += rand.N(span + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
