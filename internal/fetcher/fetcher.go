package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"

	"iedb-epitope-parser/internal/config"
)

// FetchError tags a failed page fetch with its URL and, when the server
// answered, the HTTP status.
type FetchError struct {
	URL    string
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	renderer    *Renderer
}

// NewFetcher builds the HTTP fetcher; when rod rendering is enabled in the
// config it also launches the headless browser.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.GetConnectTimeout(),
			}).DialContext,
			MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
		},
	}

	f := &Fetcher{
		client:      client,
		cfg:         cfg,
		robotsCache: NewRobotsCache(cfg.GetRobotsCacheTTL()),
		rateLimiter: NewRateLimiter(cfg.RateLimit.RPM),
	}

	if cfg.Rod.Enabled {
		renderer, err := NewRenderer(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to start rendering browser: %w", err)
		}
		f.renderer = renderer
	}

	return f, nil
}

// Close releases the rendering browser, if one was launched.
func (f *Fetcher) Close() {
	if f.renderer != nil {
		if err := f.renderer.Close(); err != nil {
			log.Printf("Failed to close rendering browser: %v", err)
		}
	}
}

// Fetch retrieves one page. A single attempt per URL: network failures and
// non-2xx statuses come back as *FetchError for the caller to log and skip.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", &FetchError{URL: urlStr, Cause: fmt.Errorf("invalid URL: %w", err)}
	}
	host := parsedURL.Host

	allowed, err := f.robotsCache.IsAllowed(ctx, host, parsedURL, f.client)
	if err != nil {
		return "", &FetchError{URL: urlStr, Cause: fmt.Errorf("robots.txt check failed: %w", err)}
	}
	if !allowed {
		return "", &FetchError{URL: urlStr, Cause: fmt.Errorf("disallowed by robots.txt")}
	}

	if err := f.rateLimiter.Wait(ctx, host); err != nil {
		return "", &FetchError{URL: urlStr, Cause: err}
	}

	if f.renderer != nil {
		html, err := f.renderer.Render(ctx, urlStr)
		if err != nil {
			return "", &FetchError{URL: urlStr, Cause: err}
		}
		return html, nil
	}

	return f.fetchOnce(ctx, urlStr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &FetchError{URL: urlStr, Cause: err}
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: urlStr, Cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: urlStr, Status: resp.StatusCode}
	}

	reader := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", &FetchError{URL: urlStr, Cause: err}
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: urlStr, Cause: err}
	}

	return string(body), nil
}
