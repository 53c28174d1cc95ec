package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"iedb-epitope-parser/internal/config"
)

// Renderer fetches pages through a headless browser so that script-injected
// page data is present in the returned HTML.
type Renderer struct {
	browser *rod.Browser
	cfg     *config.Config
}

func NewRenderer(cfg *config.Config) (*Renderer, error) {
	l := launcher.New().Headless(true)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Renderer{browser: browser, cfg: cfg}, nil
}

// Render loads the URL in a fresh page, waits for load plus the configured
// lazy-load delay, and returns the rendered HTML.
func (r *Renderer) Render(ctx context.Context, urlStr string) (string, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(r.cfg.GetRodPageTimeout())

	if err := page.Navigate(urlStr); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}

	if delay := r.cfg.GetRodLazyLoadDelay(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	return html, nil
}

func (r *Renderer) Close() error {
	return r.browser.Close()
}
