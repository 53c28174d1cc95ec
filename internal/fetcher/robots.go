package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type RobotsCache struct {
	cache map[string]*robotsEntry
	ttl   time.Duration
	mu    sync.RWMutex
}

type robotsEntry struct {
	disallowed []string
	expiresAt  time.Time
}

func NewRobotsCache(ttl time.Duration) *RobotsCache {
	return &RobotsCache{
		cache: make(map[string]*robotsEntry),
		ttl:   ttl,
	}
}

// IsAllowed checks target against the host's robots.txt, fetching and caching
// the file per host. Unreachable or absent robots.txt means allowed.
func (rc *RobotsCache) IsAllowed(ctx context.Context, host string, target *url.URL, client *http.Client) (bool, error) {
	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return !isDisallowed(cached.disallowed, target.Path), nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, nil
	}

	resp, err := client.Do(req)
	if err != nil {
		// Network error: assume allowed
		return true, nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	var disallowed []string
	if resp.StatusCode == http.StatusOK {
		disallowed = parseDisallowRules(resp.Body)
	}

	rc.mu.Lock()
	rc.cache[host] = &robotsEntry{
		disallowed: disallowed,
		expiresAt:  time.Now().Add(rc.ttl),
	}
	rc.mu.Unlock()

	return !isDisallowed(disallowed, target.Path), nil
}

// parseDisallowRules collects the Disallow rules from the wildcard
// user-agent group. Group-specific rules for other crawlers are ignored.
func parseDisallowRules(r io.Reader) []string {
	var rules []string
	inWildcardGroup := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			inWildcardGroup = value == "*"
		case "disallow":
			if inWildcardGroup && value != "" {
				rules = append(rules, value)
			}
		}
	}

	return rules
}

func isDisallowed(rules []string, path string) bool {
	if path == "" {
		path = "/"
	}
	for _, rule := range rules {
		if strings.HasPrefix(path, rule) {
			return true
		}
	}
	return false
}
