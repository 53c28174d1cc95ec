package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"iedb-epitope-parser/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	// Keep tests fast: effectively no throttling.
	cfg.RateLimit.RPM = 60000
	return cfg
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/epitope/1":
			if ua := r.Header.Get("User-Agent"); ua == "" {
				t.Error("request carried no User-Agent header")
			}
			_, _ = w.Write([]byte("<html><body>epitope page</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f, err := NewFetcher(testConfig())
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}
	defer f.Close()

	html, err := f.Fetch(context.Background(), server.URL+"/epitope/1")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if html != "<html><body>epitope page</body></html>" {
		t.Errorf("unexpected body: %q", html)
	}
}

func TestFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f, err := NewFetcher(testConfig())
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}
	defer f.Close()

	_, err = f.Fetch(context.Background(), server.URL+"/epitope/404")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", fetchErr.Status, http.StatusNotFound)
	}
}

func TestFetchGzipResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("compressed page body"))
		_ = gz.Close()
	}))
	defer server.Close()

	f, err := NewFetcher(testConfig())
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}
	defer f.Close()

	html, err := f.Fetch(context.Background(), server.URL+"/epitope/1")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if html != "compressed page body" {
		t.Errorf("unexpected body: %q", html)
	}
}

func TestFetchRobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /epitope/\n"))
			return
		}
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	f, err := NewFetcher(testConfig())
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}
	defer f.Close()

	_, err = f.Fetch(context.Background(), server.URL+"/epitope/1")
	if err == nil {
		t.Fatal("expected error for disallowed path")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
}

func TestFetchConnectTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.ConnectTimeoutMS = 1
	cfg.HTTP.TotalTimeoutMS = 30000

	f, err := NewFetcher(cfg)
	if err != nil {
		t.Fatalf("NewFetcher error: %v", err)
	}
	defer f.Close()

	// 203.0.113.0/24 is reserved for documentation and never routed, so the
	// dial can only end via the configured connect timeout.
	start := time.Now()
	_, err = f.Fetch(context.Background(), "http://203.0.113.1/epitope/1")
	if err == nil {
		t.Fatal("expected dial failure for unroutable host")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("dial failed after %v, connect timeout not applied", elapsed)
	}
}

func TestRateLimiterSpacing(t *testing.T) {
	rl := NewRateLimiter(600) // 100ms interval
	ctx := context.Background()

	if err := rl.Wait(ctx, "a.example"); err != nil {
		t.Fatalf("first Wait error: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx, "a.example"); err != nil {
		t.Fatalf("second Wait error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("second request to same host waited only %v", elapsed)
	}
}

func TestRateLimiterHostsIndependent(t *testing.T) {
	rl := NewRateLimiter(60) // 1s interval
	ctx := context.Background()

	if err := rl.Wait(ctx, "a.example"); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx, "b.example"); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("request to a different host waited %v", elapsed)
	}
}

func TestRateLimiterContextCancelled(t *testing.T) {
	rl := NewRateLimiter(1) // 1m interval
	ctx, cancel := context.WithCancel(context.Background())

	if err := rl.Wait(ctx, "a.example"); err != nil {
		t.Fatalf("first Wait error: %v", err)
	}

	cancel()
	if err := rl.Wait(ctx, "a.example"); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
}

func TestParseDisallowRules(t *testing.T) {
	robots := `# IEDB robots
User-agent: BadBot
Disallow: /

User-agent: *
Disallow: /admin/  # internal
Disallow: /export
Disallow:
`
	rules := parseDisallowRules(strings.NewReader(robots))
	if len(rules) != 2 {
		t.Fatalf("rules = %v, want 2 entries", rules)
	}
	if rules[0] != "/admin/" || rules[1] != "/export" {
		t.Errorf("rules = %v", rules)
	}

	if !isDisallowed(rules, "/admin/users") {
		t.Error("/admin/users should be disallowed")
	}
	if isDisallowed(rules, "/epitope/1") {
		t.Error("/epitope/1 should be allowed")
	}
}
