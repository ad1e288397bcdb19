package passage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/util"
	"github.com/ppiankov/qforge/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

const maxFetchAttempts = 3

// fetchSleepFunc is swapped out in tests
var fetchSleepFunc = time.Sleep

// Fetcher downloads books into a library directory
type Fetcher struct {
	httpClient   *http.Client
	robots       *util.RobotsChecker
	limiter      *worker.Limiter
	userAgent    string
	maxBytes     int64
	ignoreRobots bool
}

// NewFetcher builds a fetcher from HTTP settings. limiter may be nil.
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter, ignoreRobots bool) *Fetcher {
	client := util.NewHTTPClient(cfg.Timeout.Seconds(), cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy, 3)

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	return &Fetcher{
		httpClient:   client,
		robots:       util.NewRobotsChecker(client, cfg.UserAgent),
		limiter:      limiter,
		userAgent:    cfg.UserAgent,
		maxBytes:     maxBytes,
		ignoreRobots: ignoreRobots,
	}
}

// FetchResult is a downloaded book reduced to plain text
type FetchResult struct {
	Text        string
	ContentType string
	FinalURL    string
	Name        string // Suggested collection name
}

// Fetch retrieves rawURL once. HTML bodies are converted to visible text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if !f.ignoreRobots {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if f.limiter != nil {
			host, _ := hostOf(rawURL)
			if err := f.limiter.WaitWithDelay(ctx, host, delay); err != nil {
				return nil, err
			}
		}
	} else if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,text/html;q=0.9,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	contentType := resp.Header.Get("Content-Type")

	text := string(body)
	if isHTML(contentType, body) {
		text, err = HTMLText(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
	}

	return &FetchResult{
		Text:        text,
		ContentType: contentType,
		FinalURL:    finalURL,
		Name:        CollectionName(finalURL),
	}, nil
}

// FetchWithRetry retries transient failures (5xx, 429, refused or reset
// connections) with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// Save writes the text as <name>.txt in dir and returns the path
func Save(dir, name string, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create library dir: %w", err)
	}
	path := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func isRetryableFetchError(err error) bool {
	if err == nil || errors.Is(err, ErrDisallowed) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "unexpected status: 5") || strings.Contains(msg, "unexpected status: 429") {
		return true
	}
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return strings.Contains(contentType, "html")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// CollectionName derives a file-safe collection name from a URL's last path segment
func CollectionName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "book"
	}

	last := parsed.Host
	if path := strings.Trim(parsed.Path, "/"); path != "" {
		segments := strings.Split(path, "/")
		last = segments[len(segments)-1]
		if idx := strings.LastIndex(last, "."); idx > 0 {
			last = last[:idx]
		}
	}

	name := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(last), "_"), "_")
	if name == "" {
		return "book"
	}
	return name
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
