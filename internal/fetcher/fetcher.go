package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/knowledge-engine/recommender/internal/config"
)

// defaultMaxBodySize caps a downloaded catalog file when the config sets no limit
const defaultMaxBodySize = 64 << 20

var (
	// ErrDisallowed is returned when robots.txt forbids the URL for our user agent
	ErrDisallowed = errors.New("blocked by robots.txt")
	// ErrTooLarge is returned when a document exceeds the body size limit
	ErrTooLarge = errors.New("response body too large")
)

// FetchResult contains a downloaded document
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher downloads remote catalog files, honouring robots.txt
type Fetcher struct {
	client        *http.Client
	userAgent     string
	respectRobots bool
	maxBodySize   int64
	logger        *logrus.Entry

	mu          sync.Mutex
	robotsCache map[string]*robotstxt.RobotsData
}

func NewFetcher(cfg config.FetchConfig, logger *logrus.Entry) *Fetcher {
	if logger == nil {
		logger = logrus.WithField("component", "fetcher")
	}
	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:     cfg.UserAgent,
		respectRobots: cfg.RespectRobots,
		maxBodySize:   maxBodySize,
		logger:        logger,
		robotsCache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch downloads the document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	allowed, err := f.IsAllowed(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	// one byte past the limit tells a full body from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", rawURL, ErrTooLarge, f.maxBodySize)
	}
	result.Body = body

	f.logger.WithFields(logrus.Fields{
		"url":   rawURL,
		"bytes": len(body),
	}).Debug("Fetched document")

	return result, nil
}

// IsAllowed checks if the URL may be fetched according to robots.txt.
// A robots.txt that cannot be retrieved allows the request.
func (f *Fetcher) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("unsupported scheme %q", parsedURL.Scheme)
	}
	if !f.respectRobots {
		return true, nil
	}

	robots, err := f.robotsFor(ctx, parsedURL)
	if err != nil {
		f.logger.WithError(err).WithField("domain", parsedURL.Host).Warn("Failed to get robots.txt, allowing request")
		return true, nil
	}

	group := robots.FindGroup(f.userAgent)
	if group == nil {
		return true, nil
	}
	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path), nil
}

func (f *Fetcher) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	f.mu.Lock()
	cached, ok := f.robotsCache[key]
	f.mu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	f.mu.Lock()
	f.robotsCache[key] = robots
	f.mu.Unlock()
	return robots, nil
}
