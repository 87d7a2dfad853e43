package height

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wemix/btcprobe/pkg/logger"
)

const (
	// DefaultTimeout bounds a single fetch when no client is supplied
	DefaultTimeout = 10 * time.Second

	// maxBodySize is the largest response body accepted
	maxBodySize = 4 << 20
)

// Fetcher downloads text payloads over HTTP and extracts heights from them.
//
// Thread-safe: a single Fetcher may be shared by several sources.
type Fetcher struct {
	client *http.Client
	logger *logger.Logger
}

// NewFetcher creates a Fetcher. A nil client is replaced with one using
// DefaultTimeout.
func NewFetcher(client *http.Client, logger *logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// FetchHeight performs a GET against url and applies rule to the body.
//
// Transport failures and non-2xx responses are reported as ErrFetch.
// Extraction failures are returned as produced by the rule.
func (f *Fetcher) FetchHeight(ctx context.Context, url string, rule Rule) (Height, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		return 0, err
	}

	h, err := rule.Extract(body)
	if err != nil {
		return 0, fmt.Errorf("extract height from %s with %s: %w", url, rule, err)
	}

	f.logger.Debug("fetched height",
		zap.String("url", url),
		zap.String("rule", rule.String()),
		zap.Uint32("height", h))

	return h, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request for %s: %v", ErrFetch, url, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: GET %s: unexpected status %s", ErrFetch, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body of %s: %v", ErrFetch, url, err)
	}
	if len(data) > maxBodySize {
		return "", fmt.Errorf("%w: body of %s exceeds %d bytes", ErrFetch, url, maxBodySize)
	}

	return string(data), nil
}

// URLSource is a Source backed by a Fetcher, a URL and an extraction rule.
type URLSource struct {
	fetcher *Fetcher
	url     string
	rule    Rule
}

// NewSource binds url and rule to fetcher.
func NewSource(fetcher *Fetcher, url string, rule Rule) *URLSource {
	return &URLSource{
		fetcher: fetcher,
		url:     url,
		rule:    rule,
	}
}

// Height implements Source.
func (s *URLSource) Height(ctx context.Context) (Height, error) {
	return s.fetcher.FetchHeight(ctx, s.url, s.rule)
}

// URL returns the address the source reads from.
func (s *URLSource) URL() string {
	return s.url
}
