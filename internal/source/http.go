package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// HTTPFetcher fetches a provider endpoint over plain HTTP.
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// NewHTTPFetcher creates a fetcher for one provider endpoint.
func NewHTTPFetcher(url string, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.maxRetries = max
		f.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = hc
	}
}

// Fetch retrieves the endpoint with exponential backoff on transient
// failures.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Capture, error) {
	var lastErr error
	backoff := f.retryBackoff

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			f.logger.Debug("retrying fetch",
				"attempt", attempt,
				"backoff", jitter,
				"url", f.url,
			)

			select {
			case <-ctx.Done():
				return Capture{}, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		raw, err := f.doFetch(ctx)
		if err == nil {
			return Capture{
				Raw:        raw,
				CapturedAt: time.Now().UTC(),
				Method:     MethodDirectAPI,
			}, nil
		}

		lastErr = err

		var fe *FetchError
		if !errors.As(err, &fe) || !fe.IsRetryable() {
			return Capture{}, err
		}
	}

	return Capture{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (f *HTTPFetcher) doFetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	return body, nil
}
