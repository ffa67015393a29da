package source

import (
	"context"
	"fmt"
	"time"
)

// Capture methods.
const (
	MethodDirectAPI = "direct-api"
	MethodBrowser   = "browser"
)

// Capture is one raw snapshot as delivered by a provider.
type Capture struct {
	Raw        []byte
	CapturedAt time.Time
	Method     string
}

// Fetcher retrieves one capture from a provider.
type Fetcher interface {
	Fetch(ctx context.Context) (Capture, error)
}

// FetchError is an external failure reaching the provider. Retryable.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure should trigger a retry.
// Transport errors and server-side statuses are transient; client
// errors are not.
func (e *FetchError) IsRetryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= 500 || e.StatusCode == 429
}
