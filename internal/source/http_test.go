package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"DateTime":"1/29/2026 9:25:44 AM"}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL)
	capture, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if string(capture.Raw) != `{"DateTime":"1/29/2026 9:25:44 AM"}` {
		t.Errorf("raw = %s", capture.Raw)
	}
	if capture.Method != MethodDirectAPI {
		t.Errorf("method = %s, want %s", capture.Method, MethodDirectAPI)
	}
	if time.Since(capture.CapturedAt) > time.Minute {
		t.Errorf("capture time %s looks stale", capture.CapturedAt)
	}
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, WithRetries(3, time.Millisecond))
	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPFetcher_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, WithRetries(3, time.Millisecond))
	_, err := f.Fetch(context.Background())

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if fe.IsRetryable() {
		t.Error("404 must not be retryable")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetchError_Retryability(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 0, want: true},
		{status: 429, want: true},
		{status: 500, want: true},
		{status: 503, want: true},
		{status: 400, want: false},
		{status: 404, want: false},
	}

	for _, tt := range tests {
		e := &FetchError{URL: "http://x", StatusCode: tt.status, Err: errors.New("x")}
		if got := e.IsRetryable(); got != tt.want {
			t.Errorf("status %d: IsRetryable = %v, want %v", tt.status, got, tt.want)
		}
	}
}
