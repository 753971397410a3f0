package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient returns a client that records backoff waits instead of
// sleeping.
func newTestClient(retries int) (*Client, *[]time.Duration) {
	c := NewClient(Config{
		MaxRetries:     retries,
		Timeout:        2 * time.Second,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     25 * time.Millisecond,
		Header:         http.Header{"User-Agent": []string{"retailetl-test"}},
	})
	var waits []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return c, &waits
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -2})
	if c.httpClient.Timeout <= 0 {
		t.Fatalf("expected non-zero timeout")
	}
	if c.maxRetries != 0 {
		t.Fatalf("maxRetries = %d, want 0", c.maxRetries)
	}
	tr, ok := c.httpClient.Transport.(*http.Transport)
	if !ok || tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS transport, got %T", c.httpClient.Transport)
	}
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "retailetl-test" {
			t.Errorf("missing base header")
		}
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "order_id\nO1\n")
	}))
	defer srv.Close()

	c, waits := newTestClient(3)
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(*waits) != len(want) || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Fatalf("waits = %v, want %v", *waits, want)
	}
}

func TestGet_GivesUp(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(2)
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error after retries")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
}

func TestGet_NonRetryableReturnsResponse(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := newTestClient(3)
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden || atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("status=%d hits=%d", resp.StatusCode, hits)
	}
}

func TestGet_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Get(ctx, srv.URL); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{62, time.Second},
	}
	for _, tc := range tests {
		if got := backoff(100*time.Millisecond, tc.retry, time.Second); got != tc.want {
			t.Errorf("backoff(retry=%d) = %v, want %v", tc.retry, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{200: false, 404: false, 429: true, 500: true, 503: true, 599: true} {
		if got := retryable(code); got != want {
			t.Errorf("retryable(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestSource_Open(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/orders.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "order_id\nO1\n")
	})
	mux.HandleFunc("/denied.csv", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := newTestClient(0)
	ctx := context.Background()

	rc, err := NewSource(c, srv.URL+"/orders.csv").Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "order_id\nO1\n" {
		t.Fatalf("body = %q", b)
	}

	if _, err := NewSource(c, srv.URL+"/missing.csv").Open(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for 404, got %v", err)
	}
	if _, err := NewSource(c, srv.URL+"/denied.csv").Open(ctx); err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want plain error for 401, got %v", err)
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"https://example.com/orders.csv": true,
		"HTTP://example.com/x":           true,
		"olist_orders_dataset.csv":       false,
		"/data/raw/orders.csv":           false,
		"ftp://example.com/x":            false,
	} {
		if got := IsURL(name); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", name, got, want)
		}
	}
}
