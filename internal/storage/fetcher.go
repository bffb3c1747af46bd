package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPFetcher reads objects back over HTTP(S), bounded by a timeout and a
// maximum body size.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

// NewHTTPFetcher returns a fetcher with a traced transport. A nil client uses
// a fresh client over http.DefaultTransport.
func NewHTTPFetcher(client *http.Client, maxBytes int64, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes, timeout: timeout}
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch downloads rawURL. Transport failures, timeouts and non-2xx responses
// wrap ErrFetch; bodies over the limit return ErrTooLarge.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		if resp.ContentLength > f.maxBytes {
			return nil, "", ErrTooLarge
		}
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, "", ErrTooLarge
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}
