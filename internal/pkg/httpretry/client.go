// Package httpretry provides an HTTP client with automatic retry,
// exponential backoff, and full jitter for calls to external APIs.
package httpretry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Doer executes HTTP requests. Both *http.Client and *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps a Doer with retry logic. Attempts counts retries after
// the initial request; backoff is exponential with full jitter between
// minBackoff and maxBackoff.
type Client struct {
	inner      Doer
	attempts   int
	minBackoff time.Duration
	maxBackoff time.Duration
}

// New creates a retrying Client. If inner is nil, a default http.Client
// with a 30s timeout is used. attempts <= 0 defaults to 3.
func New(inner Doer, attempts int) *Client {
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		inner:      inner,
		attempts:   attempts,
		minBackoff: 1 * time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// NewRequest builds a request whose body can be replayed across retries.
// Use it for POSTs going through Do; plain http.NewRequest bodies are
// consumed by the first attempt.
func NewRequest(ctx context.Context, method, url string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	return req, nil
}

// Do executes the request, retrying on 429/500/502/503/504 and on
// transient network errors. Client errors (4xx other than 429) return
// immediately, as does context cancellation. The final attempt's
// response is returned as-is so callers can inspect status and body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.attempts; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset request body: %w", err)
				}
				req.Body = body
			}

			wait := c.backoff(attempt)
			log.Printf("httpretry: attempt %d/%d for %s %s%s (waiting %s)",
				attempt, c.attempts, req.Method, req.URL.Host, req.URL.Path, wait)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := c.inner.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.attempts {
			return resp, nil
		}

		// Drain for connection reuse before the next attempt.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// backoff returns the jittered delay before the given retry attempt:
// random(0, min(maxBackoff, minBackoff * 2^(attempt-1))), floored at
// 100ms to avoid busy-looping.
func (c *Client) backoff(attempt int) time.Duration {
	exp := float64(c.minBackoff) * math.Pow(2, float64(attempt-1))
	if exp > float64(c.maxBackoff) {
		exp = float64(c.maxBackoff)
	}
	wait := time.Duration(rand.Float64() * exp)
	if wait < 100*time.Millisecond {
		wait = 100 * time.Millisecond
	}
	return wait
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
