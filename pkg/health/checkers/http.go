// Package checkers holds reusable health.Check implementations.
package checkers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChecker probes an HTTP endpoint. Any response below 500 counts as
// reachable: an upstream API answering 401 is still up.
type HTTPChecker struct {
	name   string
	url    string
	method string
	header http.Header
	client *http.Client
}

// HTTPOption configures an HTTPChecker.
type HTTPOption func(*HTTPChecker)

// WithClient replaces the default client (10s timeout).
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTPChecker) { h.client = c }
}

// WithMethod sets the request method. Default GET.
func WithMethod(m string) HTTPOption {
	return func(h *HTTPChecker) { h.method = m }
}

// WithHeader adds a request header, e.g. an API key.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTPChecker) { h.header.Add(key, value) }
}

// NewHTTPChecker creates a checker for url. An empty name falls back to url.
func NewHTTPChecker(name, url string, opts ...HTTPOption) *HTTPChecker {
	if name == "" {
		name = url
	}
	h := &HTTPChecker{
		name:   name,
		url:    url,
		method: http.MethodGet,
		header: make(http.Header),
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPChecker) Name() string {
	return h.name
}

func (h *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, h.method, h.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range h.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", h.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unhealthy status code: %d", resp.StatusCode)
	}
	return nil
}
