package exchange

import (
	"context"
	"net/http"
	"time"
)

// logger is the printf-style logging interface used by the gateway.
type logger interface {
	Info(msg string, v ...interface{})
	Error(msg string, v ...interface{})
	Debug(msg string, v ...interface{})
}

// loggingClient wraps httpClient, logging request/response metadata.
type loggingClient struct {
	inner httpClient
	log   logger
}

func newLoggingClient(inner httpClient, l logger) *loggingClient {
	return &loggingClient{inner: inner, log: l}
}

func (c *loggingClient) Get(ctx context.Context, route string, params interface{}) (*http.Response, error) {
	return c.do("GET", route, func() (*http.Response, error) {
		return c.inner.Get(ctx, route, params)
	})
}

func (c *loggingClient) Post(ctx context.Context, route string, body interface{}) (*http.Response, error) {
	return c.do("POST", route, func() (*http.Response, error) {
		return c.inner.Post(ctx, route, body)
	})
}

func (c *loggingClient) do(method, route string, fn func() (*http.Response, error)) (*http.Response, error) {
	c.log.Debug("%s %s", method, route)
	start := time.Now()

	resp, err := fn()
	elapsed := time.Since(start)

	if err != nil {
		c.log.Error("%s %s failed: %v", method, route, err)
		return nil, err
	}

	c.log.Info("%s %s -> %d (%dms)", method, route, resp.StatusCode, elapsed.Milliseconds())
	if resp.Header != nil {
		c.log.Debug("response headers: %v", redactHeaders(resp.Header))
	}

	return resp, nil
}

// redactHeaders returns a copy of headers with Authorization values replaced.
func redactHeaders(h http.Header) http.Header {
	redacted := h.Clone()
	if redacted.Get("Authorization") != "" {
		redacted.Set("Authorization", "Bearer [REDACTED]")
	}
	return redacted
}
