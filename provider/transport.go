package provider

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs outbound scrape requests when debug logging is on.
type loggingTransport struct {
	proxied http.RoundTripper
}

func (lt *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	slog.Debug("Making HTTP request", "method", req.Method, "url", req.URL.String())

	start := time.Now()
	resp, err := lt.proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		slog.Error("HTTP request failed", "error", err, "duration", duration)
		return nil, err
	}

	slog.Debug("Received HTTP response",
		"status", resp.Status,
		"duration", duration,
		"content_length", resp.ContentLength,
	)
	return resp, nil
}
