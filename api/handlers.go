package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"tube-indexer/config"
	"tube-indexer/provider"
	"tube-indexer/torznab"

	"github.com/dustin/go-humanize"
)

// Handler holds the dependencies for all API endpoints.
type Handler struct {
	Provider  provider.Searcher
	Config    *config.ConfigOptions
	StartTime time.Time

	providerUp atomic.Bool
}

// NewHandler creates the API handler. The provider availability flag starts
// from a direct probe and is refreshed by the scheduled health check.
func NewHandler(searcher provider.Searcher, cfg *config.ConfigOptions) *Handler {
	h := &Handler{
		Provider:  searcher,
		Config:    cfg,
		StartTime: time.Now(),
	}
	h.providerUp.Store(searcher.Available())
	return h
}

// MarkProviderAvailable records the outcome of a provider availability probe.
func (h *Handler) MarkProviderAvailable(up bool) {
	h.providerUp.Store(up)
}

// ProviderAvailable reports the last probed provider state.
func (h *Handler) ProviderAvailable() bool {
	return h.providerUp.Load()
}

// SearchRequest is the typed view of the query parameters, validated once at
// parse time.
type SearchRequest struct {
	APIKey  string
	Action  string
	Query   string
	Season  string
	Episode string
	Limit   int
	Link    string
}

// parseRequest extracts and normalizes the Torznab query parameters.
func (h *Handler) parseRequest(r *http.Request) SearchRequest {
	q := r.URL.Query()

	limit := h.Config.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.Config.MaxLimit {
		limit = h.Config.MaxLimit
	}

	link := q.Get("link")
	if link == "" {
		link = q.Get("id")
	}

	return SearchRequest{
		APIKey:  q.Get("apikey"),
		Action:  q.Get("t"),
		Query:   strings.TrimSpace(q.Get("q")),
		Season:  q.Get("season"),
		Episode: q.Get("ep"),
		Limit:   limit,
		Link:    link,
	}
}

// Torznab is the main protocol endpoint. It authenticates, routes on the
// 't' action, and always answers protocol errors with HTTP 200 XML bodies;
// clients parse the error code out of the body regardless of transport
// status.
func (h *Handler) Torznab(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Recovered panic in request handler", "panic", rec, "path", r.URL.Path)
			writeError(w, torznab.CodeInternalError, "Internal error")
		}
	}()

	req := h.parseRequest(r)

	if key := h.Config.APIKey; key != "" && req.APIKey != key {
		slog.Warn("Invalid API key", "remote_addr", r.RemoteAddr)
		writeError(w, torznab.CodeInvalidAPIKey, "Invalid API Key")
		return
	}

	switch {
	case req.Action == "caps":
		h.handleCaps(w)
	case req.Action == "search" || req.Action == "tvsearch":
		h.handleSearch(w, r, req)
	case req.Action == "download" || strings.HasPrefix(r.URL.Path, "/download"):
		h.handleDownload(w, r, req)
	default:
		writeError(w, torznab.CodeUnknownFunction, fmt.Sprintf("Unknown action: %s", req.Action))
	}
}

// handleCaps emits the static capabilities document.
func (h *Handler) handleCaps(w http.ResponseWriter) {
	out, err := torznab.BuildCaps(torznab.CapsInfo{
		Title:        h.Config.IndexerName,
		DefaultLimit: h.Config.DefaultLimit,
		MaxLimit:     h.Config.MaxLimit,
	})
	if err != nil {
		slog.Error("Failed to render capabilities", "error", err)
		writeError(w, torznab.CodeInternalError, "Failed to generate capabilities")
		return
	}
	writeXML(w, out)
}

// handleSearch builds the query text, calls the provider, and renders the
// results feed. Provider failures degrade to an empty feed, never to an
// error document: an empty search outcome is a valid result.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	// Season/episode are accepted but deliberately not folded into the
	// query text; natural-language search performs better without them.
	if req.Query == "" {
		h.writeFeed(w, nil)
		return
	}

	slog.Info("Searching provider", "provider", h.Provider.Name(), "query", req.Query, "limit", req.Limit)

	ctx, cancel := context.WithTimeout(r.Context(), h.Config.SearchTimeout)
	defer cancel()

	videos, err := h.Provider.Search(ctx, req.Query, req.Limit)
	if err != nil {
		slog.Error("Provider search failed", "provider", h.Provider.Name(), "query", req.Query, "error", err)
		videos = nil
	}

	var estimatedTotal int64
	for _, v := range videos {
		estimatedTotal += torznab.EstimateSize(v.DurationSeconds)
	}
	slog.Info("Search finished",
		"query", req.Query,
		"results", len(videos),
		"estimated_total", humanize.Bytes(uint64(estimatedTotal)),
	)

	h.writeFeed(w, videos)
}

// handleDownload answers with a redirect to the listed URL. This is rarely
// hit since the enclosure already points at the source, but clients that do
// call it expect a 302.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	if req.Link == "" {
		writeError(w, torznab.CodeMissingParameter, "Missing download link")
		return
	}
	http.Redirect(w, r, req.Link, http.StatusFound)
}

// HealthCheck reports gateway and provider status as JSON.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	available := h.ProviderAvailable()

	status := map[string]interface{}{
		"status":             "ok",
		"uptime":             time.Since(h.StartTime).String(),
		"provider":           h.Provider.Name(),
		"provider_available": available,
		"timestamp":          time.Now().UTC(),
	}
	if !available {
		status["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if !available {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) writeFeed(w http.ResponseWriter, videos []provider.Video) {
	out, err := torznab.BuildFeed(h.feedInfo(), videos)
	if err != nil {
		slog.Error("Failed to render results feed", "error", err)
		writeError(w, torznab.CodeInternalError, "Failed to generate feed")
		return
	}
	writeXML(w, out)
}

func (h *Handler) feedInfo() torznab.FeedInfo {
	return torznab.FeedInfo{
		Title:       h.Config.IndexerName,
		Description: h.Config.IndexerName + " video indexer",
		SelfURL:     fmt.Sprintf("http://localhost:%s/api", h.Config.AppPort),
	}
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(body)
}

func writeError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(torznab.BuildError(code, description))
}
