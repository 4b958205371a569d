package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tube-indexer/config"
	"tube-indexer/provider"
	"tube-indexer/torznab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher records calls and returns canned results.
type fakeSearcher struct {
	videos    []provider.Video
	err       error
	calls     int
	lastQuery string
	lastLimit int
	down      bool
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]provider.Video, error) {
	f.calls++
	f.lastQuery = query
	f.lastLimit = maxResults
	return f.videos, f.err
}

func (f *fakeSearcher) Available() bool { return !f.down }
func (f *fakeSearcher) Name() string    { return "fake" }

func testConfig() *config.ConfigOptions {
	return &config.ConfigOptions{
		AppHost:       "127.0.0.1",
		AppPort:       "9117",
		APIKey:        "secret",
		IndexerName:   "YouTube",
		SearchTimeout: 5 * time.Second,
		DefaultLimit:  20,
		MaxLimit:      100,
	}
}

func doRequest(h *Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Torznab(rec, req)
	return rec
}

func TestTorznabInvalidAPIKey(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=caps&apikey=wrong")

	assert.Equal(t, http.StatusOK, rec.Code, "protocol errors still answer 200")
	assert.Contains(t, rec.Body.String(), `code="100"`)
	assert.Contains(t, rec.Body.String(), "Invalid API Key")
}

func TestTorznabMissingAPIKey(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=caps")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="100"`)
}

func TestTorznabNoKeyConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	h := NewHandler(&fakeSearcher{}, cfg)

	rec := doRequest(h, "/api?t=caps")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<caps>")
}

func TestTorznabCaps(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=caps&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<caps>")
	assert.Contains(t, body, `title="YouTube"`)
	assert.Contains(t, body, `max="100" default="20"`)
	assert.NotContains(t, body, "<error")
}

func TestTorznabSearchEmptyQuery(t *testing.T) {
	fake := &fakeSearcher{}
	h := NewHandler(fake, testConfig())

	rec := doRequest(h, "/api?t=search&q=&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<channel>")
	assert.NotContains(t, rec.Body.String(), "<item>")
	assert.Zero(t, fake.calls, "empty query must not invoke the provider")
}

func TestTorznabSearchResults(t *testing.T) {
	fake := &fakeSearcher{videos: []provider.Video{{
		ID:              "abc123",
		Title:           "Test Episode",
		URL:             provider.WatchURL("abc123"),
		Channel:         "TestChan",
		DurationSeconds: 300,
		UploadDate:      "20230615",
	}}}
	h := NewHandler(fake, testConfig())

	rec := doRequest(h, "/api?t=search&q=test+show&apikey=secret")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "test show", fake.lastQuery)
	assert.Equal(t, 20, fake.lastLimit)

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "<item>"))
	assert.Contains(t, body, "<guid>"+torznab.DeriveGUID("abc123")+"</guid>")
	assert.Contains(t, body, "<size>26214400</size>")
	assert.Contains(t, body, "<pubDate>Thu, 15 Jun 2023 00:00:00 +0000</pubDate>")
	assert.Contains(t, body, "<category>5000</category>")
	assert.Contains(t, body, `name="seeders" value="100"`)
	assert.Contains(t, body, `name="peers" value="100"`)
}

func TestTorznabTVSearchRoutesLikeSearch(t *testing.T) {
	fake := &fakeSearcher{}
	h := NewHandler(fake, testConfig())

	rec := doRequest(h, "/api?t=tvsearch&q=test+show&season=1&ep=2&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.calls)
	// Season and episode are accepted but never folded into the query text.
	assert.Equal(t, "test show", fake.lastQuery)
}

func TestTorznabSearchProviderFailure(t *testing.T) {
	fake := &fakeSearcher{err: context.DeadlineExceeded}
	h := NewHandler(fake, testConfig())

	rec := doRequest(h, "/api?t=search&q=test&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<error", "provider failure degrades to empty results, not an error document")
	assert.Contains(t, body, "<channel>")
	assert.NotContains(t, body, "<item>")
}

func TestTorznabSearchLimitClamping(t *testing.T) {
	fake := &fakeSearcher{}
	h := NewHandler(fake, testConfig())

	doRequest(h, "/api?t=search&q=test&limit=500&apikey=secret")
	assert.Equal(t, 100, fake.lastLimit, "requested limit is capped at the declared max")

	doRequest(h, "/api?t=search&q=test&limit=7&apikey=secret")
	assert.Equal(t, 7, fake.lastLimit)

	doRequest(h, "/api?t=search&q=test&limit=bogus&apikey=secret")
	assert.Equal(t, 20, fake.lastLimit, "unparseable limit falls back to the default")
}

func TestTorznabDownloadRedirect(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=download&link=https://youtu.be/xyz&apikey=secret")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://youtu.be/xyz", rec.Header().Get("Location"))
}

func TestTorznabDownloadIDFallback(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=download&id=https://youtu.be/xyz&apikey=secret")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://youtu.be/xyz", rec.Header().Get("Location"))
}

func TestTorznabDownloadPathPrefix(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/download?link=https://youtu.be/xyz&apikey=secret")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://youtu.be/xyz", rec.Header().Get("Location"))
}

func TestTorznabDownloadMissingLink(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=download&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="200"`)
	assert.Contains(t, rec.Body.String(), "Missing download link")
}

func TestTorznabUnknownAction(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	rec := doRequest(h, "/api?t=bogus&apikey=secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="201"`)
	assert.Contains(t, rec.Body.String(), "bogus")
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthCheckDegraded(t *testing.T) {
	h := NewHandler(&fakeSearcher{down: true}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
