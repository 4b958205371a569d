package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
)

var initialDataRegex = regexp.MustCompile(`(?s)ytInitialData\s*=\s*(\{.*\});`)

// Scraper searches by fetching the public results page and walking the
// ytInitialData blob embedded in it. Used when yt-dlp is not installed.
// Upload dates are not exposed by this source and stay empty.
type Scraper struct {
	BaseURL string
	client  *http.Client
}

// NewScraper returns a searcher that scrapes the results page.
func NewScraper(timeout time.Duration, debug bool) *Scraper {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	var transport http.RoundTripper = http.DefaultTransport
	if debug {
		transport = &loggingTransport{proxied: http.DefaultTransport}
	}
	return &Scraper{
		BaseURL: "https://www.youtube.com",
		client:  &http.Client{Jar: jar, Timeout: timeout, Transport: transport},
	}
}

func (s *Scraper) Name() string { return "scrape" }

// Available is always true; failures surface per search.
func (s *Scraper) Available() bool { return true }

// Search fetches the results page for the query and extracts videoRenderer
// entries from ytInitialData.
func (s *Scraper) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	searchURL := s.BaseURL + "/results?search_query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Skip the EU consent interstitial, which hides ytInitialData.
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+1"})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("results page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results page returned status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var data string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "ytInitialData") {
			return true
		}
		if m := initialDataRegex.FindStringSubmatch(text); m != nil {
			data = m[1]
			return false
		}
		return true
	})
	if data == "" {
		return nil, fmt.Errorf("ytInitialData not found in results page")
	}

	return parseInitialData(data, maxResults), nil
}

// parseInitialData walks the search result sections for videoRenderer
// entries. Shelf and ad renderers are skipped.
func parseInitialData(data string, maxResults int) []Video {
	var videos []Video
	sections := gjson.Get(data, "contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents")
	sections.ForEach(func(_, section gjson.Result) bool {
		section.Get("itemSectionRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			r := item.Get("videoRenderer")
			if !r.Exists() {
				return true
			}
			id := r.Get("videoId").String()
			if id == "" {
				return true
			}

			v := Video{
				ID:              id,
				Title:           r.Get("title.runs.0.text").String(),
				Channel:         r.Get("ownerText.runs.0.text").String(),
				DurationSeconds: parseClock(r.Get("lengthText.simpleText").String()),
				ViewCount:       parseViewCount(r.Get("viewCountText.simpleText").String()),
				Description:     r.Get("detailedMetadataSnippets.0.snippetText.runs.0.text").String(),
			}
			v.normalize()

			videos = append(videos, v)
			return len(videos) < maxResults
		})
		return len(videos) < maxResults
	})
	return videos
}

// parseClock converts a "1:02:33" or "4:13" style duration to seconds.
func parseClock(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// parseViewCount strips the thousands separators and label from a
// "1,234,567 views" style string.
func parseViewCount(s string) int64 {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
