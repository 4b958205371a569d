package provider

import "context"

// Video is one search hit from the upstream source. Fields the source could
// not supply are normalized to safe defaults before the value leaves this
// package.
type Video struct {
	ID              string
	Title           string
	URL             string
	Channel         string
	DurationSeconds int
	ViewCount       int64
	UploadDate      string // YYYYMMDD, or empty when unknown
	Description     string
}

// Searcher is the upstream video search collaborator. Implementations may
// use different strategies (yt-dlp subprocess, HTML scraping).
type Searcher interface {
	// Search returns up to maxResults videos matching the free-text query.
	Search(ctx context.Context, query string, maxResults int) ([]Video, error)

	// Available reports whether the searcher can currently serve requests.
	Available() bool

	// Name identifies the search strategy for logging.
	Name() string
}

// normalize fills missing fields with defaults so downstream rendering never
// sees an empty URL or title.
func (v *Video) normalize() {
	if v.Title == "" {
		v.Title = "Unknown"
	}
	if v.Channel == "" {
		v.Channel = "Unknown"
	}
	if v.URL == "" {
		v.URL = WatchURL(v.ID)
	}
	if v.DurationSeconds < 0 {
		v.DurationSeconds = 0
	}
	if v.ViewCount < 0 {
		v.ViewCount = 0
	}
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
