package torznab

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"strconv"
	"time"

	"tube-indexer/provider"
)

// Protocol error codes (newznab convention).
const (
	CodeInvalidAPIKey    = 100
	CodeMissingParameter = 200
	CodeUnknownFunction  = 201
	CodeInternalError    = 900
)

// CategoryTV is the fixed category every rendered item is filed under.
const CategoryTV = 5000

// tvSubcategories is the category tree advertised in the capabilities
// document.
var tvSubcategories = []SubCategory{
	{ID: "5030", Name: "TV/SD"},
	{ID: "5040", Name: "TV/HD"},
	{ID: "5045", Name: "TV/UHD"},
	{ID: "5050", Name: "TV/Other"},
}

// FeedInfo is the channel-level metadata injected from configuration.
type FeedInfo struct {
	Title       string
	Description string
	SelfURL     string
}

// CapsInfo parameterizes the capabilities document.
type CapsInfo struct {
	Title        string
	DefaultLimit int
	MaxLimit     int
}

// DeriveGUID maps a provider identifier to the stable opaque token clients
// deduplicate on. Same identifier, same token, across restarts.
func DeriveGUID(identifier string) string {
	sum := md5.Sum([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

const (
	// fallbackDurationSeconds substitutes for an absent duration so the
	// estimate stays plausible instead of collapsing to zero.
	fallbackDurationSeconds = 600
	// bytesPerMinute approximates 720p video, 5 MiB per minute.
	bytesPerMinute = 5 * 1024 * 1024
)

// EstimateSize maps a duration to a declared byte size. The protocol models
// results as files with fixed sizes; a stream has none, so this is a linear
// heuristic. Always positive.
func EstimateSize(durationSeconds int) int64 {
	if durationSeconds <= 0 {
		durationSeconds = fallbackDurationSeconds
	}
	return int64(float64(durationSeconds) / 60 * bytesPerMinute)
}

// ParseUploadDate parses the provider's 8-digit upload date. The false
// return covers empty and malformed values; callers omit the field.
func ParseUploadDate(s string) (time.Time, bool) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BuildFeed renders the search results document. An empty video list is
// valid and produces a zero-item feed.
func BuildFeed(info FeedInfo, videos []provider.Video) ([]byte, error) {
	feed := &Feed{
		Version:   "2.0",
		AtomNS:    AtomNS,
		TorznabNS: FeedNS,
		Channel: Channel{
			Title:       info.Title,
			Description: info.Description,
			SelfLink: AtomLink{
				Href: info.SelfURL,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: []Item{},
		},
	}

	for _, v := range videos {
		size := EstimateSize(v.DurationSeconds)
		item := Item{
			Title:    v.Title,
			GUID:     DeriveGUID(v.ID),
			Link:     v.URL,
			Comments: "Channel: " + v.Channel,
			Size:     size,
			Category: strconv.Itoa(CategoryTV),
			// The enclosure must reference the exact listed URL so the
			// client downloads what it saw.
			Enclosure: Enclosure{URL: v.URL, Length: size, Type: EnclosureType},
			Attrs: []Attr{
				{Name: "category", Value: strconv.Itoa(CategoryTV)},
				// Synthetic swarm numbers; zero would make clients treat
				// the item as dead.
				{Name: "seeders", Value: "100"},
				{Name: "peers", Value: "100"},
				{Name: "downloadvolumefactor", Value: "0"},
				{Name: "uploadvolumefactor", Value: "1"},
			},
		}
		if t, ok := ParseUploadDate(v.UploadDate); ok {
			item.PubDate = t.UTC().Format(time.RFC1123Z)
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	return marshal(feed)
}

// BuildCaps renders the static capabilities document.
func BuildCaps(info CapsInfo) ([]byte, error) {
	caps := &Caps{
		Server: Server{Version: "1.0", Title: info.Title},
		Limits: Limits{Max: info.MaxLimit, Default: info.DefaultLimit},
		Searching: Searching{
			Search:      SearchMode{Available: "yes", SupportedParams: "q"},
			TVSearch:    SearchMode{Available: "yes", SupportedParams: "q,season,ep"},
			MovieSearch: SearchMode{Available: "no"},
			MusicSearch: SearchMode{Available: "no"},
			AudioSearch: SearchMode{Available: "no"},
			BookSearch:  SearchMode{Available: "no"},
		},
		Categories: Categories{
			Categories: []Category{
				{ID: strconv.Itoa(CategoryTV), Name: "TV", Subcat: tvSubcategories},
			},
		},
	}
	return marshal(caps)
}

// BuildError renders the protocol error element. It cannot fail; a marshal
// problem falls back to a hand-built internal error body.
func BuildError(code int, description string) []byte {
	out, err := xml.MarshalIndent(&Error{Code: code, Description: description}, "", "  ")
	if err != nil {
		return []byte(xml.Header + `<error code="900" description="Internal error"></error>`)
	}
	return append([]byte(xml.Header), out...)
}

func marshal(doc any) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
