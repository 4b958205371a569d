package torznab

import "encoding/xml"

// Namespace URIs for the two attribute vocabularies a results feed carries.
const (
	FeedNS = "http://torznab.com/schemas/2015/feed"
	AtomNS = "http://www.w3.org/2005/Atom"
)

// EnclosureType is the media kind the automation client's download plugin
// expects; it is declared regardless of the item's actual nature.
const EnclosureType = "application/x-bittorrent"

// Attr is a torznab-namespaced attribute on an item.
type Attr struct {
	XMLName xml.Name `xml:"torznab:attr"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

// Enclosure carries the fetchable asset URL and its declared length.
type Enclosure struct {
	XMLName xml.Name `xml:"enclosure"`
	URL     string   `xml:"url,attr"`
	Length  int64    `xml:"length,attr"`
	Type    string   `xml:"type,attr"`
}

// AtomLink is the channel's self-reference.
type AtomLink struct {
	XMLName xml.Name `xml:"atom:link"`
	Href    string   `xml:"href,attr"`
	Rel     string   `xml:"rel,attr"`
	Type    string   `xml:"type,attr"`
}

// Item represents a single release in the feed.
type Item struct {
	XMLName   xml.Name  `xml:"item"`
	Title     string    `xml:"title"`
	GUID      string    `xml:"guid"`
	Link      string    `xml:"link"`
	Comments  string    `xml:"comments"`
	PubDate   string    `xml:"pubDate,omitempty"`
	Size      int64     `xml:"size"`
	Category  string    `xml:"category"`
	Enclosure Enclosure `xml:"enclosure"`
	Attrs     []Attr    `xml:"torznab:attr"`
}

// Channel contains the list of items.
type Channel struct {
	XMLName     xml.Name `xml:"channel"`
	Title       string   `xml:"title"`
	Description string   `xml:"description"`
	SelfLink    AtomLink `xml:"atom:link"`
	Items       []Item   `xml:"item"`
}

// Feed is the root element of a results document.
type Feed struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	AtomNS    string   `xml:"xmlns:atom,attr"`
	TorznabNS string   `xml:"xmlns:torznab,attr"`
	Channel   Channel  `xml:"channel"`
}

// --- Capabilities document ---

type Server struct {
	XMLName xml.Name `xml:"server"`
	Version string   `xml:"version,attr"`
	Title   string   `xml:"title,attr"`
}

type Limits struct {
	XMLName xml.Name `xml:"limits"`
	Max     int      `xml:"max,attr"`
	Default int      `xml:"default,attr"`
}

// SearchMode describes one searching entry; no XMLName so the parent tags
// decide the element names.
type SearchMode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr,omitempty"`
}

type Searching struct {
	XMLName     xml.Name   `xml:"searching"`
	Search      SearchMode `xml:"search"`
	TVSearch    SearchMode `xml:"tv-search"`
	MovieSearch SearchMode `xml:"movie-search"`
	MusicSearch SearchMode `xml:"music-search"`
	AudioSearch SearchMode `xml:"audio-search"`
	BookSearch  SearchMode `xml:"book-search"`
}

// SubCategory represents a <subcat> element.
type SubCategory struct {
	XMLName xml.Name `xml:"subcat"`
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
}

// Category represents a <category> element with its subcategories.
type Category struct {
	XMLName xml.Name      `xml:"category"`
	ID      string        `xml:"id,attr"`
	Name    string        `xml:"name,attr"`
	Subcat  []SubCategory `xml:"subcat,omitempty"`
}

type Categories struct {
	XMLName    xml.Name   `xml:"categories"`
	Categories []Category `xml:"category"`
}

// Caps is the root element of the capabilities document.
type Caps struct {
	XMLName    xml.Name   `xml:"caps"`
	Server     Server     `xml:"server"`
	Limits     Limits     `xml:"limits"`
	Searching  Searching  `xml:"searching"`
	Categories Categories `xml:"categories"`
}

// Error is the protocol error element, always delivered with HTTP 200.
type Error struct {
	XMLName     xml.Name `xml:"error"`
	Code        int      `xml:"code,attr"`
	Description string   `xml:"description,attr"`
}
