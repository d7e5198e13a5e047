package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// QueryKind classifies a raw play request.
type QueryKind int

const (
	QueryKindSearch   QueryKind = iota // Free text
	QueryKindSingle                    // A URL pointing at one track
	QueryKindPlaylist                  // A URL pointing at a playlist
)

// String returns a human-readable representation of the query kind.
func (k QueryKind) String() string {
	switch k {
	case QueryKindSingle:
		return "single"
	case QueryKindPlaylist:
		return "playlist"
	default:
		return "search"
	}
}

// SearchSource represents the source for free-text searches.
type SearchSource string

const (
	// SourceYouTube searches YouTube.
	SourceYouTube SearchSource = "ytsearch"
	// SourceYouTubeMusic searches YouTube Music.
	SourceYouTubeMusic SearchSource = "ytmsearch"
)

// ParseSearchSource converts a configuration value to a SearchSource.
func ParseSearchSource(s string) SearchSource {
	switch strings.ToLower(s) {
	case "ytmusic", "youtube_music", "ytmsearch":
		return SourceYouTubeMusic
	default:
		return SourceYouTube
	}
}

var youtubePlaylistPattern = regexp.MustCompile(
	`^https?://(www\.|music\.|m\.)?youtube\.com/(playlist|watch)\?.*\blist=[\w-]+`,
)

// SearchQuery represents a classified play request.
type SearchQuery struct {
	Query  string       // The search term or URL
	Kind   QueryKind    // How the query should be resolved
	Source SearchSource // The search source, only meaningful for QueryKindSearch
}

// NewSearchQuery classifies user input using YouTube as the search source.
func NewSearchQuery(input string) *SearchQuery {
	return NewSearchQueryWithSource(input, SourceYouTube)
}

// NewSearchQueryWithSource classifies user input with a specific search source.
// A watch URL that also carries a list parameter is treated as a playlist.
func NewSearchQueryWithSource(input string, source SearchSource) *SearchQuery {
	input = strings.TrimSpace(input)

	switch {
	case youtubePlaylistPattern.MatchString(input):
		return &SearchQuery{Query: input, Kind: QueryKindPlaylist, Source: source}
	case isURL(input):
		return &SearchQuery{Query: input, Kind: QueryKindSingle, Source: source}
	default:
		return &SearchQuery{Query: input, Kind: QueryKindSearch, Source: source}
	}
}

// IsURL reports whether the query refers to a URL rather than free text.
func (q *SearchQuery) IsURL() bool {
	return q.Kind != QueryKindSearch
}

// LavalinkQuery returns the query string formatted for Lavalink.
func (q *SearchQuery) LavalinkQuery() string {
	if q.IsURL() {
		return q.Query
	}
	return string(q.Source) + ":" + q.Query
}

// IsValid returns true if the query is not empty.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

func isURL(input string) bool {
	if strings.HasPrefix(input, "www.") {
		return true
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return false
	}
	u, err := url.Parse(input)
	return err == nil && u.Host != ""
}
