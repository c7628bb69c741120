package domain

import (
	"strings"
)

// SearchSource is a Lavalink search prefix.
type SearchSource string

const (
	SourceYouTube      SearchSource = "ytsearch"
	SourceYouTubeMusic SearchSource = "ytmsearch"
	SourceSoundCloud   SearchSource = "scsearch"
	// SourceDirect marks a URL, which is loaded without a prefix.
	SourceDirect SearchSource = ""
)

var prefixedSources = []SearchSource{SourceYouTube, SourceYouTubeMusic, SourceSoundCloud}

// SearchQuery is user input normalised for the audio backend.
type SearchQuery struct {
	Query  string
	Source SearchSource
	IsURL  bool
}

// NewSearchQuery normalises user input.
//   - A URL, optionally wrapped in <> to suppress Discord's embed, is loaded directly.
//   - An explicit ytsearch:, ytmsearch: or scsearch: prefix selects that source.
//   - Anything else is a YouTube search.
func NewSearchQuery(input string) *SearchQuery {
	input = strings.TrimSpace(input)
	if unwrapped, ok := strings.CutPrefix(input, "<"); ok {
		if unwrapped, ok := strings.CutSuffix(unwrapped, ">"); ok {
			input = strings.TrimSpace(unwrapped)
		}
	}

	if looksLikeURL(input) {
		return &SearchQuery{Query: input, Source: SourceDirect, IsURL: true}
	}

	lower := strings.ToLower(input)
	for _, source := range prefixedSources {
		prefix := string(source) + ":"
		if strings.HasPrefix(lower, prefix) {
			return &SearchQuery{Query: strings.TrimSpace(input[len(prefix):]), Source: source}
		}
	}

	return &SearchQuery{Query: input, Source: SourceYouTube}
}

// LavalinkQuery returns the identifier to pass to Lavalink's loadtracks.
func (q *SearchQuery) LavalinkQuery() string {
	if q.IsURL {
		return q.Query
	}
	return string(q.Source) + ":" + q.Query
}

// IsValid reports whether anything is left to search for.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

func looksLikeURL(s string) bool {
	for _, prefix := range []string{"http://", "https://", "www."} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
