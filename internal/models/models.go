// package models defines the data model shared by the resolvers, the permission store and the command layer
package models

import (
	"fmt"
	"slices"
	"strings"
)

// searchSeparator joins artists and title in a composed search query.
const searchSeparator = " – "

// Source tags the kind of playlist reference a user supplied.
type Source int

const (
	SourceUnknown Source = iota
	SourceYouTube
	SourceSpotify
)

func (s Source) String() string {
	switch s {
	case SourceYouTube:
		return "youtube"
	case SourceSpotify:
		return "spotify"
	default:
		return "unknown"
	}
}

// MarshalText encodes the source by name.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSource maps a user-facing name ("youtube", "yt", "spotify", "sp", "auto") to a [Source].
//
// "auto" and "" return [SourceUnknown], meaning the caller should classify the reference itself.
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return SourceUnknown, nil
	case "youtube", "yt":
		return SourceYouTube, nil
	case "spotify", "sp":
		return SourceSpotify, nil
	default:
		return SourceUnknown, fmt.Errorf("unknown source %q", name)
	}
}

// Track is one playable unit.
type Track struct {
	Title     string   `json:"title,omitempty"`
	Artists   []string `json:"artists,omitempty"`
	Reference string   `json:"reference"` // Direct media URL or search query
}

// NewURLTrack builds a track whose reference is a direct media URL.
//
// Flat enumeration does not fetch per-track metadata, so Title and Artists stay empty.
// ok is false when the URL is blank and the record must be dropped.
func NewURLTrack(url string) (Track, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Track{}, false
	}
	return Track{Reference: url}, true
}

// NewSearchTrack builds a track whose reference is a search query composed from its metadata.
//
// ok is false when the title is blank and the record must be dropped. An empty artist list is valid.
func NewSearchTrack(title string, artists []string) (Track, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Track{}, false
	}

	return Track{
		Title:     title,
		Artists:   slices.Clone(artists),
		Reference: SearchQuery(title, artists),
	}, true
}

// SearchQuery composes "artist, artist – title", or the bare title when there are no artists.
// Blank artist names are left out of the query; Track.Artists keeps them as the provider sent them.
func SearchQuery(title string, artists []string) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		return title
	}
	return strings.Join(names, ", ") + searchSeparator + title
}

// Label returns a display name for the track, falling back to its reference.
func (t Track) Label() string {
	if t.Title == "" {
		return t.Reference
	}
	return SearchQuery(t.Title, t.Artists)
}

// PlaylistResolution is the ordered output of one resolution call.
//
// It is built fresh for every request and handed wholly to the caller.
type PlaylistResolution struct {
	Source    Source  `json:"source"`
	Reference string  `json:"reference"`
	Tracks    []Track `json:"tracks"`
}

// Len returns the number of resolved tracks.
func (r *PlaylistResolution) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Tracks)
}

// References returns the playable references in playback order.
func (r *PlaylistResolution) References() []string {
	if r == nil {
		return nil
	}
	refs := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		refs[i] = t.Reference
	}
	return refs
}
