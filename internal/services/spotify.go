// Spotify Web API playlist tracks
//
// Response shape based on https://developer.spotify.com/documentation/web-api/reference/get-playlists-tracks
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"golang.org/x/oauth2"
)

// DefaultSpotifyAPIURL is the Web API origin; paths are appended to it.
const DefaultSpotifyAPIURL = "https://api.spotify.com"

var errMissingItems = errors.New("response has no items")

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
}

type spotifyPlaylistItem struct {
	Track *spotifyTrack `json:"track"`
}

type spotifyPlaylistTracks struct {
	Items []spotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
	Total int                   `json:"total"`
}

// Pagination decides whether another page of playlist items is requested.
type Pagination interface {
	// Follow reports whether the page at next should be fetched after pages pages were consumed.
	Follow(pages int, next string) bool
}

// FirstPageOnly consumes the first page and ignores the rest of the playlist.
type FirstPageOnly struct{}

func (FirstPageOnly) Follow(int, string) bool { return false }

// FollowPages follows next links until Max pages were consumed. Max <= 0 means no limit.
type FollowPages struct {
	Max int
}

func (p FollowPages) Follow(pages int, next string) bool {
	return next != "" && (p.Max <= 0 || pages < p.Max)
}

// PaginationFor maps the max_pages setting to a [Pagination].
func PaginationFor(maxPages int) Pagination {
	if maxPages == 1 {
		return FirstPageOnly{}
	}
	return FollowPages{Max: maxPages}
}

// SpotifyOpts configures a [SpotifyAdapter]. Zero values select defaults.
type SpotifyOpts struct {
	Client     *http.Client
	Tokens     TokenProvider
	BaseURL    string
	Pagination Pagination
	Logger     *log.Logger
}

// SpotifyAdapter lists a playlist's tracks through the Web API.
type SpotifyAdapter struct {
	client  *http.Client
	tokens  TokenProvider
	baseURL string
	pages   Pagination
	logger  *log.Logger
}

func NewSpotifyAdapter(opts SpotifyOpts) *SpotifyAdapter {
	s := &SpotifyAdapter{
		client:  opts.Client,
		tokens:  opts.Tokens,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		pages:   opts.Pagination,
		logger:  opts.Logger,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.tokens == nil {
		s.tokens = NewTokenFetcher(s.client, DefaultTokenURL, s.logger)
	}
	if s.baseURL == "" {
		s.baseURL = DefaultSpotifyAPIURL
	}
	if s.pages == nil {
		s.pages = FirstPageOnly{}
	}
	return s
}

func (s *SpotifyAdapter) Name() string { return "Spotify" }

// Resolve fetches a token, then the playlist's items, and maps each to a search track.
//
// Token errors are returned as-is and no playlist request is made.
func (s *SpotifyAdapter) Resolve(ctx context.Context, playlistID string) ([]models.Track, error) {
	token, err := s.tokens.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	client := s.authorized(token)
	endpoint := fmt.Sprintf("%s/v1/playlists/%s/tracks", s.baseURL, url.PathEscape(playlistID))

	tracks := []models.Track{}
	for pages := 1; ; pages++ {
		page, err := s.fetchPage(ctx, client, endpoint)
		if err != nil {
			return nil, err
		}

		for i, item := range page.Items {
			if item.Track == nil {
				s.logger.Debug("dropping item without track", "index", i, "page", pages)
				continue
			}

			artists := make([]string, 0, len(item.Track.Artists))
			for _, a := range item.Track.Artists {
				artists = append(artists, a.Name)
			}

			track, ok := models.NewSearchTrack(item.Track.Name, artists)
			if !ok {
				s.logger.Debug("dropping track without name", "index", i, "page", pages)
				continue
			}
			tracks = append(tracks, track)
		}

		var next string
		if page.Next != nil {
			next = *page.Next
		}
		if !s.pages.Follow(pages, next) {
			break
		}

		if !s.sameOrigin(next) {
			s.logger.Warn("not following next page on foreign host", "next", next)
			break
		}
		endpoint = next
	}

	return tracks, nil
}

// authorized wraps the injected client's transport so every request carries token.
func (s *SpotifyAdapter) authorized(token *oauth2.Token) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   s.client.Transport,
		},
		CheckRedirect: s.client.CheckRedirect,
		Jar:           s.client.Jar,
		Timeout:       s.client.Timeout,
	}
}

func (s *SpotifyAdapter) fetchPage(ctx context.Context, client *http.Client, endpoint string) (*spotifyPlaylistTracks, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "playlist tracks", URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "playlist tracks", URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "playlist tracks", URL: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIResponseError{URL: endpoint, StatusCode: resp.StatusCode, Body: body}
	}

	var page spotifyPlaylistTracks
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &APIResponseError{URL: endpoint, StatusCode: resp.StatusCode, Body: body, Err: err}
	}
	if page.Items == nil {
		return nil, &APIResponseError{URL: endpoint, StatusCode: resp.StatusCode, Body: body, Err: errMissingItems}
	}
	return &page, nil
}

func (s *SpotifyAdapter) sameOrigin(next string) bool {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == base.Scheme && u.Host == base.Host
}
