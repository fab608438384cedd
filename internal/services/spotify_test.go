package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
	tu "github.com/desertthunder/jukebox/internal/testing"
)

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

const playlistBody = `{
	"items": [
		{"track": {"name": "Song A", "artists": [{"name": "First"}, {"name": "Second"}]}},
		{"track": null},
		{"track": {"name": "Song B", "artists": []}},
		{"track": {"name": "", "artists": [{"name": "Nobody"}]}},
		{"track": {"name": "Song C", "artists": [{"name": "Third"}]}}
	],
	"next": null,
	"total": 5
}`

// spotifyStub serves the token endpoint and the playlist tracks endpoint and counts calls to each.
type spotifyStub struct {
	tokenBody     string
	tokenStatus   int
	tracksBody    string
	tracksStatus  int
	tokenCalls    atomic.Int32
	tracksCalls   atomic.Int32
	authorization atomic.Value
}

func (s *spotifyStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_access_token", func(w http.ResponseWriter, r *http.Request) {
		n := s.tokenCalls.Add(1)
		status := s.tokenStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if s.tokenBody != "" {
			io.WriteString(w, s.tokenBody)
			return
		}
		fmt.Fprintf(w, `{"clientId":"c","accessToken":"token-%d","isAnonymous":true}`, n)
	})
	mux.HandleFunc("GET /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		s.tracksCalls.Add(1)
		s.authorization.Store(r.Header.Get("Authorization"))
		status := s.tracksStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		io.WriteString(w, s.tracksBody)
	})
	return mux
}

func newSpotifyFixture(t *testing.T, stub *spotifyStub) (*SpotifyAdapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client := srv.Client()
	adapter := NewSpotifyAdapter(SpotifyOpts{
		Client:  client,
		Tokens:  NewTokenFetcher(client, srv.URL+"/get_access_token", quietLogger()),
		BaseURL: srv.URL,
		Logger:  quietLogger(),
	})
	return adapter, srv
}

func TestTokenFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		f := NewTokenFetcher(nil, "", nil)
		if f.url != DefaultTokenURL {
			t.Errorf("expected %s, got %s", DefaultTokenURL, f.url)
		}
		if f.client != http.DefaultClient {
			t.Error("expected default client")
		}
	})

	t.Run("Success", func(t *testing.T) {
		stub := &spotifyStub{tokenBody: `{"accessToken":"abc","accessTokenExpirationTimestampMs":1}`}
		srv := httptest.NewServer(stub.handler())
		defer srv.Close()

		token, err := NewTokenFetcher(srv.Client(), srv.URL+"/get_access_token", quietLogger()).Fetch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "abc" {
			t.Errorf("expected token 'abc', got %s", token.AccessToken)
		}
		if token.Type() != "Bearer" {
			t.Errorf("expected Bearer type, got %s", token.Type())
		}
		if !token.Expiry.IsZero() {
			t.Errorf("expected zero expiry, got %v", token.Expiry)
		}
	})

	t.Run("Non-JSON Body", func(t *testing.T) {
		stub := &spotifyStub{tokenBody: "<html>nope</html>", tokenStatus: http.StatusServiceUnavailable}
		srv := httptest.NewServer(stub.handler())
		defer srv.Close()

		_, err := NewTokenFetcher(srv.Client(), srv.URL+"/get_access_token", quietLogger()).Fetch(ctx)

		var decodeErr *DeserializationError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected DeserializationError, got %T: %v", err, err)
		}
		if decodeErr.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", decodeErr.StatusCode)
		}
		if string(decodeErr.Body) != "<html>nope</html>" {
			t.Errorf("expected raw body, got %q", decodeErr.Body)
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		stub := &spotifyStub{tokenBody: `{"error":{"code":401,"message":"Unauthorized"}}`}
		srv := httptest.NewServer(stub.handler())
		defer srv.Close()

		_, err := NewTokenFetcher(srv.Client(), srv.URL+"/get_access_token", quietLogger()).Fetch(ctx)
		if !errors.Is(err, errMissingAccessToken) {
			t.Errorf("expected missing token error, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		_, err := NewTokenFetcher(client, "http://token.invalid/get_access_token", quietLogger()).Fetch(ctx)
		if KindOf(err) != KindTransport {
			t.Errorf("expected transport error, got %T: %v", err, err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		_, err := NewTokenFetcher(client, "http://token.invalid/get_access_token", quietLogger()).Fetch(ctx)

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if transportErr.Op != "token" {
			t.Errorf("expected op 'token', got %s", transportErr.Op)
		}
	})
}

func TestSpotifyAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyAdapter", func(t *testing.T) {
		s := NewSpotifyAdapter(SpotifyOpts{})
		if s.baseURL != DefaultSpotifyAPIURL {
			t.Errorf("expected %s, got %s", DefaultSpotifyAPIURL, s.baseURL)
		}
		if _, ok := s.pages.(FirstPageOnly); !ok {
			t.Errorf("expected first page only pagination, got %T", s.pages)
		}
		if _, ok := s.tokens.(*TokenFetcher); !ok {
			t.Errorf("expected token fetcher, got %T", s.tokens)
		}
		if s.Name() != "Spotify" {
			t.Errorf("expected name 'Spotify', got %s", s.Name())
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		t.Run("Items Map To Tracks In Order", func(t *testing.T) {
			stub := &spotifyStub{tracksBody: playlistBody}
			adapter, _ := newSpotifyFixture(t, stub)

			tracks, err := adapter.Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []string{"First, Second – Song A", "Song B", "Third – Song C"}
			if len(tracks) != len(want) {
				t.Fatalf("expected %d tracks, got %d: %+v", len(want), len(tracks), tracks)
			}
			for i, tr := range tracks {
				if tr.Reference != want[i] {
					t.Errorf("track %d: expected %q, got %q", i, want[i], tr.Reference)
				}
			}
			if !slices.Equal(tracks[0].Artists, []string{"First", "Second"}) {
				t.Errorf("expected artists in provider order, got %v", tracks[0].Artists)
			}
			if tracks[1].Title != "Song B" || len(tracks[1].Artists) != 0 {
				t.Errorf("unexpected artistless track %+v", tracks[1])
			}
		})

		t.Run("Artist Names Kept As Sent", func(t *testing.T) {
			body := `{"items":[{"track":{"name":"Song","artists":[{"name":"A"},{"name":""},{"name":"  B "}]}}]}`
			adapter, _ := newSpotifyFixture(t, &spotifyStub{tracksBody: body})

			tracks, err := adapter.Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(tracks))
			}
			if want := []string{"A", "", "  B "}; !slices.Equal(tracks[0].Artists, want) {
				t.Errorf("expected artists %q, got %q", want, tracks[0].Artists)
			}
			if tracks[0].Reference != "A, B – Song" {
				t.Errorf("expected 'A, B – Song', got %q", tracks[0].Reference)
			}
		})

		t.Run("Bearer Token Attached", func(t *testing.T) {
			stub := &spotifyStub{tracksBody: `{"items":[]}`}
			adapter, _ := newSpotifyFixture(t, stub)

			if _, err := adapter.Resolve(ctx, testPlaylistID); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := stub.authorization.Load(); got != "Bearer token-1" {
				t.Errorf("expected 'Bearer token-1', got %v", got)
			}
		})

		t.Run("Token Failure Skips Playlist Request", func(t *testing.T) {
			stub := &spotifyStub{tokenBody: "definitely not json", tracksBody: playlistBody}
			adapter, _ := newSpotifyFixture(t, stub)

			tracks, err := adapter.Resolve(ctx, testPlaylistID)
			if tracks != nil {
				t.Errorf("expected no tracks, got %v", tracks)
			}
			if KindOf(err) != KindDeserialization {
				t.Errorf("expected deserialization error, got %T: %v", err, err)
			}
			if n := stub.tracksCalls.Load(); n != 0 {
				t.Errorf("expected no playlist request, got %d", n)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			stub := &spotifyStub{
				tracksStatus: http.StatusNotFound,
				tracksBody:   `{"error":{"status":404,"message":"Not found."}}`,
			}
			adapter, _ := newSpotifyFixture(t, stub)

			_, err := adapter.Resolve(ctx, testPlaylistID)

			var apiErr *APIResponseError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIResponseError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", apiErr.StatusCode)
			}
			if string(apiErr.Body) != stub.tracksBody {
				t.Errorf("expected raw body, got %q", apiErr.Body)
			}
		})

		t.Run("Unexpected Body Shape", func(t *testing.T) {
			for _, body := range []string{`{"items": {"track": 1}}`, `{"total": 3}`, `garbage`} {
				stub := &spotifyStub{tracksBody: body}
				adapter, _ := newSpotifyFixture(t, stub)

				_, err := adapter.Resolve(ctx, testPlaylistID)
				if KindOf(err) != KindAPIResponse {
					t.Errorf("body %q: expected API response error, got %T: %v", body, err, err)
				}
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			stub := &spotifyStub{}
			srv := httptest.NewServer(stub.handler())
			defer srv.Close()

			failing := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: timeout"))}
			adapter := NewSpotifyAdapter(SpotifyOpts{
				Client:  failing,
				Tokens:  NewTokenFetcher(srv.Client(), srv.URL+"/get_access_token", quietLogger()),
				BaseURL: srv.URL,
				Logger:  quietLogger(),
			})

			_, err := adapter.Resolve(ctx, testPlaylistID)

			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %T: %v", err, err)
			}
			if transportErr.Op != "playlist tracks" {
				t.Errorf("expected op 'playlist tracks', got %s", transportErr.Op)
			}
		})

		t.Run("Idempotent", func(t *testing.T) {
			stub := &spotifyStub{tracksBody: playlistBody}
			adapter, _ := newSpotifyFixture(t, stub)

			first, err := adapter.Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			second, err := adapter.Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !slices.EqualFunc(first, second, func(a, b models.Track) bool { return a.Reference == b.Reference }) {
				t.Errorf("expected identical tracks, got %v and %v", first, second)
			}
			if n := stub.tokenCalls.Load(); n != 2 {
				t.Errorf("expected a fresh token per call, got %d token requests", n)
			}
		})
	})

	t.Run("Pagination", func(t *testing.T) {
		pagedServer := func(t *testing.T, pages int) (*httptest.Server, *atomic.Int32) {
			var calls atomic.Int32
			var srv *httptest.Server
			mux := http.NewServeMux()
			mux.HandleFunc("GET /get_access_token", func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"accessToken":"paged"}`)
			})
			mux.HandleFunc("GET /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				page := 1
				fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

				next := "null"
				if page < pages {
					next = fmt.Sprintf("%q", fmt.Sprintf("%s/v1/playlists/%s/tracks?page=%d", srv.URL, r.PathValue("id"), page+1))
				}
				fmt.Fprintf(w, `{"items":[{"track":{"name":"Song %d","artists":[]}}],"next":%s}`, page, next)
			})
			srv = httptest.NewServer(mux)
			t.Cleanup(srv.Close)
			return srv, &calls
		}

		newPaged := func(srv *httptest.Server, p Pagination) *SpotifyAdapter {
			return NewSpotifyAdapter(SpotifyOpts{
				Client:     srv.Client(),
				Tokens:     NewTokenFetcher(srv.Client(), srv.URL+"/get_access_token", quietLogger()),
				BaseURL:    srv.URL,
				Pagination: p,
				Logger:     quietLogger(),
			})
		}

		t.Run("First Page Only", func(t *testing.T) {
			srv, calls := pagedServer(t, 3)
			tracks, err := newPaged(srv, FirstPageOnly{}).Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 || calls.Load() != 1 {
				t.Errorf("expected 1 track from 1 request, got %d tracks from %d", len(tracks), calls.Load())
			}
		})

		t.Run("Follow All Pages", func(t *testing.T) {
			srv, calls := pagedServer(t, 3)
			tracks, err := newPaged(srv, FollowPages{}).Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := []string{}
			for _, tr := range tracks {
				got = append(got, tr.Reference)
			}
			if want := []string{"Song 1", "Song 2", "Song 3"}; !slices.Equal(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
			if calls.Load() != 3 {
				t.Errorf("expected 3 requests, got %d", calls.Load())
			}
		})

		t.Run("Follow Up To Max", func(t *testing.T) {
			srv, calls := pagedServer(t, 5)
			tracks, err := newPaged(srv, FollowPages{Max: 2}).Resolve(ctx, testPlaylistID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 2 || calls.Load() != 2 {
				t.Errorf("expected 2 tracks from 2 requests, got %d tracks from %d", len(tracks), calls.Load())
			}
		})

		t.Run("PaginationFor", func(t *testing.T) {
			if _, ok := PaginationFor(1).(FirstPageOnly); !ok {
				t.Error("expected first page only for 1")
			}
			if p, ok := PaginationFor(0).(FollowPages); !ok || p.Max != 0 {
				t.Errorf("expected unlimited follow for 0, got %#v", PaginationFor(0))
			}
			if p, ok := PaginationFor(4).(FollowPages); !ok || p.Max != 4 {
				t.Errorf("expected follow 4 pages, got %#v", PaginationFor(4))
			}
		})

		t.Run("Foreign Next Host Not Followed", func(t *testing.T) {
			adapter := NewSpotifyAdapter(SpotifyOpts{BaseURL: "https://api.spotify.com"})
			if adapter.sameOrigin("https://evil.example.com/v1/playlists/x/tracks") {
				t.Error("expected foreign host to be rejected")
			}
			if !adapter.sameOrigin("https://api.spotify.com/v1/playlists/x/tracks?offset=100") {
				t.Error("expected same host to be accepted")
			}
		})
	})
}
