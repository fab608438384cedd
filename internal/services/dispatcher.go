package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyURIPrefix = "spotify:playlist:"

var spotifyIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// DispatcherOpts configures a [Dispatcher].
type DispatcherOpts struct {
	YouTube Resolver
	Spotify Resolver
	Limiter *rate.Limiter // Paces outbound resolutions; nil disables pacing
	Timeout time.Duration // Per-call deadline; zero disables it
	Logger  *log.Logger
}

// Dispatcher routes a reference to the adapter for its source.
//
// It keeps no state between calls and is safe for concurrent use.
type Dispatcher struct {
	youtube Resolver
	spotify Resolver
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
}

func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		youtube: opts.YouTube,
		spotify: opts.Spotify,
		limiter: opts.Limiter,
		timeout: opts.Timeout,
		logger:  logger,
	}
}

// Classify detects which source a reference belongs to.
//
// YouTube references are returned unchanged. Spotify references are reduced to the bare playlist ID.
func Classify(reference string) (models.Source, string) {
	ref := strings.Trim(strings.TrimSpace(reference), "<>")
	if id, ok := SpotifyPlaylistID(ref); ok {
		return models.SourceSpotify, id
	}
	if IsYouTubePlaylist(ref) {
		return models.SourceYouTube, ref
	}
	return models.SourceUnknown, ref
}

// SpotifyPlaylistID extracts the playlist ID from a bare ID, a spotify: URI, or an open.spotify.com link.
func SpotifyPlaylistID(ref string) (string, bool) {
	id := ref
	switch {
	case strings.HasPrefix(ref, spotifyURIPrefix):
		id = strings.TrimPrefix(ref, spotifyURIPrefix)
	case strings.Contains(ref, "://"):
		u, err := url.Parse(ref)
		if err != nil || !strings.EqualFold(u.Hostname(), "open.spotify.com") {
			return "", false
		}

		id = ""
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(segments); i++ {
			if segments[i] == "playlist" {
				id = segments[i+1]
				break
			}
		}
	}

	if !spotifyIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// IsYouTubePlaylist reports whether ref is an http(s) YouTube link naming a playlist.
func IsYouTubePlaylist(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !youtubeHosts[host] {
		return false
	}
	return u.Query().Get("list") != ""
}

// Resolve classifies reference and resolves it with the matching adapter.
func (d *Dispatcher) Resolve(ctx context.Context, reference string) (*models.PlaylistResolution, error) {
	source, normalized := Classify(reference)
	if source == models.SourceUnknown {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedReference, reference)
	}
	return d.ResolveAs(ctx, source, normalized)
}

// ResolveAs resolves reference with the adapter for source, skipping classification.
//
// Adapter errors are returned unwrapped so callers can switch on their type.
func (d *Dispatcher) ResolveAs(ctx context.Context, source models.Source, reference string) (*models.PlaylistResolution, error) {
	var resolver Resolver
	switch source {
	case models.SourceYouTube:
		resolver = d.youtube
	case models.SourceSpotify:
		resolver = d.spotify
		if id, ok := SpotifyPlaylistID(strings.TrimSpace(reference)); ok {
			reference = id
		}
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedReference, reference)
	}

	if resolver == nil {
		return nil, fmt.Errorf("%w: no %s resolver configured", shared.ErrServiceUnavailable, source)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			// Wait fails early, without a context error, when the delay would outlast the deadline.
			if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	logger := d.logger.With("source", source, "resolver", resolver.Name())
	start := time.Now()

	tracks, err := resolver.Resolve(ctx, reference)
	if err != nil {
		logger.Warn("resolution failed", "reference", reference, "kind", KindOf(err), "error", err)
		return nil, err
	}

	logger.Info("resolved playlist", "reference", reference, "tracks", len(tracks), "elapsed", time.Since(start))
	return &models.PlaylistResolution{Source: source, Reference: reference, Tracks: tracks}, nil
}
