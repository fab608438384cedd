package services

import (
	"context"

	"github.com/desertthunder/jukebox/internal/models"
)

// Resolver turns one playlist reference into an ordered sequence of tracks.
type Resolver interface {
	// Resolve returns the playlist's tracks in source order.
	// Failures are one of the typed errors in this package, unwrapped.
	Resolve(ctx context.Context, reference string) ([]models.Track, error)

	// Name returns the name of the provider (e.g., "Spotify", "YouTube")
	Name() string
}

var (
	_ Resolver = (*YouTubeAdapter)(nil)
	_ Resolver = (*SpotifyAdapter)(nil)
)
