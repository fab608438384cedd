// Package models defines the data shapes shared across jukebox.
//
// Playlist resolution:
//   - [Track] : one playable unit; its Reference is either a direct media URL (YouTube) or a composed search query (Spotify)
//   - [PlaylistResolution] : the ordered tracks produced by one resolution call
//   - [Source] : the computed tag selecting which resolver handles a reference
//
// Permissions:
//   - [PermLevel] : the four-level tier enum (none, user, dj, admin)
//   - [Permission] : a stored (guild, user, tier) row
//
// Constructors [NewURLTrack] and [NewSearchTrack] report ok=false for records that cannot produce a usable reference;
// callers drop those records instead of emitting empty tracks.
//
// [MustPermLevel] panics on out-of-range stored values. Those indicate corrupt data, not user error;
// user input goes through [ParsePermLevel] instead.
package models
