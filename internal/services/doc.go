// Package services resolves a user-supplied playlist reference into an ordered list of [models.Track].
//
// # Adapters
//
// [YouTubeAdapter] runs an external enumerator (yt-dlp by default) with a flat playlist dump
// and reads one JSON record per line from its stdout. Each record's url becomes the track's reference.
//
// [SpotifyAdapter] obtains an anonymous bearer token from a [TokenProvider] and lists a playlist's
// items through the Web API. Each track becomes a search query ("Artist A, Artist B – Title").
//
// # Dispatch
//
// [Dispatcher] classifies a reference with [Classify] and routes it to the matching adapter.
// Nothing is cached or retried; every call builds a fresh [models.PlaylistResolution].
//
// # Error Handling
//
// Adapter failures are one of four types, returned unwrapped:
//   - [TransportError] : network call could not complete
//   - [ExternalToolError] : enumerator exited non-zero (raw stderr kept)
//   - [DeserializationError] : bytes received did not parse
//   - [APIResponseError] : non-success status or unexpected body from the Web API
//
// [KindOf] maps any of them, wrapped or not, to an [ErrorKind].
package services
