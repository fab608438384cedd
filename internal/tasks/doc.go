// Package tasks runs chat commands against the playlist resolver, the permission store and the player.
//
// # Core Operations
//
// [QueueEngine] exposes one method per command:
//
//  1. [QueueEngine.QueuePlaylist] : resolve a YouTube or Spotify playlist and enqueue it
//     - Requires the user tier
//     - Classifies the reference when no source is given
//     - Hands every track's reference to the [Player] in playlist order
//
//  2. [QueueEngine.Stop] and [QueueEngine.Volume] : playback control, DJ tier to change anything
//
//  3. [QueueEngine.SetPermission], [QueueEngine.RemovePermission], [QueueEngine.ListPermissions] : admin tier
//
//  4. [QueueEngine.BulkExport] : resolve many references with a worker pool and write each to a file
//
// # Chat Surface
//
// [ParseCommand] turns prefixed chat text into a [Command]; [QueueEngine.Handle] runs it and returns the reply.
// [UserMessage] maps every error kind to a distinct reply so users can tell a failed downloader
// from an unreachable API or a missing permission.
//
// # Progress Reporting
//
// Operations that take a progress channel send [ProgressUpdate] values with select/default, so a slow
// or absent reader never blocks the command.
//
// # Implementation
//
// [QueueEngine] depends on:
//   - [PlaylistResolver] : services.Dispatcher
//   - [PermStore] : repositories.PermRepository
//   - [Player] : a voice backend, or [MemoryPlayer] for the console and tests
package tasks
