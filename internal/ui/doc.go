// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI previews a playlist before queueing it:
//  1. [InputView] : Enter a YouTube or Spotify playlist reference
//  2. [ResolvingView] : Spinner while the reference resolves
//  3. [TrackListView] : Browse and filter the resolved tracks
//  4. [ConfirmView] : Confirm the queue operation
//  5. [QueueView] : Monitor progress updates from the QueueEngine
//  6. [ResultView] : Display the queued count or a user-facing error
//
// Progress updates flow through a channel from tasks.QueueEngine and are drained one per message,
// so the engine never blocks on a slow terminal.
package ui
