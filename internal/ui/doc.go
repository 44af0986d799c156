// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view playback workflow:
//  1. [StationListView] : Browse and tune to a station
//  2. [NowPlayingView] : Current track, position, rating, and volume
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. It never touches the network or the audio device: keystrokes become
// playback commands sent to the engine, and engine status snapshots flow back
// over a channel, so the interface stays responsive while the engine blocks on
// downloads or authentication.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) plus
// playback keys (space, n, +/-, u, d, c, t) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
