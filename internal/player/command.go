package player

import (
	"time"

	"github.com/desertthunder/aria/internal/models"
)

// CommandKind enumerates the playback commands accepted from the UI layer.
type CommandKind int

const (
	CmdSelectStation CommandKind = iota
	CmdPause
	CmdResume
	CmdTogglePause
	CmdVolumeUp
	CmdVolumeDown
	CmdSetVolume
	CmdSkip
	CmdTired
	CmdThumbsUp
	CmdThumbsDown
	CmdClearRating
	CmdQuit
)

// Command is one playback instruction from the UI layer.
type Command struct {
	Kind      CommandKind
	StationID string  // CmdSelectStation
	Volume    float64 // CmdSetVolume
}

// SelectStation builds a station-switch command.
func SelectStation(stationID string) Command {
	return Command{Kind: CmdSelectStation, StationID: stationID}
}

// SetVolume builds an absolute volume command.
func SetVolume(v float64) Command {
	return Command{Kind: CmdSetVolume, Volume: v}
}

// State enumerates the playback engine's states.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is one snapshot emitted on the status channel after every state
// change and periodically during playback.
type Status struct {
	State    State
	Station  *models.Station
	Track    *models.Track
	Position time.Duration
	Volume   float64
	// Notice carries a transient connectivity message; empty when healthy.
	Notice string
	// Session is the session manager's lifecycle state, as a string.
	Session string
}
