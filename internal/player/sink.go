package player

import "time"

// Sink is the audio output device boundary. Implementations decode a cached
// audio blob and produce sound; the engine only commands them and listens
// for the asynchronous finished signal.
type Sink interface {
	// Load decodes data and prepares it for playback, paused at the start.
	// Fails with [shared.ErrDecodeFailed] on corrupt or unsupported audio.
	Load(data []byte, format string) error

	// Play starts or resumes output of the loaded track.
	Play()

	// Pause suspends output without losing position.
	Pause()

	// SetVolume applies an output volume in [0.0, 1.0].
	SetVolume(v float64)

	// Stop halts output and discards the loaded track. A stopped track
	// never emits a finished signal.
	Stop()

	// Position reports elapsed playback time of the loaded track.
	Position() time.Duration

	// Finished yields one signal per track that plays to natural completion.
	Finished() <-chan struct{}
}
