package player

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/aria/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	speakerBufferSize = 100 * time.Millisecond
	// Floor of the volume curve, in Base-2 volume units.
	minVolume = -8.0
)

// BeepSink plays cached audio through the system speaker.
type BeepSink struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	gen         atomic.Int64
	finished    chan struct{}
}

// NewBeepSink creates an idle sink. The speaker device is initialized
// lazily on the first Load.
func NewBeepSink() *BeepSink {
	return &BeepSink{level: 0.8, finished: make(chan struct{}, 1)}
}

// Finished yields one signal per track that plays to completion.
func (s *BeepSink) Finished() <-chan struct{} {
	return s.finished
}

// Load decodes an audio blob and queues it on the speaker, paused.
func (s *BeepSink) Load(data []byte, format string) error {
	switch format {
	case "mp3", "":
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrDecodeFailed, format)
	}

	streamer, f, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecodeFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		if err := speaker.Init(f.SampleRate, f.SampleRate.N(speakerBufferSize)); err != nil {
			streamer.Close()
			return fmt.Errorf("%w: speaker init: %v", shared.ErrDecodeFailed, err)
		}
		s.sampleRate = f.SampleRate
		s.initialized = true
	}

	s.stopLocked()

	var source beep.Streamer = streamer
	if f.SampleRate != s.sampleRate {
		source = beep.Resample(4, f.SampleRate, s.sampleRate, streamer)
	}

	s.streamer = streamer
	s.format = f
	s.volume = &effects.Volume{
		Streamer: source,
		Base:     2,
		Volume:   volumeExponent(s.level),
		Silent:   s.level <= 0,
	}
	s.ctrl = &beep.Ctrl{Streamer: s.volume, Paused: true}

	gen := s.gen.Add(1)
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		s.trackDone(gen)
	})))
	return nil
}

// Play starts or resumes output.
func (s *BeepSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

// Pause suspends output without losing position.
func (s *BeepSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// SetVolume applies a volume in [0.0, 1.0] immediately.
func (s *BeepSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = v
	if s.volume == nil {
		return
	}
	speaker.Lock()
	s.volume.Volume = volumeExponent(v)
	s.volume.Silent = v <= 0
	speaker.Unlock()
}

// Stop halts output and discards the loaded track.
func (s *BeepSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *BeepSink) stopLocked() {
	// Bumping the generation invalidates any finished callback still queued
	// on the speaker goroutine.
	s.gen.Add(1)
	if !s.initialized {
		return
	}
	speaker.Clear()
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.volume = nil
}

// Position reports elapsed playback time of the loaded track.
func (s *BeepSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

// trackDone runs on the speaker goroutine; it must not take s.mu, because
// Stop holds s.mu while acquiring the speaker lock.
func (s *BeepSink) trackDone(gen int64) {
	if gen != s.gen.Load() {
		return
	}
	select {
	case s.finished <- struct{}{}:
	default:
	}
}

// volumeExponent maps a linear [0, 1] volume onto a perceptual curve in
// Base-2 volume units, 1.0 being unity gain.
func volumeExponent(v float64) float64 {
	if v >= 1 {
		return 0
	}
	if v <= 0 {
		return minVolume
	}
	return (1 - math.Sqrt(v)) * minVolume
}
