// package player drives playback: it owns the playlist cursor, sequences
// download → decode → play → feedback, and keeps audio flowing across
// transient service failures.
//
// One goroutine runs the command loop; prefetch downloads and the audio sink
// run on their own and report back over channels. Remote failures never
// escape as fatal errors: per-track failures skip the track, station-level
// failures surface as a status notice while the engine keeps retrying.
package player

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aria/internal/cache"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/prefetch"
	"github.com/desertthunder/aria/internal/services"
	"github.com/desertthunder/aria/internal/session"
	"github.com/desertthunder/aria/internal/shared"
)

const (
	// Wait between playlist-fetch rounds after the bounded retries inside a
	// round are exhausted.
	fetchRetryInterval = 15 * time.Second
	defaultTiredFor    = 30 * 24 * time.Hour
	defaultVolumeStep  = 0.1
	tickInterval       = 500 * time.Millisecond
)

type playlistResult struct {
	gen    int
	tracks []models.Track
	err    error
}

type feedbackRequest struct {
	label string
	op    func(ctx context.Context, session *models.Session) error
}

// Engine is the playback state machine.
type Engine struct {
	sessions *session.Manager
	svc      services.RadioService
	cache    *cache.Cache
	pipeline *prefetch.Pipeline
	sink     Sink
	logger   *log.Logger
	backoff  shared.Backoff

	commands  chan Command
	status    chan Status
	feedback  chan feedbackRequest
	playlists chan playlistResult

	state         State
	station       *models.Station
	catalog       map[string]models.Station
	queue         []models.Track
	volume        float64
	volumeStep    float64
	tired         map[string]time.Time
	tiredFor      time.Duration
	notice        string
	fetchGen      int
	fetchInFlight bool
	retryAt       time.Time
	now           func() time.Time
}

// Opts contains dependencies and tunables for creating an Engine.
type Opts struct {
	Sessions   *session.Manager
	Service    services.RadioService
	Cache      *cache.Cache
	Pipeline   *prefetch.Pipeline
	Sink       Sink
	Logger     *log.Logger
	Backoff    shared.Backoff
	Volume     float64
	VolumeStep float64
	TiredFor   time.Duration
	Catalog    []models.Station // optional, used to name stations in status
}

// New creates an idle engine.
func New(opts Opts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = shared.DefaultBackoff()
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = defaultVolumeStep
	}
	if opts.TiredFor <= 0 {
		opts.TiredFor = defaultTiredFor
	}

	catalog := make(map[string]models.Station, len(opts.Catalog))
	for _, st := range opts.Catalog {
		catalog[st.ID] = st
	}

	return &Engine{
		sessions:   opts.Sessions,
		svc:        opts.Service,
		cache:      opts.Cache,
		pipeline:   opts.Pipeline,
		sink:       opts.Sink,
		logger:     opts.Logger,
		backoff:    opts.Backoff,
		commands:   make(chan Command, 8),
		status:     make(chan Status, 8),
		feedback:   make(chan feedbackRequest, 32),
		playlists:  make(chan playlistResult, 1),
		state:      StateIdle,
		volume:     clampVolume(opts.Volume),
		volumeStep: opts.VolumeStep,
		tired:      make(map[string]time.Time),
		tiredFor:   opts.TiredFor,
		now:        time.Now,
	}
}

// Commands returns the channel the UI layer sends playback commands on.
func (e *Engine) Commands() chan<- Command {
	return e.commands
}

// Status returns the channel status snapshots are emitted on.
func (e *Engine) Status() <-chan Status {
	return e.status
}

// Run drives the command loop until CmdQuit or context cancellation. The
// session manager and track cache are left intact on exit.
func (e *Engine) Run(ctx context.Context) error {
	go e.feedbackWorker(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	e.emit()
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		case cmd := <-e.commands:
			if quit := e.handle(ctx, cmd); quit {
				e.shutdown()
				return nil
			}
		case upd := <-e.pipeline.Updates():
			e.onFetchUpdate(ctx, upd)
		case res := <-e.playlists:
			e.onPlaylist(ctx, res)
		case <-e.sink.Finished():
			e.onFinished(ctx)
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// handle applies one command; returns true on quit.
func (e *Engine) handle(ctx context.Context, cmd Command) bool {
	switch cmd.Kind {
	case CmdSelectStation:
		e.selectStation(ctx, cmd.StationID)

	case CmdPause:
		if e.state == StatePlaying {
			e.sink.Pause()
			e.state = StatePaused
			e.emit()
		}

	case CmdResume:
		if e.state == StatePaused {
			e.sink.Play()
			e.state = StatePlaying
			e.emit()
		}

	case CmdTogglePause:
		switch e.state {
		case StatePlaying:
			e.sink.Pause()
			e.state = StatePaused
			e.emit()
		case StatePaused:
			e.sink.Play()
			e.state = StatePlaying
			e.emit()
		}

	case CmdVolumeUp:
		e.setVolume(e.volume + e.volumeStep)
	case CmdVolumeDown:
		e.setVolume(e.volume - e.volumeStep)
	case CmdSetVolume:
		e.setVolume(cmd.Volume)

	case CmdSkip:
		// Discards the partial playback position; no feedback side effects.
		if e.state == StatePlaying || e.state == StatePaused {
			e.sink.Stop()
			e.advance(ctx)
		}

	case CmdTired:
		e.tireCurrent(ctx)

	case CmdThumbsUp:
		e.rateCurrent(ctx, models.RatingThumbsUp)
	case CmdThumbsDown:
		e.rateCurrent(ctx, models.RatingThumbsDown)
	case CmdClearRating:
		e.rateCurrent(ctx, models.RatingNone)

	case CmdQuit:
		return true
	}
	return false
}

// selectStation stops current output, clears the cursor, and begins loading
// the new station.
func (e *Engine) selectStation(ctx context.Context, stationID string) {
	if e.state == StatePlaying || e.state == StatePaused {
		e.sink.Stop()
	}
	e.pipeline.CancelAll()

	st := models.Station{ID: stationID}
	if known, ok := e.catalog[stationID]; ok {
		st = known
	}

	e.station = &st
	e.queue = nil
	e.notice = ""
	e.retryAt = time.Time{}
	e.fetchGen++ // invalidates any playlist fetch still in flight
	e.fetchInFlight = false
	e.state = StateLoading
	e.emit()
	e.load(ctx)
}

// advance drops the head of the queue and loads the next track.
func (e *Engine) advance(ctx context.Context) {
	if len(e.queue) > 0 {
		e.queue = e.queue[1:]
	}
	e.state = StateLoading
	e.emit()
	e.load(ctx)
}

// load makes whatever progress it can toward Playing: refill the queue,
// keep the prefetch window warm, and start the head track once its audio is
// cached. It never blocks on the network; results arrive over channels.
func (e *Engine) load(ctx context.Context) {
	if e.state != StateLoading || e.station == nil {
		return
	}

	for {
		if len(e.queue) == 0 {
			e.startPlaylistFetch(ctx)
			return
		}

		e.pipeline.EnsureReady(ctx, e.queue)
		e.pinWindow()

		head := e.queue[0]
		data, format, ok := e.cache.Get(head.CacheKey())
		if !ok {
			// Not cached yet; a pipeline update will bring us back here.
			return
		}

		if err := e.sink.Load(data, format); err != nil {
			// Corrupt or unsupported audio: drop the blob and the track.
			e.logger.Warn("skipping undecodable track", "title", head.Title, "err", err)
			e.cache.Remove(head.CacheKey())
			e.queue = e.queue[1:]
			continue
		}

		e.sink.SetVolume(e.volume)
		e.sink.Play()
		e.state = StatePlaying
		e.notice = ""
		e.emit()
		return
	}
}

// startPlaylistFetch launches one bounded-retry fetch round for the current
// station, unless one is already in flight or we are in a cooldown.
func (e *Engine) startPlaylistFetch(ctx context.Context) {
	if e.fetchInFlight || e.station == nil {
		return
	}
	if !e.retryAt.IsZero() && e.now().Before(e.retryAt) {
		return
	}

	e.fetchInFlight = true
	gen := e.fetchGen
	stationID := e.station.ID

	go func() {
		var tracks []models.Track
		retryable := func(err error) bool {
			return errors.Is(err, shared.ErrConnectionFailed) || errors.Is(err, shared.ErrRateLimited)
		}
		err := e.backoff.Retry(ctx, retryable, func() error {
			return e.sessions.Do(ctx, func(ctx context.Context, s *models.Session) error {
				var opErr error
				tracks, opErr = e.svc.GetPlaylist(ctx, s, stationID)
				return opErr
			})
		})

		select {
		case e.playlists <- playlistResult{gen: gen, tracks: tracks, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) onPlaylist(ctx context.Context, res playlistResult) {
	if res.gen != e.fetchGen {
		// Result for a station we already switched away from.
		return
	}
	e.fetchInFlight = false

	if res.err != nil {
		e.logger.Warn("playlist fetch failed", "station", e.station.ID, "err", res.err)
		e.notice = "station unreachable, retrying"
		if errors.Is(res.err, shared.ErrAuthFailed) {
			e.notice = "authentication failed, check credentials"
		}
		e.retryAt = e.now().Add(fetchRetryInterval)
		e.emit()
		return
	}

	fresh := e.filterTired(res.tracks)
	e.queue = append(e.queue, fresh...)
	e.retryAt = time.Time{}

	if len(e.queue) == 0 {
		// Every returned track is shelved locally; ask again after a beat.
		e.retryAt = e.now().Add(fetchRetryInterval)
		return
	}
	e.load(ctx)
}

func (e *Engine) onFetchUpdate(ctx context.Context, upd prefetch.Update) {
	if upd.Err != nil {
		// Unretryable per-track failure: drop it from the queue wherever it
		// sits and keep going without interrupting playback.
		e.dropFromQueue(upd.Track.Token)
	}
	if e.state == StateLoading {
		e.load(ctx)
	}
}

func (e *Engine) onFinished(ctx context.Context) {
	if e.state != StatePlaying {
		return
	}
	e.advance(ctx)
}

func (e *Engine) tick(ctx context.Context) {
	switch e.state {
	case StatePlaying:
		e.emit()
	case StateLoading:
		e.load(ctx)
	}
}

// tireCurrent shelves the current track for the cooldown period, submits the
// feedback, then treats the command as a skip.
func (e *Engine) tireCurrent(ctx context.Context) {
	cur := e.currentTrack()
	if cur == nil {
		return
	}

	until := e.now().Add(e.tiredFor)
	e.tired[cur.Token] = until
	cur.TiredUntil = until

	track := *cur
	e.submitFeedback(feedbackRequest{
		label: "tired",
		op: func(ctx context.Context, s *models.Session) error {
			return e.svc.MarkTired(ctx, s, track)
		},
	})

	e.sink.Stop()
	e.advance(ctx)
}

// rateCurrent applies a rating optimistically and submits it best-effort.
// Clearing an already-unrated track is a no-op and issues no service call.
func (e *Engine) rateCurrent(ctx context.Context, rating models.Rating) {
	cur := e.currentTrack()
	if cur == nil {
		return
	}
	if cur.Rating == rating {
		return
	}

	cur.Rating = rating
	e.emit()

	track := *cur
	e.submitFeedback(feedbackRequest{
		label: rating.String(),
		op: func(ctx context.Context, s *models.Session) error {
			return e.svc.RateTrack(ctx, s, track, rating)
		},
	})
}

// currentTrack returns the mutable head of the queue while a track is
// active, nil otherwise.
func (e *Engine) currentTrack() *models.Track {
	if e.state != StatePlaying && e.state != StatePaused {
		return nil
	}
	if len(e.queue) == 0 {
		return nil
	}
	return &e.queue[0]
}

func (e *Engine) setVolume(v float64) {
	e.volume = clampVolume(v)
	e.sink.SetVolume(e.volume)
	e.emit()
}

// filterTired drops tracks still inside their tired cooldown, whether the
// flag came from the service or was set locally. The local map covers lag in
// server-side propagation across playlist refreshes.
func (e *Engine) filterTired(tracks []models.Track) []models.Track {
	now := e.now()
	kept := tracks[:0]
	for _, t := range tracks {
		if t.TiredAt(now) {
			continue
		}
		if until, ok := e.tired[t.Token]; ok && now.Before(until) {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (e *Engine) dropFromQueue(token string) {
	wasHead := len(e.queue) > 0 && e.queue[0].Token == token
	kept := e.queue[:0]
	for _, t := range e.queue {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	e.queue = kept
	if wasHead && e.state == StateLoading {
		e.emit()
	}
}

// pinWindow protects the current and next-queued tracks from eviction.
func (e *Engine) pinWindow() {
	keys := make([]string, 0, 2)
	for i := 0; i < len(e.queue) && i < 2; i++ {
		keys = append(keys, e.queue[i].CacheKey())
	}
	if err := e.cache.Pin(keys...); err != nil {
		e.logger.Warn("failed to pin cache window", "err", err)
	}
}

func (e *Engine) submitFeedback(req feedbackRequest) {
	select {
	case e.feedback <- req:
	default:
		// Feedback is best-effort; losing one under pressure beats blocking
		// the command loop.
		e.logger.Warn("feedback queue full, dropping", "action", req.label)
	}
}

// feedbackWorker submits feedback sequentially, preserving issue order.
// Failures are logged, not retried: ratings must never stall playback.
func (e *Engine) feedbackWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-e.feedback:
			if err := e.sessions.Do(ctx, req.op); err != nil {
				e.logger.Warn("feedback submission failed", "action", req.label, "err", err)
			}
		}
	}
}

func (e *Engine) shutdown() {
	e.sink.Stop()
	e.pipeline.CancelAll()
	e.state = StateStopped
	e.emit()
}

// emit publishes a status snapshot without ever blocking the command loop;
// when the UI lags, the oldest snapshot is replaced.
func (e *Engine) emit() {
	st := Status{
		State:   e.state,
		Station: e.station,
		Volume:  e.volume,
		Notice:  e.notice,
		Session: e.sessions.State().String(),
	}
	if cur := e.currentTrack(); cur != nil {
		track := *cur
		st.Track = &track
		st.Position = e.sink.Position()
	}

	select {
	case e.status <- st:
		return
	default:
	}
	select {
	case <-e.status:
	default:
	}
	select {
	case e.status <- st:
	default:
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
