// package prefetch keeps upcoming tracks downloaded ahead of playback need.
//
// The pipeline is handed the queue's head each time the cursor moves and
// downloads whatever within the lookahead window is not already cached.
// Playback of the current track never depends on the network: by the time a
// track reaches the head of the queue its audio is (normally) already local,
// so short outages are absorbed by the lookahead window.
package prefetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aria/internal/cache"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/shared"
)

// Downloader is the slice of the service client the pipeline needs.
type Downloader interface {
	DownloadTrack(ctx context.Context, audioURL string) ([]byte, error)
}

// Update reports a finished fetch attempt. Err is nil when the track's audio
// is now in the cache; a non-nil Err means the track should be skipped.
type Update struct {
	Track models.Track
	Err   error
}

// Pipeline downloads upcoming tracks into the track cache.
type Pipeline struct {
	downloader Downloader
	cache      *cache.Cache
	logger     *log.Logger
	lookahead  int
	backoff    shared.Backoff
	sem        chan struct{}
	updates    chan Update

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// Opts contains configuration for creating a Pipeline.
type Opts struct {
	Downloader Downloader
	Cache      *cache.Cache
	Logger     *log.Logger
	Lookahead  int // tracks kept ready ahead of playback, default 2
	Workers    int // concurrent downloads, default 1 (sequential)
	Backoff    shared.Backoff
}

// New creates a prefetch pipeline.
func New(opts Opts) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Lookahead < 1 {
		opts.Lookahead = 2
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = shared.DefaultBackoff()
		opts.Backoff.Attempts = 3
	}

	return &Pipeline{
		downloader: opts.Downloader,
		cache:      opts.Cache,
		logger:     opts.Logger,
		lookahead:  opts.Lookahead,
		backoff:    opts.Backoff,
		sem:        make(chan struct{}, opts.Workers),
		updates:    make(chan Update, 16),
		inflight:   make(map[string]context.CancelFunc),
	}
}

// Updates returns the channel on which finished fetch attempts are reported.
func (p *Pipeline) Updates() <-chan Update {
	return p.updates
}

// EnsureReady starts downloads for every track in the lookahead window that
// is neither cached nor already being fetched. Safe to call repeatedly with
// overlapping windows; a given track is downloaded at most once.
func (p *Pipeline) EnsureReady(ctx context.Context, upcoming []models.Track) {
	window := upcoming
	if len(window) > p.lookahead {
		window = window[:p.lookahead]
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, track := range window {
		key := track.CacheKey()
		if _, active := p.inflight[key]; active {
			continue
		}
		if p.cache.Has(key) {
			continue
		}

		taskCtx, cancel := context.WithCancel(ctx)
		p.inflight[key] = cancel
		p.wg.Add(1)
		go p.fetch(taskCtx, track)
	}
}

// CancelAll aborts in-flight downloads, used on station switch and quit.
// Cancellation is cooperative; a write already committed to the cache stays.
func (p *Pipeline) CancelAll() {
	p.mu.Lock()
	for key, cancel := range p.inflight {
		cancel()
		delete(p.inflight, key)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) fetch(ctx context.Context, track models.Track) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, track.CacheKey())
		p.mu.Unlock()
	}()

	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	if ctx.Err() != nil {
		return
	}

	p.logger.Debug("prefetching track", "title", track.Title, "artist", track.Artist)

	retryable := func(err error) bool {
		return errors.Is(err, shared.ErrConnectionFailed) || errors.Is(err, shared.ErrRateLimited)
	}
	err := p.backoff.Retry(ctx, retryable, func() error {
		data, err := p.downloader.DownloadTrack(ctx, track.AudioURL)
		if err != nil {
			return err
		}
		if err := validateAudio(data, track.Format); err != nil {
			return err
		}
		if err := p.cache.Put(track.CacheKey(), track.Format, data); err != nil {
			// Storage failure is non-fatal: report it and let the caller
			// fall back to a fresh download next time.
			return err
		}
		return nil
	})

	if ctx.Err() != nil {
		// Cancelled mid-fetch; the track was abandoned, say nothing.
		return
	}

	update := Update{Track: track, Err: err}
	if err != nil {
		p.logger.Warn("track fetch failed", "title", track.Title, "err", err)
	}

	select {
	case p.updates <- update:
	case <-ctx.Done():
	}
}

// validateAudio rejects downloads that cannot possibly decode, so corrupt
// blobs never reach the cache or the audio sink.
func validateAudio(data []byte, format string) error {
	if len(data) < 1024 {
		return fmt.Errorf("%w: truncated audio body (%d bytes)", shared.ErrDecodeFailed, len(data))
	}

	switch format {
	case "mp3", "":
		if bytes.HasPrefix(data, []byte("ID3")) {
			return nil
		}
		if data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
			return nil
		}
	case "m4a", "aac", "mp4":
		if len(data) > 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
			return nil
		}
	default:
		return fmt.Errorf("%w: unsupported audio format %q", shared.ErrDecodeFailed, format)
	}
	return fmt.Errorf("%w: audio body failed format sniff", shared.ErrDecodeFailed)
}
