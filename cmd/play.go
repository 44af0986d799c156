package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/player"
	"github.com/desertthunder/aria/internal/prefetch"
	"github.com/desertthunder/aria/internal/shared"
	"github.com/desertthunder/aria/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play wires the session manager, cache, prefetch pipeline, audio sink, and
// playback engine together and hands the terminal to the TUI.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/aria.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	trackCache, err := r.openCache(fileLogger)
	if err != nil {
		return fmt.Errorf("failed to open track cache: %w", err)
	}
	defer trackCache.Close()

	// Authenticate and fetch the station catalog before the TUI takes the
	// terminal; startup failures stay readable on stderr.
	var stations []models.Station
	err = r.sessions.Do(ctx, func(ctx context.Context, s *models.Session) error {
		var opErr error
		stations, opErr = r.svc.ListStations(ctx, s)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}

	pipeline := prefetch.New(prefetch.Opts{
		Downloader: r.svc,
		Cache:      trackCache,
		Logger:     fileLogger,
		Lookahead:  r.config.Prefetch.Lookahead,
		Workers:    r.config.Prefetch.Workers,
		Backoff:    prefetchBackoff(r.config.Prefetch.Retries),
	})

	engine := player.New(player.Opts{
		Sessions:   r.sessions,
		Service:    r.svc,
		Cache:      trackCache,
		Pipeline:   pipeline,
		Sink:       player.NewBeepSink(),
		Logger:     fileLogger,
		Volume:     r.config.Playback.Volume,
		VolumeStep: r.config.Playback.VolumeStep,
		Catalog:    stations,
	})

	engineCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Run(engineCtx)
	}()

	if stationID := cmd.String("station"); stationID != "" {
		engine.Commands() <- player.SelectStation(stationID)
	}

	model := ui.NewModel(engine.Commands(), engine.Status(), stations)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		cancel()
		<-engineDone
		return fmt.Errorf("error running TUI: %w", err)
	}

	// Normal exits go through CmdQuit, so the engine is already stopping.
	cancel()
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// prefetchBackoff bounds download retries per the configured attempt count.
func prefetchBackoff(retries int) shared.Backoff {
	b := shared.DefaultBackoff()
	if retries > 0 {
		b.Attempts = retries
	} else {
		b.Attempts = 3
	}
	return b
}

// playCommand launches interactive playback.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"p", "tui"},
		Usage:   "Start interactive playback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "station",
				Aliases: []string{"s"},
				Usage:   "Station ID to tune immediately",
			},
		},
		Action: r.Play,
	}
}
