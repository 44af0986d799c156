package main

import (
	"context"

	"github.com/desertthunder/aria/internal/models"
	"github.com/urfave/cli/v3"
)

// Stations lists the listener's stations.
func (r *Runner) Stations(ctx context.Context, cmd *cli.Command) error {
	var stations []models.Station
	err := r.sessions.Do(ctx, func(ctx context.Context, s *models.Session) error {
		var opErr error
		stations, opErr = r.svc.ListStations(ctx, s)
		return opErr
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stations, cmd.Bool("pretty"))
	}

	for _, st := range stations {
		marker := " "
		if st.IsQuickMix {
			marker = "*"
		}
		r.writePlain("%s %-24s %s\n", marker, st.Name, st.ID)
	}
	if len(stations) == 0 {
		r.writePlainln("No stations found for this account.")
	}
	return nil
}

// stationsCommand lists stations without starting playback.
func stationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "stations",
		Aliases: []string{"st"},
		Usage:   "List your stations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Stations,
	}
}
