package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aria/internal/cache"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/services"
	"github.com/desertthunder/aria/internal/session"
	"github.com/desertthunder/aria/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	svc        services.RadioService
	sessions   *session.Manager
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.RadioService
	Sessions   *session.Manager
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Service == nil {
		opts.Service = services.NewHTTPRadioService(
			opts.Config.Service.BaseURL,
			opts.HTTPClient,
			opts.Config.Service.RequestsPerSecond,
		)
	}
	if opts.Sessions == nil {
		// Credentials in config.toml win; otherwise fall back to the private
		// credentials file (written by the session manager on Reset).
		var store session.CredentialStore
		creds := models.Credentials{
			Username: opts.Config.Credentials.Username,
			Password: opts.Config.Credentials.Password,
		}
		if creds.Empty() {
			store = session.NewFileStore(credentialsPath())
		} else {
			store = session.NewStaticStore(creds)
		}
		opts.Sessions = session.NewManager(session.ManagerOpts{
			Service: opts.Service,
			Store:   store,
			Logger:  opts.Logger,
		})
	}

	return &Runner{
		config:     opts.Config,
		svc:        opts.Service,
		sessions:   opts.Sessions,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playCommand, stationsCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// credentialsPath resolves the fallback credentials file location.
func credentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.toml"
	}
	return filepath.Join(dir, "aria", "credentials.toml")
}

// SetLogger replaces the runner's logger, used to redirect logs to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// openCache resolves the configured cache directory and opens the track cache.
func (r *Runner) openCache(logger *log.Logger) (*cache.Cache, error) {
	dir, err := r.config.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir, r.config.Cache.MaxBytes, logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
