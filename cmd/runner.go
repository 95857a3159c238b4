package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/allezgo/internal/form"
	"github.com/desertthunder/allezgo/internal/repositories"
	"github.com/desertthunder/allezgo/internal/services"
	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	client      services.Synchronizer
	store       repositories.Store
	runs        *repositories.SyncRunRepository
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
	form        *form.SyncForm
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Synchronizer
	Store      repositories.Store
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
//
// Without a Client the runner talks to the configured sync endpoint. DB, when set, enables sync history.
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
	if opts.Store == nil {
		opts.Store = repositories.NewMemoryStore()
	}
	if opts.Client == nil {
		opts.Client = services.NewSyncServiceFromConfig(opts.Config.Sync, opts.HTTPClient)
	}

	var runs *repositories.SyncRunRepository
	if opts.DB != nil {
		runs = repositories.NewSyncRunRepository(opts.DB)
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		client:      opts.Client,
		store:       opts.Store,
		runs:        runs,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: shared.OpenBrowser,
	}
}

// SetLogger replaces the runner's logger. It must be called before the form is first used.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Form returns the runner's sync form, creating it on first use.
func (r *Runner) Form() *form.SyncForm {
	if r.form == nil {
		opts := form.Opts{Client: r.client, Store: r.store, Logger: r.logger}
		if r.runs != nil {
			opts.Recorder = r.runs
		}
		r.form = form.New(opts)
	}
	return r.form
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, serveCommand, tuiCommand, credentialsCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
