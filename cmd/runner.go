package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/formatter"
	"github.com/desertthunder/cineai/internal/repositories"
	"github.com/desertthunder/cineai/internal/services"
	"github.com/desertthunder/cineai/internal/shared"
	"github.com/desertthunder/cineai/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	tokens     *repositories.TokenRepository
	blendCache *repositories.BlendCache
	recent     *repositories.RecentlyWatched
	clients    *services.Clients
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	clipboard  func(string) error
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB // nil keeps the session in an in-memory database
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Clipboard  func(string) error
	OpenURL    func(string) error
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		clipboard:  opts.Clipboard,
		openURL:    opts.OpenURL,
	}
	db := opts.DB
	if db == nil {
		db = r.memoryStore()
	}
	r.wire(db)
	return r
}

// memoryStore opens an in-memory store so a session survives for the life of the process.
// If even that fails the stores are inert.
func (r *Runner) memoryStore() *sql.DB {
	db, err := shared.OpenMemoryStore()
	if err != nil {
		r.logger.Warn("in-memory store unavailable, session will not be kept", "error", err)
		return nil
	}
	return db
}

// wire builds the stores and API clients on db.
func (r *Runner) wire(db *sql.DB) {
	store := repositories.NewKVStore(db)
	r.db = db
	r.tokens = repositories.NewTokenRepository(store, r.logger)
	r.blendCache = repositories.NewBlendCache(store)
	r.recent = repositories.NewRecentlyWatched(store, r.config.History.RecentLimit)

	r.clients = services.NewClients(r.config.API, r.httpClient, r.tokens)
	r.clients.API.SetLogger(r.logger)
	r.clients.API.OnUnauthorized(func() {
		r.logger.Warn("session is no longer valid, run `cineai auth login`")
	})
}

// Before loads the configuration named by --config, applies --verbose and opens the local store.
//
// An unusable store is not fatal: the session is then kept in memory for this invocation only.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	db, err := shared.OpenStore(r.config.Database)
	if err != nil {
		r.logger.Warn("local store unavailable, session will not be saved", "error", err)
		db = r.memoryStore()
	}
	if r.db != nil {
		r.db.Close()
	}
	r.wire(db)
	return ctx, nil
}

// After closes the local store.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SetLogger replaces the logger used by the runner and its API clients.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.clients.API.SetLogger(l)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, blendCommand, historyCommand, recommendCommand, watchlistCommand, apiCommand,
		tuiCommand, devCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// deps are the collaborators of the blend screens.
func (r *Runner) deps() tasks.Deps {
	return tasks.Deps{
		Blends:  r.clients.Blends,
		Users:   r.clients.Auth,
		History: r.clients.History,
		Cache:   r.blendCache,
		Recent:  r.recent,
	}
}

// screenOptions configures a blend screen for one command. Notices go to the returned channel.
func (r *Runner) screenOptions(cmd *cli.Command) (tasks.Options, chan tasks.Notice) {
	notices := make(chan tasks.Notice, 64)
	opts := tasks.OptionsFromConfig(r.config)
	opts.Logger = r.logger
	opts.Notices = notices
	opts.Clipboard = r.clipboard

	assumeYes := cmd.Bool("yes")
	opts.Confirm = func(prompt string) bool {
		if assumeYes {
			return true
		}
		return r.confirm(prompt)
	}
	return opts, notices
}

// confirm asks a yes/no question on the runner's input.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N] ", prompt)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// prompt reads one line from the runner's input.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: no input for %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// flushNotices prints every notice queued so far.
func (r *Runner) flushNotices(notices <-chan tasks.Notice) {
	for {
		select {
		case n := <-notices:
			r.printNotice(n)
		default:
			return
		}
	}
}

func (r *Runner) printNotice(n tasks.Notice) {
	mark := "•"
	switch n.Level {
	case tasks.LevelSuccess:
		mark = "✓"
	case tasks.LevelWarn:
		mark = "!"
	case tasks.LevelError:
		mark = "✗"
	}
	r.writePlain("%s %s\n", mark, n.String())
	if n.Navigate == tasks.RouteLogin {
		r.writePlain("  Run `cineai auth login` to sign in.\n")
	}
}

func (r *Runner) format(cmd *cli.Command) (formatter.Format, error) {
	return formatter.ParseFormat(cmd.String("format"))
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

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
