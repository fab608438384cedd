package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	resolver   tasks.PlaylistResolver
	ownsRes    bool // resolver was built from config
	player     *tasks.MemoryPlayer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Resolver   tasks.PlaylistResolver // Built from Config when nil
	Player     *tasks.MemoryPlayer
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
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
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Resolver.HTTPTimeout()}
	}
	if opts.Player == nil {
		opts.Player = tasks.NewMemoryPlayer()
	}
	ownsRes := opts.Resolver == nil
	if ownsRes {
		opts.Resolver = newDispatcher(opts.Config, opts.HTTPClient, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		resolver:   opts.Resolver,
		ownsRes:    ownsRes,
		player:     opts.Player,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// newDispatcher wires both adapters from config. They share client, which is only read.
func newDispatcher(config *shared.Config, client *http.Client, logger *log.Logger) *services.Dispatcher {
	rc := config.Resolver

	policy := services.FailFast
	if rc.YouTube.SkipMalformed {
		policy = services.SkipMalformed
	}
	youtube := services.NewYouTubeAdapter(services.YouTubeOpts{
		Binary: rc.YouTube.Binary,
		Args:   rc.YouTube.Args,
		Policy: policy,
		Logger: shared.WithLogger(logger, "adapter", "youtube"),
	})

	spotify := services.NewSpotifyAdapter(services.SpotifyOpts{
		Client:     client,
		Tokens:     services.NewTokenFetcher(client, rc.Spotify.TokenURL, logger),
		BaseURL:    rc.Spotify.APIURL,
		Pagination: services.PaginationFor(rc.Spotify.MaxPages),
		Logger:     shared.WithLogger(logger, "adapter", "spotify"),
	})

	var limiter *rate.Limiter
	if rc.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(rc.RequestsPerSecond), 1)
	}

	return services.NewDispatcher(services.DispatcherOpts{
		YouTube: youtube,
		Spotify: spotify,
		Limiter: limiter,
		Timeout: rc.Timeout(),
		Logger:  logger,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, exportCommand, permsCommand, consoleCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequently built components.
//
// A resolver built from config is rebuilt so adapters log to the new destination.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.ownsRes {
		r.resolver = newDispatcher(r.config, r.httpClient, logger)
	}
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := shared.OpenDatabase(r.config.Database.Driver, r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	ran, err := shared.NewMigrator(db).Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if ran > 0 {
		r.logger.Info("applied migrations", "count", ran)
	}
	return db, nil
}

// newEngine builds a [tasks.QueueEngine] backed by perms and the runner's player.
func (r *Runner) newEngine(perms tasks.PermStore) *tasks.QueueEngine {
	return tasks.NewQueueEngine(tasks.EngineOpts{
		Resolver: r.resolver,
		Perms:    perms,
		Player:   r.player,
		Prefix:   r.config.Bot.Prefix,
		Logger:   r.logger,
	})
}

// withPerms opens the database for the duration of fn.
func (r *Runner) withPerms(ctx context.Context, fn func(*repositories.PermRepository) error) error {
	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(repositories.NewPermRepository(db))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
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

// guildFlag and userFlag default to the console identity from config.
func (r *Runner) guildFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:    "guild",
		Aliases: []string{"g"},
		Usage:   "Guild ID",
		Value:   r.config.Bot.GuildID,
	}
}

func (r *Runner) userFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User ID issuing commands",
		Value:   r.config.Bot.UserID,
	}
}
