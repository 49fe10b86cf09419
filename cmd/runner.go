package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	api         services.API
	spotify     *services.SpotifyService
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	openBrowser func(string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
//
// API replaces the Spotify client built from the config, which skips authentication entirely.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.API
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

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		api:         opts.API,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		openBrowser: shared.OpenBrowser,
		authTimeout: 2 * time.Minute,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, castCommand, searchCommand, tracksCommand, playlistCommand, meCommand,
		chordsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies --verbose, loads the .env file and reads the config named by --config.
//
// A runner built with a preset API keeps its config.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if cmd.IsSet("config") || r.configPath == "" {
		r.configPath = cmp.Or(cmd.String("config"), DefaultConfigPath)
	}

	if err := shared.LoadEnv(cmd.String("env")); err != nil {
		r.logger.Warn("failed to load env file", "error", err)
	}

	if r.api == nil {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	r.config.ApplyEnv()

	r.logger.Debug("configuration loaded", "path", r.configPath)
	return ctx, nil
}

// spotifyAPI returns the Spotify client, building and authenticating it on first use.
//
// A stored user token must carry every scope in required. Without a stored token the client falls back to
// the client credentials flow, which only works when no user scopes are required.
func (r *Runner) spotifyAPI(ctx context.Context, required ...string) (services.API, error) {
	if r.api != nil {
		return r.api, nil
	}

	creds := &r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment",
			shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := services.NewFromConfig(r.config, r.logger, services.MergeScopes(slices.Concat(services.DefaultScopes, required)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	svc.SetTokenRefreshCallback(r.saveToken)

	switch {
	case creds.HasToken():
		token := creds.Token()
		if creds.Scope != "" && !services.HasScopes(token, required...) {
			return nil, fmt.Errorf("%w: stored token lacks %v; run `sung auth login`", shared.ErrMissingScope, required)
		}
		if err := svc.Authenticate(ctx, token); err != nil {
			return nil, err
		}
	case len(required) == 0:
		r.logger.Debug("no stored token, using client credentials")
		if err := svc.AuthenticateApp(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: run `sung auth login` first", shared.ErrNotAuthenticated)
	}

	r.api, r.spotify = svc, svc
	return svc, nil
}

// withSpotify runs fn against the Spotify client. An expired user token triggers one reauthorization
// and a retry.
func (r *Runner) withSpotify(ctx context.Context, fn func(services.API) error, required ...string) error {
	api, err := r.spotifyAPI(ctx, required...)
	if err != nil {
		return err
	}

	err = fn(api)
	if reauthed, authErr := r.handleSpotifyAuthError(ctx, err, required); reauthed {
		if authErr != nil {
			return authErr
		}
		return fn(r.api)
	}
	return err
}

// handleSpotifyAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error, required []string) (bool, error) {
	if err == nil || !errors.Is(err, shared.ErrTokenExpired) || r.spotify == nil {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...\n")

	token, err := r.doOAuth(ctx, r.spotify, "reauthorization")
	if err != nil {
		return true, fmt.Errorf("reauthorization failed: %w", err)
	}
	if err := r.persistToken(token); err != nil {
		return true, err
	}

	r.api, r.spotify = nil, nil
	if _, err := r.spotifyAPI(ctx, required...); err != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")
	return true, nil
}

// persistToken stores token in the config file.
func (r *Runner) persistToken(token *oauth2.Token) error {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// saveToken is the token refresh callback; failures are logged since the request itself succeeded.
func (r *Runner) saveToken(token *oauth2.Token) {
	if err := r.persistToken(token); err != nil {
		r.logger.Warn("failed to persist refreshed token", "error", err)
		return
	}
	r.logger.Debug("refreshed token saved", "path", r.configPath, "expiry", token.Expiry)
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
