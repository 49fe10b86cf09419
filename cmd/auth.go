package main

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/sung/internal/server"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// loginScopes are requested by `sung auth login` so every command works with the saved token.
var loginScopes = services.MergeScopes(slices.Concat(
	services.DefaultScopes, services.PlaylistModifyScopes, services.RecentlyPlayedScopes, services.TopReadScopes,
)...)

// AuthLogin performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment",
			shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := services.NewFromConfig(r.config, r.logger, loginScopes...)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, svc, "authorization")
	if err != nil {
		return err
	}
	if err := r.persistToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: sung playlist show --id <playlist>\n")
	return nil
}

type authStatus struct {
	ConfigPath    string    `json:"config_path"`
	Authenticated bool      `json:"authenticated"`
	Expiry        time.Time `json:"expiry,omitzero"`
	Scopes        []string  `json:"scopes"`
	Missing       []string  `json:"missing_scopes"`
	User          string    `json:"user,omitempty"`
}

// AuthStatus reports the stored token, its expiry and granted scopes. With --check the token is used to
// look up the current user.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sp := r.config.Credentials.Spotify
	status := authStatus{
		ConfigPath:    r.configPath,
		Authenticated: sp.HasToken(),
		Expiry:        sp.Expiry,
		Scopes:        services.GrantedScopes(sp.Token()),
	}
	for _, s := range loginScopes {
		if !slices.Contains(status.Scopes, s) {
			status.Missing = append(status.Missing, s)
		}
	}

	if cmd.Bool("check") {
		if !status.Authenticated {
			return fmt.Errorf("%w: no stored token; run `sung auth login`", shared.ErrNotAuthenticated)
		}
		err := r.withSpotify(ctx, func(api services.API) error {
			id, err := api.CurrentUserID(ctx)
			status.User = id
			return err
		})
		if err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("Config: %s\n", status.ConfigPath)
	if !status.Authenticated {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'sung auth login' to authorize\n")
		return nil
	}

	r.writePlain("Authentication: ✓ Token stored\n")
	if !status.Expiry.IsZero() {
		r.writePlain("Access token expires: %s\n", humanize.Time(status.Expiry))
	}
	r.writePlain("Scopes: %s\n", strings.Join(status.Scopes, " "))
	if len(status.Missing) > 0 {
		r.writePlain("Missing scopes: %s\n", strings.Join(status.Missing, " "))
	}
	if status.User != "" {
		r.writePlain("User: %s\n", status.User)
	}
	return nil
}

// callbackPath returns the path of the redirect URI the local server must answer on.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return server.DefaultCallbackPath
	}
	return u.Path
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv, state, callbackPath(r.config.Credentials.Spotify.RedirectURI))
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
	httpServer, err := server.Start(serverAddr, router, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", r.authTimeout)

	timeout := time.NewTimer(r.authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-httpServer.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, r.authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
