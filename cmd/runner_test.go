package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	tu "github.com/desertthunder/sung/internal/testing"
	"golang.org/x/oauth2"
)

type fakeOAuth struct {
	token *oauth2.Token
	err   error
}

func (f *fakeOAuth) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return f.token, f.err
}

func (f *fakeOAuth) Authenticate(ctx context.Context, token *oauth2.Token) error { return nil }

func (f *fakeOAuth) SetTokenRefreshCallback(callback func(*oauth2.Token)) {}

func (f *fakeOAuth) Scopes() []string { return nil }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func credentialedConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "test_id"
	config.Credentials.Spotify.ClientSecret = "test_secret"
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("y\n")
			api := tu.NewFakeSpotify(1)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				API:        api,
				Logger:     logger,
				Output:     output,
				Input:      input,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.authTimeout != 2*time.Minute {
				t.Errorf("expected 2m auth timeout, got %v", runner.authTimeout)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "cast", "search", "tracks", "playlist", "me", "chords", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("expected command %d to be %s, got %s", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("persistToken", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			config := credentialedConfig()
			config.Credentials.Spotify.RefreshToken = "old_refresh_token"

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})

			token := &oauth2.Token{AccessToken: "new_access_token"}
			if err := runner.persistToken(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loaded.Credentials.Spotify.AccessToken)
			}
			if loaded.Credentials.Spotify.RefreshToken != "old_refresh_token" {
				t.Errorf("expected refresh token to be kept, got %s", loaded.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "config.toml")})

			err := runner.persistToken(nil)
			if err == nil || !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "missing", "config.toml")})

			err := runner.persistToken(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})
	})

	t.Run("spotifyAPI", func(t *testing.T) {
		ctx := context.Background()

		t.Run("returns the preset API", func(t *testing.T) {
			api := tu.NewFakeSpotify(0)
			runner := NewRunner(RunnerOpts{API: api})

			got, err := runner.spotifyAPI(ctx, services.PlaylistModifyScopes...)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != api {
				t.Error("expected preset API")
			}
		})

		t.Run("requires credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = ""
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})

			if _, err := runner.spotifyAPI(ctx); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("falls back to client credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: credentialedConfig(), Logger: shared.DiscardLogger()})

			api, err := runner.spotifyAPI(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if api == nil || runner.spotify == nil || !runner.spotify.Authenticated() {
				t.Error("expected an authenticated Spotify service")
			}
		})

		t.Run("user scopes need a token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: credentialedConfig(), Logger: shared.DiscardLogger()})

			if _, err := runner.spotifyAPI(ctx, services.PlaylistModifyScopes...); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("stored token must carry required scopes", func(t *testing.T) {
			config := credentialedConfig()
			config.Credentials.Spotify.AccessToken = "access"
			config.Credentials.Spotify.Scope = "playlist-read-private user-read-private"
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})

			if _, err := runner.spotifyAPI(ctx, services.PlaylistModifyScopes...); !errors.Is(err, shared.ErrMissingScope) {
				t.Errorf("expected ErrMissingScope, got %v", err)
			}
		})

		t.Run("authenticates with a stored token", func(t *testing.T) {
			config := credentialedConfig()
			config.Credentials.Spotify.AccessToken = "access"
			config.Credentials.Spotify.Expiry = time.Now().Add(time.Hour)
			config.Credentials.Spotify.Scope = strings.Join(loginScopes, " ")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})

			if _, err := runner.spotifyAPI(ctx, services.PlaylistModifyScopes...); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !runner.spotify.Authenticated() {
				t.Error("expected service to be authenticated")
			}
		})
	})

	t.Run("withSpotify", func(t *testing.T) {
		t.Run("expired token without a service is returned", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{API: tu.NewFakeSpotify(0), Output: output})

			calls := 0
			err := runner.withSpotify(context.Background(), func(services.API) error {
				calls++
				return fmt.Errorf("%w: 401", shared.ErrTokenExpired)
			})
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected 1 call, got %d", calls)
			}
			if output.Len() != 0 {
				t.Errorf("expected no reauthorization output, got %q", output.String())
			}
		})
	})
}

func TestOAuthFlow(t *testing.T) {
	newOAuthRunner := func(t *testing.T) (*Runner, *bytes.Buffer, int) {
		t.Helper()
		port := freePort(t)
		config := credentialedConfig()
		config.Server.Host = "127.0.0.1"
		config.Server.Port = port

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.DiscardLogger()})
		runner.authTimeout = 5 * time.Second
		return runner, output, port
	}

	t.Run("callbackPath", func(t *testing.T) {
		tests := map[string]string{
			"http://127.0.0.1:3000/callback":  "/callback",
			"http://localhost:8080/auth/done": "/auth/done",
			"http://localhost:8080":           "/callback",
			"::not a url":                     "/callback",
		}
		for in, want := range tests {
			if got := callbackPath(in); got != want {
				t.Errorf("callbackPath(%q): expected %s, got %s", in, want, got)
			}
		}
	})

	t.Run("exchanges the code from the callback", func(t *testing.T) {
		runner, output, port := newOAuthRunner(t)
		runner.openBrowser = func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			callback := fmt.Sprintf("http://127.0.0.1:%d/callback?code=abc&state=%s", port, url.QueryEscape(u.Query().Get("state")))
			go func() {
				if resp, err := http.Get(callback); err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		}

		want := &oauth2.Token{AccessToken: "granted"}
		token, err := runner.doOAuth(context.Background(), &fakeOAuth{token: want}, "authorization")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "granted" {
			t.Errorf("expected granted token, got %+v", token)
		}
		if !strings.Contains(output.String(), "Opening browser for Spotify authorization") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("prints the URL when the browser cannot be opened", func(t *testing.T) {
		runner, output, _ := newOAuthRunner(t)
		runner.authTimeout = 50 * time.Millisecond
		runner.openBrowser = func(string) error { return errors.New("no browser") }

		_, err := runner.doOAuth(context.Background(), &fakeOAuth{}, "authorization")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(output.String(), "https://accounts.example.com/authorize?state=") {
			t.Errorf("expected auth URL in output, got %q", output.String())
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		runner, _, _ := newOAuthRunner(t)
		runner.openBrowser = func(string) error { return nil }

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := runner.doOAuth(ctx, &fakeOAuth{}, "authorization"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("port in use", func(t *testing.T) {
		runner, _, port := newOAuthRunner(t)
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			t.Fatalf("failed to occupy port: %v", err)
		}
		defer ln.Close()

		if _, err := runner.doOAuth(context.Background(), &fakeOAuth{}, "authorization"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
