package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sung/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("creating config file from template", "path", r.configPath)

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
	r.writePlain("2. Set client_id and client_secret in %s (or %s and %s)\n",
		r.configPath, shared.EnvClientID, shared.EnvClientSecret)
	r.writePlain("3. Add %s as a redirect URI of the app\n", r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("4. Run 'sung auth login'\n")
	return nil
}
