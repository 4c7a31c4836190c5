package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"applesync/internal/server"
	"applesync/internal/services"
	"applesync/internal/shared"
)

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server on the configured redirect address, opens the
// browser for user authorization, exchanges the code for tokens, and saves
// them to the configured token path.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: service does not support OAuth", shared.ErrServiceUnavailable)
	}

	state := shared.GenerateID()
	authURL := oauthSrv.AuthURL(state)

	handler := server.NewOAuthHandler(oauthSrv.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	flowCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	token, err := server.Listen(flowCtx, router, handler)
	if err != nil {
		if flowCtx.Err() != nil {
			return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
		}
		return fmt.Errorf("authorization failed: %w", err)
	}

	tokenPath := r.config.Credentials.Spotify.TokenPath
	if err := services.SaveToken(tokenPath, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", tokenPath)
	r.writePlain("You can now use: applesync sync run --all\n")

	return nil
}

// AuthStatus checks whether a saved token exists and still works by fetching
// the user profile.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tokenPath := r.config.Credentials.Spotify.TokenPath

	token, err := services.LoadToken(tokenPath)
	if err != nil {
		r.writePlain("✗ No saved token at %s\n", tokenPath)
		r.writePlain("Run 'applesync auth login' to authenticate\n")
		return nil
	}

	if !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) {
		r.writePlain("⚠ Saved token expired at %s; it will be refreshed on next use\n", token.Expiry.Format(time.RFC3339))
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	spotify, ok := r.spotify.(*services.SpotifyService)
	if !ok {
		r.writePlain("✓ Token loaded from %s\n", tokenPath)
		return nil
	}

	user, err := spotify.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("%w: token rejected: %v", shared.ErrNotAuthenticated, err)
	}

	r.writePlain("✓ Authenticated as %s", user.ID)
	if user.DisplayName != "" {
		r.writePlain(" (%s)", user.DisplayName)
	}
	r.writePlain("\n")
	return nil
}
