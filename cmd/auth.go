package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/repositories"
	"github.com/desertthunder/cineai/internal/shared"
)

// credentials reads --username and --password, prompting for whichever is missing.
func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{
		Username: strings.TrimSpace(cmd.String("username")),
		Password: cmd.String("password"),
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = r.prompt("Username"); err != nil {
			return creds, err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.prompt("Password"); err != nil {
			return creds, err
		}
	}
	return creds, nil
}

// AuthSignup registers an account and stores its token.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing up", "username", creds.Username)
	resp, err := r.clients.Auth.Signup(ctx, creds)
	if err != nil {
		return err
	}

	msg := resp.Message
	if msg == "" {
		msg = "Account created"
	}
	return r.writePlain("✓ %s. Signed in as %s\n", msg, creds.Username)
}

// AuthLogin signs in and stores the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "username", creds.Username)
	if _, err := r.clients.Auth.Login(ctx, creds); err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", creds.Username)
}

// AuthLogout forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.clients.Auth.Logout()
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus checks API health and reports on the stored token without calling /me.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status", "api", r.clients.API.BaseURL())

	r.writePlain("API: %s\n", r.clients.API.BaseURL())
	if err := r.clients.Auth.CheckHealth(ctx); err != nil {
		r.writePlain("Health: ✗ %v\n", err)
	} else {
		r.writePlain("Health: ✓ reachable\n")
	}

	token := r.tokens.GetToken()
	switch {
	case token == "":
		r.writePlain("Session: ✗ not signed in\n")
	case r.tokens.Expired(time.Now()):
		r.writePlain("Session: ✗ token expired, run `cineai auth login`\n")
	default:
		if exp, ok := repositories.TokenExpiry(token); ok {
			r.writePlain("Session: ✓ token valid until %s\n", exp.Local().Format(time.RFC1123))
		} else {
			r.writePlain("Session: ✓ token stored\n")
		}
	}
	return nil
}

// AuthWhoami resolves the signed-in user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user, err := r.clients.Auth.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrAuthRequired) {
			return fmt.Errorf("%w: run `cineai auth login`", err)
		}
		return err
	}

	if user.ID != "" {
		return r.writePlain("%s (id %s)\n", user.Username, user.ID)
	}
	return r.writePlain("%s\n", user.Username)
}

// AuthImport stores a token taken from --token or from a cURL command copied out of a signed-in browser.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.String("token"))
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	given := 0
	for _, v := range []string{token, curlCmd, curlFile} {
		if v != "" {
			given++
		}
	}
	switch {
	case given == 0:
		return fmt.Errorf("%w: one of --token, --curl or --curl-file must be provided", shared.ErrMissingArgument)
	case given > 1:
		return fmt.Errorf("%w: --token, --curl and --curl-file are mutually exclusive", shared.ErrInvalidArgument)
	}

	if token == "" {
		var headers *shared.CurlHeaders
		var err error
		if curlFile != "" {
			headers, err = shared.ParseCurlFile(curlFile)
		} else {
			headers, err = shared.ParseCurlCommand([]byte(curlCmd))
		}
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		if token, err = headers.BearerToken(); err != nil {
			return err
		}
		r.logger.Debug("token found in cURL command", "url", headers.URL)
	}

	if repositories.TokenExpired(token, time.Now()) {
		return fmt.Errorf("%w: the imported token is expired or malformed", shared.ErrTokenExpired)
	}

	r.clients.API.SetToken(token)
	user, err := r.clients.Auth.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("token was rejected: %w", err)
	}
	return r.writePlain("✓ Imported session for %s\n", user.Username)
}
