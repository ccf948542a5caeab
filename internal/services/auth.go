package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// AuthClient signs users up and in, and resolves the current session.
type AuthClient struct {
	api *APIService
}

// NewAuthClient creates an AuthClient on api.
func NewAuthClient(api *APIService) *AuthClient {
	return &AuthClient{api: api}
}

// Signup registers a new account and stores the returned token.
func (c *AuthClient) Signup(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	if err := shared.ValidateStruct(creds); err != nil {
		return nil, err
	}

	var resp models.AuthResponse
	if err := c.api.call(ctx, http.MethodPost, "/signup", creds, &resp); err != nil {
		return nil, describe(err, "Signup failed")
	}
	return c.accept(&resp, "Signup failed")
}

// Login exchanges a username and password (sent form-encoded) for a token and stores it.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	if err := shared.ValidateStruct(creds); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var resp models.AuthResponse
	if err := c.api.callForm(ctx, "/login", form, &resp); err != nil {
		return nil, describe(err, "Login failed")
	}
	return c.accept(&resp, "Login failed")
}

func (c *AuthClient) accept(resp *models.AuthResponse, fallback string) (*models.AuthResponse, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: no access token in response", shared.ErrAPIRequest, fallback)
	}
	c.api.SetToken(resp.AccessToken)
	return resp, nil
}

// describe prefixes err with fallback unless the server already explained itself.
func describe(err error, fallback string) error {
	if ErrorMessage(err, "") != "" {
		return err
	}
	return fmt.Errorf("%s: %w", fallback, err)
}

// CurrentUser returns the account the stored token belongs to.
//
// Without a token no request is made and the error wraps [shared.ErrAuthRequired].
func (c *AuthClient) CurrentUser(ctx context.Context) (*models.User, error) {
	if strings.TrimSpace(c.api.Token()) == "" {
		return nil, fmt.Errorf("%w: not logged in", shared.ErrAuthRequired)
	}

	var env models.UserEnvelope
	if err := c.api.call(ctx, http.MethodGet, "/me", nil, &env); err != nil {
		return nil, err
	}
	if env.User.Username == "" && env.User.ID == "" {
		return nil, fmt.Errorf("%w: empty user in /me response", shared.ErrAPIRequest)
	}
	return &env.User, nil
}

// Logout forgets the stored token. The API keeps no session to end.
func (c *AuthClient) Logout() {
	c.api.ClearToken()
}

// CheckHealth calls the API root and fails unless it answers 2xx.
func (c *AuthClient) CheckHealth(ctx context.Context) error {
	resp, err := c.api.Get(ctx, "/")
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError(http.MethodGet, "/", resp)
	}
	return nil
}
