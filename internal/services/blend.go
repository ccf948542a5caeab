package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
)

// BlendClient wraps the /blend endpoints. Inputs are trimmed; any other checking is the caller's.
type BlendClient struct {
	api *APIService
}

// NewBlendClient creates a BlendClient on api.
func NewBlendClient(api *APIService) *BlendClient {
	return &BlendClient{api: api}
}

// CreateBlend starts a blend. The server picks the code and adds the caller as first member.
func (c *BlendClient) CreateBlend(ctx context.Context, name string) (*models.BlendSession, error) {
	var session models.BlendSession
	body := map[string]string{"name": strings.TrimSpace(name)}
	if err := c.api.call(ctx, http.MethodPost, "/blend/create", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// InviteToBlend asks the server to invite userID into the blend.
func (c *BlendClient) InviteToBlend(ctx context.Context, code, userID string) (*models.InviteResponse, error) {
	var resp models.InviteResponse
	body := map[string]string{"blend_code": strings.TrimSpace(code), "user_id": strings.TrimSpace(userID)}
	if err := c.api.call(ctx, http.MethodPost, "/blend/invite", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JoinBlend joins the caller to an existing blend. Unknown codes fail with an error wrapping [shared.ErrNotFound].
func (c *BlendClient) JoinBlend(ctx context.Context, code string) (*models.BlendSession, error) {
	var session models.BlendSession
	body := map[string]string{"code": strings.TrimSpace(code)}
	if err := c.api.call(ctx, http.MethodPost, "/blend/join", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListBlends returns the blends the caller belongs to.
func (c *BlendClient) ListBlends(ctx context.Context) ([]models.BlendSummary, error) {
	var list []models.BlendSummary
	if err := c.api.call(ctx, http.MethodGet, "/blends", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.BlendSummary{}
	}
	return list, nil
}

// GetBlend fetches the full session.
func (c *BlendClient) GetBlend(ctx context.Context, code string) (*models.BlendSession, error) {
	var session models.BlendSession
	if err := c.api.call(ctx, http.MethodGet, blendPath(code), nil, &session); err != nil {
		return nil, err
	}
	if session.Code == "" {
		session.Code = strings.TrimSpace(code)
	}
	return &session, nil
}

// DeleteBlend removes the blend. Any 2xx answer counts as success.
func (c *BlendClient) DeleteBlend(ctx context.Context, code string) error {
	return c.api.call(ctx, http.MethodDelete, blendPath(code), nil, nil)
}

func blendPath(code string) string {
	return "/blend/" + url.PathEscape(strings.TrimSpace(code))
}
