package devhub

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// Limits fetches the remaining scratch org headroom. Callers snapshot this
// once per run; the number drifts as other consumers provision.
func (c *Client) Limits(ctx context.Context) (Limits, error) {
	var l Limits
	if err := c.doJSON(ctx, http.MethodGet, dataPath("limits"), nil, &l); err != nil {
		return Limits{}, fmt.Errorf("fetching limits: %w", err)
	}
	return l, nil
}

// CreateScratchOrg requests one org from the signup API. The definition file
// is read here so a missing file fails before any remote traffic.
func (c *Client) CreateScratchOrg(ctx context.Context, req SignupRequest) (*OrgInfo, error) {
	definition, err := os.ReadFile(req.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("reading org definition: %w", err)
	}

	body := map[string]any{
		"alias":           req.Alias,
		"definition":      string(definition),
		"durationDays":    req.ExpiryDays,
		"clientRequestId": req.ClientID,
	}

	var info OrgInfo
	if err := c.doJSON(ctx, http.MethodPost, dataPath("signup"), body, &info); err != nil {
		return nil, fmt.Errorf("creating scratch org %s: %w", req.Alias, err)
	}
	return &info, nil
}

// DeleteScratchOrg reclaims one org's capacity via the signup API.
func (c *Client) DeleteScratchOrg(ctx context.Context, orgID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, dataPath("signup", orgID), nil, nil); err != nil {
		return fmt.Errorf("deleting scratch org %s: %w", orgID, err)
	}
	return nil
}

// SetPassword rotates the org user's password to the generated value.
func (c *Client) SetPassword(ctx context.Context, username, password string) error {
	body := map[string]any{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, dataPath("password"), body, nil); err != nil {
		return fmt.Errorf("setting password for %s: %w", username, err)
	}
	return nil
}

// LoginPassword authenticates against an org with username/password and
// returns a client bound to it. Used to change settings on a fresh org.
func (c *Client) LoginPassword(ctx context.Context, loginURL, username, password string) (*Client, error) {
	login := c.ForOrg(loginURL, "")
	body := map[string]any{"grant_type": "password", "username": username, "password": password}

	var resp struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := login.doJSON(ctx, http.MethodPost, "/services/oauth2/token", body, &resp); err != nil {
		return nil, fmt.Errorf("authenticating against %s: %w", username, err)
	}
	return c.ForOrg(resp.InstanceURL, resp.AccessToken), nil
}

// SetNetworkAccess replaces the org's network access ranges. Must be called
// on a client returned by LoginPassword for the target org.
func (c *Client) SetNetworkAccess(ctx context.Context, ranges []IPRange) error {
	body := map[string]any{"networkAccess": map[string]any{"ipRanges": ranges}}
	if err := c.doJSON(ctx, http.MethodPatch, dataPath("settings", "security"), body, nil); err != nil {
		return fmt.Errorf("updating network access: %w", err)
	}
	return nil
}
