package client

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// DeviceFlow runs the GitHub OAuth device authorization grant. It needs only
// a client id, so nothing secret ships with the terminal program.
type DeviceFlow struct {
	config *oauth2.Config
}

// NewDeviceFlow returns a flow against github.com. endpoint overrides the
// GitHub endpoints when non-nil, which tests use.
func NewDeviceFlow(clientID string, endpoint *oauth2.Endpoint) *DeviceFlow {
	ep := github.Endpoint
	if endpoint != nil {
		ep = *endpoint
	}
	return &DeviceFlow{config: &oauth2.Config{
		ClientID: clientID,
		Endpoint: ep,
		Scopes:   []string{"read:user", "user:email"},
	}}
}

// Start requests a device code. The user must open VerificationURI and
// enter UserCode before Wait can succeed.
func (f *DeviceFlow) Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	if f.config.ClientID == "" {
		return nil, fmt.Errorf("client: GitHub client id is not configured")
	}
	da, err := f.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("client: requesting device code: %w", err)
	}
	return da, nil
}

// Wait polls until the user approves the device, the code expires, or ctx
// is done, and returns the GitHub access token.
func (f *DeviceFlow) Wait(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error) {
	tok, err := f.config.DeviceAccessToken(ctx, da)
	if err != nil {
		return "", fmt.Errorf("client: waiting for device approval: %w", err)
	}
	return tok.AccessToken, nil
}
