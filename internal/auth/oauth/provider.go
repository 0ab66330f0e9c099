// Package oauth wraps the two external identity providers' device-flow HTTP
// endpoints. Each provider exposes the same three opaque operations: begin a
// device flow, poll a device code for an access token, and resolve an access
// token to the provider-side account id.
package oauth

import (
	"context"
	"net/http"
	"time"
)

// Provider is one external device-flow identity provider.
type Provider interface {
	Name() string

	// BeginDeviceFlow starts a device authorization and returns the
	// provider's response (device code, user code, verification URL) as-is.
	BeginDeviceFlow(ctx context.Context) (map[string]interface{}, error)

	// PollForToken exchanges a device code for an access token. The error is
	// non-nil while authorization is pending or was denied.
	PollForToken(ctx context.Context, deviceCode string) (string, error)

	// TokenToAccountID resolves an access token to the provider-side account
	// id of the authenticated user.
	TokenToAccountID(ctx context.Context, accessToken string) (string, error)
}

// ClientConfig carries one provider's application credentials. It is loaded
// from configuration and injected; providers hold no package-level state.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 10 * time.Second}
	}
	return client
}
