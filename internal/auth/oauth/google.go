package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	googleDeviceCodeURL = "https://oauth2.googleapis.com/device/code"
	googleTokenURL      = "https://oauth2.googleapis.com/token"
	googleTokenInfoURL  = "https://oauth2.googleapis.com/tokeninfo"
	googleDeviceGrant   = "http://oauth.net/grant_type/device/1.0"
)

// GoogleProvider implements the Google OAuth device flow. The token handed to
// clients is Google's id_token; TokenToAccountID resolves it through the
// tokeninfo endpoint and returns the "sub" claim.
type GoogleProvider struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewGoogleProvider(cfg ClientConfig, client *http.Client) *GoogleProvider {
	return &GoogleProvider{cfg: cfg, httpClient: httpClientOrDefault(client)}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) BeginDeviceFlow(ctx context.Context) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("scope", "email profile")

	body, err := p.postForm(ctx, googleDeviceCodeURL, params)
	if err != nil {
		return nil, fmt.Errorf("google device code request: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode google device code response: %w", err)
	}
	return payload, nil
}

func (p *GoogleProvider) PollForToken(ctx context.Context, deviceCode string) (string, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("client_secret", p.cfg.ClientSecret)
	params.Set("code", deviceCode)
	params.Set("grant_type", googleDeviceGrant)

	body, err := p.postForm(ctx, googleTokenURL, params)
	if err != nil {
		return "", fmt.Errorf("google token request: %w", err)
	}

	var payload struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode google token response: %w", err)
	}
	if payload.IDToken == "" {
		return "", fmt.Errorf("google authorization pending or denied")
	}
	return payload.IDToken, nil
}

func (p *GoogleProvider) TokenToAccountID(ctx context.Context, accessToken string) (string, error) {
	endpoint := googleTokenInfoURL + "?id_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build google tokeninfo request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("google tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read google tokeninfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google tokeninfo failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Sub string `json:"sub"`
		Aud string `json:"aud"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode google tokeninfo response: %w", err)
	}
	if payload.Sub == "" {
		return "", fmt.Errorf("google tokeninfo response missing subject")
	}
	if payload.Aud != p.cfg.ClientID {
		return "", fmt.Errorf("google token issued for another client")
	}
	return payload.Sub, nil
}

func (p *GoogleProvider) postForm(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return body, nil
}
