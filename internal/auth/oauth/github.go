package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	githubDeviceCodeURL = "https://github.com/login/device/code"
	githubTokenURL      = "https://github.com/login/oauth/access_token"
	githubUserURL       = "https://api.github.com/user"
	githubDeviceGrant   = "urn:ietf:params:oauth:grant-type:device_code"
)

// GithubProvider implements the GitHub OAuth device flow. GitHub's device
// endpoints answer with form-encoded bodies, not JSON.
type GithubProvider struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewGithubProvider(cfg ClientConfig, client *http.Client) *GithubProvider {
	return &GithubProvider{cfg: cfg, httpClient: httpClientOrDefault(client)}
}

func (p *GithubProvider) Name() string { return "github" }

func (p *GithubProvider) BeginDeviceFlow(ctx context.Context) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("scope", "user:email")

	values, err := p.postForm(ctx, githubDeviceCodeURL, params)
	if err != nil {
		return nil, fmt.Errorf("github device code request: %w", err)
	}

	payload := make(map[string]interface{}, len(values))
	for key := range values {
		payload[key] = values.Get(key)
	}
	return payload, nil
}

func (p *GithubProvider) PollForToken(ctx context.Context, deviceCode string) (string, error) {
	params := url.Values{}
	params.Set("client_id", p.cfg.ClientID)
	params.Set("device_code", deviceCode)
	params.Set("grant_type", githubDeviceGrant)

	values, err := p.postForm(ctx, githubTokenURL, params)
	if err != nil {
		return "", fmt.Errorf("github token request: %w", err)
	}

	token := values.Get("access_token")
	if token == "" {
		return "", fmt.Errorf("github authorization pending or denied")
	}
	return token, nil
}

func (p *GithubProvider) TokenToAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubUserURL, nil)
	if err != nil {
		return "", fmt.Errorf("build github user request: %w", err)
	}
	req.Header.Set("Authorization", "token "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github user request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read github user response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github user lookup failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode github user response: %w", err)
	}
	if payload.ID == 0 {
		return "", fmt.Errorf("github user response missing id")
	}
	return strconv.FormatInt(payload.ID, 10), nil
}

func (p *GithubProvider) postForm(ctx context.Context, endpoint string, params url.Values) (url.Values, error) {
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

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return values, nil
}
