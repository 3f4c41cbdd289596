// Package oauth implements the authorization-code exchange with external
// identity providers.
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
	defaultGitHubAuthURL   = "https://github.com/login/oauth/authorize"
	defaultGitHubTokenURL  = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL   = "https://api.github.com/user"
	defaultGitHubEmailsURL = "https://api.github.com/user/emails"
)

// UserInfo is the provider-side identity resolved from a callback code.
// Email is the account's primary, verified email address.
type UserInfo struct {
	ProviderUserID string
	Email          string
	Login          string
	Name           string
}

// Provider abstracts an OAuth identity provider so additional providers can
// be added without touching the auth service.
type Provider interface {
	// Name is the provider identifier stored on linked accounts.
	Name() string
	// AuthorizationURL builds the URL the browser is redirected to.
	AuthorizationURL(state string) string
	// ExchangeCode trades an authorization code for the provider identity.
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
}

// ProviderError is a rejection by the provider itself (invalid code,
// missing verified email). Callers map it to a client error; every other
// exchange failure is a server error.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// GitHubConfig configures the GitHub provider. The endpoint URLs are
// overridable so tests can point at a local server.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string
}

type GitHubProvider struct {
	config GitHubConfig
	client *http.Client
}

func NewGitHubProvider(config GitHubConfig) *GitHubProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGitHubAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGitHubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGitHubUserURL
	}
	if config.EmailsURL == "" {
		config.EmailsURL = defaultGitHubEmailsURL
	}
	return &GitHubProvider{config: config, client: http.DefaultClient}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"read:user user:email"},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	accessToken, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := p.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	email, err := p.fetchPrimaryEmail(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &UserInfo{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		Login:          user.Login,
		Name:           user.Name,
	}, nil
}

type githubTokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHubProvider) exchangeToken(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	// GitHub reports invalid or expired codes with a 200 response carrying
	// an error field.
	if tokenResp.Error != "" {
		return "", &ProviderError{Code: tokenResp.Error, Message: tokenResp.ErrorDescription}
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	return tokenResp.AccessToken, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	var user githubUser
	if err := p.getJSON(ctx, p.config.UserURL, accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("missing user id in profile response")
	}
	return &user, nil
}

func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []githubEmail
	if err := p.getJSON(ctx, p.config.EmailsURL, accessToken, &emails); err != nil {
		return "", fmt.Errorf("failed to fetch emails: %w", err)
	}

	for _, e := range emails {
		if !e.Primary {
			continue
		}
		if !e.Verified {
			return "", &ProviderError{
				Code:    "unverified_email",
				Message: "Unverified email in your github account",
			}
		}
		return e.Email, nil
	}

	return "", &ProviderError{
		Code:    "no_primary_email",
		Message: "No primary email address in your github account",
	}
}

func (p *GitHubProvider) getJSON(ctx context.Context, endpoint, accessToken string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, v)
}

// compile-time interface check
var _ Provider = (*GitHubProvider)(nil)
