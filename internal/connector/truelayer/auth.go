package truelayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finance-sync-go/internal/models"
)

const defaultAuthURL = "https://auth.truelayer.com"

// Auth handles the OAuth side of TrueLayer: authorization URLs, the initial
// code exchange and token refresh.
type Auth struct {
	clientId     string
	clientSecret string
	redirectURI  string
	authURL      string
	httpClient   *http.Client
}

func NewAuth(cfg models.TrueLayerConfig, httpClient *http.Client) *Auth {
	return &Auth{
		clientId:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authURL:      defaultAuthURL,
		httpClient:   httpClient,
	}
}

// AuthorizationURL builds the OAuth consent URL the user is sent to.
func (a *Auth) AuthorizationURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {a.clientId},
		"redirect_uri":  {a.redirectURI},
		"scope":         {"info accounts transactions balance cards investments"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return a.authURL + "/connect/auth?" + params.Encode()
}

// ExchangeCode trades an authorization code for tokens.
func (a *Auth) ExchangeCode(ctx context.Context, code string) (models.Credentials, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {a.clientId},
		"client_secret": {a.clientSecret},
		"redirect_uri":  {a.redirectURI},
		"code":          {code},
	}

	resp, err := a.token(ctx, form)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return toCredentials(resp), nil
}

// RefreshToken exchanges a refresh token for new tokens.
func (a *Auth) RefreshToken(ctx context.Context, refreshToken string) (models.Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {a.clientId},
		"client_secret": {a.clientSecret},
		"refresh_token": {refreshToken},
	}

	resp, err := a.token(ctx, form)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to refresh token: %w", err)
	}
	return toCredentials(resp), nil
}

func (a *Auth) token(ctx context.Context, form url.Values) (*authResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var authResp authResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, fmt.Errorf("unable to decode token response: %w", err)
	}
	return &authResp, nil
}

func toCredentials(resp *authResponse) models.Credentials {
	return models.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(resp.ExpiresIn) * time.Second),
		Extra:        map[string]string{"scope": resp.Scope},
	}
}
