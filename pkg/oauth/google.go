// Package oauth wraps the Google authorization-code flow used by the login
// callback.
package oauth

import (
	"context"
	"fmt"

	"github.com/imroc/req/v3"

	"github.com/sdghub/backend/pkg/config"
)

const (
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleUser is the subset of the userinfo response we keep.
type GoogleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchanger turns an authorization code into a Google identity.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*GoogleUser, error)
}

type GoogleClient struct {
	client       *req.Client
	clientID     string
	clientSecret string
	redirectURL  string
}

func NewGoogleClient(conf *config.Config) *GoogleClient {
	return &GoogleClient{
		client:       req.C(),
		clientID:     conf.Google.ClientID,
		clientSecret: conf.Google.ClientSecret,
		redirectURL:  conf.Google.RedirectURL,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Exchange trades the authorization code for an access token, then fetches
// the user's profile with it.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	var token tokenResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"code":          code,
			"client_id":     g.clientID,
			"client_secret": g.clientSecret,
			"redirect_uri":  g.redirectURL,
			"grant_type":    "authorization_code",
		}).
		SetSuccessResult(&token).
		Post(tokenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("google token exchange: %s", resp.Status)
	}

	var user GoogleUser
	resp, err = g.client.R().
		SetContext(ctx).
		SetBearerAuthToken(token.AccessToken).
		SetSuccessResult(&user).
		Get(userinfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("google userinfo: %s", resp.Status)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("google userinfo: no email in response")
	}
	return &user, nil
}
