// Package oauth exchanges provider authorization codes for verified
// identity profiles.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	GoogleProviderName = "google"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// maxUserInfoBytes caps the userinfo document read from the provider.
const maxUserInfoBytes = 1 << 20

// Provider is an OAuth2 identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	// Exchange trades code for the provider's profile of the signed-in user.
	Exchange(ctx context.Context, code string) (*models.OAuthProfile, error)
}

// GoogleProvider implements Provider for Google accounts.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) Name() string { return GoogleProviderName }

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange rejects profiles whose email Google has not verified.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*models.OAuthProfile, error) {
	if code == "" {
		return nil, common.ErrOAuthExchangeFailed
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOAuthExchangeFailed, err)
	}

	info, err := g.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(info.Email) == "" {
		return nil, common.ErrOAuthProfileIncomplete
	}
	if !info.VerifiedEmail {
		return nil, common.ErrOAuthEmailNotVerified
	}

	profile := &models.OAuthProfile{Email: info.Email}
	if info.Name != "" {
		profile.Name = &info.Name
	}
	if info.Picture != "" {
		profile.Picture = &info.Picture
	}
	return profile, nil
}

func (g *GoogleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", common.ErrOAuthExchangeFailed, resp.StatusCode)
	}

	info := &googleUserInfo{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return info, nil
}
