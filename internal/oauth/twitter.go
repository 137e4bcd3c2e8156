package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/adilzhan/auth-core/internal/domain"
)

// twitterEndpoint is the OAuth 2.0 (PKCE-capable) v2 endpoint.
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

type Twitter struct {
	cfg *oauth2.Config
}

func NewTwitter(clientID, clientSecret, redirectURL string) *Twitter {
	return &Twitter{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"users.read", "tweet.read", "offline.access"},
			Endpoint:     twitterEndpoint,
		},
	}
}

func (t *Twitter) Name() domain.OAuthProvider { return domain.ProviderTwitter }

func (t *Twitter) AuthCodeURL(state string) string {
	return t.cfg.AuthCodeURL(state)
}

type twitterMe struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

// Exchange trades the code and reads the account from /2/users/me. The v2
// API exposes no email address, so the identity comes back without one and
// account linking has to go through an existing provider link.
func (t *Twitter) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	client := t.cfg.Client(ctx, tok)
	resp, err := client.Get("https://api.twitter.com/2/users/me?user.fields=profile_image_url")
	if err != nil {
		return nil, fmt.Errorf("twitter me: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter me returned status %d", resp.StatusCode)
	}

	var me twitterMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decode twitter me: %w", err)
	}
	if me.Data.ID == "" {
		return nil, fmt.Errorf("twitter me missing id")
	}

	id := &Identity{
		Provider:     domain.ProviderTwitter,
		AccountID:    me.Data.ID,
		Name:         me.Data.Name,
		Picture:      me.Data.ProfileImageURL,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		id.ExpiresAt = &exp
	}
	return id, nil
}
