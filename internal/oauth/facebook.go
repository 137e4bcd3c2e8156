package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	fb "golang.org/x/oauth2/facebook"

	"github.com/adilzhan/auth-core/internal/domain"
)

type Facebook struct {
	cfg *oauth2.Config
}

func NewFacebook(clientID, clientSecret, redirectURL string) *Facebook {
	return &Facebook{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     fb.Endpoint,
		},
	}
}

func (f *Facebook) Name() domain.OAuthProvider { return domain.ProviderFacebook }

func (f *Facebook) AuthCodeURL(state string) string {
	return f.cfg.AuthCodeURL(state)
}

type facebookMe struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (f *Facebook) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	client := f.cfg.Client(ctx, tok)
	resp, err := client.Get("https://graph.facebook.com/v19.0/me?fields=id,name,email,picture.type(large)")
	if err != nil {
		return nil, fmt.Errorf("facebook me: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook me returned status %d", resp.StatusCode)
	}

	var me facebookMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decode facebook me: %w", err)
	}
	if me.ID == "" {
		return nil, fmt.Errorf("facebook me missing id")
	}

	id := &Identity{
		Provider:  domain.ProviderFacebook,
		AccountID: me.ID,
		Email:     me.Email,
		// Facebook only returns addresses it has confirmed.
		EmailVerified: me.Email != "",
		Name:          me.Name,
		Picture:       me.Picture.Data.URL,
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		id.ExpiresAt = &exp
	}
	return id, nil
}
