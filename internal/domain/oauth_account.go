package domain

import "time"

type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "google"
	ProviderFacebook OAuthProvider = "facebook"
	ProviderTwitter  OAuthProvider = "twitter"
)

// Valid reports whether p is one of the supported providers.
func (p OAuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderTwitter:
		return true
	}
	return false
}

// OAuthAccount links a User to an external identity. The
// (provider, provider_account_id) pair is globally unique and a user holds at
// most one account per provider. Provider-issued credentials are stored but
// never serialized to clients.
type OAuthAccount struct {
	ID                string        `bson:"_id"                     json:"id"`
	UserID            string        `bson:"user_id"                 json:"userId"`
	Provider          OAuthProvider `bson:"provider"                json:"provider"`
	ProviderAccountID string        `bson:"provider_account_id"     json:"providerAccountId"`
	AccessToken       *string       `bson:"access_token,omitempty"  json:"-"`
	RefreshToken      *string       `bson:"refresh_token,omitempty" json:"-"`
	ExpiresAt         *time.Time    `bson:"expires_at,omitempty"    json:"expiresAt,omitempty"`
	CreatedAt         time.Time     `bson:"created_at"              json:"createdAt"`
	UpdatedAt         time.Time     `bson:"updated_at"              json:"updatedAt"`
}
