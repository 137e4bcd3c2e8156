package domain

// TokenType discriminates access tokens from refresh tokens. It is a
// mandatory claim and is checked on every verification, so a refresh token
// can never be presented where an access token is expected and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthResponse is returned by register, login and OAuth login.
type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime, seconds
}

// RefreshTokenResponse is returned by token refresh. RefreshToken is set only
// when rotation is enabled and carries the replacement for the consumed token.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
}

// OAuthURLResponse is returned when starting a provider redirect flow.
type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
