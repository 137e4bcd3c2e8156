package queue

// Routing keys on the auth.events topic exchange.
const (
	Exchange = "auth.events"

	KeyUserRegistered  = "user.registered"
	KeyUserLoggedIn    = "user.loggedin"
	KeyOAuthLinked     = "user.oauth_linked"
	KeySessionsRevoked = "sessions.revoked"
)

type UserRegistered struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserLoggedIn struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Method string `json:"method"` // "password" or the OAuth provider name
}

type OAuthLinked struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

type SessionsRevoked struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
	Reason string `json:"reason"` // "logout", "logout_all", "reuse_detected"
}
