package domain

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
)

// User is the root identity record. Email is stored normalized (lower-case,
// trimmed) and is unique; PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID            string    `bson:"_id"                      json:"id"`
	Email         string    `bson:"email"                    json:"email"`
	PasswordHash  string    `bson:"password_hash,omitempty"  json:"-"`
	Name          string    `bson:"name"                     json:"name"`
	AvatarURL     *string   `bson:"avatar_url,omitempty"     json:"avatarUrl,omitempty"`
	Role          UserRole  `bson:"role"                     json:"role"`
	EmailVerified bool      `bson:"email_verified"           json:"emailVerified"`
	Locked        bool      `bson:"locked"                   json:"-"`
	CreatedAt     time.Time `bson:"created_at"               json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at"               json:"updatedAt"`
}

// PublicUser is the profile projection safe to expose to non-owners.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public derives the non-owner projection. PublicUser is never built by hand.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, CreatedAt: u.CreatedAt}
}
