package domain

import "time"

// Session anchors a refresh token to a user and makes it revocable.
// UserAgent and IPAddress are audit metadata only, never used for
// authorization decisions. Family groups the sessions produced by a chain of
// refresh rotations so a detected token reuse can revoke the whole chain.
type Session struct {
	ID        string    `bson:"_id"                  json:"id"`
	UserID    string    `bson:"user_id"              json:"userId"`
	Family    string    `bson:"family"               json:"-"`
	UserAgent *string   `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	IPAddress *string   `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"           json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at"           json:"createdAt"`
}

// Expired reports whether the session is logically dead at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
