package auth

import (
	"context"

	"github.com/adilzhan/auth-core/internal/domain"
)

// UserStore is the persistence boundary for identity records.
// Create returns domain.ErrEmailTaken when the normalized email is already
// registered; lookups return domain.ErrNotFound for absent users.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// SessionStore is the persistence boundary for live sessions.
//
// Get returns domain.ErrNotFound for absent and for expired-but-unpurged
// records (lazy expiry). Consume atomically fetches and deletes a live
// session; two racing Consume calls for one id see exactly one success, the
// loser gets domain.ErrNotFound. Deletes are idempotent.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Consume(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteFamily(ctx context.Context, family string) (int64, error)
	ListActiveForUser(ctx context.Context, userID string, page, limit int) ([]*domain.Session, int64, error)
}

// OAuthAccountStore is the persistence boundary for provider links. A user
// holds at most one link per provider; Create returns domain.ErrProviderLinked
// when either the (provider, provider_account_id) pair or the
// (user_id, provider) pair is already taken. Lookups return domain.ErrNotFound
// when no link exists.
type OAuthAccountStore interface {
	Create(ctx context.Context, a *domain.OAuthAccount) error
	Find(ctx context.Context, provider domain.OAuthProvider, providerAccountID string) (*domain.OAuthAccount, error)
	FindByUserAndProvider(ctx context.Context, userID string, provider domain.OAuthProvider) (*domain.OAuthAccount, error)
}
