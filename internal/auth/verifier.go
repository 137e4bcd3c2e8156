package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/security"
)

// Verifier checks email/password pairs against stored hashes. Unknown email
// and wrong password produce the same ErrInvalidCredentials so responses
// cannot be used for account enumeration.
type Verifier struct {
	users                UserStore
	requireVerifiedEmail bool
}

func NewVerifier(users UserStore, requireVerifiedEmail bool) *Verifier {
	return &Verifier{users: users, requireVerifiedEmail: requireVerifiedEmail}
}

// NormalizeEmail lower-cases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (v *Verifier) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := v.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || !security.CheckPassword(u.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if u.Locked {
		return nil, domain.ErrAccountLocked
	}
	if v.requireVerifiedEmail && !u.EmailVerified {
		return nil, domain.ErrEmailUnverified
	}
	return u, nil
}
