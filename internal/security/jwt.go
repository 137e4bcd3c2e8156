package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adilzhan/auth-core/internal/domain"
)

// Claims is the signed claim set. Type discriminates access from refresh
// tokens; SessionID and Family are set on refresh tokens (and SessionID on
// access tokens, so a bearer can end its own session).
type Claims struct {
	Email     string           `json:"email"`
	Role      domain.UserRole  `json:"role"`
	Type      domain.TokenType `json:"type"`
	SessionID string           `json:"sid,omitempty"`
	Family    string           `json:"fam,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair; ExpiresIn is the access lifetime in
// seconds.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// TokenService signs and verifies JWTs with process-wide key material loaded
// at startup. HS256 with a shared secret by default; when a KeyManager is
// supplied it signs RS256 with the active key and verifies against every
// published kid (dual-key rotation window).
type TokenService struct {
	secret     []byte
	keys       *KeyManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, keys *KeyManager, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// Issue mints the access/refresh pair for a user and its backing session.
func (ts *TokenService) Issue(u *domain.User, sess *domain.Session) (Pair, error) {
	access, err := ts.sign(u, sess, domain.TokenTypeAccess, ts.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := ts.sign(u, sess, domain.TokenTypeRefresh, ts.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(ts.accessTTL.Seconds()),
	}, nil
}

// IssueAccess mints a lone access token bound to an existing session.
func (ts *TokenService) IssueAccess(u *domain.User, sess *domain.Session) (string, error) {
	return ts.sign(u, sess, domain.TokenTypeAccess, ts.accessTTL)
}

func (ts *TokenService) sign(u *domain.User, sess *domain.Session, typ domain.TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Email: u.Email,
		Role:  u.Role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if sess != nil {
		c.SessionID = sess.ID
		c.Family = sess.Family
	}

	if ts.keys != nil {
		t := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
		t.Header["kid"] = ts.keys.Active.Kid
		return t.SignedString(ts.keys.Active.Private)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(ts.secret)
}

// Verify parses and validates a token and enforces the expected type.
// Failures map to the domain taxonomy: ErrTokenExpired once now >= exp,
// ErrWrongTokenType on a type mismatch, ErrTokenMalformed for everything
// structural.
func (ts *TokenService) Verify(token string, want domain.TokenType) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, ts.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, domain.ErrTokenMalformed
	}
	if c.Type != want {
		return nil, domain.ErrWrongTokenType
	}
	return c, nil
}

func (ts *TokenService) keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); ok {
		if ts.keys == nil {
			return nil, errors.New("rsa token but no key manager")
		}
		kid, _ := t.Header["kid"].(string)
		if pk, ok := ts.keys.PublicByKid(kid); ok {
			return pk, nil
		}
		return nil, errors.New("unknown kid")
	}
	return ts.secret, nil
}
