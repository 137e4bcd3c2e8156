package security_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/security"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    domain.NewUserID(),
		Email: "u@example.com",
		Role:  domain.RoleUser,
	}
}

func testSession(userID string) *domain.Session {
	return &domain.Session{
		ID:     domain.NewSessionID(),
		UserID: userID,
		Family: "fam-1",
	}
}

func TestIssueAndVerifyPair(t *testing.T) {
	ts := security.NewTokenService("secret", nil, 15*time.Minute, 7*24*time.Hour)
	u := testUser()
	sess := testSession(u.ID)

	pair, err := ts.Issue(u, sess)
	if err != nil {
		t.Fatal(err)
	}
	if pair.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Fatalf("expiresIn = %d", pair.ExpiresIn)
	}

	ac, err := ts.Verify(pair.AccessToken, domain.TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if ac.Subject != u.ID || ac.Email != u.Email || ac.SessionID != sess.ID {
		t.Fatalf("access claims mismatch: %#v", ac)
	}

	rc, err := ts.Verify(pair.RefreshToken, domain.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if rc.SessionID != sess.ID || rc.Family != sess.Family {
		t.Fatalf("refresh claims mismatch: %#v", rc)
	}

	accessExp := ac.ExpiresAt.Sub(ac.IssuedAt.Time)
	if accessExp != 15*time.Minute {
		t.Fatalf("access ttl = %v", accessExp)
	}
	refreshExp := rc.ExpiresAt.Sub(rc.IssuedAt.Time)
	if refreshExp != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v", refreshExp)
	}
}

func TestVerifyWrongType(t *testing.T) {
	ts := security.NewTokenService("secret", nil, time.Minute, time.Hour)
	u := testUser()
	pair, err := ts.Issue(u, testSession(u.ID))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ts.Verify(pair.RefreshToken, domain.TokenTypeAccess); !errors.Is(err, domain.ErrWrongTokenType) {
		t.Fatalf("refresh as access: %v", err)
	}
	if _, err := ts.Verify(pair.AccessToken, domain.TokenTypeRefresh); !errors.Is(err, domain.ErrWrongTokenType) {
		t.Fatalf("access as refresh: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	ts := security.NewTokenService("secret", nil, -time.Minute, time.Hour)
	u := testUser()
	tok, err := ts.IssueAccess(u, testSession(u.ID))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Verify(tok, domain.TokenTypeAccess); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestVerifyJustBeforeExpiry(t *testing.T) {
	ts := security.NewTokenService("secret", nil, time.Second, time.Hour)
	u := testUser()
	tok, err := ts.IssueAccess(u, testSession(u.ID))
	if err != nil {
		t.Fatal(err)
	}
	// still inside the lifetime, however close to exp
	c, err := ts.Verify(tok, domain.TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify before exp: %v", err)
	}
	if c.Subject != u.ID {
		t.Fatalf("claims mismatch: %#v", c)
	}
}

func TestVerifyTampered(t *testing.T) {
	ts := security.NewTokenService("secret", nil, time.Minute, time.Hour)
	u := testUser()
	tok, err := ts.IssueAccess(u, testSession(u.ID))
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := ts.Verify(tampered, domain.TokenTypeAccess); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("tampered signature: %v", err)
	}

	if _, err := ts.Verify("not-a-jwt", domain.TokenTypeAccess); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("garbage token: %v", err)
	}

	other := security.NewTokenService("different", nil, time.Minute, time.Hour)
	if _, err := other.Verify(tok, domain.TokenTypeAccess); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("wrong secret: %v", err)
	}
}

func writeTempRSA(t *testing.T) string {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.CreateTemp(t.TempDir(), "rsa_*.pem")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestRS256RoundTrip(t *testing.T) {
	activePath := writeTempRSA(t)
	nextPath := writeTempRSA(t)
	km, err := security.NewKeyManager("kidA", activePath, "kidB", nextPath)
	if err != nil {
		t.Fatal(err)
	}

	ts := security.NewTokenService("", km, time.Minute, time.Hour)
	u := testUser()
	tok, err := ts.IssueAccess(u, testSession(u.ID))
	if err != nil {
		t.Fatal(err)
	}

	c, err := ts.Verify(tok, domain.TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify rs256: %v", err)
	}
	if c.Subject != u.ID {
		t.Fatalf("claims mismatch: %#v", c)
	}

	jwks := km.JWKS()
	if len(jwks.Keys) != 2 {
		t.Fatalf("jwks keys = %d", len(jwks.Keys))
	}
	if jwks.Keys[0].Kid != "kidA" || jwks.Keys[1].Kid != "kidB" {
		t.Fatalf("jwks kids: %#v", jwks.Keys)
	}
}
