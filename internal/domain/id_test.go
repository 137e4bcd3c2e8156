package domain_test

import (
	"testing"

	"github.com/adilzhan/auth-core/internal/domain"
)

func TestIDPrefixes(t *testing.T) {
	cases := []struct {
		id     string
		prefix string
	}{
		{domain.NewUserID(), domain.PrefixUser},
		{domain.NewSessionID(), domain.PrefixSession},
		{domain.NewOAuthAccountID(), domain.PrefixOAuthAccount},
	}
	for _, tc := range cases {
		if !domain.HasPrefix(tc.id, tc.prefix) {
			t.Errorf("id %q lacks prefix %q", tc.id, tc.prefix)
		}
	}
	if domain.HasPrefix(domain.NewUserID(), domain.PrefixSession) {
		t.Error("user id matched session prefix")
	}
}

func TestIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := domain.NewUserID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestProviderValid(t *testing.T) {
	for _, p := range []domain.OAuthProvider{domain.ProviderGoogle, domain.ProviderFacebook, domain.ProviderTwitter} {
		if !p.Valid() {
			t.Errorf("%s invalid", p)
		}
	}
	if domain.OAuthProvider("github").Valid() {
		t.Error("github accepted")
	}
}
