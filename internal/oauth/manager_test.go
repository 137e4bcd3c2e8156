package oauth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/oauth"
	"github.com/adilzhan/auth-core/internal/repo"
)

type stubProvider struct{ name domain.OAuthProvider }

func (s stubProvider) Name() domain.OAuthProvider { return s.name }

func (s stubProvider) AuthCodeURL(state string) string {
	return "https://" + string(s.name) + ".test/authorize?state=" + state
}

func (s stubProvider) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	return &oauth.Identity{Provider: s.name, AccountID: "acct-" + code}, nil
}

func newManager(ttl time.Duration) *oauth.Manager {
	return oauth.NewManager(repo.NewMemoryStates(), ttl,
		stubProvider{name: domain.ProviderGoogle},
		stubProvider{name: domain.ProviderFacebook},
	)
}

func TestAuthURLEmbedsState(t *testing.T) {
	m := newManager(time.Minute)
	url, state, err := m.AuthURL(context.Background(), domain.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if state == "" || !strings.Contains(url, state) {
		t.Fatalf("url %q state %q", url, state)
	}

	_, other, err := m.AuthURL(context.Background(), domain.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if other == state {
		t.Fatal("state tokens repeat")
	}
}

func TestCallbackConsumesState(t *testing.T) {
	m := newManager(time.Minute)
	ctx := context.Background()

	_, state, err := m.AuthURL(ctx, domain.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	id, err := m.Callback(ctx, domain.ProviderGoogle, "c1", state)
	if err != nil {
		t.Fatal(err)
	}
	if id.Provider != domain.ProviderGoogle || id.AccountID != "acct-c1" {
		t.Fatalf("identity: %#v", id)
	}

	if _, err := m.Callback(ctx, domain.ProviderGoogle, "c1", state); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second use: %v", err)
	}
}

func TestCallbackProviderMismatch(t *testing.T) {
	m := newManager(time.Minute)
	ctx := context.Background()

	_, state, err := m.AuthURL(ctx, domain.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Callback(ctx, domain.ProviderFacebook, "c1", state); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("cross-provider state: %v", err)
	}
	// the mismatch still burned the state
	if _, err := m.Callback(ctx, domain.ProviderGoogle, "c1", state); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("state survived mismatch: %v", err)
	}
}

func TestCallbackExpiredState(t *testing.T) {
	m := newManager(-time.Second)
	ctx := context.Background()

	_, state, err := m.AuthURL(ctx, domain.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Callback(ctx, domain.ProviderGoogle, "c1", state); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expired state: %v", err)
	}
}

func TestUnknownProvider(t *testing.T) {
	m := newManager(time.Minute)
	ctx := context.Background()

	if _, _, err := m.AuthURL(ctx, domain.ProviderTwitter); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("auth url: %v", err)
	}
	if _, err := m.Callback(ctx, domain.ProviderTwitter, "c1", "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("callback: %v", err)
	}
}
