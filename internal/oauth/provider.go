package oauth

import (
	"context"
	"time"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/security"
)

// Identity is what a provider vouches for after a successful code exchange.
type Identity struct {
	Provider      domain.OAuthProvider
	AccountID     string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     *time.Time
}

// Provider is the per-provider capability surface: build the authorization
// URL and turn a callback code into a verified external identity.
type Provider interface {
	Name() domain.OAuthProvider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// StateStore records issued anti-forgery state tokens. Consume is atomic
// check-and-delete: concurrent callback deliveries for one state see exactly
// one success. It returns domain.ErrInvalidState for unknown or expired
// state.
type StateStore interface {
	Put(ctx context.Context, state string, provider domain.OAuthProvider, ttl time.Duration) error
	Consume(ctx context.Context, state string) (domain.OAuthProvider, error)
}

// Manager drives the redirect flow: state issuance on the way out, state
// consumption plus code exchange on the way back.
type Manager struct {
	providers map[domain.OAuthProvider]Provider
	states    StateStore
	stateTTL  time.Duration
}

func NewManager(states StateStore, stateTTL time.Duration, providers ...Provider) *Manager {
	m := &Manager{
		providers: make(map[domain.OAuthProvider]Provider, len(providers)),
		states:    states,
		stateTTL:  stateTTL,
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	return m
}

// AuthURL issues a single-use state token and returns the provider's
// authorization URL embedding it.
func (m *Manager) AuthURL(ctx context.Context, provider domain.OAuthProvider) (url, state string, err error) {
	p, ok := m.providers[provider]
	if !ok {
		return "", "", domain.ErrNotFound
	}
	state, err = security.NewStateToken()
	if err != nil {
		return "", "", err
	}
	if err := m.states.Put(ctx, state, provider, m.stateTTL); err != nil {
		return "", "", err
	}
	return p.AuthCodeURL(state), state, nil
}

// Callback consumes the state (single use, regardless of outcome) and
// exchanges the code. A state that is unknown, expired, or bound to a
// different provider fails with domain.ErrInvalidState.
func (m *Manager) Callback(ctx context.Context, provider domain.OAuthProvider, code, state string) (*Identity, error) {
	p, ok := m.providers[provider]
	if !ok {
		return nil, domain.ErrNotFound
	}
	boundTo, err := m.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if boundTo != provider {
		return nil, domain.ErrInvalidState
	}
	return p.Exchange(ctx, code)
}
