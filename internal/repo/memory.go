package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adilzhan/auth-core/internal/domain"
)

// In-memory stores backing tests and single-process development runs. All
// maps sit behind one mutex per store, which is what makes Consume and state
// consumption atomic.

type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

func (m *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[u.Email]; taken {
		return domain.ErrEmailTaken
	}
	m.byID[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := m.byID[id]
	return &u, nil
}

func (m *MemoryUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type MemorySessions struct {
	mu   sync.Mutex
	byID map[string]domain.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{byID: map[string]domain.Session{}}
}

func (m *MemorySessions) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = *s
	return nil
}

func (m *MemorySessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.Expired(time.Now().UTC()) {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MemorySessions) Consume(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok || s.Expired(time.Now().UTC()) {
		return nil, domain.ErrNotFound
	}
	delete(m.byID, id)
	return &s, nil
}

func (m *MemorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *MemorySessions) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.UserID == userID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *MemorySessions) DeleteFamily(ctx context.Context, family string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.Family == family {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *MemorySessions) ListActiveForUser(ctx context.Context, userID string, page, limit int) ([]*domain.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var live []domain.Session
	for _, s := range m.byID {
		if s.UserID == userID && !s.Expired(now) {
			live = append(live, s)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })

	total := int64(len(live))
	start := (page - 1) * limit
	if start >= len(live) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(live) {
		end = len(live)
	}
	out := make([]*domain.Session, 0, end-start)
	for i := start; i < end; i++ {
		s := live[i]
		out = append(out, &s)
	}
	return out, total, nil
}

type MemoryOAuthAccounts struct {
	mu     sync.RWMutex
	byKey  map[string]domain.OAuthAccount
	byUser map[string]domain.OAuthAccount
}

func NewMemoryOAuthAccounts() *MemoryOAuthAccounts {
	return &MemoryOAuthAccounts{
		byKey:  map[string]domain.OAuthAccount{},
		byUser: map[string]domain.OAuthAccount{},
	}
}

func accountKey(p domain.OAuthProvider, id string) string { return string(p) + "\x00" + id }

func userKey(userID string, p domain.OAuthProvider) string { return userID + "\x00" + string(p) }

func (m *MemoryOAuthAccounts) Create(ctx context.Context, a *domain.OAuthAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byKey[accountKey(a.Provider, a.ProviderAccountID)]; taken {
		return domain.ErrProviderLinked
	}
	if _, taken := m.byUser[userKey(a.UserID, a.Provider)]; taken {
		return domain.ErrProviderLinked
	}
	m.byKey[accountKey(a.Provider, a.ProviderAccountID)] = *a
	m.byUser[userKey(a.UserID, a.Provider)] = *a
	return nil
}

func (m *MemoryOAuthAccounts) Find(ctx context.Context, provider domain.OAuthProvider, providerAccountID string) (*domain.OAuthAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byKey[accountKey(provider, providerAccountID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *MemoryOAuthAccounts) FindByUserAndProvider(ctx context.Context, userID string, provider domain.OAuthProvider) (*domain.OAuthAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byUser[userKey(userID, provider)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

type stateEntry struct {
	provider  domain.OAuthProvider
	expiresAt time.Time
}

type MemoryStates struct {
	mu     sync.Mutex
	states map[string]stateEntry
}

func NewMemoryStates() *MemoryStates {
	return &MemoryStates{states: map[string]stateEntry{}}
}

func (m *MemoryStates) Put(ctx context.Context, state string, provider domain.OAuthProvider, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = stateEntry{provider: provider, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStates) Consume(ctx context.Context, state string) (domain.OAuthProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.states[state]
	if !ok {
		return "", domain.ErrInvalidState
	}
	delete(m.states, state)
	if time.Now().After(e.expiresAt) {
		return "", domain.ErrInvalidState
	}
	return e.provider, nil
}
