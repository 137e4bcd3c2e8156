package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/helper"
	"github.com/adilzhan/auth-core/internal/log"
	"github.com/adilzhan/auth-core/internal/metrics"
	"github.com/adilzhan/auth-core/internal/oauth"
	"github.com/adilzhan/auth-core/internal/queue"
	"github.com/adilzhan/auth-core/internal/security"
)

// Metadata is per-request audit context recorded on sessions.
type Metadata struct {
	UserAgent string
	IPAddress string
}

// Policy carries the configurable authentication policy.
type Policy struct {
	RequireVerifiedEmail bool
	// RotateRefresh makes refresh tokens single-use: each refresh consumes
	// the backing session and issues a replacement pair. Reuse of a consumed
	// token revokes the whole rotation family.
	RotateRefresh bool
}

// Service composes the credential verifier, token service, session store and
// OAuth flow manager into the login/registration/refresh/logout operations.
type Service struct {
	users    UserStore
	sessions SessionStore
	accounts OAuthAccountStore
	tokens   *security.TokenService
	verifier *Verifier
	flows    *oauth.Manager
	events   queue.Publisher
	policy   Policy
}

func NewService(users UserStore, sessions SessionStore, accounts OAuthAccountStore,
	tokens *security.TokenService, flows *oauth.Manager, events queue.Publisher, policy Policy) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		accounts: accounts,
		tokens:   tokens,
		verifier: NewVerifier(users, policy.RequireVerifiedEmail),
		flows:    flows,
		events:   events,
		policy:   policy,
	}
}

// Register creates a user with a hashed password and logs it in.
func (s *Service) Register(ctx context.Context, email, password, name string, md Metadata) (*domain.AuthResponse, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:            domain.NewUserID(),
		Email:         NormalizeEmail(email),
		PasswordHash:  hash,
		Name:          name,
		Role:          domain.RoleUser,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.RegistrationsTotal.WithLabelValues("email_taken").Inc()
		}
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()

	s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{UserID: u.ID, Email: u.Email, Name: u.Name})
	return s.startSession(ctx, u, md, "")
}

// Login delegates to the credential verifier, then issues a session + tokens.
func (s *Service) Login(ctx context.Context, email, password string, md Metadata) (*domain.AuthResponse, error) {
	u, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", "denied").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("password", "ok").Inc()

	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID, Email: u.Email, Method: "password"})
	return s.startSession(ctx, u, md, "")
}

// OAuthURL starts a provider redirect flow.
func (s *Service) OAuthURL(ctx context.Context, provider domain.OAuthProvider) (*domain.OAuthURLResponse, error) {
	url, state, err := s.flows.AuthURL(ctx, provider)
	if err != nil {
		return nil, err
	}
	return &domain.OAuthURLResponse{URL: url, State: state}, nil
}

// LoginWithOAuth completes a provider callback: validates state, exchanges
// the code, resolves or creates the local account, then issues a session.
func (s *Service) LoginWithOAuth(ctx context.Context, provider domain.OAuthProvider, code, state string, md Metadata) (*domain.AuthResponse, error) {
	id, err := s.flows.Callback(ctx, provider, code, state)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(provider), "denied").Inc()
		return nil, err
	}

	u, err := s.resolveOAuthUser(ctx, id)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(provider), "denied").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues(string(provider), "ok").Inc()

	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID, Email: u.Email, Method: string(provider)})
	return s.startSession(ctx, u, md, "")
}

// resolveOAuthUser maps a provider identity onto a local user: an existing
// link wins; otherwise a verified matching email gets a new link; otherwise a
// fresh user is created with the provider-vouched email.
func (s *Service) resolveOAuthUser(ctx context.Context, id *oauth.Identity) (*domain.User, error) {
	if acc, err := s.accounts.Find(ctx, id.Provider, id.AccountID); err == nil {
		return s.users.FindByID(ctx, acc.UserID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if id.Email == "" {
		return nil, domain.NewValidationError("email", "provider did not supply an email address")
	}

	email := NormalizeEmail(id.Email)
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		// Only a provider-verified email may attach to an existing account.
		if !id.EmailVerified {
			return nil, domain.ErrEmailUnverified
		}
		// One link per provider per user: a different account from the same
		// provider may not displace or duplicate an existing link.
		if _, err := s.accounts.FindByUserAndProvider(ctx, u.ID, id.Provider); err == nil {
			return nil, domain.ErrProviderLinked
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		u = &domain.User{
			ID:            domain.NewUserID(),
			Email:         email,
			Name:          id.Name,
			Role:          domain.RoleUser,
			EmailVerified: id.EmailVerified,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if id.Picture != "" {
			pic := id.Picture
			u.AvatarURL = &pic
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.linkAccount(ctx, u.ID, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) linkAccount(ctx context.Context, userID string, id *oauth.Identity) error {
	now := time.Now().UTC()
	acc := &domain.OAuthAccount{
		ID:                domain.NewOAuthAccountID(),
		UserID:            userID,
		Provider:          id.Provider,
		ProviderAccountID: id.AccountID,
		ExpiresAt:         id.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if id.AccessToken != "" {
		at := id.AccessToken
		acc.AccessToken = &at
	}
	if id.RefreshToken != "" {
		rt := id.RefreshToken
		acc.RefreshToken = &rt
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return err
	}
	s.publish(ctx, queue.KeyOAuthLinked, queue.OAuthLinked{UserID: userID, Provider: string(id.Provider)})
	return nil
}

// Refresh validates a refresh token against its backing session. With
// rotation enabled the session is consumed atomically and replaced; exactly
// one of two racing calls wins the consume, the loser observes
// ErrTokenRevoked. A token whose session is gone revokes its whole family.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.RefreshTokenResponse, error) {
	claims, err := s.tokens.Verify(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("denied").Inc()
		return nil, err
	}

	if !s.policy.RotateRefresh {
		sess, err := s.sessions.Get(ctx, claims.SessionID)
		if err != nil {
			return nil, s.refreshRevoked(ctx, claims, err)
		}
		u, err := s.users.FindByID(ctx, claims.Subject)
		if err != nil {
			return nil, s.refreshRevoked(ctx, claims, err)
		}
		access, err := s.tokens.IssueAccess(u, sess)
		if err != nil {
			return nil, err
		}
		metrics.RefreshTotal.WithLabelValues("ok").Inc()
		return &domain.RefreshTokenResponse{
			AccessToken: access,
			ExpiresIn:   int(s.tokens.AccessTTL().Seconds()),
		}, nil
	}

	old, err := s.sessions.Consume(ctx, claims.SessionID)
	if err != nil {
		return nil, s.refreshRevoked(ctx, claims, err)
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, s.refreshRevoked(ctx, claims, err)
	}

	sess, err := s.newSession(ctx, u.ID, Metadata{
		UserAgent: deref(old.UserAgent),
		IPAddress: deref(old.IPAddress),
	}, old.Family)
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.Issue(u, sess)
	if err != nil {
		return nil, err
	}
	metrics.RefreshTotal.WithLabelValues("ok").Inc()
	return &domain.RefreshTokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// refreshRevoked handles a structurally valid refresh token whose backing
// record is gone: either it was already rotated (theft signal) or the user
// logged out. The rotation family is purged either way.
func (s *Service) refreshRevoked(ctx context.Context, claims *security.Claims, cause error) error {
	if !errors.Is(cause, domain.ErrNotFound) {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return cause
	}
	metrics.RefreshTotal.WithLabelValues("revoked").Inc()
	if claims.Family != "" {
		if n, err := s.sessions.DeleteFamily(ctx, claims.Family); err == nil && n > 0 {
			metrics.SessionsRevoked.Add(float64(n))
			log.WithDD(ctx, log.L).Warn("refresh reuse detected, family revoked",
				zap.String("user_id", claims.Subject),
				zap.String("token", helper.Hash8(claims.SessionID)),
				zap.Int64("sessions", n),
			)
			s.publish(ctx, queue.KeySessionsRevoked, queue.SessionsRevoked{
				UserID: claims.Subject, Count: n, Reason: "reuse_detected",
			})
		}
	}
	return domain.ErrTokenRevoked
}

// Logout deletes one of the user's own sessions. Absent and foreign session
// ids are a no-op, so logout stays idempotent and reveals nothing about other
// users' sessions.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.SessionsRevoked.Inc()
	return nil
}

// LogoutAll revokes every session for the user, e.g. on password change or
// suspected compromise.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.SessionsRevoked.Add(float64(n))
		s.publish(ctx, queue.KeySessionsRevoked, queue.SessionsRevoked{
			UserID: userID, Count: n, Reason: "logout_all",
		})
	}
	return nil
}

// Sessions lists the user's live sessions, newest first.
func (s *Service) Sessions(ctx context.Context, userID string, page, limit int) ([]*domain.Session, int64, error) {
	return s.sessions.ListActiveForUser(ctx, userID, page, limit)
}

// User fetches an identity record by id.
func (s *Service) User(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// startSession persists a new session and mints the token pair. A failure
// after session creation leaves a harmless orphan which the store's TTL
// reclamation removes.
func (s *Service) startSession(ctx context.Context, u *domain.User, md Metadata, family string) (*domain.AuthResponse, error) {
	sess, err := s.newSession(ctx, u.ID, md, family)
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.Issue(u, sess)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		User:         *u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *Service) newSession(ctx context.Context, userID string, md Metadata, family string) (*domain.Session, error) {
	if family == "" {
		var err error
		if family, err = security.NewFamilyID(); err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        domain.NewSessionID(),
		UserID:    userID,
		Family:    family,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
		CreatedAt: now,
	}
	if md.UserAgent != "" {
		ua := md.UserAgent
		sess.UserAgent = &ua
	}
	if md.IPAddress != "" {
		ip := md.IPAddress
		sess.IPAddress = &ip
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) publish(ctx context.Context, key string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.Exchange, key, event, helper.RequestIDFrom(ctx)); err != nil {
		log.WithDD(ctx, log.L).Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
