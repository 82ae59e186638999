// Package session owns the credential lifetime for one bot invocation: it
// decides when a token refresh is due, performs it, and persists the updated
// credential.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/wdzeng/shopback-bot/internal/credential"
	"github.com/wdzeng/shopback-bot/internal/shopback"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// refreshMargin shortens the server-reported token lifetime so operations
// never present a token close to true expiry.
const refreshMargin = 10 * time.Minute

// homeCountry is the only region this bot operates in.
const homeCountry = "TW"

// Gateway is the subset of the ShopBack API the session manager needs.
type Gateway interface {
	Refresh(ctx context.Context, accessToken, refreshToken, userAgent string) (*shopback.TokenSet, error)
	GetProfile(ctx context.Context, accessToken, userAgent string) (*domain.Profile, error)
}

// Manager holds the credential and its expiry for one invocation. It is not
// safe for concurrent use; callers refresh before a concurrent phase starts,
// never during one.
type Manager struct {
	gateway  Gateway
	credPath string
	cred     credential.Credential
	// expiresAt is zero until the first successful refresh.
	expiresAt time.Time
	nowFunc   func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithCredentialFile configures the manager to load its credential from path
// and persist refreshed tokens back to it.
func WithCredentialFile(path string) Option {
	return func(m *Manager) {
		m.credPath = path
	}
}

// WithCredential seeds an in-memory credential for ephemeral sessions.
// Refreshed tokens are not persisted anywhere.
func WithCredential(cred credential.Credential) Option {
	return func(m *Manager) {
		m.cred = cred
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = f
	}
}

// NewManager creates a session manager. Without a credential file or seed
// credential the session is unauthenticated and EnsureValid fails.
func NewManager(gateway Gateway, opts ...Option) *Manager {
	m := &Manager{
		gateway: gateway,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Credential returns the current token triple. Valid only after a successful
// EnsureValid.
func (m *Manager) Credential() credential.Credential {
	return m.cred
}

// EnsureValid guarantees the access token is usable. The common path is a
// pure time comparison with no network call; a refresh happens only when the
// expiry is unknown or has passed. On success all refreshed token fields are
// swapped in and persisted; on failure the session state is left untouched.
func (m *Manager) EnsureValid(ctx context.Context) error {
	now := m.nowFunc()
	if !m.expiresAt.IsZero() && !now.After(m.expiresAt) {
		return nil
	}

	if !m.cred.Valid() {
		if m.credPath == "" {
			return &shopback.NotLoggedInError{}
		}
		cred, err := credential.Load(m.credPath)
		if err != nil {
			return err
		}
		m.cred = cred
	}

	tokens, err := m.gateway.Refresh(
		ctx,
		m.cred.AccessToken,
		m.cred.RefreshToken,
		m.cred.ClientUserAgent,
	)
	if err != nil {
		return err
	}

	m.cred.AccessToken = tokens.AccessToken
	m.cred.RefreshToken = tokens.RefreshToken
	m.expiresAt = m.nowFunc().Add(tokens.ExpiresIn - refreshMargin)

	if m.credPath != "" {
		if err := credential.Save(m.credPath, m.cred); err != nil {
			return fmt.Errorf("persisting refreshed credential: %w", err)
		}
	}
	return nil
}

// Profile fetches the account profile with a valid token.
func (m *Manager) Profile(ctx context.Context) (*domain.Profile, error) {
	if err := m.EnsureValid(ctx); err != nil {
		return nil, err
	}
	return m.gateway.GetProfile(ctx, m.cred.AccessToken, m.cred.ClientUserAgent)
}

// ValidateRegion checks that the account belongs to the service's home
// region. It caches nothing and is safe to call repeatedly.
func (m *Manager) ValidateRegion(ctx context.Context) error {
	profile, err := m.Profile(ctx)
	if err != nil {
		return err
	}
	if profile.Country != homeCountry {
		return &shopback.UserNotInTaiwanError{Country: profile.Country}
	}
	return nil
}

// Username returns the display name of the logged-in account, validating the
// region along the way.
func (m *Manager) Username(ctx context.Context) (string, error) {
	profile, err := m.Profile(ctx)
	if err != nil {
		return "", err
	}
	if profile.Country != homeCountry {
		return "", &shopback.UserNotInTaiwanError{Country: profile.Country}
	}
	return profile.Name, nil
}
