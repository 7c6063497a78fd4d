package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/petmily/petmily-go/api"
	"github.com/petmily/petmily-go/credentials"
	"github.com/petmily/petmily-go/users"
)

// AuthAPI is the slice of the backend client the state machine drives.
type AuthAPI interface {
	// Login exchanges credentials for a bearer token
	Login(ctx context.Context, username, password string) (*api.TokenResponse, error)

	// Register creates an account; success does not authenticate
	Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error)

	// ExchangeKakaoToken trades a provider token for a backend bearer token
	ExchangeKakaoToken(ctx context.Context, accessToken string) (*api.TokenResponse, error)

	// Logout invalidates the session server-side (best effort)
	Logout(ctx context.Context) error
}

var _ AuthAPI = (*api.Client)(nil)

// Manager holds the single in-memory session and the transition rules
// driven by login, registration, external login, logout, and
// restore-on-start. It is an injected dependency with an explicit
// constructor, never a package-level global.
type Manager struct {
	lock    sync.RWMutex
	state   State
	current Session

	store   *credentials.Store
	backend AuthAPI
	flight  singleflight.Group
	log     zerolog.Logger
	nowTime func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger sets the logger for transition diagnostics.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager initializes a Manager with required dependencies.
func NewManager(store *credentials.Store, backend AuthAPI, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	if backend == nil {
		return nil, errors.New("[NewManager] auth API is required")
	}

	manager := &Manager{
		state:   StateUnauthenticated,
		store:   store,
		backend: backend,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(manager)
	}
	return manager, nil
}

// Current returns a copy of the session snapshot.
func (m *Manager) Current() Session {
	m.lock.RLock()
	defer m.lock.RUnlock()

	snapshot := m.current
	if snapshot.User != nil {
		user := *snapshot.User
		snapshot.User = &user
	}
	return snapshot
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// Restore rebuilds the session from the persisted credential without a
// network round-trip. The local record is trusted until the first
// authorized request proves otherwise; the middleware corrects the state
// if that request fails authorization. Returns true when a session was
// restored.
func (m *Manager) Restore() bool {
	rec := m.store.Read()
	if rec == nil {
		return false
	}

	if expiry := tokenExpiry(rec.Token); !expiry.IsZero() && expiry.Before(m.nowTime()) {
		m.log.Debug().Time("expiry", expiry).Msg("restored token already expired; backend will reject it")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateAuthenticated
	m.current = Session{
		User:            rec.User,
		Token:           rec.Token,
		IsAuthenticated: true,
	}
	m.log.Info().Str("username", rec.User.Username).Msg("session restored")
	return true
}

// Login authenticates with username and password. remember selects the
// durable persistence scope; otherwise the credential is ephemeral.
// Concurrent calls while one is in flight join the pending attempt rather
// than corrupting state. On failure the session and store are untouched
// and the annotated error is returned to the caller.
func (m *Manager) Login(ctx context.Context, username, password string, remember bool) (Session, error) {
	result, err, _ := m.flight.Do("login", func() (any, error) {
		m.beginAuthenticating()

		tr, err := m.backend.Login(ctx, username, password)
		if err != nil {
			m.abortAuthenticating()
			return Session{}, errors.Wrap(err, "[Manager.Login] backend login")
		}

		scope := credentials.ScopeEphemeral
		if remember {
			scope = credentials.ScopeDurable
		}
		return m.commit(tr.User(), tr.AccessToken, scope, username)
	})
	if err != nil {
		return Session{}, err
	}
	return result.(Session), nil
}

// ExternalLoginOption adjusts an external login.
type ExternalLoginOption func(*externalLoginSettings)

type externalLoginSettings struct {
	scope credentials.Scope
}

// WithPersistScope overrides the persistence scope for an external login.
func WithPersistScope(scope credentials.Scope) ExternalLoginOption {
	return func(s *externalLoginSettings) {
		s.scope = scope
	}
}

// ExternalLogin exchanges a provider access token through the backend and
// authenticates the session. Persistence defaults to durable unless the
// caller overrides it. Same success and failure contract as Login.
func (m *Manager) ExternalLogin(ctx context.Context, providerToken string, options ...ExternalLoginOption) (Session, error) {
	settings := externalLoginSettings{scope: credentials.ScopeDurable}
	for _, opt := range options {
		opt(&settings)
	}

	result, err, _ := m.flight.Do("login", func() (any, error) {
		m.beginAuthenticating()

		tr, err := m.backend.ExchangeKakaoToken(ctx, providerToken)
		if err != nil {
			m.abortAuthenticating()
			return Session{}, errors.Wrap(err, "[Manager.ExternalLogin] token exchange")
		}
		return m.commit(tr.User(), tr.AccessToken, settings.scope, tr.Username)
	})
	if err != nil {
		return Session{}, err
	}
	return result.(Session), nil
}

// Register creates an account. Success never authenticates the session and
// never writes a credential to any scope; it only clears the loading flag
// and parks the machine in StateRegistered.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) error {
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return errors.Wrap(err, "[Manager.Register] weak password")
	}

	m.beginAuthenticating()
	if _, err := m.backend.Register(ctx, req); err != nil {
		m.abortAuthenticating()
		return errors.Wrap(err, "[Manager.Register] backend register")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateRegistered
	m.current = Session{}
	m.log.Info().Str("id", req.ID).Msg("registration complete, login still required")
	return nil
}

// Logout tears down the session. The server-side call is best effort and
// its failure is swallowed; the client-side transition to Unauthenticated
// and the store clear are unconditional.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.backend.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("server-side logout failed, clearing locally anyway")
	}
	m.Invalidate()
}

// Invalidate is the authorization-failure path: clear the persisted
// credential and reset the in-memory session without any API call. It is
// idempotent, so it commutes with the middleware's own store clear.
func (m *Manager) Invalidate() {
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("failed to clear credential store")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateUnauthenticated
	m.current = Session{}
}

// SavedUsername returns the login-form pre-fill value from the last
// remembered login.
func (m *Manager) SavedUsername() string {
	return m.store.SavedUsername()
}

func (m *Manager) beginAuthenticating() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateAuthenticating
	m.current.IsLoading = true
}

func (m *Manager) abortAuthenticating() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateUnauthenticated
	m.current.IsLoading = false
}

// commit persists the credential and flips the session to authenticated.
// A failed write counts as a failed login: nothing must be left behind.
func (m *Manager) commit(user *users.User, token string, scope credentials.Scope, savedUsername string) (Session, error) {
	rec := &credentials.Record{
		Token:         token,
		User:          user,
		Remember:      scope == credentials.ScopeDurable,
		SavedUsername: savedUsername,
	}
	if err := m.store.Write(scope, rec); err != nil {
		if clearErr := m.store.Clear(); clearErr != nil {
			m.log.Error().Err(clearErr).Msg("failed to clear after write failure")
		}
		m.abortAuthenticating()
		return Session{}, errors.Wrap(err, "[Manager.commit] persist credential")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = StateAuthenticated
	m.current = Session{
		User:            user,
		Token:           token,
		IsAuthenticated: true,
	}
	m.log.Info().Str("username", user.Username).Str("scope", scope.String()).Msg("session authenticated")
	return m.current, nil
}

// tokenExpiry inspects the bearer's exp claim without verifying the
// signature. Validation stays the backend's job; this is informational only.
func tokenExpiry(raw string) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
