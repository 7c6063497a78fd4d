package provider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/petmily/petmily-go/api"
	"github.com/petmily/petmily-go/credentials"
	apperrors "github.com/petmily/petmily-go/internal/errors"
	"github.com/petmily/petmily-go/session"
	"github.com/petmily/petmily-go/users"
)

const defaultRedirectDelay = 1500 * time.Millisecond

// ProviderConfig is the slice of configuration the bridge needs.
type ProviderConfig interface {
	GetProviderAppKey() string
	GetProviderSecret() string
	GetProviderIssuer() string
	GetRedirectURL() string
}

// BackendAPI is the slice of the backend client the redirect exchange uses.
type BackendAPI interface {
	// ExchangeKakaoToken trades a provider token for a backend bearer token
	ExchangeKakaoToken(ctx context.Context, accessToken string) (*api.TokenResponse, error)

	// Me returns the identity behind the current bearer credential
	Me(ctx context.Context) (*users.User, error)
}

var _ BackendAPI = (*api.Client)(nil)

// Bridge integrates the external identity provider into the session state
// machine. Provider setup is a lazily-initialized, one-shot resource:
// the first caller performs it (validating the app key and, when an issuer
// is configured, running OIDC discovery), concurrent callers await that
// same attempt, and its outcome is cached for the process lifetime.
type Bridge struct {
	cfg      ProviderConfig
	store    *credentials.Store
	sessions *session.Manager
	backend  BackendAPI
	nav      session.Navigator
	log      zerolog.Logger

	redirectDelay time.Duration
	httpClient    *http.Client
	endpoint      *oauth2.Endpoint

	initOnce sync.Once
	initErr  error
	oauthCfg *oauth2.Config

	exchangeLock sync.Mutex
	exchanged    bool
}

// BridgeOption defines a function type to modify the Bridge instance.
type BridgeOption func(*Bridge)

// WithNavigator sets the app-level navigator.
func WithNavigator(nav session.Navigator) BridgeOption {
	return func(b *Bridge) {
		b.nav = nav
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.log = log
	}
}

// WithRedirectDelay overrides the fixed delay before the failure redirect
// (primarily for testing).
func WithRedirectDelay(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.redirectDelay = d
	}
}

// WithHTTPClient sets the HTTP client used for provider calls (discovery
// and code exchange).
func WithHTTPClient(c *http.Client) BridgeOption {
	return func(b *Bridge) {
		b.httpClient = c
	}
}

// WithEndpoint overrides the OAuth2 endpoints (primarily for testing).
func WithEndpoint(endpoint oauth2.Endpoint) BridgeOption {
	return func(b *Bridge) {
		b.endpoint = &endpoint
	}
}

// NewBridge initializes a Bridge with required dependencies. Provider setup
// itself is deferred until first use.
func NewBridge(cfg ProviderConfig, store *credentials.Store, sessions *session.Manager, backend BackendAPI, options ...BridgeOption) (*Bridge, error) {
	if cfg == nil {
		return nil, errors.New("[NewBridge] provider config is required")
	}
	if store == nil {
		return nil, errors.New("[NewBridge] credential store is required")
	}
	if sessions == nil {
		return nil, errors.New("[NewBridge] session manager is required")
	}
	if backend == nil {
		return nil, errors.New("[NewBridge] backend API is required")
	}

	bridge := &Bridge{
		cfg:           cfg,
		store:         store,
		sessions:      sessions,
		backend:       backend,
		nav:           session.NopNavigator{},
		log:           zerolog.Nop(),
		redirectDelay: defaultRedirectDelay,
	}
	for _, opt := range options {
		opt(bridge)
	}
	return bridge, nil
}

// init performs the one-shot provider setup. The error is cached: a failed
// setup fails every subsequent call the same way.
func (b *Bridge) init(ctx context.Context) error {
	b.initOnce.Do(func() {
		appKey := b.cfg.GetProviderAppKey()
		if appKey == "" {
			b.initErr = errors.Wrap(apperrors.ErrProviderKeyMissing, "[Bridge.init]")
			return
		}

		endpoint := kakaoEndpoint
		scopes := kakaoScopes
		if b.endpoint != nil {
			endpoint = *b.endpoint
		} else if issuer := b.cfg.GetProviderIssuer(); issuer != "" {
			if b.httpClient != nil {
				ctx = oidc.ClientContext(ctx, b.httpClient)
			}
			discovered, err := oidc.NewProvider(ctx, issuer)
			if err != nil {
				b.initErr = errors.Wrapf(apperrors.ErrProviderUnavailable, "[Bridge.init] discovery for %s: %v", issuer, err)
				return
			}
			endpoint = discovered.Endpoint()
			scopes = append([]string{oidc.ScopeOpenID}, kakaoScopes...)
		}

		b.oauthCfg = &oauth2.Config{
			ClientID:     appKey,
			ClientSecret: b.cfg.GetProviderSecret(),
			Endpoint:     endpoint,
			RedirectURL:  b.cfg.GetRedirectURL(),
			Scopes:       scopes,
		}
		b.log.Info().Str("auth_url", endpoint.AuthURL).Msg("identity provider initialized")
	})
	return b.initErr
}

// BeginAuthorization starts the provider authorization flow, returning the
// URL the user must visit and the state value the callback must echo.
func (b *Bridge) BeginAuthorization(ctx context.Context) (authURL, state string, err error) {
	if err := b.init(ctx); err != nil {
		return "", "", err
	}
	state = uuid.NewString()
	return b.oauthCfg.AuthCodeURL(state), state, nil
}

// CompleteAuthorization exchanges the provider authorization code and hands
// the resulting provider access token to the session state machine. On
// failure or user cancellation no session mutation occurs.
func (b *Bridge) CompleteAuthorization(ctx context.Context, code string) (session.Session, error) {
	if err := b.init(ctx); err != nil {
		return session.Session{}, err
	}
	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}

	providerToken, err := b.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "[Bridge.CompleteAuthorization] code exchange")
	}
	return b.sessions.ExternalLogin(ctx, providerToken.AccessToken)
}
