package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/petmily/petmily-go/credentials"
)

// Authentication entry endpoints. A 401 from these must not trigger the
// global unauthorized handling, otherwise a failed login would bounce the
// caller back to the login entry point it is already on.
var defaultEntryPaths = map[string]struct{}{
	"/auth/login":       {},
	"/auth/register":    {},
	"/auth/kakao/token": {},
}

var _ http.RoundTripper = (*Authorizer)(nil)

// Authorizer is the request authorization middleware: it attaches the
// current bearer credential to every outgoing request and applies the
// global authorization-failure policy uniformly across all API call sites.
// Absence of a credential is not an error; the request is simply sent
// without the header.
type Authorizer struct {
	base           http.RoundTripper
	creds          *credentials.Store
	onUnauthorized func()
	entryPaths     map[string]struct{}
	log            zerolog.Logger
}

// AuthorizerOption defines a function type to modify the Authorizer instance.
type AuthorizerOption func(*Authorizer)

// WithBase sets the underlying round tripper (http.DefaultTransport when unset).
func WithBase(base http.RoundTripper) AuthorizerOption {
	return func(a *Authorizer) {
		a.base = base
	}
}

// WithOnUnauthorized registers the hook invoked after an authorization
// failure has cleared the credential store. The hook must not issue
// further API calls.
func WithOnUnauthorized(hook func()) AuthorizerOption {
	return func(a *Authorizer) {
		a.onUnauthorized = hook
	}
}

// WithAuthorizerLogger sets the logger for round-trip diagnostics.
func WithAuthorizerLogger(log zerolog.Logger) AuthorizerOption {
	return func(a *Authorizer) {
		a.log = log
	}
}

// NewAuthorizer initializes the middleware over the credential store.
func NewAuthorizer(creds *credentials.Store, options ...AuthorizerOption) (*Authorizer, error) {
	if creds == nil {
		return nil, errors.New("[NewAuthorizer] credential store is required")
	}

	authorizer := &Authorizer{
		base:       http.DefaultTransport,
		creds:      creds,
		entryPaths: defaultEntryPaths,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(authorizer)
	}
	return authorizer, nil
}

// RoundTrip implements http.RoundTripper.
func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token := a.creds.Token(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get("X-Request-Id") == "" {
		out.Header.Set("X-Request-Id", uuid.NewString())
	}

	resp, err := a.base.RoundTrip(out)
	if err != nil {
		a.log.Debug().Err(err).Str("path", req.URL.Path).Msg("round trip failed")
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		a.handleUnauthorized(req.URL.Path)
	}
	return resp, nil
}

// handleUnauthorized runs once per failing response: clear the stored
// credential, then hand control to the app-level hook. Requests to the
// authentication entry endpoints are exempt so the policy cannot loop.
func (a *Authorizer) handleUnauthorized(path string) {
	if _, entry := a.entryPaths[path]; entry {
		return
	}

	a.log.Warn().Str("path", path).Msg("authorization failure, clearing credential")
	if err := a.creds.Clear(); err != nil {
		a.log.Error().Err(err).Msg("failed to clear credential store")
	}
	if a.onUnauthorized != nil {
		a.onUnauthorized()
	}
}
