package provider_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petmily/petmily-go/api"
	"github.com/petmily/petmily-go/credentials"
	apperrors "github.com/petmily/petmily-go/internal/errors"
	"github.com/petmily/petmily-go/provider"
	"github.com/petmily/petmily-go/session"
	"github.com/petmily/petmily-go/users"
)

type testProviderConfig struct {
	appKey string
	issuer string
}

func (c testProviderConfig) GetProviderAppKey() string { return c.appKey }
func (c testProviderConfig) GetProviderSecret() string { return "" }
func (c testProviderConfig) GetProviderIssuer() string { return c.issuer }
func (c testProviderConfig) GetRedirectURL() string {
	return "http://localhost:3000/oauth2/redirect"
}

type fakeBackendAPI struct {
	exchangeResp *api.TokenResponse
	exchangeErr  error
	meResp       *users.User
	meErr        error
}

func (f *fakeBackendAPI) ExchangeKakaoToken(ctx context.Context, accessToken string) (*api.TokenResponse, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeResp, nil
}

func (f *fakeBackendAPI) Me(ctx context.Context) (*users.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.meResp, nil
}

// sessionAPI adapts fakeBackendAPI to the full auth surface the session
// manager wants.
type sessionAPI struct {
	*fakeBackendAPI
}

func (s sessionAPI) Login(ctx context.Context, username, password string) (*api.TokenResponse, error) {
	return nil, assert.AnError
}

func (s sessionAPI) Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error) {
	return nil, assert.AnError
}

func (s sessionAPI) Logout(ctx context.Context) error { return nil }

type recordingNavigator struct {
	lock     sync.Mutex
	toLogins int
	reloads  int
}

func (n *recordingNavigator) ToLogin() {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.toLogins++
}

func (n *recordingNavigator) Reload() {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.reloads++
}

type redirectFixture struct {
	durable   *credentials.MemoryBackend
	ephemeral *credentials.MemoryBackend
	store     *credentials.Store
	backend   *fakeBackendAPI
	nav       *recordingNavigator
	bridge    *provider.Bridge
}

func setupRedirect(t *testing.T) *redirectFixture {
	t.Helper()

	durable := credentials.NewMemoryBackend()
	ephemeral := credentials.NewMemoryBackend()
	store, err := credentials.NewStore(durable, ephemeral)
	require.NoError(t, err)

	backend := &fakeBackendAPI{
		exchangeResp: &api.TokenResponse{
			AccessToken: "backend-token",
			UserID:      "acct-1",
			Username:    "mungcat",
			Role:        users.RoleUser,
		},
		meResp: &users.User{AccountID: "acct-1", Username: "mungcat", Role: users.RoleUser},
	}
	sessions, err := session.NewManager(store, sessionAPI{backend})
	require.NoError(t, err)

	nav := &recordingNavigator{}
	bridge, err := provider.NewBridge(testProviderConfig{appKey: "app-key"}, store, sessions, backend,
		provider.WithNavigator(nav),
		provider.WithRedirectDelay(0),
	)
	require.NoError(t, err)

	return &redirectFixture{
		durable:   durable,
		ephemeral: ephemeral,
		store:     store,
		backend:   backend,
		nav:       nav,
		bridge:    bridge,
	}
}

func requireStoreEmpty(t *testing.T, f *redirectFixture) {
	t.Helper()
	for _, key := range credentials.AllKeys {
		_, ok := f.durable.Get(key)
		require.Falsef(t, ok, "durable key %q should be absent", key)
		_, ok = f.ephemeral.Get(key)
		require.Falsef(t, ok, "ephemeral key %q should be absent", key)
	}
}

func TestRedirectDirectIssuance(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"token": {"issued-token"},
	})
	require.NoError(t, err)

	rec := f.store.Read()
	require.NotNil(t, rec)
	assert.Equal(t, "issued-token", rec.Token)
	assert.Equal(t, "acct-1", rec.User.AccountID)
	assert.Equal(t, 1, f.nav.reloads)
	assert.Equal(t, 0, f.nav.toLogins)
}

func TestRedirectDirectIssuanceIgnoresRefreshToken(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"token":        {"issued-token"},
		"refreshToken": {"ignored-refresh"},
	})
	require.NoError(t, err)

	for _, key := range credentials.AllKeys {
		v, _ := f.durable.Get(key)
		assert.NotEqual(t, "ignored-refresh", v)
	}
}

func TestRedirectIdentityFetchFailurePurgesProvisionalWrite(t *testing.T) {
	f := setupRedirect(t)
	f.backend.meErr = assert.AnError

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"token": {"issued-token"},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, assert.AnError)

	requireStoreEmpty(t, f)
	assert.Equal(t, 1, f.nav.toLogins)
	assert.Equal(t, 0, f.nav.reloads)
}

func TestRedirectProviderExchange(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"accessToken": {"provider-token"},
	})
	require.NoError(t, err)

	rec := f.store.Read()
	require.NotNil(t, rec)
	assert.Equal(t, "backend-token", rec.Token)
	assert.Equal(t, 1, f.nav.reloads)
}

func TestRedirectProviderExchangeFailure(t *testing.T) {
	f := setupRedirect(t)
	f.backend.exchangeErr = assert.AnError

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"accessToken": {"provider-token"},
	})
	require.Error(t, err)

	requireStoreEmpty(t, f)
	assert.Equal(t, 1, f.nav.toLogins)
}

func TestRedirectProviderError(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"error": {"access_denied"},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrExchangeRejected)

	requireStoreEmpty(t, f)
	assert.Equal(t, 1, f.nav.toLogins)
}

func TestRedirectMissingParams(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{})
	require.ErrorIs(t, err, apperrors.ErrMissingParams)
	assert.Equal(t, 1, f.nav.toLogins)
}

func TestRedirectExchangeIsOneShot(t *testing.T) {
	f := setupRedirect(t)

	err := f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"token": {"issued-token"},
	})
	require.NoError(t, err)

	err = f.bridge.CompleteRedirectExchange(context.Background(), url.Values{
		"token": {"replayed-token"},
	})
	require.ErrorIs(t, err, apperrors.ErrExchangeConsumed)

	// The credential from the first exchange must survive the replay.
	rec := f.store.Read()
	require.NotNil(t, rec)
	assert.Equal(t, "issued-token", rec.Token)
}
