package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/petmily/petmily-go/credentials"
	apperrors "github.com/petmily/petmily-go/internal/errors"
	"github.com/petmily/petmily-go/provider"
	"github.com/petmily/petmily-go/session"
)

func newBridge(t *testing.T, cfg provider.ProviderConfig, options ...provider.BridgeOption) (*provider.Bridge, *redirectFixture) {
	t.Helper()

	f := setupRedirect(t)
	sessions, err := session.NewManager(f.store, sessionAPI{f.backend})
	require.NoError(t, err)

	bridge, err := provider.NewBridge(cfg, f.store, sessions, f.backend, options...)
	require.NoError(t, err)
	return bridge, f
}

func TestBeginAuthorizationMissingAppKey(t *testing.T) {
	bridge, _ := newBridge(t, testProviderConfig{appKey: ""})

	_, _, err := bridge.BeginAuthorization(context.Background())
	require.ErrorIs(t, err, apperrors.ErrProviderKeyMissing)

	// The failed setup is cached, not retried.
	_, _, err = bridge.BeginAuthorization(context.Background())
	require.ErrorIs(t, err, apperrors.ErrProviderKeyMissing)
}

func TestBeginAuthorizationURL(t *testing.T) {
	bridge, _ := newBridge(t, testProviderConfig{appKey: "app-key"})

	authURL, state, err := bridge.BeginAuthorization(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, state)

	assert.Contains(t, authURL, "kauth.kakao.com/oauth/authorize")
	assert.Contains(t, authURL, "client_id=app-key")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "profile_nickname")
}

func TestBeginAuthorizationStatesAreUnique(t *testing.T) {
	bridge, _ := newBridge(t, testProviderConfig{appKey: "app-key"})

	_, first, err := bridge.BeginAuthorization(context.Background())
	require.NoError(t, err)
	_, second, err := bridge.BeginAuthorization(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestInitRunsOnceUnderConcurrency(t *testing.T) {
	var discoveries atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discoveries.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	bridge, _ := newBridge(t, testProviderConfig{appKey: "app-key", issuer: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := bridge.BeginAuthorization(context.Background())
			assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), discoveries.Load(), "discovery must run once for concurrent first callers")
}

func TestCompleteAuthorizationExchangesCode(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
	}))
	defer tokenSrv.Close()

	bridge, f := newBridge(t, testProviderConfig{appKey: "app-key"},
		provider.WithEndpoint(oauth2.Endpoint{
			AuthURL:  tokenSrv.URL + "/authorize",
			TokenURL: tokenSrv.URL + "/token",
		}),
	)

	current, err := bridge.CompleteAuthorization(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.True(t, current.IsAuthenticated)
	assert.Equal(t, "backend-token", current.Token)
	v, ok := f.durable.Get(credentials.KeyToken)
	require.True(t, ok)
	assert.Equal(t, "backend-token", v)
}

func TestCompleteAuthorizationRejectedCode(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()

	bridge, f := newBridge(t, testProviderConfig{appKey: "app-key"},
		provider.WithEndpoint(oauth2.Endpoint{
			AuthURL:  tokenSrv.URL + "/authorize",
			TokenURL: tokenSrv.URL + "/token",
		}),
	)

	_, err := bridge.CompleteAuthorization(context.Background(), "bad-code")
	require.Error(t, err)
	requireStoreEmpty(t, f)
}
