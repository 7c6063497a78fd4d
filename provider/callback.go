package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const redirectRoute = "/oauth2/redirect"

// CallbackServer hosts the provider redirect route on a local listener for
// the CLI flow. It accepts either the provider's authorization-code
// callback (code + state) or the application-origin redirect payload
// (token / accessToken / error) and feeds both into the same bridge.
type CallbackServer struct {
	bridge        *Bridge
	expectedState string
	log           zerolog.Logger
	srv           *http.Server
	done          chan error
}

// NewCallbackServer builds the listener for one login attempt.
// expectedState is the state value issued by BeginAuthorization.
func NewCallbackServer(bridge *Bridge, addr, expectedState string, log zerolog.Logger) (*CallbackServer, error) {
	if bridge == nil {
		return nil, errors.New("[NewCallbackServer] bridge is required")
	}
	if addr == "" {
		return nil, errors.New("[NewCallbackServer] listen address is required")
	}

	cs := &CallbackServer{
		bridge:        bridge,
		expectedState: expectedState,
		log:           log,
		done:          make(chan error, 1),
	}

	router := chi.NewRouter()
	router.Get(redirectRoute, cs.handleRedirect)
	cs.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return cs, nil
}

// ListenAndServe blocks until the server stops.
func (cs *CallbackServer) ListenAndServe() error {
	if err := cs.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "[CallbackServer.ListenAndServe]")
	}
	return nil
}

// Done delivers the outcome of the single login attempt.
func (cs *CallbackServer) Done() <-chan error {
	return cs.done
}

// Shutdown stops the listener.
func (cs *CallbackServer) Shutdown(ctx context.Context) error {
	return cs.srv.Shutdown(ctx)
}

func (cs *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var err error
	if code := params.Get("code"); code != "" {
		if params.Get("state") != cs.expectedState {
			err = errors.New("[CallbackServer.handleRedirect] state mismatch")
		} else {
			_, err = cs.bridge.CompleteAuthorization(r.Context(), code)
		}
	} else {
		err = cs.bridge.CompleteRedirectExchange(r.Context(), params)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		cs.log.Error().Err(err).Msg("login callback failed")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("<html><body><p>Login failed. You can close this window.</p></body></html>"))
	} else {
		_, _ = w.Write([]byte("<html><body><p>Login complete. You can close this window.</p></body></html>"))
	}

	select {
	case cs.done <- err:
	default:
	}
}
