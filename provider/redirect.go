package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/petmily/petmily-go/credentials"
	apperrors "github.com/petmily/petmily-go/internal/errors"
)

// CompleteRedirectExchange consumes the one-time payload the redirect route
// receives via URL parameters: a backend-issued bearer (`token=`), a
// provider token needing a server-side exchange (`accessToken=`), or a
// provider error (`error=`). The payload is exchanged at most once; a
// second call on the same bridge is refused.
//
// On success the resulting credential is written through the credential
// store directly, bypassing the login state machine, and the navigator is
// asked for a full reload so the application re-derives its session via
// Restore. On any failing step, any partial credential written here is
// purged and the navigator is sent to the login entry point after a short,
// fixed delay. A half-written credential is never left behind.
func (b *Bridge) CompleteRedirectExchange(ctx context.Context, params url.Values) error {
	b.exchangeLock.Lock()
	if b.exchanged {
		b.exchangeLock.Unlock()
		return errors.Wrap(apperrors.ErrExchangeConsumed, "[Bridge.CompleteRedirectExchange]")
	}
	b.exchanged = true
	b.exchangeLock.Unlock()

	if refresh := params.Get("refreshToken"); refresh != "" {
		// The backend hands one out, but the client keeps no refresh
		// credential: there is no client-side refresh endpoint.
		b.log.Debug().Msg("ignoring refresh token from redirect payload")
	}

	if errParam := params.Get("error"); errParam != "" {
		b.failToLogin()
		return errors.Wrapf(apperrors.ErrExchangeRejected, "[Bridge.CompleteRedirectExchange] provider error %q", errParam)
	}

	if token := params.Get("token"); token != "" {
		return b.completeDirectIssuance(ctx, token)
	}
	if providerToken := params.Get("accessToken"); providerToken != "" {
		return b.completeProviderExchange(ctx, providerToken)
	}

	b.failToLogin()
	return errors.Wrap(apperrors.ErrMissingParams, "[Bridge.CompleteRedirectExchange]")
}

// completeDirectIssuance persists an already-issued bearer. The token keys
// are written first so the follow-up identity fetch is authorized, then the
// full record replaces them; a failed fetch purges the provisional write.
func (b *Bridge) completeDirectIssuance(ctx context.Context, token string) error {
	if err := b.store.WriteToken(credentials.ScopeDurable, token); err != nil {
		b.failToLogin()
		return errors.Wrap(err, "[Bridge.completeDirectIssuance] provisional write")
	}

	user, err := b.backend.Me(ctx)
	if err != nil {
		if clearErr := b.store.Clear(); clearErr != nil {
			b.log.Error().Err(clearErr).Msg("failed to purge provisional credential")
		}
		b.failToLogin()
		return errors.Wrap(err, "[Bridge.completeDirectIssuance] identity fetch")
	}

	if err := b.store.Write(credentials.ScopeDurable, &credentials.Record{Token: token, User: user}); err != nil {
		if clearErr := b.store.Clear(); clearErr != nil {
			b.log.Error().Err(clearErr).Msg("failed to purge provisional credential")
		}
		b.failToLogin()
		return errors.Wrap(err, "[Bridge.completeDirectIssuance] persist credential")
	}

	b.log.Info().Str("username", user.Username).Msg("redirect exchange complete")
	b.nav.Reload()
	return nil
}

// completeProviderExchange trades the provider token through the backend
// and persists the result in one write.
func (b *Bridge) completeProviderExchange(ctx context.Context, providerToken string) error {
	tr, err := b.backend.ExchangeKakaoToken(ctx, providerToken)
	if err != nil {
		b.failToLogin()
		return errors.Wrap(err, "[Bridge.completeProviderExchange] token exchange")
	}

	rec := &credentials.Record{Token: tr.AccessToken, User: tr.User()}
	if err := b.store.Write(credentials.ScopeDurable, rec); err != nil {
		if clearErr := b.store.Clear(); clearErr != nil {
			b.log.Error().Err(clearErr).Msg("failed to purge partial credential")
		}
		b.failToLogin()
		return errors.Wrap(err, "[Bridge.completeProviderExchange] persist credential")
	}

	b.log.Info().Str("username", tr.Username).Msg("redirect exchange complete")
	b.nav.Reload()
	return nil
}

func (b *Bridge) failToLogin() {
	time.Sleep(b.redirectDelay)
	b.nav.ToLogin()
}
