package credentials

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/petmily/petmily-go/users"
)

// Store is the single authority over both persistence scopes. Every writer
// in the system goes through it so the scopes never hold a mixed state: a
// successful write populates exactly one scope and purges the session keys
// of the other, and Clear empties both unconditionally.
//
// The store never validates token signatures or expiry; that is the
// backend's job.
type Store struct {
	durable   Backend
	ephemeral Backend
	log       zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithLogger sets the logger used for corruption warnings.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore initializes a Store over the two scope backends.
func NewStore(durable, ephemeral Backend, options ...StoreOption) (*Store, error) {
	if durable == nil {
		return nil, errors.New("[NewStore] durable backend is required")
	}
	if ephemeral == nil {
		return nil, errors.New("[NewStore] ephemeral backend is required")
	}

	store := &Store{
		durable:   durable,
		ephemeral: ephemeral,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Write persists the record into the chosen scope, clearing the other
// scope's session keys first. The remember flag and saved username are
// written only for durable credentials.
func (s *Store) Write(scope Scope, rec *Record) error {
	if rec == nil || rec.Token == "" {
		return errors.New("[Store.Write] record with token is required")
	}
	if rec.User == nil {
		return errors.New("[Store.Write] record user is required")
	}

	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		return errors.Wrap(err, "[Store.Write] encode user")
	}

	if err := deleteKeys(s.other(scope), sessionKeys); err != nil {
		return errors.Wrap(err, "[Store.Write] purge other scope")
	}

	target := s.backend(scope)
	for _, key := range tokenKeys {
		if err := target.Set(key, rec.Token); err != nil {
			return errors.Wrapf(err, "[Store.Write] set %q", key)
		}
	}
	if err := target.Set(KeyUser, string(userJSON)); err != nil {
		return errors.Wrap(err, "[Store.Write] set user")
	}

	if scope == ScopeDurable {
		savedUsername := rec.SavedUsername
		if savedUsername == "" {
			savedUsername = rec.User.Username
		}
		if err := target.Set(KeyRemember, "true"); err != nil {
			return errors.Wrap(err, "[Store.Write] set remember flag")
		}
		if err := target.Set(KeySavedUsername, savedUsername); err != nil {
			return errors.Wrap(err, "[Store.Write] set saved username")
		}
	}
	return nil
}

// WriteToken writes the token keys only, without an identity. It exists for
// the redirect-exchange flow, which must authorize a follow-up identity
// fetch before it can assemble a full record. Callers are responsible for
// either completing the record with Write or purging with Clear.
func (s *Store) WriteToken(scope Scope, token string) error {
	if token == "" {
		return errors.New("[Store.WriteToken] token is required")
	}

	if err := deleteKeys(s.other(scope), sessionKeys); err != nil {
		return errors.Wrap(err, "[Store.WriteToken] purge other scope")
	}

	target := s.backend(scope)
	for _, key := range tokenKeys {
		if err := target.Set(key, token); err != nil {
			return errors.Wrapf(err, "[Store.WriteToken] set %q", key)
		}
	}
	return nil
}

// Read attempts the durable scope first and falls back to ephemeral. It
// returns nil when no credential is stored. A credential that cannot be
// decoded into the expected identity shape is treated as corrupted: both
// scopes are purged and nil is returned, never a half-valid record.
func (s *Store) Read() *Record {
	for _, scope := range []Scope{ScopeDurable, ScopeEphemeral} {
		backend := s.backend(scope)

		token := firstValue(backend, tokenKeys)
		rawUser, hasUser := backend.Get(KeyUser)
		if token == "" && !hasUser {
			continue
		}

		if token == "" || !hasUser {
			s.purgeCorrupt(scope, "credential missing token or user")
			return nil
		}

		var user users.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.purgeCorrupt(scope, "stored user does not decode")
			return nil
		}

		return &Record{
			Token:         token,
			User:          &user,
			Remember:      scope == ScopeDurable && s.Remembered(),
			SavedUsername: s.SavedUsername(),
		}
	}
	return nil
}

// Token returns the bearer credential from whichever scope currently holds
// one, durable checked before ephemeral. Absence yields the empty string.
func (s *Store) Token() string {
	if token := firstValue(s.durable, tokenKeys); token != "" {
		return token
	}
	return firstValue(s.ephemeral, tokenKeys)
}

// SavedUsername returns the login-form pre-fill value, if any.
func (s *Store) SavedUsername() string {
	v, _ := s.durable.Get(KeySavedUsername)
	return v
}

// Remembered reports whether the last durable login asked to be remembered.
func (s *Store) Remembered() bool {
	v, _ := s.durable.Get(KeyRemember)
	return v == "true"
}

// Clear removes every known key from both scopes. It is idempotent and safe
// to call when nothing is stored.
func (s *Store) Clear() error {
	durableErr := deleteKeys(s.durable, AllKeys)
	ephemeralErr := deleteKeys(s.ephemeral, AllKeys)
	if durableErr != nil {
		return errors.Wrap(durableErr, "[Store.Clear] durable scope")
	}
	if ephemeralErr != nil {
		return errors.Wrap(ephemeralErr, "[Store.Clear] ephemeral scope")
	}
	return nil
}

func (s *Store) purgeCorrupt(scope Scope, reason string) {
	s.log.Warn().Str("scope", scope.String()).Msg("purging corrupt credential: " + reason)
	if err := s.Clear(); err != nil {
		s.log.Error().Err(err).Msg("failed to purge corrupt credential")
	}
}

func (s *Store) backend(scope Scope) Backend {
	if scope == ScopeEphemeral {
		return s.ephemeral
	}
	return s.durable
}

func (s *Store) other(scope Scope) Backend {
	if scope == ScopeEphemeral {
		return s.durable
	}
	return s.ephemeral
}

func deleteKeys(backend Backend, keys []string) error {
	for _, key := range keys {
		if err := backend.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func firstValue(backend Backend, keys []string) string {
	for _, key := range keys {
		if v, ok := backend.Get(key); ok && v != "" {
			return v
		}
	}
	return ""
}
