package session

import "github.com/petmily/petmily-go/users"

// State is the lifecycle position of the client session.
type State string

const (
	// StateUnauthenticated is the initial state and the target of logout
	// and authorization-failure handling.
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticating is transient while a login, registration, or
	// external login is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means user and token are present and not yet
	// invalidated.
	StateAuthenticated State = "authenticated"
	// StateRegistered means registration succeeded; the account exists but
	// the session is still not authenticated.
	StateRegistered State = "registered"
)

// Session is a snapshot of the in-memory source of truth.
// Invariant: IsAuthenticated implies User != nil and Token != "".
type Session struct {
	User            *users.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// Navigator abstracts the app-level reactions to session transitions: a
// hard move to the login entry point, and a full reload that re-derives the
// session from the credential store via Restore.
type Navigator interface {
	ToLogin()
	Reload()
}

// NopNavigator ignores navigation requests.
type NopNavigator struct{}

func (NopNavigator) ToLogin() {}
func (NopNavigator) Reload()  {}
