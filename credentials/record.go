package credentials

import "github.com/petmily/petmily-go/users"

// Storage keys shared by both scopes. KeyToken is canonical; KeyTokenAlias
// and KeyLegacyToken are compatibility duplicates for subsystems that
// evolved against the older key names. All writers go through the store so
// the aliases never diverge from the canonical value.
const (
	KeyToken         = "token"
	KeyTokenAlias    = "userToken"
	KeyLegacyToken   = "accessToken"
	KeyUser          = "user"
	KeyRemember      = "rememberMe"
	KeySavedUsername = "savedUsername"
)

// AllKeys lists every key the store may have written, in either scope.
var AllKeys = []string{
	KeyToken,
	KeyTokenAlias,
	KeyLegacyToken,
	KeyUser,
	KeyRemember,
	KeySavedUsername,
}

// sessionKeys are the keys that make up one logical session. The remember
// flag and saved username are login-form conveniences and survive an
// ephemeral login.
var sessionKeys = []string{
	KeyToken,
	KeyTokenAlias,
	KeyLegacyToken,
	KeyUser,
}

// tokenKeys in read-preference order.
var tokenKeys = []string{
	KeyToken,
	KeyTokenAlias,
	KeyLegacyToken,
}

// Record is the persisted credential for one authenticated session.
type Record struct {
	Token         string      // Opaque bearer credential
	User          *users.User // Identity as confirmed by the backend
	Remember      bool        // True when the caller chose the durable scope
	SavedUsername string      // Pre-fill value for the login form
}
