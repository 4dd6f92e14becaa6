package session

// Store holds the bearer token and the cached user profile for the current
// session. The token is attached to every outgoing API request; the profile is
// an opaque JSON document cached alongside it so the application can restore
// the signed-in user without a network call.
type Store interface {
	// Token returns the current bearer token, or the empty string when the
	// session is unauthenticated.
	Token() string

	// SetToken stores a new bearer token, replacing any existing one.
	SetToken(token string) error

	// Profile returns the cached user profile document, if one is stored.
	Profile() ([]byte, bool)

	// SetProfile stores the user profile document.
	SetProfile(profile []byte) error

	// Clear removes the token and profile. Clearing an already-empty store is
	// not an error.
	Clear() error
}
