package credentials

// Backend is a flat key-value surface over a single persistence scope.
// Implementations must be safe for concurrent use; the store layers the
// key-set contract (write all keys together, purge both scopes on clear)
// on top.
type Backend interface {
	// Get returns the value for key and whether it was present
	Get(key string) (string, bool)

	// Set stores value under key
	Set(key, value string) error

	// Delete removes key; deleting an absent key is not an error
	Delete(key string) error
}
