package credentials

// Scope selects which persistence backend a credential is written to.
type Scope string

const (
	// ScopeDurable survives process restarts (file-backed).
	ScopeDurable Scope = "durable"
	// ScopeEphemeral lives only as long as the process (memory-backed).
	ScopeEphemeral Scope = "ephemeral"
)

func (s Scope) String() string { return string(s) }
