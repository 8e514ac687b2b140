// Package storage provides the durable key-value store the SDK persists
// session state into. The store is deliberately tiny: string keys under a
// fixed namespace, string values, best-effort durability.
package storage

// Fixed keys used across the SDK.
const (
	KeyAccessToken  = "auth.access_token"
	KeyRefreshToken = "auth.refresh_token"
	KeyUser         = "auth.user"
	KeyActiveServer = "auth.active_server"
)

// Store is the durable KV contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set persists a value. A failed write leaves any previous value intact.
	Set(key, value string) error
	// Delete removes a key; deleting an absent key is not an error.
	Delete(key string) error
}
