// Package persistence defines the external key-value store contract used to
// persist the session credential across process restarts.
package persistence

import "context"

// CredentialKey is the single entry the session layer reads and writes.
const CredentialKey = "token"

// Store is a minimal key-value contract. Get reports absence through the
// boolean, never through the error. Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
