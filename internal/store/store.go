// Package store persists user records in a flat key-value store keyed by
// the server-generated auth id. The interface is deliberately narrow:
// get-by-key, get-all, set-by-key. There is no secondary index — callers
// that look up by email scan the full record set.
package store

import "context"

// Record is the persisted user record. NationalID holds the encrypted
// blob produced by the field cipher, never the plaintext; PasswordHash
// holds the self-describing hash produced by the credential hasher.
type Record struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	NationalID   string `json:"national_id"`
	PasswordHash string `json:"password"`
}

// Store is the narrow contract required of the backing key-value store.
// Single-key writes are atomic at the store boundary; no multi-key
// transaction is needed since every operation touches one record.
type Store interface {
	// GetByKey returns the record stored under key, or (nil, nil) when absent.
	GetByKey(ctx context.Context, key string) (*Record, error)

	// GetAll returns every stored record keyed by auth id. An empty store
	// yields an empty map, not an error.
	GetAll(ctx context.Context) (map[string]*Record, error)

	// SetByKey stores the record under key, overwriting any existing value.
	SetByKey(ctx context.Context, key string, rec *Record) error
}
