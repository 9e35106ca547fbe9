// Package credentials persists the client's session credentials.
//
// A Store is a plain key/value capability with two flavours: session-scoped
// (MemoryStore, gone when the process exits) and durable (FileStore, SQLiteStore).
// The Vault layers the credential schema on top of a Store so the access token,
// refresh token and user record are always written and cleared together.
package credentials

import (
	"fmt"
	"strings"
)

// Store is the storage capability the Vault needs.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Batcher is implemented by stores that can apply several writes atomically.
type Batcher interface {
	Apply(set map[string]string, remove []string) error
}

// StorageKind selects the Store backend at startup.
type StorageKind string

const (
	StorageSession StorageKind = "session"
	StorageDurable StorageKind = "durable"
	StorageSQLite  StorageKind = "sqlite"
)

// ParseStorageKind accepts the configured storage name. The browser-era names
// "sessionStorage" and "localStorage" are accepted as aliases.
func ParseStorageKind(s string) (StorageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "session", "sessionstorage", "memory":
		return StorageSession, nil
	case "durable", "localstorage", "file":
		return StorageDurable, nil
	case "sqlite":
		return StorageSQLite, nil
	default:
		return "", fmt.Errorf("unknown token storage %q (want session, durable or sqlite)", s)
	}
}

// Open returns the Store for kind. path is ignored for session storage.
func Open(kind StorageKind, path string) (Store, error) {
	switch kind {
	case StorageSession:
		return NewMemoryStore(), nil
	case StorageDurable:
		return NewFileStore(path)
	case StorageSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("[credentials Open] unsupported storage kind %q", kind)
	}
}

// apply writes set and remove through store, atomically when the store supports it.
func apply(store Store, set map[string]string, remove []string) error {
	if b, ok := store.(Batcher); ok {
		return b.Apply(set, remove)
	}
	for k, v := range set {
		if err := store.Set(k, v); err != nil {
			return err
		}
	}
	for _, k := range remove {
		if err := store.Remove(k); err != nil {
			return err
		}
	}
	return nil
}
