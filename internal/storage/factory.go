package storage

import (
	"fmt"
	"strings"
)

// NewStore builds the backend named by kind. The sqlite backend is only
// available in builds tagged sqlite.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
