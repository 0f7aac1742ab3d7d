// Package sqlite provides the public API for the SQLite macrostore backend.
// It exposes the factory while keeping the implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".macrostore-db",
//	})
//	defer store.Detach()
//	persons, _ := store.GetTable(types.PersonsTable)
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
