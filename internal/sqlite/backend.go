// Package sqlite implements the SQLite storage backend for macrostore.
// The database file lives in Config.DataDir; every multi-step mutation runs
// inside Backend.Transact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "macrostore.db"

// pragmas applied to the connection after open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	path     string
	db       *sql.DB
	tables   map[string]types.Table
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]types.Table),
	}
}

// Attach opens (or creates) the database in config.DataDir and runs the
// schema upgrade. Returns ErrAlreadyAttached if already attached and
// ErrVersionMismatch if the file was written by a newer schema.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(dataDir, DBFileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// One connection serializes transactions, so overlapping writers never
	// observe each other's intermediate state.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", p, err)
		}
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.path = path
	b.config = config
	b.attached = true
	b.tables = make(map[string]types.Table, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		b.tables[name] = &table{name: name, backend: b}
	}

	log.WithFields(log.Fields{"path": path}).Debug("store attached")
	return nil
}

// Detach closes the database. After Detach, operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]types.Table)
	return nil
}

// Reset detaches, removes the database file and attaches again with the
// same configuration, leaving an empty store at the current schema version.
func (b *Backend) Reset() error {
	b.mu.RLock()
	config, path, attached := b.config, b.path, b.attached
	b.mu.RUnlock()
	if !attached {
		return types.ErrStoreDetached
	}

	if err := b.Detach(); err != nil {
		return err
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return b.Attach(config)
}

// GetTable returns the generic Table for the named collection.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// SchemaVersion returns the schema version recorded in the database file.
func (b *Backend) SchemaVersion(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}
	var v int
	if err := b.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Table accessors. They are cheap values; every call goes through Transact.

func (b *Backend) Persons() *PersonsTable       { return &PersonsTable{backend: b} }
func (b *Backend) Entries() *EntriesTable       { return &EntriesTable{backend: b} }
func (b *Backend) Products() *ProductsTable     { return &ProductsTable{backend: b} }
func (b *Backend) Favorites() *FavoritesTable   { return &FavoritesTable{backend: b} }
func (b *Backend) Recents() *RecentsTable       { return &RecentsTable{backend: b} }
func (b *Backend) WeightLogs() *WeightLogsTable { return &WeightLogsTable{backend: b} }
func (b *Backend) Meta() *MetaTable             { return &MetaTable{backend: b} }

// newUUID generates a UUID v7 string. v7 identifiers sort by creation time.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// now returns the current time in UTC without a monotonic reading.
func now() time.Time {
	return time.Now().UTC().Round(0)
}
