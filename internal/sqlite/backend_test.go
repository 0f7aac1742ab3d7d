// Tests for backend lifecycle, schema upgrades and the transaction executor.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// setupBackend attaches a Backend to a fresh temporary directory and detaches
// it when the test ends.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(t.TempDir())))
	t.Cleanup(func() { b.Detach() })
	return b
}

func testConfig(dir string) types.Config {
	return types.Config{Backend: types.BackendSQLite, DataDir: dir}
}

func ptr(v float64) *float64 { return &v }

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, DBFileName))
	assert.NoError(t, err, "database file should exist")

	err = b.Attach(testConfig(dir))
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)

	v, err := b.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(t.TempDir())))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should succeed")

	_, err := b.GetTable(types.PersonsTable)
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = b.Persons().GetAll(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = b.ExportSnapshot(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_GetTable(t *testing.T) {
	b := setupBackend(t)

	for _, name := range types.StandardTableNames {
		tbl, err := b.GetTable(name)
		require.NoError(t, err, name)
		assert.NotNil(t, tbl, name)
	}

	_, err := b.GetTable("unknown")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBackend_DataPersistsAcrossReattach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	require.NoError(t, b.Persons().Put(ctx, &types.Person{ID: "p1", Name: "Alex", KcalGoal: 2200}))
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(testConfig(dir)))
	defer b2.Detach()

	p, err := b2.Persons().Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alex", p.Name)
}

func TestBackend_Reset(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	require.NoError(t, b.Persons().Put(ctx, &types.Person{ID: "p1", Name: "Alex"}))

	require.NoError(t, b.Reset())

	persons, err := b.Persons().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, persons)
}

// openRaw opens the database file directly, bypassing the backend.
func openRaw(t *testing.T, dir string) *sql.DB {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	db, err := sql.Open("sqlite", filepath.Join(dir, DBFileName))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchema_UpgradeFromVersion1BackfillsMacroTargets(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Build a version 1 file by hand: base collections, persons without
	// macro targets or with malformed ones, and no weight_logs table.
	db := openRaw(t, dir)
	for _, stmt := range baseDDL {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err := db.Exec(`INSERT INTO persons (id, name, kcal_goal, macro_targets) VALUES
        ('a', 'Alex', 2200, NULL),
        ('b', 'Sam', 1800, 'not json'),
        ('c', 'Kim', 2000, '{"p":150,"c":null,"f":null}')`)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	v, err := b.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)

	persons, err := b.Persons().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 3)
	byID := make(map[string]types.Person)
	for _, p := range persons {
		byID[p.ID] = p
	}
	assert.Equal(t, &types.MacroTargets{}, byID["a"].MacroTargets)
	assert.Equal(t, &types.MacroTargets{}, byID["b"].MacroTargets)
	require.NotNil(t, byID["c"].MacroTargets.P)
	assert.Equal(t, 150.0, *byID["c"].MacroTargets.P)

	_, err = b.WeightLogs().Record(ctx, "a", "2024-01-07", 80)
	assert.NoError(t, err, "weight_logs should exist after upgrade")
}

func TestSchema_NewerVersionIsRejected(t *testing.T) {
	dir := t.TempDir()
	db := openRaw(t, dir)
	_, err := db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	b := NewBackend()
	err = b.Attach(testConfig(dir))
	assert.ErrorIs(t, err, types.ErrVersionMismatch)
}

func TestSchema_FailedStepKeepsOldVersion(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db := openRaw(t, dir)

	saved := schemaSteps
	t.Cleanup(func() { schemaSteps = saved })
	schemaSteps = append(append([]schemaStep{}, saved...), schemaStep{
		version: SchemaVersion,
		name:    "failing",
		apply: func(context.Context, *sql.Tx) error {
			return errors.New("boom")
		},
	})

	err := migrate(ctx, db)
	require.Error(t, err)

	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	assert.Equal(t, 0, v)

	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'persons'").Scan(&n))
	assert.Equal(t, 0, n, "no table should survive a failed upgrade")
}

func TestSchema_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openRaw(t, t.TempDir())

	require.NoError(t, migrate(ctx, db))
	require.NoError(t, migrate(ctx, db))

	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	assert.Equal(t, SchemaVersion, v)
}

func TestTransact(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mode    TxMode
		tables  []string
		fn      func(tx *Tx) error
		wantErr error
	}{
		{
			name:   "write outside scope",
			mode:   ReadWrite,
			tables: []string{types.PersonsTable},
			fn: func(tx *Tx) error {
				_, err := tx.Exec(types.MetaTable, "DELETE FROM meta")
				return err
			},
			wantErr: types.ErrTableNotInScope,
		},
		{
			name:   "write in read-only unit",
			mode:   ReadOnly,
			tables: []string{types.PersonsTable},
			fn: func(tx *Tx) error {
				_, err := tx.Exec(types.PersonsTable, "DELETE FROM persons")
				return err
			},
			wantErr: types.ErrReadOnlyTx,
		},
		{
			name:    "unknown collection",
			mode:    ReadOnly,
			tables:  []string{"snacks"},
			fn:      func(tx *Tx) error { return nil },
			wantErr: types.ErrTableNotFound,
		},
		{
			name:   "read in scope",
			mode:   ReadOnly,
			tables: []string{types.PersonsTable},
			fn: func(tx *Tx) error {
				_, err := listPersons(tx)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			err := b.Transact(ctx, tt.mode, tt.tables, tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransact_ReadOnlyEnforcedByEngine(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	err := b.Transact(ctx, ReadOnly, []string{types.PersonsTable}, func(tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx, "INSERT INTO persons (id, name) VALUES ('p1', 'Alex')")
		return err
	})
	assert.Error(t, err, "raw writes in a read-only unit must fail")

	require.NoError(t, b.Persons().Put(ctx, &types.Person{ID: "p2", Name: "Sam"}))
	p, err := b.Persons().Get(ctx, "p2")
	require.NoError(t, err)
	require.NotNil(t, p, "read-write units work after a read-only one")

	p, err = b.Persons().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTransact_ErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	boom := errors.New("boom")

	err := b.Transact(ctx, ReadWrite, []string{types.PersonsTable}, func(tx *Tx) error {
		if err := putPerson(tx, &types.Person{ID: "p1", Name: "Alex"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := b.Persons().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p, "write should have been rolled back")
}

func TestTransact_PanicRollsBack(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	assert.Panics(t, func() {
		_ = b.Transact(ctx, ReadWrite, []string{types.PersonsTable}, func(tx *Tx) error {
			if err := putPerson(tx, &types.Person{ID: "p1", Name: "Alex"}); err != nil {
				return err
			}
			panic("unit failed")
		})
	})

	p, err := b.Persons().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTransact_CanceledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := setupBackend(t)

	err := b.Transact(ctx, ReadOnly, []string{types.PersonsTable}, func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, types.ErrTransactionAbort)
}
