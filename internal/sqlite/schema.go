package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// SchemaVersion is the schema version this code reads and writes. It is
// stored in PRAGMA user_version.
const SchemaVersion = 3

// Collection DDL. Nested values are JSON text; timestamps are Unix
// nanoseconds.
const (
	createPersons = `CREATE TABLE IF NOT EXISTS persons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    kcal_goal REAL NOT NULL DEFAULT 0,
    macro_targets TEXT
);`

	createEntries = `CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    date TEXT NOT NULL,
    time TEXT NOT NULL,
    food_id TEXT NOT NULL,
    food_name TEXT NOT NULL,
    amount_grams REAL NOT NULL,
    kcal REAL NOT NULL,
    p REAL NOT NULL,
    c REAL NOT NULL,
    f REAL NOT NULL,
    micronutrients TEXT,
    source TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_portion_key TEXT,
    recent_item TEXT
);`

	createProductsCache = `CREATE TABLE IF NOT EXISTS products_cache (
    barcode TEXT PRIMARY KEY,
    product_name TEXT NOT NULL,
    brands TEXT NOT NULL,
    image_url TEXT NOT NULL,
    nutrition TEXT NOT NULL,
    source TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);`

	createFavorites = `CREATE TABLE IF NOT EXISTS favorites (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    food_id TEXT NOT NULL,
    label TEXT NOT NULL,
    nutrition TEXT NOT NULL,
    source_type TEXT NOT NULL,
    piece_gram_hint REAL,
    image_url TEXT NOT NULL,
    created_at INTEGER NOT NULL
);`

	createRecents = `CREATE TABLE IF NOT EXISTS recents (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    food_id TEXT NOT NULL,
    label TEXT NOT NULL,
    nutrition TEXT NOT NULL,
    source_type TEXT NOT NULL,
    piece_gram_hint REAL,
    image_url TEXT NOT NULL,
    used_at INTEGER NOT NULL
);`

	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createWeightLogs = `CREATE TABLE IF NOT EXISTS weight_logs (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    date TEXT NOT NULL,
    scale_weight REAL NOT NULL,
    trend_weight REAL
);`
)

// Index DDL.
const (
	idxEntriesPersonDate     = `CREATE INDEX IF NOT EXISTS idx_entries_person_date ON entries(person_id, date);`
	idxEntriesPersonDateTime = `CREATE INDEX IF NOT EXISTS idx_entries_person_date_time ON entries(person_id, date, time);`
	idxEntriesPerson         = `CREATE INDEX IF NOT EXISTS idx_entries_person ON entries(person_id);`
	idxFavoritesPerson       = `CREATE INDEX IF NOT EXISTS idx_favorites_person ON favorites(person_id);`
	idxFavoritesPersonLabel  = `CREATE INDEX IF NOT EXISTS idx_favorites_person_label ON favorites(person_id, label);`
	idxRecentsPersonUsedAt   = `CREATE INDEX IF NOT EXISTS idx_recents_person_used_at ON recents(person_id, used_at);`
	idxRecentsPersonFood     = `CREATE INDEX IF NOT EXISTS idx_recents_person_food ON recents(person_id, food_id);`
	idxWeightLogsPerson      = `CREATE INDEX IF NOT EXISTS idx_weight_logs_person ON weight_logs(person_id);`
	idxWeightLogsDate        = `CREATE INDEX IF NOT EXISTS idx_weight_logs_date ON weight_logs(date);`
	idxWeightLogsPersonDate  = `CREATE UNIQUE INDEX IF NOT EXISTS idx_weight_logs_person_date ON weight_logs(person_id, date);`
)

// baseDDL creates the collections present since version 1.
var baseDDL = []string{
	createPersons,
	createEntries,
	createProductsCache,
	createFavorites,
	createRecents,
	createMeta,
	idxEntriesPersonDate,
	idxEntriesPersonDateTime,
	idxEntriesPerson,
	idxFavoritesPerson,
	idxFavoritesPersonLabel,
	idxRecentsPersonUsedAt,
	idxRecentsPersonFood,
}

// weightLogsDDL creates the weight log collection added in version 3.
var weightLogsDDL = []string{
	createWeightLogs,
	idxWeightLogsPerson,
	idxWeightLogsDate,
	idxWeightLogsPersonDate,
}

// schemaStep upgrades a store to version. Steps must be idempotent.
type schemaStep struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// schemaSteps lists upgrade steps in ascending version order.
var schemaSteps = []schemaStep{
	{1, "base collections", execDDL(baseDDL)},
	{2, "backfill person macro targets", backfillMacroTargets},
	{3, "weight logs", execDDL(weightLogsDDL)},
}

func execDDL(stmts []string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing %q: %w", stmt, err)
			}
		}
		return nil
	}
}

// defaultMacroTargets is the JSON written for persons without targets.
const defaultMacroTargets = `{"p":null,"c":null,"f":null}`

// backfillMacroTargets scans every person once and sets empty macro targets
// where the column is missing or not a JSON object.
func backfillMacroTargets(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "SELECT id, macro_targets FROM persons")
	if err != nil {
		return fmt.Errorf("scanning persons: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		var raw sql.NullString
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("scanning person: %w", err)
		}
		var obj map[string]any
		if !raw.Valid || json.Unmarshal([]byte(raw.String), &obj) != nil || obj == nil {
			ids = append(ids, id)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"UPDATE persons SET macro_targets = ? WHERE id = ?", defaultMacroTargets, id); err != nil {
			return fmt.Errorf("backfilling person %s: %w", id, err)
		}
	}
	if len(ids) > 0 {
		log.WithField("persons", len(ids)).Info("backfilled macro targets")
	}
	return nil
}

// migrate brings the database to SchemaVersion. Pending steps, an
// ensure-pass over all DDL and the version bump share one transaction, so a
// failing step leaves the file at its old version.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("%w: file has version %d, code supports %d",
			types.ErrVersionMismatch, current, SchemaVersion)
	}

	for _, step := range schemaSteps {
		if step.version <= current {
			continue
		}
		if err := step.apply(ctx, tx); err != nil {
			return fmt.Errorf("schema step %d (%s): %w", step.version, step.name, err)
		}
	}

	ensure := append(append([]string{}, baseDDL...), weightLogsDDL...)
	if err := execDDL(ensure)(ctx, tx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	if current != SchemaVersion {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	if current != SchemaVersion {
		log.WithFields(log.Fields{"from": current, "to": SchemaVersion}).Info("schema upgraded")
	}
	return nil
}
