// This file implements the meta key/value collection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// MetaTable stores free-form key/value settings.
type MetaTable struct {
	backend *Backend
}

// Get returns the entry stored under key, or nil if there is none.
func (mt *MetaTable) Get(ctx context.Context, key string) (*types.MetaEntry, error) {
	if key == "" {
		return nil, types.MissingID("key")
	}
	var entry *types.MetaEntry
	err := mt.backend.view(ctx, []string{types.MetaTable}, func(tx *Tx) error {
		var err error
		entry, err = getMeta(tx, key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting meta %s: %w", key, err)
	}
	return entry, nil
}

// GetAll returns every meta entry ordered by key.
func (mt *MetaTable) GetAll(ctx context.Context) ([]types.MetaEntry, error) {
	entries := []types.MetaEntry{}
	err := mt.backend.view(ctx, []string{types.MetaTable}, func(tx *Tx) error {
		rows, err := tx.Query(types.MetaTable, "SELECT key, value FROM meta ORDER BY key")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e types.MetaEntry
			var value string
			if err := rows.Scan(&e.Key, &value); err != nil {
				return err
			}
			e.Value = json.RawMessage(value)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing meta: %w", err)
	}
	return entries, nil
}

// Put creates or replaces a meta entry. An empty value is stored as null.
func (mt *MetaTable) Put(ctx context.Context, e *types.MetaEntry) error {
	if e == nil {
		return types.ErrInvalidData
	}
	return mt.SetValue(ctx, e.Key, e.Value)
}

// SetValue stores v, encoded as JSON, under key.
func (mt *MetaTable) SetValue(ctx context.Context, key string, v any) error {
	if key == "" {
		return types.MissingID("key")
	}
	return mt.backend.update(ctx, []string{types.MetaTable}, func(tx *Tx) error {
		return putMetaValue(tx, key, v)
	})
}

// Delete removes key. A missing key is not an error.
func (mt *MetaTable) Delete(ctx context.Context, key string) error {
	if key == "" {
		return types.MissingID("key")
	}
	return mt.backend.update(ctx, []string{types.MetaTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.MetaTable, "key = ?", key)
		return err
	})
}

// LastPortion returns the gram amount last logged by a person for a food, or
// nil if none was remembered.
func (mt *MetaTable) LastPortion(ctx context.Context, personID, foodID string) (*float64, error) {
	entry, err := mt.Get(ctx, types.LastPortionMetaKey(types.LastPortionKey(personID, foodID)))
	if err != nil || entry == nil {
		return nil, err
	}
	var grams *float64
	if err := json.Unmarshal(entry.Value, &grams); err != nil {
		return nil, fmt.Errorf("decoding last portion: %w", err)
	}
	return grams, nil
}

func getMeta(tx *Tx, key string) (*types.MetaEntry, error) {
	row, err := tx.QueryRow(types.MetaTable, "SELECT value FROM meta WHERE key = ?", key)
	if err != nil {
		return nil, err
	}
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &types.MetaEntry{Key: key, Value: json.RawMessage(value)}, nil
}

func putMetaValue(tx *Tx, key string, v any) error {
	value, err := marshalMetaValue(v)
	if err != nil {
		return err
	}
	_, err = tx.Exec(types.MetaTable,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value))
	if err != nil {
		return fmt.Errorf("persisting meta %s: %w", key, err)
	}
	return nil
}

func marshalMetaValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: meta value is not valid JSON", types.ErrInvalidData)
		}
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding meta value: %w", err)
	}
	return b, nil
}
