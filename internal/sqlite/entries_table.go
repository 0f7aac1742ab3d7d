// This file implements the entries collection and the logging write path
// that refreshes recency and the remembered portion size.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const entryColumns = `id, person_id, date, time, food_id, food_name, amount_grams, kcal, p, c, f,
    micronutrients, source, created_at, last_portion_key, recent_item`

// EntriesTable reads and writes logged food entries.
type EntriesTable struct {
	backend *Backend
}

// Add logs a food entry. It assigns an id and creation time when missing,
// validates the nutrition values and, in the same transaction, refreshes the
// person's recents when the entry carries a recent item and remembers the
// gram amount under the entry's portion key. Returns the stored entry.
func (et *EntriesTable) Add(ctx context.Context, e *types.Entry) (*types.Entry, error) {
	if e == nil {
		return nil, types.ErrInvalidData
	}
	stored := *e
	if stored.ID == "" {
		stored.ID = newUUID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now()
	}
	if err := checkEntry(&stored); err != nil {
		return nil, err
	}

	tables := []string{types.EntriesTable, types.RecentsTable, types.MetaTable}
	err := et.backend.update(ctx, tables, func(tx *Tx) error {
		if err := putEntry(tx, &stored); err != nil {
			return err
		}
		if stored.RecentItem != nil {
			if _, err := recordUsage(tx, stored.PersonID, *stored.RecentItem); err != nil {
				return err
			}
		}
		if stored.LastPortionKey != "" {
			if err := putMetaValue(tx, types.LastPortionMetaKey(stored.LastPortionKey), stored.AmountGrams); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding entry: %w", err)
	}
	return &stored, nil
}

// Put creates or replaces an entry by id without touching recents or meta.
func (et *EntriesTable) Put(ctx context.Context, e *types.Entry) error {
	if e == nil {
		return types.ErrInvalidData
	}
	if e.ID == "" {
		return types.MissingID("id")
	}
	if err := checkEntry(e); err != nil {
		return err
	}
	return et.backend.update(ctx, []string{types.EntriesTable}, func(tx *Tx) error {
		return putEntry(tx, e)
	})
}

// Get returns the entry with id, or nil if there is none.
func (et *EntriesTable) Get(ctx context.Context, id string) (*types.Entry, error) {
	if id == "" {
		return nil, types.MissingID("id")
	}
	var entry *types.Entry
	err := et.backend.view(ctx, []string{types.EntriesTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.EntriesTable,
			"SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
		if err != nil {
			return err
		}
		entry, err = scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			entry = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting entry %s: %w", id, err)
	}
	return entry, nil
}

// GetAll returns every entry.
func (et *EntriesTable) GetAll(ctx context.Context) ([]types.Entry, error) {
	return et.query(ctx, "ORDER BY person_id, date, time, created_at")
}

// Delete removes the entry with id. A missing entry is not an error.
func (et *EntriesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.MissingID("id")
	}
	return et.backend.update(ctx, []string{types.EntriesTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.EntriesTable, "id = ?", id)
		return err
	})
}

// ForPerson returns every entry of a person ordered by date and time.
func (et *EntriesTable) ForPerson(ctx context.Context, personID string) ([]types.Entry, error) {
	return et.query(ctx, "WHERE person_id = ? ORDER BY date, time, created_at", personID)
}

// ForPersonDate returns a person's entries for one day ordered by time.
func (et *EntriesTable) ForPersonDate(ctx context.Context, personID, date string) ([]types.Entry, error) {
	return et.query(ctx, "WHERE person_id = ? AND date = ? ORDER BY time, created_at", personID, date)
}

// ForPersonDateRange returns a person's entries with from <= date <= to.
func (et *EntriesTable) ForPersonDateRange(ctx context.Context, personID, from, to string) ([]types.Entry, error) {
	return et.query(ctx,
		"WHERE person_id = ? AND date >= ? AND date <= ? ORDER BY date, time, created_at",
		personID, from, to)
}

func (et *EntriesTable) query(ctx context.Context, clause string, args ...any) ([]types.Entry, error) {
	var entries []types.Entry
	err := et.backend.view(ctx, []string{types.EntriesTable}, func(tx *Tx) error {
		var err error
		entries, err = listEntries(tx, clause, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

func checkEntry(e *types.Entry) error {
	if e.PersonID == "" {
		return types.MissingID("personId")
	}
	if _, err := types.ParseDate(e.Date); err != nil {
		return &types.ValidationError{Field: "date", Message: err.Error(), Err: types.ErrInvalidEntry}
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.CleanMicronutrients()
	return nil
}

func putEntry(tx *Tx, e *types.Entry) error {
	micros, err := encodeJSON(e.Micronutrients)
	if err != nil {
		return err
	}
	var recent sql.NullString
	if e.RecentItem != nil {
		if recent, err = encodeJSON(e.RecentItem); err != nil {
			return err
		}
	}
	_, err = tx.Exec(types.EntriesTable, `INSERT INTO entries (`+entryColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET person_id = excluded.person_id, date = excluded.date,
    time = excluded.time, food_id = excluded.food_id, food_name = excluded.food_name,
    amount_grams = excluded.amount_grams, kcal = excluded.kcal, p = excluded.p, c = excluded.c,
    f = excluded.f, micronutrients = excluded.micronutrients, source = excluded.source,
    created_at = excluded.created_at, last_portion_key = excluded.last_portion_key,
    recent_item = excluded.recent_item`,
		e.ID, e.PersonID, e.Date, e.Time, e.FoodID, e.FoodName, e.AmountGrams,
		e.Kcal, e.P, e.C, e.F, micros, e.Source, encodeTime(e.CreatedAt),
		sql.NullString{String: e.LastPortionKey, Valid: e.LastPortionKey != ""}, recent)
	if err != nil {
		return fmt.Errorf("persisting entry %s: %w", e.ID, err)
	}
	return nil
}

func listEntries(tx *Tx, clause string, args ...any) ([]types.Entry, error) {
	rows, err := tx.Query(types.EntriesTable, "SELECT "+entryColumns+" FROM entries "+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []types.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(s scanner) (*types.Entry, error) {
	var e types.Entry
	var micros, portionKey, recent sql.NullString
	var createdAt int64
	err := s.Scan(&e.ID, &e.PersonID, &e.Date, &e.Time, &e.FoodID, &e.FoodName,
		&e.AmountGrams, &e.Kcal, &e.P, &e.C, &e.F, &micros, &e.Source, &createdAt,
		&portionKey, &recent)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = decodeTime(createdAt)
	e.LastPortionKey = portionKey.String
	if err := decodeJSON(micros, &e.Micronutrients); err != nil {
		return nil, fmt.Errorf("entry %s micronutrients: %w", e.ID, err)
	}
	if err := decodeJSON(recent, &e.RecentItem); err != nil {
		return nil, fmt.Errorf("entry %s recent item: %w", e.ID, err)
	}
	return &e, nil
}
