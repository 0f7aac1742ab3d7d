// This file implements the recents collection: a most-recently-used list of
// foods per person, deduplicated by food.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const recentColumns = "id, person_id, food_id, label, nutrition, source_type, piece_gram_hint, image_url, used_at"

// RecentsTable reads and writes recently used foods.
type RecentsTable struct {
	backend *Backend
}

// RecordUsage marks food as just used by a person. Any existing record for
// the same (person, food) is removed and a fresh one inserted with UsedAt set
// to now, so at most one record per pair exists.
func (rt *RecentsTable) RecordUsage(ctx context.Context, personID string, food types.FoodItem) (*types.RecentItem, error) {
	var item *types.RecentItem
	err := rt.backend.update(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		var err error
		item, err = recordUsage(tx, personID, food)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recording usage: %w", err)
	}
	return item, nil
}

// List returns up to limit recent foods of a person, most recent first, with
// distinct food ids. A limit of zero or less uses DefaultRecentsLimit.
func (rt *RecentsTable) List(ctx context.Context, personID string, limit int) ([]types.RecentItem, error) {
	if limit <= 0 {
		limit = types.DefaultRecentsLimit
	}
	out := []types.RecentItem{}
	err := rt.backend.view(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		rows, err := tx.Query(types.RecentsTable, "SELECT "+recentColumns+
			" FROM recents WHERE person_id = ? ORDER BY used_at DESC, id DESC", personID)
		if err != nil {
			return err
		}
		defer rows.Close()

		seen := make(map[string]bool)
		for len(out) < limit && rows.Next() {
			r, err := scanRecent(rows)
			if err != nil {
				return err
			}
			if seen[r.FoodID] {
				continue
			}
			seen[r.FoodID] = true
			out = append(out, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing recents: %w", err)
	}
	return out, nil
}

// Get returns the recent item with id, or nil if there is none.
func (rt *RecentsTable) Get(ctx context.Context, id string) (*types.RecentItem, error) {
	if id == "" {
		return nil, types.MissingID("id")
	}
	var item *types.RecentItem
	err := rt.backend.view(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.RecentsTable, "SELECT "+recentColumns+" FROM recents WHERE id = ?", id)
		if err != nil {
			return err
		}
		item, err = scanRecent(row)
		if errors.Is(err, sql.ErrNoRows) {
			item = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting recent %s: %w", id, err)
	}
	return item, nil
}

// GetAll returns every recent item, most recent first.
func (rt *RecentsTable) GetAll(ctx context.Context) ([]types.RecentItem, error) {
	return rt.query(ctx, "ORDER BY used_at DESC, id DESC")
}

// ForPerson returns every recent record of a person, most recent first,
// without deduplication.
func (rt *RecentsTable) ForPerson(ctx context.Context, personID string) ([]types.RecentItem, error) {
	return rt.query(ctx, "WHERE person_id = ? ORDER BY used_at DESC, id DESC", personID)
}

// Put creates or replaces a recent item by id. Callers logging food use
// RecordUsage, which keeps one record per (person, food).
func (rt *RecentsTable) Put(ctx context.Context, r *types.RecentItem) error {
	if r == nil {
		return types.ErrInvalidData
	}
	if r.ID == "" {
		return types.MissingID("id")
	}
	return rt.backend.update(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		return putRecent(tx, r)
	})
}

// Delete removes the recent item with id. A missing item is not an error.
func (rt *RecentsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.MissingID("id")
	}
	return rt.backend.update(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.RecentsTable, "id = ?", id)
		return err
	})
}

func (rt *RecentsTable) query(ctx context.Context, clause string, args ...any) ([]types.RecentItem, error) {
	var items []types.RecentItem
	err := rt.backend.view(ctx, []string{types.RecentsTable}, func(tx *Tx) error {
		var err error
		items, err = listRecents(tx, clause, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing recents: %w", err)
	}
	return items, nil
}

// recordUsage removes the stale (person, food) record before inserting the
// fresh one. Both statements run in the caller's transaction.
func recordUsage(tx *Tx, personID string, food types.FoodItem) (*types.RecentItem, error) {
	if personID == "" {
		return nil, types.MissingID("personId")
	}
	if food.FoodID == "" {
		return nil, types.MissingID("foodId")
	}
	if _, err := tx.deleteWhere(types.RecentsTable, "person_id = ? AND food_id = ?", personID, food.FoodID); err != nil {
		return nil, err
	}
	item := &types.RecentItem{
		ID:       newUUID(),
		PersonID: personID,
		FoodItem: food,
		UsedAt:   now(),
	}
	if err := putRecent(tx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func putRecent(tx *Tx, r *types.RecentItem) error {
	nutrition, err := encodeJSON(r.Nutrition)
	if err != nil {
		return err
	}
	_, err = tx.Exec(types.RecentsTable, `INSERT INTO recents (`+recentColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET person_id = excluded.person_id, food_id = excluded.food_id,
    label = excluded.label, nutrition = excluded.nutrition, source_type = excluded.source_type,
    piece_gram_hint = excluded.piece_gram_hint, image_url = excluded.image_url,
    used_at = excluded.used_at`,
		r.ID, r.PersonID, r.FoodID, r.Label, nutrition.String, r.SourceType,
		encodeFloat(r.PieceGramHint), r.ImageURL, encodeTime(r.UsedAt))
	if err != nil {
		return fmt.Errorf("persisting recent %s: %w", r.ID, err)
	}
	return nil
}

func listRecents(tx *Tx, clause string, args ...any) ([]types.RecentItem, error) {
	rows, err := tx.Query(types.RecentsTable, "SELECT "+recentColumns+" FROM recents "+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []types.RecentItem{}
	for rows.Next() {
		r, err := scanRecent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	return items, rows.Err()
}

func scanRecent(s scanner) (*types.RecentItem, error) {
	var r types.RecentItem
	var nutrition sql.NullString
	var hint sql.NullFloat64
	var usedAt int64
	err := s.Scan(&r.ID, &r.PersonID, &r.FoodID, &r.Label, &nutrition, &r.SourceType,
		&hint, &r.ImageURL, &usedAt)
	if err != nil {
		return nil, err
	}
	r.PieceGramHint = decodeFloat(hint)
	r.UsedAt = decodeTime(usedAt)
	if err := decodeJSON(nutrition, &r.Nutrition); err != nil {
		return nil, fmt.Errorf("recent %s nutrition: %w", r.ID, err)
	}
	return &r, nil
}
