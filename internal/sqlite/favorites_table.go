// This file implements the favorites collection. A favorite is keyed by
// (person, food), so adding and removing is a single toggle.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const favoriteColumns = "id, person_id, food_id, label, nutrition, source_type, piece_gram_hint, image_url, created_at"

// FavoritesTable reads and writes favorite foods.
type FavoritesTable struct {
	backend *Backend
}

// Toggle removes the favorite for (personID, food.FoodID) if it exists and
// inserts it otherwise. Returns true when the food is a favorite afterwards.
func (ft *FavoritesTable) Toggle(ctx context.Context, personID string, food types.FoodItem) (bool, error) {
	if personID == "" {
		return false, types.MissingID("personId")
	}
	if food.FoodID == "" {
		return false, types.MissingID("foodId")
	}
	id := types.FavoriteID(personID, food.FoodID)

	var added bool
	err := ft.backend.update(ctx, []string{types.FavoritesTable}, func(tx *Tx) error {
		n, err := tx.deleteWhere(types.FavoritesTable, "id = ?", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		added = true
		return putFavorite(tx, &types.FavoriteItem{
			ID:        id,
			PersonID:  personID,
			FoodItem:  food,
			CreatedAt: now(),
		})
	})
	if err != nil {
		return false, fmt.Errorf("toggling favorite %s: %w", id, err)
	}
	return added, nil
}

// IsFavorite reports whether a person has marked a food as favorite.
func (ft *FavoritesTable) IsFavorite(ctx context.Context, personID, foodID string) (bool, error) {
	item, err := ft.Get(ctx, types.FavoriteID(personID, foodID))
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Get returns the favorite with id, or nil if there is none.
func (ft *FavoritesTable) Get(ctx context.Context, id string) (*types.FavoriteItem, error) {
	if id == "" {
		return nil, types.MissingID("id")
	}
	var item *types.FavoriteItem
	err := ft.backend.view(ctx, []string{types.FavoritesTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.FavoritesTable, "SELECT "+favoriteColumns+" FROM favorites WHERE id = ?", id)
		if err != nil {
			return err
		}
		item, err = scanFavorite(row)
		if errors.Is(err, sql.ErrNoRows) {
			item = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting favorite %s: %w", id, err)
	}
	return item, nil
}

// GetAll returns every favorite.
func (ft *FavoritesTable) GetAll(ctx context.Context) ([]types.FavoriteItem, error) {
	return ft.query(ctx, "ORDER BY person_id, label, id")
}

// ForPerson returns a person's favorites ordered by label.
func (ft *FavoritesTable) ForPerson(ctx context.Context, personID string) ([]types.FavoriteItem, error) {
	return ft.query(ctx, "WHERE person_id = ? ORDER BY label, id", personID)
}

// Put creates or replaces a favorite. The id is derived from the person and
// food.
func (ft *FavoritesTable) Put(ctx context.Context, f *types.FavoriteItem) error {
	if f == nil {
		return types.ErrInvalidData
	}
	if f.PersonID == "" {
		return types.MissingID("personId")
	}
	if f.FoodID == "" {
		return types.MissingID("foodId")
	}
	f.ID = types.FavoriteID(f.PersonID, f.FoodID)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now()
	}
	return ft.backend.update(ctx, []string{types.FavoritesTable}, func(tx *Tx) error {
		return putFavorite(tx, f)
	})
}

// Delete removes the favorite with id. A missing favorite is not an error.
func (ft *FavoritesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.MissingID("id")
	}
	return ft.backend.update(ctx, []string{types.FavoritesTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.FavoritesTable, "id = ?", id)
		return err
	})
}

func (ft *FavoritesTable) query(ctx context.Context, clause string, args ...any) ([]types.FavoriteItem, error) {
	var items []types.FavoriteItem
	err := ft.backend.view(ctx, []string{types.FavoritesTable}, func(tx *Tx) error {
		var err error
		items, err = listFavorites(tx, clause, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return items, nil
}

func putFavorite(tx *Tx, f *types.FavoriteItem) error {
	nutrition, err := encodeJSON(f.Nutrition)
	if err != nil {
		return err
	}
	_, err = tx.Exec(types.FavoritesTable, `INSERT INTO favorites (`+favoriteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET person_id = excluded.person_id, food_id = excluded.food_id,
    label = excluded.label, nutrition = excluded.nutrition, source_type = excluded.source_type,
    piece_gram_hint = excluded.piece_gram_hint, image_url = excluded.image_url,
    created_at = excluded.created_at`,
		f.ID, f.PersonID, f.FoodID, f.Label, nutrition.String, f.SourceType,
		encodeFloat(f.PieceGramHint), f.ImageURL, encodeTime(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("persisting favorite %s: %w", f.ID, err)
	}
	return nil
}

func listFavorites(tx *Tx, clause string, args ...any) ([]types.FavoriteItem, error) {
	rows, err := tx.Query(types.FavoritesTable, "SELECT "+favoriteColumns+" FROM favorites "+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []types.FavoriteItem{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

func scanFavorite(s scanner) (*types.FavoriteItem, error) {
	var f types.FavoriteItem
	var nutrition sql.NullString
	var hint sql.NullFloat64
	var createdAt int64
	err := s.Scan(&f.ID, &f.PersonID, &f.FoodID, &f.Label, &nutrition, &f.SourceType,
		&hint, &f.ImageURL, &createdAt)
	if err != nil {
		return nil, err
	}
	f.PieceGramHint = decodeFloat(hint)
	f.CreatedAt = decodeTime(createdAt)
	if err := decodeJSON(nutrition, &f.Nutrition); err != nil {
		return nil, fmt.Errorf("favorite %s nutrition: %w", f.ID, err)
	}
	return &f, nil
}
