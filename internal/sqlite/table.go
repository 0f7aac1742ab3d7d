package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// table implements types.Table for one collection by dispatching to the
// typed accessor for that collection.
type table struct {
	name    string
	backend *Backend
}

var _ types.Table = (*table)(nil)

// Get retrieves a record by id. Returns ErrNotFound if it does not exist.
func (t *table) Get(ctx context.Context, id string) (any, error) {
	var (
		record any
		err    error
	)
	b := t.backend
	switch t.name {
	case types.PersonsTable:
		record, err = nilIfAbsent(b.Persons().Get(ctx, id))
	case types.EntriesTable:
		record, err = nilIfAbsent(b.Entries().Get(ctx, id))
	case types.ProductsTable:
		record, err = nilIfAbsent(b.Products().Get(ctx, id))
	case types.FavoritesTable:
		record, err = nilIfAbsent(b.Favorites().Get(ctx, id))
	case types.RecentsTable:
		record, err = nilIfAbsent(b.Recents().Get(ctx, id))
	case types.WeightLogsTable:
		record, err = nilIfAbsent(b.WeightLogs().Get(ctx, id))
	case types.MetaTable:
		record, err = nilIfAbsent(b.Meta().Get(ctx, id))
	default:
		return nil, types.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, types.ErrNotFound
	}
	return record, nil
}

// nilIfAbsent converts a typed nil pointer to an untyped nil so callers can
// compare the result against nil.
func nilIfAbsent[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

// Set creates or replaces a record. data must be the collection's record
// pointer. A non-empty id overrides the record's own key. When no key is
// given, entries, recents and weight logs receive a generated id; favorites
// derive theirs from the person and food.
func (t *table) Set(ctx context.Context, id string, data any) (string, error) {
	b := t.backend
	switch t.name {
	case types.PersonsTable:
		p, ok := data.(*types.Person)
		if !ok {
			return "", types.ErrInvalidData
		}
		p.ID = pick(id, p.ID)
		if p.ID == "" {
			p.ID = newUUID()
		}
		return p.ID, b.Persons().Put(ctx, p)

	case types.EntriesTable:
		e, ok := data.(*types.Entry)
		if !ok {
			return "", types.ErrInvalidData
		}
		e.ID = pick(id, e.ID)
		if e.ID == "" {
			stored, err := b.Entries().Add(ctx, e)
			if err != nil {
				return "", err
			}
			*e = *stored
			return e.ID, nil
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now()
		}
		return e.ID, b.Entries().Put(ctx, e)

	case types.ProductsTable:
		p, ok := data.(*types.CachedProduct)
		if !ok {
			return "", types.ErrInvalidData
		}
		p.Barcode = pick(id, p.Barcode)
		return p.Barcode, b.Products().Put(ctx, p)

	case types.FavoritesTable:
		f, ok := data.(*types.FavoriteItem)
		if !ok {
			return "", types.ErrInvalidData
		}
		if err := b.Favorites().Put(ctx, f); err != nil {
			return "", err
		}
		return f.ID, nil

	case types.RecentsTable:
		r, ok := data.(*types.RecentItem)
		if !ok {
			return "", types.ErrInvalidData
		}
		r.ID = pick(id, r.ID)
		if r.ID == "" {
			stored, err := b.Recents().RecordUsage(ctx, r.PersonID, r.FoodItem)
			if err != nil {
				return "", err
			}
			*r = *stored
			return r.ID, nil
		}
		return r.ID, b.Recents().Put(ctx, r)

	case types.WeightLogsTable:
		wl, ok := data.(*types.WeightLog)
		if !ok {
			return "", types.ErrInvalidData
		}
		wl.ID = pick(id, wl.ID)
		if wl.ID == "" {
			stored, err := b.WeightLogs().Record(ctx, wl.PersonID, wl.Date, wl.ScaleWeight)
			if err != nil {
				return "", err
			}
			*wl = *stored
			return wl.ID, nil
		}
		return wl.ID, b.WeightLogs().Put(ctx, wl)

	case types.MetaTable:
		m, ok := data.(*types.MetaEntry)
		if !ok {
			return "", types.ErrInvalidData
		}
		m.Key = pick(id, m.Key)
		return m.Key, b.Meta().Put(ctx, m)

	default:
		return "", types.ErrTableNotFound
	}
}

func pick(id, own string) string {
	if id != "" {
		return id
	}
	return own
}

// Delete removes a record by id. Deleting a person cascades to every record
// that references it.
func (t *table) Delete(ctx context.Context, id string) error {
	b := t.backend
	switch t.name {
	case types.PersonsTable:
		return b.Persons().Delete(ctx, id)
	case types.EntriesTable:
		return b.Entries().Delete(ctx, id)
	case types.ProductsTable:
		return b.Products().Delete(ctx, id)
	case types.FavoritesTable:
		return b.Favorites().Delete(ctx, id)
	case types.RecentsTable:
		return b.Recents().Delete(ctx, id)
	case types.WeightLogsTable:
		return b.WeightLogs().Delete(ctx, id)
	case types.MetaTable:
		return b.Meta().Delete(ctx, id)
	default:
		return types.ErrTableNotFound
	}
}

// Fetch returns records matching filter. Person-scoped collections accept
// "personId"; entries and weight_logs also accept "date"; recents accepts
// "limit" together with "personId" for the deduplicated recency list.
// Unknown keys and wrongly typed values return ErrInvalidFilter.
func (t *table) Fetch(ctx context.Context, filter map[string]any) ([]any, error) {
	f, err := parseFilter(t.name, filter)
	if err != nil {
		return nil, err
	}
	b := t.backend
	switch t.name {
	case types.PersonsTable:
		return toAny(b.Persons().GetAll(ctx))
	case types.EntriesTable:
		switch {
		case f.personID != "" && f.date != "":
			return toAny(b.Entries().ForPersonDate(ctx, f.personID, f.date))
		case f.personID != "":
			return toAny(b.Entries().ForPerson(ctx, f.personID))
		case f.date != "":
			return nil, fmt.Errorf("%w: date requires personId", types.ErrInvalidFilter)
		}
		return toAny(b.Entries().GetAll(ctx))
	case types.ProductsTable:
		return toAny(b.Products().GetAll(ctx))
	case types.FavoritesTable:
		if f.personID != "" {
			return toAny(b.Favorites().ForPerson(ctx, f.personID))
		}
		return toAny(b.Favorites().GetAll(ctx))
	case types.RecentsTable:
		switch {
		case f.personID != "" && f.limit > 0:
			return toAny(b.Recents().List(ctx, f.personID, f.limit))
		case f.personID != "":
			return toAny(b.Recents().ForPerson(ctx, f.personID))
		case f.limit > 0:
			return nil, fmt.Errorf("%w: limit requires personId", types.ErrInvalidFilter)
		}
		return toAny(b.Recents().GetAll(ctx))
	case types.WeightLogsTable:
		switch {
		case f.personID != "" && f.date != "":
			wl, err := b.WeightLogs().ForPersonDate(ctx, f.personID, f.date)
			if err != nil {
				return nil, err
			}
			if wl == nil {
				return []any{}, nil
			}
			return []any{wl}, nil
		case f.personID != "":
			return toAny(b.WeightLogs().ForPerson(ctx, f.personID))
		case f.date != "":
			return nil, fmt.Errorf("%w: date requires personId", types.ErrInvalidFilter)
		}
		return toAny(b.WeightLogs().GetAll(ctx))
	case types.MetaTable:
		return toAny(b.Meta().GetAll(ctx))
	default:
		return nil, types.ErrTableNotFound
	}
}

type fetchFilter struct {
	personID string
	date     string
	limit    int
}

// filterKeys lists the filter keys each collection accepts.
var filterKeys = map[string][]string{
	types.EntriesTable:    {"personId", "date"},
	types.FavoritesTable:  {"personId"},
	types.RecentsTable:    {"personId", "limit"},
	types.WeightLogsTable: {"personId", "date"},
}

func parseFilter(tableName string, filter map[string]any) (fetchFilter, error) {
	var f fetchFilter
	allowed := filterKeys[tableName]
	for key, value := range filter {
		if !contains(allowed, key) {
			return f, fmt.Errorf("%w: %s does not accept %q", types.ErrInvalidFilter, tableName, key)
		}
		var ok bool
		switch key {
		case "personId":
			f.personID, ok = value.(string)
		case "date":
			f.date, ok = value.(string)
		case "limit":
			f.limit, ok = toInt(value)
		}
		if !ok {
			return f, fmt.Errorf("%w: %s has type %T", types.ErrInvalidFilter, key, value)
		}
	}
	return f, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// toInt accepts the integer types and whole float64 values produced by
// decoded JSON.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toAny[T any](records []T, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}
