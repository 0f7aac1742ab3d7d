// This file implements bulk export and import of whole-store snapshots.
package sqlite

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// snapshotTables are the collections carried by a snapshot. Meta is local
// state and is not exported.
var snapshotTables = []string{
	types.PersonsTable,
	types.EntriesTable,
	types.ProductsTable,
	types.FavoritesTable,
	types.RecentsTable,
	types.WeightLogsTable,
}

// ExportSnapshot reads every exported collection in one read-only
// transaction and returns a consistent copy tagged with the schema version.
func (b *Backend) ExportSnapshot(ctx context.Context) (*types.Snapshot, error) {
	s := &types.Snapshot{SchemaVersion: SchemaVersion, ExportedAt: now()}
	err := b.view(ctx, snapshotTables, func(tx *Tx) error {
		var err error
		if s.Persons, err = listPersons(tx); err != nil {
			return err
		}
		if s.Entries, err = listEntries(tx, "ORDER BY person_id, date, time, created_at"); err != nil {
			return err
		}
		if s.ProductsCache, err = listProducts(tx); err != nil {
			return err
		}
		if s.Favorites, err = listFavorites(tx, "ORDER BY person_id, label, id"); err != nil {
			return err
		}
		if s.Recents, err = listRecents(tx, "ORDER BY used_at DESC, id DESC"); err != nil {
			return err
		}
		s.WeightLogs, err = listWeightLogs(tx, "ORDER BY person_id, date")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("exporting snapshot: %w", err)
	}
	return s, nil
}

// ImportSnapshot replaces the contents of every exported collection with
// the snapshot. Lists are deduplicated by key with the last occurrence
// winning. Records without a key, entries failing validation, weight logs
// without a positive scale weight, and entries or weight logs whose date does
// not parse are dropped and counted in the summary together with the records
// dropped while decoding, rather than failing the import. The replacement and the lastImportAt meta
// write commit together.
func (b *Backend) ImportSnapshot(ctx context.Context, s *types.Snapshot) (*types.ImportSummary, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: snapshot is empty", types.ErrInvalidImportShape)
	}
	if err := s.CheckShape(); err != nil {
		return nil, err
	}

	dropped := make(map[string]int)
	drop := func(name string, n int) {
		if n > 0 {
			dropped[name] += n
		}
	}
	for name, n := range s.Dropped {
		drop(name, n)
	}

	persons, n := uniqueBy(s.Persons, func(p *types.Person) string { return p.ID })
	drop("persons", n)
	persons, n = keepIf(persons, func(p *types.Person) bool { return checkPerson(p) == nil })
	drop("persons", n)

	entries, n := uniqueBy(s.Entries, func(e *types.Entry) string { return e.ID })
	drop("entries", n)
	entries, n = keepIf(entries, func(e *types.Entry) bool {
		if e.PersonID == "" || !validDate(e.Date) || e.Validate() != nil {
			return false
		}
		e.CleanMicronutrients()
		return true
	})
	drop("entries", n)

	products, n := uniqueBy(s.ProductsCache, func(p *types.CachedProduct) string { return p.Barcode })
	drop("productsCache", n)

	favorites, n := uniqueBy(s.Favorites, func(f *types.FavoriteItem) string { return f.ID })
	drop("favorites", n)

	recents, n := uniqueBy(s.Recents, func(r *types.RecentItem) string { return r.ID })
	drop("recents", n)

	weightLogs, n := uniqueBy(s.WeightLogs, func(w *types.WeightLog) string { return w.ID })
	drop("weightLogs", n)
	weightLogs, n = keepIf(weightLogs, func(w *types.WeightLog) bool {
		if w.PersonID == "" || !validDate(w.Date) || w.Validate() != nil {
			return false
		}
		w.CleanTrend()
		return true
	})
	drop("weightLogs", n)
	before := len(weightLogs)
	weightLogs, _ = uniqueBy(weightLogs, func(w *types.WeightLog) string { return w.PersonID + "\x00" + w.Date })
	drop("weightLogs", before-len(weightLogs))

	tables := append(append([]string{}, snapshotTables...), types.MetaTable)
	err := b.update(ctx, tables, func(tx *Tx) error {
		for _, name := range snapshotTables {
			if err := tx.clear(name); err != nil {
				return err
			}
		}
		for i := range persons {
			if err := putPerson(tx, &persons[i]); err != nil {
				return err
			}
		}
		for i := range entries {
			if err := putEntry(tx, &entries[i]); err != nil {
				return err
			}
		}
		for i := range products {
			if err := putProduct(tx, &products[i]); err != nil {
				return err
			}
		}
		for i := range favorites {
			if err := putFavorite(tx, &favorites[i]); err != nil {
				return err
			}
		}
		for i := range recents {
			if err := putRecent(tx, &recents[i]); err != nil {
				return err
			}
		}
		for i := range weightLogs {
			if err := putWeightLog(tx, &weightLogs[i]); err != nil {
				return err
			}
		}
		return putMetaValue(tx, types.MetaLastImportAt, now())
	})
	if err != nil {
		return nil, fmt.Errorf("importing snapshot: %w", err)
	}

	summary := &types.ImportSummary{
		Persons:       len(persons),
		Entries:       len(entries),
		ProductsCache: len(products),
		Favorites:     len(favorites),
		Recents:       len(recents),
		WeightLogs:    len(weightLogs),
		Dropped:       dropped,
	}
	log.WithFields(log.Fields{
		"persons":       summary.Persons,
		"entries":       summary.Entries,
		"productsCache": summary.ProductsCache,
		"favorites":     summary.Favorites,
		"recents":       summary.Recents,
		"weightLogs":    summary.WeightLogs,
		"dropped":       dropped,
	}).Info("snapshot imported")
	return summary, nil
}

func validDate(date string) bool {
	_, err := types.ParseDate(date)
	return err == nil
}

// uniqueBy removes duplicate keys keeping the last occurrence at the position
// of the first. Items with an empty key are removed; their count is returned.
func uniqueBy[T any](items []T, key func(*T) string) ([]T, int) {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	var missing int
	for i := range items {
		k := key(&items[i])
		if k == "" {
			missing++
			continue
		}
		if pos, ok := index[k]; ok {
			out[pos] = items[i]
			continue
		}
		index[k] = len(out)
		out = append(out, items[i])
	}
	return out, missing
}

// keepIf filters items in place and returns the number removed. keep may
// modify the item it is given.
func keepIf[T any](items []T, keep func(*T) bool) ([]T, int) {
	out := items[:0]
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, len(items) - len(out)
}
