// This file implements person deletion with its cascade to dependent records.
package sqlite

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// DeletePerson removes a person and every entry, favorite, recent and weight
// log that references it, in one read-write transaction. Deleting a person
// with no dependents, or one that does not exist, succeeds.
func (b *Backend) DeletePerson(ctx context.Context, personID string) error {
	if personID == "" {
		return types.MissingID("personId")
	}

	tables := append([]string{types.PersonsTable}, types.PersonScopedTables...)
	removed := make(log.Fields, len(tables))
	err := b.update(ctx, tables, func(tx *Tx) error {
		for _, name := range types.PersonScopedTables {
			n, err := tx.deleteWhere(name, "person_id = ?", personID)
			if err != nil {
				return err
			}
			removed[name] = n
		}
		n, err := tx.deleteWhere(types.PersonsTable, "id = ?", personID)
		if err != nil {
			return err
		}
		removed[types.PersonsTable] = n
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting person %s: %w", personID, err)
	}

	log.WithFields(removed).WithField("person", personID).Debug("person deleted")
	return nil
}
