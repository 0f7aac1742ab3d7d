// This file implements sample data seeding and whole-store wiping.
package sqlite

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// samplePerson describes a person created by SeedSampleData.
type samplePerson struct {
	name     string
	kcalGoal float64
	p, c, f  float64
}

// sampleEntry describes an entry logged today for the sample person at
// index person.
type sampleEntry struct {
	person      int
	time        string
	foodID      string
	foodName    string
	amountGrams float64
	kcal        float64
	p, c, f     float64
	source      string
}

var samplePersons = []samplePerson{
	{"Alex", 2200, 160, 240, 70},
	{"Sam", 1800, 120, 190, 60},
}

var sampleEntries = []sampleEntry{
	{0, "08:15", "gf_oats", "Oats (dry)", 60, 233, 10, 40, 4, "Manual (Generic built-in)"},
	{1, "12:30", "custom_chicken", "Chicken breast (cooked)", 150, 248, 46, 0, 5, "Manual (Custom)"},
}

// SampleData is what SeedSampleData inserted.
type SampleData struct {
	Persons []types.Person `json:"persons"`
	Entries []types.Entry  `json:"entries"`
}

// SeedSampleData replaces all persons and their records with two sample
// persons, each with one entry logged today, and records the seeding time in
// meta. Cached products are kept.
func (b *Backend) SeedSampleData(ctx context.Context) (*SampleData, error) {
	today := types.Today()
	created := now()
	data := &SampleData{}
	for _, sp := range samplePersons {
		p, c, f := sp.p, sp.c, sp.f
		data.Persons = append(data.Persons, types.Person{
			ID:           newUUID(),
			Name:         sp.name,
			KcalGoal:     sp.kcalGoal,
			MacroTargets: &types.MacroTargets{P: &p, C: &c, F: &f},
		})
	}
	for _, se := range sampleEntries {
		data.Entries = append(data.Entries, types.Entry{
			ID:          newUUID(),
			PersonID:    data.Persons[se.person].ID,
			Date:        today,
			Time:        se.time,
			FoodID:      se.foodID,
			FoodName:    se.foodName,
			AmountGrams: se.amountGrams,
			Kcal:        se.kcal,
			P:           se.p,
			C:           se.c,
			F:           se.f,
			Source:      se.source,
			CreatedAt:   created,
		})
	}

	tables := append([]string{types.PersonsTable, types.MetaTable}, types.PersonScopedTables...)
	err := b.update(ctx, tables, func(tx *Tx) error {
		for _, name := range append([]string{types.PersonsTable}, types.PersonScopedTables...) {
			if err := tx.clear(name); err != nil {
				return err
			}
		}
		for i := range data.Persons {
			if err := putPerson(tx, &data.Persons[i]); err != nil {
				return err
			}
		}
		for i := range data.Entries {
			if err := putEntry(tx, &data.Entries[i]); err != nil {
				return err
			}
		}
		return putMetaValue(tx, types.MetaSampleSeededAt, created)
	})
	if err != nil {
		return nil, fmt.Errorf("seeding sample data: %w", err)
	}

	log.WithFields(log.Fields{"persons": len(data.Persons), "entries": len(data.Entries)}).Info("sample data seeded")
	return data, nil
}

// Wipe removes every record from every collection, meta included.
func (b *Backend) Wipe(ctx context.Context) error {
	err := b.update(ctx, types.StandardTableNames, func(tx *Tx) error {
		for _, name := range types.StandardTableNames {
			if err := tx.clear(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wiping store: %w", err)
	}
	log.Info("store wiped")
	return nil
}
