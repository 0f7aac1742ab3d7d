// This file implements the persons collection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const personColumns = "id, name, kcal_goal, macro_targets"

// PersonsTable reads and writes persons.
type PersonsTable struct {
	backend *Backend
}

// Get returns the person with id, or nil if there is none.
func (pt *PersonsTable) Get(ctx context.Context, id string) (*types.Person, error) {
	if id == "" {
		return nil, types.MissingID("id")
	}
	var p *types.Person
	err := pt.backend.view(ctx, []string{types.PersonsTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.PersonsTable,
			"SELECT "+personColumns+" FROM persons WHERE id = ?", id)
		if err != nil {
			return err
		}
		p, err = scanPerson(row)
		if errors.Is(err, sql.ErrNoRows) {
			p = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting person %s: %w", id, err)
	}
	return p, nil
}

// GetAll returns every person ordered by name.
func (pt *PersonsTable) GetAll(ctx context.Context) ([]types.Person, error) {
	var persons []types.Person
	err := pt.backend.view(ctx, []string{types.PersonsTable}, func(tx *Tx) error {
		var err error
		persons, err = listPersons(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	return persons, nil
}

// Put creates or replaces a person. Missing macro targets are stored as an
// empty set of targets.
func (pt *PersonsTable) Put(ctx context.Context, p *types.Person) error {
	if err := checkPerson(p); err != nil {
		return err
	}
	return pt.backend.update(ctx, []string{types.PersonsTable}, func(tx *Tx) error {
		return putPerson(tx, p)
	})
}

// Delete removes a person together with every record that references it.
func (pt *PersonsTable) Delete(ctx context.Context, id string) error {
	return pt.backend.DeletePerson(ctx, id)
}

func checkPerson(p *types.Person) error {
	if p == nil {
		return types.ErrInvalidData
	}
	if p.ID == "" {
		return types.MissingID("id")
	}
	if !types.IsFinite(p.KcalGoal) {
		return &types.ValidationError{Field: "kcalGoal", Message: "must be finite", Err: types.ErrInvalidData}
	}
	return nil
}

func putPerson(tx *Tx, p *types.Person) error {
	p.EnsureMacroTargets()
	targets, err := encodeJSON(p.MacroTargets)
	if err != nil {
		return err
	}
	_, err = tx.Exec(types.PersonsTable, `INSERT INTO persons (`+personColumns+`) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, kcal_goal = excluded.kcal_goal,
    macro_targets = excluded.macro_targets`,
		p.ID, p.Name, p.KcalGoal, targets)
	if err != nil {
		return fmt.Errorf("persisting person %s: %w", p.ID, err)
	}
	return nil
}

func listPersons(tx *Tx) ([]types.Person, error) {
	rows, err := tx.Query(types.PersonsTable,
		"SELECT "+personColumns+" FROM persons ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := []types.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

func scanPerson(s scanner) (*types.Person, error) {
	var p types.Person
	var targets sql.NullString
	if err := s.Scan(&p.ID, &p.Name, &p.KcalGoal, &targets); err != nil {
		return nil, err
	}
	if err := decodeJSON(targets, &p.MacroTargets); err != nil {
		return nil, fmt.Errorf("person %s macro targets: %w", p.ID, err)
	}
	p.EnsureMacroTargets()
	return &p, nil
}
