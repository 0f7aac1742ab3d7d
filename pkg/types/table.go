package types

import (
	"context"
	"errors"
)

// Table provides uniform CRUD operations for a single collection.
// Get and Fetch return any; callers type-assert to the concrete record
// pointer (*Person, *Entry, ...).
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(ctx context.Context, id string) (any, error)

	// Set creates or replaces a record. When id is empty and the collection
	// uses generated identifiers, a new UUID v7 is assigned. Returns the
	// identifier actually used.
	Set(ctx context.Context, id string, data any) (string, error)

	// Delete removes the record with the given ID. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, id string) error

	// Fetch returns all records matching the filter. An empty filter
	// returns every record. Person-scoped collections accept "personId".
	Fetch(ctx context.Context, filter map[string]any) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrInvalidData     = errors.New("invalid record data")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrReadOnlyTx      = errors.New("write attempted in a read-only transaction")
	ErrTableNotInScope = errors.New("table not declared in transaction scope")
)
