package types

import (
	"context"
	"errors"
)

// Store defines backend-agnostic access to the nutrition data store.
// Callers attach to a backend, use tables and the multi-collection
// operations, and detach when done.
type Store interface {
	// Attach opens the backend described by config and brings its schema up
	// to date. Returns ErrAlreadyAttached if called while attached and
	// ErrVersionMismatch if the stored schema is newer than the code.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// GetTable returns the Table for the given collection name.
	GetTable(name string) (Table, error)

	// DeletePerson removes a person and every record that references it in
	// one transaction.
	DeletePerson(ctx context.Context, personID string) error

	// ExportSnapshot returns a consistent copy of every collection.
	ExportSnapshot(ctx context.Context) (*Snapshot, error)

	// ImportSnapshot replaces the store contents with the snapshot.
	ImportSnapshot(ctx context.Context, s *Snapshot) (*ImportSummary, error)
}

// Store lifecycle and engine errors.
var (
	ErrStoreDetached    = errors.New("store is detached")
	ErrAlreadyAttached  = errors.New("store is already attached")
	ErrTableNotFound    = errors.New("table not found")
	ErrVersionMismatch  = errors.New("stored schema version is newer than supported")
	ErrTransactionAbort = errors.New("transaction aborted")
)
