// Package backup writes and reads store snapshots to durable sinks: a local
// directory or an S3 bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// Sink stores named snapshot documents.
type Sink interface {
	// Put stores data under name, replacing any previous document.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the document stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
}

// ErrNotFound is returned by Get when no document exists under the name.
var ErrNotFound = errors.New("backup not found")

// SnapshotName returns the default document name for a snapshot taken at t.
func SnapshotName(t time.Time) string {
	return "macrostore-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// WriteSnapshot encodes s as indented JSON and stores it under name.
func WriteSnapshot(ctx context.Context, sink Sink, name string, s *types.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := sink.Put(ctx, name, append(data, '\n')); err != nil {
		return fmt.Errorf("storing snapshot %s: %w", name, err)
	}
	return nil
}

// ReadSnapshot loads the snapshot stored under name and checks its shape.
func ReadSnapshot(ctx context.Context, sink Sink, name string) (*types.Snapshot, error) {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", name, err)
	}
	return types.DecodeSnapshot(bytes.NewReader(data))
}
