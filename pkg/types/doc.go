// Package types defines the Store and Table interfaces, the record types kept
// by the macrostore storage engine, the snapshot format used for bulk
// transfer, and the standard errors shared by every backend.
package types
