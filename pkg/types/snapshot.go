package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Snapshot is a full point-in-time copy of the store, the unit of bulk
// export and import.
type Snapshot struct {
	SchemaVersion int             `json:"schemaVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Persons       []Person        `json:"persons"`
	Entries       []Entry         `json:"entries"`
	ProductsCache []CachedProduct `json:"productsCache"`
	Favorites     []FavoriteItem  `json:"favorites"`
	Recents       []RecentItem    `json:"recents"`
	WeightLogs    []WeightLog     `json:"weightLogs"`

	// Dropped counts records discarded while decoding, keyed by list name.
	Dropped map[string]int `json:"-"`
}

// ImportSummary counts the records written per collection and the records
// dropped while cleaning the input.
type ImportSummary struct {
	Persons       int            `json:"persons"`
	Entries       int            `json:"entries"`
	ProductsCache int            `json:"productsCache"`
	Favorites     int            `json:"favorites"`
	Recents       int            `json:"recents"`
	WeightLogs    int            `json:"weightLogs"`
	Dropped       map[string]int `json:"dropped,omitempty"`
}

// CheckShape verifies that every required list is present. A missing
// weightLogs list is accepted and defaulted to empty, since snapshots written
// before weight logging existed do not carry it. Returns an error wrapping
// ErrInvalidImportShape naming the first missing list.
func (s *Snapshot) CheckShape() error {
	required := []struct {
		name    string
		present bool
	}{
		{"persons", s.Persons != nil},
		{"entries", s.Entries != nil},
		{"productsCache", s.ProductsCache != nil},
		{"favorites", s.Favorites != nil},
		{"recents", s.Recents != nil},
	}
	for _, r := range required {
		if !r.present {
			return fmt.Errorf("%w: %s must be a list", ErrInvalidImportShape, r.name)
		}
	}
	if s.WeightLogs == nil {
		s.WeightLogs = []WeightLog{}
	}
	return nil
}

// rawSnapshot defers decoding of the record lists so that one malformed
// record does not reject the whole document.
type rawSnapshot struct {
	SchemaVersion int             `json:"schemaVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Persons       json.RawMessage `json:"persons"`
	Entries       json.RawMessage `json:"entries"`
	ProductsCache json.RawMessage `json:"productsCache"`
	Favorites     json.RawMessage `json:"favorites"`
	Recents       json.RawMessage `json:"recents"`
	WeightLogs    json.RawMessage `json:"weightLogs"`
}

// entryNumbers and weightLogNumbers list the numeric fields a record must
// carry; absent or null values are not read as zero.
var (
	entryNumbers     = []string{"amountGrams", "kcal", "p", "c", "f"}
	weightLogNumbers = []string{"scaleWeight"}
)

// DecodeSnapshot reads a JSON snapshot and checks its shape. A document that
// is not an object, or whose required lists are missing or not lists, is
// rejected with ErrInvalidImportShape. Records that fail to decode, and
// entries or weight logs missing a numeric field, are dropped and counted in
// Snapshot.Dropped.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImportShape, err)
	}

	s := &Snapshot{
		SchemaVersion: raw.SchemaVersion,
		ExportedAt:    raw.ExportedAt,
		Dropped:       make(map[string]int),
	}
	var err error
	if s.Persons, err = decodeList[Person](s.Dropped, "persons", raw.Persons, nil); err != nil {
		return nil, err
	}
	if s.Entries, err = decodeList[Entry](s.Dropped, "entries", raw.Entries, entryNumbers); err != nil {
		return nil, err
	}
	if s.ProductsCache, err = decodeList[CachedProduct](s.Dropped, "productsCache", raw.ProductsCache, nil); err != nil {
		return nil, err
	}
	if s.Favorites, err = decodeList[FavoriteItem](s.Dropped, "favorites", raw.Favorites, nil); err != nil {
		return nil, err
	}
	if s.Recents, err = decodeList[RecentItem](s.Dropped, "recents", raw.Recents, nil); err != nil {
		return nil, err
	}
	if !isNull(raw.WeightLogs) {
		if s.WeightLogs, err = decodeList[WeightLog](s.Dropped, "weightLogs", raw.WeightLogs, weightLogNumbers); err != nil {
			return nil, err
		}
	}
	if err := s.CheckShape(); err != nil {
		return nil, err
	}
	if len(s.Dropped) == 0 {
		s.Dropped = nil
	}
	return s, nil
}

// decodeList decodes data as a list of T one element at a time. A missing,
// null or non-list value is a shape error and yields a nil slice. Elements
// that fail to decode or lack one of the required fields are skipped and
// counted in dropped under name.
func decodeList[T any](dropped map[string]int, name string, data json.RawMessage, required []string) ([]T, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidImportShape, name)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidImportShape, name)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil || !hasFields(item, required) {
			dropped[name]++
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// hasFields reports whether the JSON object item carries a non-null value
// for every key.
func hasFields(item json.RawMessage, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return false
	}
	for _, k := range keys {
		if v, ok := fields[k]; !ok || isNull(v) {
			return false
		}
	}
	return true
}

func isNull(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
