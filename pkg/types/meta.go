package types

import "encoding/json"

// MetaEntry is a free-form key/value record.
type MetaEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Well-known meta keys.
const (
	MetaSampleSeededAt = "sampleSeededAt"
	MetaLastImportAt   = "lastImportAt"
	lastPortionPrefix  = "lastPortion:"
)

// LastPortionKey returns the portion key for a person and food.
func LastPortionKey(personID, foodID string) string {
	return personID + ":" + foodID
}

// LastPortionMetaKey returns the meta key that stores the last gram amount
// logged under portionKey.
func LastPortionMetaKey(portionKey string) string {
	return lastPortionPrefix + portionKey
}
