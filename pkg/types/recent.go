package types

import "time"

// RecentItem records the last time a person logged a food. At most one
// record exists per (PersonID, FoodID).
type RecentItem struct {
	ID       string `json:"id"`
	PersonID string `json:"personId"`
	FoodItem
	UsedAt time.Time `json:"usedAt"`
}

// DefaultRecentsLimit is used when a recents listing asks for no limit.
const DefaultRecentsLimit = 20
