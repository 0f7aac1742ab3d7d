package types

import "time"

// FavoriteItem marks a food as a favorite of a person. Its ID is always
// FavoriteID(PersonID, FoodID), so toggling is keyed by the pair.
type FavoriteItem struct {
	ID       string `json:"id"`
	PersonID string `json:"personId"`
	FoodItem
	CreatedAt time.Time `json:"createdAt"`
}

// FavoriteID returns the deterministic favorite key for a person and food.
func FavoriteID(personID, foodID string) string {
	return personID + ":" + foodID
}
