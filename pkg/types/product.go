package types

import "time"

// CachedProduct is a normalized product from the remote lookup service,
// keyed by barcode and kept for offline use.
type CachedProduct struct {
	Barcode     string    `json:"barcode"`
	ProductName string    `json:"productName"`
	Brands      string    `json:"brands"`
	ImageURL    string    `json:"imageUrl"`
	Nutrition   Nutrition `json:"nutrition"`
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetchedAt"`
}
