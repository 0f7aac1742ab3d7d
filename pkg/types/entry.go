package types

import "time"

// Entry is one logged food for a person on a date. Entries are append-only.
type Entry struct {
	ID             string              `json:"id"`
	PersonID       string              `json:"personId"`
	Date           string              `json:"date"`
	Time           string              `json:"time"`
	FoodID         string              `json:"foodId"`
	FoodName       string              `json:"foodName"`
	AmountGrams    float64             `json:"amountGrams" validate:"finite,gte=0"`
	Kcal           float64             `json:"kcal" validate:"finite,gte=0"`
	P              float64             `json:"p" validate:"finite,gte=0"`
	C              float64             `json:"c" validate:"finite,gte=0"`
	F              float64             `json:"f" validate:"finite,gte=0"`
	Micronutrients map[string]*float64 `json:"micronutrients,omitempty"`
	Source         string              `json:"source"`
	CreatedAt      time.Time           `json:"createdAt"`
	LastPortionKey string              `json:"lastPortionKey,omitempty"`
	RecentItem     *FoodItem           `json:"recentItem,omitempty"`
}

// Validate checks the nutrition invariant: amountGrams, kcal, p, c and f must
// be finite and non-negative. Returns a *ValidationError wrapping
// ErrInvalidEntry.
func (e *Entry) Validate() error {
	return validateRecord(e, ErrInvalidEntry)
}

// CleanMicronutrients drops non-finite micronutrient values to nil.
func (e *Entry) CleanMicronutrients() {
	for k, v := range e.Micronutrients {
		e.Micronutrients[k] = finiteOrNil(v)
	}
}
