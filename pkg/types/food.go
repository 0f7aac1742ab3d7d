package types

import "math"

// Standard micronutrient keys carried in a per-100g nutrition snapshot.
const (
	SaturatedFat100g       = "saturatedFat100g"
	MonounsaturatedFat100g = "monounsaturatedFat100g"
	PolyunsaturatedFat100g = "polyunsaturatedFat100g"
	Omega3Fat100g          = "omega3Fat100g"
	Omega6Fat100g          = "omega6Fat100g"
	TransFat100g           = "transFat100g"
)

// MicronutrientKeys lists the standard micronutrient keys in display order.
var MicronutrientKeys = []string{
	SaturatedFat100g,
	MonounsaturatedFat100g,
	PolyunsaturatedFat100g,
	Omega3Fat100g,
	Omega6Fat100g,
	TransFat100g,
}

// Nutrition is a per-100g nutrition snapshot. Nil values are unknown.
type Nutrition struct {
	Kcal100g       *float64            `json:"kcal100g"`
	P100g          *float64            `json:"p100g"`
	C100g          *float64            `json:"c100g"`
	F100g          *float64            `json:"f100g"`
	Micronutrients map[string]*float64 `json:"micronutrients,omitempty"`
}

// Normalize replaces non-finite values with nil and makes sure every
// standard micronutrient key is present.
func (n *Nutrition) Normalize() {
	n.Kcal100g = finiteOrNil(n.Kcal100g)
	n.P100g = finiteOrNil(n.P100g)
	n.C100g = finiteOrNil(n.C100g)
	n.F100g = finiteOrNil(n.F100g)
	micros := make(map[string]*float64, len(MicronutrientKeys))
	for k, v := range n.Micronutrients {
		micros[k] = finiteOrNil(v)
	}
	for _, k := range MicronutrientKeys {
		if _, ok := micros[k]; !ok {
			micros[k] = nil
		}
	}
	n.Micronutrients = micros
}

// FoodItem is the food payload shared by favorites, recents and the
// recentItem carried on an entry.
type FoodItem struct {
	FoodID        string    `json:"foodId"`
	Label         string    `json:"label"`
	Nutrition     Nutrition `json:"nutrition"`
	PieceGramHint *float64  `json:"pieceGramHint"`
	SourceType    string    `json:"sourceType"`
	ImageURL      string    `json:"imageUrl,omitempty"`
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || !IsFinite(*v) {
		return nil
	}
	return v
}
