package insights

import (
	"math"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// MicronutrientTarget is a tracked micronutrient with its daily target in
// grams. A nil Target means no recommended amount.
type MicronutrientTarget struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Target *float64 `json:"target"`
}

func grams(v float64) *float64 { return &v }

// MicronutrientTargets lists the tracked micronutrients in display order.
var MicronutrientTargets = []MicronutrientTarget{
	{types.SaturatedFat100g, "Saturated fat", grams(20)},
	{types.MonounsaturatedFat100g, "Monounsaturated fat", nil},
	{types.PolyunsaturatedFat100g, "Polyunsaturated fat", nil},
	{types.Omega3Fat100g, "Omega-3", grams(1.6)},
	{types.Omega6Fat100g, "Omega-6", grams(17)},
	{types.TransFat100g, "Trans fat", grams(2)},
}

// MicronutrientTotal is the intake of one micronutrient across entries.
// Percentage is of the daily target, nil when there is no target.
type MicronutrientTotal struct {
	MicronutrientTarget
	Total      float64  `json:"total"`
	Percentage *float64 `json:"percentage"`
}

// EntryMicronutrients scales per-100g micronutrients to an amount in grams,
// rounded to two decimals. Unknown values stay nil.
func EntryMicronutrients(n types.Nutrition, amountGrams float64) map[string]*float64 {
	out := make(map[string]*float64, len(MicronutrientTargets))
	for _, m := range MicronutrientTargets {
		per100g := n.Micronutrients[m.Key]
		if per100g == nil || !types.IsFinite(*per100g) || !types.IsFinite(amountGrams) {
			out[m.Key] = nil
			continue
		}
		v := math.Round(*per100g*amountGrams/100*100) / 100
		out[m.Key] = &v
	}
	return out
}

// AggregateMicronutrients totals each tracked micronutrient over entries.
// Micronutrients that no entry reports are omitted.
func AggregateMicronutrients(entries []types.Entry) []MicronutrientTotal {
	out := []MicronutrientTotal{}
	for _, m := range MicronutrientTargets {
		var total float64
		var hasData bool
		for _, e := range entries {
			v := e.Micronutrients[m.Key]
			if v != nil && types.IsFinite(*v) {
				total += *v
				hasData = true
			}
		}
		if !hasData {
			continue
		}
		t := MicronutrientTotal{MicronutrientTarget: m, Total: total}
		if m.Target != nil && *m.Target > 0 {
			pct := total / *m.Target * 100
			t.Percentage = &pct
		}
		out = append(out, t)
	}
	return out
}
