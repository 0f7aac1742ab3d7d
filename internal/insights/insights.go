// Package insights derives read-only analytics from logged entries and
// weight measurements: weekly calorie and weight series, period changes,
// per-person macro totals and micronutrient intake against daily targets.
package insights

import (
	"context"
	"fmt"
	"math"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// EntryReader reads a person's entries in an inclusive date range.
type EntryReader interface {
	ForPersonDateRange(ctx context.Context, personID, from, to string) ([]types.Entry, error)
}

// WeightReader reads a person's weight logs in an inclusive date range.
type WeightReader interface {
	InRange(ctx context.Context, personID, from, to string) ([]types.WeightLog, error)
}

// WeekDays is the number of days in a weekly series.
const WeekDays = 7

// DayPoint is one day of a weekly series. Nil values mean no data.
type DayPoint struct {
	Date        string   `json:"date"`
	Calories    *float64 `json:"calories"`
	ScaleWeight *float64 `json:"scaleWeight"`
	TrendWeight *float64 `json:"trendWeight"`
}

// WeeklyPoints returns the seven days ending at endDate, oldest first, with
// the calories logged and the weight recorded on each day.
func WeeklyPoints(ctx context.Context, entries EntryReader, weights WeightReader, personID, endDate string) ([]DayPoint, error) {
	startDate, err := types.ShiftDate(endDate, -(WeekDays - 1))
	if err != nil {
		return nil, err
	}

	logged, err := entries.ForPersonDateRange(ctx, personID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	logs, err := weights.InRange(ctx, personID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("reading weight logs: %w", err)
	}

	calories := make(map[string]float64)
	for _, e := range logged {
		calories[e.Date] += zeroIfInvalid(e.Kcal)
	}
	byDate := make(map[string]types.WeightLog, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l
	}

	points := make([]DayPoint, 0, WeekDays)
	for i := 0; i < WeekDays; i++ {
		date, err := types.ShiftDate(startDate, i)
		if err != nil {
			return nil, err
		}
		p := DayPoint{Date: date}
		if kcal, ok := calories[date]; ok {
			p.Calories = finite(kcal)
		}
		if l, ok := byDate[date]; ok {
			p.ScaleWeight = finite(l.ScaleWeight)
			if l.TrendWeight != nil {
				p.TrendWeight = finite(*l.TrendWeight)
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// Metric selects a value of a DayPoint.
type Metric int

const (
	Calories Metric = iota
	ScaleWeight
	TrendWeight
)

func (m Metric) of(p DayPoint) *float64 {
	switch m {
	case Calories:
		return p.Calories
	case ScaleWeight:
		return p.ScaleWeight
	case TrendWeight:
		return p.TrendWeight
	}
	return nil
}

// Change returns the difference of metric between endDate and the first day
// of a window of days ending at endDate. Nil when either day has no value.
func Change(points []DayPoint, endDate string, window int, metric Metric) *float64 {
	startDate, err := types.ShiftDate(endDate, -(window - 1))
	if err != nil {
		return nil
	}
	var start, end *float64
	for _, p := range points {
		switch p.Date {
		case startDate:
			start = metric.of(p)
		case endDate:
			end = metric.of(p)
		}
	}
	if start == nil || end == nil {
		return nil
	}
	d := *end - *start
	return &d
}

// FormatChange renders a change for display. Values in kg keep one decimal;
// everything else is rounded to a whole number.
func FormatChange(v *float64, unit string) string {
	if v == nil {
		return "Not enough data"
	}
	var rounded float64
	if unit == "kg" {
		rounded = math.Round(*v*10) / 10
	} else {
		rounded = math.Round(*v)
	}
	switch {
	case rounded > 0:
		return fmt.Sprintf("increase %g%s", rounded, unit)
	case rounded < 0:
		return fmt.Sprintf("decrease %g%s", -rounded, unit)
	default:
		return "no change 0" + unit
	}
}

// Summary holds the formatted three- and seven-day changes shown with a
// weekly series.
type Summary struct {
	Calories3d string `json:"calories3d"`
	Calories7d string `json:"calories7d"`
	Weight3d   string `json:"weight3d"`
	Weight7d   string `json:"weight7d"`
}

// Summarize computes the standard changes for points ending at endDate.
func Summarize(points []DayPoint, endDate string) Summary {
	return Summary{
		Calories3d: FormatChange(Change(points, endDate, 3, Calories), ""),
		Calories7d: FormatChange(Change(points, endDate, 7, Calories), ""),
		Weight3d:   FormatChange(Change(points, endDate, 3, ScaleWeight), "kg"),
		Weight7d:   FormatChange(Change(points, endDate, 7, ScaleWeight), "kg"),
	}
}

// Totals sums the energy and macros of a set of entries.
type Totals struct {
	Kcal float64 `json:"kcal"`
	P    float64 `json:"p"`
	C    float64 `json:"c"`
	F    float64 `json:"f"`
}

// PortionTotals scales per-100g energy and macros to amountGrams, rounded
// to one decimal. Unknown values count as 0.
func PortionTotals(n types.Nutrition, amountGrams float64) Totals {
	scale := func(per100g *float64) float64 {
		if per100g == nil || !types.IsFinite(*per100g) || !types.IsFinite(amountGrams) {
			return 0
		}
		return math.Round(*per100g*amountGrams/100*10) / 10
	}
	return Totals{
		Kcal: scale(n.Kcal100g),
		P:    scale(n.P100g),
		C:    scale(n.C100g),
		F:    scale(n.F100g),
	}
}

// TotalsByPerson sums entries per person id. Non-finite values count as 0.
func TotalsByPerson(entries []types.Entry) map[string]Totals {
	out := make(map[string]Totals)
	for _, e := range entries {
		t := out[e.PersonID]
		t.Kcal += zeroIfInvalid(e.Kcal)
		t.P += zeroIfInvalid(e.P)
		t.C += zeroIfInvalid(e.C)
		t.F += zeroIfInvalid(e.F)
		out[e.PersonID] = t
	}
	return out
}

func finite(v float64) *float64 {
	if !types.IsFinite(v) {
		return nil
	}
	return &v
}

func zeroIfInvalid(v float64) float64 {
	if !types.IsFinite(v) {
		return 0
	}
	return v
}
