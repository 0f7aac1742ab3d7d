package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNutritionNormalize(t *testing.T) {
	nan, inf, kcal, sat := math.NaN(), math.Inf(1), 250.0, 3.0
	n := Nutrition{
		Kcal100g: &kcal,
		P100g:    &nan,
		C100g:    &inf,
		Micronutrients: map[string]*float64{
			SaturatedFat100g: &sat,
			TransFat100g:     &nan,
			"fiber100g":      &kcal,
		},
	}
	n.Normalize()

	require.NotNil(t, n.Kcal100g)
	assert.Equal(t, 250.0, *n.Kcal100g)
	assert.Nil(t, n.P100g)
	assert.Nil(t, n.C100g)
	assert.Nil(t, n.F100g)
	for _, key := range MicronutrientKeys {
		assert.Contains(t, n.Micronutrients, key)
	}
	assert.Equal(t, 3.0, *n.Micronutrients[SaturatedFat100g])
	assert.Nil(t, n.Micronutrients[TransFat100g])
	assert.Contains(t, n.Micronutrients, "fiber100g", "extra keys are kept")
}

func TestPersonEnsureMacroTargets(t *testing.T) {
	p := Person{ID: "p1"}
	p.EnsureMacroTargets()
	require.NotNil(t, p.MacroTargets)
	assert.Nil(t, p.MacroTargets.P)

	v := 150.0
	p.MacroTargets.P = &v
	p.EnsureMacroTargets()
	assert.Equal(t, 150.0, *p.MacroTargets.P)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "p1:gf_oats", FavoriteID("p1", "gf_oats"))
	assert.Equal(t, "lastPortion:p1:gf_oats", LastPortionMetaKey(LastPortionKey("p1", "gf_oats")))
	assert.True(t, IsStandardTable(WeightLogsTable))
	assert.False(t, IsStandardTable("snacks"))
}

func TestShiftDate(t *testing.T) {
	tests := []struct {
		date string
		days int
		want string
	}{
		{"2024-01-07", -6, "2024-01-01"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2023-12-31", 1, "2024-01-01"},
	}
	for _, tt := range tests {
		got, err := ShiftDate(tt.date, tt.days)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ShiftDate("07/01/2024", 1)
	assert.Error(t, err)
}
