package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() Entry {
	return Entry{PersonID: "p1", Date: "2024-01-07", AmountGrams: 100, Kcal: 200, P: 10, C: 20, F: 5}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Entry)
		field  string
	}{
		{"valid", func(e *Entry) {}, ""},
		{"zero values allowed", func(e *Entry) { *e = Entry{} }, ""},
		{"negative grams", func(e *Entry) { e.AmountGrams = -1 }, "amountGrams"},
		{"NaN kcal", func(e *Entry) { e.Kcal = math.NaN() }, "kcal"},
		{"infinite carbs", func(e *Entry) { e.C = math.Inf(1) }, "c"},
		{"negative infinite fat", func(e *Entry) { e.F = math.Inf(-1) }, "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			err := e.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidEntry)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, ve.Error(), tt.field)
		})
	}
}

func TestWeightLogValidate(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		ok     bool
	}{
		{"positive", 80.4, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"NaN", math.NaN(), false},
		{"infinite", math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeightLog{ScaleWeight: tt.weight}
			err := w.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidWeight)
		})
	}
}

func TestWeightLogCleanTrend(t *testing.T) {
	for _, v := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		w := WeightLog{ScaleWeight: 80, TrendWeight: &v}
		w.CleanTrend()
		assert.Nil(t, w.TrendWeight)
	}
	good := 79.5
	w := WeightLog{ScaleWeight: 80, TrendWeight: &good}
	w.CleanTrend()
	require.NotNil(t, w.TrendWeight)
	assert.Equal(t, 79.5, *w.TrendWeight)
}

func TestMissingID(t *testing.T) {
	err := MissingID("personId")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, "validation error on field personId: must not be empty", err.Error())
}
