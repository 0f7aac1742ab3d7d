package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

func TestWeightLogsTable_RecordSingleMeasurement(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	wl, err := b.WeightLogs().Record(ctx, "p1", "2024-01-07", 80)
	require.NoError(t, err)
	require.NotNil(t, wl.TrendWeight)
	assert.Equal(t, 80.0, *wl.TrendWeight)

	got, err := b.WeightLogs().Get(ctx, wl.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.TrendWeight)
	assert.Equal(t, 80.0, *got.TrendWeight)
}

func TestWeightLogsTable_TrendAveragesTrailingWindow(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	// 2023-12-31 is outside the window of 2024-01-07.
	for _, m := range []struct {
		date   string
		weight float64
	}{
		{"2023-12-31", 100},
		{"2024-01-01", 80},
		{"2024-01-03", 81},
		{"2024-01-05", 80.5},
	} {
		_, err := b.WeightLogs().Record(ctx, "p1", m.date, m.weight)
		require.NoError(t, err)
	}
	_, err := b.WeightLogs().Record(ctx, "p2", "2024-01-06", 60)
	require.NoError(t, err)

	wl, err := b.WeightLogs().Record(ctx, "p1", "2024-01-07", 79.2)
	require.NoError(t, err)

	want := math.Round((80+81+80.5+79.2)/4*10) / 10
	require.NotNil(t, wl.TrendWeight)
	assert.Equal(t, want, *wl.TrendWeight)

	got, err := b.WeightLogs().ForPersonDate(ctx, "p1", "2024-01-07")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got.TrendWeight)
}

func TestWeightLogsTable_RecordSameDateOverwrites(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	first, err := b.WeightLogs().Record(ctx, "p1", "2024-01-07", 80)
	require.NoError(t, err)
	second, err := b.WeightLogs().Record(ctx, "p1", "2024-01-07", 82)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	logs, err := b.WeightLogs().ForPerson(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 82.0, logs[0].ScaleWeight)
	assert.Equal(t, 82.0, *logs[0].TrendWeight)
}

func TestWeightLogsTable_RecordRejectsInvalidWeight(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		weight float64
	}{
		{"zero", 0},
		{"negative", -70},
		{"NaN", math.NaN()},
		{"infinite", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			_, err := b.WeightLogs().Record(ctx, "p1", "2024-01-07", tt.weight)
			require.ErrorIs(t, err, types.ErrInvalidWeight)

			logs, err := b.WeightLogs().GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, logs)
		})
	}
}

func TestWeightLogsTable_InRange(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-09"} {
		_, err := b.WeightLogs().Record(ctx, "p1", d, 80)
		require.NoError(t, err)
	}

	logs, err := b.WeightLogs().InRange(ctx, "p1", "2024-01-03", "2024-01-09")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2024-01-03", logs[0].Date)
	assert.Equal(t, "2024-01-09", logs[2].Date)
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name string
		logs []types.WeightLog
		want *float64
	}{
		{"empty window", nil, nil},
		{"rounds to one decimal", []types.WeightLog{{ScaleWeight: 80}, {ScaleWeight: 81}, {ScaleWeight: 81}}, ptr(80.7)},
		{"ignores invalid values", []types.WeightLog{{ScaleWeight: 0}, {ScaleWeight: 70}}, ptr(70)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trendOf(tt.logs))
		})
	}
}
