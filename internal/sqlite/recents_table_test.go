package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

func food(id string) types.FoodItem {
	return types.FoodItem{FoodID: id, Label: "Food " + id, SourceType: "custom"}
}

func TestRecentsTable_RecordUsageKeepsOneRecordPerFood(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	first, err := b.Recents().RecordUsage(ctx, "p1", food("a"))
	require.NoError(t, err)
	second, err := b.Recents().RecordUsage(ctx, "p1", food("a"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "a fresh record replaces the stale one")
	assert.False(t, second.UsedAt.Before(first.UsedAt))

	all, err := b.Recents().ForPerson(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	stale, err := b.Recents().Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestRecentsTable_ListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	for _, id := range []string{"a", "b", "c", "a", "d"} {
		_, err := b.Recents().RecordUsage(ctx, "p1", food(id))
		require.NoError(t, err)
	}
	_, err := b.Recents().RecordUsage(ctx, "p2", food("z"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 10, []string{"d", "a", "c", "b"}},
		{"limited", 2, []string{"d", "a"}},
		{"default limit", 0, []string{"d", "a", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := b.Recents().List(ctx, "p1", tt.limit)
			require.NoError(t, err)
			got := make([]string, len(items))
			for i, it := range items {
				got[i] = it.FoodID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecentsTable_ListSkipsDuplicateFoods(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	// Records written with Put bypass the stale-record removal, so the list
	// must still deduplicate by food.
	base := now()
	for i, id := range []string{"a", "a", "b"} {
		require.NoError(t, b.Recents().Put(ctx, &types.RecentItem{
			ID:       fmt.Sprintf("r%d", i),
			PersonID: "p1",
			FoodItem: food(id),
			UsedAt:   base.Add(-1 * time.Duration(i) * time.Minute),
		}))
	}

	items, err := b.Recents().List(ctx, "p1", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "r0", items[0].ID)
	assert.Equal(t, "b", items[1].FoodID)
}

func TestRecentsTable_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	for i := 0; i < types.DefaultRecentsLimit+5; i++ {
		_, err := b.Recents().RecordUsage(ctx, "p1", food(fmt.Sprintf("f%02d", i)))
		require.NoError(t, err)
	}

	items, err := b.Recents().List(ctx, "p1", -1)
	require.NoError(t, err)
	assert.Len(t, items, types.DefaultRecentsLimit)
}

func TestRecentsTable_RecordUsageRequiresKeys(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	_, err := b.Recents().RecordUsage(ctx, "", food("a"))
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = b.Recents().RecordUsage(ctx, "p1", types.FoodItem{})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}
