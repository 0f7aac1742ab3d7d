package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

func TestSeedSampleData(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	populatePerson(t, b, "old")
	require.NoError(t, b.Products().Put(ctx, &types.CachedProduct{Barcode: "123"}))

	data, err := b.SeedSampleData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Persons, 2)
	require.Len(t, data.Entries, 2)

	persons, err := b.Persons().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "Alex", persons[0].Name)
	assert.Equal(t, 160.0, *persons[0].MacroTargets.P)
	assert.Equal(t, "Sam", persons[1].Name)

	today, err := b.Entries().ForPersonDate(ctx, data.Persons[0].ID, types.Today())
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "gf_oats", today[0].FoodID)

	old, err := b.Entries().ForPerson(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, old)
	favs, err := b.Favorites().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)

	product, err := b.Products().Get(ctx, "123")
	require.NoError(t, err)
	assert.NotNil(t, product, "cached products survive seeding")

	seeded, err := b.Meta().Get(ctx, types.MetaSampleSeededAt)
	require.NoError(t, err)
	assert.NotNil(t, seeded)
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	populatePerson(t, b, "p1")
	require.NoError(t, b.Meta().SetValue(ctx, "k", 1))

	require.NoError(t, b.Wipe(ctx))

	snap, err := b.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Persons)
	assert.Empty(t, snap.Entries)
	assert.Empty(t, snap.Favorites)
	assert.Empty(t, snap.Recents)
	assert.Empty(t, snap.WeightLogs)
	meta, err := b.Meta().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, meta)
}
