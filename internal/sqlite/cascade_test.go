package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// populatePerson gives a person one record in every person-scoped collection.
func populatePerson(t *testing.T, b *Backend, personID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Persons().Put(ctx, &types.Person{ID: personID, Name: personID, KcalGoal: 2000}))
	item := oatsFood()
	e := oatsEntry(personID, "2024-01-07", "08:15")
	e.RecentItem = &item
	_, err := b.Entries().Add(ctx, e)
	require.NoError(t, err)
	_, err = b.Favorites().Toggle(ctx, personID, item)
	require.NoError(t, err)
	_, err = b.WeightLogs().Record(ctx, personID, "2024-01-07", 80)
	require.NoError(t, err)
}

func TestDeletePerson_RemovesDependents(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	populatePerson(t, b, "p1")
	populatePerson(t, b, "p2")

	require.NoError(t, b.DeletePerson(ctx, "p1"))

	p, err := b.Persons().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)

	entries, err := b.Entries().ForPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	favorites, err := b.Favorites().ForPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, favorites)
	recents, err := b.Recents().List(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, recents)
	logs, err := b.WeightLogs().ForPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	// The other person is untouched.
	entries, err = b.Entries().ForPerson(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	favorites, err = b.Favorites().ForPerson(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
	recents, err = b.Recents().List(ctx, "p2", 0)
	require.NoError(t, err)
	assert.Len(t, recents, 1)
	logs, err = b.WeightLogs().ForPerson(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeletePerson_WithoutDependentsIsNoop(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	require.NoError(t, b.Persons().Put(ctx, &types.Person{ID: "p1", Name: "Alex"}))

	require.NoError(t, b.DeletePerson(ctx, "p1"))
	require.NoError(t, b.DeletePerson(ctx, "p1"), "deleting a missing person succeeds")
	assert.ErrorIs(t, b.DeletePerson(ctx, ""), types.ErrInvalidID)
}

func TestDeletePerson_ThroughTable(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	populatePerson(t, b, "p1")

	tbl, err := b.GetTable(types.PersonsTable)
	require.NoError(t, err)
	require.NoError(t, tbl.Delete(ctx, "p1"))

	entries, err := b.Entries().ForPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
