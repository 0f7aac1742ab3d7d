package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "complete",
			input: `{"schemaVersion":3,"persons":[],"entries":[],"productsCache":[],"favorites":[],"recents":[],"weightLogs":[]}`,
		},
		{
			name:  "legacy without weightLogs",
			input: `{"schemaVersion":2,"persons":[],"entries":[],"productsCache":[],"favorites":[],"recents":[]}`,
		},
		{
			name:    "missing recents",
			input:   `{"persons":[],"entries":[],"productsCache":[],"favorites":[]}`,
			wantErr: true,
		},
		{
			name:    "persons is not a list",
			input:   `{"persons":{},"entries":[],"productsCache":[],"favorites":[],"recents":[]}`,
			wantErr: true,
		},
		{
			name:    "null persons",
			input:   `{"persons":null,"entries":[],"productsCache":[],"favorites":[],"recents":[]}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			input:   `nope`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeSnapshot(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImportShape)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s.WeightLogs)
		})
	}
}

func TestDecodeSnapshot_Records(t *testing.T) {
	input := `{
  "schemaVersion": 3,
  "exportedAt": "2024-01-07T10:00:00Z",
  "persons": [{"id": "p1", "name": "Alex", "kcalGoal": 2200, "macroTargets": {"p": 160, "c": null, "f": 70}}],
  "entries": [{"id": "e1", "personId": "p1", "date": "2024-01-07", "time": "08:15", "foodId": "gf_oats",
               "foodName": "Oats", "amountGrams": 60, "kcal": 233, "p": 10, "c": 40, "f": 4,
               "source": "Manual", "createdAt": "2024-01-07T08:15:00Z"}],
  "productsCache": [],
  "favorites": [{"id": "p1:gf_oats", "personId": "p1", "foodId": "gf_oats", "label": "Oats",
                 "nutrition": {"kcal100g": 389, "p100g": null, "c100g": null, "f100g": null},
                 "pieceGramHint": null, "sourceType": "generic", "createdAt": "2024-01-07T08:00:00Z"}],
  "recents": []
}`
	s, err := DecodeSnapshot(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s.Persons, 1)
	assert.Equal(t, 160.0, *s.Persons[0].MacroTargets.P)
	assert.Nil(t, s.Persons[0].MacroTargets.C)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, 233.0, s.Entries[0].Kcal)
	require.Len(t, s.Favorites, 1)
	assert.Equal(t, "gf_oats", s.Favorites[0].FoodID)
	assert.Equal(t, 389.0, *s.Favorites[0].Nutrition.Kcal100g)
}

func TestDecodeSnapshot_DropsMalformedRecords(t *testing.T) {
	input := `{
  "persons": [{"id": "p1", "name": "Alex"}, {"id": "p2", "kcalGoal": "lots"}],
  "entries": [
    {"id": "e1", "personId": "p1", "date": "2024-01-07", "amountGrams": 60, "kcal": 233, "p": 10, "c": 40, "f": 4},
    {"id": "e2", "personId": "p1", "date": "2024-01-07", "amountGrams": 60, "kcal": "abc", "p": 10, "c": 40, "f": 4},
    {"id": "e3", "personId": "p1", "date": "2024-01-07", "amountGrams": 60, "kcal": null, "p": 10, "c": 40, "f": 4},
    {"id": "e4", "personId": "p1", "date": "2024-01-07", "kcal": 233, "p": 10, "c": 40, "f": 4},
    "not an entry"
  ],
  "productsCache": [],
  "favorites": [],
  "recents": [],
  "weightLogs": [{"id": "w1", "personId": "p1", "date": "2024-01-07"}]
}`
	s, err := DecodeSnapshot(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s.Persons, 1)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "e1", s.Entries[0].ID)
	assert.NotNil(t, s.WeightLogs)
	assert.Empty(t, s.WeightLogs)
	assert.Equal(t, map[string]int{"persons": 1, "entries": 4, "weightLogs": 1}, s.Dropped)
}
