package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionMetadataRoundTrip(t *testing.T) {
	meta := CompletionMetadata{
		Category: MissionCategoryJournal,
		Journal:  &JournalMeta{WordCount: 220, Mood: "hopeful"},
		Extra:    map[string]interface{}{"client": "ios"},
	}

	raw, err := meta.Value()
	require.NoError(t, err)

	var decoded CompletionMetadata
	require.NoError(t, decoded.Scan(raw))

	assert.Equal(t, MissionCategoryJournal, decoded.Category)
	require.NotNil(t, decoded.Journal)
	assert.Equal(t, 220, decoded.Journal.WordCount)
	assert.Equal(t, "hopeful", decoded.Journal.Mood)
	assert.Nil(t, decoded.Scan("{}"))
}

func TestCompletionMetadataScanNil(t *testing.T) {
	decoded := CompletionMetadata{Category: MissionCategoryScan}
	require.NoError(t, decoded.Scan(nil))
	assert.Equal(t, CompletionMetadata{}, decoded)
}

func TestMissionCatalogLookups(t *testing.T) {
	def, ok := MissionByID("daily_journal")
	require.True(t, ok)
	assert.Equal(t, MissionCategoryJournal, def.Category)

	_, ok = MissionByID("nope")
	assert.False(t, ok)

	for _, m := range DailyRequiredSet() {
		assert.True(t, m.Required)
	}
}
