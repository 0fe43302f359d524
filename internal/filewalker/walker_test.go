package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"questdb/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, schema.KindNPC, InferKind("Database/Epoch/epochNpcDB.lua"))
	assert.Equal(t, schema.KindQuest, InferKind("Database/Epoch/epochQuestDB.lua"))
	assert.Equal(t, schema.KindQuest, InferKind("npc/quests.lua"))
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"epochQuestDB.lua", "epochNpcDB.lua", "epochQuestDB_FIXED.lua", "notes.txt", "sub/more.LUA"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	entries, err := Discover([]string{dir}, "")
	require.NoError(t, err)
	assert.Equal(t, []FileEntry{
		{Path: filepath.Join(dir, "epochNpcDB.lua"), Kind: schema.KindNPC},
		{Path: filepath.Join(dir, "epochQuestDB.lua"), Kind: schema.KindQuest},
		{Path: filepath.Join(dir, "sub/more.LUA"), Kind: schema.KindQuest},
	}, entries)

	fixed := filepath.Join(dir, "epochQuestDB_FIXED.lua")
	entries, err = Discover([]string{fixed}, schema.KindNPC)
	require.NoError(t, err)
	assert.Equal(t, []FileEntry{{Path: fixed, Kind: schema.KindNPC}}, entries)

	_, err = Discover([]string{filepath.Join(dir, "missing.lua")}, "")
	require.Error(t, err)
}
