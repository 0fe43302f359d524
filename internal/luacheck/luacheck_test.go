package luacheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questFile = `local QuestieDB = QuestieLoader:ImportModule("QuestieDB")

local epochQuestData = {
  [26001] = {"Kill the Boar",{{123}},nil,5},
  [26002] = {"Return",nil,{{124}},6}, -- comment
  [26002] = {"Again",nil,nil,6},
}

QuestieDB._epochQuestData = epochQuestData
`

func TestParse(t *testing.T) {
	t.Parallel()

	require.NoError(t, Parse("quest.lua", []byte(questFile)))

	err := Parse("broken.lua", []byte("t = {\n  [1] = {\"a\"\n  [2] = {\"b\"},\n}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.lua")
}

func TestLoadCountsExportedTable(t *testing.T) {
	t.Parallel()

	res, err := Load("quest.lua", []byte(questFile), "epochQuestData")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, res.Entries)
}

func TestLoadGlobalTable(t *testing.T) {
	t.Parallel()

	res, err := Load("npc.lua", []byte("epochNpcData = {\n  [1] = {\"Bob\"},\n}\n"), "epochNpcData")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 1, res.Entries)

	res, err = Load("npc.lua", []byte("local x = 1\n"), "epochNpcData")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestLoadRuntimeError(t *testing.T) {
	t.Parallel()

	_, err := Load("bad.lua", []byte("local x = nil\nx.y = 1\n"), "t")
	assert.Error(t, err)
}
