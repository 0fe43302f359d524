package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func srcLines(s string) []string {
	return strings.Split(strings.TrimPrefix(s, "\n"), "\n")
}

func TestLocateSingleLineRecords(t *testing.T) {
	t.Parallel()

	src := srcLines(`
-- header comment
local QuestieDB = QuestieLoader:ImportModule("QuestieDB")
epochQuestData = {
  [26001] = {"Kill the Boar",{{123}},nil,5}, -- added by hand
  -- [26002] = {"Commented out"},
  epochQuestData[26003] = {"Prefixed",nil}
  [26004] = {"Last",nil},
}
QuestieDB._epochQuestData = epochQuestData
[99] = {"Outside",nil},`)

	recs := Locate(src, LocateOptions{Table: "epochQuestData"})
	require.Len(t, recs, 3)

	first := recs[0]
	assert.Equal(t, 26001, first.ID)
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, 4, first.EndLine)
	assert.True(t, first.Closed)
	assert.Equal(t, "  [26001] = {", first.Head)
	assert.Equal(t, `"Kill the Boar",{{123}},nil,5`, first.FieldText)
	assert.Equal(t, ", -- added by hand", first.Trailer)
	assert.True(t, first.Terminated())
	assert.Equal(t, []string{`"Kill the Boar"`, `{{123}}`, `nil`, `5`}, first.Fields())

	prefixed := recs[1]
	assert.Equal(t, 26003, prefixed.ID)
	assert.Equal(t, "epochQuestData", prefixed.Prefix)
	assert.False(t, prefixed.Terminated())
	assert.Equal(t, `  [26003] = {"Prefixed",nil},`, prefixed.WithoutPrefix().WithTerminator().Render(prefixed.Fields()))

	assert.Equal(t, 26004, recs[2].ID)
}

func TestLocateMultiLineRecords(t *testing.T) {
	t.Parallel()

	src := srcLines(`
epochNpcData = {
  [100] = {"Bob",
    nil,
    {[12]={{1,2}}},
  },
  [101] = {"Al",nil},
}`)

	recs := Locate(src, LocateOptions{Table: "epochNpcData", RequireTable: true})
	require.Len(t, recs, 2)

	bob := recs[0]
	assert.Equal(t, 100, bob.ID)
	assert.Equal(t, 2, bob.Line)
	assert.Equal(t, 5, bob.EndLine)
	assert.True(t, bob.Closed)
	assert.True(t, bob.MultiLine())
	assert.Equal(t, ",", bob.Trailer)
	assert.Equal(t, []string{`"Bob"`, `nil`, `{[12]={{1,2}}}`}, bob.Fields())

	al := recs[1]
	assert.Equal(t, 6, al.Line)
	assert.False(t, al.MultiLine())
}

func TestLocateIndentedSpawnKeysStayInRecord(t *testing.T) {
	t.Parallel()

	src := srcLines(`
epochNpcData = {
  [100] = {"Bob",nil,{
      [12] = {{1,2}},
      [14] = {{3,4}},
    },nil},
}`)

	recs := Locate(src, LocateOptions{})
	require.Len(t, recs, 1)
	assert.Equal(t, 5, recs[0].EndLine)
	assert.Len(t, recs[0].Fields(), 4)
}

func TestLocateUnindentedSpawnKeysStayInRecord(t *testing.T) {
	t.Parallel()

	src := srcLines(`
epochNpcData = {
  [100] = {"Bob",nil,{
[12]={{1,2}},
[14]={{3,4}}},nil},
  [101] = {"Al",nil},
}`)

	recs := Locate(src, LocateOptions{Table: "epochNpcData"})
	require.Len(t, recs, 2)

	bob := recs[0]
	assert.Equal(t, 100, bob.ID)
	assert.True(t, bob.Closed)
	assert.Equal(t, 4, bob.EndLine)
	assert.Len(t, bob.Fields(), 4)
	assert.Equal(t, 101, recs[1].ID)
}

func TestLocateUnclosedNestedTableStopsAtAlignedRecord(t *testing.T) {
	t.Parallel()

	src := srcLines(`
t = {
  [1] = {"A", {1,2,
  [2] = {"B"},
  [3] = {"C"},
}`)

	recs := Locate(src, LocateOptions{})
	require.Len(t, recs, 3)
	assert.False(t, recs[0].Closed)
	assert.Equal(t, 2, recs[0].EndLine)
	assert.Equal(t, []int{2, 3}, []int{recs[1].ID, recs[2].ID})
}

func TestLocateUnclosedRecordStopsAtNextRecord(t *testing.T) {
	t.Parallel()

	src := srcLines(`
t = {
  [1] = {"A", {1,2},
  [2] = {"B"},
}`)

	recs := Locate(src, LocateOptions{})
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Closed)
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, 2, recs[0].EndLine)
	assert.True(t, recs[1].Closed)
	assert.Equal(t, 2, recs[1].ID)
}

func TestLocateUnclosedRecordStopsAtTableClose(t *testing.T) {
	t.Parallel()

	src := srcLines(`
t = {
  [1] = {"A", {1,2,
    3,
}
[2] = {"outside"},`)

	recs := Locate(src, LocateOptions{RequireTable: true})
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Closed)
	assert.Equal(t, 3, recs[0].EndLine)
}

func TestLocateWithoutTableMarker(t *testing.T) {
	t.Parallel()

	src := srcLines(`
[7] = {"Seven",nil},
[8] = {"Eight",nil}`)

	assert.Len(t, Locate(src, LocateOptions{}), 2)
	assert.Empty(t, Locate(src, LocateOptions{RequireTable: true}))
}

func TestLocateSkipsBlockComments(t *testing.T) {
	t.Parallel()

	src := srcLines(`
t = {
--[[
  [1] = {"hidden"},
]]
  [2] = {"shown"},
}`)

	recs := Locate(src, LocateOptions{})
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].ID)
}

func TestRecordsIteratorStopsEarly(t *testing.T) {
	t.Parallel()

	src := srcLines(`
[1] = {"a"},
[2] = {"b"},
[3] = {"c"},`)

	var seen []int
	for r := range Records(src, LocateOptions{}) {
		seen = append(seen, r.ID)
		if r.ID == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, seen)
}

func TestTableBounds(t *testing.T) {
	t.Parallel()

	src := srcLines(`
-- header
epochQuestData = {
  [1] = {"a",
  },
}
QuestieDB._epochQuestData = epochQuestData`)

	open, close := TableBounds(src, "epochQuestData")
	assert.Equal(t, 1, open)
	assert.Equal(t, 4, close)

	open, close = TableBounds(src, "epochNpcData")
	assert.Equal(t, -1, open)
	assert.Equal(t, -1, close)
}

func TestFileApplyAndWrite(t *testing.T) {
	t.Parallel()

	f := &File{Path: "x.lua", Lines: []string{"a", "b", "c", "d"}}
	out := f.Apply([]Edit{
		{Line: 4, EndLine: 4, Lines: []string{"D"}},
		{Line: 2, EndLine: 3, Lines: []string{"X"}},
	})
	assert.Equal(t, []string{"a", "X", "D"}, out.Lines)
	assert.Equal(t, []string{"a", "b", "c", "d"}, f.Lines)

	deleted := f.Apply([]Edit{{Line: 1, EndLine: 1}})
	assert.Equal(t, []string{"b", "c", "d"}, deleted.Lines)

	path := filepath.Join(t.TempDir(), "out.lua")
	require.NoError(t, out.Write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nX\nD\n", string(data))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out.Lines, back.Lines)
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.lua"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.lua")
}

func TestSiblingPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "db/epochQuestDB_FIXED.lua", SiblingPath("db/epochQuestDB.lua", "_FIXED"))
	assert.Equal(t, "notes_MERGED", SiblingPath("notes", "_MERGED"))
}

func TestStripComment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "} ", stripComment("} -- end"))
	assert.Equal(t, `{"a--b"} `, stripComment(`{"a--b"} -- c`))
	assert.True(t, IsTableClose("} -- end of table"))
	assert.False(t, IsTableClose("},"))
}
