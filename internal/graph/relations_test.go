package graph

import (
	"fmt"
	"strings"
	"testing"

	"questdb/internal/merge"
	"questdb/internal/parser"
	"questdb/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quest(id int, name, startedBy, finishedBy string) string {
	fields := make([]string, 30)
	for i := range fields {
		fields[i] = "nil"
	}
	fields[0] = fmt.Sprintf("%q", name)
	fields[1] = startedBy
	fields[2] = finishedBy
	return fmt.Sprintf("  [%d] = {%s},", id, strings.Join(fields, ","))
}

func npc(id int, name, starts, ends string) string {
	fields := make([]string, 15)
	for i := range fields {
		fields[i] = "nil"
	}
	fields[0] = fmt.Sprintf("%q", name)
	fields[9] = starts
	fields[10] = ends
	return fmt.Sprintf("  [%d] = {%s},", id, strings.Join(fields, ","))
}

func load(table string, records ...string) *merge.Collection {
	lines := append([]string{table + " = {"}, records...)
	lines = append(lines, "}")
	return merge.FromLines(table+".lua", lines, parser.LocateOptions{Table: table})
}

func fixture() *Relations {
	quests := load("epochQuestData",
		quest(100, "Wolves", "{{1}}", "{{1,2}}"),
		quest(101, "Bears", "{{3},nil,{55}}", "nil"),
	)
	npcs := load("epochNpcData",
		npc(1, "Bob", "{100}", "{100}"),
		npc(2, "Al", "nil", "nil"),
		npc(4, "Cy", "{999}", "nil"),
	)
	return Extract(quests, npcs)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	r := fixture()
	assert.Equal(t, map[int]string{100: "Wolves", 101: "Bears"}, r.Quests)
	assert.Equal(t, map[int]string{1: "Bob", 2: "Al", 4: "Cy"}, r.NPCs)
	assert.Equal(t, []Link{
		{NPC: 1, Quest: 100, Rel: Starts},
		{NPC: 1, Quest: 100, Rel: Ends},
		{NPC: 2, Quest: 100, Rel: Ends},
		{NPC: 3, Quest: 101, Rel: Starts},
	}, r.QuestSide)
	assert.Equal(t, []Link{
		{NPC: 1, Quest: 100, Rel: Starts},
		{NPC: 1, Quest: 100, Rel: Ends},
		{NPC: 4, Quest: 999, Rel: Starts},
	}, r.NPCSide)

	links := r.Links()
	assert.Len(t, links, 5)
	assert.Equal(t, Link{NPC: 1, Quest: 100, Rel: Ends}, links[0])
}

func TestCheck(t *testing.T) {
	t.Parallel()

	problems := fixture().Check()
	require.Len(t, problems, 3)

	assert.Equal(t, MissingNPC, problems[0].Kind)
	assert.Equal(t, 3, problems[0].Link.NPC)
	assert.Equal(t, "quest 101: starts npc 3 not in NPC database", problems[0].String())

	assert.Equal(t, MissingQuest, problems[1].Kind)
	assert.Equal(t, 999, problems[1].Link.Quest)

	assert.Equal(t, OneSided, problems[2].Kind)
	assert.Equal(t, Link{NPC: 2, Quest: 100, Rel: Ends}, problems[2].Link)
	assert.Equal(t, schema.KindQuest, problems[2].Declared)
	assert.Contains(t, problems[2].String(), "declared by quest only, missing on npc side")
}

func TestIgnoresMalformedValues(t *testing.T) {
	t.Parallel()

	quests := load("epochQuestData", quest(1, "Odd", "5", "{{x,7}}"))
	r := Extract(quests, load("epochNpcData"))
	assert.Equal(t, []Link{{NPC: 7, Quest: 1, Rel: Ends}}, r.QuestSide)
}
