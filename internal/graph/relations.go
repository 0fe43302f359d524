package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"questdb/internal/merge"
	"questdb/internal/parser"
	"questdb/internal/schema"
)

// RelType names a quest/NPC relationship.
type RelType string

const (
	// Starts links an NPC to a quest it offers.
	Starts RelType = "STARTS"
	// Ends links an NPC to a quest it accepts.
	Ends RelType = "ENDS"
)

// Link is a directed NPC -> quest edge.
type Link struct {
	NPC   int
	Quest int
	Rel   RelType
}

// Relations holds the nodes and the edges claimed by each side.
type Relations struct {
	Quests map[int]string
	NPCs   map[int]string
	// QuestSide are the links declared by quest startedBy/finishedBy.
	QuestSide []Link
	// NPCSide are the links declared by NPC questStarts/questEnds.
	NPCSide []Link
}

// Extract reads relations out of a quest and an NPC collection.
func Extract(quests, npcs *merge.Collection) *Relations {
	qs, ns := schema.Quest(), schema.NPC()
	r := &Relations{
		Quests: make(map[int]string, quests.Len()),
		NPCs:   make(map[int]string, npcs.Len()),
	}

	startedBy, finishedBy := qs.Index("startedBy"), qs.Index("finishedBy")
	for _, id := range quests.IDs() {
		e := quests.Entries[id]
		r.Quests[id] = e.Name
		fields := e.Record.Fields()
		for _, npc := range creatureIDs(field(fields, startedBy)) {
			r.QuestSide = append(r.QuestSide, Link{NPC: npc, Quest: id, Rel: Starts})
		}
		for _, npc := range creatureIDs(field(fields, finishedBy)) {
			r.QuestSide = append(r.QuestSide, Link{NPC: npc, Quest: id, Rel: Ends})
		}
	}

	questStarts, questEnds := ns.Index("questStarts"), ns.Index("questEnds")
	for _, id := range npcs.IDs() {
		e := npcs.Entries[id]
		r.NPCs[id] = e.Name
		fields := e.Record.Fields()
		for _, q := range intList(field(fields, questStarts)) {
			r.NPCSide = append(r.NPCSide, Link{NPC: id, Quest: q, Rel: Starts})
		}
		for _, q := range intList(field(fields, questEnds)) {
			r.NPCSide = append(r.NPCSide, Link{NPC: id, Quest: q, Rel: Ends})
		}
	}

	return r
}

// Links returns the union of both sides without repeats, ordered by quest,
// NPC and relationship.
func (r *Relations) Links() []Link {
	seen := make(map[Link]bool, len(r.QuestSide)+len(r.NPCSide))
	var out []Link
	for _, side := range [][]Link{r.QuestSide, r.NPCSide} {
		for _, l := range side {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sortLinks(out)
	return out
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Quest != b.Quest {
			return a.Quest < b.Quest
		}
		if a.NPC != b.NPC {
			return a.NPC < b.NPC
		}
		return a.Rel < b.Rel
	})
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return "nil"
	}
	return fields[i]
}

// creatureIDs returns the NPC ids of a startedBy/finishedBy value, the first
// sub-table of `{{npcs},{objects},{items}}`.
func creatureIDs(v string) []int {
	if !parser.IsTable(v) {
		return nil
	}
	elems := parser.Elements(v)
	if len(elems) == 0 {
		return nil
	}
	return intList(elems[0])
}

func intList(v string) []int {
	if !parser.IsTable(v) {
		return nil
	}
	var ids []int
	for _, e := range parser.Elements(v) {
		if n, err := strconv.Atoi(strings.TrimSpace(e)); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

// ProblemKind classifies a cross-reference problem.
type ProblemKind string

const (
	MissingNPC   ProblemKind = "missing-npc"
	MissingQuest ProblemKind = "missing-quest"
	OneSided     ProblemKind = "one-sided"
)

// Problem is one broken cross reference.
type Problem struct {
	Kind ProblemKind
	Link Link
	// Declared tells which file declares the link: "quest" or "npc".
	Declared schema.Kind
}

func (p Problem) String() string {
	switch p.Kind {
	case MissingNPC:
		return fmt.Sprintf("quest %d: %s npc %d not in NPC database", p.Link.Quest, strings.ToLower(string(p.Link.Rel)), p.Link.NPC)
	case MissingQuest:
		return fmt.Sprintf("npc %d: %s quest %d not in quest database", p.Link.NPC, strings.ToLower(string(p.Link.Rel)), p.Link.Quest)
	default:
		other := schema.KindNPC
		if p.Declared == schema.KindNPC {
			other = schema.KindQuest
		}
		return fmt.Sprintf("npc %d %s quest %d: declared by %s only, missing on %s side",
			p.Link.NPC, p.Link.Rel, p.Link.Quest, p.Declared, other)
	}
}

// Check finds links pointing at records that do not exist and links only one
// side declares.
func (r *Relations) Check() []Problem {
	var problems []Problem

	npcSide := make(map[Link]bool, len(r.NPCSide))
	for _, l := range r.NPCSide {
		npcSide[l] = true
	}
	questSide := make(map[Link]bool, len(r.QuestSide))
	for _, l := range r.QuestSide {
		questSide[l] = true
	}

	for _, l := range r.QuestSide {
		switch {
		case !r.hasNPC(l.NPC):
			problems = append(problems, Problem{Kind: MissingNPC, Link: l, Declared: schema.KindQuest})
		case !npcSide[l]:
			problems = append(problems, Problem{Kind: OneSided, Link: l, Declared: schema.KindQuest})
		}
	}
	for _, l := range r.NPCSide {
		switch {
		case !r.hasQuest(l.Quest):
			problems = append(problems, Problem{Kind: MissingQuest, Link: l, Declared: schema.KindNPC})
		case !questSide[l]:
			problems = append(problems, Problem{Kind: OneSided, Link: l, Declared: schema.KindNPC})
		}
	}

	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Kind != problems[j].Kind {
			return problems[i].Kind < problems[j].Kind
		}
		return problems[i].Link.Quest < problems[j].Link.Quest
	})
	return problems
}

func (r *Relations) hasNPC(id int) bool {
	_, ok := r.NPCs[id]
	return ok
}

func (r *Relations) hasQuest(id int) bool {
	_, ok := r.Quests[id]
	return ok
}
