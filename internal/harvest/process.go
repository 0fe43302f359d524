package harvest

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"questdb/internal/merge"
	"questdb/internal/textutil"

	"github.com/rs/zerolog/log"
)

// npcFieldCount is the number of positional NPC fields.
const npcFieldCount = 15

// Status says how a harvested quest relates to the current database.
type Status string

const (
	StatusNew         Status = "new"
	StatusPlaceholder Status = "update-placeholder"
	StatusExisting    Status = "exists"
)

// Known holds what the current databases already contain.
type Known struct {
	Quests map[int]string
	NPCs   map[int]bool
	// IsPlaceholder classifies existing quest names.
	IsPlaceholder func(string) bool
}

// KnownFrom indexes loaded quest and NPC collections. Either may be nil.
func KnownFrom(quests, npcs *merge.Collection, policy merge.Policy) Known {
	k := Known{
		Quests:        make(map[int]string),
		NPCs:          make(map[int]bool),
		IsPlaceholder: policy.IsPlaceholder,
	}
	if quests != nil {
		for id, e := range quests.Entries {
			k.Quests[id] = e.Name
		}
	}
	if npcs != nil {
		for id := range npcs.Entries {
			k.NPCs[id] = true
		}
	}
	return k
}

// Result is one accepted submission.
type Result struct {
	*Submission
	Status Status
	// Existing is the current name when the quest is already present.
	Existing string
}

// NPCAddition is an NPC line for the NPC table, gathered across quests.
type NPCAddition struct {
	ID     int
	Entry  string
	Quests []int
	Issue  int
}

// Duplicate is a later submission for a quest already harvested.
type Duplicate struct {
	QuestID   int
	Issue     int
	KeptIssue int
}

// Batch is the outcome of processing a set of issues.
type Batch struct {
	Scanned    int
	Quests     []Result
	NPCs       []NPCAddition
	Duplicates []Duplicate
}

type npcDraft struct {
	ref    *NPCRef
	zone   int
	entry  string
	starts []int
	ends   []int
	quests []int
	issue  int
}

// Process extracts submissions from issues in order. The first submission
// for a quest id wins. NPCs already in the NPC database are not emitted.
func Process(issues []Issue, known Known) *Batch {
	b := &Batch{Scanned: len(issues)}
	kept := make(map[int]int)
	drafts := make(map[int]*npcDraft)

	for _, is := range issues {
		s, ok := Extract(is.Body)
		if !ok {
			continue
		}
		s.Issue = is

		if first, dup := kept[s.QuestID]; dup {
			b.Duplicates = append(b.Duplicates, Duplicate{QuestID: s.QuestID, Issue: is.Number, KeptIssue: first})
			log.Debug().Int("quest", s.QuestID).Int("issue", is.Number).Int("kept", first).Msg("Duplicate submission, keeping earlier")
			continue
		}
		kept[s.QuestID] = is.Number

		r := Result{Submission: s, Status: StatusNew}
		if name, exists := known.Quests[s.QuestID]; exists {
			r.Existing = name
			r.Status = StatusExisting
			if known.IsPlaceholder != nil && known.IsPlaceholder(name) {
				r.Status = StatusPlaceholder
			}
		}
		b.Quests = append(b.Quests, r)

		draft := func(id int) *npcDraft {
			d, ok := drafts[id]
			if !ok {
				d = &npcDraft{issue: is.Number}
				drafts[id] = d
			}
			if !slices.Contains(d.quests, s.QuestID) {
				d.quests = append(d.quests, s.QuestID)
			}
			return d
		}

		for id, entry := range s.NPCEntries {
			if known.NPCs[id] {
				continue
			}
			d := draft(id)
			if d.entry == "" {
				d.entry = entry
			}
		}
		for _, side := range []struct {
			ref    *NPCRef
			starts bool
		}{{s.Giver, true}, {s.TurnIn, false}} {
			if side.ref == nil || known.NPCs[side.ref.ID] {
				continue
			}
			d := draft(side.ref.ID)
			if d.ref == nil {
				d.ref, d.zone = side.ref, s.ZoneID
			}
			if side.starts {
				d.starts = append(d.starts, s.QuestID)
			} else {
				d.ends = append(d.ends, s.QuestID)
			}
		}
	}

	sort.Slice(b.Quests, func(i, j int) bool { return b.Quests[i].QuestID < b.Quests[j].QuestID })

	for id, d := range drafts {
		entry := d.entry
		if entry == "" {
			entry = npcEntry(id, d)
		}
		b.NPCs = append(b.NPCs, NPCAddition{ID: id, Entry: entry, Quests: d.quests, Issue: d.issue})
	}
	sort.Slice(b.NPCs, func(i, j int) bool { return b.NPCs[i].ID < b.NPCs[j].ID })

	log.Info().
		Int("issues", b.Scanned).
		Int("quests", len(b.Quests)).
		Int("npcs", len(b.NPCs)).
		Int("duplicates", len(b.Duplicates)).
		Msg("Processed submissions")
	return b
}

func npcEntry(id int, d *npcDraft) string {
	fields := make([]string, npcFieldCount)
	for i := range fields {
		fields[i] = "nil"
	}

	fields[0] = textutil.Quote(d.ref.Name)
	if d.ref.HasCoords && d.zone > 0 {
		fields[6] = fmt.Sprintf("{[%d]={{%.2f,%.2f}}}", d.zone, d.ref.X, d.ref.Y)
	}
	if d.zone > 0 {
		fields[8] = strconv.Itoa(d.zone)
	}
	if len(d.starts) > 0 {
		fields[9] = intTable(d.starts)
	}
	if len(d.ends) > 0 {
		fields[10] = intTable(d.ends)
	}
	fields[12] = `"AH"`

	return fmt.Sprintf("[%d] = {%s}", id, strings.Join(fields, ","))
}

func intTable(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
