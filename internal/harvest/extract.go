package harvest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"questdb/internal/parser"
	"questdb/internal/textutil"
)

var (
	questIDRe      = regexp.MustCompile(`(?i)Quest ID:\s*(\d+)`)
	missingQuestRe = regexp.MustCompile(`(?i)Missing Quest:.*\(ID:\s*(\d+)\)`)
	questNameRe    = regexp.MustCompile(`Quest Name:\s*(.+?)(?:\n|$)`)
	dbSectionRe    = regexp.MustCompile(`(?is)DATABASE ENTRIES:.*?\n(.*?)(?:\n(?:═{3,}|END OF QUEST|$))`)
	levelRe        = regexp.MustCompile(`(?:Level:|\blevel\s*=)\s*(\d+)`)
	giverRe        = regexp.MustCompile(`(?s)QUEST GIVER:.*?NPC:\s*(.+?)\s*\(ID:\s*(\d+)\)`)
	turnInRe       = regexp.MustCompile(`(?s)TURN-IN NPC:.*?NPC:\s*(.+?)\s*\(ID:\s*(\d+)\)`)
	turnInAltRe    = regexp.MustCompile(`(?i)Turn.?in.*?to\s+(.+?)\s*\(ID:\s*(\d+)\)`)

	// Structured submissions written by the in-game collector.
	giverBlockRe  = regexp.MustCompile(`questGiver\s*=\s*\{[^}]*npcId\s*=\s*(\d+)[^}]*name\s*=\s*"([^"]+)"`)
	turnInBlockRe = regexp.MustCompile(`turnIn\s*=\s*\{[^}]*npcId\s*=\s*(\d+)[^}]*name\s*=\s*"([^"]+)"`)
	giverCoordsRe = regexp.MustCompile(`(?s)questGiver.*?coords\s*=\s*\{x\s*=\s*([\d.]+),\s*y\s*=\s*([\d.]+)\}`)
	turnCoordsRe  = regexp.MustCompile(`(?s)turnIn.*?coords\s*=\s*\{x\s*=\s*([\d.]+),\s*y\s*=\s*([\d.]+)\}`)
	zoneRe        = regexp.MustCompile(`\bzone\s*=\s*"([^"]+)"`)
)

// zoneIDs maps zone names used in submissions to area ids.
var zoneIDs = map[string]int{
	"Dun Morogh":          1,
	"Duskwood":            10,
	"Wetlands":            11,
	"Elwynn Forest":       12,
	"Durotar":             14,
	"The Barrens":         17,
	"Stranglethorn Vale":  33,
	"Alterac Mountains":   36,
	"Westfall":            40,
	"Arathi Highlands":    45,
	"The Hinterlands":     47,
	"Searing Gorge":       51,
	"Tirisfal Glades":     85,
	"Silverpine Forest":   130,
	"Teldrassil":          141,
	"Hillsbrad Foothills": 267,
	"Ashenvale":           331,
	"Feralas":             357,
	"Thousand Needles":    400,
}

// questFieldCount is the number of positional quest fields.
const questFieldCount = 30

// NPCRef is an NPC named in a submission.
type NPCRef struct {
	ID        int
	Name      string
	X, Y      float64
	HasCoords bool
}

// Submission is the quest data found in one issue body.
type Submission struct {
	QuestID int
	Name    string
	Level   int
	ZoneID  int
	Giver   *NPCRef
	TurnIn  *NPCRef
	// QuestEntry is the `[id] = {...}` line for the quest table.
	QuestEntry string
	// NPCEntries are NPC lines supplied verbatim by the submitter.
	NPCEntries map[int]string
	Issue      Issue
}

// Extract parses an issue body. It reports false when the body names no
// quest id.
func Extract(body string) (*Submission, bool) {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	m := questIDRe.FindStringSubmatch(body)
	if m == nil {
		m = missingQuestRe.FindStringSubmatch(body)
	}
	if m == nil {
		return nil, false
	}

	s := &Submission{Name: "Unknown"}
	s.QuestID, _ = strconv.Atoi(m[1])

	if m := questNameRe.FindStringSubmatch(body); m != nil {
		s.Name = textutil.Unquote(strings.TrimSpace(m[1]))
	}
	if m := levelRe.FindStringSubmatch(body); m != nil {
		s.Level, _ = strconv.Atoi(m[1])
	}
	if m := zoneRe.FindStringSubmatch(body); m != nil {
		s.ZoneID = zoneIDs[m[1]]
	}

	s.Giver = npcRef(body, giverRe, giverBlockRe, giverCoordsRe)
	s.TurnIn = npcRef(body, turnInRe, turnInBlockRe, turnCoordsRe)
	if s.TurnIn == nil {
		s.TurnIn = npcRef(body, turnInAltRe, nil, nil)
	}

	if m := dbSectionRe.FindStringSubmatch(body); m != nil {
		s.readEntries(m[1])
	}
	if s.QuestEntry == "" {
		s.QuestEntry = s.buildQuestEntry()
	}

	return s, true
}

func npcRef(body string, re, blockRe, coordsRe *regexp.Regexp) *NPCRef {
	var m []string
	if re != nil {
		m = re.FindStringSubmatch(body)
	}
	if m == nil && blockRe != nil {
		if b := blockRe.FindStringSubmatch(body); b != nil {
			m = []string{b[0], b[2], b[1]}
		}
	}
	if m == nil {
		return nil
	}

	id, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	ref := &NPCRef{ID: id, Name: strings.TrimSpace(m[1])}

	if coordsRe != nil {
		if c := coordsRe.FindStringSubmatch(body); c != nil {
			x, errX := strconv.ParseFloat(c[1], 64)
			y, errY := strconv.ParseFloat(c[2], 64)
			if errX == nil && errY == nil {
				ref.X, ref.Y, ref.HasCoords = x, y, true
			}
		}
	}
	return ref
}

// readEntries takes record lines from a DATABASE ENTRIES section. The record
// keyed by the quest id is the quest line; the others are NPCs.
func (s *Submission) readEntries(section string) {
	lines := strings.Split(section, "\n")
	for _, rec := range parser.Locate(lines, parser.LocateOptions{}) {
		if !rec.Closed {
			continue
		}
		entry := fmt.Sprintf("[%d] = {%s}", rec.ID, strings.Join(rec.Fields(), ","))
		entry = strings.ReplaceAll(entry, "\n", " ")

		if rec.ID == s.QuestID {
			if s.QuestEntry == "" {
				s.QuestEntry = entry
			}
			continue
		}
		if s.NPCEntries == nil {
			s.NPCEntries = make(map[int]string)
		}
		if _, ok := s.NPCEntries[rec.ID]; !ok {
			s.NPCEntries[rec.ID] = entry
		}
	}
}

func (s *Submission) buildQuestEntry() string {
	fields := make([]string, questFieldCount)
	for i := range fields {
		fields[i] = "nil"
	}

	fields[0] = textutil.Quote(s.Name)
	if s.Giver != nil {
		fields[1] = fmt.Sprintf("{{%d}}", s.Giver.ID)
	}
	if s.TurnIn != nil {
		fields[2] = fmt.Sprintf("{{%d}}", s.TurnIn.ID)
	}
	if s.Level > 0 {
		fields[4] = strconv.Itoa(s.Level)
	}
	if s.ZoneID > 0 {
		fields[16] = strconv.Itoa(s.ZoneID)
	}

	return fmt.Sprintf("[%d] = {%s}", s.QuestID, strings.Join(fields, ","))
}
