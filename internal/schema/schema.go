package schema

import "fmt"

// Coarse is the expected shape of a field slot.
type Coarse int

const (
	// Absent slots must hold nil.
	Absent Coarse = iota
	// Scalar slots hold a number, string or other bare literal.
	Scalar
	// Nested slots hold a table literal.
	Nested
)

func (c Coarse) String() string {
	switch c {
	case Absent:
		return "absent"
	case Scalar:
		return "scalar"
	case Nested:
		return "nested"
	default:
		return fmt.Sprintf("coarse(%d)", int(c))
	}
}

// Slot describes one positional field of a record.
type Slot struct {
	Name string
	Type Coarse
	// Depth is the expected maximum brace nesting of a nested slot.
	// Zero accepts any depth.
	Depth int
	// Required slots may not be nil.
	Required bool
	// UniqueKeys marks keyed tables (`{[k]=...}`) whose keys may appear once.
	UniqueKeys bool
}

// Kind names a database flavour.
type Kind string

const (
	KindQuest Kind = "quest"
	KindNPC   Kind = "npc"
)

// Schema is the ordered field layout of one record kind.
type Schema struct {
	Kind  Kind
	Label string
	// Table is the conventional name of the table holding the records.
	Table string
	Slots []Slot
}

// Len returns the number of positional fields.
func (s *Schema) Len() int { return len(s.Slots) }

// Index returns the position of the named slot, or -1.
func (s *Schema) Index(name string) int {
	for i, slot := range s.Slots {
		if slot.Name == name {
			return i
		}
	}
	return -1
}

// FieldName returns the slot name at position i, or a positional
// placeholder for fields past the end of the schema.
func (s *Schema) FieldName(i int) string {
	if i >= 0 && i < len(s.Slots) {
		return s.Slots[i].Name
	}
	return fmt.Sprintf("field%d", i+1)
}

// ForKind returns the default schema for a kind.
func ForKind(k Kind) (*Schema, error) {
	switch k {
	case KindQuest:
		return Quest(), nil
	case KindNPC:
		return NPC(), nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", k)
	}
}

func scalar(name string) Slot { return Slot{Name: name, Type: Scalar} }

func nested(name string, depth int) Slot { return Slot{Name: name, Type: Nested, Depth: depth} }

// Quest returns the 30-field quest layout.
func Quest() *Schema {
	return &Schema{
		Kind:  KindQuest,
		Label: "Quest",
		Table: "epochQuestData",
		Slots: []Slot{
			{Name: "name", Type: Scalar, Required: true},
			nested("startedBy", 2),
			nested("finishedBy", 2),
			scalar("requiredLevel"),
			scalar("questLevel"),
			scalar("requiredRaces"),
			scalar("requiredClasses"),
			nested("objectivesText", 1),
			nested("triggerEnd", 0),
			nested("objectives", 0),
			scalar("sourceItemId"),
			nested("preQuestGroup", 1),
			nested("preQuestSingle", 1),
			nested("childQuests", 1),
			nested("inGroupWith", 1),
			nested("exclusiveTo", 1),
			scalar("zoneOrSort"),
			nested("requiredSkill", 1),
			nested("requiredMinRep", 1),
			nested("requiredMaxRep", 1),
			nested("requiredSourceItems", 1),
			scalar("nextQuestInChain"),
			scalar("questFlags"),
			scalar("specialFlags"),
			scalar("parentQuest"),
			nested("reputationReward", 0),
			nested("extraObjectives", 0),
			scalar("requiredSpell"),
			scalar("requiredSpecialization"),
			scalar("requiredMaxLevel"),
		},
	}
}

// NPC returns the 15-field NPC layout.
func NPC() *Schema {
	return &Schema{
		Kind:  KindNPC,
		Label: "NPC",
		Table: "epochNpcData",
		Slots: []Slot{
			{Name: "name", Type: Scalar, Required: true},
			scalar("minLevelHealth"),
			scalar("maxLevelHealth"),
			scalar("minLevel"),
			scalar("maxLevel"),
			scalar("rank"),
			{Name: "spawns", Type: Nested, Depth: 3, UniqueKeys: true},
			nested("waypoints", 0),
			scalar("zoneID"),
			nested("questStarts", 1),
			nested("questEnds", 1),
			scalar("factionID"),
			scalar("friendlyToFaction"),
			scalar("subName"),
			scalar("npcFlags"),
		},
	}
}
