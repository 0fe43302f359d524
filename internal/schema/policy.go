package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is a repair applied to a misplaced or malformed field.
type Action string

const (
	ActionClear        Action = "clear"
	ActionRelocate     Action = "relocate"
	ActionWrap         Action = "wrap"
	ActionUnwrap       Action = "unwrap"
	ActionUnwrapScalar Action = "unwrap-scalar"
)

// ValueClass buckets a bare integer by its numeric range.
type ValueClass string

const (
	ClassFlag ValueClass = "flag"
	ClassZone ValueClass = "zone"
	ClassXref ValueClass = "xref"
	// ClassAny matches every scalar, numeric or not.
	ClassAny ValueClass = "any"
)

// Range is an inclusive integer range. A zero Max means no upper bound.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether n lies in the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && (r.Max == 0 || n <= r.Max)
}

// Rule says what to do with a scalar found in a nested slot.
type Rule struct {
	Field   string     `yaml:"field"`
	Class   ValueClass `yaml:"class"`
	Action  Action     `yaml:"action"`
	Targets []string   `yaml:"targets,omitempty"`
}

// Policy is the reviewable table of heuristic repairs.
type Policy struct {
	Classes map[ValueClass]Range `yaml:"classes"`
	Quest   []Rule               `yaml:"quest"`
	NPC     []Rule               `yaml:"npc"`
	// Placeholders are regular expressions matching stand-in record names.
	Placeholders []string `yaml:"placeholders"`
}

// DefaultPolicy returns the built-in repair policy.
func DefaultPolicy() Policy {
	zoneToSort := func(field string) []Rule {
		return []Rule{
			{Field: field, Class: ClassZone, Action: ActionRelocate, Targets: []string{"zoneOrSort"}},
			{Field: field, Class: ClassAny, Action: ActionClear},
		}
	}

	var quest []Rule
	quest = append(quest, zoneToSort("childQuests")...)
	quest = append(quest, zoneToSort("exclusiveTo")...)
	quest = append(quest, zoneToSort("requiredSkill")...)
	quest = append(quest,
		Rule{Field: "requiredMinRep", Class: ClassXref, Action: ActionRelocate, Targets: []string{"nextQuestInChain"}},
		Rule{Field: "requiredMinRep", Class: ClassAny, Action: ActionClear},
		Rule{Field: "requiredMaxRep", Class: ClassFlag, Action: ActionRelocate, Targets: []string{"questFlags", "specialFlags"}},
		Rule{Field: "requiredMaxRep", Class: ClassAny, Action: ActionClear},
		Rule{Field: "requiredSourceItems", Class: ClassXref, Action: ActionRelocate, Targets: []string{"nextQuestInChain"}},
		Rule{Field: "requiredSourceItems", Class: ClassFlag, Action: ActionRelocate, Targets: []string{"questFlags", "specialFlags"}},
		Rule{Field: "requiredSourceItems", Class: ClassAny, Action: ActionClear},
		Rule{Field: "reputationReward", Class: ClassXref, Action: ActionRelocate, Targets: []string{"parentQuest"}},
		Rule{Field: "reputationReward", Class: ClassAny, Action: ActionClear},
		Rule{Field: "extraObjectives", Class: ClassAny, Action: ActionClear},
	)

	return Policy{
		Classes: map[ValueClass]Range{
			ClassFlag: {Min: 0, Max: 10},
			ClassZone: {Min: 1, Max: 2000},
			ClassXref: {Min: 10001},
		},
		Quest: quest,
		Placeholders: []string{
			`^\[Epoch\] Quest`,
			`^\[Placeholder\]`,
		},
	}
}

// LoadPolicy loads a policy from a YAML file. Keys present in the file
// replace the defaults; if the file doesn't exist, returns defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading policy %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing policy %s: %w", path, err)
	}

	return p, nil
}

// Rules returns the rules that apply to records of kind k.
func (p Policy) Rules(k Kind) []Rule {
	if k == KindNPC {
		return p.NPC
	}
	return p.Quest
}

// Matches reports whether a scalar field value belongs to class c.
func (p Policy) Matches(c ValueClass, value string) bool {
	if c == ClassAny {
		return true
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	r, ok := p.Classes[c]
	return ok && r.Contains(n)
}

// Validate checks that every rule names real slots of s and a known action.
func (p Policy) Validate(s *Schema) error {
	for i, r := range p.Rules(s.Kind) {
		idx := s.Index(r.Field)
		if idx < 0 {
			return fmt.Errorf("rule %d: unknown %s field %q", i+1, s.Kind, r.Field)
		}
		if s.Slots[idx].Type != Nested {
			return fmt.Errorf("rule %d: field %q is not a nested slot", i+1, r.Field)
		}
		if _, ok := p.Classes[r.Class]; !ok && r.Class != ClassAny {
			return fmt.Errorf("rule %d: unknown value class %q", i+1, r.Class)
		}
		switch r.Action {
		case ActionClear, ActionWrap:
		case ActionRelocate:
			if len(r.Targets) == 0 {
				return fmt.Errorf("rule %d: relocate without targets", i+1)
			}
			for _, t := range r.Targets {
				ti := s.Index(t)
				if ti < 0 {
					return fmt.Errorf("rule %d: unknown target field %q", i+1, t)
				}
				if s.Slots[ti].Type != Scalar {
					return fmt.Errorf("rule %d: target %q is not a scalar slot", i+1, t)
				}
			}
		default:
			return fmt.Errorf("rule %d: action %q does not apply to scalars", i+1, r.Action)
		}
	}
	return nil
}
