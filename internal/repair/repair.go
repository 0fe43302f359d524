package repair

import (
	"fmt"
	"slices"
	"strings"

	"questdb/internal/issue"
	"questdb/internal/parser"
	"questdb/internal/schema"
	"questdb/internal/textutil"
)

// sampleLen bounds how much of a field value is quoted in messages.
const sampleLen = 40

// Context carries the state of one validation or repair pass over a file.
type Context struct {
	Schema *schema.Schema
	Policy schema.Policy
	// Repair enables rewriting; otherwise fields are only checked.
	Repair bool
	// Issues accumulates every finding of the pass in order.
	Issues []issue.Issue

	seen  map[int]int
	rules map[int][]schema.Rule
}

// NewContext validates the policy against the schema and returns a fresh
// context.
func NewContext(s *schema.Schema, p schema.Policy, repair bool) (*Context, error) {
	if err := p.Validate(s); err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}

	rules := make(map[int][]schema.Rule)
	for _, r := range p.Rules(s.Kind) {
		idx := s.Index(r.Field)
		rules[idx] = append(rules[idx], r)
	}

	return &Context{
		Schema: s,
		Policy: p,
		Repair: repair,
		seen:   make(map[int]int),
		rules:  rules,
	}, nil
}

// Seen registers a record id defined at line. It returns the line of the
// first definition and whether the id had been seen before.
func (c *Context) Seen(id, line int) (int, bool) {
	if first, ok := c.seen[id]; ok {
		return first, true
	}
	c.seen[id] = line
	return line, false
}

// CheckAndRepair checks a record's fields against the schema. It returns the
// findings and, when the context repairs, the repaired fields.
func (c *Context) CheckAndRepair(id int, fields []string, line int) ([]issue.Issue, []string) {
	ch := &checker{ctx: c, id: id, line: line, out: slices.Clone(fields)}

	want := c.Schema.Len()
	switch n := len(ch.out); {
	case n < want:
		ch.report(issue.Schema, "", fmt.Sprintf("has %d fields, expected %d", n, want), true)
		// Check-only mode pads too: relocation targets past the end read as nil.
		for len(ch.out) < want {
			ch.out = append(ch.out, "nil")
		}
	case n > want:
		ch.report(issue.Schema, "", fmt.Sprintf("has %d fields, expected %d", n, want), false)
	}

	for i := range c.Schema.Slots {
		ch.check(i)
	}

	c.Issues = append(c.Issues, ch.issues...)
	if !c.Repair {
		return ch.issues, nil
	}
	return ch.issues, ch.out
}

// checker applies the slot rules to one record. Rewrites always land in out
// so later slots see earlier decisions, even in check-only mode.
type checker struct {
	ctx    *Context
	id     int
	line   int
	out    []string
	issues []issue.Issue
}

func (ch *checker) report(kind issue.Kind, field, msg string, repairable bool) {
	ch.issues = append(ch.issues, issue.Issue{
		Kind:     kind,
		RecordID: ch.id,
		Line:     ch.line,
		Field:    field,
		Message:  msg,
		Fixed:    repairable && ch.ctx.Repair,
	})
}

func (ch *checker) check(i int) {
	slot := ch.ctx.Schema.Slots[i]
	v := ch.out[i]

	switch ShapeOf(v) {
	case ShapeNil:
		if slot.Required {
			ch.report(issue.Schema, slot.Name, "is nil but required", false)
		}
		return
	case ShapeMalformed:
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("malformed value %q", sample(v)), false)
		return
	}

	switch slot.Type {
	case schema.Absent:
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("should be nil, got %s", sample(v)), true)
		ch.out[i] = "nil"
	case schema.Scalar:
		ch.checkScalar(i, slot, v)
	case schema.Nested:
		ch.checkNested(i, slot, v)
	}
}

func (ch *checker) checkScalar(i int, slot schema.Slot, v string) {
	if ShapeOf(v) != ShapeTable {
		return
	}
	if n, ok := wrappedInt(v); ok {
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("wrapped number %s, expected %s (%s)", sample(v), n, schema.ActionUnwrapScalar), true)
		ch.out[i] = n
		return
	}
	ch.report(issue.Schema, slot.Name, fmt.Sprintf("expected a scalar, got table %s", sample(v)), false)
}

func (ch *checker) checkNested(i int, slot schema.Slot, v string) {
	if ShapeOf(v).IsScalar() {
		for _, r := range ch.ctx.rules[i] {
			if ch.ctx.Policy.Matches(r.Class, v) {
				ch.apply(i, slot, r, v)
				return
			}
		}
		if slot.Depth == 1 {
			ch.wrap(i, slot, v)
			return
		}
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("bare value %s, expected a table", sample(v)), false)
		return
	}

	if slot.UniqueKeys {
		v = ch.dedupeKeys(i, slot, v)
	}
	if slot.Depth == 0 || len(parser.Elements(v)) == 0 {
		return
	}

	switch d := parser.Depth(v); {
	case d == slot.Depth:
	case d == slot.Depth+1 && singleWrapped(v):
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("extra wrapping braces in %s, expected depth %d (%s)", sample(v), slot.Depth, schema.ActionUnwrap), true)
		ch.out[i] = parser.Inner(v)
	case d == slot.Depth-1 && !keyed(v):
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("missing wrapping braces in %s, expected depth %d (%s)", sample(v), slot.Depth, schema.ActionWrap), true)
		ch.out[i] = "{" + v + "}"
	default:
		ch.report(issue.Schema, slot.Name, fmt.Sprintf("nesting depth %d, expected %d", d, slot.Depth), false)
	}
}

func (ch *checker) wrap(i int, slot schema.Slot, v string) {
	ch.report(issue.Schema, slot.Name, fmt.Sprintf("bare value %s, expected a table (%s)", sample(v), schema.ActionWrap), true)
	ch.out[i] = "{" + v + "}"
}

func (ch *checker) apply(i int, slot schema.Slot, r schema.Rule, v string) {
	switch r.Action {
	case schema.ActionWrap:
		ch.wrap(i, slot, v)
	case schema.ActionRelocate:
		for _, target := range r.Targets {
			ti := ch.ctx.Schema.Index(target)
			if ShapeOf(ch.out[ti]) != ShapeNil {
				continue
			}
			ch.report(issue.AmbiguousRelocation, slot.Name, fmt.Sprintf("moved %s value %s to %s", r.Class, v, target), true)
			ch.out[ti] = v
			ch.out[i] = "nil"
			return
		}
		ch.report(issue.AmbiguousRelocation, slot.Name, fmt.Sprintf("cleared %s value %s, %s already set", r.Class, v, strings.Join(r.Targets, "/")), true)
		ch.out[i] = "nil"
	default:
		ch.report(issue.AmbiguousRelocation, slot.Name, fmt.Sprintf("cleared misplaced %s value %s", r.Class, sample(v)), true)
		ch.out[i] = "nil"
	}
}

// dedupeKeys drops repeated `[k] = ...` entries, keeping the first.
func (ch *checker) dedupeKeys(i int, slot schema.Slot, v string) string {
	elems := parser.Elements(v)
	seen := make(map[string]bool, len(elems))
	kept := make([]string, 0, len(elems))
	var dropped []string

	for _, e := range elems {
		key, ok := tableKey(e)
		if ok && seen[key] {
			dropped = append(dropped, key)
			continue
		}
		if ok {
			seen[key] = true
		}
		kept = append(kept, e)
	}
	if len(dropped) == 0 {
		return v
	}

	ch.report(issue.Schema, slot.Name, fmt.Sprintf("duplicate keys %s, keeping the first", strings.Join(dropped, ", ")), true)
	ch.out[i] = "{" + strings.Join(kept, ",") + "}"
	return ch.out[i]
}

func sample(v string) string {
	return textutil.Truncate(strings.Join(strings.Fields(v), " "), sampleLen)
}
